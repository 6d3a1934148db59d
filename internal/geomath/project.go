// Package geomath provides the planar geometry used by the matcher and
// scorer: an equal-area projection for distance work, point-in-polygon
// containment, and minimum distances between projected geometries.
package geomath

import (
	"math"

	"github.com/twpayne/go-geom"
)

// Albers implements a spherical Albers equal-area conic projection. The
// default parameters are those of the CONUS Albers projection (EPSG:5070),
// which keeps distance comparisons meaningful across the full longitude span
// of the US instead of degenerating the way raw lat/long math does.
type Albers struct {
	n      float64
	c      float64
	rho0   float64
	lon0   float64
	radius float64
}

// Projection parameters for CONUS Albers.
const (
	conusLat1 = 29.5
	conusLat2 = 45.5
	conusLat0 = 23.0
	conusLon0 = -96.0

	// Authalic sphere radius in meters.
	authalicRadius = 6371007.2
)

// NewConusAlbers returns the projection used for all scorer distance work.
func NewConusAlbers() *Albers {
	return NewAlbers(conusLat1, conusLat2, conusLat0, conusLon0)
}

// NewAlbers builds an Albers projection with the given standard parallels,
// latitude of origin, and central meridian (all in degrees).
func NewAlbers(lat1, lat2, lat0, lon0 float64) *Albers {
	phi1 := rad(lat1)
	phi2 := rad(lat2)
	phi0 := rad(lat0)

	n := (math.Sin(phi1) + math.Sin(phi2)) / 2
	c := math.Cos(phi1)*math.Cos(phi1) + 2*n*math.Sin(phi1)
	rho0 := math.Sqrt(c-2*n*math.Sin(phi0)) / n

	return &Albers{n: n, c: c, rho0: rho0, lon0: rad(lon0), radius: authalicRadius}
}

// Project converts a lon/lat coordinate (degrees) to planar x/y meters.
func (a *Albers) Project(lon, lat float64) (x, y float64) {
	theta := a.n * (rad(lon) - a.lon0)
	rho := math.Sqrt(a.c-2*a.n*math.Sin(rad(lat))) / a.n

	x = a.radius * rho * math.Sin(theta)
	y = a.radius * (a.rho0 - rho*math.Cos(theta))
	return x, y
}

// ProjectGeom returns a copy of g with every coordinate projected from
// lon/lat degrees to planar meters. Z/M ordinates are not carried.
func (a *Albers) ProjectGeom(g geom.T) geom.T {
	if g == nil {
		return nil
	}

	switch t := g.(type) {
	case *geom.Point:
		if t.Empty() {
			return geom.NewPointEmpty(geom.XY)
		}
		x, y := a.Project(t.X(), t.Y())
		return geom.NewPointFlat(geom.XY, []float64{x, y})

	case *geom.Polygon:
		return geom.NewPolygonFlat(geom.XY, a.projectFlat(t.FlatCoords(), t.Stride()), rebase(t.Ends(), t.Stride()))

	case *geom.MultiPolygon:
		flat := a.projectFlat(t.FlatCoords(), t.Stride())
		endss := make([][]int, len(t.Endss()))
		for i, ends := range t.Endss() {
			endss[i] = rebase(ends, t.Stride())
		}
		return geom.NewMultiPolygonFlat(geom.XY, flat, endss)

	case *geom.MultiPoint:
		return geom.NewMultiPointFlat(geom.XY, a.projectFlat(t.FlatCoords(), t.Stride()))

	default:
		return nil
	}
}

// projectFlat projects a flat coordinate array, dropping any extra ordinates.
func (a *Albers) projectFlat(flat []float64, stride int) []float64 {
	out := make([]float64, 0, len(flat)/stride*2)
	for i := 0; i+1 < len(flat); i += stride {
		x, y := a.Project(flat[i], flat[i+1])
		out = append(out, x, y)
	}
	return out
}

// rebase rescales ring end offsets from the source stride to XY stride.
func rebase(ends []int, stride int) []int {
	out := make([]int, len(ends))
	for i, e := range ends {
		out[i] = e / stride * 2
	}
	return out
}

func rad(deg float64) float64 {
	return deg * math.Pi / 180
}
