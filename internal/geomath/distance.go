package geomath

import (
	"math"

	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/xy"
)

// Contains reports whether the polygon or multipolygon g contains the point
// (x, y). Points inside a hole are not contained. Non-areal geometries never
// contain anything.
func Contains(g geom.T, x, y float64) bool {
	p := geom.Coord{x, y}

	switch t := g.(type) {
	case *geom.Polygon:
		return polygonContains(t, p)
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			if polygonContains(t.Polygon(i), p) {
				return true
			}
		}
	}
	return false
}

func polygonContains(poly *geom.Polygon, p geom.Coord) bool {
	if poly.NumLinearRings() == 0 {
		return false
	}
	if !xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(0).FlatCoords()) {
		return false
	}
	// Inside the shell; holes exclude.
	for i := 1; i < poly.NumLinearRings(); i++ {
		if xy.IsPointInRing(poly.Layout(), p, poly.LinearRing(i).FlatCoords()) {
			return false
		}
	}
	return true
}

// Distance returns the minimum planar distance between two geometries, 0 when
// they touch or overlap, and NaN when either geometry is nil or empty. Both
// geometries must already be in the same planar CRS.
func Distance(a, b geom.T) float64 {
	if a == nil || b == nil || a.Empty() || b.Empty() {
		return math.NaN()
	}

	ringsA, ptsA := decompose(a)
	ringsB, ptsB := decompose(b)

	// Any vertex or point of one inside the other means they overlap.
	if anyInside(a, ringsB, ptsB) || anyInside(b, ringsA, ptsA) {
		return 0
	}
	if ringsCross(ringsA, ringsB) {
		return 0
	}

	min := math.Inf(1)
	lines := func(rings [][]float64, pts []geom.Coord, other [][]float64, otherPts []geom.Coord) {
		for _, ring := range rings {
			for i := 0; i+1 < len(ring); i += 2 {
				c := geom.Coord{ring[i], ring[i+1]}
				min = math.Min(min, coordToParts(c, other, otherPts))
			}
		}
		for _, p := range pts {
			min = math.Min(min, coordToParts(p, other, otherPts))
		}
	}
	lines(ringsA, ptsA, ringsB, ptsB)
	lines(ringsB, ptsB, ringsA, ptsA)

	if math.IsInf(min, 1) {
		return math.NaN()
	}
	return min
}

// coordToParts returns the minimum distance from c to any ring edge or point.
func coordToParts(c geom.Coord, rings [][]float64, pts []geom.Coord) float64 {
	min := math.Inf(1)
	for _, ring := range rings {
		min = math.Min(min, xy.DistanceFromPointToLineString(geom.XY, c, ring))
	}
	for _, p := range pts {
		min = math.Min(min, xy.Distance(c, p))
	}
	return min
}

// anyInside reports whether any ring vertex or standalone point lies inside
// the areal geometry g.
func anyInside(g geom.T, rings [][]float64, pts []geom.Coord) bool {
	for _, ring := range rings {
		for i := 0; i+1 < len(ring); i += 2 {
			if Contains(g, ring[i], ring[i+1]) {
				return true
			}
		}
	}
	for _, p := range pts {
		if Contains(g, p[0], p[1]) {
			return true
		}
	}
	return false
}

// ringsCross reports whether any edge of one ring set intersects an edge of
// the other. Per-ring bounding boxes gate the quadratic edge scan.
func ringsCross(ringsA, ringsB [][]float64) bool {
	for _, ra := range ringsA {
		boxA := ringBounds(ra)
		for _, rb := range ringsB {
			if !boxA.overlaps(ringBounds(rb)) {
				continue
			}
			if edgesIntersect(ra, rb) {
				return true
			}
		}
	}
	return false
}

func edgesIntersect(ra, rb []float64) bool {
	for i := 0; i+3 < len(ra); i += 2 {
		ax0, ay0, ax1, ay1 := ra[i], ra[i+1], ra[i+2], ra[i+3]
		for j := 0; j+3 < len(rb); j += 2 {
			if segmentsIntersect(ax0, ay0, ax1, ay1, rb[j], rb[j+1], rb[j+2], rb[j+3]) {
				return true
			}
		}
	}
	return false
}

// segmentsIntersect uses orientation tests; collinear overlaps count.
func segmentsIntersect(ax0, ay0, ax1, ay1, bx0, by0, bx1, by1 float64) bool {
	d1 := cross(bx0, by0, bx1, by1, ax0, ay0)
	d2 := cross(bx0, by0, bx1, by1, ax1, ay1)
	d3 := cross(ax0, ay0, ax1, ay1, bx0, by0)
	d4 := cross(ax0, ay0, ax1, ay1, bx1, by1)

	if ((d1 > 0 && d2 < 0) || (d1 < 0 && d2 > 0)) &&
		((d3 > 0 && d4 < 0) || (d3 < 0 && d4 > 0)) {
		return true
	}

	return (d1 == 0 && onSegment(bx0, by0, bx1, by1, ax0, ay0)) ||
		(d2 == 0 && onSegment(bx0, by0, bx1, by1, ax1, ay1)) ||
		(d3 == 0 && onSegment(ax0, ay0, ax1, ay1, bx0, by0)) ||
		(d4 == 0 && onSegment(ax0, ay0, ax1, ay1, bx1, by1))
}

func cross(ox, oy, ax, ay, bx, by float64) float64 {
	return (ax-ox)*(by-oy) - (ay-oy)*(bx-ox)
}

func onSegment(x0, y0, x1, y1, px, py float64) bool {
	return math.Min(x0, x1) <= px && px <= math.Max(x0, x1) &&
		math.Min(y0, y1) <= py && py <= math.Max(y0, y1)
}

type bounds struct {
	minX, minY, maxX, maxY float64
}

func (b bounds) overlaps(o bounds) bool {
	return b.minX <= o.maxX && o.minX <= b.maxX && b.minY <= o.maxY && o.minY <= b.maxY
}

func ringBounds(ring []float64) bounds {
	b := bounds{math.Inf(1), math.Inf(1), math.Inf(-1), math.Inf(-1)}
	for i := 0; i+1 < len(ring); i += 2 {
		b.minX = math.Min(b.minX, ring[i])
		b.maxX = math.Max(b.maxX, ring[i])
		b.minY = math.Min(b.minY, ring[i+1])
		b.maxY = math.Max(b.maxY, ring[i+1])
	}
	return b
}

// decompose splits a geometry into closed rings and standalone points, both
// in flat XY form.
func decompose(g geom.T) (rings [][]float64, pts []geom.Coord) {
	switch t := g.(type) {
	case *geom.Point:
		if !t.Empty() {
			pts = append(pts, geom.Coord{t.X(), t.Y()})
		}
	case *geom.MultiPoint:
		for i := 0; i < t.NumPoints(); i++ {
			p := t.Point(i)
			pts = append(pts, geom.Coord{p.X(), p.Y()})
		}
	case *geom.Polygon:
		for i := 0; i < t.NumLinearRings(); i++ {
			rings = append(rings, t.LinearRing(i).FlatCoords())
		}
	case *geom.MultiPolygon:
		for i := 0; i < t.NumPolygons(); i++ {
			p := t.Polygon(i)
			for j := 0; j < p.NumLinearRings(); j++ {
				rings = append(rings, p.LinearRing(j).FlatCoords())
			}
		}
	}
	return rings, pts
}
