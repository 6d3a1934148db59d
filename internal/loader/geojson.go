package loader

import (
	"encoding/json"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/normalize"
)

func readFeatureCollection(path string) (*geojson.FeatureCollection, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "loader: read %s", path)
	}
	var fc geojson.FeatureCollection
	if err := json.Unmarshal(data, &fc); err != nil {
		return nil, eris.Wrapf(err, "loader: parse geojson %s", path)
	}
	return &fc, nil
}

func propString(props map[string]interface{}, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case float64:
		// Integer-valued ids come through as numbers.
		return strconv.FormatInt(int64(v), 10)
	default:
		return ""
	}
}

func propFloat(props map[string]interface{}, key string) *float64 {
	switch v := props[key].(type) {
	case float64:
		return &v
	case string:
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return &f
		}
	}
	return nil
}

// MHPParks reads the mobile-home-park registry.
func MHPParks(path string) ([]normalize.MHPPark, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	out := make([]normalize.MHPPark, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		out = append(out, normalize.MHPPark{
			MHPID:            propString(p, "mhp_id"),
			Name:             propString(p, "mhp_name"),
			Address:          propString(p, "address"),
			City:             propString(p, "city"),
			State:            propString(p, "state"),
			Zip:              propString(p, "zipcode"),
			County:           propString(p, "county"),
			Lat:              propFloat(p, "latitude"),
			Lon:              propFloat(p, "longitude"),
			ValidationMethod: propString(p, "val_method"),
		})
	}
	zap.L().Info("loaded park registry", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}

// LabeledBoundaries reads the verified service-area boundary collection.
func LabeledBoundaries(path string) ([]normalize.LabeledBoundary, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	out := make([]normalize.LabeledBoundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		out = append(out, normalize.LabeledBoundary{
			PWSID:    propString(p, "pwsid"),
			Name:     propString(p, "pws_name"),
			State:    propString(p, "state"),
			City:     propString(p, "city"),
			County:   propString(p, "county"),
			Lat:      propFloat(p, "centroid_lat"),
			Lon:      propFloat(p, "centroid_long"),
			Geometry: f.Geometry,
		})
	}
	zap.L().Info("loaded labeled boundaries", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}

// ContributedBoundaries reads externally contributed service areas.
func ContributedBoundaries(path string) ([]normalize.ContributedBoundary, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	out := make([]normalize.ContributedBoundary, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		out = append(out, normalize.ContributedBoundary{
			PWSID:    propString(p, "pwsid"),
			Name:     propString(p, "pws_name"),
			State:    propString(p, "state"),
			Geometry: f.Geometry,
		})
	}
	zap.L().Info("loaded contributed boundaries", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}

// StateBoundaries reads state polygons keyed by postal abbreviation, used to
// detect out-of-state coordinates.
func StateBoundaries(path string) (map[string]geom.T, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	out := make(map[string]geom.T, len(fc.Features))
	for _, f := range fc.Features {
		abbr := propString(f.Properties, "stusps")
		if abbr == "" {
			abbr = propString(f.Properties, "state")
		}
		if abbr == "" || f.Geometry == nil {
			continue
		}
		out[abbr] = f.Geometry
	}
	zap.L().Info("loaded state boundaries", zap.String("path", path), zap.Int("states", len(out)))
	return out, nil
}

// TierThreeGeometries reads the externally modeled boundary estimates with
// their prediction intervals.
func TierThreeGeometries(path string) ([]model.TierGeometry, error) {
	fc, err := readFeatureCollection(path)
	if err != nil {
		return nil, err
	}
	out := make([]model.TierGeometry, 0, len(fc.Features))
	for _, f := range fc.Features {
		p := f.Properties
		out = append(out, model.TierGeometry{
			PWSID:           propString(p, "pwsid"),
			Tier:            model.Tier3,
			Geometry:        f.Geometry,
			CentroidLat:     propFloat(p, "centroid_lat"),
			CentroidLon:     propFloat(p, "centroid_lon"),
			CentroidQuality: propString(p, "centroid_quality"),
			Pred05:          propFloat(p, ".pred_lower"),
			Pred50:          propFloat(p, ".pred"),
			Pred95:          propFloat(p, ".pred_upper"),
		})
	}
	zap.L().Info("loaded modeled boundaries", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}
