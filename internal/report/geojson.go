// Package report writes the pipeline's final outputs: the master entity set
// as GeoJSON and CSV, and a match-quality workbook for review.
package report

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom/encoding/geojson"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// feature keeps geometry as a raw message so masters without a shape encode
// as a JSON null instead of failing.
type feature struct {
	Type       string          `json:"type"`
	Geometry   json.RawMessage `json:"geometry"`
	Properties map[string]any  `json:"properties"`
}

type featureCollection struct {
	Type     string    `json:"type"`
	Features []feature `json:"features"`
}

// WriteMasterGeoJSON writes one feature per master entity.
func WriteMasterGeoJSON(path string, masters []model.MasterEntity) error {
	fc := featureCollection{Type: "FeatureCollection", Features: make([]feature, 0, len(masters))}
	for i := range masters {
		m := &masters[i]

		geomJSON := json.RawMessage("null")
		if m.Geometry != nil && !m.Geometry.Empty() {
			b, err := geojson.Marshal(m.Geometry)
			if err != nil {
				return eris.Wrapf(err, "report: encode geometry for %s", m.PWSID)
			}
			geomJSON = b
		}

		fc.Features = append(fc.Features, feature{
			Type:       "Feature",
			Geometry:   geomJSON,
			Properties: masterProperties(m),
		})
	}

	data, err := json.Marshal(fc)
	if err != nil {
		return eris.Wrap(err, "report: marshal feature collection")
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return eris.Wrapf(err, "report: write %s", path)
	}
	zap.L().Info("wrote master geojson", zap.String("path", path), zap.Int("features", len(fc.Features)))
	return nil
}

func masterProperties(m *model.MasterEntity) map[string]any {
	props := map[string]any{
		"pwsid":                     m.PWSID,
		"pws_name":                  m.Name,
		"state":                     m.State,
		"county":                    m.County,
		"city_served":               m.CityServed,
		"population_served_count":   int64Prop(m.PopulationServed),
		"service_connections_count": int64Prop(m.ServiceConnections),
		"primacy_agency_code":       m.PrimacyAgencyCode,
		"primacy_type":              m.PrimacyType,
		"owner_type_code":           m.OwnerTypeCode,
		"service_area_type_code":    m.ServiceAreaTypeCode,
		"is_wholesaler_ind":         m.IsWholesaler,
		"primary_source_code":       m.PrimarySourceCode,
		"tier":                      string(m.Tier),
		"centroid_lat":              floatProp(m.CentroidLat),
		"centroid_long":             floatProp(m.CentroidLon),
		"centroid_quality":          m.CentroidQuality,
		"matched_bound_geoid":       m.MatchedBoundGeoID,
		"matched_bound_name":        m.MatchedBoundName,
		"pred_05":                   floatProp(m.Pred05),
		"pred_50":                   floatProp(m.Pred50),
		"pred_95":                   floatProp(m.Pred95),
	}
	return props
}

func floatProp(v *float64) any {
	if v == nil {
		return nil
	}
	return *v
}

func int64Prop(v *int64) any {
	if v == nil {
		return nil
	}
	return *v
}
