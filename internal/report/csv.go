package report

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// masterCSVHeader mirrors the GeoJSON property set minus the geometry.
var masterCSVHeader = []string{
	"pwsid", "pws_name", "state", "county", "city_served",
	"population_served_count", "service_connections_count",
	"primacy_agency_code", "primacy_type", "owner_type_code",
	"service_area_type_code", "is_wholesaler_ind", "primary_source_code",
	"tier", "centroid_lat", "centroid_long", "centroid_quality",
	"matched_bound_geoid", "matched_bound_name",
	"pred_05", "pred_50", "pred_95",
}

// WriteMasterCSV writes the attribute table for consumers that cannot read
// GeoJSON.
func WriteMasterCSV(path string, masters []model.MasterEntity) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "report: create %s", path)
	}
	defer func() { _ = f.Close() }()

	w := csv.NewWriter(f)
	if err := w.Write(masterCSVHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for i := range masters {
		m := &masters[i]
		rec := []string{
			m.PWSID, m.Name, m.State, m.County, m.CityServed,
			int64Cell(m.PopulationServed), int64Cell(m.ServiceConnections),
			m.PrimacyAgencyCode, m.PrimacyType, m.OwnerTypeCode,
			m.ServiceAreaTypeCode, m.IsWholesaler, m.PrimarySourceCode,
			string(m.Tier), floatCell(m.CentroidLat), floatCell(m.CentroidLon), m.CentroidQuality,
			m.MatchedBoundGeoID, m.MatchedBoundName,
			floatCell(m.Pred05), floatCell(m.Pred50), floatCell(m.Pred95),
		}
		if err := w.Write(rec); err != nil {
			return eris.Wrapf(err, "report: write csv row %s", m.PWSID)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "report: flush csv")
	}
	zap.L().Info("wrote master csv", zap.String("path", path), zap.Int("rows", len(masters)))
	return nil
}

func floatCell(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', -1, 64)
}

func int64Cell(v *int64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatInt(*v, 10)
}
