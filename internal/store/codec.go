package store

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"

	"github.com/waterlab/boundary-cli/internal/model"
)

// ruleSep joins a pair's rule names for storage. Rule names themselves
// contain "+", so the display key from RuleKey() cannot be parsed back.
const ruleSep = ","

func encodeRules(rules []string) string {
	return strings.Join(rules, ruleSep)
}

func decodeRules(s string) []string {
	if s == "" {
		return nil
	}
	return strings.Split(s, ruleSep)
}

func encodeGeometry(g geom.T) ([]byte, error) {
	if g == nil {
		return nil, nil
	}
	b, err := ewkb.Marshal(g, ewkb.NDR)
	if err != nil {
		return nil, eris.Wrap(err, "store: encode geometry")
	}
	return b, nil
}

func decodeGeometry(b []byte) (geom.T, error) {
	if len(b) == 0 {
		return nil, nil
	}
	g, err := ewkb.Unmarshal(b)
	if err != nil {
		return nil, eris.Wrap(err, "store: decode geometry")
	}
	return g, nil
}

// contributorColumns is the column order shared by both backends and by the
// COPY path.
var contributorColumns = []string{
	"contributor_id", "source_system", "source_system_id", "master_key", "pwsid",
	"name", "state", "county", "city", "zip",
	"address_line_1", "address_line_2", "city_served", "address_quality",
	"geometry", "centroid_lat", "centroid_lon", "centroid_quality",
	"population_served", "service_connections",
	"primacy_agency_code", "primacy_type", "owner_type_code",
	"service_area_type_code", "is_wholesaler", "primary_source_code",
	"likely_mhp", "possible_mhp",
}

func contributorRow(c *model.Contributor) ([]any, error) {
	geomBytes, err := encodeGeometry(c.Geometry)
	if err != nil {
		return nil, err
	}
	return []any{
		c.ContributorID, string(c.SourceSystem), c.SourceSystemID, c.MasterKey, c.PWSID,
		c.Name, c.State, c.County, c.City, c.Zip,
		c.AddressLine1, c.AddressLine2, c.CityServed, c.AddressQuality,
		geomBytes, c.CentroidLat, c.CentroidLon, c.CentroidQuality,
		c.PopulationServed, c.ServiceConnections,
		c.PrimacyAgencyCode, c.PrimacyType, c.OwnerTypeCode,
		c.ServiceAreaTypeCode, c.IsWholesaler, c.PrimarySourceCode,
		c.LikelyMHP, c.PossibleMHP,
	}, nil
}
