package loader

import (
	"context"

	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/normalize"
)

// SDWISWaterSystems reads the water_system extract.
func SDWISWaterSystems(ctx context.Context, path string) ([]normalize.SDWISWaterSystem, error) {
	var out []normalize.SDWISWaterSystem
	err := forEachRow(ctx, path, func(r row) error {
		out = append(out, normalize.SDWISWaterSystem{
			PWSID:              r.get("pwsid"),
			Name:               r.get("pws_name"),
			ActivityCode:       r.get("pws_activity_code"),
			TypeCode:           r.get("pws_type_code"),
			PrimacyAgencyCode:  r.get("primacy_agency_code"),
			PrimacyType:        r.get("primacy_type"),
			AddressLine1:       r.get("address_line1"),
			AddressLine2:       r.get("address_line2"),
			City:               r.get("city_name"),
			Zip:                r.get("zip_code"),
			StateCode:          r.get("state_code"),
			PopulationServed:   r.i64("population_served_count"),
			ServiceConnections: r.i64("service_connections_count"),
			OwnerTypeCode:      r.get("owner_type_code"),
			IsWholesaler:       r.get("is_wholesaler_ind"),
			PrimarySourceCode:  r.get("primary_source_code"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded water systems", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}

// SDWISGeoAreas reads the geographic_area extract.
func SDWISGeoAreas(ctx context.Context, path string) ([]normalize.SDWISGeoArea, error) {
	var out []normalize.SDWISGeoArea
	err := forEachRow(ctx, path, func(r row) error {
		out = append(out, normalize.SDWISGeoArea{
			PWSID:        r.get("pwsid"),
			CityServed:   r.get("city_served"),
			CountyServed: r.get("county_served"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded geographic areas", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}

// SDWISServiceAreas reads the service_area extract.
func SDWISServiceAreas(ctx context.Context, path string) ([]normalize.SDWISServiceArea, error) {
	var out []normalize.SDWISServiceArea
	err := forEachRow(ctx, path, func(r row) error {
		out = append(out, normalize.SDWISServiceArea{
			PWSID:        r.get("pwsid"),
			AreaTypeCode: r.get("service_area_type_code"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded service areas", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}
