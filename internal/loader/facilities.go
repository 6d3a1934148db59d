package loader

import (
	"context"

	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/normalize"
)

// ECHOFacilities reads the facility geocode extract.
func ECHOFacilities(ctx context.Context, path string) ([]normalize.ECHOFacility, error) {
	var out []normalize.ECHOFacility
	err := forEachRow(ctx, path, func(r row) error {
		out = append(out, normalize.ECHOFacility{
			PWSID:            r.get("pwsid"),
			RegistryID:       r.get("registry_id"),
			Name:             r.get("fac_name"),
			Street:           r.get("fac_street"),
			City:             r.get("fac_city"),
			State:            r.get("fac_state"),
			Zip:              r.get("fac_zip"),
			County:           r.get("fac_county"),
			Lat:              r.f64("fac_lat"),
			Lon:              r.f64("fac_long"),
			CollectionMethod: r.get("fac_collection_method"),
			ReferencePoint:   r.get("fac_reference_point"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded facility geocodes", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}

// FRSFacilities reads the facility registry extract.
func FRSFacilities(ctx context.Context, path string) ([]normalize.FRSFacility, error) {
	var out []normalize.FRSFacility
	err := forEachRow(ctx, path, func(r row) error {
		out = append(out, normalize.FRSFacility{
			RegistryID:       r.get("registry_id"),
			PWSID:            r.get("pwsid"),
			InterestType:     r.get("interest_type"),
			Name:             r.get("primary_name"),
			Address:          r.get("location_address"),
			City:             r.get("city_name"),
			Zip:              r.get("postal_code"),
			County:           r.get("county_name"),
			State:            r.get("state_code"),
			Lat:              r.f64("latitude83"),
			Lon:              r.f64("longitude83"),
			ReferencePoint:   r.get("ref_point_desc"),
			CollectionMethod: r.get("collect_mth_desc"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded facility registry", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}

// UCMRRecords reads the monitoring-rule zip centroid extract.
func UCMRRecords(ctx context.Context, path string) ([]normalize.UCMRRecord, error) {
	var out []normalize.UCMRRecord
	err := forEachRow(ctx, path, func(r row) error {
		out = append(out, normalize.UCMRRecord{
			PWSID: r.get("pwsid"),
			Zip:   r.get("zipcode"),
			Lat:   r.f64("centroid_lat"),
			Lon:   r.f64("centroid_long"),
		})
		return nil
	})
	if err != nil {
		return nil, err
	}
	zap.L().Info("loaded zip centroids", zap.String("path", path), zap.Int("rows", len(out)))
	return out, nil
}
