package normalize

import (
	"go.uber.org/zap"

	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

// UCMRRecord is one row of the monitoring-rule occurrence extract, carrying a
// zip-code centroid for its PWSID.
type UCMRRecord struct {
	PWSID string
	Zip   string
	Lat   *float64
	Lon   *float64
}

// UCMR normalizes monitoring-rule zip centroids into self-resolved point
// contributors.
func UCMR(records []UCMRRecord, active map[string]struct{}) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "ucmr"))

	var pwsids []string
	for _, r := range records {
		if _, ok := active[r.PWSID]; ok {
			pwsids = append(pwsids, r.PWSID)
		}
	}
	if err := requireUniquePWSID(model.SourceUCMR, pwsids); err != nil {
		return nil, err
	}

	contributors := make([]model.Contributor, 0, len(pwsids))
	for _, r := range records {
		if _, ok := active[r.PWSID]; !ok {
			continue
		}

		lat, lon := validLatLon(r.Lat, r.Lon)

		c := model.Contributor{
			ContributorID:   model.MakeContributorID(model.SourceUCMR, r.PWSID),
			SourceSystem:    model.SourceUCMR,
			SourceSystemID:  r.PWSID,
			MasterKey:       r.PWSID,
			PWSID:           r.PWSID,
			Zip:             cleanZip(r.Zip),
			CentroidLat:     lat,
			CentroidLon:     lon,
			CentroidQuality: "ZIP CODE CENTROID",
		}
		if lat != nil && lon != nil {
			c.Geometry = geom.NewPointFlat(geom.XY, []float64{*lon, *lat})
		}

		contributors = append(contributors, c)
	}

	log.Info("normalized ucmr", zap.Int("contributors", len(contributors)))
	return contributors, nil
}
