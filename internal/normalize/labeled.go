package normalize

import (
	"go.uber.org/zap"

	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

// LabeledBoundary is an independently verified service-area boundary. These
// records are the scoring oracle and the Tier-1 geometry source.
type LabeledBoundary struct {
	PWSID    string
	Name     string
	State    string
	City     string
	County   string
	Lat      *float64
	Lon      *float64
	Geometry geom.T
}

// Labeled normalizes verified boundaries into self-resolved contributors.
func Labeled(boundaries []LabeledBoundary, active map[string]struct{}) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "labeled"))

	contributors := make([]model.Contributor, 0, len(boundaries))
	for _, b := range boundaries {
		if _, ok := active[b.PWSID]; !ok {
			continue
		}

		lat, lon := validLatLon(b.Lat, b.Lon)

		contributors = append(contributors, model.Contributor{
			ContributorID:     model.MakeContributorID(model.SourceLabeled, b.PWSID),
			SourceSystem:      model.SourceLabeled,
			SourceSystemID:    b.PWSID,
			MasterKey:         b.PWSID,
			PWSID:             b.PWSID,
			Name:              cleanText(b.Name),
			State:             cleanText(b.State),
			City:              cleanText(b.City),
			County:            cleanText(b.County),
			PrimacyAgencyCode: pwsidAgency(b.PWSID),
			CentroidLat:       lat,
			CentroidLon:       lon,
			CentroidQuality:   "CALCULATED FROM GEOMETRY",
			Geometry:          b.Geometry,
		})
	}

	log.Info("normalized labeled", zap.Int("contributors", len(contributors)))
	return contributors, nil
}

// ContributedBoundary is a boundary supplied directly by a state or utility.
type ContributedBoundary struct {
	PWSID    string
	Name     string
	State    string
	Geometry geom.T
}

// Contributed normalizes externally contributed boundaries. They behave like
// labeled records for tier assembly but are tracked as their own source.
func Contributed(boundaries []ContributedBoundary, active map[string]struct{}) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "contributed"))

	contributors := make([]model.Contributor, 0, len(boundaries))
	for _, b := range boundaries {
		if _, ok := active[b.PWSID]; !ok {
			continue
		}

		contributors = append(contributors, model.Contributor{
			ContributorID:     model.MakeContributorID(model.SourceContributed, b.PWSID),
			SourceSystem:      model.SourceContributed,
			SourceSystemID:    b.PWSID,
			MasterKey:         b.PWSID,
			PWSID:             b.PWSID,
			Name:              cleanText(b.Name),
			State:             cleanText(b.State),
			PrimacyAgencyCode: pwsidAgency(b.PWSID),
			CentroidQuality:   "CALCULATED FROM GEOMETRY",
			Geometry:          b.Geometry,
		})
	}

	log.Info("normalized contributed", zap.Int("contributors", len(contributors)))
	return contributors, nil
}
