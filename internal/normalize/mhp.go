package normalize

import (
	"go.uber.org/zap"

	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

// MHPPark is one mobile-home-park registry record.
type MHPPark struct {
	MHPID            string
	Name             string
	Address          string
	City             string
	State            string
	Zip              string
	County           string
	Lat              *float64
	Lon              *float64
	ValidationMethod string
}

// MHP normalizes mobile-home-park points into unresolved candidates.
func MHP(parks []MHPPark) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "mhp"))

	contributors := make([]model.Contributor, 0, len(parks))
	for _, p := range parks {
		lat, lon := validLatLon(p.Lat, p.Lon)

		cid := model.MakeContributorID(model.SourceMHP, p.MHPID)
		c := model.Contributor{
			ContributorID:   cid,
			SourceSystem:    model.SourceMHP,
			SourceSystemID:  p.MHPID,
			MasterKey:       model.UnknownMasterKey(cid),
			Name:            cleanText(p.Name),
			State:           cleanText(p.State),
			City:            cleanText(p.City),
			Zip:             cleanZip(p.Zip),
			County:          cleanText(p.County),
			AddressLine1:    cleanText(p.Address),
			CentroidLat:     lat,
			CentroidLon:     lon,
			CentroidQuality: cleanText(p.ValidationMethod),
			LikelyMHP:       true,
			PossibleMHP:     true,
		}
		if lat != nil && lon != nil {
			c.Geometry = geom.NewPointFlat(geom.XY, []float64{*lon, *lat})
		}

		contributors = append(contributors, c)
	}

	log.Info("normalized mhp", zap.Int("contributors", len(contributors)))
	return contributors, nil
}
