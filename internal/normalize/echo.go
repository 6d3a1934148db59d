package normalize

import (
	"go.uber.org/zap"

	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

// ECHOFacility is one exploded row of the ECHO exporter extract: a facility
// paired with a single PWSID from its space-delimited SDWA ID list.
type ECHOFacility struct {
	PWSID            string
	RegistryID       string
	Name             string
	Street           string
	City             string
	State            string
	Zip              string
	County           string
	Lat              *float64
	Lon              *float64
	CollectionMethod string
	ReferencePoint   string
}

// ECHO normalizes facility geocodes into self-resolved point contributors.
// PWSID is unique within ECHO after the exporter explode; a duplicate means a
// broken extract.
func ECHO(facilities []ECHOFacility, active map[string]struct{}) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "echo"))

	var pwsids []string
	for _, f := range facilities {
		if _, ok := active[f.PWSID]; ok {
			pwsids = append(pwsids, f.PWSID)
		}
	}
	if err := requireUniquePWSID(model.SourceECHO, pwsids); err != nil {
		return nil, err
	}

	contributors := make([]model.Contributor, 0, len(pwsids))
	for _, f := range facilities {
		if _, ok := active[f.PWSID]; !ok {
			continue
		}

		lat, lon := validLatLon(f.Lat, f.Lon)

		c := model.Contributor{
			ContributorID:     model.MakeContributorID(model.SourceECHO, f.PWSID),
			SourceSystem:      model.SourceECHO,
			SourceSystemID:    f.PWSID,
			MasterKey:         f.PWSID,
			PWSID:             f.PWSID,
			Name:              cleanText(f.Name),
			State:             cleanText(f.State),
			City:              cleanText(f.City),
			Zip:               cleanZip(f.Zip),
			County:            cleanText(f.County),
			AddressLine1:      cleanText(f.Street),
			PrimacyAgencyCode: pwsidAgency(f.PWSID),
			CentroidLat:       lat,
			CentroidLon:       lon,
			CentroidQuality:   cleanText(f.ReferencePoint),
		}
		if lat != nil && lon != nil {
			c.Geometry = geom.NewPointFlat(geom.XY, []float64{*lon, *lat})
		}

		contributors = append(contributors, c)
	}

	log.Info("normalized echo", zap.Int("contributors", len(contributors)))
	return contributors, nil
}

// pwsidAgency derives the primacy agency from the PWSID prefix.
func pwsidAgency(pwsid string) string {
	if len(pwsid) < 2 {
		return ""
	}
	return pwsid[:2]
}
