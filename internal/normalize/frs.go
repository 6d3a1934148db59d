package normalize

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

// FRSFacility is one row of the Facility Registry Service extract.
type FRSFacility struct {
	RegistryID       string
	PWSID            string
	InterestType     string
	Name             string
	Address          string
	City             string
	Zip              string
	County           string
	State            string
	Lat              *float64
	Lon              *float64
	ReferencePoint   string
	CollectionMethod string
}

// FRS normalizes facility-registry geocodes. Neither registry_id nor pwsid is
// unique on its own, so the contributor key is the composite
// "frs.{registry_id}.{pwsid}". Records duplicating an ECHO facility on
// name and coordinates are dropped, as are exact repeats of an earlier row.
func FRS(facilities []FRSFacility, active map[string]struct{}, echo []model.Contributor) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "frs"))

	type echoKey struct {
		pwsid, name string
		lat, lon    float64
	}
	inEcho := make(map[echoKey]struct{}, len(echo))
	for _, e := range echo {
		if !e.HasCentroid() {
			continue
		}
		inEcho[echoKey{e.PWSID, e.Name, *e.CentroidLat, *e.CentroidLon}] = struct{}{}
	}

	seen := make(map[string]struct{})
	var contributors []model.Contributor
	var skippedEcho, skippedDupe int

	for _, f := range facilities {
		if _, ok := active[f.PWSID]; !ok {
			continue
		}
		if f.InterestType != "WATER TREATMENT PLANT" {
			// Other interest types already appear in ECHO.
			continue
		}

		name := cleanText(f.Name)
		if f.Lat != nil && f.Lon != nil {
			if _, dup := inEcho[echoKey{f.PWSID, name, *f.Lat, *f.Lon}]; dup {
				skippedEcho++
				continue
			}
		}

		// Repeats of the same facility under different registry rows.
		rowKey := fmt.Sprintf("%s|%s|%s|%s|%s", f.PWSID, name, cleanText(f.Address), cleanText(f.City), cleanZip(f.Zip))
		if _, dup := seen[rowKey]; dup {
			skippedDupe++
			continue
		}
		seen[rowKey] = struct{}{}

		lat, lon := validLatLon(f.Lat, f.Lon)

		sourceID := f.RegistryID + "." + f.PWSID
		c := model.Contributor{
			ContributorID:     model.MakeContributorID(model.SourceFRS, sourceID),
			SourceSystem:      model.SourceFRS,
			SourceSystemID:    f.PWSID,
			MasterKey:         f.PWSID,
			PWSID:             f.PWSID,
			Name:              name,
			State:             cleanText(f.State),
			City:              cleanText(f.City),
			Zip:               cleanZip(f.Zip),
			County:            cleanText(f.County),
			AddressLine1:      cleanText(f.Address),
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

	log.Info("normalized frs",
		zap.Int("contributors", len(contributors)),
		zap.Int("skipped_echo_duplicates", skippedEcho),
		zap.Int("skipped_repeats", skippedDupe),
	)
	return contributors, nil
}
