package normalize

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// SDWISWaterSystem is one row of the SDWIS water_system extract.
type SDWISWaterSystem struct {
	PWSID              string
	Name               string
	ActivityCode       string
	TypeCode           string
	PrimacyAgencyCode  string
	PrimacyType        string
	AddressLine1       string
	AddressLine2       string
	City               string
	Zip                string
	StateCode          string
	PopulationServed   *int64
	ServiceConnections *int64
	OwnerTypeCode      string
	IsWholesaler       string
	PrimarySourceCode  string
}

// SDWISGeoArea supplements a water system with served city/county. PWSID is
// assumed unique here; a violation is fatal.
type SDWISGeoArea struct {
	PWSID        string
	CityServed   string
	CountyServed string
}

// SDWISServiceArea is N:1 with water systems; codes are grouped per PWSID.
type SDWISServiceArea struct {
	PWSID        string
	AreaTypeCode string
}

// ActivePWSIDs returns the PWSIDs of active community water systems, the
// anchor set for the entire pipeline.
func ActivePWSIDs(systems []SDWISWaterSystem) map[string]struct{} {
	out := make(map[string]struct{})
	for _, ws := range systems {
		if ws.ActivityCode == "A" && ws.TypeCode == "CWS" {
			out[ws.PWSID] = struct{}{}
		}
	}
	return out
}

// SDWIS normalizes the SDWIS extract into anchor contributors. Only active
// community water systems survive; geographic and service areas supplement
// city_served, county, and service area type codes.
func SDWIS(systems []SDWISWaterSystem, geoAreas []SDWISGeoArea, serviceAreas []SDWISServiceArea) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "sdwis"))

	active := ActivePWSIDs(systems)

	var pwsids []string
	for _, ws := range systems {
		if _, ok := active[ws.PWSID]; ok {
			pwsids = append(pwsids, ws.PWSID)
		}
	}
	if err := requireUniquePWSID(model.SourceSDWIS, pwsids); err != nil {
		return nil, err
	}

	gaPWSIDs := make([]string, 0, len(geoAreas))
	ga := make(map[string]SDWISGeoArea, len(geoAreas))
	for _, g := range geoAreas {
		gaPWSIDs = append(gaPWSIDs, g.PWSID)
		ga[g.PWSID] = g
	}
	if err := requireUniquePWSID(model.SourceSDWIS, gaPWSIDs); err != nil {
		return nil, eris.Wrap(err, "normalize: sdwis geographic_area")
	}

	sa := make(map[string][]string)
	for _, s := range serviceAreas {
		if _, ok := active[s.PWSID]; !ok {
			continue
		}
		sa[s.PWSID] = append(sa[s.PWSID], s.AreaTypeCode)
	}
	for _, codes := range sa {
		sort.Strings(codes)
	}

	contributors := make([]model.Contributor, 0, len(pwsids))
	for _, ws := range systems {
		if _, ok := active[ws.PWSID]; !ok {
			continue
		}

		state := cleanText(ws.StateCode)
		if state == "" {
			state = cleanText(ws.PrimacyAgencyCode)
		}

		c := model.Contributor{
			ContributorID:       model.MakeContributorID(model.SourceSDWIS, ws.PWSID),
			SourceSystem:        model.SourceSDWIS,
			SourceSystemID:      ws.PWSID,
			MasterKey:           ws.PWSID,
			PWSID:               ws.PWSID,
			Name:                cleanText(ws.Name),
			State:               state,
			City:                cleanText(ws.City),
			Zip:                 cleanZip(ws.Zip),
			AddressLine1:        cleanText(ws.AddressLine1),
			AddressLine2:        cleanText(ws.AddressLine2),
			PopulationServed:    ws.PopulationServed,
			ServiceConnections:  ws.ServiceConnections,
			PrimacyAgencyCode:   cleanText(ws.PrimacyAgencyCode),
			PrimacyType:         cleanText(ws.PrimacyType),
			OwnerTypeCode:       cleanText(ws.OwnerTypeCode),
			IsWholesaler:        cleanText(ws.IsWholesaler),
			PrimarySourceCode:   cleanText(ws.PrimarySourceCode),
			ServiceAreaTypeCode: strings.Join(sa[ws.PWSID], ","),
		}

		if g, ok := ga[ws.PWSID]; ok {
			c.CityServed = cleanText(g.CityServed)
			c.County = cleanText(g.CountyServed)
		}

		contributors = append(contributors, c)
	}

	log.Info("normalized sdwis", zap.Int("contributors", len(contributors)))
	return contributors, nil
}
