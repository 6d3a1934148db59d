package normalize

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

// TIGERPlace is one Census place boundary.
type TIGERPlace struct {
	GeoID      string
	StateFP    string
	Name       string
	Population *int64
	Geometry   geom.T
}

// stateFIPStoAbbr crosswalks two-digit state FIPS codes to postal
// abbreviations.
var stateFIPStoAbbr = map[string]string{
	"01": "AL", "02": "AK", "04": "AZ", "05": "AR", "06": "CA", "08": "CO",
	"09": "CT", "10": "DE", "11": "DC", "12": "FL", "13": "GA", "15": "HI",
	"16": "ID", "17": "IL", "18": "IN", "19": "IA", "20": "KS", "21": "KY",
	"22": "LA", "23": "ME", "24": "MD", "25": "MA", "26": "MI", "27": "MN",
	"28": "MS", "29": "MO", "30": "MT", "31": "NE", "32": "NV", "33": "NH",
	"34": "NJ", "35": "NM", "36": "NY", "37": "NC", "38": "ND", "39": "OH",
	"40": "OK", "41": "OR", "42": "PA", "44": "RI", "45": "SC", "46": "SD",
	"47": "TN", "48": "TX", "49": "UT", "50": "VT", "51": "VA", "53": "WA",
	"54": "WV", "55": "WI", "56": "WY", "60": "AS", "66": "GU", "69": "MP",
	"72": "PR", "78": "VI",
}

// TIGER normalizes Census place boundaries into unresolved boundary
// candidates. geoid is the native unique key; a duplicate is fatal.
func TIGER(places []TIGERPlace) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "normalize"), zap.String("source_system", "tiger"))

	seen := make(map[string]struct{}, len(places))
	contributors := make([]model.Contributor, 0, len(places))
	var unknownState int

	for _, p := range places {
		if _, dup := seen[p.GeoID]; dup {
			return nil, fmt.Errorf("normalize: tiger: geoid %q assumed unique but duplicated", p.GeoID)
		}
		seen[p.GeoID] = struct{}{}

		state, ok := stateFIPStoAbbr[zeroPad2(p.StateFP)]
		if !ok {
			unknownState++
		}

		cid := model.MakeContributorID(model.SourceTIGER, p.GeoID)
		contributors = append(contributors, model.Contributor{
			ContributorID:    cid,
			SourceSystem:     model.SourceTIGER,
			SourceSystemID:   p.GeoID,
			MasterKey:        model.UnknownMasterKey(cid),
			Name:             cleanText(p.Name),
			State:            state,
			PopulationServed: p.Population,
			Geometry:         p.Geometry,
			CentroidQuality:  "TIGER BOUNDARY",
		})
	}

	log.Info("normalized tiger",
		zap.Int("contributors", len(contributors)),
		zap.Int("unknown_state_fips", unknownState),
	)
	return contributors, nil
}

// zeroPad2 restores leading zeros lost by numeric parsing of FIPS codes.
func zeroPad2(s string) string {
	if len(s) == 1 {
		return "0" + s
	}
	return s
}
