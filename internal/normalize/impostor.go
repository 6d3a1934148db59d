package normalize

import (
	"math"
	"regexp"

	"go.uber.org/zap"

	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/geomath"
	"github.com/waterlab/boundary-cli/internal/model"
)

// DefaultImpostorThresholdMeters is how far a facility point may sit from its
// state's boundary before its location data is considered untrustworthy.
const DefaultImpostorThresholdMeters = 50_000

var numericAgencyRe = regexp.MustCompile(`\d\d`)

// FlagImpostors nulls the address, centroid, and geometry of echo/frs
// contributors whose point lies farther than threshold meters from their
// state's boundary. The record itself survives; only its location data is
// suspect. State boundaries are keyed by postal abbreviation in lon/lat
// degrees. Returns the contributor IDs that were nulled.
func FlagImpostors(contributors []model.Contributor, states map[string]geom.T, thresholdMeters float64) []string {
	log := zap.L().With(zap.String("component", "impostor"))

	if thresholdMeters <= 0 {
		thresholdMeters = DefaultImpostorThresholdMeters
	}

	proj := geomath.NewConusAlbers()
	projected := make(map[string]geom.T, len(states))
	for abbr, g := range states {
		projected[abbr] = proj.ProjectGeom(g)
	}

	var impostors []string
	for i := range contributors {
		c := &contributors[i]

		switch c.SourceSystem {
		case model.SourceECHO, model.SourceFRS:
		default:
			continue
		}
		if !c.HasGeometry() {
			continue
		}

		// Numeric agency codes are tribal region numbers; fall back to the
		// record's state for the expected-location check.
		agency := c.PrimacyAgencyCode
		if numericAgencyRe.MatchString(agency) {
			agency = c.State
		}

		expected, ok := projected[agency]
		if !ok {
			continue
		}

		d := geomath.Distance(proj.ProjectGeom(c.Geometry), expected)
		if math.IsNaN(d) || d <= thresholdMeters {
			continue
		}

		c.AddressLine1 = ""
		c.AddressLine2 = ""
		c.City = ""
		c.State = ""
		c.Zip = ""
		c.Geometry = nil
		c.CentroidLat = nil
		c.CentroidLon = nil
		impostors = append(impostors, c.ContributorID)
	}

	log.Info("checked for impostors",
		zap.Int("checked", len(contributors)),
		zap.Int("impostors", len(impostors)),
		zap.Float64("threshold_meters", thresholdMeters),
	)
	return impostors
}
