package normalize

import (
	"regexp"

	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// ClassifyRule flags contributors whose names match a pattern. Patterns are
// applied word-bounded against the upper-cased name.
type ClassifyRule struct {
	Name    string
	Pattern *regexp.Regexp
	Flag    func(c *model.Contributor)
}

var (
	// These words usually indicate a mobile home park.
	likelyMHPRe = regexp.MustCompile(`\b(?:MOBILE|TRAILER|MHP|TP|CAMPGROUND|RV)\b`)

	// These words often, but not always, indicate a mobile home park.
	possibleMHPRe = regexp.MustCompile(`\b(?:VILLAGE|MANOR|ACRES|ESTATES)\b`)
)

// ClassifyMHP sets the likely_mhp and possible_mhp flags across the full
// contributor set. A flag raised by any sdwis/echo/frs record propagates to
// every contributor sharing its PWSID, so one well-named record labels the
// whole group. MHP-source records are always both.
func ClassifyMHP(contributors []model.Contributor) {
	log := zap.L().With(zap.String("component", "classify"))

	likelyPWSIDs := make(map[string]struct{})
	possiblePWSIDs := make(map[string]struct{})

	for i := range contributors {
		c := &contributors[i]
		switch c.SourceSystem {
		case model.SourceSDWIS, model.SourceECHO, model.SourceFRS:
			if c.Name == "" || c.PWSID == "" {
				continue
			}
			if likelyMHPRe.MatchString(c.Name) {
				likelyPWSIDs[c.PWSID] = struct{}{}
			}
			if possibleMHPRe.MatchString(c.Name) {
				possiblePWSIDs[c.PWSID] = struct{}{}
			}
		}
	}

	var likely, possible int
	for i := range contributors {
		c := &contributors[i]

		if c.SourceSystem == model.SourceMHP {
			c.LikelyMHP = true
			c.PossibleMHP = true
		}
		if _, ok := likelyPWSIDs[c.PWSID]; ok && c.PWSID != "" {
			c.LikelyMHP = true
		}
		if _, ok := possiblePWSIDs[c.PWSID]; ok && c.PWSID != "" {
			c.PossibleMHP = true
		}
		// Likely implies possible.
		if c.LikelyMHP {
			c.PossibleMHP = true
		}

		if c.LikelyMHP {
			likely++
		}
		if c.PossibleMHP {
			possible++
		}
	}

	log.Info("labeled mobile home parks",
		zap.Int("likely_mhp", likely),
		zap.Int("possible_mhp", possible),
	)
}
