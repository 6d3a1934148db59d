package normalize

import (
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// CleanseRule is one named transformation over a contributor. Apply returns
// true when it changed the record, so the runner can report per-rule counts.
type CleanseRule struct {
	Name  string
	Apply func(c *model.Contributor) bool
}

var poBoxRe = regexp.MustCompile(`^P\.?O\.?\s*BOX\s+\d+$`)

// upperRule upper-cases one text field.
func upperRule(name string, get func(c *model.Contributor) *string) CleanseRule {
	return CleanseRule{
		Name: "Upper-case " + name,
		Apply: func(c *model.Contributor) bool {
			f := get(c)
			upper := strings.ToUpper(*f)
			if upper == *f {
				return false
			}
			*f = upper
			return true
		},
	}
}

// CleanseRules is the ordered rule set applied to every contributor after
// normalization. Order matters: PO-box removal must run before the line-2
// relocation rule.
var CleanseRules = []CleanseRule{
	upperRule("name", func(c *model.Contributor) *string { return &c.Name }),
	upperRule("address_line_1", func(c *model.Contributor) *string { return &c.AddressLine1 }),
	upperRule("address_line_2", func(c *model.Contributor) *string { return &c.AddressLine2 }),
	upperRule("city", func(c *model.Contributor) *string { return &c.City }),
	upperRule("state", func(c *model.Contributor) *string { return &c.State }),
	upperRule("county", func(c *model.Contributor) *string { return &c.County }),
	upperRule("city_served", func(c *model.Contributor) *string { return &c.CityServed }),
	upperRule("centroid_quality", func(c *model.Contributor) *string { return &c.CentroidQuality }),
	{
		Name: "NULL out nonexistent zip code '99999'",
		Apply: func(c *model.Contributor) bool {
			if c.Zip != "99999" {
				return false
			}
			c.Zip = ""
			return true
		},
	},
	{
		Name: "Remove PO BOX from address_line_1",
		Apply: func(c *model.Contributor) bool {
			if !poBoxRe.MatchString(c.AddressLine1) {
				return false
			}
			c.AddressLine1 = ""
			c.AddressQuality = "PO BOX"
			return true
		},
	},
	{
		Name: "Remove PO BOX from address_line_2",
		Apply: func(c *model.Contributor) bool {
			if !poBoxRe.MatchString(c.AddressLine2) {
				return false
			}
			c.AddressLine2 = ""
			c.AddressQuality = "PO BOX"
			return true
		},
	},
	{
		Name: "Move address_line_2 into empty address_line_1",
		Apply: func(c *model.Contributor) bool {
			if c.AddressLine1 != "" || c.AddressLine2 == "" {
				return false
			}
			c.AddressLine1 = c.AddressLine2
			c.AddressLine2 = ""
			return true
		},
	},
	{
		Name: "Standardize centroid quality",
		Apply: func(c *model.Contributor) bool {
			if c.CentroidQuality != "ZIP CODE-CENTROID" {
				return false
			}
			c.CentroidQuality = "ZIP CODE CENTROID"
			return true
		},
	},
}

// Cleanse applies every rule to every contributor in place and logs the
// per-rule change counts.
func Cleanse(contributors []model.Contributor) {
	log := zap.L().With(zap.String("component", "cleanse"))

	for _, rule := range CleanseRules {
		changed := 0
		for i := range contributors {
			if rule.Apply(&contributors[i]) {
				changed++
			}
		}
		log.Info("ran cleanse rule", zap.String("rule", rule.Name), zap.Int("rows_affected", changed))
	}
}
