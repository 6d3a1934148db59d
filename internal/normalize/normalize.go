// Package normalize maps heterogeneous source feeds into the common
// contributor schema, applies the shared cleansing rules, and flags likely
// mobile-home-park systems. Normalization is idempotent: the same raw input
// always produces the same contributor set, and a previously persisted record
// is never mutated in place.
package normalize

import (
	"strings"

	"github.com/rotisserie/eris"

	"github.com/waterlab/boundary-cli/internal/model"
)

// requireUniquePWSID fails fast when a source's assumed-unique key is
// duplicated. A duplicate means the extract is structurally broken and must
// be surfaced to the operator, not silently deduplicated.
func requireUniquePWSID(system model.SourceSystem, pwsids []string) error {
	seen := make(map[string]struct{}, len(pwsids))
	dupes := 0
	for _, id := range pwsids {
		if _, ok := seen[id]; ok {
			dupes++
			continue
		}
		seen[id] = struct{}{}
	}
	if dupes > 0 {
		return eris.Errorf("normalize: %s: pwsid assumed unique but %d duplicates found", system, dupes)
	}
	return nil
}

// cleanText trims whitespace and nulls out common placeholder values.
func cleanText(s string) string {
	s = strings.TrimSpace(s)
	switch strings.ToUpper(s) {
	case "UNK", "NOT AVAILABLE", "N/A":
		return ""
	}
	return s
}

// cleanZip truncates to 5 digits; the placeholder "99999" is nulled later by
// the cleansing pass along with everything already persisted.
func cleanZip(zip string) string {
	zip = strings.TrimSpace(zip)
	if len(zip) > 5 {
		zip = zip[:5]
	}
	return zip
}

// clampCoord returns nil when a coordinate falls outside its valid range.
// Bad geocodes are recovered locally, never fatal.
func clampCoord(v *float64, min, max float64) *float64 {
	if v == nil || *v < min || *v > max {
		return nil
	}
	return v
}

// validLatLon nulls both coordinates when either is out of range.
func validLatLon(lat, lon *float64) (*float64, *float64) {
	lat = clampCoord(lat, -90, 90)
	lon = clampCoord(lon, -180, 180)
	if lat == nil || lon == nil {
		return nil, nil
	}
	return lat, lon
}
