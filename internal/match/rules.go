// Package match generates the many-to-many candidate graph between anchor
// contributors and boundary/park candidates. Rules are data: each is an
// anchor filter, a candidate filter, and either an equality key or a spatial
// containment predicate, interpreted by one generic engine. Rule order in the
// table is documentation only; rules run independently and their outputs are
// unioned.
package match

import (
	"github.com/waterlab/boundary-cli/internal/model"
)

// Row pairs a contributor with its precomputed name tokens.
type Row struct {
	C        *model.Contributor
	WSToken  string
	MHPToken string
}

// Rule declares one match heuristic. Equality rules join AnchorKey to
// CandidateKey; a false ok from either excludes the row, so records missing a
// required attribute never wildcard-match. Spatial rules test anchor-point
// containment in candidate polygons, optionally guarded by state equality.
type Rule struct {
	Name      string
	Anchor    func(r *Row) bool
	Candidate func(r *Row) bool

	AnchorKey    func(r *Row) ([]string, bool)
	CandidateKey func(r *Row) ([]string, bool)

	Spatial   bool
	SameState bool
}

// coarseCentroids are centroid-quality tags too imprecise for spatial
// matching.
var coarseCentroids = map[string]struct{}{
	"STATE CENTROID":    {},
	"COUNTY CENTROID":   {},
	"ZIP CODE CENTROID": {},
}

func isAnchorSource(s model.SourceSystem) bool {
	return s == model.SourceSDWIS || s == model.SourceECHO || s == model.SourceFRS
}

// key helpers return ok=false when any component is missing.
func key(parts ...string) ([]string, bool) {
	for _, p := range parts {
		if p == "" {
			return nil, false
		}
	}
	return parts, true
}

// Rules is the full declarative rule table.
var Rules = []Rule{
	{
		Name: "state+name_tiger",
		Anchor: func(r *Row) bool {
			return isAnchorSource(r.C.SourceSystem) && !r.C.LikelyMHP
		},
		Candidate: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceTIGER
		},
		AnchorKey:    func(r *Row) ([]string, bool) { return key(r.C.State, r.WSToken) },
		CandidateKey: func(r *Row) ([]string, bool) { return key(r.C.State, r.WSToken) },
	},
	{
		Name: "state+name_mhp",
		Anchor: func(r *Row) bool {
			return isAnchorSource(r.C.SourceSystem)
		},
		Candidate: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceMHP
		},
		AnchorKey:    func(r *Row) ([]string, bool) { return key(r.C.State, r.WSToken) },
		CandidateKey: func(r *Row) ([]string, bool) { return key(r.C.State, r.WSToken) },
	},
	{
		Name: "spatial",
		Anchor: func(r *Row) bool {
			if r.C.SourceSystem != model.SourceECHO && r.C.SourceSystem != model.SourceFRS {
				return false
			}
			if r.C.LikelyMHP {
				return false
			}
			_, coarse := coarseCentroids[r.C.CentroidQuality]
			return !coarse
		},
		Candidate: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceTIGER
		},
		Spatial:   true,
		SameState: true,
	},
	{
		Name: "state+city_served",
		Anchor: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceSDWIS && !r.C.LikelyMHP
		},
		Candidate: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceTIGER
		},
		AnchorKey:    func(r *Row) ([]string, bool) { return key(r.C.State, r.C.CityServed) },
		CandidateKey: func(r *Row) ([]string, bool) { return key(r.C.State, r.WSToken) },
	},
	{
		Name: "ucmr_spatial",
		Anchor: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceUCMR
		},
		Candidate: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceTIGER
		},
		Spatial: true,
	},
	{
		Name: "state+mhp_name",
		Anchor: func(r *Row) bool {
			return isAnchorSource(r.C.SourceSystem) && r.C.PossibleMHP
		},
		Candidate: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceMHP
		},
		// County is required: MHP names repeat within a state too often to
		// trust statewide equality.
		AnchorKey:    func(r *Row) ([]string, bool) { return key(r.C.State, r.MHPToken, r.C.County) },
		CandidateKey: func(r *Row) ([]string, bool) { return key(r.C.State, r.MHPToken, r.C.County) },
	},
	{
		Name: "mhp state+address",
		Anchor: func(r *Row) bool {
			return isAnchorSource(r.C.SourceSystem) && r.C.PossibleMHP
		},
		Candidate: func(r *Row) bool {
			return r.C.SourceSystem == model.SourceMHP
		},
		AnchorKey:    func(r *Row) ([]string, bool) { return key(r.C.State, r.C.City, r.C.AddressLine1) },
		CandidateKey: func(r *Row) ([]string, bool) { return key(r.C.State, r.C.City, r.C.AddressLine1) },
	},
}
