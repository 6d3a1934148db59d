// Package resolve turns the many-to-many candidate graph into 1:1 boundary
// assignments. Pairs are ordered by a configurable policy over match signals
// (name agreement, rule rank, population difference) and then claimed
// greedily: the best pair wins both its anchor and its candidate, and every
// later pair touching either side is discarded.
package resolve

import (
	"math"
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// Sort keys accepted by a resolution policy.
const (
	KeyNameMatch = "name_match"
	KeyRuleRank  = "rule_rank"
	KeyPopDiff   = "pop_diff"
)

// DefaultPolicy reflects what performed best against the labeled set: name
// agreement first, then rule quality, then population similarity.
var DefaultPolicy = []string{KeyNameMatch, KeyRuleRank, KeyPopDiff}

// RankedPair is a candidate pair annotated with every resolution signal.
type RankedPair struct {
	MasterKey   string
	CandidateID string
	RuleKey     string
	RuleRank    int
	NameMatch   bool
	PopDiff     float64
	OverallRank int
	Best        bool
}

// Resolver assigns at most one boundary candidate per anchor.
type Resolver struct {
	policy []string
	log    *zap.Logger
}

func New(policy []string) (*Resolver, error) {
	if len(policy) == 0 {
		policy = DefaultPolicy
	}
	for _, k := range policy {
		switch k {
		case KeyNameMatch, KeyRuleRank, KeyPopDiff:
		default:
			return nil, eris.Errorf("resolve: unknown policy key %q", k)
		}
	}
	return &Resolver{
		policy: policy,
		log:    zap.L().With(zap.String("component", "resolve")),
	}, nil
}

// Rank annotates and orders every boundary pair. Only pairs whose candidate
// is a tiger boundary participate; park and facility pairs carry their own
// PWSID or feed the master builder and centroid selection directly, and
// letting them claim an anchor here would cost that anchor its boundary. A
// rule combination never seen in the labeled data gets a rank one worse than
// the worst observed rank, and a pair missing population on either side
// sorts after any measured difference.
func (r *Resolver) Rank(pairs []model.MatchPair, ranks []model.RuleRank, contributors []model.Contributor) []RankedPair {
	rankByRule := make(map[string]int, len(ranks))
	worst := 0
	for _, rr := range ranks {
		rankByRule[rr.RuleKey] = rr.Rank
		if rr.Rank >= worst {
			worst = rr.Rank + 1
		}
	}

	anchors := make(map[string]*model.Contributor)
	byID := make(map[string]*model.Contributor, len(contributors))
	for i := range contributors {
		c := &contributors[i]
		byID[c.ContributorID] = c
		if c.SourceSystem == model.SourceSDWIS {
			anchors[c.MasterKey] = c
		}
	}

	out := make([]RankedPair, 0, len(pairs))
	for _, p := range pairs {
		cand := byID[p.CandidateID]
		if cand == nil || cand.SourceSystem != model.SourceTIGER {
			continue
		}

		rp := RankedPair{
			MasterKey:   p.MasterKey,
			CandidateID: p.CandidateID,
			RuleKey:     p.RuleKey(),
			RuleRank:    worst,
			PopDiff:     math.Inf(1),
		}
		if rank, ok := rankByRule[rp.RuleKey]; ok {
			rp.RuleRank = rank
		}

		if anchor := anchors[p.MasterKey]; anchor != nil {
			if cand.Name != "" && strings.Contains(anchor.Name, cand.Name) {
				rp.NameMatch = true
			}
			if anchor.PopulationServed != nil && cand.PopulationServed != nil {
				rp.PopDiff = math.Abs(float64(*anchor.PopulationServed - *cand.PopulationServed))
			}
		}
		out = append(out, rp)
	}

	sort.Slice(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		for _, k := range r.policy {
			switch k {
			case KeyNameMatch:
				if a.NameMatch != b.NameMatch {
					return a.NameMatch
				}
			case KeyRuleRank:
				if a.RuleRank != b.RuleRank {
					return a.RuleRank < b.RuleRank
				}
			case KeyPopDiff:
				if a.PopDiff != b.PopDiff {
					return a.PopDiff < b.PopDiff
				}
			}
		}
		if a.MasterKey != b.MasterKey {
			return a.MasterKey < b.MasterKey
		}
		return a.CandidateID < b.CandidateID
	})
	for i := range out {
		out[i].OverallRank = i
	}
	return out
}

// MultiMatchCounts measures the ambiguity of the boundary match graph before
// any claiming: how many anchors matched more than one boundary, and how many
// boundaries matched more than one anchor.
func MultiMatchCounts(ranked []RankedPair) (multiAnchor, multiBoundary int) {
	anchorEdges := make(map[string]int)
	boundaryEdges := make(map[string]int)
	for i := range ranked {
		anchorEdges[ranked[i].MasterKey]++
		boundaryEdges[ranked[i].CandidateID]++
	}
	for _, n := range anchorEdges {
		if n > 1 {
			multiAnchor++
		}
	}
	for _, n := range boundaryEdges {
		if n > 1 {
			multiBoundary++
		}
	}
	return multiAnchor, multiBoundary
}

// Resolve walks the ranked pairs in order and claims both sides of each
// still-unclaimed pair. The result is 1:1 in both directions. The input slice
// is annotated in place so callers can persist the full ranked table with the
// winners flagged.
func (r *Resolver) Resolve(ranked []RankedPair) []model.BestMatch {
	claimedMaster := make(map[string]struct{})
	claimedCandidate := make(map[string]struct{})

	var best []model.BestMatch
	for i := range ranked {
		rp := &ranked[i]
		if _, ok := claimedMaster[rp.MasterKey]; ok {
			continue
		}
		if _, ok := claimedCandidate[rp.CandidateID]; ok {
			continue
		}
		claimedMaster[rp.MasterKey] = struct{}{}
		claimedCandidate[rp.CandidateID] = struct{}{}
		rp.Best = true
		best = append(best, model.BestMatch{
			MasterKey:   rp.MasterKey,
			CandidateID: rp.CandidateID,
			RuleKey:     rp.RuleKey,
			Rank:        rp.RuleRank,
		})
	}

	r.log.Info("resolved best matches",
		zap.Int("pairs", len(ranked)),
		zap.Int("best", len(best)))
	return best
}
