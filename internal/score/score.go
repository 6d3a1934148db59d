// Package score grades match rules against labeled ground truth. For every
// candidate pair whose anchor has a labeled boundary, the candidate geometry
// is compared to the labeled geometry in a projected CRS; a pair within the
// proximity buffer counts as a point for its rule combination. Rules are then
// ranked by their fraction of good pairs, and those ranks drive resolution.
package score

import (
	"math"
	"sort"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/geomath"
	"github.com/waterlab/boundary-cli/internal/model"
)

// DefaultProximityBufferMeters is the planar distance under which a candidate
// geometry is considered to agree with the labeled geometry.
const DefaultProximityBufferMeters = 1000.0

// Scorer compares candidate geometries to labeled geometries.
type Scorer struct {
	buffer float64
	albers *geomath.Albers
	log    *zap.Logger
}

func NewScorer(bufferMeters float64) *Scorer {
	if bufferMeters <= 0 {
		bufferMeters = DefaultProximityBufferMeters
	}
	return &Scorer{
		buffer: bufferMeters,
		albers: geomath.NewConusAlbers(),
		log:    zap.L().With(zap.String("component", "score")),
	}
}

// PairScore is one graded pair.
type PairScore struct {
	MasterKey   string
	CandidateID string
	RuleKey     string
	Distance    float64
	Good        bool
}

// ScorePairs grades every pair whose candidate is a boundary with geometry
// and whose master key has a labeled geometry. Pairs without ground truth are
// silently excluded; they are unknowable, not bad.
func (s *Scorer) ScorePairs(pairs []model.MatchPair, contributors []model.Contributor) []PairScore {
	byID := make(map[string]*model.Contributor, len(contributors))
	labeled := make(map[string]geom.T)
	for i := range contributors {
		c := &contributors[i]
		byID[c.ContributorID] = c
		if c.SourceSystem == model.SourceLabeled && c.PWSID != "" && c.Geometry != nil {
			labeled[c.PWSID] = s.albers.ProjectGeom(c.Geometry)
		}
	}

	projected := make(map[string]geom.T)
	var (
		out     []PairScore
		skipped int
	)
	for _, p := range pairs {
		known, ok := labeled[p.MasterKey]
		if !ok {
			continue
		}
		cand, ok := byID[p.CandidateID]
		if !ok || cand.SourceSystem != model.SourceTIGER || cand.Geometry == nil {
			continue
		}

		cg, ok := projected[p.CandidateID]
		if !ok {
			cg = s.albers.ProjectGeom(cand.Geometry)
			projected[p.CandidateID] = cg
		}

		d := geomath.Distance(known, cg)
		if math.IsNaN(d) {
			// Empty labeled geometries produce no distance.
			skipped++
			continue
		}
		out = append(out, PairScore{
			MasterKey:   p.MasterKey,
			CandidateID: p.CandidateID,
			RuleKey:     p.RuleKey(),
			Distance:    d,
			Good:        d <= s.buffer,
		})
	}

	s.log.Info("scored pairs against labeled boundaries",
		zap.Int("scored", len(out)),
		zap.Int("no_distance", skipped),
		zap.Float64("buffer_m", s.buffer))
	return out
}

// RankRules aggregates pair scores into per-rule-combination ranks. Rules are
// ordered by descending score; equal scores share a rank, and ranks are dense
// from zero.
func RankRules(scores []PairScore) []model.RuleRank {
	type agg struct{ points, total int }
	byRule := make(map[string]*agg)
	for _, sc := range scores {
		a := byRule[sc.RuleKey]
		if a == nil {
			a = &agg{}
			byRule[sc.RuleKey] = a
		}
		a.total++
		if sc.Good {
			a.points++
		}
	}

	ranks := make([]model.RuleRank, 0, len(byRule))
	for key, a := range byRule {
		ranks = append(ranks, model.RuleRank{
			RuleKey: key,
			Points:  a.points,
			Total:   a.total,
			Score:   float64(a.points) / float64(a.total),
		})
	}

	sort.Slice(ranks, func(i, j int) bool {
		if ranks[i].Score != ranks[j].Score {
			return ranks[i].Score > ranks[j].Score
		}
		return ranks[i].RuleKey < ranks[j].RuleKey
	})

	rank := 0
	for i := range ranks {
		if i > 0 && ranks[i].Score != ranks[i-1].Score {
			rank++
		}
		ranks[i].Rank = rank
	}
	return ranks
}

// OverallScore reports the fraction of scored pairs that were good. Used to
// grade the final 1:1 assignment against the same ground truth.
func OverallScore(scores []PairScore) float64 {
	if len(scores) == 0 {
		return 0
	}
	good := 0
	for _, sc := range scores {
		if sc.Good {
			good++
		}
	}
	return float64(good) / float64(len(scores))
}
