package match

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/twpayne/go-geom"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/waterlab/boundary-cli/internal/geomath"
	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/token"
)

// keySep joins key components. Unit separator cannot appear in cleansed
// attribute text.
const keySep = "\x1f"

// Matcher runs the rule table over a contributor population.
type Matcher struct {
	rules []Rule
	log   *zap.Logger
}

func New() *Matcher {
	return &Matcher{
		rules: Rules,
		log:   zap.L().With(zap.String("component", "match")),
	}
}

// Run evaluates every rule against the population and returns the unioned,
// deduplicated candidate edges. Each rule runs on its own goroutine; rules
// only read the shared row slice.
func (m *Matcher) Run(ctx context.Context, contributors []model.Contributor) ([]model.MatchPair, error) {
	rows := buildRows(contributors)

	var (
		mu  sync.Mutex
		out []model.MatchCandidate
	)
	g, ctx := errgroup.WithContext(ctx)
	for _, rule := range m.rules {
		rule := rule
		g.Go(func() error {
			var edges []model.MatchCandidate
			if rule.Spatial {
				edges = m.runSpatial(ctx, rule, rows)
			} else {
				edges = m.runEquality(rule, rows)
			}
			m.log.Info("rule evaluated",
				zap.String("rule", rule.Name),
				zap.Int("edges", len(edges)))
			mu.Lock()
			out = append(out, edges...)
			mu.Unlock()
			return ctx.Err()
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	pairs := model.DedupeCandidates(out)
	m.log.Info("matching complete",
		zap.Int("raw_edges", len(out)),
		zap.Int("pairs", len(pairs)))
	return pairs, nil
}

func buildRows(contributors []model.Contributor) []Row {
	rows := make([]Row, len(contributors))
	for i := range contributors {
		c := &contributors[i]
		rows[i] = Row{
			C:        c,
			WSToken:  token.WSName(c.Name),
			MHPToken: token.MHPName(c.Name),
		}
	}
	return rows
}

func (m *Matcher) runEquality(rule Rule, rows []Row) []model.MatchCandidate {
	byKey := make(map[string][]*Row)
	for i := range rows {
		r := &rows[i]
		if !rule.Candidate(r) {
			continue
		}
		parts, ok := rule.CandidateKey(r)
		if !ok {
			continue
		}
		k := strings.Join(parts, keySep)
		byKey[k] = append(byKey[k], r)
	}

	var out []model.MatchCandidate
	for i := range rows {
		r := &rows[i]
		if !rule.Anchor(r) {
			continue
		}
		parts, ok := rule.AnchorKey(r)
		if !ok {
			continue
		}
		for _, cand := range byKey[strings.Join(parts, keySep)] {
			out = append(out, model.MatchCandidate{
				MasterKey:   r.C.MasterKey,
				AnchorID:    r.C.ContributorID,
				CandidateID: cand.C.ContributorID,
				MatchRule:   rule.Name,
			})
		}
	}
	return out
}

// polyEntry is one indexed candidate polygon.
type polyEntry struct {
	row    *Row
	bounds *geom.Bounds
}

func (m *Matcher) runSpatial(ctx context.Context, rule Rule, rows []Row) []model.MatchCandidate {
	idx := newPolyIndex()
	for i := range rows {
		r := &rows[i]
		if !rule.Candidate(r) || r.C.Geometry == nil {
			continue
		}
		idx.add(r)
	}

	var out []model.MatchCandidate
	for i := range rows {
		if ctx.Err() != nil {
			return out
		}
		r := &rows[i]
		if !rule.Anchor(r) || !r.C.HasCentroid() {
			continue
		}
		lon, lat := *r.C.CentroidLon, *r.C.CentroidLat
		for _, e := range idx.query(lon, lat) {
			if rule.SameState && (r.C.State == "" || r.C.State != e.row.C.State) {
				continue
			}
			if !geomath.Contains(e.row.C.Geometry, lon, lat) {
				continue
			}
			out = append(out, model.MatchCandidate{
				MasterKey:   r.C.MasterKey,
				AnchorID:    r.C.ContributorID,
				CandidateID: e.row.C.ContributorID,
				MatchRule:   rule.Name,
			})
		}
	}
	return out
}

// polyIndex buckets polygon bounding boxes into one-degree grid cells so each
// point probe only tests the handful of polygons whose box covers its cell.
type polyIndex struct {
	cells map[[2]int][]*polyEntry
}

func newPolyIndex() *polyIndex {
	return &polyIndex{cells: make(map[[2]int][]*polyEntry)}
}

func cellOf(lon, lat float64) [2]int {
	return [2]int{int(fastFloor(lon)), int(fastFloor(lat))}
}

func fastFloor(v float64) float64 {
	f := float64(int(v))
	if v < 0 && f != v {
		f--
	}
	return f
}

func (p *polyIndex) add(r *Row) {
	b := r.C.Geometry.Bounds()
	e := &polyEntry{row: r, bounds: b}
	minC := cellOf(b.Min(0), b.Min(1))
	maxC := cellOf(b.Max(0), b.Max(1))
	for cx := minC[0]; cx <= maxC[0]; cx++ {
		for cy := minC[1]; cy <= maxC[1]; cy++ {
			p.cells[[2]int{cx, cy}] = append(p.cells[[2]int{cx, cy}], e)
		}
	}
}

func (p *polyIndex) query(lon, lat float64) []*polyEntry {
	var out []*polyEntry
	for _, e := range p.cells[cellOf(lon, lat)] {
		if lon < e.bounds.Min(0) || lon > e.bounds.Max(0) ||
			lat < e.bounds.Min(1) || lat > e.bounds.Max(1) {
			continue
		}
		out = append(out, e)
	}
	// Deterministic probe order regardless of map insertion.
	sort.Slice(out, func(i, j int) bool {
		return out[i].row.C.ContributorID < out[j].row.C.ContributorID
	})
	return out
}
