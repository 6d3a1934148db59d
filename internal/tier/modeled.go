package tier

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/resolve"
)

// systemCentroidRank orders sources by centroid trustworthiness. ECHO drops
// to echoCoarseRank when it only knows a state or county centroid.
var systemCentroidRank = map[model.SourceSystem]int{
	model.SourceMHP:   1,
	model.SourceECHO:  2,
	model.SourceFRS:   3,
	model.SourceUCMR:  4,
	model.SourceTIGER: 5,
}

const echoCoarseRank = 6

// centroidOffer is one candidate centroid for a master key.
type centroidOffer struct {
	masterKey     string
	contributorID string
	lat, lon      *float64
	quality       string
	systemRank    int
	groupRank     int
}

// SelectModeledCentroids picks the most trustworthy centroid per PWSID and
// emits one modeled-source contributor per SDWIS system, carrying that
// centroid as input for the external boundary model. Systems with no centroid
// on offer still get a row, with empty centroid fields.
func SelectModeledCentroids(contributors []model.Contributor, pairs []model.MatchPair, ranked []resolve.RankedPair) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "modeled"))

	byID := make(map[string]*model.Contributor, len(contributors))
	var sdwis []*model.Contributor
	for i := range contributors {
		c := &contributors[i]
		byID[c.ContributorID] = c
		if c.SourceSystem == model.SourceSDWIS {
			sdwis = append(sdwis, c)
		}
	}

	var stack []centroidOffer

	// ECHO, FRS, and UCMR records already know their PWSID.
	for i := range contributors {
		c := &contributors[i]
		switch c.SourceSystem {
		case model.SourceECHO, model.SourceFRS, model.SourceUCMR:
			if !c.HasCentroid() {
				continue
			}
			stack = append(stack, offerFrom(c, c.MasterKey, 1))
		}
	}

	// MHP parks contribute through their match edges.
	for _, p := range pairs {
		cand, ok := byID[p.CandidateID]
		if !ok || cand.SourceSystem != model.SourceMHP || !cand.HasCentroid() {
			continue
		}
		stack = append(stack, offerFrom(cand, p.MasterKey, 1))
	}

	// Boundary centroids contribute through the ranked match table; the
	// per-master position breaks ties between multiple boundary matches.
	for _, ro := range rankWithinMaster(ranked) {
		cand, ok := byID[ro.pair.CandidateID]
		if !ok || cand.SourceSystem != model.SourceTIGER || !cand.HasCentroid() {
			continue
		}
		stack = append(stack, offerFrom(cand, ro.pair.MasterKey, ro.groupRank))
	}

	sort.Slice(stack, func(i, j int) bool {
		a, b := &stack[i], &stack[j]
		if a.masterKey != b.masterKey {
			return a.masterKey < b.masterKey
		}
		if a.systemRank != b.systemRank {
			return a.systemRank < b.systemRank
		}
		if a.groupRank != b.groupRank {
			return a.groupRank < b.groupRank
		}
		return a.contributorID < b.contributorID
	})

	best := make(map[string]*centroidOffer)
	for i := range stack {
		o := &stack[i]
		if _, ok := best[o.masterKey]; !ok {
			best[o.masterKey] = o
		}
	}

	modeled := make([]model.Contributor, 0, len(sdwis))
	for _, s := range sdwis {
		m := *s
		m.ContributorID = model.MakeContributorID(model.SourceModeled, s.PWSID)
		m.SourceSystem = model.SourceModeled
		m.SourceSystemID = s.PWSID
		m.MasterKey = s.PWSID
		m.Geometry = nil
		m.CentroidLat, m.CentroidLon, m.CentroidQuality = nil, nil, ""

		if o := best[s.PWSID]; o != nil {
			m.CentroidLat, m.CentroidLon = o.lat, o.lon
			m.CentroidQuality = o.quality
		}
		modeled = append(modeled, m)
	}

	if len(modeled) != len(sdwis) {
		return nil, eris.Errorf("modeled: output was filtered or denormalized: %d rows from %d systems",
			len(modeled), len(sdwis))
	}
	sortMastersByPWSID(modeled)

	log.Info("selected modeled centroids",
		zap.Int("systems", len(modeled)),
		zap.Int("offers", len(stack)),
		zap.Int("with_centroid", len(best)))
	return modeled, nil
}

func offerFrom(c *model.Contributor, masterKey string, groupRank int) centroidOffer {
	rank := systemCentroidRank[c.SourceSystem]
	if c.SourceSystem == model.SourceECHO {
		if _, coarse := stateCountyCentroids[c.CentroidQuality]; coarse {
			rank = echoCoarseRank
		}
	}
	return centroidOffer{
		masterKey:     masterKey,
		contributorID: c.ContributorID,
		lat:           c.CentroidLat,
		lon:           c.CentroidLon,
		quality:       strings.ToUpper(string(c.SourceSystem)) + ": " + c.CentroidQuality,
		systemRank:    rank,
		groupRank:     groupRank,
	}
}

type rankedOffer struct {
	pair      resolve.RankedPair
	groupRank int
}

// rankWithinMaster numbers each master key's ranked pairs from one, in
// overall-rank order.
func rankWithinMaster(ranked []resolve.RankedPair) []rankedOffer {
	ordered := make([]resolve.RankedPair, len(ranked))
	copy(ordered, ranked)
	sort.Slice(ordered, func(i, j int) bool {
		if ordered[i].MasterKey != ordered[j].MasterKey {
			return ordered[i].MasterKey < ordered[j].MasterKey
		}
		return ordered[i].OverallRank < ordered[j].OverallRank
	})

	out := make([]rankedOffer, 0, len(ordered))
	var prev string
	n := 0
	for _, rp := range ordered {
		if rp.MasterKey != prev {
			prev = rp.MasterKey
			n = 0
		}
		n++
		out = append(out, rankedOffer{pair: rp, groupRank: n})
	}
	return out
}
