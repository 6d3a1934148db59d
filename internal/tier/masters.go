// Package tier assembles the pipeline's output records: master attribute
// records built from the anchor sources, modeled-centroid selections for the
// external boundary model, and the final tiered geometry layer. Every
// function here preserves the cardinality invariant: one output row per
// active community water system, no more and no fewer.
package tier

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// stateCountyCentroids are qualities too coarse to keep when something
// better is on offer.
var stateCountyCentroids = map[string]struct{}{
	"STATE CENTROID":  {},
	"COUNTY CENTROID": {},
}

// BuildMasters combines the anchor sources into one master record per PWSID.
// SDWIS supplies the attributes; the centroid comes from ECHO, upgraded to
// the UCMR zip centroid when ECHO only knows a state or county centroid, and
// overridden by the matched mobile home park when one exists.
func BuildMasters(contributors []model.Contributor, pairs []model.MatchPair) ([]model.Contributor, error) {
	log := zap.L().With(zap.String("component", "masters"))

	byID := make(map[string]*model.Contributor, len(contributors))
	echoByPWSID := make(map[string]*model.Contributor)
	ucmrByPWSID := make(map[string]*model.Contributor)
	var sdwis []*model.Contributor
	for i := range contributors {
		c := &contributors[i]
		byID[c.ContributorID] = c
		switch c.SourceSystem {
		case model.SourceSDWIS:
			sdwis = append(sdwis, c)
		case model.SourceECHO:
			echoByPWSID[c.PWSID] = c
		case model.SourceUCMR:
			ucmrByPWSID[c.PWSID] = c
		}
	}

	// The best MHP match is selected by minimum candidate id. Multiple MHP
	// matches per system are rare enough that this is as good as any signal.
	bestMHP := make(map[string]*model.Contributor)
	for _, p := range pairs {
		cand, ok := byID[p.CandidateID]
		if !ok || cand.SourceSystem != model.SourceMHP {
			continue
		}
		if cur, ok := bestMHP[p.MasterKey]; !ok || cand.ContributorID < cur.ContributorID {
			bestMHP[p.MasterKey] = cand
		}
	}

	masters := make([]model.Contributor, 0, len(sdwis))
	for _, s := range sdwis {
		m := *s
		m.ContributorID = model.MakeContributorID(model.SourceMaster, s.PWSID)
		m.SourceSystem = model.SourceMaster
		m.SourceSystemID = s.PWSID
		m.MasterKey = s.PWSID
		m.Geometry = nil
		m.CentroidLat, m.CentroidLon, m.CentroidQuality = nil, nil, ""

		if e := echoByPWSID[s.PWSID]; e != nil {
			m.CentroidLat, m.CentroidLon = e.CentroidLat, e.CentroidLon
			m.CentroidQuality = e.CentroidQuality
		}
		if _, coarse := stateCountyCentroids[m.CentroidQuality]; coarse {
			if u := ucmrByPWSID[s.PWSID]; u != nil && u.CentroidLat != nil {
				m.CentroidLat, m.CentroidLon = u.CentroidLat, u.CentroidLon
				m.CentroidQuality = u.CentroidQuality
			}
		}
		if p := bestMHP[s.PWSID]; p != nil {
			m.CentroidLat, m.CentroidLon = p.CentroidLat, p.CentroidLon
			m.CentroidQuality = p.CentroidQuality
		}
		masters = append(masters, m)
	}

	if len(masters) != len(sdwis) {
		return nil, eris.Errorf("masters: output was filtered or denormalized: %d masters from %d systems",
			len(masters), len(sdwis))
	}
	sortMastersByPWSID(masters)

	log.Info("built master records",
		zap.Int("masters", len(masters)),
		zap.Int("mhp_overrides", len(bestMHP)))
	return masters, nil
}

// sortMastersByPWSID keeps persistence and reports deterministic.
func sortMastersByPWSID(masters []model.Contributor) {
	sort.Slice(masters, func(i, j int) bool { return masters[i].PWSID < masters[j].PWSID })
}
