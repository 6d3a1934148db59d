package tier

import (
	"sort"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/waterlab/boundary-cli/internal/model"
)

// Tier1Geometries converts labeled and contributed contributors with a
// non-empty shape into tier-one offerings. Both arrive with a verified PWSID,
// so their boundaries count as directly known.
func Tier1Geometries(contributors []model.Contributor) []model.TierGeometry {
	var out []model.TierGeometry
	for i := range contributors {
		c := &contributors[i]
		if c.SourceSystem != model.SourceLabeled && c.SourceSystem != model.SourceContributed {
			continue
		}
		if !c.HasGeometry() {
			continue
		}
		out = append(out, model.TierGeometry{
			PWSID:           c.PWSID,
			Tier:            model.Tier1,
			Geometry:        c.Geometry,
			CentroidLat:     c.CentroidLat,
			CentroidLon:     c.CentroidLon,
			CentroidQuality: c.CentroidQuality,
		})
	}
	return out
}

// Tier2Geometries converts the resolved 1:1 boundary assignments into
// tier-two offerings. Resolution gives each boundary to at most one master,
// so the winner is unique, but a boundary that several masters fought over in
// the match graph is still an ambiguous assignment. Those winners are demoted
// to tier 2b; uncontested ones stay 2a.
func Tier2Geometries(best []model.BestMatch, pairs []model.MatchPair, contributors []model.Contributor) []model.TierGeometry {
	byID := make(map[string]*model.Contributor, len(contributors))
	for i := range contributors {
		byID[contributors[i].ContributorID] = &contributors[i]
	}

	anchorsPerCandidate := make(map[string]map[string]struct{})
	for _, p := range pairs {
		if c, ok := byID[p.CandidateID]; !ok || c.SourceSystem != model.SourceTIGER {
			continue
		}
		set := anchorsPerCandidate[p.CandidateID]
		if set == nil {
			set = make(map[string]struct{})
			anchorsPerCandidate[p.CandidateID] = set
		}
		set[p.MasterKey] = struct{}{}
	}

	var out []model.TierGeometry
	for _, b := range best {
		t, ok := byID[b.CandidateID]
		if !ok || t.SourceSystem != model.SourceTIGER {
			continue
		}
		tierLabel := model.Tier2a
		if len(anchorsPerCandidate[b.CandidateID]) > 1 {
			tierLabel = model.Tier2b
		}
		out = append(out, model.TierGeometry{
			PWSID:             b.MasterKey,
			Tier:              tierLabel,
			Geometry:          t.Geometry,
			CentroidLat:       t.CentroidLat,
			CentroidLon:       t.CentroidLon,
			CentroidQuality:   t.CentroidQuality,
			MatchedBoundGeoID: t.SourceSystemID,
			MatchedBoundName:  t.Name,
		})
	}
	return out
}

// Combine merges the tier offerings over the master base. Each master takes
// the best tier that offers it a geometry, in tier order; matched-boundary
// detail is attached for every master that has a tier-two match, whatever
// tier it ends up in. Masters with no offer at all come out as tier "none".
func Combine(masters []model.Contributor, offerings ...[]model.TierGeometry) ([]model.MasterEntity, error) {
	log := zap.L().With(zap.String("component", "combine"))

	var all []model.TierGeometry
	boundInfo := make(map[string]*model.TierGeometry)
	for _, tierSet := range offerings {
		for i := range tierSet {
			g := tierSet[i]
			all = append(all, g)
			if g.MatchedBoundGeoID != "" {
				boundInfo[g.PWSID] = &tierSet[i]
			}
		}
	}

	// Tier labels sort in preference order as plain strings.
	sort.SliceStable(all, func(i, j int) bool { return all[i].Tier < all[j].Tier })
	bestTier := make(map[string]*model.TierGeometry)
	for i := range all {
		g := &all[i]
		if _, ok := bestTier[g.PWSID]; !ok {
			bestTier[g.PWSID] = g
		}
	}

	out := make([]model.MasterEntity, 0, len(masters))
	for i := range masters {
		m := &masters[i]
		e := model.MasterEntity{
			PWSID:               m.PWSID,
			Name:                m.Name,
			State:               m.State,
			County:              m.County,
			CityServed:          m.CityServed,
			PopulationServed:    m.PopulationServed,
			ServiceConnections:  m.ServiceConnections,
			PrimacyAgencyCode:   m.PrimacyAgencyCode,
			PrimacyType:         m.PrimacyType,
			OwnerTypeCode:       m.OwnerTypeCode,
			ServiceAreaTypeCode: m.ServiceAreaTypeCode,
			IsWholesaler:        m.IsWholesaler,
			PrimarySourceCode:   m.PrimarySourceCode,
			Tier:                model.TierNone,
		}
		if g := bestTier[m.PWSID]; g != nil {
			e.Tier = g.Tier
			e.Geometry = g.Geometry
			e.CentroidLat, e.CentroidLon = g.CentroidLat, g.CentroidLon
			e.CentroidQuality = g.CentroidQuality
			e.Pred05, e.Pred50, e.Pred95 = g.Pred05, g.Pred50, g.Pred95
		}
		if b := boundInfo[m.PWSID]; b != nil {
			e.MatchedBoundGeoID = b.MatchedBoundGeoID
			e.MatchedBoundName = b.MatchedBoundName
		}
		out = append(out, e)
	}

	if len(out) != len(masters) {
		return nil, eris.Errorf("combine: output was filtered or denormalized: %d rows from %d masters",
			len(out), len(masters))
	}

	counts := make(map[model.Tier]int)
	for i := range out {
		counts[out[i].Tier]++
	}
	log.Info("combined tiered geometries",
		zap.Int("masters", len(out)),
		zap.Int("tier1", counts[model.Tier1]),
		zap.Int("tier2a", counts[model.Tier2a]),
		zap.Int("tier2b", counts[model.Tier2b]),
		zap.Int("tier3", counts[model.Tier3]),
		zap.Int("none", counts[model.TierNone]))
	return out, nil
}
