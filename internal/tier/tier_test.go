package tier

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/resolve"
)

func f64(v float64) *float64 { return &v }

func sdwis(pwsid, name string) model.Contributor {
	return model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceSDWIS, pwsid),
		SourceSystem:  model.SourceSDWIS,
		MasterKey:     pwsid,
		PWSID:         pwsid,
		Name:          name,
		State:         pwsid[:2],
	}
}

func withCentroid(c model.Contributor, lat, lon float64, quality string) model.Contributor {
	c.CentroidLat = f64(lat)
	c.CentroidLon = f64(lon)
	c.CentroidQuality = quality
	return c
}

func echo(pwsid string, lat, lon float64, quality string) model.Contributor {
	return withCentroid(model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceECHO, pwsid),
		SourceSystem:  model.SourceECHO,
		MasterKey:     pwsid,
		PWSID:         pwsid,
	}, lat, lon, quality)
}

func ucmr(pwsid string, lat, lon float64) model.Contributor {
	return withCentroid(model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceUCMR, pwsid+".68059"),
		SourceSystem:  model.SourceUCMR,
		MasterKey:     pwsid,
		PWSID:         pwsid,
	}, lat, lon, "ZIP CODE CENTROID")
}

func mhpPark(id string, lat, lon float64) model.Contributor {
	return withCentroid(model.Contributor{
		ContributorID:  model.MakeContributorID(model.SourceMHP, id),
		SourceSystem:   model.SourceMHP,
		SourceSystemID: id,
		MasterKey:      "UNK-mhp." + id,
	}, lat, lon, "MHP LOCATION")
}

func square(minX, minY, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}})
}

func TestBuildMastersCentroidWaterfall(t *testing.T) {
	contributors := []model.Contributor{
		// Fine ECHO centroid survives.
		sdwis("NE3110500", "SPRINGFIELD"),
		echo("NE3110500", 41.05, -96.15, "ADDRESS MATCH"),

		// Coarse ECHO centroid is upgraded by UCMR.
		sdwis("KS2018307", "HAVEN"),
		echo("KS2018307", 38.5, -98.0, "COUNTY CENTROID"),
		ucmr("KS2018307", 37.9, -97.78),

		// MHP match overrides everything.
		sdwis("NE3155025", "SHADY ACRES"),
		echo("NE3155025", 41.0, -96.0, "ADDRESS MATCH"),
		mhpPark("991", 41.11, -96.21),

		// No centroid source at all.
		sdwis("WY5600012", "LONESOME WSD"),
	}
	pairs := []model.MatchPair{
		{MasterKey: "NE3155025", CandidateID: "mhp.991", Rules: []string{"state+mhp_name"}},
	}

	masters, err := BuildMasters(contributors, pairs)
	require.NoError(t, err)
	require.Len(t, masters, 4)

	byPWSID := make(map[string]model.Contributor)
	for _, m := range masters {
		byPWSID[m.PWSID] = m
		assert.Equal(t, model.SourceMaster, m.SourceSystem)
		assert.Equal(t, model.MakeContributorID(model.SourceMaster, m.PWSID), m.ContributorID)
		assert.Equal(t, m.PWSID, m.MasterKey)
		assert.Nil(t, m.Geometry)
	}

	assert.Equal(t, "ADDRESS MATCH", byPWSID["NE3110500"].CentroidQuality)
	assert.Equal(t, 41.05, *byPWSID["NE3110500"].CentroidLat)

	assert.Equal(t, "ZIP CODE CENTROID", byPWSID["KS2018307"].CentroidQuality)
	assert.Equal(t, 37.9, *byPWSID["KS2018307"].CentroidLat)

	assert.Equal(t, "MHP LOCATION", byPWSID["NE3155025"].CentroidQuality)
	assert.Equal(t, -96.21, *byPWSID["NE3155025"].CentroidLon)

	assert.Nil(t, byPWSID["WY5600012"].CentroidLat)
	assert.Empty(t, byPWSID["WY5600012"].CentroidQuality)
}

func TestBuildMastersPicksLowestMHPCandidate(t *testing.T) {
	contributors := []model.Contributor{
		sdwis("NE3155025", "SHADY ACRES"),
		mhpPark("991", 41.11, -96.21),
		mhpPark("1005", 41.12, -96.22),
	}
	pairs := []model.MatchPair{
		{MasterKey: "NE3155025", CandidateID: "mhp.991", Rules: []string{"state+mhp_name"}},
		{MasterKey: "NE3155025", CandidateID: "mhp.1005", Rules: []string{"state+mhp_name"}},
	}

	masters, err := BuildMasters(contributors, pairs)
	require.NoError(t, err)
	require.Len(t, masters, 1)
	// "mhp.1005" < "mhp.991" lexically.
	assert.Equal(t, 41.12, *masters[0].CentroidLat)
}

func TestSelectModeledCentroidsRanking(t *testing.T) {
	tigerCand := withCentroid(model.Contributor{
		ContributorID:  model.MakeContributorID(model.SourceTIGER, "3145735"),
		SourceSystem:   model.SourceTIGER,
		SourceSystemID: "3145735",
	}, 41.02, -96.17, "TIGER BOUNDARY")

	frs := withCentroid(model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceFRS, "110000000000.NE3110500"),
		SourceSystem:  model.SourceFRS,
		MasterKey:     "NE3110500",
		PWSID:         "NE3110500",
	}, 41.06, -96.14, "ADDRESS MATCH")

	contributors := []model.Contributor{
		sdwis("NE3110500", "SPRINGFIELD"),
		// Coarse ECHO ranks below everything else.
		echo("NE3110500", 41.5, -96.5, "STATE CENTROID"),
		frs,
		tigerCand,
	}
	ranked := []resolve.RankedPair{
		{MasterKey: "NE3110500", CandidateID: "tiger.3145735", OverallRank: 0},
	}

	modeled, err := SelectModeledCentroids(contributors, nil, ranked)
	require.NoError(t, err)
	require.Len(t, modeled, 1)

	m := modeled[0]
	assert.Equal(t, model.SourceModeled, m.SourceSystem)
	assert.Equal(t, "modeled.NE3110500", m.ContributorID)
	// FRS beats the boundary and the coarse ECHO centroid.
	assert.Equal(t, "FRS: ADDRESS MATCH", m.CentroidQuality)
	assert.Equal(t, 41.06, *m.CentroidLat)
}

func TestSelectModeledCentroidsMHPWins(t *testing.T) {
	contributors := []model.Contributor{
		sdwis("NE3155025", "SHADY ACRES"),
		echo("NE3155025", 41.0, -96.0, "ADDRESS MATCH"),
		mhpPark("991", 41.11, -96.21),
	}
	pairs := []model.MatchPair{
		{MasterKey: "NE3155025", CandidateID: "mhp.991", Rules: []string{"state+mhp_name"}},
	}

	modeled, err := SelectModeledCentroids(contributors, pairs, nil)
	require.NoError(t, err)
	require.Len(t, modeled, 1)
	assert.Equal(t, "MHP: MHP LOCATION", modeled[0].CentroidQuality)
}

func TestSelectModeledCentroidsNoOffer(t *testing.T) {
	modeled, err := SelectModeledCentroids([]model.Contributor{sdwis("WY5600012", "LONESOME WSD")}, nil, nil)
	require.NoError(t, err)
	require.Len(t, modeled, 1)
	assert.Nil(t, modeled[0].CentroidLat)
	assert.Empty(t, modeled[0].CentroidQuality)
}

func TestTier2GeometriesDemotesContestedBoundaries(t *testing.T) {
	contributors := []model.Contributor{
		{
			ContributorID:  "tiger.1",
			SourceSystem:   model.SourceTIGER,
			SourceSystemID: "1000001",
			Name:           "SPRINGFIELD",
			Geometry:       square(-96.2, 41.0, 0.1),
		},
		{
			ContributorID:  "tiger.2",
			SourceSystem:   model.SourceTIGER,
			SourceSystemID: "1000002",
			Name:           "GRETNA",
			Geometry:       square(-96.4, 41.0, 0.1),
		},
	}
	// tiger.1 was fought over by two anchors in the match graph; tiger.2 had
	// a single suitor.
	pairs := []model.MatchPair{
		{MasterKey: "NE3110500", CandidateID: "tiger.1", Rules: []string{"state+name_tiger"}},
		{MasterKey: "NE3110501", CandidateID: "tiger.1", Rules: []string{"spatial"}},
		{MasterKey: "NE3110502", CandidateID: "tiger.2", Rules: []string{"state+name_tiger"}},
	}
	best := []model.BestMatch{
		{MasterKey: "NE3110500", CandidateID: "tiger.1"},
		{MasterKey: "NE3110502", CandidateID: "tiger.2"},
	}

	t2 := Tier2Geometries(best, pairs, contributors)
	require.Len(t, t2, 2)

	tiers := make(map[string]model.Tier)
	for _, g := range t2 {
		tiers[g.PWSID] = g.Tier
	}
	assert.Equal(t, model.Tier2b, tiers["NE3110500"])
	assert.Equal(t, model.Tier2a, tiers["NE3110502"])
}

func TestCombinePrefersBetterTiers(t *testing.T) {
	masters := []model.Contributor{
		sdwis("NE3110500", "SPRINGFIELD"),
		sdwis("KS2018307", "HAVEN"),
		sdwis("WY5600012", "LONESOME WSD"),
	}

	t1 := []model.TierGeometry{{
		PWSID:    "NE3110500",
		Tier:     model.Tier1,
		Geometry: square(-96.2, 41.0, 0.1),
	}}
	t2 := []model.TierGeometry{
		{
			PWSID:             "NE3110500",
			Tier:              model.Tier2a,
			Geometry:          square(-96.3, 41.0, 0.1),
			MatchedBoundGeoID: "3145735",
			MatchedBoundName:  "SPRINGFIELD",
		},
		{
			PWSID:             "KS2018307",
			Tier:              model.Tier2a,
			Geometry:          square(-98.0, 38.0, 0.1),
			MatchedBoundGeoID: "2030900",
			MatchedBoundName:  "HAVEN",
		},
	}
	t3 := []model.TierGeometry{{
		PWSID:       "KS2018307",
		Tier:        model.Tier3,
		Geometry:    square(-98.1, 38.0, 0.2),
		CentroidLat: f64(38.05),
		CentroidLon: f64(-98.05),
		Pred50:      f64(12.5),
	}}

	out, err := Combine(masters, t1, t2, t3)
	require.NoError(t, err)
	require.Len(t, out, 3)

	byPWSID := make(map[string]model.MasterEntity)
	for _, e := range out {
		byPWSID[e.PWSID] = e
	}

	// Labeled beats matched, but the matched boundary info is still attached.
	ne := byPWSID["NE3110500"]
	assert.Equal(t, model.Tier1, ne.Tier)
	assert.Equal(t, "3145735", ne.MatchedBoundGeoID)
	assert.Equal(t, "SPRINGFIELD", ne.MatchedBoundName)

	ks := byPWSID["KS2018307"]
	assert.Equal(t, model.Tier2a, ks.Tier)
	assert.Nil(t, ks.Pred50)

	wy := byPWSID["WY5600012"]
	assert.Equal(t, model.TierNone, wy.Tier)
	assert.Nil(t, wy.Geometry)
}

func TestCombineFallsBackToModeled(t *testing.T) {
	masters := []model.Contributor{sdwis("KS2018307", "HAVEN")}
	t3 := []model.TierGeometry{{
		PWSID:  "KS2018307",
		Tier:   model.Tier3,
		Pred05: f64(2.0),
		Pred50: f64(5.0),
		Pred95: f64(11.0),
	}}

	out, err := Combine(masters, nil, nil, t3)
	require.NoError(t, err)
	require.Len(t, out, 1)
	assert.Equal(t, model.Tier3, out[0].Tier)
	assert.Equal(t, 5.0, *out[0].Pred50)
}
