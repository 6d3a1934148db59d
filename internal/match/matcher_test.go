package match

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

func f64(v float64) *float64 { return &v }

func anchor(system model.SourceSystem, id, pwsid, name, state string) model.Contributor {
	return model.Contributor{
		ContributorID: model.MakeContributorID(system, id),
		SourceSystem:  system,
		MasterKey:     pwsid,
		PWSID:         pwsid,
		Name:          name,
		State:         state,
	}
}

func tigerPlace(id, name, state string, g geom.T) model.Contributor {
	return model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceTIGER, id),
		SourceSystem:  model.SourceTIGER,
		MasterKey:     "UNK-" + model.MakeContributorID(model.SourceTIGER, id),
		Name:          name,
		State:         state,
		Geometry:      g,
	}
}

func square(minX, minY, size float64) *geom.Polygon {
	return geom.NewPolygon(geom.XY).MustSetCoords([][]geom.Coord{{
		{minX, minY}, {minX + size, minY}, {minX + size, minY + size}, {minX, minY + size}, {minX, minY},
	}})
}

func TestStateNameRule(t *testing.T) {
	pop := []model.Contributor{
		anchor(model.SourceSDWIS, "NE3110500", "NE3110500", "CITY OF SPRINGFIELD", "NE"),
		tigerPlace("3145735", "SPRINGFIELD", "NE", square(-96.2, 41.0, 0.1)),
		tigerPlace("1770122", "SPRINGFIELD", "IL", square(-89.7, 39.7, 0.2)),
	}

	pairs, err := New().Run(context.Background(), pop)
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, "NE3110500", pairs[0].MasterKey)
	assert.Equal(t, "tiger.3145735", pairs[0].CandidateID)
	assert.Equal(t, []string{"state+name_tiger"}, pairs[0].Rules)
}

func TestEmptyTokenNeverMatches(t *testing.T) {
	// Both names tokenize to "" after stripping utility words; equality on
	// empty keys must not fire.
	pop := []model.Contributor{
		anchor(model.SourceSDWIS, "KS2018307", "KS2018307", "WATER DISTRICT", "KS"),
		tigerPlace("2000001", "CITY OF", "KS", square(-95.0, 39.0, 0.1)),
	}

	pairs, err := New().Run(context.Background(), pop)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestSpatialRule(t *testing.T) {
	inside := anchor(model.SourceECHO, "NE3110500", "NE3110500", "SPRINGFIELD PLANT 2", "NE")
	inside.CentroidLat = f64(41.05)
	inside.CentroidLon = f64(-96.15)
	inside.Geometry = geom.NewPoint(geom.XY).MustSetCoords(geom.Coord{-96.15, 41.05})

	// Same point, but the state disagrees with the boundary's state.
	wrongState := anchor(model.SourceECHO, "IA1234567", "IA1234567", "SPRINGFIELD PLANT 3", "IA")
	wrongState.CentroidLat = f64(41.05)
	wrongState.CentroidLon = f64(-96.15)

	// Coarse centroids are not trusted for containment.
	coarse := anchor(model.SourceECHO, "NE7654321", "NE7654321", "SOMEWHERE WSD", "NE")
	coarse.CentroidLat = f64(41.05)
	coarse.CentroidLon = f64(-96.15)
	coarse.CentroidQuality = "COUNTY CENTROID"

	pop := []model.Contributor{
		inside, wrongState, coarse,
		tigerPlace("3145735", "GRETNA", "NE", square(-96.2, 41.0, 0.1)),
	}

	pairs, err := New().Run(context.Background(), pop)
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, "NE3110500", pairs[0].MasterKey)
	assert.Equal(t, []string{"spatial"}, pairs[0].Rules)
}

func TestUCMRSpatialIgnoresState(t *testing.T) {
	z := model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceUCMR, "NE3110500.68059"),
		SourceSystem:  model.SourceUCMR,
		MasterKey:     "NE3110500",
		PWSID:         "NE3110500",
		Zip:           "68059",
		CentroidLat:   f64(41.05),
		CentroidLon:   f64(-96.15),
	}
	pop := []model.Contributor{
		z,
		// No state on either side; ucmr_spatial is containment only.
		tigerPlace("3145735", "SPRINGFIELD", "", square(-96.2, 41.0, 0.1)),
	}

	pairs, err := New().Run(context.Background(), pop)
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, []string{"ucmr_spatial"}, pairs[0].Rules)
}

func TestCityServedRule(t *testing.T) {
	a := anchor(model.SourceSDWIS, "NE3110500", "NE3110500", "RURAL DISTRICT 7", "NE")
	a.CityServed = "SPRINGFIELD"
	pop := []model.Contributor{
		a,
		tigerPlace("3145735", "SPRINGFIELD", "NE", square(-96.2, 41.0, 0.1)),
	}

	pairs, err := New().Run(context.Background(), pop)
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, []string{"state+city_served"}, pairs[0].Rules)
}

func TestMHPRulesRequireFlagsAndKeys(t *testing.T) {
	named := anchor(model.SourceSDWIS, "NE3155025", "NE3155025", "SHADY ACRES MOBILE HOME PARK", "NE")
	named.LikelyMHP = true
	named.PossibleMHP = true
	named.County = "SARPY"

	park := model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceMHP, "991"),
		SourceSystem:  model.SourceMHP,
		MasterKey:     "UNK-mhp.991",
		Name:          "SHADY ACRES",
		State:         "NE",
		County:        "SARPY",
		LikelyMHP:     true,
		PossibleMHP:   true,
	}
	// Same park name in another county must not match.
	otherCounty := park
	otherCounty.ContributorID = model.MakeContributorID(model.SourceMHP, "992")
	otherCounty.MasterKey = "UNK-mhp.992"
	otherCounty.County = "DOUGLAS"

	pairs, err := New().Run(context.Background(), []model.Contributor{named, park, otherCounty})
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, "mhp.991", pairs[0].CandidateID)
	assert.Equal(t, []string{"state+mhp_name"}, pairs[0].Rules)
}

func TestMHPAddressRule(t *testing.T) {
	a := anchor(model.SourceECHO, "NE3155025", "NE3155025", "SUNSET VILLAGE", "NE")
	a.PossibleMHP = true
	a.City = "GRETNA"
	a.AddressLine1 = "100 SUNSET LN"

	park := model.Contributor{
		ContributorID: model.MakeContributorID(model.SourceMHP, "44"),
		SourceSystem:  model.SourceMHP,
		MasterKey:     "UNK-mhp.44",
		Name:          "SUNSET VILLAGE ESTATES",
		State:         "NE",
		City:          "GRETNA",
		AddressLine1:  "100 SUNSET LN",
	}

	pairs, err := New().Run(context.Background(), []model.Contributor{a, park})
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, "mhp.44", pairs[0].CandidateID)
	// Both the name rule and the address rule fire on this pair; name needs
	// county, which the anchor lacks, so only the address rule lands.
	assert.Equal(t, []string{"mhp state+address"}, pairs[0].Rules)
}

func TestLikelyMHPExcludedFromBoundaryNameRule(t *testing.T) {
	a := anchor(model.SourceSDWIS, "NE3155025", "NE3155025", "RIVERSIDE MOBILE HOME PARK", "NE")
	a.LikelyMHP = true

	pop := []model.Contributor{
		a,
		tigerPlace("3141955", "RIVERSIDE", "NE", square(-96.5, 41.2, 0.05)),
	}

	pairs, err := New().Run(context.Background(), pop)
	require.NoError(t, err)
	assert.Empty(t, pairs)
}

func TestCombinedRulesOnePair(t *testing.T) {
	a := anchor(model.SourceECHO, "NE3110500", "NE3110500", "CITY OF SPRINGFIELD", "NE")
	a.CentroidLat = f64(41.05)
	a.CentroidLon = f64(-96.15)

	pop := []model.Contributor{
		a,
		tigerPlace("3145735", "SPRINGFIELD", "NE", square(-96.2, 41.0, 0.1)),
	}

	pairs, err := New().Run(context.Background(), pop)
	require.NoError(t, err)

	require.Len(t, pairs, 1)
	assert.Equal(t, []string{"spatial", "state+name_tiger"}, pairs[0].Rules)
	assert.Equal(t, "spatial+state+name_tiger", pairs[0].RuleKey())
}

func TestPolyIndexNegativeCoordinates(t *testing.T) {
	idx := newPolyIndex()
	r := Row{C: &model.Contributor{
		ContributorID: "tiger.1",
		SourceSystem:  model.SourceTIGER,
		Geometry:      square(-100.05, 39.95, 0.1),
	}}
	idx.add(&r)

	// Polygon straddles the -100/-101 and 39/40 cell edges; probes on both
	// sides of each edge must find it.
	assert.Len(t, idx.query(-100.04, 39.96), 1)
	assert.Len(t, idx.query(-99.96, 40.04), 1)
	assert.Empty(t, idx.query(-99.5, 40.5))
}
