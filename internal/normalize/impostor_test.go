package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/waterlab/boundary-cli/internal/model"
)

// wyBounds approximates Wyoming as a lon/lat rectangle.
func wyBounds() geom.T {
	return geom.NewPolygonFlat(geom.XY, []float64{
		-111.05, 41.0, -104.05, 41.0, -104.05, 45.0, -111.05, 45.0, -111.05, 41.0,
	}, []int{10})
}

func pointContributor(id string, system model.SourceSystem, agency string, lon, lat float64) model.Contributor {
	return model.Contributor{
		ContributorID:     id,
		SourceSystem:      system,
		PrimacyAgencyCode: agency,
		State:             "WY",
		AddressLine1:      "123 MAIN ST",
		City:              "LARAMIE",
		Zip:               "82070",
		CentroidLat:       f64(lat),
		CentroidLon:       f64(lon),
		Geometry:          geom.NewPointFlat(geom.XY, []float64{lon, lat}),
	}
}

func TestFlagImpostors_FarPointNulled(t *testing.T) {
	cs := []model.Contributor{
		// A "Wyoming" facility geocoded in Florida.
		pointContributor("echo.WY0100001", model.SourceECHO, "WY", -81.5, 28.5),
	}
	states := map[string]geom.T{"WY": wyBounds()}

	impostors := FlagImpostors(cs, states, 50_000)

	require.Equal(t, []string{"echo.WY0100001"}, impostors)
	assert.Equal(t, "", cs[0].AddressLine1)
	assert.Equal(t, "", cs[0].City)
	assert.Equal(t, "", cs[0].State)
	assert.Equal(t, "", cs[0].Zip)
	assert.Nil(t, cs[0].CentroidLat)
	assert.Nil(t, cs[0].Geometry)
}

func TestFlagImpostors_InStatePointKept(t *testing.T) {
	cs := []model.Contributor{
		pointContributor("echo.WY0100002", model.SourceECHO, "WY", -105.6, 41.3),
	}
	states := map[string]geom.T{"WY": wyBounds()}

	impostors := FlagImpostors(cs, states, 50_000)

	assert.Empty(t, impostors)
	assert.Equal(t, "123 MAIN ST", cs[0].AddressLine1)
	assert.NotNil(t, cs[0].Geometry)
}

func TestFlagImpostors_NumericAgencyFallsBackToState(t *testing.T) {
	cs := []model.Contributor{
		pointContributor("echo.WY0100003", model.SourceECHO, "08", -105.6, 41.3),
	}
	states := map[string]geom.T{"WY": wyBounds()}

	impostors := FlagImpostors(cs, states, 50_000)
	assert.Empty(t, impostors)
}

func TestFlagImpostors_IgnoresAnchorSources(t *testing.T) {
	cs := []model.Contributor{
		pointContributor("sdwis.WY0100004", model.SourceSDWIS, "WY", -81.5, 28.5),
	}
	states := map[string]geom.T{"WY": wyBounds()}

	impostors := FlagImpostors(cs, states, 50_000)
	assert.Empty(t, impostors)
}
