package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/waterlab/boundary-cli/internal/model"
)

func f64(v float64) *float64 { return &v }
func i64(v int64) *int64     { return &v }

func activeSet(pwsids ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(pwsids))
	for _, p := range pwsids {
		m[p] = struct{}{}
	}
	return m
}

func TestSDWIS_FiltersInactive(t *testing.T) {
	systems := []SDWISWaterSystem{
		{PWSID: "WY0100001", Name: "Laramie", ActivityCode: "A", TypeCode: "CWS", StateCode: "WY"},
		{PWSID: "WY0100002", Name: "Closed", ActivityCode: "I", TypeCode: "CWS", StateCode: "WY"},
		{PWSID: "WY0100003", Name: "Campground Well", ActivityCode: "A", TypeCode: "TNCWS", StateCode: "WY"},
	}

	got, err := SDWIS(systems, nil, nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "sdwis.WY0100001", got[0].ContributorID)
	assert.Equal(t, "WY0100001", got[0].MasterKey)
	assert.Equal(t, "WY0100001", got[0].PWSID)
}

func TestSDWIS_DuplicatePWSIDFatal(t *testing.T) {
	systems := []SDWISWaterSystem{
		{PWSID: "WY0100001", ActivityCode: "A", TypeCode: "CWS"},
		{PWSID: "WY0100001", ActivityCode: "A", TypeCode: "CWS"},
	}

	_, err := SDWIS(systems, nil, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "assumed unique")
}

func TestSDWIS_GeoAreaSupplement(t *testing.T) {
	systems := []SDWISWaterSystem{
		{PWSID: "WY0100001", ActivityCode: "A", TypeCode: "CWS", StateCode: "WY"},
	}
	ga := []SDWISGeoArea{{PWSID: "WY0100001", CityServed: "LARAMIE", CountyServed: "ALBANY"}}
	sa := []SDWISServiceArea{
		{PWSID: "WY0100001", AreaTypeCode: "R"},
		{PWSID: "WY0100001", AreaTypeCode: "M"},
	}

	got, err := SDWIS(systems, ga, sa)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "LARAMIE", got[0].CityServed)
	assert.Equal(t, "ALBANY", got[0].County)
	assert.Equal(t, "M,R", got[0].ServiceAreaTypeCode)
}

func TestSDWIS_StateFallsBackToPrimacyAgency(t *testing.T) {
	systems := []SDWISWaterSystem{
		{PWSID: "WY0100001", ActivityCode: "A", TypeCode: "CWS", PrimacyAgencyCode: "WY"},
	}

	got, err := SDWIS(systems, nil, nil)
	require.NoError(t, err)
	assert.Equal(t, "WY", got[0].State)
}

func TestECHO_BuildsPointGeometry(t *testing.T) {
	facilities := []ECHOFacility{
		{PWSID: "WY0100001", Name: "Laramie WTP", State: "WY", Lat: f64(41.3), Lon: f64(-105.6), ReferencePoint: "ADDRESS MATCH"},
	}

	got, err := ECHO(facilities, activeSet("WY0100001"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].HasGeometry())
	assert.True(t, got[0].HasCentroid())
	assert.Equal(t, "WY", got[0].PrimacyAgencyCode)
}

func TestECHO_BadLatitudeNulled(t *testing.T) {
	facilities := []ECHOFacility{
		{PWSID: "WY0100001", Lat: f64(95.0), Lon: f64(-105.6)},
	}

	got, err := ECHO(facilities, activeSet("WY0100001"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.False(t, got[0].HasCentroid())
	assert.False(t, got[0].HasGeometry())
}

func TestFRS_CompositeKeyAndEchoDedupe(t *testing.T) {
	echo, err := ECHO([]ECHOFacility{
		{PWSID: "WY0100001", Name: "LARAMIE WTP", Lat: f64(41.3), Lon: f64(-105.6)},
	}, activeSet("WY0100001"))
	require.NoError(t, err)

	facilities := []FRSFacility{
		// Identical to the echo record on name and coordinates: dropped.
		{RegistryID: "110001", PWSID: "WY0100001", InterestType: "WATER TREATMENT PLANT",
			Name: "LARAMIE WTP", Lat: f64(41.3), Lon: f64(-105.6)},
		// Distinct facility: kept with composite contributor key.
		{RegistryID: "110002", PWSID: "WY0100001", InterestType: "WATER TREATMENT PLANT",
			Name: "LARAMIE WEST PLANT", Lat: f64(41.4), Lon: f64(-105.7)},
		// Not a treatment plant: dropped.
		{RegistryID: "110003", PWSID: "WY0100001", InterestType: "ICIS-NPDES", Name: "OUTFALL"},
	}

	got, err := FRS(facilities, activeSet("WY0100001"), echo)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "frs.110002.WY0100001", got[0].ContributorID)
}

func TestTIGER_UnresolvedSentinelAndStateCrosswalk(t *testing.T) {
	places := []TIGERPlace{
		{GeoID: "5601234", StateFP: "56", Name: "Laramie", Population: i64(32_000)},
	}

	got, err := TIGER(places)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "tiger.5601234", got[0].ContributorID)
	assert.Equal(t, "UNK-tiger.5601234", got[0].MasterKey)
	assert.Equal(t, "WY", got[0].State)
	assert.False(t, got[0].Resolved())
}

func TestTIGER_PadsStateFIPS(t *testing.T) {
	got, err := TIGER([]TIGERPlace{{GeoID: "0100100", StateFP: "1", Name: "Abbeville"}})
	require.NoError(t, err)
	assert.Equal(t, "AL", got[0].State)
}

func TestTIGER_DuplicateGeoIDFatal(t *testing.T) {
	_, err := TIGER([]TIGERPlace{{GeoID: "5601234"}, {GeoID: "5601234"}})
	require.Error(t, err)
}

func TestMHP_AlwaysFlagged(t *testing.T) {
	got, err := MHP([]MHPPark{{MHPID: "100", Name: "Shady Grove MHP", State: "WY"}})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.True(t, got[0].LikelyMHP)
	assert.True(t, got[0].PossibleMHP)
	assert.Equal(t, "UNK-mhp.100", got[0].MasterKey)
}

func TestMHP_NotAvailableNulled(t *testing.T) {
	got, err := MHP([]MHPPark{{MHPID: "100", Name: "NOT AVAILABLE", City: "NOT AVAILABLE"}})
	require.NoError(t, err)
	assert.Equal(t, "", got[0].Name)
	assert.Equal(t, "", got[0].City)
}

func TestUCMR_ZipCentroid(t *testing.T) {
	got, err := UCMR([]UCMRRecord{
		{PWSID: "WY0100001", Zip: "82070-1234", Lat: f64(41.3), Lon: f64(-105.6)},
	}, activeSet("WY0100001"))
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "82070", got[0].Zip)
	assert.Equal(t, "ZIP CODE CENTROID", got[0].CentroidQuality)
}

func TestCleanse_ZipPlaceholder(t *testing.T) {
	cs := []model.Contributor{{Zip: "99999"}}
	Cleanse(cs)
	assert.Equal(t, "", cs[0].Zip)
}

func TestCleanse_POBox(t *testing.T) {
	cs := []model.Contributor{{AddressLine1: "PO BOX 442"}}
	Cleanse(cs)
	assert.Equal(t, "", cs[0].AddressLine1)
	assert.Equal(t, "PO BOX", cs[0].AddressQuality)
}

func TestCleanse_POBoxVariants(t *testing.T) {
	for _, addr := range []string{"P.O. BOX 1", "PO BOX 12345", "P.O.BOX 7"} {
		cs := []model.Contributor{{AddressLine1: addr}}
		Cleanse(cs)
		assert.Equal(t, "", cs[0].AddressLine1, addr)
	}
}

func TestCleanse_KeepsStreetAddress(t *testing.T) {
	cs := []model.Contributor{{AddressLine1: "123 MAIN ST"}}
	Cleanse(cs)
	assert.Equal(t, "123 MAIN ST", cs[0].AddressLine1)
	assert.Equal(t, "", cs[0].AddressQuality)
}

func TestCleanse_MovesLine2IntoEmptyLine1(t *testing.T) {
	cs := []model.Contributor{{AddressLine2: "456 ELM ST"}}
	Cleanse(cs)
	assert.Equal(t, "456 ELM ST", cs[0].AddressLine1)
	assert.Equal(t, "", cs[0].AddressLine2)
}

func TestCleanse_POBoxLine1ThenLine2Relocates(t *testing.T) {
	// PO-box removal runs before relocation, so a street address in line 2
	// replaces a removed PO box in line 1.
	cs := []model.Contributor{{AddressLine1: "PO BOX 9", AddressLine2: "789 OAK AVE"}}
	Cleanse(cs)
	assert.Equal(t, "789 OAK AVE", cs[0].AddressLine1)
	assert.Equal(t, "", cs[0].AddressLine2)
}

func TestCleanse_UpperCases(t *testing.T) {
	cs := []model.Contributor{{Name: "city of laramie", City: "laramie"}}
	Cleanse(cs)
	assert.Equal(t, "CITY OF LARAMIE", cs[0].Name)
	assert.Equal(t, "LARAMIE", cs[0].City)
}

func TestCleanse_CentroidQualityStandardized(t *testing.T) {
	cs := []model.Contributor{{CentroidQuality: "zip code-centroid"}}
	Cleanse(cs)
	assert.Equal(t, "ZIP CODE CENTROID", cs[0].CentroidQuality)
}

func TestClassifyMHP_PropagatesAcrossPWSID(t *testing.T) {
	cs := []model.Contributor{
		{SourceSystem: model.SourceSDWIS, PWSID: "WY0100001", Name: "SHADY GROVE TRAILER COURT"},
		{SourceSystem: model.SourceECHO, PWSID: "WY0100001", Name: "SHADY GROVE"},
		{SourceSystem: model.SourceSDWIS, PWSID: "WY0100002", Name: "LARAMIE WATER DISTRICT"},
	}
	ClassifyMHP(cs)

	assert.True(t, cs[0].LikelyMHP)
	assert.True(t, cs[1].LikelyMHP, "flag must propagate to same-PWSID contributors")
	assert.False(t, cs[2].LikelyMHP)
	assert.False(t, cs[2].PossibleMHP)
}

func TestClassifyMHP_PossibleOnly(t *testing.T) {
	cs := []model.Contributor{
		{SourceSystem: model.SourceSDWIS, PWSID: "WY0100003", Name: "SUNSET ESTATES"},
	}
	ClassifyMHP(cs)
	assert.False(t, cs[0].LikelyMHP)
	assert.True(t, cs[0].PossibleMHP)
}

func TestClassifyMHP_LikelyImpliesPossible(t *testing.T) {
	cs := []model.Contributor{
		{SourceSystem: model.SourceSDWIS, PWSID: "WY0100004", Name: "PINE MHP"},
	}
	ClassifyMHP(cs)
	assert.True(t, cs[0].LikelyMHP)
	assert.True(t, cs[0].PossibleMHP)
}
