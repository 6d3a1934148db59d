package model

import "github.com/twpayne/go-geom"

// Tier is the confidence level of a master entity's assigned geometry.
type Tier string

const (
	Tier1    Tier = "Tier 1"  // directly labeled boundary
	Tier2a   Tier = "Tier 2a" // uniquely matched boundary
	Tier2b   Tier = "Tier 2b" // boundary shared by multiple masters
	Tier3    Tier = "Tier 3"  // externally modeled estimate
	TierNone Tier = "none"    // no geometry from any tier
)

// TierGeometry is one tier's geometry offering for a master key, as consumed
// by the tier assembler.
type TierGeometry struct {
	PWSID           string
	Tier            Tier
	Geometry        geom.T
	CentroidLat     *float64
	CentroidLon     *float64
	CentroidQuality string

	// Matched boundary detail, populated for Tier 2 only.
	MatchedBoundGeoID string
	MatchedBoundName  string

	// Model prediction interval, populated for Tier 3 only.
	Pred05 *float64
	Pred50 *float64
	Pred95 *float64
}

// MasterEntity is the resolved output row, exactly one per active
// community-water-system PWSID.
type MasterEntity struct {
	PWSID string
	Name  string

	State      string
	County     string
	CityServed string

	PopulationServed   *int64
	ServiceConnections *int64

	PrimacyAgencyCode   string
	PrimacyType         string
	OwnerTypeCode       string
	ServiceAreaTypeCode string
	IsWholesaler        string
	PrimarySourceCode   string

	Tier            Tier
	Geometry        geom.T
	CentroidLat     *float64
	CentroidLon     *float64
	CentroidQuality string

	MatchedBoundGeoID string
	MatchedBoundName  string

	Pred05 *float64
	Pred50 *float64
	Pred95 *float64
}
