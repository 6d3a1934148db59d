// Package model defines the typed records exchanged between pipeline stages:
// contributors, match candidates, rule ranks, best matches, and master entities.
package model

import (
	"fmt"

	"github.com/twpayne/go-geom"
)

// SourceSystem identifies the origin of a contributor record.
type SourceSystem string

const (
	SourceSDWIS       SourceSystem = "sdwis"
	SourceECHO        SourceSystem = "echo"
	SourceFRS         SourceSystem = "frs"
	SourceTIGER       SourceSystem = "tiger"
	SourceMHP         SourceSystem = "mhp"
	SourceUCMR        SourceSystem = "ucmr"
	SourceLabeled     SourceSystem = "labeled"
	SourceContributed SourceSystem = "contributed"
	SourceMaster      SourceSystem = "master"
	SourceModeled     SourceSystem = "modeled"
)

// SourceSystems lists every known source.
var SourceSystems = []SourceSystem{
	SourceSDWIS, SourceECHO, SourceFRS, SourceTIGER, SourceMHP,
	SourceUCMR, SourceLabeled, SourceContributed, SourceMaster, SourceModeled,
}

// Anchored reports whether contributors from this source arrive with their
// PWSID already known. TIGER and MHP records do not and must be matched.
func (s SourceSystem) Anchored() bool {
	switch s {
	case SourceTIGER, SourceMHP:
		return false
	default:
		return true
	}
}

// Contributor is one normalized record from one source system.
// ContributorID is globally unique as "{source_system}.{source_system_id}".
// MasterKey is the resolved PWSID, or the "UNK-{contributor_id}" sentinel for
// records that have not been matched yet.
type Contributor struct {
	ContributorID  string
	SourceSystem   SourceSystem
	SourceSystemID string
	MasterKey      string
	PWSID          string

	Name         string
	State        string
	County       string
	City         string
	Zip          string
	AddressLine1 string
	AddressLine2 string
	CityServed   string

	// AddressQuality notes address provenance, e.g. "PO BOX" after the
	// cleansing pass removes a post-office-box line.
	AddressQuality string

	Geometry        geom.T // nil or empty when the source has no shape
	CentroidLat     *float64
	CentroidLon     *float64
	CentroidQuality string

	PopulationServed   *int64
	ServiceConnections *int64

	PrimacyAgencyCode   string
	PrimacyType         string
	OwnerTypeCode       string
	ServiceAreaTypeCode string
	IsWholesaler        string
	PrimarySourceCode   string

	LikelyMHP   bool
	PossibleMHP bool
}

// MakeContributorID builds the global contributor key.
func MakeContributorID(system SourceSystem, sourceID string) string {
	return fmt.Sprintf("%s.%s", system, sourceID)
}

// UnknownMasterKey builds the sentinel master key for an unresolved record.
// Sentinels are unique per contributor so that two unresolved records never
// group together.
func UnknownMasterKey(contributorID string) string {
	return "UNK-" + contributorID
}

// Resolved reports whether the contributor's master key is a real PWSID
// rather than an UNK sentinel.
func (c *Contributor) Resolved() bool {
	return c.MasterKey != "" && c.MasterKey != UnknownMasterKey(c.ContributorID)
}

// HasGeometry reports whether the contributor carries a non-empty shape.
func (c *Contributor) HasGeometry() bool {
	return c.Geometry != nil && !c.Geometry.Empty()
}

// HasCentroid reports whether both centroid coordinates are present.
func (c *Contributor) HasCentroid() bool {
	return c.CentroidLat != nil && c.CentroidLon != nil
}
