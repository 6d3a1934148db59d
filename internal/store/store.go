// Package store persists pipeline state between stages so each stage can be
// run and rerun independently from the command line. Two backends exist:
// PostgreSQL for shared environments and SQLite for local single-user runs.
// Geometries travel as EWKB blobs in both.
package store

import (
	"context"
	"time"

	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/resolve"
)

// StageStatus is the lifecycle state of one recorded pipeline stage run.
type StageStatus string

const (
	StageRunning  StageStatus = "running"
	StageComplete StageStatus = "complete"
	StageFailed   StageStatus = "failed"
)

// StageRun is one audit-log row for a stage execution.
type StageRun struct {
	ID         string
	Stage      string
	Status     StageStatus
	Rows       int
	Error      string
	StartedAt  time.Time
	FinishedAt *time.Time
}

// Store defines the persistence interface for the resolution pipeline.
type Store interface {
	// Contributors, replaced wholesale per source system on reload.
	ReplaceContributors(ctx context.Context, source model.SourceSystem, contributors []model.Contributor) error
	Contributors(ctx context.Context, sources ...model.SourceSystem) ([]model.Contributor, error)

	// Match graph.
	ReplaceMatches(ctx context.Context, pairs []model.MatchPair) error
	Matches(ctx context.Context) ([]model.MatchPair, error)

	// Rule performance against the labeled set. Upserted by rule key so a
	// re-score with a different buffer overwrites in place.
	SaveRuleRanks(ctx context.Context, ranks []model.RuleRank) error
	RuleRanks(ctx context.Context) ([]model.RuleRank, error)

	// Ranked pairs and the 1:1 assignments chosen from them.
	ReplaceRankedMatches(ctx context.Context, pairs []resolve.RankedPair) error
	RankedMatches(ctx context.Context) ([]resolve.RankedPair, error)
	ReplaceBestMatches(ctx context.Context, matches []model.BestMatch) error
	BestMatches(ctx context.Context) ([]model.BestMatch, error)

	// Stage audit log.
	StartStage(ctx context.Context, stage string) (*StageRun, error)
	FinishStage(ctx context.Context, id string, status StageStatus, rows int, stageErr error) error
	ListStages(ctx context.Context, limit int) ([]StageRun, error)

	// Lifecycle.
	Migrate(ctx context.Context) error
	Close() error
}

var (
	_ Store = (*PostgresStore)(nil)
	_ Store = (*SQLiteStore)(nil)
)
