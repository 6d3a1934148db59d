package store

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/waterlab/boundary-cli/internal/db"
	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/resolve"
)

// PostgresStore implements Store using pgxpool. Bulk writes go through the
// COPY protocol; contributor tables are large enough that row-at-a-time
// inserts are not an option.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// PoolConfig holds optional connection pool tuning parameters.
type PoolConfig struct {
	MaxConns int32 `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns int32 `yaml:"min_conns" mapstructure:"min_conns"`
}

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string, poolCfg *PoolConfig) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	maxConns := int32(10)
	minConns := int32(2)
	if poolCfg != nil {
		if poolCfg.MaxConns > 0 {
			maxConns = poolCfg.MaxConns
		}
		if poolCfg.MinConns > 0 {
			minConns = poolCfg.MinConns
		}
	}
	pgxCfg.MaxConns = maxConns
	pgxCfg.MinConns = minConns
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, pgxCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: create pool")
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, eris.Wrap(err, "postgres: ping")
	}
	return &PostgresStore{pool: pool, closeFn: pool.Close}, nil
}

// NewPostgresFromPool wraps an existing pool, used by tests.
func NewPostgresFromPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

// Pool returns the underlying database pool for subsystems that need direct
// query access.
func (s *PostgresStore) Pool() db.Pool {
	return s.pool
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS pws_contributors (
	contributor_id         TEXT PRIMARY KEY,
	source_system          TEXT NOT NULL,
	source_system_id       TEXT NOT NULL,
	master_key             TEXT NOT NULL,
	pwsid                  TEXT NOT NULL DEFAULT '',
	name                   TEXT NOT NULL DEFAULT '',
	state                  TEXT NOT NULL DEFAULT '',
	county                 TEXT NOT NULL DEFAULT '',
	city                   TEXT NOT NULL DEFAULT '',
	zip                    TEXT NOT NULL DEFAULT '',
	address_line_1         TEXT NOT NULL DEFAULT '',
	address_line_2         TEXT NOT NULL DEFAULT '',
	city_served            TEXT NOT NULL DEFAULT '',
	address_quality        TEXT NOT NULL DEFAULT '',
	geometry               BYTEA,
	centroid_lat           DOUBLE PRECISION,
	centroid_lon           DOUBLE PRECISION,
	centroid_quality       TEXT NOT NULL DEFAULT '',
	population_served      BIGINT,
	service_connections    BIGINT,
	primacy_agency_code    TEXT NOT NULL DEFAULT '',
	primacy_type           TEXT NOT NULL DEFAULT '',
	owner_type_code        TEXT NOT NULL DEFAULT '',
	service_area_type_code TEXT NOT NULL DEFAULT '',
	is_wholesaler          TEXT NOT NULL DEFAULT '',
	primary_source_code    TEXT NOT NULL DEFAULT '',
	likely_mhp             BOOLEAN NOT NULL DEFAULT false,
	possible_mhp           BOOLEAN NOT NULL DEFAULT false
);

CREATE INDEX IF NOT EXISTS idx_contributors_source ON pws_contributors(source_system);
CREATE INDEX IF NOT EXISTS idx_contributors_master_key ON pws_contributors(master_key);

CREATE TABLE IF NOT EXISTS matches (
	master_key   TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	rules        TEXT NOT NULL,
	PRIMARY KEY (master_key, candidate_id)
);

CREATE TABLE IF NOT EXISTS match_rule_ranks (
	rule_key TEXT PRIMARY KEY,
	points   INTEGER NOT NULL,
	total    INTEGER NOT NULL,
	score    DOUBLE PRECISION NOT NULL,
	rank     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ranked_matches (
	master_key   TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	rule_key     TEXT NOT NULL,
	rule_rank    INTEGER NOT NULL,
	name_match   BOOLEAN NOT NULL,
	pop_diff     DOUBLE PRECISION NOT NULL,
	overall_rank INTEGER NOT NULL,
	best         BOOLEAN NOT NULL,
	PRIMARY KEY (master_key, candidate_id)
);

CREATE INDEX IF NOT EXISTS idx_ranked_matches_overall ON ranked_matches(overall_rank);

CREATE TABLE IF NOT EXISTS best_matches (
	master_key   TEXT PRIMARY KEY,
	candidate_id TEXT NOT NULL,
	rule_key     TEXT NOT NULL,
	rank         INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS stage_runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	row_count   INTEGER NOT NULL DEFAULT 0,
	error       TEXT NOT NULL DEFAULT '',
	started_at  TIMESTAMPTZ NOT NULL DEFAULT now(),
	finished_at TIMESTAMPTZ
);

CREATE INDEX IF NOT EXISTS idx_stage_runs_started ON stage_runs(started_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, "SELECT 1")
	return eris.Wrap(err, "postgres: ping")
}

func (s *PostgresStore) Migrate(ctx context.Context) error {
	_, err := s.pool.Exec(ctx, postgresMigration)
	return eris.Wrap(err, "postgres: migrate")
}

func (s *PostgresStore) Close() error {
	if s.closeFn != nil {
		s.closeFn()
	}
	return nil
}

func (s *PostgresStore) ReplaceContributors(ctx context.Context, source model.SourceSystem, contributors []model.Contributor) error {
	rows := make([][]any, 0, len(contributors))
	for i := range contributors {
		row, err := contributorRow(&contributors[i])
		if err != nil {
			return err
		}
		rows = append(rows, row)
	}

	_, err := s.pool.Exec(ctx,
		`DELETE FROM pws_contributors WHERE source_system = $1`,
		string(source),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: clear contributors %s", source)
	}
	if len(rows) == 0 {
		return nil
	}
	_, err = db.CopyFrom(ctx, s.pool, "pws_contributors", contributorColumns, rows)
	return err
}

const selectContributors = `SELECT contributor_id, source_system, source_system_id, master_key, pwsid,
	name, state, county, city, zip,
	address_line_1, address_line_2, city_served, address_quality,
	geometry, centroid_lat, centroid_lon, centroid_quality,
	population_served, service_connections,
	primacy_agency_code, primacy_type, owner_type_code,
	service_area_type_code, is_wholesaler, primary_source_code,
	likely_mhp, possible_mhp
FROM pws_contributors`

func (s *PostgresStore) Contributors(ctx context.Context, sources ...model.SourceSystem) ([]model.Contributor, error) {
	query := selectContributors
	var args []any
	if len(sources) > 0 {
		names := make([]string, len(sources))
		for i, src := range sources {
			names[i] = string(src)
		}
		query += ` WHERE source_system = ANY($1)`
		args = append(args, names)
	}
	query += ` ORDER BY contributor_id`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select contributors")
	}
	defer rows.Close()

	var out []model.Contributor
	for rows.Next() {
		var c model.Contributor
		var source string
		var geomBytes []byte
		if err := rows.Scan(
			&c.ContributorID, &source, &c.SourceSystemID, &c.MasterKey, &c.PWSID,
			&c.Name, &c.State, &c.County, &c.City, &c.Zip,
			&c.AddressLine1, &c.AddressLine2, &c.CityServed, &c.AddressQuality,
			&geomBytes, &c.CentroidLat, &c.CentroidLon, &c.CentroidQuality,
			&c.PopulationServed, &c.ServiceConnections,
			&c.PrimacyAgencyCode, &c.PrimacyType, &c.OwnerTypeCode,
			&c.ServiceAreaTypeCode, &c.IsWholesaler, &c.PrimarySourceCode,
			&c.LikelyMHP, &c.PossibleMHP,
		); err != nil {
			return nil, eris.Wrap(err, "postgres: scan contributor")
		}
		c.SourceSystem = model.SourceSystem(source)
		if c.Geometry, err = decodeGeometry(geomBytes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate contributors")
}

func (s *PostgresStore) ReplaceMatches(ctx context.Context, pairs []model.MatchPair) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM matches`); err != nil {
		return eris.Wrap(err, "postgres: clear matches")
	}
	if len(pairs) == 0 {
		return nil
	}
	rows := make([][]any, len(pairs))
	for i, p := range pairs {
		rows[i] = []any{p.MasterKey, p.CandidateID, encodeRules(p.Rules)}
	}
	_, err := db.CopyFrom(ctx, s.pool, "matches",
		[]string{"master_key", "candidate_id", "rules"}, rows)
	return err
}

func (s *PostgresStore) Matches(ctx context.Context) ([]model.MatchPair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT master_key, candidate_id, rules FROM matches ORDER BY master_key, candidate_id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select matches")
	}
	defer rows.Close()

	var out []model.MatchPair
	for rows.Next() {
		var p model.MatchPair
		var rules string
		if err := rows.Scan(&p.MasterKey, &p.CandidateID, &rules); err != nil {
			return nil, eris.Wrap(err, "postgres: scan match")
		}
		p.Rules = decodeRules(rules)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate matches")
}

func (s *PostgresStore) SaveRuleRanks(ctx context.Context, ranks []model.RuleRank) error {
	rows := make([][]any, len(ranks))
	for i, r := range ranks {
		rows[i] = []any{r.RuleKey, r.Points, r.Total, r.Score, r.Rank}
	}
	_, err := db.BulkUpsert(ctx, s.pool, db.UpsertConfig{
		Table:        "match_rule_ranks",
		Columns:      []string{"rule_key", "points", "total", "score", "rank"},
		ConflictKeys: []string{"rule_key"},
	}, rows)
	return err
}

func (s *PostgresStore) RuleRanks(ctx context.Context) ([]model.RuleRank, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT rule_key, points, total, score, rank FROM match_rule_ranks ORDER BY rank, rule_key`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select rule ranks")
	}
	defer rows.Close()

	var out []model.RuleRank
	for rows.Next() {
		var r model.RuleRank
		if err := rows.Scan(&r.RuleKey, &r.Points, &r.Total, &r.Score, &r.Rank); err != nil {
			return nil, eris.Wrap(err, "postgres: scan rule rank")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate rule ranks")
}

func (s *PostgresStore) ReplaceRankedMatches(ctx context.Context, pairs []resolve.RankedPair) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM ranked_matches`); err != nil {
		return eris.Wrap(err, "postgres: clear ranked matches")
	}
	if len(pairs) == 0 {
		return nil
	}
	rows := make([][]any, len(pairs))
	for i, p := range pairs {
		rows[i] = []any{p.MasterKey, p.CandidateID, p.RuleKey, p.RuleRank,
			p.NameMatch, p.PopDiff, p.OverallRank, p.Best}
	}
	_, err := db.CopyFrom(ctx, s.pool, "ranked_matches",
		[]string{"master_key", "candidate_id", "rule_key", "rule_rank",
			"name_match", "pop_diff", "overall_rank", "best"}, rows)
	return err
}

func (s *PostgresStore) RankedMatches(ctx context.Context) ([]resolve.RankedPair, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT master_key, candidate_id, rule_key, rule_rank, name_match, pop_diff, overall_rank, best
		 FROM ranked_matches ORDER BY overall_rank`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select ranked matches")
	}
	defer rows.Close()

	var out []resolve.RankedPair
	for rows.Next() {
		var p resolve.RankedPair
		if err := rows.Scan(&p.MasterKey, &p.CandidateID, &p.RuleKey, &p.RuleRank,
			&p.NameMatch, &p.PopDiff, &p.OverallRank, &p.Best); err != nil {
			return nil, eris.Wrap(err, "postgres: scan ranked match")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate ranked matches")
}

func (s *PostgresStore) ReplaceBestMatches(ctx context.Context, matches []model.BestMatch) error {
	if _, err := s.pool.Exec(ctx, `DELETE FROM best_matches`); err != nil {
		return eris.Wrap(err, "postgres: clear best matches")
	}
	if len(matches) == 0 {
		return nil
	}
	rows := make([][]any, len(matches))
	for i, m := range matches {
		rows[i] = []any{m.MasterKey, m.CandidateID, m.RuleKey, m.Rank}
	}
	_, err := db.CopyFrom(ctx, s.pool, "best_matches",
		[]string{"master_key", "candidate_id", "rule_key", "rank"}, rows)
	return err
}

func (s *PostgresStore) BestMatches(ctx context.Context) ([]model.BestMatch, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT master_key, candidate_id, rule_key, rank FROM best_matches ORDER BY master_key`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: select best matches")
	}
	defer rows.Close()

	var out []model.BestMatch
	for rows.Next() {
		var m model.BestMatch
		if err := rows.Scan(&m.MasterKey, &m.CandidateID, &m.RuleKey, &m.Rank); err != nil {
			return nil, eris.Wrap(err, "postgres: scan best match")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate best matches")
}

func (s *PostgresStore) StartStage(ctx context.Context, stage string) (*StageRun, error) {
	run := &StageRun{
		ID:        uuid.New().String(),
		Stage:     stage,
		Status:    StageRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO stage_runs (id, stage, status, started_at) VALUES ($1, $2, $3, $4)`,
		run.ID, run.Stage, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: start stage %s", stage)
	}
	return run, nil
}

func (s *PostgresStore) FinishStage(ctx context.Context, id string, status StageStatus, rowCount int, stageErr error) error {
	errText := ""
	if stageErr != nil {
		errText = stageErr.Error()
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE stage_runs SET status = $1, row_count = $2, error = $3, finished_at = $4 WHERE id = $5`,
		string(status), rowCount, errText, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: finish stage %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("stage run not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) ListStages(ctx context.Context, limit int) ([]StageRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, stage, status, row_count, error, started_at, finished_at
		 FROM stage_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list stages")
	}
	defer rows.Close()

	var out []StageRun
	for rows.Next() {
		var r StageRun
		var status string
		if err := rows.Scan(&r.ID, &r.Stage, &status, &r.Rows, &r.Error, &r.StartedAt, &r.FinishedAt); err != nil {
			return nil, eris.Wrap(err, "postgres: scan stage run")
		}
		r.Status = StageStatus(status)
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate stage runs")
}
