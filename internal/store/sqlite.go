package store

import (
	"context"
	"database/sql"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/waterlab/boundary-cli/internal/model"
	"github.com/waterlab/boundary-cli/internal/resolve"
)

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
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
	geometry               BLOB,
	centroid_lat           REAL,
	centroid_lon           REAL,
	centroid_quality       TEXT NOT NULL DEFAULT '',
	population_served      INTEGER,
	service_connections    INTEGER,
	primacy_agency_code    TEXT NOT NULL DEFAULT '',
	primacy_type           TEXT NOT NULL DEFAULT '',
	owner_type_code        TEXT NOT NULL DEFAULT '',
	service_area_type_code TEXT NOT NULL DEFAULT '',
	is_wholesaler          TEXT NOT NULL DEFAULT '',
	primary_source_code    TEXT NOT NULL DEFAULT '',
	likely_mhp             INTEGER NOT NULL DEFAULT 0,
	possible_mhp           INTEGER NOT NULL DEFAULT 0
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
	score    REAL NOT NULL,
	rank     INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS ranked_matches (
	master_key   TEXT NOT NULL,
	candidate_id TEXT NOT NULL,
	rule_key     TEXT NOT NULL,
	rule_rank    INTEGER NOT NULL,
	name_match   INTEGER NOT NULL,
	pop_diff     REAL NOT NULL,
	overall_rank INTEGER NOT NULL,
	best         INTEGER NOT NULL,
	PRIMARY KEY (master_key, candidate_id)
);

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
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) ReplaceContributors(ctx context.Context, source model.SourceSystem, contributors []model.Contributor) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM pws_contributors WHERE source_system = ?`, string(source),
	); err != nil {
		return eris.Wrapf(err, "sqlite: clear contributors %s", source)
	}

	insert := `INSERT INTO pws_contributors (` + strings.Join(contributorColumns, ", ") + `)
		VALUES (` + placeholders(len(contributorColumns)) + `)`
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare contributor insert")
	}
	defer stmt.Close()

	for i := range contributors {
		row, err := contributorRow(&contributors[i])
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, row...); err != nil {
			return eris.Wrapf(err, "sqlite: insert contributor %s", contributors[i].ContributorID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit contributors")
}

func (s *SQLiteStore) Contributors(ctx context.Context, sources ...model.SourceSystem) ([]model.Contributor, error) {
	query := selectContributors
	var args []any
	if len(sources) > 0 {
		marks := make([]string, len(sources))
		for i, src := range sources {
			marks[i] = "?"
			args = append(args, string(src))
		}
		query += ` WHERE source_system IN (` + strings.Join(marks, ", ") + `)`
	}
	query += ` ORDER BY contributor_id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select contributors")
	}
	defer rows.Close()

	var out []model.Contributor
	for rows.Next() {
		var c model.Contributor
		var source string
		var geomBytes []byte
		var lat, lon sql.NullFloat64
		var pop, conns sql.NullInt64
		if err := rows.Scan(
			&c.ContributorID, &source, &c.SourceSystemID, &c.MasterKey, &c.PWSID,
			&c.Name, &c.State, &c.County, &c.City, &c.Zip,
			&c.AddressLine1, &c.AddressLine2, &c.CityServed, &c.AddressQuality,
			&geomBytes, &lat, &lon, &c.CentroidQuality,
			&pop, &conns,
			&c.PrimacyAgencyCode, &c.PrimacyType, &c.OwnerTypeCode,
			&c.ServiceAreaTypeCode, &c.IsWholesaler, &c.PrimarySourceCode,
			&c.LikelyMHP, &c.PossibleMHP,
		); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan contributor")
		}
		c.SourceSystem = model.SourceSystem(source)
		if lat.Valid {
			c.CentroidLat = &lat.Float64
		}
		if lon.Valid {
			c.CentroidLon = &lon.Float64
		}
		if pop.Valid {
			c.PopulationServed = &pop.Int64
		}
		if conns.Valid {
			c.ServiceConnections = &conns.Int64
		}
		if c.Geometry, err = decodeGeometry(geomBytes); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate contributors")
}

func (s *SQLiteStore) ReplaceMatches(ctx context.Context, pairs []model.MatchPair) error {
	return s.replaceAll(ctx, "matches",
		`INSERT INTO matches (master_key, candidate_id, rules) VALUES (?, ?, ?)`,
		len(pairs), func(i int) []any {
			return []any{pairs[i].MasterKey, pairs[i].CandidateID, encodeRules(pairs[i].Rules)}
		})
}

func (s *SQLiteStore) Matches(ctx context.Context) ([]model.MatchPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT master_key, candidate_id, rules FROM matches ORDER BY master_key, candidate_id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select matches")
	}
	defer rows.Close()

	var out []model.MatchPair
	for rows.Next() {
		var p model.MatchPair
		var rules string
		if err := rows.Scan(&p.MasterKey, &p.CandidateID, &rules); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan match")
		}
		p.Rules = decodeRules(rules)
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate matches")
}

func (s *SQLiteStore) SaveRuleRanks(ctx context.Context, ranks []model.RuleRank) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	for _, r := range ranks {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO match_rule_ranks (rule_key, points, total, score, rank)
			 VALUES (?, ?, ?, ?, ?)
			 ON CONFLICT (rule_key) DO UPDATE SET
			   points = excluded.points, total = excluded.total,
			   score = excluded.score, rank = excluded.rank`,
			r.RuleKey, r.Points, r.Total, r.Score, r.Rank,
		); err != nil {
			return eris.Wrapf(err, "sqlite: upsert rule rank %s", r.RuleKey)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit rule ranks")
}

func (s *SQLiteStore) RuleRanks(ctx context.Context) ([]model.RuleRank, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT rule_key, points, total, score, rank FROM match_rule_ranks ORDER BY rank, rule_key`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select rule ranks")
	}
	defer rows.Close()

	var out []model.RuleRank
	for rows.Next() {
		var r model.RuleRank
		if err := rows.Scan(&r.RuleKey, &r.Points, &r.Total, &r.Score, &r.Rank); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan rule rank")
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate rule ranks")
}

func (s *SQLiteStore) ReplaceRankedMatches(ctx context.Context, pairs []resolve.RankedPair) error {
	return s.replaceAll(ctx, "ranked_matches",
		`INSERT INTO ranked_matches
		 (master_key, candidate_id, rule_key, rule_rank, name_match, pop_diff, overall_rank, best)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		len(pairs), func(i int) []any {
			p := pairs[i]
			return []any{p.MasterKey, p.CandidateID, p.RuleKey, p.RuleRank,
				p.NameMatch, p.PopDiff, p.OverallRank, p.Best}
		})
}

func (s *SQLiteStore) RankedMatches(ctx context.Context) ([]resolve.RankedPair, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT master_key, candidate_id, rule_key, rule_rank, name_match, pop_diff, overall_rank, best
		 FROM ranked_matches ORDER BY overall_rank`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select ranked matches")
	}
	defer rows.Close()

	var out []resolve.RankedPair
	for rows.Next() {
		var p resolve.RankedPair
		if err := rows.Scan(&p.MasterKey, &p.CandidateID, &p.RuleKey, &p.RuleRank,
			&p.NameMatch, &p.PopDiff, &p.OverallRank, &p.Best); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan ranked match")
		}
		out = append(out, p)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate ranked matches")
}

func (s *SQLiteStore) ReplaceBestMatches(ctx context.Context, matches []model.BestMatch) error {
	return s.replaceAll(ctx, "best_matches",
		`INSERT INTO best_matches (master_key, candidate_id, rule_key, rank) VALUES (?, ?, ?, ?)`,
		len(matches), func(i int) []any {
			m := matches[i]
			return []any{m.MasterKey, m.CandidateID, m.RuleKey, m.Rank}
		})
}

func (s *SQLiteStore) BestMatches(ctx context.Context) ([]model.BestMatch, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT master_key, candidate_id, rule_key, rank FROM best_matches ORDER BY master_key`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: select best matches")
	}
	defer rows.Close()

	var out []model.BestMatch
	for rows.Next() {
		var m model.BestMatch
		if err := rows.Scan(&m.MasterKey, &m.CandidateID, &m.RuleKey, &m.Rank); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan best match")
		}
		out = append(out, m)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate best matches")
}

func (s *SQLiteStore) StartStage(ctx context.Context, stage string) (*StageRun, error) {
	run := &StageRun{
		ID:        uuid.New().String(),
		Stage:     stage,
		Status:    StageRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO stage_runs (id, stage, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Stage, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: start stage %s", stage)
	}
	return run, nil
}

func (s *SQLiteStore) FinishStage(ctx context.Context, id string, status StageStatus, rowCount int, stageErr error) error {
	errText := ""
	if stageErr != nil {
		errText = stageErr.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE stage_runs SET status = ?, row_count = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), rowCount, errText, time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: finish stage %s", id)
	}
	return checkRowsAffected(res, "stage run", id)
}

func (s *SQLiteStore) ListStages(ctx context.Context, limit int) ([]StageRun, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, status, row_count, error, started_at, finished_at
		 FROM stage_runs ORDER BY started_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list stages")
	}
	defer rows.Close()

	var out []StageRun
	for rows.Next() {
		var r StageRun
		var status string
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Stage, &status, &r.Rows, &r.Error, &r.StartedAt, &finished); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan stage run")
		}
		r.Status = StageStatus(status)
		if finished.Valid {
			r.FinishedAt = &finished.Time
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate stage runs")
}

// replaceAll clears a table and refills it inside one transaction.
func (s *SQLiteStore) replaceAll(ctx context.Context, table, insert string, n int, row func(i int) []any) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin")
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM `+table); err != nil {
		return eris.Wrapf(err, "sqlite: clear %s", table)
	}
	stmt, err := tx.PrepareContext(ctx, insert)
	if err != nil {
		return eris.Wrapf(err, "sqlite: prepare %s insert", table)
	}
	defer stmt.Close()

	for i := 0; i < n; i++ {
		if _, err := stmt.ExecContext(ctx, row(i)...); err != nil {
			return eris.Wrapf(err, "sqlite: insert into %s", table)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit "+table)
}

func placeholders(n int) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	return strings.Join(marks, ", ")
}

func checkRowsAffected(res sql.Result, entity, id string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "rows affected")
	}
	if n == 0 {
		return eris.Errorf("%s not found: %s", entity, id)
	}
	return nil
}
