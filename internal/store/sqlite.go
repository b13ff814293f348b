package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/scholarscout/discovery-cli/internal/model"
)

// SQLiteStore implements Store using modernc.org/sqlite. Intended for local
// single-user runs where standing up Postgres is overkill.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	sdb, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := sdb.Exec(pragma); err != nil {
			sdb.Close()
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: sdb}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	organization TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT 'other',
	location     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL UNIQUE,
	deadline     TEXT NOT NULL DEFAULT '',
	grade_levels TEXT,
	cost         TEXT NOT NULL DEFAULT '',
	is_expired   INTEGER NOT NULL DEFAULT 0,
	timing_type  TEXT NOT NULL DEFAULT 'one_time',
	recheck_days INTEGER NOT NULL DEFAULT 0,
	created_at   DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at   DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_opportunities_type ON opportunities(type);
CREATE INDEX IF NOT EXISTS idx_opportunities_org_title ON opportunities(organization, title);
CREATE INDEX IF NOT EXISTS idx_opportunities_updated_at ON opportunities(updated_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) UpsertOpportunity(ctx context.Context, rec *model.OpportunityRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	gradesJSON, err := json.Marshal(rec.GradeLevels)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal grade levels")
	}

	_, err = s.db.ExecContext(ctx, `
INSERT INTO opportunities (id, title, organization, type, location, description, source_url, deadline, grade_levels, cost, is_expired, timing_type, recheck_days, created_at, updated_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT (source_url) DO UPDATE SET
	title = excluded.title,
	organization = excluded.organization,
	type = excluded.type,
	location = excluded.location,
	description = excluded.description,
	deadline = excluded.deadline,
	grade_levels = excluded.grade_levels,
	cost = excluded.cost,
	is_expired = excluded.is_expired,
	timing_type = excluded.timing_type,
	recheck_days = excluded.recheck_days,
	updated_at = excluded.updated_at`,
		id, rec.Title, rec.Organization, string(rec.Type), rec.Location, rec.Description,
		rec.SourceURL, rec.Deadline, string(gradesJSON), rec.Cost, rec.IsExpired,
		string(rec.TimingType), rec.RecheckDays, now, now,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: upsert opportunity %s", rec.SourceURL)
	}
	return nil
}

func (s *SQLiteStore) GetOpportunity(ctx context.Context, sourceURL string) (*model.OpportunityRecord, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, organization, type, location, description, source_url, deadline, grade_levels, cost, is_expired, timing_type, recheck_days, created_at, updated_at
FROM opportunities WHERE source_url = ?`, sourceURL)

	rec, err := scanSQLiteOpportunity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get opportunity %s", sourceURL)
	}
	return rec, nil
}

func (s *SQLiteStore) ListOpportunities(ctx context.Context, limit int) ([]model.OpportunityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, organization, type, location, description, source_url, deadline, grade_levels, cost, is_expired, timing_type, recheck_days, created_at, updated_at
FROM opportunities ORDER BY updated_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list opportunities")
	}
	defer rows.Close()

	var out []model.OpportunityRecord
	for rows.Next() {
		rec, err := scanSQLiteOpportunity(rows.Scan)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan opportunity")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: list opportunities")
}

func scanSQLiteOpportunity(scan func(dest ...any) error) (*model.OpportunityRecord, error) {
	var rec model.OpportunityRecord
	var typ, timing, gradesJSON string

	err := scan(&rec.ID, &rec.Title, &rec.Organization, &typ, &rec.Location,
		&rec.Description, &rec.SourceURL, &rec.Deadline, &gradesJSON, &rec.Cost,
		&rec.IsExpired, &timing, &rec.RecheckDays, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Type = model.OpportunityType(typ)
	rec.TimingType = model.TimingType(timing)
	if gradesJSON != "" && gradesJSON != "null" {
		if err := json.Unmarshal([]byte(gradesJSON), &rec.GradeLevels); err != nil {
			return nil, eris.Wrap(err, "unmarshal grade levels")
		}
	}
	return &rec, nil
}
