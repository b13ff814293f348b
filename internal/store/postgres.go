package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/scholarscout/discovery-cli/internal/db"
	"github.com/scholarscout/discovery-cli/internal/model"
)

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    db.Pool
	closeFn func()
}

// preparedStatements lists queries to prepare on each new connection for
// faster execution of the hot store operations.
var preparedStatements = map[string]string{
	"upsert_opportunity": upsertOpportunitySQL,
	"get_opportunity":    getOpportunitySQL,
}

const upsertOpportunitySQL = `
INSERT INTO opportunities (id, title, organization, type, location, description, source_url, deadline, grade_levels, cost, is_expired, timing_type, recheck_days, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)
ON CONFLICT (source_url) DO UPDATE SET
	title = EXCLUDED.title,
	organization = EXCLUDED.organization,
	type = EXCLUDED.type,
	location = EXCLUDED.location,
	description = EXCLUDED.description,
	deadline = EXCLUDED.deadline,
	grade_levels = EXCLUDED.grade_levels,
	cost = EXCLUDED.cost,
	is_expired = EXCLUDED.is_expired,
	timing_type = EXCLUDED.timing_type,
	recheck_days = EXCLUDED.recheck_days,
	updated_at = EXCLUDED.updated_at`

const getOpportunitySQL = `
SELECT id, title, organization, type, location, description, source_url, deadline, grade_levels, cost, is_expired, timing_type, recheck_days, created_at, updated_at
FROM opportunities WHERE source_url = $1`

const listOpportunitiesSQL = `
SELECT id, title, organization, type, location, description, source_url, deadline, grade_levels, cost, is_expired, timing_type, recheck_days, created_at, updated_at
FROM opportunities ORDER BY updated_at DESC LIMIT $1`

// NewPostgres creates a PostgresStore with a connection pool.
func NewPostgres(ctx context.Context, connString string) (*PostgresStore, error) {
	pgxCfg, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: parse config")
	}

	pgxCfg.MaxConns = 10
	pgxCfg.MinConns = 2
	pgxCfg.MaxConnLifetime = 30 * time.Minute
	pgxCfg.MaxConnIdleTime = 5 * time.Minute

	// Prepare frequently-used statements on each new connection.
	pgxCfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		for name, sql := range preparedStatements {
			if _, err := conn.Prepare(ctx, name, sql); err != nil {
				return eris.Wrapf(err, "postgres: prepare %s", name)
			}
		}
		return nil
	}

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

// NewPostgresWithPool wraps an existing pool. Used by tests.
func NewPostgresWithPool(pool db.Pool) *PostgresStore {
	return &PostgresStore{pool: pool}
}

const postgresMigration = `
CREATE TABLE IF NOT EXISTS opportunities (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	organization TEXT NOT NULL,
	type         TEXT NOT NULL DEFAULT 'other',
	location     TEXT NOT NULL DEFAULT '',
	description  TEXT NOT NULL DEFAULT '',
	source_url   TEXT NOT NULL UNIQUE,
	deadline     TEXT NOT NULL DEFAULT '',
	grade_levels JSONB,
	cost         TEXT NOT NULL DEFAULT '',
	is_expired   BOOLEAN NOT NULL DEFAULT false,
	timing_type  TEXT NOT NULL DEFAULT 'one_time',
	recheck_days INTEGER NOT NULL DEFAULT 0,
	created_at   TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at   TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_opportunities_type ON opportunities(type);
CREATE INDEX IF NOT EXISTS idx_opportunities_org_title ON opportunities(organization, title);
CREATE INDEX IF NOT EXISTS idx_opportunities_updated_at ON opportunities(updated_at DESC);
`

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
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

func (s *PostgresStore) UpsertOpportunity(ctx context.Context, rec *model.OpportunityRecord) error {
	id := rec.ID
	if id == "" {
		id = uuid.New().String()
	}
	now := time.Now().UTC()

	gradesJSON, err := json.Marshal(rec.GradeLevels)
	if err != nil {
		return eris.Wrap(err, "postgres: marshal grade levels")
	}

	_, err = s.pool.Exec(ctx, upsertOpportunitySQL,
		id, rec.Title, rec.Organization, string(rec.Type), rec.Location, rec.Description,
		rec.SourceURL, rec.Deadline, gradesJSON, rec.Cost, rec.IsExpired,
		string(rec.TimingType), rec.RecheckDays, now,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: upsert opportunity %s", rec.SourceURL)
	}
	return nil
}

func (s *PostgresStore) GetOpportunity(ctx context.Context, sourceURL string) (*model.OpportunityRecord, error) {
	rec, err := scanOpportunity(s.pool.QueryRow(ctx, getOpportunitySQL, sourceURL))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get opportunity %s", sourceURL)
	}
	return rec, nil
}

func (s *PostgresStore) ListOpportunities(ctx context.Context, limit int) ([]model.OpportunityRecord, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.pool.Query(ctx, listOpportunitiesSQL, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list opportunities")
	}
	defer rows.Close()

	var out []model.OpportunityRecord
	for rows.Next() {
		rec, err := scanOpportunity(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan opportunity")
		}
		out = append(out, *rec)
	}
	return out, eris.Wrap(rows.Err(), "postgres: list opportunities")
}

// scanOpportunity reads one opportunity row. Works for both QueryRow and
// rows iteration since pgx.Rows satisfies pgx.Row.
func scanOpportunity(row pgx.Row) (*model.OpportunityRecord, error) {
	var rec model.OpportunityRecord
	var typ, timing string
	var gradesJSON []byte

	err := row.Scan(&rec.ID, &rec.Title, &rec.Organization, &typ, &rec.Location,
		&rec.Description, &rec.SourceURL, &rec.Deadline, &gradesJSON, &rec.Cost,
		&rec.IsExpired, &timing, &rec.RecheckDays, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, err
	}

	rec.Type = model.OpportunityType(typ)
	rec.TimingType = model.TimingType(timing)
	if len(gradesJSON) > 0 {
		if err := json.Unmarshal(gradesJSON, &rec.GradeLevels); err != nil {
			return nil, eris.Wrap(err, "unmarshal grade levels")
		}
	}
	return &rec, nil
}
