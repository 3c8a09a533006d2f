package store

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rotisserie/eris"

	"github.com/ntoujavaproject/store-strategist/internal/db"
	"github.com/ntoujavaproject/store-strategist/internal/model"
)

// Pool is the subset of pgxpool.Pool the store uses.
type Pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresStore implements Store using pgxpool.
type PostgresStore struct {
	pool    Pool
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

const postgresMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY DEFAULT gen_random_uuid()::text,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	center     BYTEA,
	radius_m   DOUBLE PRECISION NOT NULL DEFAULT 0,
	params     JSONB,
	stats      JSONB,
	error      TEXT NOT NULL DEFAULT '',
	created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS restaurants (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	address         TEXT NOT NULL,
	reviews         JSONB NOT NULL DEFAULT '[]',
	review_count    INTEGER NOT NULL DEFAULT 0,
	is_upload       BOOLEAN NOT NULL DEFAULT false,
	upload_attempts INTEGER NOT NULL DEFAULT 0,
	upload_error    TEXT NOT NULL DEFAULT '',
	created_at      TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at      TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at DESC);
CREATE INDEX IF NOT EXISTS idx_restaurants_pending ON restaurants(updated_at) WHERE NOT is_upload;
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

func (s *PostgresStore) CreateRun(ctx context.Context, p RunParams) (*Run, error) {
	id := uuid.New().String()
	now := time.Now().UTC()

	center, err := encodeCenter(p.Lat, p.Lon)
	if err != nil {
		return nil, err
	}
	params, err := marshalOptional(p.Params)
	if err != nil {
		return nil, err
	}

	_, err = s.pool.Exec(ctx,
		`INSERT INTO runs (id, kind, status, center, radius_m, params, created_at, updated_at) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(p.Kind), string(RunStatusRunning), center, p.RadiusM, params, now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: insert run")
	}

	return &Run{
		ID:        id,
		Kind:      p.Kind,
		Status:    RunStatusRunning,
		Lat:       p.Lat,
		Lon:       p.Lon,
		RadiusM:   p.RadiusM,
		Params:    params,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, runID string, stats any) error {
	statsJSON, err := marshalOptional(stats)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, stats = $2, updated_at = $3 WHERE id = $4`,
		string(RunStatusComplete), statsJSON, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

func (s *PostgresStore) FailRun(ctx context.Context, runID string, runErr error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE runs SET status = $1, error = $2, updated_at = $3 WHERE id = $4`,
		string(RunStatusFailed), errString(runErr), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: fail run %s", runID)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("run not found: %s", runID)
	}
	return nil
}

const postgresRunColumns = `id, kind, status, center, radius_m, params, stats, error, created_at, updated_at`

func (s *PostgresStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT `+postgresRunColumns+` FROM runs WHERE id = $1`,
		runID,
	)
	r, err := scanPostgresRun(row)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, eris.Errorf("postgres: get run: run not found: %s", runID)
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get run %s", runID)
	}
	return r, nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.pool.Query(ctx,
		`SELECT `+postgresRunColumns+` FROM runs ORDER BY created_at DESC LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanPostgresRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "postgres: list runs iterate")
}

func scanPostgresRun(row pgx.Row) (*Run, error) {
	var r Run
	var kind, status string
	var center, params, stats []byte
	if err := row.Scan(&r.ID, &kind, &status, &center, &r.RadiusM, &params, &stats, &r.Error, &r.CreatedAt, &r.UpdatedAt); err != nil {
		return nil, err
	}
	r.Kind, r.Status = RunKind(kind), RunStatus(status)
	var err error
	if r.Lat, r.Lon, err = decodeCenter(center); err != nil {
		return nil, err
	}
	if len(params) > 0 {
		r.Params = params
	}
	if len(stats) > 0 {
		r.Stats = stats
	}
	return &r, nil
}

var restaurantUpsert = db.UpsertConfig{
	Table:        "restaurants",
	Columns:      []string{"id", "name", "address", "reviews", "review_count", "is_upload", "updated_at"},
	ConflictKeys: []string{"id"},
}

func (s *PostgresStore) UpsertRestaurants(ctx context.Context, restaurants []model.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}

	now := time.Now().UTC()
	rows := make([][]any, 0, len(restaurants))
	for i := range restaurants {
		r := &restaurants[i]
		reviews, err := json.Marshal(reviewsOrEmpty(r.Reviews))
		if err != nil {
			return eris.Wrapf(err, "postgres: marshal reviews %s", r.ID)
		}
		rows = append(rows, []any{r.ID, r.Name, r.Address, reviews, len(r.Reviews), r.IsUpload, now})
	}

	_, err := db.BulkUpsert(ctx, s.pool, restaurantUpsert, rows)
	return eris.Wrapf(err, "postgres: upsert %d restaurants", len(rows))
}

func (s *PostgresStore) MarkUploaded(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE restaurants SET is_upload = true, upload_error = '', updated_at = $1 WHERE id = $2`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: mark uploaded %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("restaurant not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) RecordUploadFailure(ctx context.Context, id string, uploadErr error) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE restaurants SET is_upload = false, upload_attempts = upload_attempts + 1, upload_error = $1, updated_at = $2 WHERE id = $3`,
		errString(uploadErr), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: record upload failure %s", id)
	}
	if tag.RowsAffected() == 0 {
		return eris.Errorf("restaurant not found: %s", id)
	}
	return nil
}

func (s *PostgresStore) KnownIDs(ctx context.Context) ([]string, error) {
	rows, err := s.pool.Query(ctx, `SELECT id FROM restaurants ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: known ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "postgres: scan id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "postgres: known ids iterate")
}

func (s *PostgresStore) PendingUploads(ctx context.Context, limit int) ([]model.Restaurant, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.pool.Query(ctx,
		`SELECT id, name, address, reviews, is_upload FROM restaurants WHERE NOT is_upload ORDER BY updated_at, id LIMIT $1`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: pending uploads")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var r model.Restaurant
		var reviews []byte
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &reviews, &r.IsUpload); err != nil {
			return nil, eris.Wrap(err, "postgres: scan restaurant")
		}
		if err := json.Unmarshal(reviews, &r.Reviews); err != nil {
			return nil, eris.Wrapf(err, "postgres: unmarshal reviews %s", r.ID)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: pending uploads iterate")
}
