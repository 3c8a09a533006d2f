package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/ntoujavaproject/store-strategist/internal/model"
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
	// Pragmas are per connection; one connection also serializes writers.
	db.SetMaxOpenConns(1)
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
CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	center     BLOB,
	radius_m   REAL NOT NULL DEFAULT 0,
	params     TEXT,
	stats      TEXT,
	error      TEXT NOT NULL DEFAULT '',
	created_at DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE TABLE IF NOT EXISTS restaurants (
	id              TEXT PRIMARY KEY,
	name            TEXT NOT NULL,
	address         TEXT NOT NULL,
	reviews         TEXT NOT NULL DEFAULT '[]',
	review_count    INTEGER NOT NULL DEFAULT 0,
	is_upload       INTEGER NOT NULL DEFAULT 0,
	upload_attempts INTEGER NOT NULL DEFAULT 0,
	upload_error    TEXT NOT NULL DEFAULT '',
	created_at      DATETIME NOT NULL DEFAULT (datetime('now')),
	updated_at      DATETIME NOT NULL DEFAULT (datetime('now'))
);

CREATE INDEX IF NOT EXISTS idx_runs_status ON runs(status);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
CREATE INDEX IF NOT EXISTS idx_restaurants_is_upload ON restaurants(is_upload);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) CreateRun(ctx context.Context, p RunParams) (*Run, error) {
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

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, status, center, radius_m, params, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, string(p.Kind), string(RunStatusRunning), center, p.RadiusM, nullString(params), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
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

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, stats any) error {
	statsJSON, err := marshalOptional(stats)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, stats = ?, updated_at = ? WHERE id = ?`,
		string(RunStatusComplete), nullString(statsJSON), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, runErr error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(RunStatusFailed), errString(runErr), time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, "run", runID)
}

const sqliteRunColumns = `id, kind, status, center, radius_m, params, stats, error, created_at, updated_at`

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+sqliteRunColumns+` FROM runs ORDER BY created_at DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

func (s *SQLiteStore) UpsertRestaurants(ctx context.Context, restaurants []model.Restaurant) error {
	if len(restaurants) == 0 {
		return nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return eris.Wrap(err, "sqlite: begin upsert")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO restaurants (id, name, address, reviews, review_count, is_upload, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			address = excluded.address,
			reviews = excluded.reviews,
			review_count = excluded.review_count,
			is_upload = excluded.is_upload,
			updated_at = excluded.updated_at`)
	if err != nil {
		return eris.Wrap(err, "sqlite: prepare upsert")
	}
	defer stmt.Close()

	now := time.Now().UTC()
	for i := range restaurants {
		r := &restaurants[i]
		reviews, err := json.Marshal(reviewsOrEmpty(r.Reviews))
		if err != nil {
			return eris.Wrapf(err, "sqlite: marshal reviews %s", r.ID)
		}
		if _, err := stmt.ExecContext(ctx, r.ID, r.Name, r.Address, string(reviews), len(r.Reviews), r.IsUpload, now, now); err != nil {
			return eris.Wrapf(err, "sqlite: upsert restaurant %s", r.ID)
		}
	}
	return eris.Wrap(tx.Commit(), "sqlite: commit upsert")
}

func (s *SQLiteStore) MarkUploaded(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE restaurants SET is_upload = 1, upload_error = '', updated_at = ? WHERE id = ?`,
		time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: mark uploaded %s", id)
	}
	return checkRowsAffected(res, "restaurant", id)
}

func (s *SQLiteStore) RecordUploadFailure(ctx context.Context, id string, uploadErr error) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE restaurants SET is_upload = 0, upload_attempts = upload_attempts + 1, upload_error = ?, updated_at = ? WHERE id = ?`,
		errString(uploadErr), time.Now().UTC(), id,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: record upload failure %s", id)
	}
	return checkRowsAffected(res, "restaurant", id)
}

func (s *SQLiteStore) KnownIDs(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM restaurants ORDER BY id`)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: known ids")
	}
	defer rows.Close()

	var ids []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan id")
		}
		ids = append(ids, id)
	}
	return ids, eris.Wrap(rows.Err(), "sqlite: known ids iterate")
}

func (s *SQLiteStore) PendingUploads(ctx context.Context, limit int) ([]model.Restaurant, error) {
	if limit <= 0 {
		limit = 1000
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, address, reviews, is_upload FROM restaurants WHERE is_upload = 0 ORDER BY updated_at, id LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: pending uploads")
	}
	defer rows.Close()

	var out []model.Restaurant
	for rows.Next() {
		var r model.Restaurant
		var reviews string
		if err := rows.Scan(&r.ID, &r.Name, &r.Address, &reviews, &r.IsUpload); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan restaurant")
		}
		if err := json.Unmarshal([]byte(reviews), &r.Reviews); err != nil {
			return nil, eris.Wrapf(err, "sqlite: unmarshal reviews %s", r.ID)
		}
		out = append(out, r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: pending uploads iterate")
}

// helpers

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

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*Run, error) {
	var r Run
	var center []byte
	var params, stats sql.NullString

	err := row.Scan(&r.ID, &r.Kind, &r.Status, &center, &r.RadiusM, &params, &stats, &r.Error, &r.CreatedAt, &r.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, eris.New("run not found")
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if r.Lat, r.Lon, err = decodeCenter(center); err != nil {
		return nil, err
	}
	if params.Valid {
		r.Params = json.RawMessage(params.String)
	}
	if stats.Valid {
		r.Stats = json.RawMessage(stats.String)
	}
	return &r, nil
}

func nullString(b []byte) sql.NullString {
	if b == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}

func reviewsOrEmpty(r []model.Review) []model.Review {
	if r == nil {
		return []model.Review{}
	}
	return r
}
