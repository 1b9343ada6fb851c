package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/sells-group/gmaps-contacts/internal/model"
)

// ErrRunNotFound is returned when a run id is unknown.
var ErrRunNotFound = eris.New("sqlite: run not found")

// SQLiteStore implements Store using modernc.org/sqlite.
type SQLiteStore struct {
	db  *sql.DB
	now func() time.Time
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
// The parent directory is created when missing.
func NewSQLite(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, eris.Wrapf(err, "sqlite: create dir %s", dir)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db, now: func() time.Time { return time.Now().UTC() }}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS places (
	place_id   TEXT PRIMARY KEY,
	row        TEXT NOT NULL,
	fetched_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS runs (
	id         TEXT PRIMARY KEY,
	kind       TEXT NOT NULL,
	region     TEXT NOT NULL,
	status     TEXT NOT NULL DEFAULT 'running',
	counts     TEXT,
	error      TEXT,
	created_at DATETIME NOT NULL,
	updated_at DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// GetPlace returns the cached details row for placeID, or nil when it is
// missing or older than maxAge. A non-positive maxAge never expires.
func (s *SQLiteStore) GetPlace(ctx context.Context, placeID string, maxAge time.Duration) (*model.Row, error) {
	var rowJSON string
	var fetchedAt int64
	err := s.db.QueryRowContext(ctx,
		`SELECT row, fetched_at FROM places WHERE place_id = ?`, placeID,
	).Scan(&rowJSON, &fetchedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get place %s", placeID)
	}
	if maxAge > 0 && s.now().Sub(time.Unix(fetchedAt, 0)) > maxAge {
		return nil, nil
	}

	var row model.Row
	if err := json.Unmarshal([]byte(rowJSON), &row); err != nil {
		return nil, eris.Wrap(err, "sqlite: unmarshal place")
	}
	return &row, nil
}

// PutPlace stores or replaces the details row for placeID.
func (s *SQLiteStore) PutPlace(ctx context.Context, placeID string, row model.Row) error {
	rowJSON, err := json.Marshal(row)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal place")
	}
	_, err = s.db.ExecContext(ctx,
		`INSERT INTO places (place_id, row, fetched_at) VALUES (?, ?, ?)
		 ON CONFLICT(place_id) DO UPDATE SET row = excluded.row, fetched_at = excluded.fetched_at`,
		placeID, string(rowJSON), s.now().Unix(),
	)
	return eris.Wrapf(err, "sqlite: put place %s", placeID)
}

func (s *SQLiteStore) CreateRun(ctx context.Context, kind model.RunKind, region string) (*model.Run, error) {
	id := uuid.New().String()
	now := s.now()

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, kind, region, status, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, string(kind), region, string(model.RunStatusRunning), now, now,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: insert run")
	}

	return &model.Run{
		ID:        id,
		Kind:      kind,
		Region:    region,
		Status:    model.RunStatusRunning,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, runID string, counts model.RunCounts) error {
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "sqlite: marshal counts")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, counts = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusComplete), string(countsJSON), s.now(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) FailRun(ctx context.Context, runID string, cause error) error {
	msg := ""
	if cause != nil {
		msg = cause.Error()
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, error = ?, updated_at = ? WHERE id = ?`,
		string(model.RunStatusFailed), msg, s.now(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: fail run %s", runID)
	}
	return checkRowsAffected(res, runID)
}

func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*model.Run, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, kind, region, status, counts, error, created_at, updated_at FROM runs WHERE id = ?`,
		runID,
	)
	return scanRun(row)
}

// ListRuns returns the most recent runs first. A non-positive limit means 100.
func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, kind, region, status, counts, error, created_at, updated_at FROM runs
		 ORDER BY created_at DESC, rowid DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var runs []model.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *r)
	}
	return runs, eris.Wrap(rows.Err(), "sqlite: list runs iterate")
}

// helpers

func checkRowsAffected(res sql.Result, runID string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return eris.Wrapf(ErrRunNotFound, "run %s", runID)
	}
	return nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanRun(row scannable) (*model.Run, error) {
	var r model.Run
	var countsJSON, errMsg sql.NullString

	err := row.Scan(&r.ID, &r.Kind, &r.Region, &r.Status, &countsJSON, &errMsg, &r.CreatedAt, &r.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRunNotFound
	}
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: scan run")
	}

	if countsJSON.Valid {
		if err := json.Unmarshal([]byte(countsJSON.String), &r.Counts); err != nil {
			return nil, eris.Wrap(err, "sqlite: unmarshal counts")
		}
	}
	r.Error = errMsg.String
	return &r, nil
}
