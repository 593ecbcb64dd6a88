// Package store keeps finished arcade sessions in SQLite.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/teslashibe/go-arcade/pkg/game"
	_ "modernc.org/sqlite"
)

// ErrNotFound is returned when a session id is unknown.
var ErrNotFound = errors.New("store: session not found")

// DefaultLimit is used when a listing asks for no particular size.
const DefaultLimit = 50

// SQLiteDB records sessions in a SQLite database.
type SQLiteDB struct {
	db *sql.DB
}

var _ game.SessionRecorder = (*SQLiteDB)(nil)

// Open opens (or creates) the database at path and runs migrations.
// ":memory:" gives a private in-memory database.
func Open(path string) (*SQLiteDB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One writer; also keeps ":memory:" on a single connection
	db.SetMaxOpenConns(1)

	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	s := &SQLiteDB{db: db}
	if err := s.Migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteDB) Close() error {
	return s.db.Close()
}

// Migrate creates tables and indexes
func (s *SQLiteDB) Migrate() error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS sessions (
			id TEXT PRIMARY KEY,
			variant TEXT NOT NULL,
			started_at INTEGER NOT NULL,
			ended_at INTEGER NOT NULL,
			score INTEGER NOT NULL,
			level INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			spawned INTEGER NOT NULL DEFAULT 0,
			popped INTEGER NOT NULL DEFAULT 0,
			missed INTEGER NOT NULL DEFAULT 0,
			passed INTEGER NOT NULL DEFAULT 0,
			failed INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_ended ON sessions(ended_at DESC)`,
		`CREATE INDEX IF NOT EXISTS idx_sessions_variant_score ON sessions(variant, score DESC)`,
	}

	for _, migration := range migrations {
		if _, err := s.db.Exec(migration); err != nil {
			return fmt.Errorf("migration failed: %w", err)
		}
	}
	return nil
}

// RecordSession stores a finished session. Sessions without an id get one.
func (s *SQLiteDB) RecordSession(ctx context.Context, sum game.Summary) error {
	if sum.SessionID == "" {
		sum.SessionID = uuid.NewString()
	}

	query := `INSERT OR REPLACE INTO sessions (
		id, variant, started_at, ended_at, score, level, outcome,
		spawned, popped, missed, passed, failed
	) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		sum.SessionID, sum.Variant, sum.StartedAt.UnixMilli(), sum.EndedAt.UnixMilli(),
		sum.Score, sum.Level, string(sum.Outcome),
		sum.Stats.Spawned, sum.Stats.Popped, sum.Stats.Missed, sum.Stats.Passed, sum.Stats.Failed,
	)
	if err != nil {
		return fmt.Errorf("record session %s: %w", sum.SessionID, err)
	}
	return nil
}

const selectColumns = `SELECT id, variant, started_at, ended_at, score, level, outcome,
	spawned, popped, missed, passed, failed FROM sessions`

type scanner interface {
	Scan(dest ...any) error
}

func scanSummary(row scanner) (game.Summary, error) {
	var (
		sum            game.Summary
		started, ended int64
		outcome        string
	)
	err := row.Scan(&sum.SessionID, &sum.Variant, &started, &ended, &sum.Score, &sum.Level, &outcome,
		&sum.Stats.Spawned, &sum.Stats.Popped, &sum.Stats.Missed, &sum.Stats.Passed, &sum.Stats.Failed)
	if err != nil {
		return game.Summary{}, err
	}
	sum.StartedAt = time.UnixMilli(started)
	sum.EndedAt = time.UnixMilli(ended)
	sum.Outcome = game.Outcome(outcome)
	return sum, nil
}

// Get retrieves one session
func (s *SQLiteDB) Get(ctx context.Context, id string) (game.Summary, error) {
	sum, err := scanSummary(s.db.QueryRowContext(ctx, selectColumns+` WHERE id = ?`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return game.Summary{}, ErrNotFound
	}
	return sum, err
}

// Recent lists the latest sessions, newest first. An empty variant lists all.
func (s *SQLiteDB) Recent(ctx context.Context, variant string, limit int) ([]game.Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}

	query := selectColumns
	args := []any{}
	if variant != "" {
		query += ` WHERE variant = ?`
		args = append(args, variant)
	}
	query += ` ORDER BY ended_at DESC LIMIT ?`
	args = append(args, limit)

	return s.list(ctx, query, args...)
}

// Top lists the best sessions of a variant, highest score first.
func (s *SQLiteDB) Top(ctx context.Context, variant string, limit int) ([]game.Summary, error) {
	if limit <= 0 {
		limit = DefaultLimit
	}
	return s.list(ctx, selectColumns+` WHERE variant = ? ORDER BY score DESC, ended_at ASC LIMIT ?`, variant, limit)
}

func (s *SQLiteDB) list(ctx context.Context, query string, args ...any) ([]game.Summary, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []game.Summary
	for rows.Next() {
		sum, err := scanSummary(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, sum)
	}
	return out, rows.Err()
}

// Count returns the number of recorded sessions for a variant, or all when empty
func (s *SQLiteDB) Count(ctx context.Context, variant string) (int, error) {
	query := `SELECT COUNT(*) FROM sessions`
	args := []any{}
	if variant != "" {
		query += ` WHERE variant = ?`
		args = append(args, variant)
	}
	var n int
	if err := s.db.QueryRowContext(ctx, query, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count sessions: %w", err)
	}
	return n, nil
}
