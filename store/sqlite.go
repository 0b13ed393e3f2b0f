package store

import (
	"context"
	"database/sql"
	_ "embed"
	"fmt"
	"strconv"

	_ "github.com/mattn/go-sqlite3"

	"github.com/viant/leaderboard/score"
)

//go:embed schema.sql
var schemaSQL string

// SQLite keeps the board in a local database for self-hosted deployments.
// The revision is a version counter bumped on every save.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens the database at path and applies the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("store: sqlite backend requires path")
	}
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}
	if _, err := db.ExecContext(ctx, schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to execute schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Load(ctx context.Context) (*Snapshot, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	version, err := readVersion(ctx, tx)
	if err != nil {
		return nil, err
	}
	rows, err := tx.QueryContext(ctx, "SELECT name, score, timestamp FROM scores ORDER BY position")
	if err != nil {
		return nil, fmt.Errorf("query scores: %w", err)
	}
	defer rows.Close()
	entries := []score.Entry{}
	for rows.Next() {
		var e score.Entry
		if err := rows.Scan(&e.Name, &e.Score, &e.Timestamp); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return &Snapshot{Entries: entries, Revision: strconv.FormatInt(version, 10)}, nil
}

func (s *SQLite) Save(ctx context.Context, update *Update) (*Result, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback()
	version, err := readVersion(ctx, tx)
	if err != nil {
		return nil, err
	}
	if update.Revision != "" && update.Revision != strconv.FormatInt(version, 10) {
		return nil, ErrConflict
	}
	if _, err := tx.ExecContext(ctx, "DELETE FROM scores"); err != nil {
		return nil, fmt.Errorf("clear scores: %w", err)
	}
	stmt, err := tx.PrepareContext(ctx, "INSERT INTO scores (position, name, score, timestamp) VALUES (?, ?, ?, ?)")
	if err != nil {
		return nil, err
	}
	defer stmt.Close()
	for i, e := range update.Entries {
		if _, err := stmt.ExecContext(ctx, i, e.Name, e.Score, e.Timestamp); err != nil {
			return nil, fmt.Errorf("insert score %q: %w", e.Name, err)
		}
	}
	version++
	if _, err := tx.ExecContext(ctx, "UPDATE board_version SET version = ? WHERE id = 1", version); err != nil {
		return nil, fmt.Errorf("bump version: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, err
	}
	return &Result{Revision: strconv.FormatInt(version, 10)}, nil
}

func readVersion(ctx context.Context, tx *sql.Tx) (int64, error) {
	var version int64
	if err := tx.QueryRowContext(ctx, "SELECT version FROM board_version WHERE id = 1").Scan(&version); err != nil {
		return 0, fmt.Errorf("read version: %w", err)
	}
	return version, nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
