// Package journal records mutating CLI operations in a local SQLite
// database so the history command can report what ran and how it ended.
package journal

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/tgross03/backpy/internal/core"
	"github.com/tgross03/backpy/internal/journal/migrations"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
)

// SQLiteJournal implements core.Journal on a SQLite database file.
type SQLiteJournal struct {
	db *sql.DB
}

var _ core.Journal = (*SQLiteJournal)(nil)

// Open opens the journal at path, creating and migrating it as needed.
// path can be ":memory:" for tests.
func Open(path string) (*SQLiteJournal, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			return nil, fmt.Errorf("creating journal directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("opening journal: %w", err)
	}

	// Foreign keys are off by default in SQLite.
	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	if err := migrations.MigrateUp(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SQLiteJournal{db: db}, nil
}

// Record inserts the operation with status "running" and returns its id.
func (j *SQLiteJournal) Record(op *core.Operation) (int64, error) {
	res, err := j.db.Exec(
		`INSERT INTO operations (name, space_id, detail, status, started_at)
		 VALUES (?, ?, ?, 'running', ?)`,
		op.Name, op.SpaceID, op.Detail, op.StartedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("recording operation: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("recording operation: %w", err)
	}
	return id, nil
}

// Finish marks the operation's final status and finish time.
func (j *SQLiteJournal) Finish(id int64, status string, finishedAt time.Time) error {
	_, err := j.db.Exec(
		`UPDATE operations SET status = ?, finished_at = ? WHERE id = ?`,
		status, finishedAt, id,
	)
	if err != nil {
		return fmt.Errorf("finishing operation %d: %w", id, err)
	}
	return nil
}

// Recent returns up to limit operations, newest first.
func (j *SQLiteJournal) Recent(limit int) ([]*core.Operation, error) {
	rows, err := j.db.Query(
		`SELECT id, name, space_id, detail, status, started_at, finished_at
		 FROM operations ORDER BY started_at DESC, id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	defer rows.Close()

	var ops []*core.Operation
	for rows.Next() {
		var op core.Operation
		var finished sql.NullTime
		if err := rows.Scan(&op.ID, &op.Name, &op.SpaceID, &op.Detail, &op.Status, &op.StartedAt, &finished); err != nil {
			return nil, fmt.Errorf("scanning operation: %w", err)
		}
		if finished.Valid {
			op.FinishedAt = finished.Time
		}
		ops = append(ops, &op)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("listing operations: %w", err)
	}
	return ops, nil
}

// Close closes the underlying database.
func (j *SQLiteJournal) Close() error {
	if j.db != nil {
		return j.db.Close()
	}
	return nil
}
