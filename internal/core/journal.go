package core

import "time"

// Operation is one recorded mutating CLI invocation: what ran, against which
// space, and how it ended.
type Operation struct {
	ID         int64
	Name       string
	SpaceID    string
	Detail     string
	Status     string // "running", "success" or "error"
	StartedAt  time.Time
	FinishedAt time.Time // zero while running
}

// Journal records operations for the history command. Read-only commands do
// not journal.
type Journal interface {
	// Record inserts the operation with status "running" and returns its id.
	Record(op *Operation) (int64, error)

	// Finish marks the operation's final status and finish time.
	Finish(id int64, status string, finishedAt time.Time) error

	// Recent returns up to limit operations, newest first.
	Recent(limit int) ([]*Operation, error)

	Close() error
}
