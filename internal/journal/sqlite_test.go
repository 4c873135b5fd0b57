package journal

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/tgross03/backpy/internal/core"
)

func newTestJournal(t *testing.T) *SQLiteJournal {
	t.Helper()
	j, err := Open(":memory:")
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestJournal_RecordAndFinish(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	started := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	id, err := j.Record(&core.Operation{
		Name:      "backup create",
		SpaceID:   "space-1",
		Detail:    "location=all",
		StartedAt: started,
	})
	if err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	ops, err := j.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("Recent() returned %d operations, want 1", len(ops))
	}
	got := ops[0]
	if got.ID != id || got.Name != "backup create" || got.SpaceID != "space-1" {
		t.Errorf("Recent()[0] = %+v", got)
	}
	if got.Status != "running" {
		t.Errorf("Status = %q, want %q", got.Status, "running")
	}
	if !got.FinishedAt.IsZero() {
		t.Errorf("FinishedAt = %v, want zero while running", got.FinishedAt)
	}

	finished := started.Add(2 * time.Minute)
	if err := j.Finish(id, "success", finished); err != nil {
		t.Fatalf("Finish() error = %v", err)
	}

	ops, err = j.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	got = ops[0]
	if got.Status != "success" {
		t.Errorf("Status = %q, want %q", got.Status, "success")
	}
	if !got.FinishedAt.Equal(finished) {
		t.Errorf("FinishedAt = %v, want %v", got.FinishedAt, finished)
	}
}

func TestJournal_RecentOrderAndLimit(t *testing.T) {
	t.Parallel()

	j := newTestJournal(t)
	base := time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		_, err := j.Record(&core.Operation{
			Name:      "backup create",
			SpaceID:   "space-1",
			StartedAt: base.Add(time.Duration(i) * time.Minute),
		})
		if err != nil {
			t.Fatalf("Record() error = %v", err)
		}
	}

	ops, err := j.Recent(3)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(ops) != 3 {
		t.Fatalf("Recent(3) returned %d operations, want 3", len(ops))
	}
	for i := 1; i < len(ops); i++ {
		if ops[i].StartedAt.After(ops[i-1].StartedAt) {
			t.Errorf("Recent() not ordered newest first: %v before %v", ops[i-1].StartedAt, ops[i].StartedAt)
		}
	}
}

func TestJournal_OpenCreatesFile(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "journal.db")
	j, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	defer j.Close()

	if _, err := j.Record(&core.Operation{Name: "space create", StartedAt: time.Now()}); err != nil {
		t.Fatalf("Record() error = %v", err)
	}

	// Reopening must migrate cleanly and see the row.
	if err := j.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	reopened, err := Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer reopened.Close()

	ops, err := reopened.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(ops) != 1 {
		t.Errorf("Recent() after reopen = %d operations, want 1", len(ops))
	}
}
