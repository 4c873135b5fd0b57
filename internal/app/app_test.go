package app

import (
	"path/filepath"
	"testing"

	"github.com/tgross03/backpy/internal/config"
)

func TestNew_WiresAndJournals(t *testing.T) {
	cfg := config.NewConfig(t.TempDir())
	cfg.LogDir = filepath.Join(cfg.BaseDir, "log")

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	a.StartOperation("backup create", "space-1", "local")
	a.FinishOperation(nil)

	ops, err := a.Journal.Recent(10)
	if err != nil {
		t.Fatalf("Recent() error = %v", err)
	}
	if len(ops) != 1 {
		t.Fatalf("got %d operations, want 1", len(ops))
	}
	if ops[0].Name != "backup create" || ops[0].Status != "success" {
		t.Errorf("operation = %s/%s, want backup create/success", ops[0].Name, ops[0].Status)
	}
}

func TestDefaultFormat(t *testing.T) {
	cfg := config.NewConfig(t.TempDir())
	cfg.Defaults.CompressionAlgorithm = "zsttar"
	cfg.Defaults.CompressionLevel = 3

	a, err := New(cfg)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer a.Close()

	format, level, err := a.DefaultFormat()
	if err != nil {
		t.Fatalf("DefaultFormat() error = %v", err)
	}
	if string(format) != "zsttar" || level != 3 {
		t.Errorf("DefaultFormat() = %s/%d, want zsttar/3", format, level)
	}
}
