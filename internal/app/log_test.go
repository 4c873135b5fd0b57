package app

import (
	"bytes"
	"log/slog"
	"strings"
	"testing"
)

func TestLogHandler_Format(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&logHandler{w: &buf})

	logger.Info("created backup", "space", "docs", "count", 3)

	line := strings.TrimSuffix(buf.String(), "\n")
	fields := strings.Split(line, "\t")
	if len(fields) != 5 {
		t.Fatalf("got %d fields, want 5: %q", len(fields), line)
	}
	if fields[1] != "INFO" {
		t.Errorf("level = %q, want INFO", fields[1])
	}
	if fields[2] != "created backup" {
		t.Errorf("message = %q, want %q", fields[2], "created backup")
	}
	if fields[3] != "space=docs" {
		t.Errorf("attr = %q, want space=docs", fields[3])
	}
	if fields[4] != "count=3" {
		t.Errorf("attr = %q, want count=3", fields[4])
	}
}

func TestLogHandler_WithAttrs(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(&logHandler{w: &buf}).With("op", "42")

	logger.Warn("upload failed")

	if !strings.Contains(buf.String(), "\top=42") {
		t.Errorf("pre-set attr missing from %q", buf.String())
	}
}

func TestDefaultConfigPath_EnvOverride(t *testing.T) {
	t.Setenv("BACKPY_CONFIG_PATH", "/etc/backpy/custom.toml")

	path, err := DefaultConfigPath()
	if err != nil {
		t.Fatalf("DefaultConfigPath() error = %v", err)
	}
	if path != "/etc/backpy/custom.toml" {
		t.Errorf("path = %q, want the env override", path)
	}
}

func TestDefaultBaseDir_EnvOverride(t *testing.T) {
	t.Setenv("BACKPY_HOME", "/var/lib/backpy")

	dir, err := DefaultBaseDir()
	if err != nil {
		t.Fatalf("DefaultBaseDir() error = %v", err)
	}
	if dir != "/var/lib/backpy" {
		t.Errorf("dir = %q, want the env override", dir)
	}
}
