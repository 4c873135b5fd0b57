package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/BurntSushi/toml"
)

func TestConfig_RoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "backpy.toml")

	cfg := NewConfig(filepath.Join(dir, "data"))
	cfg.Defaults.CompressionLevel = 9
	cfg.Remote.ConnectTimeoutSeconds = 5

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}

	got, err := ReadFromFile(path)
	if err != nil {
		t.Fatalf("ReadFromFile() error = %v", err)
	}
	if got.BaseDir != cfg.BaseDir {
		t.Errorf("BaseDir = %q, want %q", got.BaseDir, cfg.BaseDir)
	}
	if got.Defaults.CompressionLevel != 9 {
		t.Errorf("CompressionLevel = %d, want 9", got.Defaults.CompressionLevel)
	}
	if got.ConnectTimeout() != 5*time.Second {
		t.Errorf("ConnectTimeout() = %s, want 5s", got.ConnectTimeout())
	}
}

func TestInit_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backpy.toml")
	cfg := NewConfig("/tmp/backpy")

	if err := Init(path, cfg); err != nil {
		t.Fatalf("Init() error = %v", err)
	}
	if err := Init(path, cfg); err == nil {
		t.Error("second Init() succeeded, want error")
	}
}

func TestConnectTimeout_Default(t *testing.T) {
	cfg := &Config{}
	if got := cfg.ConnectTimeout(); got != 30*time.Second {
		t.Errorf("ConnectTimeout() = %s, want 30s", got)
	}
}

func TestRewriteTOML_PreservesUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "backpy.toml")

	initial := "base_dir = \"/data\"\nfuture_key = \"kept\"\n\n[defaults]\ncompression_level = 6\nfuture_nested = true\n"
	if err := os.WriteFile(path, []byte(initial), 0644); err != nil {
		t.Fatal(err)
	}

	err := RewriteTOML(path, map[string]any{
		"defaults": map[string]any{"compression_level": int64(9)},
	})
	if err != nil {
		t.Fatalf("RewriteTOML() error = %v", err)
	}

	var got map[string]any
	if _, err := toml.DecodeFile(path, &got); err != nil {
		t.Fatal(err)
	}

	if got["future_key"] != "kept" {
		t.Errorf("future_key = %v, want %q", got["future_key"], "kept")
	}
	defaults, ok := got["defaults"].(map[string]any)
	if !ok {
		t.Fatalf("defaults section missing: %v", got)
	}
	if defaults["compression_level"] != int64(9) {
		t.Errorf("compression_level = %v, want 9", defaults["compression_level"])
	}
	if defaults["future_nested"] != true {
		t.Errorf("future_nested = %v, want true", defaults["future_nested"])
	}
}

func TestRewriteTOML_CreatesMissingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sub", "backpy.toml")

	if err := RewriteTOML(path, map[string]any{"base_dir": "/data"}); err != nil {
		t.Fatalf("RewriteTOML() error = %v", err)
	}

	var got map[string]any
	if _, err := toml.DecodeFile(path, &got); err != nil {
		t.Fatal(err)
	}
	if got["base_dir"] != "/data" {
		t.Errorf("base_dir = %v, want /data", got["base_dir"])
	}
}

func TestMergeMaps_DoesNotMutateInputs(t *testing.T) {
	dst := map[string]any{"a": map[string]any{"x": 1}}
	src := map[string]any{"a": map[string]any{"y": 2}}

	out := MergeMaps(dst, src)

	merged, ok := out["a"].(map[string]any)
	if !ok || merged["x"] != 1 || merged["y"] != 2 {
		t.Errorf("merged = %v, want x and y present", out["a"])
	}
	if _, leaked := dst["a"].(map[string]any)["y"]; leaked {
		t.Error("dst was mutated by merge")
	}
}
