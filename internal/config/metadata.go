package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// RewriteTOML updates the TOML document at path with the given values using
// a read-modify-write cycle: the existing document (missing file = empty) is
// loaded, updates are deep-merged over it, and the file is rewritten
// atomically via a temp file in the same directory.
//
// Merge policy: new values win on conflict; keys present in the existing
// document but absent from updates are preserved. A newer version may add
// keys this version does not know, and rewriting must not drop them.
func RewriteTOML(path string, updates map[string]any) error {
	current := map[string]any{}
	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, &current); err != nil {
			return fmt.Errorf("reading existing document %s: %w", path, err)
		}
	}

	merged := MergeMaps(current, updates)

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(merged); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encoding document: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", path, err)
	}
	return nil
}

// MergeMaps deep-merges src over dst and returns the result. Nested maps are
// merged recursively; any other value type in src replaces the dst value.
// Neither input map is mutated.
func MergeMaps(dst, src map[string]any) map[string]any {
	out := make(map[string]any, len(dst)+len(src))
	for k, v := range dst {
		out[k] = v
	}
	for k, v := range src {
		srcMap, srcIsMap := v.(map[string]any)
		dstMap, dstIsMap := out[k].(map[string]any)
		if srcIsMap && dstIsMap {
			out[k] = MergeMaps(dstMap, srcMap)
			continue
		}
		out[k] = v
	}
	return out
}
