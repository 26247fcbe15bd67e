// Package artifacts persists model artifacts as JSON files at named
// paths. Load failure is the caller's cue to run without a model, never a
// fatal condition.
package artifacts

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Store reads and writes JSON artifacts.
type Store struct{}

// NewStore returns a filesystem artifact store.
func NewStore() *Store {
	return &Store{}
}

// Load reads the artifact at path into v.
func (s *Store) Load(path string, v interface{}) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read artifact %s: %w", path, err)
	}
	if err := json.Unmarshal(raw, v); err != nil {
		return fmt.Errorf("decode artifact %s: %w", path, err)
	}
	return nil
}

// Save writes v as JSON to path, creating intermediate directories as
// needed. The artifact is replaced wholesale.
func (s *Store) Save(path string, v interface{}) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create artifact dir %s: %w", dir, err)
		}
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("encode artifact %s: %w", path, err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("write artifact %s: %w", path, err)
	}
	return nil
}
