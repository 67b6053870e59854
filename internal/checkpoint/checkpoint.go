// Package checkpoint persists the bot's "last successfully processed"
// timestamp in a single flat file, so restarts do not repost updates the
// room has already seen.
package checkpoint

import (
	"fmt"
	"os"
	"strings"
	"time"
)

// Store reads and writes the checkpoint file.
type Store struct {
	path string
}

// NewStore returns a Store backed by the file at path. The file is not
// touched until the first Load or Save.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Load returns the recorded timestamp. A missing or blank file means the bot
// has never completed a cycle; that is reported through ok, not an error.
func (s *Store) Load() (t time.Time, ok bool, err error) {
	data, err := os.ReadFile(s.path)
	if os.IsNotExist(err) {
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, fmt.Errorf("checkpoint: reading %s: %w", s.path, err)
	}

	raw := strings.TrimSpace(string(data))
	if raw == "" {
		return time.Time{}, false, nil
	}

	t, err = time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, false, fmt.Errorf("checkpoint: parsing %s: %w", s.path, err)
	}
	return t, true, nil
}

// Save records t as the new checkpoint.
func (s *Store) Save(t time.Time) error {
	if err := os.WriteFile(s.path, []byte(t.Format(time.RFC3339)+"\n"), 0o644); err != nil {
		return fmt.Errorf("checkpoint: writing %s: %w", s.path, err)
	}
	return nil
}

// Clear truncates the checkpoint, returning the bot to the never-updated
// state.
func (s *Store) Clear() error {
	if err := os.WriteFile(s.path, nil, 0o644); err != nil {
		return fmt.Errorf("checkpoint: clearing %s: %w", s.path, err)
	}
	return nil
}
