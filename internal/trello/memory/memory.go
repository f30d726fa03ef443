package memory

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"boardview/internal/core"
)

// Store serves a board from memory. It backs local development and tests.
type Store struct {
	mu   sync.Mutex
	snap core.Snapshot
}

// New wraps an already assembled snapshot.
func New(snap core.Snapshot) *Store {
	return &Store{snap: snap}
}

// NewFromDir loads a board fixture from JSON files in dir. Missing files
// leave the corresponding collection empty; malformed files are an error.
func NewFromDir(dir, boardID string) (*Store, error) {
	snap := core.Snapshot{BoardID: boardID}
	files := []struct {
		name string
		dst  any
	}{
		{"labels.json", &snap.Labels},
		{"cards.json", &snap.Cards},
		{"lists.json", &snap.Lists},
		{"members.json", &snap.Members},
		{"custom_fields.json", &snap.CustomFields},
	}
	for _, f := range files {
		if err := readJSON(filepath.Join(dir, f.name), f.dst); err != nil {
			return nil, err
		}
	}
	if snap.BoardID == "" {
		snap.BoardID = "memory"
	}
	return New(snap), nil
}

func readJSON(path string, dst any) error {
	b, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if err := json.Unmarshal(b, dst); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func (s *Store) BoardID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snap.BoardID
}

func (s *Store) Labels(_ context.Context) ([]core.Label, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Label(nil), s.snap.Labels...), nil
}

func (s *Store) Cards(_ context.Context) ([]core.Card, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Card(nil), s.snap.Cards...), nil
}

func (s *Store) Lists(_ context.Context) ([]core.List, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.List(nil), s.snap.Lists...), nil
}

func (s *Store) Members(_ context.Context) ([]core.Member, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Member(nil), s.snap.Members...), nil
}

func (s *Store) CustomFields(_ context.Context) ([]core.CustomField, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.CustomField(nil), s.snap.CustomFields...), nil
}
