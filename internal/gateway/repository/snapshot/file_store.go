package snapshot

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	gojson "github.com/goccy/go-json"
)

// FileStore keeps every snapshot in one JSON file. The file is read on
// first use and rewritten after each change.
type FileStore struct {
	path string

	loadOnce sync.Once
	loadErr  error

	mu   sync.Mutex
	byID map[string]Snapshot
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path, byID: make(map[string]Snapshot)}
}

func (s *FileStore) ensureLoaded() error {
	s.loadOnce.Do(func() {
		b, err := os.ReadFile(s.path)
		if errors.Is(err, os.ErrNotExist) {
			return
		}
		if err != nil {
			s.loadErr = fmt.Errorf("read snapshots: %w", err)
			return
		}
		var rows []Snapshot
		if err := gojson.Unmarshal(b, &rows); err != nil {
			s.loadErr = fmt.Errorf("decode snapshots %s: %w", s.path, err)
			return
		}
		for _, row := range rows {
			if row.ID != "" {
				s.byID[row.ID] = row
			}
		}
	})
	return s.loadErr
}

// saveLocked writes through a temp file so a crash never leaves a torn file.
func (s *FileStore) saveLocked() error {
	rows := make([]Snapshot, 0, len(s.byID))
	for _, snap := range s.byID {
		rows = append(rows, snap)
	}
	sortNewestFirst(rows)
	b, err := gojson.MarshalIndent(rows, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *FileStore) Put(_ context.Context, snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.byID[snap.ID] = snap
	return s.saveLocked()
}

func (s *FileStore) Get(_ context.Context, id string) (Snapshot, error) {
	id, err := normalizeID(id)
	if err != nil {
		return Snapshot{}, err
	}
	if err := s.ensureLoaded(); err != nil {
		return Snapshot{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	snap, ok := s.byID[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *FileStore) List(_ context.Context) ([]Snapshot, error) {
	if err := s.ensureLoaded(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	out := make([]Snapshot, 0, len(s.byID))
	for _, snap := range s.byID {
		out = append(out, snap)
	}
	s.mu.Unlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *FileStore) Delete(_ context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	if err := s.ensureLoaded(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return ErrNotFound
	}
	delete(s.byID, id)
	return s.saveLocked()
}
