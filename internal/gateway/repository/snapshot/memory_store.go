package snapshot

import (
	"context"
	"sync"
)

type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]Snapshot
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]Snapshot)}
}

func (s *MemoryStore) Put(_ context.Context, snap Snapshot) error {
	if err := validate(snap); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[snap.ID] = snap
	return nil
}

func (s *MemoryStore) Get(_ context.Context, id string) (Snapshot, error) {
	id, err := normalizeID(id)
	if err != nil {
		return Snapshot{}, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap, ok := s.data[id]
	if !ok {
		return Snapshot{}, ErrNotFound
	}
	return snap, nil
}

func (s *MemoryStore) List(_ context.Context) ([]Snapshot, error) {
	s.mu.RLock()
	out := make([]Snapshot, 0, len(s.data))
	for _, snap := range s.data {
		out = append(out, snap)
	}
	s.mu.RUnlock()
	sortNewestFirst(out)
	return out, nil
}

func (s *MemoryStore) Delete(_ context.Context, id string) error {
	id, err := normalizeID(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.data[id]; !ok {
		return ErrNotFound
	}
	delete(s.data, id)
	return nil
}
