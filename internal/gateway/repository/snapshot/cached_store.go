package snapshot

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
)

type CacheConfig struct {
	MaxEntries int
	TTL        time.Duration
}

func DefaultCacheConfig() CacheConfig {
	return CacheConfig{MaxEntries: 256, TTL: 5 * time.Minute}
}

type CacheStats struct {
	Hits         uint64
	Misses       uint64
	OriginReads  uint64
	OriginWrites uint64
}

// CachedStore is a read-through cache in front of a slower origin, such as
// S3 or a remote database. Snapshots are immutable once written by this
// process, so only Get results are cached; List always hits the origin.
type CachedStore struct {
	origin Store
	cache  *expirable.LRU[string, Snapshot]

	hits, misses, originReads, originWrites atomic.Uint64
}

func NewCachedStore(origin Store, cfg CacheConfig) *CachedStore {
	def := DefaultCacheConfig()
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.TTL <= 0 {
		cfg.TTL = def.TTL
	}
	return &CachedStore{
		origin: origin,
		cache:  expirable.NewLRU[string, Snapshot](cfg.MaxEntries, nil, cfg.TTL),
	}
}

func (s *CachedStore) Put(ctx context.Context, snap Snapshot) error {
	s.originWrites.Add(1)
	if err := s.origin.Put(ctx, snap); err != nil {
		s.cache.Remove(snap.ID)
		return err
	}
	s.cache.Add(snap.ID, snap)
	return nil
}

func (s *CachedStore) Get(ctx context.Context, id string) (Snapshot, error) {
	if snap, ok := s.cache.Get(id); ok {
		s.hits.Add(1)
		return snap, nil
	}
	s.misses.Add(1)
	s.originReads.Add(1)
	snap, err := s.origin.Get(ctx, id)
	if err != nil {
		return Snapshot{}, err
	}
	s.cache.Add(snap.ID, snap)
	return snap, nil
}

func (s *CachedStore) List(ctx context.Context) ([]Snapshot, error) {
	s.originReads.Add(1)
	return s.origin.List(ctx)
}

func (s *CachedStore) Delete(ctx context.Context, id string) error {
	s.cache.Remove(id)
	s.originWrites.Add(1)
	return s.origin.Delete(ctx, id)
}

func (s *CachedStore) Stats() CacheStats {
	return CacheStats{
		Hits:         s.hits.Load(),
		Misses:       s.misses.Load(),
		OriginReads:  s.originReads.Load(),
		OriginWrites: s.originWrites.Load(),
	}
}
