// Package registry owns the live editor sessions of a gateway process.
package registry

import (
	"errors"
	"strings"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/xid"

	"contractcreator/internal/logging"
	"contractcreator/internal/metrics"
	"contractcreator/internal/session"
)

const DefaultMaxSessions = 1024

var ErrSessionNotFound = errors.New("session not found")

// Registry maps session ids to sessions. When full, the least recently used
// session is closed to make room.
type Registry struct {
	sessions *lru.Cache[string, *session.Session]
	cfg      session.Config
	deps     session.Deps
	logger   logging.Logger
}

func New(max int, cfg session.Config, deps session.Deps) (*Registry, error) {
	if max <= 0 {
		max = DefaultMaxSessions
	}
	if deps.Logger == nil {
		deps.Logger = logging.New("registry")
	}
	r := &Registry{cfg: cfg, deps: deps, logger: deps.Logger}
	cache, err := lru.NewWithEvict[string, *session.Session](max, r.onEvict)
	if err != nil {
		return nil, err
	}
	r.sessions = cache
	return r, nil
}

func (r *Registry) onEvict(id string, s *session.Session) {
	r.logger.Debugf("closing session %s", id)
	// Close waits for in-flight LLM calls; never block the cache on that.
	go s.Close()
	r.deps.Metrics.SetSessionsActive(r.sessions.Len())
}

// Create starts a new session with a fresh id.
func (r *Registry) Create() *session.Session {
	id := xid.New().String()
	deps := r.deps
	deps.Logger = logging.New("session", "id", id)
	s := session.New(id, r.cfg, deps)
	r.sessions.Add(id, s)
	r.deps.Metrics.SetSessionsActive(r.sessions.Len())
	return s
}

func (r *Registry) Get(id string) (*session.Session, error) {
	s, ok := r.sessions.Get(strings.TrimSpace(id))
	if !ok {
		return nil, ErrSessionNotFound
	}
	return s, nil
}

// Delete closes and forgets a session.
func (r *Registry) Delete(id string) error {
	if !r.sessions.Remove(strings.TrimSpace(id)) {
		return ErrSessionNotFound
	}
	return nil
}

func (r *Registry) Len() int { return r.sessions.Len() }

// Close shuts every session down.
func (r *Registry) Close() {
	for _, s := range r.sessions.Values() {
		s.Close()
	}
	r.sessions.Purge()
}
