package session

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gemexbase/gemex/internal/metrics"
	"github.com/gemexbase/gemex/pkg/model"
)

// Config controls session expiry.
type Config struct {
	IdleTTL       time.Duration `yaml:"idle_ttl"`
	SweepInterval time.Duration `yaml:"sweep_interval"`
	MaxSessions   int           `yaml:"max_sessions"`
}

// DefaultConfig returns the default session settings.
func DefaultConfig() Config {
	return Config{
		IdleTTL:       30 * time.Minute,
		SweepInterval: time.Minute,
		MaxSessions:   10000,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()
	if c.IdleTTL == 0 {
		c.IdleTTL = defaults.IdleTTL
	}
	if c.SweepInterval == 0 {
		c.SweepInterval = defaults.SweepInterval
	}
	if c.MaxSessions == 0 {
		c.MaxSessions = defaults.MaxSessions
	}
}

// ApplyEnvOverrides is a no-op: sessions have no env overrides.
func (c *Config) ApplyEnvOverrides() { _ = c }

// ResolvePaths is a no-op: the session config holds no paths.
func (c *Config) ResolvePaths(_, _ string) { _ = c }

// Validate returns an error if the configuration is invalid.
func (c *Config) Validate() error {
	if c.IdleTTL < 0 || c.SweepInterval < 0 {
		return fmt.Errorf("sessions: idle_ttl and sweep_interval must not be negative")
	}
	if c.MaxSessions < 0 {
		return fmt.Errorf("sessions: max_sessions must not be negative")
	}
	return nil
}

// ErrTooManySessions is returned by Create when the store is full.
var ErrTooManySessions = errors.New("too many sessions")

type storeEntry struct {
	session  *Session
	lastUsed time.Time
}

// Store keeps sessions by id and expires idle ones.
type Store struct {
	deps     Deps
	config   Config
	mu       sync.Mutex
	sessions map[string]*storeEntry
	now      func() time.Time
}

// NewStore creates an empty store.
func NewStore(deps Deps, config Config) *Store {
	config.ApplyDefaults()
	return &Store{
		deps:     deps,
		config:   config,
		sessions: make(map[string]*storeEntry),
		now:      time.Now,
	}
}

// Deps returns the collaborators given to new sessions.
func (st *Store) Deps() Deps {
	return st.deps
}

// Create starts a session on entity, restored from params when not empty.
func (st *Store) Create(entity string, params url.Values) (*Session, error) {
	s, err := New(uuid.NewString(), st.deps, entity)
	if err != nil {
		return nil, err
	}
	if len(params) > 0 {
		if err := s.LoadQuery(params); err != nil {
			return nil, err
		}
	}

	st.mu.Lock()
	defer st.mu.Unlock()
	if st.config.MaxSessions > 0 && len(st.sessions) >= st.config.MaxSessions {
		return nil, ErrTooManySessions
	}
	st.sessions[s.ID()] = &storeEntry{session: s, lastUsed: st.now()}
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	return s, nil
}

// Get returns a session and marks it used.
func (st *Store) Get(id string) (*Session, error) {
	st.mu.Lock()
	defer st.mu.Unlock()
	e, ok := st.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	e.lastUsed = st.now()
	return e.session, nil
}

// Delete closes and removes a session.
func (st *Store) Delete(id string) error {
	st.mu.Lock()
	e, ok := st.sessions[id]
	if ok {
		delete(st.sessions, id)
		metrics.ActiveSessions.Set(float64(len(st.sessions)))
	}
	st.mu.Unlock()

	if !ok {
		return fmt.Errorf("session %s: %w", id, model.ErrNotFound)
	}
	e.session.Close()
	return nil
}

// Len returns the number of sessions.
func (st *Store) Len() int {
	st.mu.Lock()
	defer st.mu.Unlock()
	return len(st.sessions)
}

// Sweep removes sessions idle for longer than IdleTTL and returns how many.
func (st *Store) Sweep() int {
	cutoff := st.now().Add(-st.config.IdleTTL)

	st.mu.Lock()
	var expired []*Session
	for id, e := range st.sessions {
		if e.lastUsed.Before(cutoff) {
			expired = append(expired, e.session)
			delete(st.sessions, id)
		}
	}
	metrics.ActiveSessions.Set(float64(len(st.sessions)))
	st.mu.Unlock()

	for _, s := range expired {
		s.Close()
	}
	return len(expired)
}

// Run sweeps every SweepInterval until ctx is done.
func (st *Store) Run(ctx context.Context) {
	ticker := time.NewTicker(st.config.SweepInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := st.Sweep(); n > 0 && st.deps.Logger != nil {
				st.deps.Logger.Debug("Expired idle sessions", "count", n)
			}
		}
	}
}
