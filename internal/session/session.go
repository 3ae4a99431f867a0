// Package session owns the search state of one user: the filter panel, the
// quick-search text and the in-flight search. Every mutation supersedes the
// running search, so a result always matches the latest query.
package session

import (
	"context"
	"log/slog"
	"net/url"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/gemexbase/gemex/internal/backend"
	"github.com/gemexbase/gemex/internal/codec"
	"github.com/gemexbase/gemex/internal/filter"
	"github.com/gemexbase/gemex/internal/metadata"
	"github.com/gemexbase/gemex/internal/metrics"
	"github.com/gemexbase/gemex/pkg/model"
)

// Deps are the collaborators shared by all sessions.
type Deps struct {
	Codec    *codec.Codec
	Backend  backend.Service
	Resolver *metadata.Resolver
	Logger   *slog.Logger
}

// Result is one settled search.
type Result struct {
	Generation uint64             `json:"generation"`
	Entity     string             `json:"entity"`
	Query      url.Values         `json:"query"`
	Page       backend.Pagination `json:"page"`
	Count      int                `json:"count"`
	Records    []model.Record     `json:"records"`
	Metadata   metadata.Table     `json:"metadata"`
}

// Session is safe for concurrent use.
type Session struct {
	id     string
	deps   Deps
	logger *slog.Logger

	mu         sync.Mutex
	state      *filter.State
	quick      string
	generation uint64
	cancel     context.CancelFunc
	last       *Result
}

// New creates a session on the default filter panel of entity.
func New(id string, deps Deps, entity string) (*Session, error) {
	state, err := filter.BuildDefault(deps.Codec.Registry(), entity)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:     id,
		deps:   deps,
		logger: logger.With("component", "session", "session", id),
		state:  state,
	}, nil
}

// ID returns the session id.
func (s *Session) ID() string {
	return s.id
}

// State returns the current filter state.
func (s *Session) State() *filter.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Entity returns the entity type being searched.
func (s *Session) Entity() string {
	return s.State().Entity()
}

// QuickSearch returns the quick-search text.
func (s *Session) QuickSearch() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.quick
}

// Generation counts the mutations and searches of the session.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// LastResult returns the most recent settled search, nil before the first.
func (s *Session) LastResult() *Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// supersede cancels the in-flight search and starts a new generation.
// Caller must hold s.mu.
func (s *Session) supersede() uint64 {
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
		metrics.SearchesCanceled.WithLabelValues(s.state.Entity()).Inc()
		s.logger.Debug("Superseded in-flight search", "generation", s.generation)
	}
	s.generation++
	return s.generation
}

func (s *Session) replace(state *filter.State, quick string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersede()
	s.state = state
	s.quick = quick
}

// SetEntity switches the entity type. The filter panel is rebuilt from
// defaults and the quick-search text is cleared.
func (s *Session) SetEntity(entity string) error {
	state, err := filter.BuildDefault(s.deps.Codec.Registry(), entity)
	if err != nil {
		return err
	}
	s.replace(state, "")
	return nil
}

// Clear resets the filter panel of the current entity type.
func (s *Session) Clear() error {
	return s.SetEntity(s.Entity())
}

// LoadQuery restores the session from a URL query. The entity type comes
// from the item parameter, the current one when absent.
func (s *Session) LoadQuery(params url.Values) error {
	entity := codec.EntityOf(params)
	if entity == "" {
		entity = s.Entity()
	}
	state, err := filter.ApplyIncoming(s.deps.Codec, entity, params)
	if err != nil {
		return err
	}
	quick := ""
	if dsp := state.Config().DefaultSearchParam; dsp != "" {
		quick = params.Get(dsp)
	}
	s.replace(state, quick)
	return nil
}

// Patch sets the value of one filter without changing its checked flag.
func (s *Session) Patch(name string, value interface{}) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.Patch(name, value)
	if err != nil {
		return err
	}
	s.supersede()
	s.state = next
	return nil
}

// Toggle switches one filter on or off.
func (s *Session) Toggle(name string, checked bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	next, err := s.state.Toggle(name, checked)
	if err != nil {
		return err
	}
	s.supersede()
	s.state = next
	return nil
}

// SetQuickSearch sets the quick-search text. Entity types without a
// quick-search field ignore it.
func (s *Session) SetQuickSearch(text string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.supersede()
	if s.state.Config().DefaultSearchParam != "" {
		s.quick = text
	}
}

// Query encodes the current state.
func (s *Session) Query() (url.Values, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryLocked()
}

func (s *Session) queryLocked() (url.Values, error) {
	current := url.Values{}
	if dsp := s.state.Config().DefaultSearchParam; dsp != "" && s.quick != "" {
		current.Set(dsp, s.quick)
	}
	return s.deps.Codec.Encode(s.state, current)
}

// Search runs the current query: count and page concurrently, then label
// resolution for the page. A search superseded by a mutation or a newer
// search returns model.ErrCanceled and leaves LastResult alone.
func (s *Session) Search(ctx context.Context, page backend.Pagination) (*Result, error) {
	s.mu.Lock()
	gen := s.supersede()
	query, err := s.queryLocked()
	if err != nil {
		s.mu.Unlock()
		return nil, err
	}
	entity := s.state.Entity()
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	start := time.Now()
	defer cancel()
	defer func() {
		metrics.SearchLatency.WithLabelValues(entity).Observe(time.Since(start).Seconds())
	}()

	res, err := s.run(ctx, entity, query, page)
	if err == nil && ctx.Err() != nil {
		err = model.ErrCanceled
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.generation == gen {
		s.cancel = nil
	} else {
		err = model.ErrCanceled
	}

	switch {
	case err == nil:
		metrics.SearchesTotal.WithLabelValues(entity, "ok").Inc()
	case model.IsCanceled(err):
		metrics.SearchesTotal.WithLabelValues(entity, "canceled").Inc()
		return nil, model.ErrCanceled
	default:
		metrics.SearchesTotal.WithLabelValues(entity, "error").Inc()
		s.logger.Warn("Search failed", "entity", entity, "generation", gen, "error", err)
		return nil, err
	}

	res.Generation = gen
	s.last = res
	return res, nil
}

func (s *Session) run(ctx context.Context, entity string, query url.Values, page backend.Pagination) (*Result, error) {
	res := &Result{Entity: entity, Query: query, Page: page}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		n, err := s.deps.Backend.CountSearch(gctx, entity, query)
		if err != nil {
			return err
		}
		res.Count = n
		return nil
	})
	g.Go(func() error {
		records, err := s.deps.Backend.Search(gctx, entity, query, page)
		if err != nil {
			return err
		}
		res.Records = records
		return nil
	})
	if err := g.Wait(); err != nil {
		if ctx.Err() != nil {
			return nil, model.ErrCanceled
		}
		return nil, err
	}

	table, err := s.deps.Resolver.Resolve(ctx, entity, res.Records)
	if err != nil {
		return nil, err
	}
	res.Metadata = table
	return res, nil
}

// Close cancels the in-flight search.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
