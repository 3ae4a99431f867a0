package logging

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/cespare/xxhash/v2"
)

// RepeatFilter suppresses warnings and errors identical to one already
// written within a window. The next occurrence after the window carries a
// "repeated" attribute with the number of records dropped in between.
// Records below slog.LevelWarn always pass.
//
// Bookmarked search URLs with conflicting operator parameters would
// otherwise log the same warning on every page load.
type RepeatFilter struct {
	handler slog.Handler
	window  time.Duration
	state   *repeatState
	// prefix identifies the attrs and groups added through WithAttrs/WithGroup.
	prefix uint64
	now    func() time.Time
}

type repeatState struct {
	mu   sync.Mutex
	seen map[uint64]*repeatEntry
}

type repeatEntry struct {
	until      time.Time
	suppressed int
}

// NewRepeatFilter wraps handler. A window <= 0 disables suppression.
func NewRepeatFilter(handler slog.Handler, window time.Duration) *RepeatFilter {
	return &RepeatFilter{
		handler: handler,
		window:  window,
		state:   &repeatState{seen: make(map[uint64]*repeatEntry)},
		now:     time.Now,
	}
}

func (h *RepeatFilter) Enabled(ctx context.Context, level slog.Level) bool {
	return h.handler.Enabled(ctx, level)
}

func (h *RepeatFilter) Handle(ctx context.Context, r slog.Record) error {
	if h.window <= 0 || r.Level < slog.LevelWarn {
		return h.handler.Handle(ctx, r)
	}

	key := h.hash(r)
	now := h.now()

	h.state.mu.Lock()
	entry, ok := h.state.seen[key]
	if ok && now.Before(entry.until) {
		entry.suppressed++
		h.state.mu.Unlock()
		return nil
	}
	suppressed := 0
	if ok {
		suppressed = entry.suppressed
	}
	h.state.seen[key] = &repeatEntry{until: now.Add(h.window)}
	h.prune(now)
	h.state.mu.Unlock()

	if suppressed > 0 {
		r = r.Clone()
		r.AddAttrs(slog.Int("repeated", suppressed))
	}
	return h.handler.Handle(ctx, r)
}

// prune drops expired entries without pending counts. Caller must hold the lock.
func (h *RepeatFilter) prune(now time.Time) {
	for key, entry := range h.state.seen {
		if entry.suppressed == 0 && now.After(entry.until) {
			delete(h.state.seen, key)
		}
	}
}

// hash covers level, message and attributes, not the time.
func (h *RepeatFilter) hash(r slog.Record) uint64 {
	d := xxhash.New()
	fmt.Fprintf(d, "%d|%d|%s", h.prefix, r.Level, r.Message)
	r.Attrs(func(a slog.Attr) bool {
		fmt.Fprintf(d, "|%s=%s", a.Key, a.Value.String())
		return true
	})
	return d.Sum64()
}

func (h *RepeatFilter) derive(handler slog.Handler, extra string) *RepeatFilter {
	d := xxhash.New()
	fmt.Fprintf(d, "%d|%s", h.prefix, extra)
	return &RepeatFilter{
		handler: handler,
		window:  h.window,
		state:   h.state,
		prefix:  d.Sum64(),
		now:     h.now,
	}
}

func (h *RepeatFilter) WithAttrs(attrs []slog.Attr) slog.Handler {
	extra := ""
	for _, a := range attrs {
		extra += a.Key + "=" + a.Value.String() + ";"
	}
	return h.derive(h.handler.WithAttrs(attrs), extra)
}

func (h *RepeatFilter) WithGroup(name string) slog.Handler {
	return h.derive(h.handler.WithGroup(name), "group:"+name)
}
