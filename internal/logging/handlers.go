package logging

import (
	"context"
	"errors"
	"log/slog"
)

// Fanout sends each record to every handler enabled for its level.
type Fanout struct {
	handlers []slog.Handler
}

// NewFanout creates a handler writing to all of handlers.
func NewFanout(handlers ...slog.Handler) *Fanout {
	return &Fanout{handlers: handlers}
}

// Enabled is true when at least one handler takes the level.
func (h *Fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, handler := range h.handlers {
		if handler.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

// Handle writes to every enabled handler, even after one fails, and joins
// their errors.
func (h *Fanout) Handle(ctx context.Context, r slog.Record) error {
	var errs []error
	for _, handler := range h.handlers {
		if !handler.Enabled(ctx, r.Level) {
			continue
		}
		if err := handler.Handle(ctx, r.Clone()); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (h *Fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &Fanout{handlers: h.each(func(s slog.Handler) slog.Handler { return s.WithAttrs(attrs) })}
}

func (h *Fanout) WithGroup(name string) slog.Handler {
	return &Fanout{handlers: h.each(func(s slog.Handler) slog.Handler { return s.WithGroup(name) })}
}

func (h *Fanout) each(fn func(slog.Handler) slog.Handler) []slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, handler := range h.handlers {
		out[i] = fn(handler)
	}
	return out
}

// MinLevel drops records below a level before they reach the wrapped handler.
type MinLevel struct {
	handler slog.Handler
	min     slog.Level
}

// NewMinLevel wraps handler so that it only sees records at min or above.
func NewMinLevel(handler slog.Handler, min slog.Level) *MinLevel {
	return &MinLevel{handler: handler, min: min}
}

func (h *MinLevel) Enabled(ctx context.Context, level slog.Level) bool {
	return level >= h.min && h.handler.Enabled(ctx, level)
}

func (h *MinLevel) Handle(ctx context.Context, r slog.Record) error {
	if r.Level < h.min {
		return nil
	}
	return h.handler.Handle(ctx, r)
}

func (h *MinLevel) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &MinLevel{handler: h.handler.WithAttrs(attrs), min: h.min}
}

func (h *MinLevel) WithGroup(name string) slog.Handler {
	return &MinLevel{handler: h.handler.WithGroup(name), min: h.min}
}
