package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type failingHandler struct {
	slog.Handler
}

func (failingHandler) Handle(context.Context, slog.Record) error {
	return errors.New("disk full")
}

func textHandler(buf *bytes.Buffer, level slog.Level) slog.Handler {
	return slog.NewTextHandler(buf, &slog.HandlerOptions{Level: level})
}

func TestFanout(t *testing.T) {
	var debug, warn bytes.Buffer
	h := NewFanout(textHandler(&debug, slog.LevelDebug), textHandler(&warn, slog.LevelWarn))
	logger := slog.New(h).With("component", "codec").WithGroup("req")

	assert.True(t, h.Enabled(context.Background(), slog.LevelDebug))
	logger.Debug("decode", "entity", "fiches")
	logger.Warn("conflict", "field", "quantite")

	assert.Contains(t, debug.String(), "decode")
	assert.Contains(t, debug.String(), "component=codec")
	assert.Contains(t, debug.String(), "req.entity=fiches")
	assert.NotContains(t, warn.String(), "decode")
	assert.Contains(t, warn.String(), "req.field=quantite")
}

func TestFanout_ContinuesAfterError(t *testing.T) {
	var out bytes.Buffer
	base := textHandler(&out, slog.LevelInfo)
	h := NewFanout(failingHandler{base}, base)

	err := h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "msg", 0))
	assert.EqualError(t, err, "disk full")
	assert.Contains(t, out.String(), "msg")
}

func TestFanout_NoneEnabled(t *testing.T) {
	var out bytes.Buffer
	h := NewFanout(textHandler(&out, slog.LevelError))
	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
}

func TestMinLevel(t *testing.T) {
	var out bytes.Buffer
	h := NewMinLevel(textHandler(&out, slog.LevelDebug), slog.LevelWarn)

	assert.False(t, h.Enabled(context.Background(), slog.LevelInfo))
	assert.True(t, h.Enabled(context.Background(), slog.LevelError))

	require.NoError(t, h.Handle(context.Background(), slog.NewRecord(time.Now(), slog.LevelInfo, "info", 0)))
	assert.Empty(t, out.String())

	logger := slog.New(h).With("k", "v").WithGroup("g")
	logger.Error("boom", "x", 1)
	assert.Contains(t, out.String(), "boom")
	assert.Contains(t, out.String(), "k=v")
	assert.Contains(t, out.String(), "g.x=1")
}

func TestRepeatFilter(t *testing.T) {
	var out bytes.Buffer
	h := NewRepeatFilter(textHandler(&out, slog.LevelDebug), time.Minute)
	now := time.Now()
	h.now = func() time.Time { return now }
	logger := slog.New(h)

	for i := 0; i < 3; i++ {
		logger.Warn("conflict", "field", "quantite")
		logger.Info("search", "entity", "fiches")
	}
	logger.Warn("conflict", "field", "age")

	assert.Equal(t, 1, strings.Count(out.String(), "field=quantite"))
	assert.Equal(t, 3, strings.Count(out.String(), "msg=search"))
	assert.Equal(t, 1, strings.Count(out.String(), "field=age"))

	now = now.Add(2 * time.Minute)
	logger.Warn("conflict", "field", "quantite")
	assert.Contains(t, out.String(), "repeated=2")
}

func TestRepeatFilter_AttrsDistinguish(t *testing.T) {
	var out bytes.Buffer
	h := NewRepeatFilter(textHandler(&out, slog.LevelDebug), time.Minute)

	slog.New(h).With("session", "a").Warn("superseded")
	slog.New(h).With("session", "b").Warn("superseded")
	slog.New(h).WithGroup("g").Warn("superseded")

	assert.Equal(t, 3, strings.Count(out.String(), "superseded"))
}

func TestRepeatFilter_Disabled(t *testing.T) {
	var out bytes.Buffer
	logger := slog.New(NewRepeatFilter(textHandler(&out, slog.LevelDebug), 0))
	logger.Warn("same")
	logger.Warn("same")
	assert.Equal(t, 2, strings.Count(out.String(), "same"))
}
