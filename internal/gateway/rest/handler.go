// Package rest exposes the search schema, stateless searches and search
// sessions as a JSON API.
package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gemexbase/gemex/internal/backend"
	"github.com/gemexbase/gemex/internal/codec"
	"github.com/gemexbase/gemex/internal/searchconf"
	"github.com/gemexbase/gemex/internal/server"
	"github.com/gemexbase/gemex/internal/session"
	"github.com/gemexbase/gemex/pkg/model"
)

// Default body size limits
const (
	DefaultMaxBodySize = 1 << 20 // 1MB
)

// Default request timeouts
const (
	DefaultRequestTimeout = 30 * time.Second
	SearchRequestTimeout  = 60 * time.Second // count + page + label lookups
)

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeInvalidValue  = "INVALID_VALUE"
	ErrCodeUnknownEntity = "UNKNOWN_ENTITY"
	ErrCodeUnknownField  = "UNKNOWN_FIELD"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeBackend       = "BACKEND_ERROR"
	ErrCodeUnavailable   = "UNAVAILABLE"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

// PageLimits bounds the page size clients may ask for.
type PageLimits struct {
	DefaultPageSize int
	MaxPageSize     int
}

type Handler struct {
	codec    *codec.Codec
	registry *searchconf.Registry
	sessions *session.Store
	limits   PageLimits
	logger   *slog.Logger
}

// NewHandler creates the REST handler. Stateless searches share the
// collaborators of the session store.
func NewHandler(sessions *session.Store, limits PageLimits, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	deps := sessions.Deps()
	return &Handler{
		codec:    deps.Codec,
		registry: deps.Codec.Registry(),
		sessions: sessions,
		limits:   limits,
		logger:   logger.With("component", "rest"),
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Schema
	mux.HandleFunc("GET /api/v1/entities", withTimeout(h.handleListEntities, DefaultRequestTimeout))
	mux.HandleFunc("GET /api/v1/entities/{entity}", withTimeout(h.handleGetEntity, DefaultRequestTimeout))

	// Stateless operations: the query string is the whole state
	mux.HandleFunc("GET /api/v1/filters/{entity}", withTimeout(h.handleDecodeFilters, DefaultRequestTimeout))
	mux.HandleFunc("GET /api/v1/search/{entity}", withTimeout(h.handleSearch, SearchRequestTimeout))

	// Sessions
	mux.HandleFunc("POST /api/v1/sessions", withTimeout(maxBodySize(h.handleCreateSession, DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("GET /api/v1/sessions/{id}", withTimeout(h.handleGetSession, DefaultRequestTimeout))
	mux.HandleFunc("DELETE /api/v1/sessions/{id}", withTimeout(h.handleDeleteSession, DefaultRequestTimeout))
	mux.HandleFunc("PUT /api/v1/sessions/{id}/entity", withTimeout(maxBodySize(h.handleSetEntity, DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("PATCH /api/v1/sessions/{id}/filters/{field}", withTimeout(maxBodySize(h.handlePatchFilter, DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("PUT /api/v1/sessions/{id}/quick-search", withTimeout(maxBodySize(h.handleQuickSearch, DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("POST /api/v1/sessions/{id}/clear", withTimeout(h.handleClearSession, DefaultRequestTimeout))
	mux.HandleFunc("POST /api/v1/sessions/{id}/search", withTimeout(h.handleSessionSearch, SearchRequestTimeout))

	// Operations
	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))
	mux.Handle("GET /metrics", promhttp.Handler())
}

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	writeJSON(w, status, server.APIError{Code: code, Message: message})
}

// writeInternalError writes an internal error response, but first checks if the error
// is due to client cancellation (returns 499 instead of 500).
func (h *Handler) writeInternalError(w http.ResponseWriter, r *http.Request, err error, message string) {
	if model.IsCanceled(err) {
		w.WriteHeader(server.StatusClientClosedRequest)
		return
	}
	h.logger.Error(message, "error", err, "request_id", server.GetRequestID(r.Context()))
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message)
}

// writeSearchError maps search errors to responses. Backend HTTP errors are
// checked first: a 404 from the backend is a gateway problem, not a missing
// session.
func (h *Handler) writeSearchError(w http.ResponseWriter, r *http.Request, err error) {
	if httpErr, ok := backend.GetHTTPError(err); ok {
		h.logger.Warn("Backend request failed",
			"status", httpErr.StatusCode,
			"request_id", server.GetRequestID(r.Context()),
		)
		writeError(w, http.StatusBadGateway, ErrCodeBackend, "Search backend error")
		return
	}
	switch {
	case errors.Is(err, model.ErrUnknownEntity):
		writeError(w, http.StatusNotFound, ErrCodeUnknownEntity, err.Error())
	case errors.Is(err, model.ErrUnknownField):
		writeError(w, http.StatusBadRequest, ErrCodeUnknownField, err.Error())
	case errors.Is(err, model.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, ErrCodeInvalidValue, err.Error())
	case errors.Is(err, model.ErrNotFound):
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "Session not found")
	case errors.Is(err, session.ErrTooManySessions):
		writeError(w, http.StatusServiceUnavailable, ErrCodeUnavailable, "Too many sessions")
	default:
		h.writeInternalError(w, r, err, "Search failed")
	}
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return server.TimeoutMiddleware(timeout)(next).ServeHTTP
}
