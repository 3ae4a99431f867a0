package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemexbase/gemex/internal/metrics"
)

func newTestServer(cfg Config) *serverImpl {
	return New(cfg, nil).(*serverImpl)
}

func okHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
}

func TestTagRequest(t *testing.T) {
	srv := newTestServer(Config{})

	handler := srv.tagRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := GetRequestID(r.Context())
		assert.NotEmpty(t, id)
		w.Header().Set("X-Test-Request-ID", id)
	}))

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	resp := w.Result()
	assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))
	assert.Equal(t, resp.Header.Get("X-Request-ID"), resp.Header.Get("X-Test-Request-ID"))
}

func TestTagRequest_ExistingID(t *testing.T) {
	srv := newTestServer(Config{})

	handler := srv.tagRequest(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "existing-id", GetRequestID(r.Context()))
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("X-Request-ID", "existing-id")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	assert.Equal(t, "existing-id", w.Result().Header.Get("X-Request-ID"))
}

func TestGetRequestID_Missing(t *testing.T) {
	assert.Equal(t, "", GetRequestID(context.Background()))
}

func TestRecoverPanics(t *testing.T) {
	srv := newTestServer(Config{})

	handler := srv.recoverPanics(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("oops")
	}))

	w := httptest.NewRecorder()
	assert.NotPanics(t, func() {
		handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	})

	resp := w.Result()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	var apiErr APIError
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&apiErr))
	assert.Equal(t, "INTERNAL_ERROR", apiErr.Code)
}

func TestObserve_RecordsRoute(t *testing.T) {
	srv := newTestServer(Config{})
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search/{entity}", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	})
	handler := srv.observe(mux)

	counter := metrics.HTTPRequests.WithLabelValues("GET /api/v1/search/{entity}", "502")
	before := testutil.ToFloat64(counter)

	w := httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/api/v1/search/fiches?item=fiches", nil))
	assert.Equal(t, http.StatusBadGateway, w.Code)
	assert.Equal(t, before+1, testutil.ToFloat64(counter))

	unmatched := metrics.HTTPRequests.WithLabelValues("unmatched", "404")
	before = testutil.ToFloat64(unmatched)
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/nowhere", nil))
	assert.Equal(t, before+1, testutil.ToFloat64(unmatched))
}

func TestRequestLevel(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	assert.Equal(t, slog.LevelInfo, requestLevel(req, http.StatusOK))
	assert.Equal(t, slog.LevelInfo, requestLevel(req, http.StatusNotFound))
	assert.Equal(t, slog.LevelDebug, requestLevel(req, StatusClientClosedRequest))
	assert.Equal(t, slog.LevelError, requestLevel(req, http.StatusBadGateway))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.Equal(t, slog.LevelWarn, requestLevel(req.WithContext(ctx), http.StatusBadGateway))
}

func TestTimeoutMiddleware(t *testing.T) {
	handler := TimeoutMiddleware(10 * time.Millisecond)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		deadline, ok := r.Context().Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(10*time.Millisecond), deadline, 50*time.Millisecond)
	}))
	handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
}

func TestChain_Order(t *testing.T) {
	var order []string
	mw := func(name string) Middleware {
		return func(next http.Handler) http.Handler {
			return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				order = append(order, name)
				next.ServeHTTP(w, r)
			})
		}
	}

	Chain(okHandler(), mw("a"), mw("b"), mw("c")).ServeHTTP(httptest.NewRecorder(), httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, []string{"a", "b", "c"}, order)
}

func TestCORSPolicy(t *testing.T) {
	cfg := Config{EnableCORS: true, AllowCredentials: true}
	cfg.ApplyDefaults()
	handler := newTestServer(cfg).cors.middleware(okHandler())

	req := httptest.NewRequest("OPTIONS", "/", nil)
	req.Header.Set("Origin", "https://gemex.example.org")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	resp := w.Result()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Equal(t, "https://gemex.example.org", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "PATCH")
	assert.Equal(t, "true", resp.Header.Get("Access-Control-Allow-Credentials"))

	w = httptest.NewRecorder()
	handler.ServeHTTP(w, httptest.NewRequest("GET", "/", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Empty(t, w.Result().Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSPolicy_AllowedOrigins(t *testing.T) {
	handler := newTestServer(Config{
		EnableCORS:     true,
		AllowedOrigins: []string{"https://allowed.org"},
	}).cors.middleware(okHandler())

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://allowed.org")
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Equal(t, "https://allowed.org", w.Result().Header.Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://evil.org")
	w = httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	assert.Empty(t, w.Result().Header.Get("Access-Control-Allow-Origin"))
}

func TestCORSPolicy_Disabled(t *testing.T) {
	assert.Nil(t, newTestServer(Config{}).cors)
	assert.False(t, newCORSPolicy(Config{EnableCORS: true}).allows(""))
}

func TestNoStore(t *testing.T) {
	w := httptest.NewRecorder()
	noStore(okHandler()).ServeHTTP(w, httptest.NewRequest("GET", "/", nil))

	resp := w.Result()
	assert.Equal(t, "nosniff", resp.Header.Get("X-Content-Type-Options"))
	assert.Equal(t, "DENY", resp.Header.Get("X-Frame-Options"))
	assert.Equal(t, "no-store", resp.Header.Get("Cache-Control"))
}

func TestWrapMiddleware_CORSOptional(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Origin", "https://gemex.example.org")

	w := httptest.NewRecorder()
	newTestServer(Config{}).wrapMiddleware(okHandler()).ServeHTTP(w, req)
	assert.Empty(t, w.Result().Header.Get("Access-Control-Allow-Origin"))

	w = httptest.NewRecorder()
	newTestServer(Config{EnableCORS: true}).wrapMiddleware(okHandler()).ServeHTTP(w, req)
	assert.Equal(t, "https://gemex.example.org", w.Result().Header.Get("Access-Control-Allow-Origin"))
}
