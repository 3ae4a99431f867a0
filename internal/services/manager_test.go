package services

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gemexbase/gemex/internal/config"
)

func newFakeBackend(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/tags/search/", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "bois", r.URL.Query().Get("nom"))
		_, _ = w.Write([]byte(`[{"id": 1, "nom": "bois"}]`))
	})
	mux.HandleFunc("GET /api/tags/search/count/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"count": 1}`))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T, backendURL string) *config.Config {
	t.Helper()
	cfg := config.Default()
	cfg.Backend.BaseURL = backendURL
	require.NoError(t, cfg.Apply(t.TempDir(), t.TempDir()))
	cfg.Server.Host = "127.0.0.1"
	cfg.Server.HTTPPort = 0
	return cfg
}

func TestManager_Lifecycle(t *testing.T) {
	cfg := testConfig(t, newFakeBackend(t).URL)
	mgr := NewManager(cfg, nil)

	require.NoError(t, mgr.Init(context.Background()))
	assert.Contains(t, mgr.Registry().Entities(), "tags")

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, mgr.Start(ctx))
	require.Eventually(t, func() bool { return mgr.Addr() != "" }, time.Second, 10*time.Millisecond)

	resp, err := http.Get(fmt.Sprintf("http://%s/health", mgr.Addr()))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp, err = http.Get(fmt.Sprintf("http://%s/api/v1/search/tags?nom=bois", mgr.Addr()))
	require.NoError(t, err)
	var res struct {
		Count   int                      `json:"count"`
		Records []map[string]interface{} `json:"records"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&res))
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, res.Count)
	assert.Len(t, res.Records, 1)

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	mgr.Shutdown(shutdownCtx)
}

func TestManager_StartBeforeInit(t *testing.T) {
	mgr := NewManager(config.Default(), nil)
	assert.Error(t, mgr.Start(context.Background()))
	assert.Empty(t, mgr.Addr())
}

func TestManager_InitBadSchema(t *testing.T) {
	cfg := testConfig(t, "http://localhost:1")
	cfg.Search.SchemaFile = filepath.Join(t.TempDir(), "schema.yml")
	require.NoError(t, os.WriteFile(cfg.Search.SchemaFile, []byte("entities: [{name: x, fields: [{name: y, type: vitrine}]}]"), 0644))

	err := NewManager(cfg, nil).Init(context.Background())
	assert.ErrorContains(t, err, "failed to load search schema")
}

func TestLoadRegistry(t *testing.T) {
	reg, err := LoadRegistry("")
	require.NoError(t, err)
	assert.Contains(t, reg.Entities(), "fiches")

	_, err = LoadRegistry(filepath.Join(t.TempDir(), "missing.yml"))
	assert.Error(t, err)
}
