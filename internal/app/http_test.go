package app

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rwatch/datagen/internal/loadgen"
	"github.com/rwatch/datagen/internal/storage"
	"github.com/rwatch/datagen/internal/storage/memory"
)

func newTestHTTPServer(t *testing.T, withPipeline bool) (*httptest.Server, *memory.Store) {
	t.Helper()

	reg := prometheus.NewRegistry()
	store, err := memory.New(memory.WithMetrics(reg))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	var p *loadgen.Pipeline
	if withPipeline {
		p, err = loadgen.NewPipeline(store, loadgen.DefaultConfig())
		require.NoError(t, err)
		require.NoError(t, loadgen.RegisterMetrics(reg, p))
	}

	srv := httptest.NewServer(NewHTTPServer(store, p, reg).Routes())
	t.Cleanup(srv.Close)
	return srv, store
}

func TestHTTPServer_Stats(t *testing.T) {
	srv, store := newTestHTTPServer(t, false)

	_, err := store.Append(context.Background(), append(storage.FieldLines(2), "oops"))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var body StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "interactive", body.Mode)
	assert.Equal(t, 2, body.Buffer.Entries)
	assert.Equal(t, int64(1), body.Buffer.TotalRejected)
	assert.Nil(t, body.Pipeline)
}

func TestHTTPServer_StatsRandomMode(t *testing.T) {
	srv, _ := newTestHTTPServer(t, true)

	resp, err := http.Get(srv.URL + "/api/stats")
	require.NoError(t, err)
	defer resp.Body.Close()

	var body StatsResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, "random", body.Mode)
	assert.NotNil(t, body.Pipeline)
}

func TestHTTPServer_Metrics(t *testing.T) {
	srv, store := newTestHTTPServer(t, true)

	_, err := store.Append(context.Background(), storage.FieldLines(3))
	require.NoError(t, err)

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	text := string(b)

	assert.Contains(t, text, "datagen_buffer_entries 3")
	assert.Contains(t, text, "datagen_buffer_appended_entries_total 3")
	assert.Contains(t, text, "datagen_loadgen_generated_total")
}

func TestHTTPServer_Health(t *testing.T) {
	srv, _ := newTestHTTPServer(t, false)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, `{"status":"ok"}`, strings.TrimSpace(string(b)))
}

func TestHTTPServer_MethodNotAllowed(t *testing.T) {
	srv, _ := newTestHTTPServer(t, false)

	resp, err := http.Post(srv.URL+"/api/stats", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}
