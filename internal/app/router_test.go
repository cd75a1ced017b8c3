package app

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
)

func TestHealthz(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	BuildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestMetricsEndpointServes(t *testing.T) {
	t.Parallel()

	rec := httptest.NewRecorder()
	BuildRouter().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Body.String())
}

func TestReadyzAllChecksHealthy(t *testing.T) {
	t.Parallel()

	router := BuildRouter(
		Check{Name: "redis", Probe: func(context.Context) error { return nil }},
		Check{Name: "tika", Probe: func(context.Context) error { return nil }},
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Checks []struct {
			Name    string `json:"name"`
			OK      bool   `json:"ok"`
			Details string `json:"details"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Checks, 2)
	assert.Equal(t, "redis", body.Checks[0].Name)
	assert.True(t, body.Checks[0].OK)
	assert.Empty(t, body.Checks[0].Details)
	assert.True(t, body.Checks[1].OK)
}

func TestReadyzFailingCheck(t *testing.T) {
	t.Parallel()

	router := BuildRouter(
		Check{Name: "redis", Probe: func(context.Context) error { return nil }},
		Check{Name: "tika", Probe: func(context.Context) error { return errors.New("connection refused") }},
	)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/readyz", nil))
	require.Equal(t, http.StatusServiceUnavailable, rec.Code)

	var body struct {
		Checks []struct {
			Name    string `json:"name"`
			OK      bool   `json:"ok"`
			Details string `json:"details"`
		} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Len(t, body.Checks, 2)
	assert.True(t, body.Checks[0].OK, "a healthy check still reports ok")
	assert.False(t, body.Checks[1].OK)
	assert.Contains(t, body.Checks[1].Details, "connection refused")
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func TestBuildReadinessChecks(t *testing.T) {
	t.Parallel()

	backend := config.Config{BackendAPIURL: "http://backend:8080"}

	t.Run("redis and backend config", func(t *testing.T) {
		t.Parallel()
		checks := BuildReadinessChecks(backend, pingFunc(func(context.Context) error { return nil }))
		require.Len(t, checks, 2)
		assert.Equal(t, "redis", checks[0].Name)
		assert.NoError(t, checks[0].Probe(context.Background()))
		assert.Equal(t, "backend_config", checks[1].Name)
		assert.NoError(t, checks[1].Probe(context.Background()))
	})

	t.Run("redis failure surfaces", func(t *testing.T) {
		t.Parallel()
		checks := BuildReadinessChecks(backend, pingFunc(func(context.Context) error {
			return errors.New("dial tcp: connection refused")
		}))
		require.Len(t, checks, 2)
		assert.Error(t, checks[0].Probe(context.Background()))
	})

	t.Run("nil connection is never ready", func(t *testing.T) {
		t.Parallel()
		checks := BuildReadinessChecks(backend, nil)
		require.Len(t, checks, 2)
		assert.Error(t, checks[0].Probe(context.Background()))
	})

	t.Run("missing backend url fails the config check", func(t *testing.T) {
		t.Parallel()
		checks := BuildReadinessChecks(config.Config{BackendAPIURL: "  "}, pingFunc(func(context.Context) error { return nil }))
		require.Len(t, checks, 2)
		assert.ErrorContains(t, checks[1].Probe(context.Background()), "BACKEND_API_URL")
	})

	t.Run("tika probe added when configured", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/version" {
				w.WriteHeader(http.StatusOK)
				return
			}
			w.WriteHeader(http.StatusNotFound)
		}))
		t.Cleanup(srv.Close)

		cfg := config.Config{BackendAPIURL: backend.BackendAPIURL, TikaURL: srv.URL}
		checks := BuildReadinessChecks(cfg, pingFunc(func(context.Context) error { return nil }))
		require.Len(t, checks, 3)
		assert.Equal(t, "tika", checks[2].Name)
		assert.NoError(t, checks[2].Probe(context.Background()))
	})

	t.Run("tika error status fails the probe", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		t.Cleanup(srv.Close)

		cfg := config.Config{BackendAPIURL: backend.BackendAPIURL, TikaURL: srv.URL}
		checks := BuildReadinessChecks(cfg, pingFunc(func(context.Context) error { return nil }))
		require.Len(t, checks, 3)
		assert.ErrorContains(t, checks[2].Probe(context.Background()), "tika status 500")
	})
}
