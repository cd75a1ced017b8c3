// Package app assembles the worker's operational surface: the ops HTTP
// router and the readiness checks behind it. The worker serves no business
// endpoints; jobs only ever arrive through the queue.
package app

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
)

// Check is one named readiness probe.
type Check struct {
	Name  string
	Probe func(ctx context.Context) error
}

// BuildRouter constructs the ops handler: liveness, readiness, and metrics.
func BuildRouter(checks ...Check) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(observability.HTTPMetricsMiddleware)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusOK) })
	r.Get("/metrics", func(w http.ResponseWriter, req *http.Request) { promhttp.Handler().ServeHTTP(w, req) })
	r.Get("/readyz", ReadyzHandler(checks...))

	return r
}

// ReadyzHandler runs every probe under a shared 2 second budget and reports
// them individually. Any failure makes the whole endpoint 503.
func ReadyzHandler(checks ...Check) http.HandlerFunc {
	type result struct {
		Name    string `json:"name"`
		OK      bool   `json:"ok"`
		Details string `json:"details,omitempty"`
	}
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		results := make([]result, 0, len(checks))
		ok := true
		for _, c := range checks {
			if err := c.Probe(ctx); err != nil {
				ok = false
				results = append(results, result{Name: c.Name, OK: false, Details: err.Error()})
				continue
			}
			results = append(results, result{Name: c.Name, OK: true})
		}

		st := http.StatusOK
		if !ok {
			st = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(st)
		_ = json.NewEncoder(w).Encode(map[string]any{"checks": results})
	}
}
