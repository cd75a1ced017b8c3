package app

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
)

// Pinger is the minimal interface for a connection capable of Ping.
type Pinger interface{ Ping(ctx context.Context) error }

// BuildReadinessChecks returns the worker's readiness probes: the Redis
// connection always, the callback target as a configuration check, and the
// Tika backend only when one is configured. The backend API itself is not
// probed; callback delivery carries its own retry.
func BuildReadinessChecks(cfg config.Config, rdb Pinger) []Check {
	checks := []Check{
		{
			Name: "redis",
			Probe: func(ctx context.Context) error {
				if rdb == nil {
					return fmt.Errorf("redis not configured")
				}
				return rdb.Ping(ctx)
			},
		},
		{
			Name: "backend_config",
			Probe: func(context.Context) error {
				if strings.TrimSpace(cfg.BackendAPIURL) == "" {
					return fmt.Errorf("BACKEND_API_URL is not set")
				}
				return nil
			},
		},
	}
	if cfg.TikaEnabled() {
		checks = append(checks, Check{Name: "tika", Probe: tikaCheck(cfg.TikaURL)})
	}
	return checks
}

func tikaCheck(baseURL string) func(ctx context.Context) error {
	return func(ctx context.Context) error {
		client := &http.Client{Timeout: 2 * time.Second}
		req, _ := http.NewRequestWithContext(ctx, http.MethodGet, baseURL+"/version", nil)
		resp, err := client.Do(req)
		if err != nil {
			return err
		}
		defer func() { _ = resp.Body.Close() }()
		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}
		return fmt.Errorf("tika status %d", resp.StatusCode)
	}
}
