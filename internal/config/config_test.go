package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

// clearConfigEnv blanks every variable Load reads so a test starts from
// defaults regardless of the host environment.
func clearConfigEnv(t *testing.T) {
	t.Helper()
	names := []string{
		"APP_ENV", "REDIS_ADDR", "REDIS_PASSWORD", "REDIS_DB",
		"RESUME_QUEUE", "COMPARE_QUEUE", "DEAD_LETTER_QUEUE",
		"BACKEND_API_URL", "CALLBACK_TIMEOUT",
		"GEMINI_API_KEY", "GEMINI_MODEL", "AI_TIMEOUT",
		"DOWNLOAD_TIMEOUT", "TIKA_URL",
		"MAX_ATTEMPTS", "RETRY_BASE_DELAY", "DEQUEUE_TIMEOUT", "QUEUE_ERROR_PAUSE",
		"BATCH_CONCURRENCY", "OPS_ADDR",
		"OTEL_EXPORTER_OTLP_ENDPOINT", "OTEL_SERVICE_NAME",
		"CONFIG_FILE",
	}
	for _, name := range names {
		t.Setenv(name, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearConfigEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AppEnv != "dev" {
		t.Errorf("Expected AppEnv to be %q, got %q", "dev", cfg.AppEnv)
	}
	if cfg.RedisAddr != "localhost:6379" {
		t.Errorf("Expected RedisAddr to be %q, got %q", "localhost:6379", cfg.RedisAddr)
	}
	if cfg.ResumeQueue != "resume_parse_queue" {
		t.Errorf("Expected ResumeQueue to be %q, got %q", "resume_parse_queue", cfg.ResumeQueue)
	}
	if cfg.CompareQueue != "resume_compare_queue" {
		t.Errorf("Expected CompareQueue to be %q, got %q", "resume_compare_queue", cfg.CompareQueue)
	}
	if cfg.BackendAPIURL != "http://localhost:5000" {
		t.Errorf("Expected BackendAPIURL to be %q, got %q", "http://localhost:5000", cfg.BackendAPIURL)
	}
	if cfg.CallbackTimeout != 30*time.Second {
		t.Errorf("Expected CallbackTimeout to be 30s, got %v", cfg.CallbackTimeout)
	}
	if cfg.GeminiModel != "gemini-2.5-flash-lite" {
		t.Errorf("Expected GeminiModel to be %q, got %q", "gemini-2.5-flash-lite", cfg.GeminiModel)
	}
	if cfg.AITimeout != 120*time.Second {
		t.Errorf("Expected AITimeout to be 120s, got %v", cfg.AITimeout)
	}
	if cfg.DownloadTimeout != 60*time.Second {
		t.Errorf("Expected DownloadTimeout to be 60s, got %v", cfg.DownloadTimeout)
	}
	if cfg.MaxAttempts != 3 {
		t.Errorf("Expected MaxAttempts to be 3, got %d", cfg.MaxAttempts)
	}
	if cfg.RetryBaseDelay != 5*time.Second {
		t.Errorf("Expected RetryBaseDelay to be 5s, got %v", cfg.RetryBaseDelay)
	}
	if cfg.DequeueTimeout != 0 {
		t.Errorf("Expected DequeueTimeout to be 0, got %v", cfg.DequeueTimeout)
	}
	if cfg.QueueErrorPause != 5*time.Second {
		t.Errorf("Expected QueueErrorPause to be 5s, got %v", cfg.QueueErrorPause)
	}
	if cfg.BatchConcurrency != 20 {
		t.Errorf("Expected BatchConcurrency to be 20, got %d", cfg.BatchConcurrency)
	}
	if cfg.OpsAddr != ":9090" {
		t.Errorf("Expected OpsAddr to be %q, got %q", ":9090", cfg.OpsAddr)
	}
	if cfg.OTELServiceName != "aices-ai-worker" {
		t.Errorf("Expected OTELServiceName to be %q, got %q", "aices-ai-worker", cfg.OTELServiceName)
	}
	if cfg.TikaEnabled() {
		t.Error("Expected TikaEnabled to be false by default")
	}
	if cfg.DeadLetterEnabled() {
		t.Error("Expected DeadLetterEnabled to be false by default")
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("APP_ENV", "prod")
	t.Setenv("REDIS_ADDR", "redis:6380")
	t.Setenv("REDIS_DB", "2")
	t.Setenv("DEAD_LETTER_QUEUE", "resume_dead_letter")
	t.Setenv("CALLBACK_TIMEOUT", "10s")
	t.Setenv("MAX_ATTEMPTS", "5")
	t.Setenv("TIKA_URL", "http://tika:9998")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.AppEnv != "prod" {
		t.Errorf("Expected AppEnv to be %q, got %q", "prod", cfg.AppEnv)
	}
	if cfg.RedisAddr != "redis:6380" {
		t.Errorf("Expected RedisAddr to be %q, got %q", "redis:6380", cfg.RedisAddr)
	}
	if cfg.RedisDB != 2 {
		t.Errorf("Expected RedisDB to be 2, got %d", cfg.RedisDB)
	}
	if cfg.CallbackTimeout != 10*time.Second {
		t.Errorf("Expected CallbackTimeout to be 10s, got %v", cfg.CallbackTimeout)
	}
	if cfg.MaxAttempts != 5 {
		t.Errorf("Expected MaxAttempts to be 5, got %d", cfg.MaxAttempts)
	}
	if !cfg.TikaEnabled() {
		t.Error("Expected TikaEnabled to be true")
	}
	if !cfg.DeadLetterEnabled() {
		t.Error("Expected DeadLetterEnabled to be true")
	}
}

func TestLoadTrimsBackendURLSlash(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("BACKEND_API_URL", "http://backend:5000///")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.BackendAPIURL != "http://backend:5000" {
		t.Errorf("Expected BackendAPIURL to be %q, got %q", "http://backend:5000", cfg.BackendAPIURL)
	}
}

func TestLoadOverlayFillsUnsetKeys(t *testing.T) {
	clearConfigEnv(t)
	path := filepath.Join(t.TempDir(), "worker.yaml")
	overlay := "redis_addr: overlay:6379\ngemini_model: gemini-2.5-pro\nmax_attempts: 4\nbackend_api_url: http://overlay:5000/\n"
	if err := os.WriteFile(path, []byte(overlay), 0o600); err != nil {
		t.Fatalf("write overlay: %v", err)
	}
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("GEMINI_MODEL", "gemini-2.5-flash")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.RedisAddr != "overlay:6379" {
		t.Errorf("Expected RedisAddr to be %q, got %q", "overlay:6379", cfg.RedisAddr)
	}
	// Environment beats the overlay file.
	if cfg.GeminiModel != "gemini-2.5-flash" {
		t.Errorf("Expected GeminiModel to be %q, got %q", "gemini-2.5-flash", cfg.GeminiModel)
	}
	if cfg.MaxAttempts != 4 {
		t.Errorf("Expected MaxAttempts to be 4, got %d", cfg.MaxAttempts)
	}
	if cfg.BackendAPIURL != "http://overlay:5000" {
		t.Errorf("Expected BackendAPIURL to be %q, got %q", "http://overlay:5000", cfg.BackendAPIURL)
	}
}

func TestLoadOverlayMissingFile(t *testing.T) {
	clearConfigEnv(t)
	t.Setenv("CONFIG_FILE", filepath.Join(t.TempDir(), "absent.yaml"))

	if _, err := Load(); err == nil {
		t.Fatal("Expected Load() to fail for a missing overlay file")
	}
}

func TestEnvHelpers(t *testing.T) {
	tests := []struct {
		appEnv string
		dev    bool
		prod   bool
		test   bool
	}{
		{"dev", true, false, false},
		{"DEV", true, false, false},
		{"prod", false, true, false},
		{"test", false, false, true},
		{"staging", false, false, false},
	}
	for _, tt := range tests {
		cfg := Config{AppEnv: tt.appEnv}
		if cfg.IsDev() != tt.dev {
			t.Errorf("IsDev() for %q: expected %v", tt.appEnv, tt.dev)
		}
		if cfg.IsProd() != tt.prod {
			t.Errorf("IsProd() for %q: expected %v", tt.appEnv, tt.prod)
		}
		if cfg.IsTest() != tt.test {
			t.Errorf("IsTest() for %q: expected %v", tt.appEnv, tt.test)
		}
	}
}
