// Package config defines configuration parsing and helpers.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/caarlos0/env/v10"
)

// Config holds all worker configuration parsed from environment variables,
// optionally overlaid by a flat YAML file (CONFIG_FILE) for keys the
// environment leaves unset.
type Config struct {
	AppEnv string `env:"APP_ENV" envDefault:"dev"`

	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`

	// ResumeQueue and CompareQueue are the lists the worker blocks on.
	ResumeQueue  string `env:"RESUME_QUEUE" envDefault:"resume_parse_queue"`
	CompareQueue string `env:"COMPARE_QUEUE" envDefault:"resume_compare_queue"`
	// DeadLetterQueue receives jobs that exhausted their attempts. Empty
	// disables dead-lettering and exhausted jobs are dropped with a log
	// record only.
	DeadLetterQueue string `env:"DEAD_LETTER_QUEUE"`

	BackendAPIURL   string        `env:"BACKEND_API_URL" envDefault:"http://localhost:5000"`
	CallbackTimeout time.Duration `env:"CALLBACK_TIMEOUT" envDefault:"30s"`

	GeminiAPIKey string        `env:"GEMINI_API_KEY"`
	GeminiModel  string        `env:"GEMINI_MODEL" envDefault:"gemini-2.5-flash-lite"`
	AITimeout    time.Duration `env:"AI_TIMEOUT" envDefault:"120s"`

	DownloadTimeout time.Duration `env:"DOWNLOAD_TIMEOUT" envDefault:"60s"`
	// TikaURL points at an Apache Tika server used to decode legacy .doc
	// files. Empty disables the backend and .doc extraction reports a
	// missing dependency.
	TikaURL string `env:"TIKA_URL"`

	MaxAttempts    int           `env:"MAX_ATTEMPTS" envDefault:"3"`
	RetryBaseDelay time.Duration `env:"RETRY_BASE_DELAY" envDefault:"5s"`
	// DequeueTimeout bounds one blocking pop; zero blocks indefinitely.
	DequeueTimeout  time.Duration `env:"DEQUEUE_TIMEOUT" envDefault:"0"`
	QueueErrorPause time.Duration `env:"QUEUE_ERROR_PAUSE" envDefault:"5s"`

	BatchConcurrency int `env:"BATCH_CONCURRENCY" envDefault:"20"`

	// OpsAddr serves /healthz, /readyz and /metrics. Empty disables the
	// listener.
	OpsAddr         string `env:"OPS_ADDR" envDefault:":9090"`
	OTLPEndpoint    string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:""`
	OTELServiceName string `env:"OTEL_SERVICE_NAME" envDefault:"aices-ai-worker"`
}

// Load resolves configuration with env → overlay file → default priority and
// normalizes the backend base URL.
func Load() (Config, error) {
	if err := applyOverlay(os.Getenv("CONFIG_FILE")); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("op=config.Load: %w", err)
	}
	cfg.BackendAPIURL = strings.TrimRight(cfg.BackendAPIURL, "/")
	return cfg, nil
}

// IsDev reports whether the app is running in development mode.
func (c Config) IsDev() bool { return strings.ToLower(c.AppEnv) == "dev" }

// IsProd reports whether the app is running in production mode.
func (c Config) IsProd() bool { return strings.ToLower(c.AppEnv) == "prod" }

// IsTest reports whether the app is running in test mode.
func (c Config) IsTest() bool { return strings.ToLower(c.AppEnv) == "test" }

// TikaEnabled reports whether a Tika backend is configured for legacy
// document extraction.
func (c Config) TikaEnabled() bool { return c.TikaURL != "" }

// DeadLetterEnabled reports whether exhausted jobs are pushed to a dead
// letter list instead of being dropped.
func (c Config) DeadLetterEnabled() bool { return c.DeadLetterQueue != "" }
