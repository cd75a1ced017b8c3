package observability

import (
	"log/slog"
	"os"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
)

// SetupLogger builds the worker's JSON logger, tagged with the service name
// and environment. Dev gets debug output; test quiets everything below warn
// so assertion failures stay readable.
func SetupLogger(cfg config.Config) *slog.Logger {
	level := slog.LevelInfo
	switch {
	case cfg.IsDev():
		level = slog.LevelDebug
	case cfg.IsTest():
		level = slog.LevelWarn
	}
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
	return slog.New(h).With(
		slog.String("service", cfg.OTELServiceName),
		slog.String("env", cfg.AppEnv),
	)
}
