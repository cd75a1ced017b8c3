// Package main provides the worker application entry point.
// The worker processes resume parsing, scoring, and comparison jobs from
// Redis queues and delivers results back to the backend API.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/ai/gemini"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/callback"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/fetch"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/queue/redisq"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/textextractor/local"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/textextractor/tika"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/app"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/usecase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("error", err))
		os.Exit(1)
	}

	logger := observability.SetupLogger(cfg)
	slog.SetDefault(logger)

	observability.InitMetrics()

	shutdownTracer, err := observability.SetupTracing(cfg)
	if err != nil {
		slog.Error("failed to setup tracing", slog.Any("error", err))
	}
	defer func() {
		if shutdownTracer != nil {
			_ = shutdownTracer(context.Background())
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// AI gateway
	gw, err := gemini.New(ctx, cfg)
	if err != nil {
		slog.Error("gemini client init failed", slog.Any("error", err))
		os.Exit(1)
	}
	slog.Info("starting worker",
		slog.String("env", cfg.AppEnv), slog.String("model", gw.Model()))

	// File acquisition and text extraction
	fetcher := fetch.New(cfg)
	var docx local.DocExtractor
	if cfg.TikaEnabled() {
		docx = tika.New(cfg.TikaURL)
		slog.Info("tika backend enabled", slog.String("url", cfg.TikaURL))
	}
	extractor := local.New(docx)

	// Result delivery
	sender := callback.New(cfg)
	defer sender.Close()

	// Processing pipeline and queue consumer
	drift := observability.NewScoreDriftMonitor(gw.Model(), 0, 0)
	pipeline := usecase.NewPipeline(fetcher, extractor, gw).WithDriftMonitor(drift)
	consumer := redisq.New(cfg, pipeline, sender)
	defer func() {
		if err := consumer.Close(); err != nil {
			slog.Error("failed to close consumer", slog.Any("error", err))
		}
	}()

	// Ops endpoints: /healthz, /readyz, /metrics
	var opsSrv *http.Server
	if cfg.OpsAddr != "" {
		opsSrv = &http.Server{
			Addr:              cfg.OpsAddr,
			Handler:           app.BuildRouter(app.BuildReadinessChecks(cfg, consumer)...),
			ReadHeaderTimeout: 5 * time.Second,
		}
		go func() {
			slog.Info("ops server listening", slog.String("addr", cfg.OpsAddr))
			if err := opsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("ops server error", slog.Any("error", err))
			}
		}()
	}

	errCh := make(chan error, 1)
	go func() { errCh <- consumer.Run(ctx) }()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutdown signal received", slog.String("signal", sig.String()))
		cancel()
		// A zero dequeue timeout blocks in Redis until the connection
		// closes, so force the issue if the loop does not come back.
		select {
		case <-errCh:
		case <-time.After(5 * time.Second):
			_ = consumer.Close()
			<-errCh
		}
	case err := <-errCh:
		if err != nil {
			slog.Error("worker loop error", slog.Any("error", err))
		}
	}

	if opsSrv != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancelShutdown()
		_ = opsSrv.Shutdown(shutdownCtx)
	}
	slog.Info("worker stopped")
}
