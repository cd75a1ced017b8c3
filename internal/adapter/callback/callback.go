// Package callback delivers result payloads to the backend API.
package callback

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
)

// resultPath is the backend endpoint that receives every AI result.
const resultPath = "/api/resume/result/ai"

// Sender implements domain.CallbackSender over a process-wide HTTP session.
// It performs no retries itself; the worker loop retries the whole job.
type Sender struct {
	resultURL string
	client    *http.Client
}

// New constructs a Sender for the configured backend.
func New(cfg config.Config) *Sender {
	timeout := cfg.CallbackTimeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Sender{
		resultURL: strings.TrimRight(cfg.BackendAPIURL, "/") + resultPath,
		client: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
}

// Send posts the payload as JSON and fails on any non-2xx status.
func (s *Sender) Send(ctx domain.Context, payload domain.ResultPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		observability.RecordCallbackDelivery("encode_error")
		return fmt.Errorf("op=callback.Send: %w: %w", err, domain.ErrCallback)
	}

	log := observability.LoggerFromContext(ctx)
	log.Info("sending result payload",
		slog.String("url", s.resultURL),
		slog.String("queue_job_id", payload.QueueJobID),
		slog.Bool("is_error", payload.IsError()),
		slog.Int("bytes", len(body)))

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.resultURL, bytes.NewReader(body))
	if err != nil {
		observability.RecordCallbackDelivery("error")
		return fmt.Errorf("op=callback.Send: %w: %w", err, domain.ErrCallback)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		observability.RecordCallbackDelivery("error")
		return fmt.Errorf("op=callback.Send url=%s: %w: %w", s.resultURL, err, domain.ErrCallback)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		snippet := readSnippet(resp.Body)
		observability.RecordCallbackDelivery(fmt.Sprintf("status_%d", resp.StatusCode))
		log.Error("backend rejected result payload",
			slog.Int("status", resp.StatusCode),
			slog.String("body", snippet))
		return fmt.Errorf("op=callback.Send url=%s: unexpected status %d: %w", s.resultURL, resp.StatusCode, domain.ErrCallback)
	}

	observability.RecordCallbackDelivery("ok")
	log.Info("result payload delivered", slog.Int("status", resp.StatusCode))
	return nil
}

// Close releases idle connections held by the session.
func (s *Sender) Close() {
	s.client.CloseIdleConnections()
}

// readSnippet returns up to 500 bytes of an error response body for logging.
func readSnippet(r io.Reader) string {
	b, err := io.ReadAll(io.LimitReader(r, 500))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(b))
}
