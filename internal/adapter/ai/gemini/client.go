// Package gemini implements the text generation port on the Google Gemini API.
package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"

	"google.golang.org/genai"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/ai/tokencount"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/observability"
)

// DefaultModel is used when no model is configured.
const DefaultModel = "gemini-2.5-flash-lite"

// ResolveAPIKey returns the first credential that resolves: the explicit
// argument, the GEMINI_API_KEY environment variable, then the static config
// value.
func ResolveAPIKey(explicit, configured string) (string, error) {
	if key := strings.TrimSpace(explicit); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(os.Getenv("GEMINI_API_KEY")); key != "" {
		return key, nil
	}
	if key := strings.TrimSpace(configured); key != "" {
		return key, nil
	}
	return "", fmt.Errorf("op=gemini.ResolveAPIKey: GEMINI_API_KEY is required: %w", domain.ErrMissingCredential)
}

// One underlying SDK client per key. Re-creating with the same key returns
// the cached client.
var (
	clientMu     sync.Mutex
	cachedClient *genai.Client
	cachedKey    string
)

func clientFor(ctx context.Context, key string) (*genai.Client, error) {
	clientMu.Lock()
	defer clientMu.Unlock()
	if cachedClient != nil && cachedKey == key {
		return cachedClient, nil
	}
	cli, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  key,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}
	cachedClient = cli
	cachedKey = key
	return cli, nil
}

// Client calls the Gemini API. It implements domain.TextGenerator.
type Client struct {
	client  *genai.Client
	model   string
	timeout time.Duration
}

// New creates a Gemini client from configuration.
func New(ctx context.Context, cfg config.Config) (*Client, error) {
	return NewWithKey(ctx, "", cfg)
}

// NewWithKey creates a Gemini client; a non-empty explicit key overrides the
// environment and the config value.
func NewWithKey(ctx context.Context, apiKey string, cfg config.Config) (*Client, error) {
	key, err := ResolveAPIKey(apiKey, cfg.GeminiAPIKey)
	if err != nil {
		return nil, err
	}
	cli, err := clientFor(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("op=gemini.New: %w", err)
	}
	model := strings.TrimSpace(cfg.GeminiModel)
	if model == "" {
		model = DefaultModel
	}
	return &Client{client: cli, model: model, timeout: cfg.AITimeout}, nil
}

// Model returns the configured model name.
func (c *Client) Model() string {
	if c == nil {
		return ""
	}
	return c.model
}

// Generate sends one prompt to the model and returns its text output.
func (c *Client) Generate(ctx context.Context, prompt string, opts domain.GenOpts) (string, error) {
	if c == nil || c.client == nil {
		return "", fmt.Errorf("op=gemini.Generate: client is not initialized")
	}
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return "", fmt.Errorf("op=gemini.Generate: prompt must not be empty")
	}
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	temperature := opts.Temperature
	genCfg := &genai.GenerateContentConfig{Temperature: &temperature}
	if opts.MaxOutputTokens > 0 {
		genCfg.MaxOutputTokens = opts.MaxOutputTokens
	}

	start := time.Now()
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), genCfg)
	observability.ObserveAIRequest("gemini", "generate", time.Since(start))
	if err != nil {
		return "", fmt.Errorf("op=gemini.Generate model=%s: %w", c.model, err)
	}

	text := extractText(resp)
	if text == "" {
		return "", fmt.Errorf("op=gemini.Generate model=%s: %w", c.model, domain.ErrEmptyAIResponse)
	}

	usage := tokencount.EstimateUsageDefault(prompt, text, c.model)
	observability.LoggerFromContext(ctx).Debug("model call finished",
		slog.String("model", c.model),
		slog.Duration("duration", time.Since(start)),
		slog.Int("prompt_tokens", usage.PromptTokens),
		slog.Int("completion_tokens", usage.CompletionTokens),
		slog.Int("total_tokens", usage.TotalTokens))
	return text, nil
}

// extractText handles both response shapes: the SDK's aggregated text helper
// and a manual walk over candidate content parts.
func extractText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	if text := strings.TrimSpace(resp.Text()); text != "" {
		return text
	}
	var b strings.Builder
	for _, candidate := range resp.Candidates {
		if candidate == nil || candidate.Content == nil {
			continue
		}
		for _, part := range candidate.Content.Parts {
			if part == nil {
				continue
			}
			text := strings.TrimSpace(part.Text)
			if text == "" {
				continue
			}
			if b.Len() > 0 {
				b.WriteString("\n")
			}
			b.WriteString(text)
		}
	}
	return strings.TrimSpace(b.String())
}
