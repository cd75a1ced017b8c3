// Package tokencount estimates token usage for Gemini calls.
//
// Gemini does not publish its tokenizer, so counts come from tiktoken-go
// under the closest public encoding. Estimates feed logs and usage
// reporting, never billing.
package tokencount

import (
	"log/slog"
	"strings"
	"sync"

	tiktoken "github.com/pkoukk/tiktoken-go"
)

// Usage holds estimated token counts for one model call.
type Usage struct {
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
	TotalTokens      int    `json:"total_tokens"`
	Model            string `json:"model"`
}

// Counter counts tokens, caching one tiktoken encoder per encoding name.
// Safe for concurrent use.
type Counter struct {
	mu       sync.RWMutex
	encoders map[string]*tiktoken.Tiktoken
}

// NewCounter returns a Counter with an empty encoder cache.
func NewCounter() *Counter {
	return &Counter{encoders: make(map[string]*tiktoken.Tiktoken)}
}

// DefaultCounter backs the package-level helpers.
var DefaultCounter = NewCounter()

// CountTokens returns the estimated token count of text under the encoding
// closest to model.
func (c *Counter) CountTokens(text, model string) (int, error) {
	enc, err := c.encoder(encodingName(model))
	if err != nil {
		return 0, err
	}
	return len(enc.Encode(text, nil, nil)), nil
}

// EstimateUsage estimates token usage for one prompt/completion pair.
// Counting failures degrade to a rough four-characters-per-token guess so
// usage reporting never blocks a call.
func (c *Counter) EstimateUsage(prompt, completion, model string) *Usage {
	promptTokens := c.countOrGuess(prompt, model)
	completionTokens := c.countOrGuess(completion, model)
	return &Usage{
		PromptTokens:     promptTokens,
		CompletionTokens: completionTokens,
		TotalTokens:      promptTokens + completionTokens,
		Model:            model,
	}
}

// EstimateUsageDefault estimates usage with the shared DefaultCounter.
func EstimateUsageDefault(prompt, completion, model string) *Usage {
	return DefaultCounter.EstimateUsage(prompt, completion, model)
}

func (c *Counter) countOrGuess(text, model string) int {
	n, err := c.CountTokens(text, model)
	if err != nil {
		slog.Warn("token count failed, estimating from length",
			slog.String("model", model),
			slog.Any("error", err))
		return len(text) / 4
	}
	return n
}

func (c *Counter) encoder(name string) (*tiktoken.Tiktoken, error) {
	c.mu.RLock()
	enc, ok := c.encoders[name]
	c.mu.RUnlock()
	if ok {
		return enc, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if enc, ok := c.encoders[name]; ok {
		return enc, nil
	}

	enc, err := tiktoken.EncodingForModel(name)
	if err != nil {
		slog.Debug("no tiktoken encoding for model, using cl100k_base",
			slog.String("model", name),
			slog.Any("error", err))
		if enc, err = tiktoken.GetEncoding("cl100k_base"); err != nil {
			return nil, err
		}
	}
	c.encoders[name] = enc
	return enc, nil
}

// encodingName maps a model ID to the tiktoken model whose encoding
// approximates it best.
func encodingName(model string) string {
	model = strings.ToLower(model)
	// Strip provider prefixes such as "google/gemini-2.5-pro".
	if i := strings.LastIndex(model, "/"); i >= 0 {
		model = model[i+1:]
	}
	if strings.Contains(model, "gpt-3.5") {
		return "gpt-3.5-turbo"
	}
	// Gemini and anything unrecognized get GPT-4's cl100k_base encoding,
	// the closest published approximation.
	return "gpt-4"
}
