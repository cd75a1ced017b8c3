package gemini

import (
	"context"
	"errors"
	"testing"

	"google.golang.org/genai"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/config"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
)

func TestResolveAPIKeyPriority(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "env-key")

	key, err := ResolveAPIKey("explicit-key", "config-key")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if key != "explicit-key" {
		t.Errorf("Expected key to be %q, got %q", "explicit-key", key)
	}

	key, err = ResolveAPIKey("", "config-key")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if key != "env-key" {
		t.Errorf("Expected key to be %q, got %q", "env-key", key)
	}
}

func TestResolveAPIKeyFallsBackToConfig(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	key, err := ResolveAPIKey("", "config-key")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if key != "config-key" {
		t.Errorf("Expected key to be %q, got %q", "config-key", key)
	}
}

func TestResolveAPIKeyMissing(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := ResolveAPIKey("", "   ")
	if err == nil {
		t.Fatal("expected an error when no key resolves")
	}
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestNewWithoutCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")

	_, err := New(context.Background(), config.Config{})
	if !errors.Is(err, domain.ErrMissingCredential) {
		t.Errorf("Expected ErrMissingCredential, got %v", err)
	}
}

func TestGenerateOnUninitializedClient(t *testing.T) {
	var c *Client
	if _, err := c.Generate(context.Background(), "prompt", domain.GenOpts{}); err == nil {
		t.Fatal("expected error from nil client")
	}
	if c.Model() != "" {
		t.Error("Expected empty model from nil client")
	}
}

func TestExtractTextFromCandidates(t *testing.T) {
	// The first candidate is blank, so the aggregated Text() helper yields
	// nothing and the candidate walk has to find the later parts.
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []*genai.Part{{Text: "   "}}}},
			nil,
			{Content: nil},
			{
				Content: &genai.Content{Parts: []*genai.Part{
					{Text: "  first part  "},
					{Text: ""},
					{Text: "second part"},
				}},
			},
		},
	}

	got := extractText(resp)
	if got != "first part\nsecond part" {
		t.Errorf("Expected joined parts, got %q", got)
	}
}

func TestExtractTextEmptyShapes(t *testing.T) {
	if got := extractText(nil); got != "" {
		t.Errorf("Expected empty text from nil response, got %q", got)
	}
	if got := extractText(&genai.GenerateContentResponse{}); got != "" {
		t.Errorf("Expected empty text from empty response, got %q", got)
	}
	resp := &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{{Content: &genai.Content{Parts: []*genai.Part{{Text: "   "}}}}},
	}
	if got := extractText(resp); got != "" {
		t.Errorf("Expected empty text from whitespace parts, got %q", got)
	}
}
