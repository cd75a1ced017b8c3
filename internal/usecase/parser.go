package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/ai"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/usecase/prompts"
)

// Parse generation parameters. Temperature 0 keeps extraction deterministic;
// the token ceiling is generous because long resumes produce long JSON.
const (
	parseTemperature     float32 = 0
	parseMaxOutputTokens int32   = 8192
)

// Parser turns extracted resume text into the fixed ParsedResume shape via
// one AI call.
type Parser struct {
	gen     domain.TextGenerator
	cleaner *ai.ResponseCleaner
}

// NewParser constructs a Parser on top of the AI gateway.
func NewParser(gen domain.TextGenerator) *Parser {
	return &Parser{gen: gen, cleaner: ai.NewResponseCleaner()}
}

// Parse sends the resume text through the extraction prompt and decodes the
// model's JSON. Gateway failures, empty responses, and non-JSON output all
// wrap ErrParsing. The decoded resume is backfilled so every schema key
// exists afterwards.
func (p *Parser) Parse(ctx domain.Context, resumeText string) (domain.ParsedResume, error) {
	slog.Debug("parsing resume text", slog.Int("resume_chars", len(resumeText)))

	raw, err := p.gen.Generate(ctx, prompts.BuildResumeParse(resumeText), domain.GenOpts{
		Temperature:     parseTemperature,
		MaxOutputTokens: parseMaxOutputTokens,
	})
	if err != nil {
		return nil, fmt.Errorf("op=usecase.Parse generate: %w: %w", err, domain.ErrParsing)
	}

	cleaned, err := p.cleaner.CleanAndValidateJSON(raw)
	if err != nil {
		return nil, fmt.Errorf("op=usecase.Parse clean: %w: %w", err, domain.ErrParsing)
	}

	var parsed domain.ParsedResume
	if err := json.Unmarshal([]byte(cleaned), &parsed); err != nil {
		return nil, fmt.Errorf("op=usecase.Parse decode: %w: %w", err, domain.ErrParsing)
	}
	return parsed.EnsureDefaults(), nil
}
