package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/ai"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/usecase/prompts"
)

// Structural thresholds for the rule-based pass. Below minResumeChars the
// document is rejected outright; above doubleCheckChars a rule-based pass is
// still cross-checked with the classifier.
const (
	minResumeChars   = 50
	doubleCheckChars = 200
)

const (
	checkTemperature     float32 = 0
	checkMaxOutputTokens int32   = 512
)

// Validator decides whether a parsed document actually is a resume. The
// structural rules run first; a single AI classification call settles the
// ambiguous middle. Structural checks alone cannot tell a sparse real resume
// from an unrelated document that parses into skill-shaped JSON.
type Validator struct {
	gen     domain.TextGenerator
	cleaner *ai.ResponseCleaner
}

// NewValidator constructs a Validator on top of the AI gateway.
func NewValidator(gen domain.TextGenerator) *Validator {
	return &Validator{gen: gen, cleaner: ai.NewResponseCleaner()}
}

type resumeCheck struct {
	IsResume bool   `json:"isResume"`
	Reason   string `json:"reason"`
}

// LooksLikeResume applies the two-tier check:
//   - extracted text under 50 characters rejects immediately
//   - 2 of 3 sections (work, education, skills) pass outright; long documents
//     are double-checked by the classifier, whose errors keep the pass
//   - exactly 1 section plus contact info defers to the classifier, whose
//     errors reject
//   - anything less rejects
//
// rawText may be empty: score jobs revalidate persisted parsed data without
// re-extracting, so the length gate only fires on text extracted in this run.
func (v *Validator) LooksLikeResume(ctx domain.Context, parsed domain.ParsedResume, rawText string) bool {
	text := strings.TrimSpace(rawText)
	chars := utf8.RuneCountInString(text)
	if text != "" && chars < minResumeChars {
		slog.Info("document rejected, extracted text too short", slog.Int("chars", chars))
		return false
	}

	sections := 0
	for _, present := range []bool{parsed.HasWorkHistory(), parsed.HasEducation(), parsed.HasSkills()} {
		if present {
			sections++
		}
	}

	switch {
	case sections >= 2:
		if chars <= doubleCheckChars {
			return true
		}
		isResume, err := v.classify(ctx, parsed, text)
		if err != nil {
			slog.Warn("resume double-check unavailable, keeping rule-based pass", slog.Any("error", err))
			return true
		}
		if !isResume {
			slog.Info("document rejected by ai double-check", slog.Int("sections", sections))
		}
		return isResume
	case sections == 1 && parsed.HasContactInfo():
		isResume, err := v.classify(ctx, parsed, text)
		if err != nil {
			slog.Warn("resume tie-break unavailable, rejecting", slog.Any("error", err))
			return false
		}
		return isResume
	default:
		slog.Info("document rejected, too few resume sections", slog.Int("sections", sections))
		return false
	}
}

// classify asks the model the yes/no resume question at temperature 0.
func (v *Validator) classify(ctx domain.Context, parsed domain.ParsedResume, rawText string) (bool, error) {
	prompt, err := prompts.BuildResumeCheck(parsed, rawText)
	if err != nil {
		return false, fmt.Errorf("op=usecase.classify: %w", err)
	}
	raw, err := v.gen.Generate(ctx, prompt, domain.GenOpts{
		Temperature:     checkTemperature,
		MaxOutputTokens: checkMaxOutputTokens,
	})
	if err != nil {
		return false, fmt.Errorf("op=usecase.classify generate: %w", err)
	}
	cleaned, err := v.cleaner.CleanAndValidateJSON(raw)
	if err != nil {
		return false, fmt.Errorf("op=usecase.classify clean: %w", err)
	}
	var check resumeCheck
	if err := json.Unmarshal([]byte(cleaned), &check); err != nil {
		return false, fmt.Errorf("op=usecase.classify decode: %w", err)
	}
	slog.Debug("ai resume check", slog.Bool("is_resume", check.IsResume), slog.String("reason", check.Reason))
	return check.IsResume, nil
}
