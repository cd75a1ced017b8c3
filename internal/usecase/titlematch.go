package usecase

import (
	"encoding/json"
	"log/slog"
	"strings"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/ai"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/usecase/prompts"
)

const (
	titleMatchTemperature     float32 = 0
	titleMatchMaxOutputTokens int32   = 512
)

// unableToValidate is the conservative verdict when the AI check itself
// fails: never silently pass a title gate that could not be evaluated.
const unableToValidate = "unable to validate"

// TitleMatcher checks a job's required title against the titles the resume
// carries.
type TitleMatcher struct {
	gen     domain.TextGenerator
	cleaner *ai.ResponseCleaner
}

// NewTitleMatcher constructs a TitleMatcher on top of the AI gateway.
func NewTitleMatcher(gen domain.TextGenerator) *TitleMatcher {
	return &TitleMatcher{gen: gen, cleaner: ai.NewResponseCleaner()}
}

// MatchTitle returns the title verdict. Without a required title the gate is
// open; without any extractable resume titles it is closed with an explicit
// reason; otherwise one AI call decides equivalence and any failure along the
// way yields the conservative unmatched verdict.
func (m *TitleMatcher) MatchTitle(ctx domain.Context, requiredTitle string, parsed domain.ParsedResume) domain.TitleMatch {
	requiredTitle = strings.TrimSpace(requiredTitle)
	if requiredTitle == "" {
		return domain.TitleMatch{Matched: true, Reason: "no required job title configured"}
	}

	titles := parsed.JobTitles()
	if len(titles) == 0 {
		return domain.TitleMatch{Matched: false, Reason: "no job titles could be extracted from the resume"}
	}

	raw, err := m.gen.Generate(ctx, prompts.BuildTitleMatch(requiredTitle, titles, parsed.Summary()), domain.GenOpts{
		Temperature:     titleMatchTemperature,
		MaxOutputTokens: titleMatchMaxOutputTokens,
	})
	if err != nil {
		slog.Warn("title match generate failed", slog.Any("error", err))
		return domain.TitleMatch{Matched: false, Reason: unableToValidate}
	}
	cleaned, err := m.cleaner.CleanAndValidateJSON(raw)
	if err != nil {
		slog.Warn("title match response not json", slog.Any("error", err))
		return domain.TitleMatch{Matched: false, Reason: unableToValidate}
	}
	var verdict domain.TitleMatch
	if err := json.Unmarshal([]byte(cleaned), &verdict); err != nil {
		slog.Warn("title match response shape invalid", slog.Any("error", err))
		return domain.TitleMatch{Matched: false, Reason: unableToValidate}
	}
	slog.Debug("title match verdict",
		slog.String("required_title", requiredTitle),
		slog.Bool("matched", verdict.Matched),
		slog.String("reason", verdict.Reason))
	return verdict
}
