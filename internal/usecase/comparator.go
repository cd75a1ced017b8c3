package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/ai"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/usecase/prompts"
)

// Candidate count bounds. Below the minimum a comparison is meaningless;
// above the maximum the prompt outgrows the model's reliable context.
const (
	minCompareCandidates = 2
	maxCompareCandidates = 5
)

const (
	compareTemperature     float32 = 0.3
	compareMaxOutputTokens int32   = 8192
)

// Comparator ranks 2 to 5 already-scored candidates against each other in a
// single AI call and validates the returned analysis. It never fails the
// job: every AI or structure problem degrades to a processing_failed outcome
// that is delivered like any other result.
type Comparator struct {
	gen     domain.TextGenerator
	cleaner *ai.ResponseCleaner
}

// NewComparator constructs a Comparator on top of the AI gateway.
func NewComparator(gen domain.TextGenerator) *Comparator {
	return &Comparator{gen: gen, cleaner: ai.NewResponseCleaner()}
}

// Compare runs the comparison and returns either a validated analysis or a
// typed rejection. Candidate-count violations are decided without an AI call.
func (c *Comparator) Compare(ctx domain.Context, job domain.ComparisonJob) domain.ComparisonOutcome {
	count := len(job.Candidates)
	if count < minCompareCandidates {
		return domain.ComparisonOutcome{
			ErrorCode: domain.CodeInsufficientCandidates,
			Reason:    fmt.Sprintf("Not enough candidates for comparison (minimum %d required, got %d)", minCompareCandidates, count),
		}
	}
	if count > maxCompareCandidates {
		return domain.ComparisonOutcome{
			ErrorCode: domain.CodeInvalidData,
			Reason:    fmt.Sprintf("Too many candidates for comparison (maximum %d allowed, got %d)", maxCompareCandidates, count),
		}
	}

	slog.Info("comparing candidates",
		slog.Int64("comparison_id", job.ComparisonID), slog.Int("candidates", count))

	raw, err := c.gen.Generate(ctx, prompts.BuildCandidateCompare(job), domain.GenOpts{
		Temperature:     compareTemperature,
		MaxOutputTokens: compareMaxOutputTokens,
	})
	if err != nil {
		slog.Error("comparison generate failed", slog.Any("error", err))
		return processingFailed(fmt.Sprintf("AI comparison failed: %v", err))
	}
	cleaned, err := c.cleaner.CleanAndValidateJSON(raw)
	if err != nil {
		slog.Error("comparison response not json", slog.Any("error", err))
		return processingFailed(fmt.Sprintf("Failed to parse AI response: %v", err))
	}

	return c.validate(cleaned, job)
}

// validate enforces the response contract: a candidates list whose entries
// each carry applicationId and an analysis object. Missing analysis fields
// are backfilled with placeholders rather than failing, and duplicate ranks
// are repaired deterministically.
func (c *Comparator) validate(cleaned string, job domain.ComparisonJob) domain.ComparisonOutcome {
	var resp struct {
		Status     string          `json:"status"`
		Candidates json.RawMessage `json:"candidates"`
	}
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return processingFailed(fmt.Sprintf("Invalid response structure: %v", err))
	}
	if len(resp.Candidates) == 0 || string(resp.Candidates) == "null" {
		return processingFailed("Invalid response structure: response missing candidates field")
	}
	var entries []map[string]any
	if err := json.Unmarshal(resp.Candidates, &entries); err != nil {
		return processingFailed("Invalid response structure: candidates is not a list")
	}

	candidates := make([]domain.CandidateAnalysis, 0, len(entries))
	for _, entry := range entries {
		appID, ok := toFloat64(entry["applicationId"])
		if !ok {
			return processingFailed("Invalid response structure: candidate missing applicationId")
		}
		analysis, ok := entry["analysis"].(map[string]any)
		if !ok {
			return processingFailed("Invalid response structure: candidate missing analysis")
		}
		candidates = append(candidates, domain.CandidateAnalysis{
			ApplicationID: int64(appID),
			Analysis:      analysis,
		})
	}

	status := resp.Status
	if status == "" {
		status = "success"
	}
	result := &domain.ComparisonResult{
		Status:     status,
		CampaignID: job.CampaignID,
		JobID:      job.JobID,
		Candidates: candidates,
	}

	required := domain.RequiredAnalysisFields(job.Criteria)
	for i := range result.Candidates {
		if filled := result.Candidates[i].BackfillAnalysis(required); len(filled) > 0 {
			slog.Warn("backfilled missing analysis fields",
				slog.Int64("application_id", result.Candidates[i].ApplicationID),
				slog.Any("fields", filled))
		}
	}
	if result.RepairRanks() {
		slog.Warn("duplicate candidate ranks detected, reassigned by ai rank order")
	}

	slog.Info("comparison processed", slog.Int("candidates", len(result.Candidates)))
	return domain.ComparisonOutcome{Result: result}
}

func processingFailed(reason string) domain.ComparisonOutcome {
	return domain.ComparisonOutcome{ErrorCode: domain.CodeProcessingFailed, Reason: reason}
}
