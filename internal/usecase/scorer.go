package usecase

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/adapter/ai"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/usecase/prompts"
)

const (
	scoreTemperature     float32 = 0
	scoreMaxOutputTokens int32   = 4096

	// The advanced variant re-scores already-parsed data warmer and longer
	// for richer explanations; the output schema is identical.
	advancedTemperature     float32 = 0.3
	advancedMaxOutputTokens int32   = 8192
)

// Scorer evaluates a parsed resume against a job's weighted criteria with one
// AI call, then owns the entire weighting step. The model returns only an
// unweighted rawScore per criterion; score = round(rawScore × weight, 2) is
// computed here exactly once. Earlier revisions let the model pre-apply
// weights and then multiplied again during aggregation.
type Scorer struct {
	gen     domain.TextGenerator
	cleaner *ai.ResponseCleaner
}

// NewScorer constructs a Scorer on top of the AI gateway.
func NewScorer(gen domain.TextGenerator) *Scorer {
	return &Scorer{gen: gen, cleaner: ai.NewResponseCleaner()}
}

// Score runs the deterministic first-pass evaluation (temperature 0).
func (s *Scorer) Score(ctx domain.Context, parsed domain.ParsedResume, requirements string, criteria []domain.Criterion, job domain.JobContext) (domain.ScoreResult, error) {
	return s.score(ctx, parsed, requirements, criteria, job, domain.GenOpts{
		Temperature:     scoreTemperature,
		MaxOutputTokens: scoreMaxOutputTokens,
	})
}

// ScoreAdvanced runs the deeper re-scoring variant used for jobs that arrive
// with already-parsed resume data.
func (s *Scorer) ScoreAdvanced(ctx domain.Context, parsed domain.ParsedResume, requirements string, criteria []domain.Criterion, job domain.JobContext) (domain.ScoreResult, error) {
	return s.score(ctx, parsed, requirements, criteria, job, domain.GenOpts{
		Temperature:     advancedTemperature,
		MaxOutputTokens: advancedMaxOutputTokens,
	})
}

func (s *Scorer) score(ctx domain.Context, parsed domain.ParsedResume, requirements string, criteria []domain.Criterion, job domain.JobContext, opts domain.GenOpts) (domain.ScoreResult, error) {
	if strings.TrimSpace(requirements) == "" {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.Score: requirements empty: %w", domain.ErrInvalidJob)
	}
	if len(criteria) == 0 {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.Score: criteria empty: %w", domain.ErrInvalidJob)
	}
	if chars := utf8.RuneCountInString(requirements); chars > prompts.MaxScoringRequirements {
		slog.Warn("truncating job requirements for scoring prompt",
			slog.Int("chars", chars), slog.Int("limit", prompts.MaxScoringRequirements))
	}

	prompt, err := prompts.BuildCriteriaScoring(parsed, requirements, criteria, job)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.Score prompt: %w: %w", err, domain.ErrScoring)
	}
	raw, err := s.gen.Generate(ctx, prompt, opts)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.Score generate: %w: %w", err, domain.ErrScoring)
	}
	cleaned, err := s.cleaner.CleanAndValidateJSON(raw)
	if err != nil {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.Score clean: %w: %w", err, domain.ErrScoring)
	}
	var resp map[string]any
	if err := json.Unmarshal([]byte(cleaned), &resp); err != nil {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.Score decode: %w: %w", err, domain.ErrScoring)
	}
	return normalizeScore(resp, criteria)
}

// normalizeScore validates the model's response structure and produces the
// final weighted result. Items must carry criteriaId, matched, AINote, and
// rawScore (or the legacy pre-redesign score key, read as the unweighted
// value). Unknown criteria ids resolve to weight 0 rather than failing.
func normalizeScore(resp map[string]any, criteria []domain.Criterion) (domain.ScoreResult, error) {
	rawItems, ok := resp["items"]
	if !ok {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: response missing items field: %w", domain.ErrScoring)
	}
	list, ok := rawItems.([]any)
	if !ok {
		return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: items is not a list: %w", domain.ErrScoring)
	}

	weights := domain.WeightMap(criteria)
	items := make([]domain.ScoreItem, 0, len(list))
	var total float64
	for idx, entry := range list {
		obj, ok := entry.(map[string]any)
		if !ok {
			return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: item %d is not an object: %w", idx, domain.ErrScoring)
		}
		for _, field := range []string{"criteriaId", "matched", "AINote"} {
			if _, ok := obj[field]; !ok {
				return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: item %d missing %s: %w", idx, field, domain.ErrScoring)
			}
		}
		rawValue, hasRaw := obj["rawScore"]
		if !hasRaw {
			if rawValue, hasRaw = obj["score"]; !hasRaw {
				return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: item %d missing rawScore: %w", idx, domain.ErrScoring)
			}
		}

		id, ok := toFloat64(obj["criteriaId"])
		if !ok {
			return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: item %d criteriaId not numeric: %w", idx, domain.ErrScoring)
		}
		matched, ok := toFloat64(obj["matched"])
		if !ok {
			return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: item %d matched not numeric: %w", idx, domain.ErrScoring)
		}
		rawScore, ok := toFloat64(rawValue)
		if !ok {
			return domain.ScoreResult{}, fmt.Errorf("op=usecase.normalizeScore: item %d rawScore not numeric: %w", idx, domain.ErrScoring)
		}

		criteriaID := int64(id)
		rawScore = clampFloat(rawScore, 0, 100)
		weight := weights[criteriaID]
		score := math.Round(rawScore*weight*100) / 100

		items = append(items, domain.ScoreItem{
			CriteriaID: criteriaID,
			Matched:    clampFloat(matched, 0, 1),
			RawScore:   rawScore,
			Score:      score,
			AINote:     coerceString(obj["AINote"]),
		})
		total += score
	}

	return domain.ScoreResult{
		AIExplanation: coerceString(resp["AIExplanation"]),
		Items:         items,
		MatchSkills:   coerceStringPtr(resp["matchSkills"]),
		MissingSkills: coerceStringPtr(resp["missingSkills"]),
		TotalScore:    clampFloat(math.Round(total*100)/100, 0, 100),
	}, nil
}

func clampFloat(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// toFloat64 accepts the numeric encodings models actually emit, including
// numbers quoted as strings.
func toFloat64(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

// coerceString flattens whatever the model put in a text field to a string;
// objects and lists are re-encoded as compact JSON.
func coerceString(v any) string {
	switch s := v.(type) {
	case nil:
		return ""
	case string:
		return s
	case float64:
		return strconv.FormatFloat(s, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(s)
	default:
		if encoded, err := json.Marshal(v); err == nil {
			return string(encoded)
		}
		return fmt.Sprint(v)
	}
}

// coerceStringPtr keeps absent values absent instead of rendering "null".
func coerceStringPtr(v any) *string {
	if v == nil {
		return nil
	}
	s := coerceString(v)
	return &s
}
