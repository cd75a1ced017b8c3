package domain

import (
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// Weight tolerates the number, string, and null encodings the backend's
// decimal serializer produces.
type Weight float64

func (w *Weight) UnmarshalJSON(data []byte) error {
	trimmed := strings.TrimSpace(string(data))
	if trimmed == "null" || trimmed == `""` {
		*w = 0
		return nil
	}
	f, err := strconv.ParseFloat(strings.Trim(trimmed, `"`), 64)
	if err != nil {
		return fmt.Errorf("weight %s: %w", trimmed, err)
	}
	*w = Weight(f)
	return nil
}

// Criterion is one caller-supplied evaluation axis. Weights are not validated
// to sum to 1; the scorer clamps the aggregate instead of assuming
// normalization.
type Criterion struct {
	CriteriaID int64  `json:"criteriaId"`
	Name       string `json:"name"`
	Weight     Weight `json:"weight"`
}

// WeightMap indexes criteria weights by id. Unknown ids resolve to 0 at the
// lookup site; the model occasionally invents one.
func WeightMap(criteria []Criterion) map[int64]float64 {
	m := make(map[int64]float64, len(criteria))
	for _, c := range criteria {
		m[c.CriteriaID] = float64(c.Weight)
	}
	return m
}

// ScoreItem is one criterion's evaluated result. Score is the single place
// the caller's weight is applied: score = round(rawScore × weight, 2),
// computed once during normalization and never re-weighted.
type ScoreItem struct {
	CriteriaID int64   `json:"criteriaId"`
	Matched    float64 `json:"matched"`
	RawScore   float64 `json:"rawScore"`
	Score      float64 `json:"score"`
	AINote     string  `json:"AINote"`
}

// ScoreResult aggregates the per-criterion items.
// Invariant: TotalScore = clamp(Σ items[i].Score, 0, 100).
type ScoreResult struct {
	AIExplanation string      `json:"AIExplanation"`
	Items         []ScoreItem `json:"items"`
	MatchSkills   *string     `json:"matchSkills"`
	MissingSkills *string     `json:"missingSkills"`
	TotalScore    float64     `json:"total_score"`
}

// TitleMatch is the job-title matcher verdict.
type TitleMatch struct {
	Matched bool   `json:"matched"`
	Reason  string `json:"reason"`
}

// ComparisonResult is the validated cross-candidate analysis delivered inside
// resultJson.
type ComparisonResult struct {
	Status     string              `json:"status"`
	CampaignID int64               `json:"campaignId"`
	JobID      int64               `json:"jobId"`
	Candidates []CandidateAnalysis `json:"candidates"`
}

// CandidateAnalysis holds one candidate's analysis block. The key set varies
// with the job's criteria, so the decoded map shape is kept as is.
type CandidateAnalysis struct {
	ApplicationID int64          `json:"applicationId"`
	Analysis      map[string]any `json:"analysis"`
}

// ComparisonOutcome is either a successful analysis or a typed domain
// rejection. Exactly one branch is set.
type ComparisonOutcome struct {
	Result    *ComparisonResult
	ErrorCode string
	Reason    string
}

// RequiredAnalysisFields lists the analysis keys every compared candidate must
// carry: the fixed summary fields, one per named criterion, and the
// recommendation block.
func RequiredAnalysisFields(criteria []Criterion) []string {
	fields := []string{"overallSummary", "jobFit"}
	for _, c := range criteria {
		if name := strings.TrimSpace(c.Name); name != "" {
			fields = append(fields, name)
		}
	}
	return append(fields, "recommendation")
}

// Rank reads the recommendation rank, 0 when missing or unreadable.
func (c CandidateAnalysis) Rank() int {
	rec, ok := c.Analysis["recommendation"].(map[string]any)
	if !ok {
		return 0
	}
	f, ok := floatValue(rec["rank"])
	if !ok {
		return 0
	}
	return int(f)
}

// SetRank rewrites the recommendation rank, creating the block when absent.
func (c *CandidateAnalysis) SetRank(rank int) {
	if c.Analysis == nil {
		c.Analysis = map[string]any{}
	}
	rec, ok := c.Analysis["recommendation"].(map[string]any)
	if !ok {
		rec = map[string]any{}
		c.Analysis["recommendation"] = rec
	}
	rec["rank"] = rank
}

// BackfillAnalysis inserts placeholder content for every required analysis
// field the model omitted and returns the names it filled.
func (c *CandidateAnalysis) BackfillAnalysis(required []string) []string {
	if c.Analysis == nil {
		c.Analysis = map[string]any{}
	}
	var filled []string
	for _, field := range required {
		if _, ok := c.Analysis[field]; ok {
			continue
		}
		if field == "recommendation" {
			c.Analysis[field] = map[string]any{"rank": 999, "reason": "Missing ranking information"}
		} else {
			c.Analysis[field] = fmt.Sprintf("No information available about %s", field)
		}
		filled = append(filled, field)
	}
	return filled
}

// RepairRanks enforces unique recommendation ranks. When duplicates appear the
// candidates are ordered by the rank the model reported (ties keep their
// original position) and ranks 1..N reassigned in that order. The candidate
// list itself is not reordered. Returns true when a repair happened.
func (r *ComparisonResult) RepairRanks() bool {
	seen := map[int]bool{}
	dup := false
	for _, c := range r.Candidates {
		rank := c.Rank()
		if seen[rank] {
			dup = true
			break
		}
		seen[rank] = true
	}
	if !dup {
		return false
	}
	order := make([]*CandidateAnalysis, len(r.Candidates))
	for i := range r.Candidates {
		order[i] = &r.Candidates[i]
	}
	sort.SliceStable(order, func(i, j int) bool { return order[i].Rank() < order[j].Rank() })
	for idx, c := range order {
		c.SetRank(idx + 1)
	}
	return true
}

func floatValue(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		if f, err := n.Float64(); err == nil {
			return f, true
		}
	case string:
		if f, err := strconv.ParseFloat(strings.TrimSpace(n), 64); err == nil {
			return f, true
		}
	}
	return 0, false
}
