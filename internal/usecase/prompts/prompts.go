// Package prompts holds the versioned prompt templates sent to the language
// model, embedded at build time, and the builders that assemble them with job
// and resume data. Template wording is part of the wire contract with the
// model: the field names it dictates are what the normalizers downstream
// expect back.
package prompts

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
	"github.com/AICES-Capstone-Project/AICES-ai-worker/pkg/textx"
)

//go:embed resume_parse.md
var resumeParseTemplate string

//go:embed criteria_scoring.md
var criteriaScoringTemplate string

//go:embed resume_check.md
var resumeCheckTemplate string

//go:embed title_match.md
var titleMatchTemplate string

//go:embed candidate_compare.md
var candidateCompareTemplate string

// Oversized inputs are cut to these rune counts rather than rejected.
const (
	MaxScoringRequirements = 5000
	MaxCompareRequirements = 3000

	maxCheckExcerpt  = 2000
	maxTitleSummary  = 600
	maxSummaryDigest = 200
)

// Digest limits for the comparison prompt.
const (
	digestExperienceEntries = 3
	digestEducationEntries  = 2
	digestSkillsPerCategory = 5
	digestSkillsMax         = 10
)

// BuildResumeParse returns the extraction prompt for one resume's plain text.
func BuildResumeParse(resumeText string) string {
	return resumeParseTemplate + "\n\nResume content:\n" + resumeText
}

// BuildCriteriaScoring returns the scoring prompt for a parsed resume against
// the job's weighted criteria. Requirements longer than
// MaxScoringRequirements runes are cut.
func BuildCriteriaScoring(parsed domain.ParsedResume, requirements string, criteria []domain.Criterion, job domain.JobContext) (string, error) {
	criteriaJSON, err := json.MarshalIndent(criteria, "", "  ")
	if err != nil {
		return "", fmt.Errorf("op=prompts.BuildCriteriaScoring marshal criteria: %w", err)
	}
	resumeJSON, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("op=prompts.BuildCriteriaScoring marshal resume: %w", err)
	}

	var b strings.Builder
	b.WriteString(criteriaScoringTemplate)
	if section := jobContextSection(job); section != "" {
		b.WriteString("\n\nJOB CONTEXT:\n")
		b.WriteString(section)
	}
	b.WriteString("\n\nJOB REQUIREMENTS:\n")
	b.WriteString(textx.CutRunes(requirements, MaxScoringRequirements))
	b.WriteString("\n\nSCORING CRITERIA:\n")
	b.Write(criteriaJSON)
	b.WriteString("\n\nCANDIDATE RESUME DATA:\n")
	b.Write(resumeJSON)
	return b.String(), nil
}

// BuildResumeCheck returns the tie-break classification prompt used when the
// structural resume checks are inconclusive.
func BuildResumeCheck(parsed domain.ParsedResume, rawText string) (string, error) {
	resumeJSON, err := json.MarshalIndent(parsed, "", "  ")
	if err != nil {
		return "", fmt.Errorf("op=prompts.BuildResumeCheck marshal resume: %w", err)
	}
	prompt := strings.ReplaceAll(resumeCheckTemplate, "{{PARSED_JSON}}", string(resumeJSON))
	prompt = strings.ReplaceAll(prompt, "{{RAW_TEXT}}", textx.CutRunes(rawText, maxCheckExcerpt))
	return prompt, nil
}

// BuildTitleMatch returns the title validation prompt comparing the job's
// required title against the titles extracted from the resume.
func BuildTitleMatch(requiredTitle string, titles []string, summary string) string {
	list := "(none found)"
	if len(titles) > 0 {
		bullets := make([]string, len(titles))
		for i, t := range titles {
			bullets[i] = "- " + t
		}
		list = strings.Join(bullets, "\n")
	}
	summary = strings.TrimSpace(summary)
	if summary == "" {
		summary = "Not available"
	}
	prompt := strings.ReplaceAll(titleMatchTemplate, "{{REQUIRED_TITLE}}", requiredTitle)
	prompt = strings.ReplaceAll(prompt, "{{CANDIDATE_TITLES}}", list)
	prompt = strings.ReplaceAll(prompt, "{{SUMMARY}}", textx.CutRunes(summary, maxTitleSummary))
	return prompt
}

// BuildCandidateCompare returns the multi-candidate comparison prompt. The
// analysis requirements and the JSON example are generated from the job's
// criteria so the model returns one analysis field per criterion.
func BuildCandidateCompare(job domain.ComparisonJob) string {
	repl := strings.NewReplacer(
		"{{CANDIDATE_COUNT}}", strconv.Itoa(len(job.Candidates)),
		"{{JOB_TITLE}}", job.JobTitle,
		"{{LEVEL}}", job.Level,
		"{{SPECIALIZATION}}", job.Specialization,
		"{{SKILLS}}", job.Skills,
		"{{REQUIREMENTS}}", textx.CutRunes(job.Requirements, MaxCompareRequirements),
		"{{CRITERIA}}", criteriaLines(job.Criteria),
		"{{CANDIDATES}}", candidateDigest(job.Candidates),
		"{{ANALYSIS_REQUIREMENTS}}", analysisRequirements(job.Criteria),
		"{{ANALYSIS_FIELDS_EXAMPLE}}", analysisFieldsExample(job.Criteria),
	)
	return repl.Replace(candidateCompareTemplate)
}

// jobContextSection renders the optional job fields, skipping empty ones.
func jobContextSection(job domain.JobContext) string {
	lines := make([]string, 0, 6)
	add := func(label, value string) {
		if strings.TrimSpace(value) != "" {
			lines = append(lines, label+": "+value)
		}
	}
	add("Position", job.Title)
	add("Level", job.Level)
	add("Specialization", job.Specialization)
	add("Required Skills", job.Skills)
	add("Employment Types", job.EmploymentTypes)
	add("Languages", job.Languages)
	return strings.Join(lines, "\n")
}

func criteriaLines(criteria []domain.Criterion) string {
	lines := make([]string, 0, len(criteria))
	for _, c := range criteria {
		if strings.TrimSpace(c.Name) == "" {
			continue
		}
		percent := math.Round(float64(c.Weight)*10000) / 100
		lines = append(lines, fmt.Sprintf("  - %s: %g%%", c.Name, percent))
	}
	return strings.Join(lines, "\n")
}

// candidateDigest compresses each candidate into a short plain-text block so
// five resumes fit one prompt.
func candidateDigest(candidates []domain.ComparisonCandidate) string {
	blocks := make([]string, 0, len(candidates))
	for i, cand := range candidates {
		idx := i + 1
		parsed := cand.ParsedData

		name := parsed.FullName()
		if name == "" {
			name = fmt.Sprintf("Candidate %d", idx)
		}

		var b strings.Builder
		fmt.Fprintf(&b, "Candidate #%d (ApplicationId: %d)\n", idx, cand.ApplicationID)
		fmt.Fprintf(&b, "Name: %s\n", name)
		fmt.Fprintf(&b, "Total Score: %.1f/100\n", cand.TotalScore)
		fmt.Fprintf(&b, "\nSummary: %s\n", orNotAvailable(textx.CutRunes(parsed.Summary(), maxSummaryDigest)))

		b.WriteString("\nWork Experience:\n")
		b.WriteString(bulletList(parsed.ExperienceLines(digestExperienceEntries)))
		b.WriteString("\nEducation:\n")
		b.WriteString(bulletList(parsed.EducationLines(digestEducationEntries)))

		b.WriteString("\nSkills:\n")
		fmt.Fprintf(&b, "  Matched: %s\n", orNotAvailable(cand.MatchSkills))
		fmt.Fprintf(&b, "  Missing: %s\n", orNotAvailable(cand.MissingSkills))
		technical := strings.Join(parsed.TopSkills(digestSkillsPerCategory, digestSkillsMax), ", ")
		fmt.Fprintf(&b, "  Technical: %s", orNotAvailable(technical))

		blocks = append(blocks, b.String())
	}
	return strings.Join(blocks, "\n\n")
}

// analysisRequirements numbers the per-candidate analysis instructions:
// overallSummary and jobFit first, one entry per named criterion, then the
// recommendation block.
func analysisRequirements(criteria []domain.Criterion) string {
	lines := []string{
		"1. **overallSummary**: Overall summary of the candidate (2-3 sentences)",
		"2. **jobFit**: Assessment of fit for this position (2-3 sentences)",
	}
	for _, c := range criteria {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("%d. **%s**: Detailed analysis of candidate's %s (2-4 sentences)", len(lines)+1, name, name))
	}
	lines = append(lines,
		fmt.Sprintf("%d. **recommendation**:", len(lines)+1),
		"   - rank: Ranking (1 = best, must be unique)",
		"   - reason: Reason for this ranking (2-3 sentences)",
	)
	return strings.Join(lines, "\n")
}

// analysisFieldsExample renders the analysis object of the JSON example, one
// line per expected field, indented to sit inside the surrounding structure.
func analysisFieldsExample(criteria []domain.Criterion) string {
	lines := []string{
		`        "overallSummary": "...",`,
		`        "jobFit": "...",`,
	}
	for _, c := range criteria {
		name := strings.TrimSpace(c.Name)
		if name == "" {
			continue
		}
		lines = append(lines, fmt.Sprintf("        %q: %q,", name, "..."))
	}
	lines = append(lines,
		`        "recommendation": {`,
		`          "rank": 1,`,
		`          "reason": "..."`,
		`        }`,
	)
	return strings.Join(lines, "\n")
}

func bulletList(items []string) string {
	if len(items) == 0 {
		return "  - Not available\n"
	}
	var b strings.Builder
	for _, item := range items {
		b.WriteString("  - ")
		b.WriteString(item)
		b.WriteByte('\n')
	}
	return b.String()
}

func orNotAvailable(s string) string {
	if strings.TrimSpace(s) == "" {
		return "Not available"
	}
	return s
}
