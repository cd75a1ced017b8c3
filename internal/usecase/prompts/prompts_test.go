package prompts

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
)

func sampleParsed() domain.ParsedResume {
	return domain.ParsedResume{
		"info": map[string]any{
			"fullName": "Jane Doe",
			"email":    "jane@example.com",
			"phone":    "+84 123 456 789",
		},
		"summary": "Backend engineer with 6 years of Go experience.",
		"work_experience": []any{
			map[string]any{"title": "Senior Backend Engineer", "company": "Acme", "duration": "3 years"},
			map[string]any{"title": "Backend Engineer", "company": "Globex", "duration": "2 years"},
		},
		"education": []any{
			map[string]any{"degree": "BSc Computer Science", "institution": "HUST"},
		},
		"technical_skills": map[string]any{
			"programming_languages": []any{"Go", "Python"},
			"databases":             []any{"PostgreSQL"},
		},
	}
}

func TestBuildResumeParse(t *testing.T) {
	t.Parallel()

	prompt := BuildResumeParse("JOHN SMITH\nSoftware Engineer at Initech")

	assert.True(t, strings.HasPrefix(prompt, "You are an AI bot specialized in parsing resumes"))
	assert.Contains(t, prompt, `"total_experience_years"`)
	assert.Contains(t, prompt, "Return ONLY valid JSON")
	assert.True(t, strings.HasSuffix(prompt, "Resume content:\nJOHN SMITH\nSoftware Engineer at Initech"))
}

func TestBuildCriteriaScoring(t *testing.T) {
	t.Parallel()

	criteria := []domain.Criterion{
		{CriteriaID: 10, Name: "Education", Weight: 0.4},
		{CriteriaID: 11, Name: "Kinh nghiệm làm việc", Weight: 0.6},
	}
	job := domain.JobContext{Title: "Backend Developer", Level: "Senior", Skills: "Go, PostgreSQL"}

	prompt, err := BuildCriteriaScoring(sampleParsed(), "5+ years building Go services", criteria, job)
	require.NoError(t, err)

	assert.Contains(t, prompt, "JOB CONTEXT:\nPosition: Backend Developer\nLevel: Senior\nRequired Skills: Go, PostgreSQL")
	assert.Contains(t, prompt, "JOB REQUIREMENTS:\n5+ years building Go services")
	assert.Contains(t, prompt, "SCORING CRITERIA:")
	assert.Contains(t, prompt, `"criteriaId": 10`)
	assert.Contains(t, prompt, "Kinh nghiệm làm việc")
	assert.Contains(t, prompt, "CANDIDATE RESUME DATA:")
	assert.Contains(t, prompt, "Jane Doe")
	assert.Contains(t, prompt, `"rawScore"`)
	assert.Contains(t, prompt, "Do NOT multiply it by the criterion weight")
}

func TestBuildCriteriaScoringWithoutJobContext(t *testing.T) {
	t.Parallel()

	prompt, err := BuildCriteriaScoring(sampleParsed(), "req", []domain.Criterion{{CriteriaID: 1, Name: "Skills", Weight: 1}}, domain.JobContext{})
	require.NoError(t, err)

	assert.NotContains(t, prompt, "JOB CONTEXT:")
	assert.Contains(t, prompt, "JOB REQUIREMENTS:\nreq")
}

func TestBuildCriteriaScoringCutsLongRequirements(t *testing.T) {
	t.Parallel()

	requirements := strings.Repeat("a", MaxScoringRequirements) + "TAIL_MARKER"

	prompt, err := BuildCriteriaScoring(sampleParsed(), requirements, nil, domain.JobContext{})
	require.NoError(t, err)

	assert.Contains(t, prompt, strings.Repeat("a", MaxScoringRequirements))
	assert.NotContains(t, prompt, "TAIL_MARKER")
}

func TestBuildResumeCheck(t *testing.T) {
	t.Parallel()

	prompt, err := BuildResumeCheck(sampleParsed(), "JANE DOE\nBackend engineer, Hanoi")
	require.NoError(t, err)

	assert.Contains(t, prompt, "STRUCTURED DATA EXTRACTED FROM THE DOCUMENT:")
	assert.Contains(t, prompt, `"fullName": "Jane Doe"`)
	assert.Contains(t, prompt, "DOCUMENT TEXT (may be truncated):\nJANE DOE\nBackend engineer, Hanoi")
	assert.Contains(t, prompt, `{"isResume": <true|false>, "reason": "<one sentence>"}`)
	assert.NotContains(t, prompt, "{{PARSED_JSON}}")
	assert.NotContains(t, prompt, "{{RAW_TEXT}}")
}

func TestBuildResumeCheckCutsLongText(t *testing.T) {
	t.Parallel()

	raw := strings.Repeat("x", 2000) + "OVERFLOW"

	prompt, err := BuildResumeCheck(domain.ParsedResume{}, raw)
	require.NoError(t, err)

	assert.NotContains(t, prompt, "OVERFLOW")
}

func TestBuildTitleMatch(t *testing.T) {
	t.Parallel()

	prompt := BuildTitleMatch("Backend Developer", []string{"Senior Software Engineer", "Tech Lead"}, "Seasoned engineer.")

	assert.Contains(t, prompt, "Required job title: Backend Developer")
	assert.Contains(t, prompt, "- Senior Software Engineer\n- Tech Lead")
	assert.Contains(t, prompt, "Professional summary:\nSeasoned engineer.")
	assert.Contains(t, prompt, `{"matched": <true|false>, "reason": "<one or two sentences>"}`)
}

func TestBuildTitleMatchWithoutTitles(t *testing.T) {
	t.Parallel()

	prompt := BuildTitleMatch("Backend Developer", nil, "")

	assert.Contains(t, prompt, "Job titles found in the resume:\n(none found)")
	assert.Contains(t, prompt, "Professional summary:\nNot available")
}

func TestBuildCandidateCompare(t *testing.T) {
	t.Parallel()

	job := domain.ComparisonJob{
		ComparisonID:   7,
		JobTitle:       "Backend Developer",
		Level:          "Senior",
		Specialization: "Distributed systems",
		Skills:         "Go, Kafka",
		Requirements:   "Design and run high-throughput services.",
		Criteria: []domain.Criterion{
			{CriteriaID: 1, Name: "Education", Weight: 0.4},
			{CriteriaID: 2, Name: "Technical skills", Weight: 0.6},
		},
		Candidates: []domain.ComparisonCandidate{
			{
				ApplicationID: 11,
				ParsedData:    sampleParsed(),
				MatchSkills:   "Go, PostgreSQL",
				MissingSkills: "Kafka",
				TotalScore:    78.5,
			},
			{
				ApplicationID: 12,
				ParsedData:    domain.ParsedResume{},
				TotalScore:    42,
			},
		},
	}

	prompt := BuildCandidateCompare(job)

	assert.Contains(t, prompt, "compare 2 candidates")
	assert.Contains(t, prompt, "Position: Backend Developer")
	assert.Contains(t, prompt, "Job Requirements:\nDesign and run high-throughput services.")
	assert.Contains(t, prompt, "  - Education: 40%\n  - Technical skills: 60%")

	assert.Contains(t, prompt, "Candidate #1 (ApplicationId: 11)")
	assert.Contains(t, prompt, "Name: Jane Doe")
	assert.Contains(t, prompt, "Total Score: 78.5/100")
	assert.Contains(t, prompt, "  - Senior Backend Engineer at Acme (3 years)")
	assert.Contains(t, prompt, "  - BSc Computer Science - HUST")
	assert.Contains(t, prompt, "  Matched: Go, PostgreSQL")
	assert.Contains(t, prompt, "  Missing: Kafka")
	assert.Contains(t, prompt, "  Technical: Go, Python, PostgreSQL")

	// empty parsed data falls back to placeholders
	assert.Contains(t, prompt, "Candidate #2 (ApplicationId: 12)")
	assert.Contains(t, prompt, "Name: Candidate 2")
	assert.Contains(t, prompt, "Summary: Not available")
	assert.Contains(t, prompt, "  - Not available")

	// criteria drive both the numbered requirements and the JSON example
	assert.Contains(t, prompt, "3. **Education**: Detailed analysis of candidate's Education (2-4 sentences)")
	assert.Contains(t, prompt, "4. **Technical skills**")
	assert.Contains(t, prompt, "5. **recommendation**:")
	assert.Contains(t, prompt, `"Education": "...",`)
	assert.Contains(t, prompt, `"Technical skills": "...",`)
	assert.Contains(t, prompt, `"recommendation": {`)
	assert.NotContains(t, prompt, "{{")
}

func TestBuildCandidateCompareSkipsUnnamedCriteria(t *testing.T) {
	t.Parallel()

	job := domain.ComparisonJob{
		Criteria: []domain.Criterion{
			{CriteriaID: 1, Name: "", Weight: 0.5},
			{CriteriaID: 2, Name: "Projects", Weight: 0.5},
		},
		Candidates: []domain.ComparisonCandidate{{ApplicationID: 1}, {ApplicationID: 2}},
	}

	prompt := BuildCandidateCompare(job)

	assert.Contains(t, prompt, "3. **Projects**")
	assert.Contains(t, prompt, "4. **recommendation**:")
	assert.NotContains(t, prompt, "**: Detailed analysis of candidate's  (")
}

func TestBuildCandidateCompareCutsLongRequirements(t *testing.T) {
	t.Parallel()

	job := domain.ComparisonJob{
		Requirements: strings.Repeat("r", MaxCompareRequirements) + "OVERFLOW",
		Candidates:   []domain.ComparisonCandidate{{ApplicationID: 1}, {ApplicationID: 2}},
	}

	prompt := BuildCandidateCompare(job)

	assert.NotContains(t, prompt, "OVERFLOW")
}
