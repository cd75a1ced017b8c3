package usecase

import (
	"fmt"
	"testing"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
)

// genFunc adapts a closure to the TextGenerator port.
type genFunc func(ctx domain.Context, prompt string, opts domain.GenOpts) (string, error)

func (f genFunc) Generate(ctx domain.Context, prompt string, opts domain.GenOpts) (string, error) {
	return f(ctx, prompt, opts)
}

func staticGen(response string) genFunc {
	return func(domain.Context, string, domain.GenOpts) (string, error) { return response, nil }
}

func failingGen(err error) genFunc {
	return func(domain.Context, string, domain.GenOpts) (string, error) { return "", err }
}

// noCallGen fails the test on any AI call. For paths that must be decided by
// rules alone.
func noCallGen(t *testing.T) genFunc {
	t.Helper()
	return func(_ domain.Context, prompt string, _ domain.GenOpts) (string, error) {
		t.Fatalf("unexpected AI call, prompt started with: %.80s", prompt)
		return "", nil
	}
}

// sequencedGen returns canned responses in call order and records the
// prompts it saw.
type sequencedGen struct {
	responses []string
	prompts   []string
}

func (g *sequencedGen) Generate(_ domain.Context, prompt string, _ domain.GenOpts) (string, error) {
	g.prompts = append(g.prompts, prompt)
	if len(g.prompts) > len(g.responses) {
		return "", fmt.Errorf("unexpected generate call %d", len(g.prompts))
	}
	return g.responses[len(g.prompts)-1], nil
}

func sampleParsed() domain.ParsedResume {
	return domain.ParsedResume{
		"info": map[string]any{
			"fullName": "Dana Mulyana",
			"email":    "dana@example.com",
			"phone":    "+62 812 0000 1111",
			"location": "Bandung, Indonesia",
		},
		"summary": "Backend engineer with six years of Go and distributed systems experience.",
		"work_experience": []any{
			map[string]any{"jobTitle": "Backend Engineer", "company": "PT Nusantara Data", "duration": "2019-2023"},
			map[string]any{"jobTitle": "Software Engineer", "company": "CV Digital Kreasi", "duration": "2017-2019"},
		},
		"education": []any{
			map[string]any{"degree": "B.Sc. Computer Science", "institution": "Institut Teknologi Bandung", "year": "2017"},
		},
		"technical_skills": map[string]any{
			"programming_languages": []any{"Go", "Python"},
			"databases":             []any{"PostgreSQL", "Redis"},
		},
	}.EnsureDefaults()
}

func sampleCriteria() []domain.Criterion {
	return []domain.Criterion{
		{CriteriaID: 1, Name: "Technical skills", Weight: 0.4},
		{CriteriaID: 2, Name: "Experience", Weight: 0.3},
		{CriteriaID: 3, Name: "Education", Weight: 0.3},
	}
}

func testResumeJob(mode domain.JobMode) domain.ResumeJob {
	req := "Senior backend engineer. Go, PostgreSQL, and six years of production experience required."
	job := domain.ResumeJob{
		QueueJobID:    "q-100",
		ResumeID:      10,
		ApplicationID: 20,
		JobID:         30,
		CampaignID:    40,
		CompanyID:     50,
		Mode:          mode,
		JobTitle:      "Backend Engineer",
		Requirements:  &req,
		Criteria:      sampleCriteria(),
	}
	if mode == domain.ModeParse {
		job.FileURL = "https://files.example.com/resume.pdf"
	} else {
		job.ParsedData = sampleParsed()
	}
	return job
}
