package usecase

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
)

func TestMatchTitleOpenGateWithoutRequiredTitle(t *testing.T) {
	t.Parallel()

	m := NewTitleMatcher(noCallGen(t))
	verdict := m.MatchTitle(context.Background(), "   ", sampleParsed())
	assert.True(t, verdict.Matched)
}

func TestMatchTitleClosedGateWithoutResumeTitles(t *testing.T) {
	t.Parallel()

	parsed := domain.ParsedResume{
		"info":      map[string]any{"fullName": "Dana Mulyana"},
		"education": []any{map[string]any{"degree": "B.Sc."}},
	}.EnsureDefaults()

	m := NewTitleMatcher(noCallGen(t))
	verdict := m.MatchTitle(context.Background(), "Backend Engineer", parsed)
	assert.False(t, verdict.Matched)
	assert.Equal(t, "no job titles could be extracted from the resume", verdict.Reason)
}

func TestMatchTitleParsesVerdict(t *testing.T) {
	t.Parallel()

	gen := &sequencedGen{responses: []string{
		`{"matched": true, "reason": "Software Engineer and Backend Engineer are equivalent roles"}`,
	}}
	m := NewTitleMatcher(gen)

	verdict := m.MatchTitle(context.Background(), "Backend Engineer", sampleParsed())
	assert.True(t, verdict.Matched)
	assert.Equal(t, "Software Engineer and Backend Engineer are equivalent roles", verdict.Reason)

	require.Len(t, gen.prompts, 1)
	assert.Contains(t, gen.prompts[0], "Backend Engineer")
	assert.Contains(t, strings.ToLower(gen.prompts[0]), "software engineer")
}

func TestMatchTitleRejectionReasonSurfaces(t *testing.T) {
	t.Parallel()

	m := NewTitleMatcher(staticGen(`{"matched": false, "reason": "resume titles are all in accounting"}`))
	verdict := m.MatchTitle(context.Background(), "Backend Engineer", sampleParsed())
	assert.False(t, verdict.Matched)
	assert.Equal(t, "resume titles are all in accounting", verdict.Reason)
}

func TestMatchTitleFailuresCloseTheGate(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		gen  domain.TextGenerator
	}{
		{"generate fails", failingGen(errors.New("model unavailable"))},
		{"response not json", staticGen("the titles look broadly compatible")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			verdict := NewTitleMatcher(tt.gen).MatchTitle(context.Background(), "Backend Engineer", sampleParsed())
			assert.False(t, verdict.Matched)
			assert.Equal(t, "unable to validate", verdict.Reason)
		})
	}
}
