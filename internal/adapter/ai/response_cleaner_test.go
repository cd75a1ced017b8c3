package ai

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
)

func TestResponseCleaner_CleanJSONResponse(t *testing.T) {
	t.Parallel()

	cleaner := NewResponseCleaner()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "already_clean",
			input:    `{"recommendation": "hire"}`,
			expected: `{"recommendation": "hire"}`,
		},
		{
			name:     "json_fence",
			input:    "```json\n{\"fullName\": \"Dana Mulyana\"}\n```",
			expected: `{"fullName": "Dana Mulyana"}`,
		},
		{
			name:     "bare_fence",
			input:    "```\n{\"jobFit\": \"strong\"}\n```",
			expected: `{"jobFit": "strong"}`,
		},
		{
			name:     "leading_prose",
			input:    "Here is the parsed resume: {\"fullName\": \"Dana Mulyana\", \"email\": \"dana@example.com\"}",
			expected: `{"fullName": "Dana Mulyana", "email": "dana@example.com"}`,
		},
		{
			name:     "trailing_prose",
			input:    "{\"matched\": 0.8}\nHope this helps!",
			expected: `{"matched": 0.8}`,
		},
		{
			name:     "braces_inside_string_values",
			input:    "Result: {\"summary\": \"built {templated} reports\", \"ok\": true} done",
			expected: `{"summary": "built {templated} reports", "ok": true}`,
		},
		{
			name:     "escaped_quote_inside_string",
			input:    "{\"note\": \"listed as \\\"Go (advanced)}\\\"\", \"ok\": true} trailing",
			expected: `{"note": "listed as \"Go (advanced)}\"", "ok": true}`,
		},
		{
			name:     "nested_objects",
			input:    "noise {\"scores\": {\"skills\": {\"raw\": 88}}} noise",
			expected: `{"scores": {"skills": {"raw": 88}}}`,
		},
		{
			name:     "no_json_at_all",
			input:    "I cannot produce that output.",
			expected: "I cannot produce that output.",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			result := cleaner.CleanJSONResponse(tt.input)
			assert.Equal(t, tt.expected, result)
		})
	}
}

func TestResponseCleaner_CleanJSONResponse_PreservesContent(t *testing.T) {
	t.Parallel()

	cleaner := NewResponseCleaner()

	// Apostrophes and asterisks in values must survive untouched.
	input := "```json\n{\"fullName\": \"Sinead O'Brien\", \"summary\": \"5* engineer\"}\n```"
	result := cleaner.CleanJSONResponse(input)
	assert.Equal(t, `{"fullName": "Sinead O'Brien", "summary": "5* engineer"}`, result)
	assert.True(t, cleaner.IsValidJSON(result))
}

func TestResponseCleaner_IsValidJSON(t *testing.T) {
	t.Parallel()

	cleaner := NewResponseCleaner()

	assert.True(t, cleaner.IsValidJSON(`{"a": 1}`))
	assert.True(t, cleaner.IsValidJSON(`[1, 2, 3]`))
	assert.False(t, cleaner.IsValidJSON(`{"a": 1`))
	assert.False(t, cleaner.IsValidJSON(`not json`))
}

func TestResponseCleaner_CleanAndValidateJSON(t *testing.T) {
	t.Parallel()

	cleaner := NewResponseCleaner()

	cleaned, err := cleaner.CleanAndValidateJSON("```json\n{\"ok\": true}\n```")
	require.NoError(t, err)
	assert.Equal(t, `{"ok": true}`, cleaned)

	_, err = cleaner.CleanAndValidateJSON("definitely not json")
	require.Error(t, err)

	var vErr *JSONValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "definitely not json", vErr.Original)
	assert.True(t, errors.Is(err, domain.ErrAIResponseInvalid))
}
