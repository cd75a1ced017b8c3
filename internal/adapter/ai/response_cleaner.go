// Package ai provides response cleaning utilities for handling malformed LLM responses.
package ai

import (
	"encoding/json"
	"strings"

	"github.com/AICES-Capstone-Project/AICES-ai-worker/internal/domain"
)

// ResponseCleaner normalizes raw LLM output into a parseable JSON document.
// It strips markdown fences and trims surrounding prose; it never rewrites
// the JSON content itself.
type ResponseCleaner struct{}

// NewResponseCleaner creates a new response cleaner.
func NewResponseCleaner() *ResponseCleaner {
	return &ResponseCleaner{}
}

// CleanJSONResponse strips markdown code fences and, when the remainder still
// is not valid JSON, cuts the response down to its outermost JSON object.
func (rc *ResponseCleaner) CleanJSONResponse(response string) string {
	response = rc.removeMarkdownFences(response)
	if rc.IsValidJSON(response) {
		return response
	}
	return rc.extractJSONObject(response)
}

// removeMarkdownFences removes ```json / ``` markers around the response.
func (rc *ResponseCleaner) removeMarkdownFences(response string) string {
	response = strings.TrimSpace(response)
	response = strings.TrimPrefix(response, "```json")
	response = strings.TrimPrefix(response, "```")
	response = strings.TrimSuffix(response, "```")
	return strings.TrimSpace(response)
}

// extractJSONObject returns the first balanced top-level JSON object in the
// response. Braces inside string literals do not count toward the balance.
func (rc *ResponseCleaner) extractJSONObject(response string) string {
	start := strings.Index(response, "{")
	if start == -1 {
		return response
	}

	depth := 0
	inString := false
	escaped := false
	for i := start; i < len(response); i++ {
		c := response[i]
		if escaped {
			escaped = false
			continue
		}
		switch c {
		case '\\':
			if inString {
				escaped = true
			}
		case '"':
			inString = !inString
		case '{':
			if !inString {
				depth++
			}
		case '}':
			if !inString {
				depth--
				if depth == 0 {
					return response[start : i+1]
				}
			}
		}
	}
	return response
}

// IsValidJSON checks if a string is valid JSON.
func (rc *ResponseCleaner) IsValidJSON(response string) bool {
	var temp interface{}
	return json.Unmarshal([]byte(response), &temp) == nil
}

// CleanAndValidateJSON cleans a response and fails when the result is still
// not valid JSON.
func (rc *ResponseCleaner) CleanAndValidateJSON(response string) (string, error) {
	cleaned := rc.CleanJSONResponse(response)
	if !rc.IsValidJSON(cleaned) {
		return "", &JSONValidationError{
			Original: response,
			Cleaned:  cleaned,
			Message:  "cleaned response is still not valid JSON",
		}
	}
	return cleaned, nil
}

// JSONValidationError represents a JSON validation error.
type JSONValidationError struct {
	Original string
	Cleaned  string
	Message  string
}

func (e *JSONValidationError) Error() string {
	return e.Message
}

// Unwrap lets errors.Is classify the failure as an invalid AI response.
func (e *JSONValidationError) Unwrap() error {
	return domain.ErrAIResponseInvalid
}
