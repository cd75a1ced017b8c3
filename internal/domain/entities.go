// Package domain defines the entities, ports, and error taxonomy of the
// resume-processing pipeline. All entities live for the duration of one job;
// nothing here persists across jobs.
package domain

import (
	"context"
	"errors"
)

// Error taxonomy (sentinels)
var (
	// ErrInvalidJob marks malformed or structurally incomplete queue payloads.
	// Jobs failing with it are dropped without retry.
	ErrInvalidJob = errors.New("invalid job")

	// ErrMissingCredential is returned when no AI API key can be resolved.
	ErrMissingCredential = errors.New("missing credential")

	// AI contract violations. Retryable: a repeated call to a nondeterministic
	// model may succeed where the first failed.
	ErrEmptyAIResponse   = errors.New("empty ai response")
	ErrAIResponseInvalid = errors.New("ai response invalid")
	ErrParsing           = errors.New("resume parsing failed")
	ErrScoring           = errors.New("ai scoring failed")

	// Text extraction failures. Deterministic for a given file; not retried.
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrFileNotFound      = errors.New("file not found")
	ErrMissingDependency = errors.New("missing decoder dependency")
	ErrDecode            = errors.New("decode failed")

	// ErrCallback wraps result-delivery failures. Retryable at the job level.
	ErrCallback = errors.New("callback delivery failed")
)

// Retryable reports whether the job-level retry loop should re-attempt after err.
// Input errors and deterministic extraction failures are permanent; everything
// else (network, AI contract violations, callback) is worth another attempt.
func Retryable(err error) bool {
	switch {
	case errors.Is(err, ErrInvalidJob),
		errors.Is(err, ErrMissingCredential),
		errors.Is(err, ErrUnsupportedFormat),
		errors.Is(err, ErrFileNotFound),
		errors.Is(err, ErrMissingDependency),
		errors.Is(err, ErrDecode):
		return false
	}
	return true
}

// GenOpts carries per-call generation parameters for the AI gateway.
type GenOpts struct {
	Temperature     float32
	MaxOutputTokens int32
}

// TextGenerator (port)
//
// Generate is the single primitive every AI-backed component funnels through:
// prompt in, raw model text out. Implementations own response-shape handling
// and must return ErrEmptyAIResponse when no text can be extracted.
type TextGenerator interface {
	Generate(ctx Context, prompt string, opts GenOpts) (string, error)
}

// TextExtractor (port)
//
// Extract returns the plain text of the document at path, dispatching on the
// file extension. Extraction failures map onto the extraction sentinels above.
type TextExtractor interface {
	Extract(ctx Context, path string) (string, error)
}

// FileFetcher (port)
//
// Fetch materializes fileURL on the local filesystem. Remote URLs are
// downloaded to a temporary file (cleanup=true); local paths are used in
// place and must never be deleted (cleanup=false).
type FileFetcher interface {
	Fetch(ctx Context, fileURL string) (path string, cleanup bool, err error)
}

// CallbackSender (port)
//
// Send delivers one result payload to the backend; delivery failures wrap
// ErrCallback. Close releases the underlying session at shutdown.
type CallbackSender interface {
	Send(ctx Context, payload ResultPayload) error
	Close()
}

// Context is an alias so domain signatures stay decoupled from the stdlib
// import while adapters keep passing context.Context straight through.
type Context = context.Context
