package domain

import (
	"context"
	"errors"
)

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrConfiguration indicates the engine is misconfigured.
	// Configuration errors are never retried.
	ErrConfiguration = errors.New("configuration error")

	// ErrDimensionMismatch indicates an embedding whose dimension differs from the index.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrIndexNotReady indicates no persisted index exists yet.
	ErrIndexNotReady = errors.New("index not ready")

	// ErrNoIndexableContent indicates an ingestion run produced zero passages.
	ErrNoIndexableContent = errors.New("no indexable content")

	// ErrEmbeddingFailed indicates embedding generation failed after all attempts.
	ErrEmbeddingFailed = errors.New("embedding failed")

	// ErrGeneration indicates the generation backend failed to produce an answer.
	ErrGeneration = errors.New("generation failed")

	// Source Errors.

	// ErrSourceAccess indicates the document source could not be read.
	ErrSourceAccess = errors.New("document source access failed")

	// ErrPermissionDenied indicates the caller lacks access to a source resource.
	ErrPermissionDenied = errors.New("permission denied")

	// Backend Errors.

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")

	// ErrBackendUnavailable indicates a backend rejected credentials or could not be reached.
	ErrBackendUnavailable = errors.New("backend unavailable")
)

// ErrorKind is a coarse category used by the outer surfaces to render failures.
type ErrorKind string

// Error kinds.
const (
	ErrorKindConfiguration      ErrorKind = "configuration"
	ErrorKindSourceAccess       ErrorKind = "source_access"
	ErrorKindIndexNotReady      ErrorKind = "index_not_ready"
	ErrorKindRateLimited        ErrorKind = "rate_limited"
	ErrorKindBackendUnavailable ErrorKind = "backend_unavailable"
	ErrorKindGeneration         ErrorKind = "generation"
	ErrorKindInvalidInput       ErrorKind = "invalid_input"
	ErrorKindCancelled          ErrorKind = "cancelled"
	ErrorKindInternal           ErrorKind = "internal"
)

// ClassifiedError is an error annotated for display.
type ClassifiedError struct {
	Kind        ErrorKind `json:"kind"`
	Message     string    `json:"message"`
	Remediation string    `json:"remediation,omitempty"`
	Retryable   bool      `json:"retryable"`
}

// Classify maps an error to its kind and a remediation hint.
// Order matters: the most specific sentinel wins when an error wraps several.
func Classify(err error) ClassifiedError {
	if err == nil {
		return ClassifiedError{}
	}
	c := ClassifiedError{Kind: ErrorKindInternal, Message: err.Error()}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		c.Kind = ErrorKindCancelled
		c.Retryable = true
	case errors.Is(err, ErrRateLimited):
		c.Kind = ErrorKindRateLimited
		c.Remediation = "The API rate limit was reached. Wait a moment and try again."
		c.Retryable = true
	case errors.Is(err, ErrBackendUnavailable):
		c.Kind = ErrorKindBackendUnavailable
		c.Remediation = "The AI service is unavailable. Check the API key and endpoint with 'askdocs settings show'."
	case errors.Is(err, ErrConfiguration), errors.Is(err, ErrDimensionMismatch):
		c.Kind = ErrorKindConfiguration
		c.Remediation = "Check the embedding model and index dimensions, then rebuild the index with 'askdocs index rebuild'."
	case errors.Is(err, ErrPermissionDenied):
		c.Kind = ErrorKindSourceAccess
		c.Remediation = "Share the folder or document with the service account email and try again."
	case errors.Is(err, ErrSourceAccess) && errors.Is(err, ErrNotFound):
		c.Kind = ErrorKindSourceAccess
		c.Remediation = "Check the ID and that the resource is shared with the service account."
	case errors.Is(err, ErrSourceAccess):
		c.Kind = ErrorKindSourceAccess
		c.Remediation = "Check the source credentials and folder ID."
		c.Retryable = true
	case errors.Is(err, ErrIndexNotReady):
		c.Kind = ErrorKindIndexNotReady
		c.Remediation = "No index found. Run 'askdocs index all' first."
	case errors.Is(err, ErrGeneration), errors.Is(err, ErrEmbeddingFailed):
		c.Kind = ErrorKindGeneration
		c.Retryable = true
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound), errors.Is(err, ErrNoIndexableContent):
		c.Kind = ErrorKindInvalidInput
		if errors.Is(err, ErrNotFound) {
			c.Remediation = "Check the ID and that the resource is shared with the service account."
		}
	}
	return c
}
