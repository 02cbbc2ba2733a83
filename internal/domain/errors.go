// Package domain holds the core types and sentinel errors shared across layers.
package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound signals a missing resume.
	ErrNotFound = errors.New("resume not found")
	// ErrJobNotFound signals a missing job.
	ErrJobNotFound = errors.New("job not found")
	// ErrValidation signals a missing or malformed field.
	ErrValidation = errors.New("validation failed")
	// ErrRateLimited signals a rate limit hit.
	ErrRateLimited = errors.New("rate limit exceeded")
	// ErrIdempotencyConflict signals reuse of an idempotency key with a different payload.
	ErrIdempotencyConflict = errors.New("idempotency key reused with a different request")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrFileTooLarge signals an upload over the size limit.
	ErrFileTooLarge = errors.New("file too large")
	// ErrUnsupportedFileType signals an upload of an unsupported format.
	ErrUnsupportedFileType = errors.New("unsupported file type")
)

// ValidationError wraps ErrValidation with the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("%s: %s", ErrValidation.Error(), e.Reason)
	}
	return fmt.Sprintf("%s: field %q: %s", ErrValidation.Error(), e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// NewValidation creates a field-level validation error.
func NewValidation(field, reason string) error {
	return &ValidationError{Field: field, Reason: reason}
}
