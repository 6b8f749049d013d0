package shortcut

import (
	"errors"
	"fmt"
)

// ValidationError reports a shortcut or citation input that violates a
// stated invariant. It is always returned before any registry mutation.
//
// Callers must fix the input and retry; the engine never retries on its own.
type ValidationError struct {
	// Field names the violated constraint ("confidence", "verified_citations",
	// "node_id", "pattern", "source_id", "content").
	Field string

	// Message is a human-readable description.
	Message string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed: %s: %s", e.Field, e.Message)
}

// IsValidationError reports whether err is (or wraps) a ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
