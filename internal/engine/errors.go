package engine

import (
	"errors"
	"fmt"
)

// NotFoundError reports an execution attempt against an unregistered
// node_id. No log entry is written for a failed lookup - a logged record
// is proof of a successful execution.
type NotFoundError struct {
	NodeID string
}

// Error implements the error interface.
func (e *NotFoundError) Error() string {
	return fmt.Sprintf("shortcut not found: %q", e.NodeID)
}

// IsNotFound reports whether err is (or wraps) a NotFoundError.
func IsNotFound(err error) bool {
	var nf *NotFoundError
	return errors.As(err, &nf)
}
