package hoard

import (
	"errors"
	"fmt"
)

// ErrTimeBounds is returned when adding a TTL to the current time lands
// outside the clock's representable range. The caller decides whether to
// retry with a smaller TTL or skip the operation.
var ErrTimeBounds = errors.New("hoard: ttl overflows the representable time range")

// BackendError wraps a failure reported by a backend-delegating store's
// external engine.
type BackendError struct {
	// Op is the contract operation that failed, e.g. "get" or "clear".
	Op string
	// Err is the engine's own error.
	Err error
}

func (e *BackendError) Error() string {
	return fmt.Sprintf("hoard: backend %s: %v", e.Op, e.Err)
}

func (e *BackendError) Unwrap() error {
	return e.Err
}
