package vehiclemgmt

import (
	"fmt"
)

// APIError carries the response status so callers can distinguish
// transient 5xx failures from idempotent-conflict 4xx responses without
// string matching.
type APIError struct {
	StatusCode int
	Op         string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("vehicle management: %s: http status %d", e.Op, e.StatusCode)
}

// Transient reports whether the error is worth retrying later (a 5xx
// status). Network-level failures that never reached the server are
// returned as wrapped transport errors, not as an APIError.
func (e *APIError) Transient() bool {
	return e.StatusCode >= 500
}
