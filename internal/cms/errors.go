package cms

import (
	"errors"
	"fmt"
)

var errServerStatus = errors.New("server error")

// NetworkError covers transport failures, unexpected statuses, undecodable
// bodies and calls rejected by the open circuit breaker.
type NetworkError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("cms %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("cms %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}
