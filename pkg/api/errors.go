package api

import (
	"fmt"
	"net/http"

	"github.com/pkg/errors"
)

// NetworkError reports a failed backend call: transport failure, non-2xx
// response or an undecodable body.
type NetworkError struct {
	Op         string
	URL        string
	StatusCode int // 0 when no response was received
	Err        error
}

func (e *NetworkError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s %s: status %d: %v", e.Op, e.URL, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("%s %s: %v", e.Op, e.URL, e.Err)
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// Transient reports whether retrying the call may succeed.
func (e *NetworkError) Transient() bool {
	return e.StatusCode == 0 || e.StatusCode >= http.StatusInternalServerError
}

func IsNetworkError(err error) bool {
	var ne *NetworkError
	return errors.As(err, &ne)
}

func isTransient(err error) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Transient()
	}
	return false
}
