package platform

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrNotFound is matched by errors for records the platform does not have.
var ErrNotFound = errors.New("not found")

// StatusError is a non-success answer from the platform: either a non-2xx
// status or an envelope with success=false.
type StatusError struct {
	StatusCode int
	Message    string
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("platform returned %d: %s", e.StatusCode, e.Message)
	}
	return fmt.Sprintf("platform returned %d", e.StatusCode)
}

// Is makes a 404 match ErrNotFound.
func (e *StatusError) Is(target error) bool {
	return target == ErrNotFound && e.StatusCode == http.StatusNotFound
}

// TransportError is a request that never produced a response.
type TransportError struct {
	Method string
	Path   string
	Err    error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Method, e.Path, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// UserMessage renders err as a short message fit for direct display.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	if errors.Is(err, context.Canceled) {
		return "request canceled"
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return "request timed out"
	}

	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		if statusErr.Message != "" {
			return statusErr.Message
		}
		if text := http.StatusText(statusErr.StatusCode); text != "" {
			return text
		}
		return "unexpected response from server"
	}

	var transportErr *TransportError
	if errors.As(err, &transportErr) {
		return "server unreachable"
	}
	return err.Error()
}
