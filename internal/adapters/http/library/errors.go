package library

import (
	"errors"
	"fmt"
	"net/http"
)

// Sentinel kinds for library client errors.
var (
	ErrConfig           = errors.New("library client misconfigured")
	ErrTransport        = errors.New("library request failed")
	ErrUnexpectedStatus = errors.New("unexpected status from library api")
	ErrDecode           = errors.New("library response could not be decoded")
	ErrPanicked         = errors.New("pending call panicked")
)

// StatusError reports a non-2xx answer from the backend.
type StatusError struct {
	Operation  string
	StatusCode int
	Body       []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("library %s: unexpected status %d %s", e.Operation, e.StatusCode, http.StatusText(e.StatusCode))
}

// Unwrap lets errors.Is match ErrUnexpectedStatus.
func (e *StatusError) Unwrap() error { return ErrUnexpectedStatus }
