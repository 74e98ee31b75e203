package webodm

import (
	"errors"
	"fmt"
	"net/http"
)

// UpstreamError is a non-2xx answer from WebODM
type UpstreamError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("webodm returned status %d", e.StatusCode)
}

// TransportError is a failure to reach WebODM or to read its answer
type TransportError struct {
	Cause error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("webodm request failed: %v", e.Cause)
}

func (e *TransportError) Unwrap() error {
	return e.Cause
}

// IsNotFound reports whether err is an upstream 404
func IsNotFound(err error) bool {
	var upErr *UpstreamError
	return errors.As(err, &upErr) && upErr.StatusCode == http.StatusNotFound
}
