package catalog

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/hotosm/odmcatalog/app/webodm"
)

type ErrorKind int

const (
	// NotFound means a project or task does not exist upstream
	NotFound ErrorKind = iota + 1
	UpstreamFailure
	TransportFailure
	// FramingFailure means the terrain service could not be sampled
	FramingFailure
)

func (k ErrorKind) String() string {
	switch k {
	case NotFound:
		return "not_found"
	case UpstreamFailure:
		return "upstream_failure"
	case TransportFailure:
		return "transport_failure"
	case FramingFailure:
		return "framing_failure"
	}
	return "unknown"
}

// Error is the single failure a pipeline run reports.
// Status is the HTTP status to answer with.
type Error struct {
	Kind    ErrorKind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// discoveryError classifies a failure to list or fetch projects and tasks.
// Client errors from WebODM are forwarded with their status, anything else
// becomes a 500.
func discoveryError(what string, err error) *Error {
	if webodm.IsNotFound(err) {
		return &Error{
			Kind:    NotFound,
			Status:  http.StatusNotFound,
			Message: fmt.Sprintf("No %s were found", what),
			Err:     err,
		}
	}

	var upErr *webodm.UpstreamError
	if errors.As(err, &upErr) {
		switch {
		case upErr.StatusCode >= 400 && upErr.StatusCode < 500:
			return &Error{
				Kind:    UpstreamFailure,
				Status:  upErr.StatusCode,
				Message: fmt.Sprintf("WebODM refused to list %s", what),
				Err:     err,
			}
		default:
			return &Error{
				Kind:    UpstreamFailure,
				Status:  http.StatusInternalServerError,
				Message: fmt.Sprintf("An error occurred while getting %s from WebODM (status %d)", what, upErr.StatusCode),
				Err:     err,
			}
		}
	}

	return &Error{
		Kind:    TransportFailure,
		Status:  http.StatusInternalServerError,
		Message: fmt.Sprintf("An error occurred while getting %s from WebODM", what),
		Err:     err,
	}
}

func framingError(err error) *Error {
	return &Error{
		Kind:    FramingFailure,
		Status:  http.StatusInternalServerError,
		Message: "An error occurred while sampling heights",
		Err:     err,
	}
}

// IsCanceled reports whether err comes from the caller going away
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}
