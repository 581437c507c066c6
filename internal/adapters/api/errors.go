package api

import (
	"errors"
	"fmt"
)

// User-facing failure messages.
const (
	MsgHealthFailed       = "Health check failed"
	MsgHistoryFailed      = "Failed to load history"
	MsgInvalidJSON        = "Invalid JSON response"
	MsgGenerateFailed     = "Generation failed."
	MsgInputRequired      = "Input text or file is required."
	MsgBackendUnreachable = "Backend unreachable"
)

// APIError is the only error kind returned by Client. Status is the HTTP
// status of the failing response, or 0 when no response was received.
type APIError struct {
	Status  int
	Message string
	Err     error // Underlying cause, if any
}

func (e *APIError) Error() string {
	return e.Message
}

// Unwrap returns the underlying cause.
func (e *APIError) Unwrap() error {
	return e.Err
}

// HTTPStatus implements ports.BackendError.
func (e *APIError) HTTPStatus() int {
	return e.Status
}

// String is used in logs, where the status matters.
func (e *APIError) String() string {
	if e.Err != nil {
		return fmt.Sprintf("api error (status %d): %s: %v", e.Status, e.Message, e.Err)
	}
	return fmt.Sprintf("api error (status %d): %s", e.Status, e.Message)
}

// AsAPIError extracts an *APIError from err's chain.
func AsAPIError(err error) (*APIError, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr, true
	}
	return nil, false
}

func newAPIError(status int, message string, cause error) *APIError {
	return &APIError{Status: status, Message: message, Err: cause}
}
