package domain

import (
	"errors"
	"fmt"
)

var (
	ErrEmptyQuestion       = errors.New("question is empty")
	ErrRequestInFlight     = errors.New("a request is already in flight")
	ErrBothProvidersFailed = errors.New("both AI providers failed")
)

// APIError is a normalized upstream failure carrying the backend status and
// its `{error, details?}` body.
type APIError struct {
	StatusCode int    `json:"-"`
	Message    string `json:"error"`
	Details    string `json:"details,omitempty"`
}

func (e *APIError) Error() string {
	if e.Details != "" {
		return fmt.Sprintf("upstream %d: %s (%s)", e.StatusCode, e.Message, e.Details)
	}
	return fmt.Sprintf("upstream %d: %s", e.StatusCode, e.Message)
}
