package authapi

import (
	"errors"
	"fmt"
)

// ErrUnauthorized is returned for any 401 from the backend.
var ErrUnauthorized = errors.New("unauthorized")

// APIError is a non-2xx answer from the backend.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("error from organizer API: status %d", e.StatusCode)
	}
	return fmt.Sprintf("error from organizer API: status %d: %s", e.StatusCode, e.Message)
}

// Unwrap lets errors.Is match ErrUnauthorized on 401s.
func (e *APIError) Unwrap() error {
	if e.StatusCode == 401 {
		return ErrUnauthorized
	}
	return nil
}

// UserMessage returns the message worth showing to the user for err.
func UserMessage(err error) string {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	if errors.Is(err, ErrUnauthorized) {
		return "Your session has expired. Please log in again."
	}
	return "Something went wrong. Please try again."
}
