package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Failure categories for non-2xx responses. A *ServerError wraps one of
// these so callers can classify with errors.Is.
var (
	ErrAuth         = errors.New("authentication failed")
	ErrAccessDenied = errors.New("access denied")
	ErrNotFound     = errors.New("not found")
)

// ServerError is any non-success response from the web API, carrying the
// server-supplied reason when one could be extracted from the body.
type ServerError struct {
	StatusCode int
	Reason     string
	category   error
}

func (e *ServerError) Error() string { return e.Reason }

func (e *ServerError) Unwrap() error { return e.category }

func newServerError(status int, body []byte) *ServerError {
	var category error
	switch status {
	case http.StatusUnauthorized:
		category = ErrAuth
	case http.StatusForbidden:
		category = ErrAccessDenied
	case http.StatusNotFound:
		category = ErrNotFound
	}
	return &ServerError{
		StatusCode: status,
		Reason:     extractReason(status, body),
		category:   category,
	}
}

// extractReason pulls the error message out of a JSON error body, falling
// back to the raw body text, then to a generic "HTTP <code>" string.
func extractReason(status int, body []byte) string {
	var payload struct {
		Reason  string `json:"reason"`
		Message string `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if payload.Reason != "" {
			return payload.Reason
		}
		if payload.Message != "" {
			return payload.Message
		}
	}
	if text := strings.TrimSpace(string(body)); text != "" {
		return text
	}
	return fmt.Sprintf("HTTP %d", status)
}
