package apiclient

import (
	"context"
	"errors"
	"net/http"
	"strings"
)

var (
	// ErrUnauthorized is returned for 401 responses, after the session was logged out.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrMalformedJSON is returned in strict mode when a successful response
	// declared as JSON does not parse.
	ErrMalformedJSON = errors.New("malformed JSON response")
)

// defaultErrorMessage is used when the error body carries no usable detail.
const defaultErrorMessage = "request failed"

// RequestError is returned for non-2xx responses other than 401.
type RequestError struct {
	StatusCode int
	// Message is the API's detail message, or a generic failure message.
	Message string
	// Data is the parsed error body: a JSON value, text, *Blob or nil.
	Data any
}

func (e *RequestError) Error() string {
	return e.Message
}

// Detail returns the string detail field of the error body, if any.
func (e *RequestError) Detail() string {
	if m, ok := e.Data.(map[string]any); ok {
		if detail, ok := m["detail"].(string); ok {
			return detail
		}
	}
	return ""
}

func newRequestError(status int, data any) *RequestError {
	return &RequestError{
		StatusCode: status,
		Message:    errorMessage(data),
		Data:       data,
	}
}

// errorMessage prefers the detail field of a JSON error body. Validation errors
// carrying a list of {msg} objects are joined.
func errorMessage(data any) string {
	m, ok := data.(map[string]any)
	if !ok {
		return defaultErrorMessage
	}

	switch detail := m["detail"].(type) {
	case string:
		if detail != "" {
			return detail
		}
	case []any:
		var msgs []string
		for _, item := range detail {
			if obj, ok := item.(map[string]any); ok {
				if msg, ok := obj["msg"].(string); ok && msg != "" {
					msgs = append(msgs, msg)
				}
			}
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}
	return defaultErrorMessage
}

// IsCanceled reports whether err stems from a canceled request context.
// Callers treat canceled requests as no-ops, never as user-facing errors.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled)
}

// IsUnauthorized reports whether err stems from a 401 response.
func IsUnauthorized(err error) bool {
	return errors.Is(err, ErrUnauthorized)
}

// StatusCode returns the HTTP status carried by err, or 0 if none.
func StatusCode(err error) int {
	if errors.Is(err, ErrUnauthorized) {
		return http.StatusUnauthorized
	}
	var reqErr *RequestError
	if errors.As(err, &reqErr) {
		return reqErr.StatusCode
	}
	return 0
}
