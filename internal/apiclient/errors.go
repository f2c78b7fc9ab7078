package apiclient

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
)

// StatusError is returned for any response with status >= 400
type StatusError struct {
	StatusCode int
	// Message is the server-supplied reason, if the body carried one
	Message string
	// FieldErrors holds model-state validation errors keyed by field
	FieldErrors map[string][]string
	Body        []byte
}

func (e *StatusError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return fmt.Sprintf("request failed with status code %d", e.StatusCode)
}

// TransportError wraps failures that happened before a response arrived
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return "network error: " + e.Err.Error()
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// errorBody covers the shapes the API uses for failures: the auth endpoints'
// {isSuccess,message}, plain {message}/{title}, and model-state {errors:{}}
type errorBody struct {
	Message string              `json:"message"`
	Title   string              `json:"title"`
	Errors  map[string][]string `json:"errors"`
}

func newStatusError(status int, body []byte) *StatusError {
	se := &StatusError{StatusCode: status, Body: body}

	var eb errorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		se.Message = eb.Message
		se.FieldErrors = eb.Errors
		if se.Message == "" && len(eb.Errors) == 0 {
			se.Message = eb.Title
		}
	}
	return se
}

// ServerMessage extracts the server-supplied reason from err, if any
func ServerMessage(err error) (string, bool) {
	var se *StatusError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message, true
	}
	return "", false
}

// IsStatus reports whether err is a StatusError with the given code
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// IsTransport reports whether err happened before a response arrived
func IsTransport(err error) bool {
	var te *TransportError
	return errors.As(err, &te)
}

// FormatFieldErrors renders validation errors as "field: msg1, msg2 | field2: msg"
// with fields in a stable order
func FormatFieldErrors(fieldErrors map[string][]string) string {
	fields := make([]string, 0, len(fieldErrors))
	for f := range fieldErrors {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	parts := make([]string, 0, len(fields))
	for _, f := range fields {
		parts = append(parts, f+": "+strings.Join(fieldErrors[f], ", "))
	}
	return strings.Join(parts, " | ")
}
