package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// ErrSessionExpired signals that a request failed with 401 and the refresh
// attempt could not produce a usable token. Callers are expected to tear down
// the session and send the user back to the login page.
var ErrSessionExpired = errors.New("session expired")

// DefaultErrorMessage is shown when the upstream response carries no usable
// error shape, or when the request never produced a response at all.
const DefaultErrorMessage = "Something went wrong. Please try again."

// FieldError is one entry of a structured server-side validation failure.
type FieldError struct {
	Location string
	Message  string
}

// Error is a decoded upstream failure. Fields is non-empty only when the
// server returned a structured list of field-level validation errors.
type Error struct {
	StatusCode int
	Message    string
	Fields     []FieldError
}

func (e *Error) Error() string {
	if len(e.Fields) > 0 {
		parts := make([]string, len(e.Fields))
		for i, f := range e.Fields {
			parts[i] = fmt.Sprintf("%s: %s", f.Location, f.Message)
		}
		return strings.Join(parts, "; ")
	}
	return e.Message
}

// HasFieldErrors reports whether the failure carries field-level detail.
func (e *Error) HasFieldErrors() bool {
	return len(e.Fields) > 0
}

// errorEnvelope covers the response shapes the records API is known to
// produce: {"detail": [...]}, {"detail": "..."}, {"error": "..."} and
// {"message": "..."}.
type errorEnvelope struct {
	Detail  json.RawMessage `json:"detail"`
	Message string          `json:"message"`
	Err     string          `json:"error"`
}

type detailEntry struct {
	Loc []json.RawMessage `json:"loc"`
	Msg string            `json:"msg"`
}

// decodeError turns an upstream failure body into an *Error, falling back to
// DefaultErrorMessage when the body is empty or unrecognizable.
func decodeError(statusCode int, body []byte) *Error {
	apiErr := &Error{StatusCode: statusCode, Message: DefaultErrorMessage}

	var env errorEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return apiErr
	}

	if len(env.Detail) > 0 {
		var entries []detailEntry
		if err := json.Unmarshal(env.Detail, &entries); err == nil {
			for _, e := range entries {
				apiErr.Fields = append(apiErr.Fields, FieldError{
					Location: locationField(e.Loc),
					Message:  e.Msg,
				})
			}
			if len(apiErr.Fields) > 0 {
				return apiErr
			}
		}
		var msg string
		if err := json.Unmarshal(env.Detail, &msg); err == nil && msg != "" {
			apiErr.Message = msg
			return apiErr
		}
	}

	if env.Err != "" {
		apiErr.Message = env.Err
	} else if env.Message != "" {
		apiErr.Message = env.Message
	}
	return apiErr
}

// locationField extracts the field name from a validation location path like
// ["body", "roll_number"]. The last string element is the field.
func locationField(loc []json.RawMessage) string {
	for i := len(loc) - 1; i >= 0; i-- {
		var s string
		if err := json.Unmarshal(loc[i], &s); err == nil && s != "" && s != "body" {
			return s
		}
	}
	return "field"
}
