package schema

import (
	"fmt"
	"strings"
)

// PublicMessage is what a caller may show when a payload could not be used.
const PublicMessage = "The quote service returned an unexpected response. Contact technical support for more information."

// ApiError is a well formed error envelope returned by the upstream API,
// e.g. {"status":"error","code":404,"message":"..."}. Code is 0 when the
// envelope carried none.
type ApiError struct {
	Code       int
	RawMessage string
}

func (e *ApiError) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("api error %d: %s", e.Code, e.RawMessage)
	}
	return "api error: " + e.RawMessage
}

// HTTPStatus exposes the envelope code so it is handled like a transport
// status by retry and message mapping.
func (e *ApiError) HTTPStatus() int { return e.Code }

// Issue is one structural mismatch found while validating a payload.
type Issue struct {
	Path  string `json:"path"`
	Tag   string `json:"tag"`
	Param string `json:"param,omitempty"`
}

func (i Issue) String() string {
	if i.Param != "" {
		return i.Path + ": " + i.Tag + "=" + i.Param
	}
	return i.Path + ": " + i.Tag
}

// ValidationError means the payload did not have the expected shape. Its
// message is intentionally generic; Issues are for logs only.
type ValidationError struct {
	Issues []Issue
	err    error
}

func (e *ValidationError) Error() string { return PublicMessage }

func (e *ValidationError) Unwrap() error { return e.err }

// Retryable is always false: the same payload will fail the same way.
func (e *ValidationError) Retryable() bool { return false }

// Detail renders the issues on one line.
func (e *ValidationError) Detail() string {
	parts := make([]string, len(e.Issues))
	for i, is := range e.Issues {
		parts[i] = is.String()
	}
	return strings.Join(parts, "; ")
}
