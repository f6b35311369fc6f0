// Package errors provides structured error types for wheelres.
//
// Every failure that leaves the resolution engine is an [*Error] carrying a
// machine-readable [Code]. Resolution failures additionally carry the
// context needed to explain them:
//   - METADATA_UNAVAILABLE and ARTIFACT_FETCH carry the project, version and
//     the ordered list of strategy attempts that were made
//   - UNSATISFIABLE carries the conflicting requirement chain
//
// # Usage
//
//	err := errors.New(errors.ErrCodeInvalidRequirement, "invalid requirement: %s", text)
//	if errors.Is(err, errors.ErrCodeInvalidRequirement) {
//	    // Handle validation error
//	}
//
//	// Wrap existing errors
//	err := errors.Wrap(errors.ErrCodeArtifactFetch, origErr, "failed to fetch %s", url)
package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Code represents a machine-readable error code.
type Code string

// Error codes for different error categories.
const (
	// Input validation errors
	ErrCodeInvalidRequirement Code = "INVALID_REQUIREMENT"
	ErrCodeInvalidEnvironment Code = "INVALID_ENVIRONMENT"
	ErrCodeInvalidConfig      Code = "INVALID_CONFIG"
	ErrCodeInvalidGraph       Code = "INVALID_GRAPH"

	// Resolution errors
	ErrCodeMetadataUnavailable Code = "METADATA_UNAVAILABLE"
	ErrCodeArtifactFetch       Code = "ARTIFACT_FETCH"
	ErrCodeUnsatisfiable       Code = "UNSATISFIABLE"
	ErrCodeTooDeep             Code = "RESOLUTION_TOO_DEEP"

	// Lifecycle errors
	ErrCodeCancelled Code = "CANCELLED"
	ErrCodeInternal  Code = "INTERNAL_ERROR"
)

// Attempt records one strategy invocation inside a fallback chain.
type Attempt struct {
	Strategy string `json:"strategy"` // strategy instance id
	Position int    `json:"position"` // zero-based position in precedence order
	Outcome  string `json:"outcome"`  // "ok", "not_applicable" or "error"
	Detail   string `json:"detail,omitempty"`
}

// Conflict is one link in an unsatisfiable requirement chain.
type Conflict struct {
	Requirement string `json:"requirement"`
	Parent      string `json:"parent,omitempty"` // empty for root requirements
}

// String formats the conflict the way it appears in error messages.
func (c Conflict) String() string {
	if c.Parent == "" {
		return c.Requirement + " (root)"
	}
	return c.Requirement + " (from " + c.Parent + ")"
}

// Error is a structured error with a code and optional cause.
type Error struct {
	Code    Code   // Machine-readable error code
	Message string // Human-readable message
	Cause   error  // Underlying error (optional)

	Project   string     // project the failure relates to (optional)
	Version   string     // version the failure relates to (optional)
	Attempts  []Attempt  // strategy attempts, for fetch failures
	Conflicts []Conflict // requirement chain, for UNSATISFIABLE
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for errors.Is/As compatibility.
func (e *Error) Unwrap() error {
	return e.Cause
}

// New creates a new Error with the given code and formatted message.
func New(code Code, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
	}
}

// Wrap creates a new Error wrapping an existing error.
func Wrap(code Code, cause error, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Cause:   cause,
	}
}

// MetadataUnavailable reports that every metadata strategy declined or failed
// for project==version.
func MetadataUnavailable(project, version string, attempts []Attempt, cause error) *Error {
	return &Error{
		Code:     ErrCodeMetadataUnavailable,
		Message:  fmt.Sprintf("no metadata for %s==%s after %d attempt(s)", project, version, len(attempts)),
		Cause:    cause,
		Project:  project,
		Version:  version,
		Attempts: attempts,
	}
}

// ArtifactFetch reports a failed network or file fetch for an applicable strategy.
func ArtifactFetch(project, version string, attempts []Attempt, cause error) *Error {
	msg := "fetch failed for " + project
	if version != "" {
		msg += "==" + version
	}
	return &Error{
		Code:     ErrCodeArtifactFetch,
		Message:  msg,
		Cause:    cause,
		Project:  project,
		Version:  version,
		Attempts: attempts,
	}
}

// Unsatisfiable reports that no assignment satisfies the requirement chain.
func Unsatisfiable(conflicts []Conflict) *Error {
	parts := make([]string, len(conflicts))
	for i, c := range conflicts {
		parts[i] = c.String()
	}
	return &Error{
		Code:      ErrCodeUnsatisfiable,
		Message:   "conflicting requirements: " + strings.Join(parts, ", "),
		Conflicts: conflicts,
	}
}

// Is reports whether err has the given error code.
// It unwraps the error chain looking for an *Error with a matching code.
func Is(err error, code Code) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Code == code
	}
	return false
}

// As returns the first *Error in err's chain.
func As(err error) (*Error, bool) {
	var e *Error
	ok := errors.As(err, &e)
	return e, ok
}

// GetCode extracts the error code from an error, if available.
// Returns empty string if the error is not an *Error.
func GetCode(err error) Code {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// UserMessage returns a user-friendly message for the error.
// For *Error types, returns the message without the code prefix.
// For other errors, returns the error string as-is.
func UserMessage(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return err.Error()
}
