package errors

import (
	"errors"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeInvalidRequirement, "test message: %s", "value")

	if err.Code != ErrCodeInvalidRequirement {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeInvalidRequirement)
	}

	if err.Message != "test message: value" {
		t.Errorf("Message = %v, want %v", err.Message, "test message: value")
	}

	expected := "INVALID_REQUIREMENT: test message: value"
	if err.Error() != expected {
		t.Errorf("Error() = %v, want %v", err.Error(), expected)
	}
}

func TestWrap(t *testing.T) {
	cause := errors.New("underlying error")
	err := Wrap(ErrCodeArtifactFetch, cause, "failed to fetch")

	if err.Code != ErrCodeArtifactFetch {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeArtifactFetch)
	}

	if err.Cause != cause {
		t.Errorf("Cause = %v, want %v", err.Cause, cause)
	}

	unwrapped := errors.Unwrap(err)
	if unwrapped != cause {
		t.Errorf("Unwrap() = %v, want %v", unwrapped, cause)
	}

	if !errors.Is(err, cause) {
		t.Error("errors.Is(err, cause) = false, want true")
	}
}

func TestIs(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		code     Code
		expected bool
	}{
		{
			name:     "matching code",
			err:      New(ErrCodeInvalidRequirement, "test"),
			code:     ErrCodeInvalidRequirement,
			expected: true,
		},
		{
			name:     "non-matching code",
			err:      New(ErrCodeInvalidRequirement, "test"),
			code:     ErrCodeArtifactFetch,
			expected: false,
		},
		{
			name:     "wrapped error",
			err:      Wrap(ErrCodeArtifactFetch, New(ErrCodeInvalidRequirement, "inner"), "outer"),
			code:     ErrCodeArtifactFetch,
			expected: true,
		},
		{
			name:     "non-Error type",
			err:      errors.New("plain error"),
			code:     ErrCodeInvalidRequirement,
			expected: false,
		},
		{
			name:     "nil error",
			err:      nil,
			code:     ErrCodeInvalidRequirement,
			expected: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Is(tt.err, tt.code); got != tt.expected {
				t.Errorf("Is() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestGetCode(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected Code
	}{
		{"Error type", New(ErrCodeUnsatisfiable, "test"), ErrCodeUnsatisfiable},
		{"plain error", errors.New("plain"), ""},
		{"nil", nil, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GetCode(tt.err); got != tt.expected {
				t.Errorf("GetCode() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		expected string
	}{
		{"Error type", New(ErrCodeInvalidRequirement, "friendly message"), "friendly message"},
		{"plain error", errors.New("plain error"), "plain error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := UserMessage(tt.err); got != tt.expected {
				t.Errorf("UserMessage() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestMetadataUnavailable(t *testing.T) {
	attempts := []Attempt{
		{Strategy: "pep658", Position: 0, Outcome: "not_applicable"},
		{Strategy: "wheel", Position: 1, Outcome: "not_applicable"},
	}
	err := MetadataUnavailable("six", "1.16.0", attempts, nil)

	if err.Code != ErrCodeMetadataUnavailable {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeMetadataUnavailable)
	}
	if err.Project != "six" || err.Version != "1.16.0" {
		t.Errorf("Project/Version = %s/%s, want six/1.16.0", err.Project, err.Version)
	}
	if len(err.Attempts) != 2 {
		t.Errorf("len(Attempts) = %d, want 2", len(err.Attempts))
	}
	if !strings.Contains(err.Message, "2 attempt(s)") {
		t.Errorf("Message = %q, want attempt count", err.Message)
	}
}

func TestUnsatisfiable(t *testing.T) {
	err := Unsatisfiable([]Conflict{
		{Requirement: "pkgB==1.0"},
		{Requirement: "pkgB>=2.0", Parent: "pkga==2.0"},
	})

	want := "conflicting requirements: pkgB==1.0 (root), pkgB>=2.0 (from pkga==2.0)"
	if err.Message != want {
		t.Errorf("Message = %q, want %q", err.Message, want)
	}

	wrapped := Wrap(ErrCodeInternal, err, "outer")
	inner, ok := As(wrapped.Cause)
	if !ok || inner.Code != ErrCodeUnsatisfiable {
		t.Errorf("As() = %v, %v", inner, ok)
	}
}
