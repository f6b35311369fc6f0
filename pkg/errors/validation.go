package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// projectNameRegex matches valid project names (PEP 508).
var projectNameRegex = regexp.MustCompile(`^([A-Za-z0-9]|[A-Za-z0-9][A-Za-z0-9._-]*[A-Za-z0-9])$`)

// ValidateProjectName validates a project name for safety and correctness.
// It rejects names that could be used for path traversal or injection into
// index URLs.
//
//   - No empty names
//   - No control characters
//   - No path separators or traversal sequences
//   - Maximum length of 256 characters
//   - Must match the PEP 508 name grammar
func ValidateProjectName(name string) error {
	if name == "" {
		return New(ErrCodeInvalidRequirement, "project name cannot be empty")
	}

	if len(name) > 256 {
		return New(ErrCodeInvalidRequirement, "project name too long (max 256 characters)")
	}

	for _, r := range name {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRequirement, "project name contains invalid control characters")
		}
	}

	for _, pattern := range []string{"..", "/", "\\"} {
		if strings.Contains(name, pattern) {
			return New(ErrCodeInvalidRequirement, "project name contains invalid characters: %q", pattern)
		}
	}

	if !projectNameRegex.MatchString(name) {
		return New(ErrCodeInvalidRequirement, "invalid project name: %q", name)
	}
	return nil
}

// ValidateURL validates an index or artifact URL.
// It ensures the URL has a scheme from allowed. With no schemes given,
// http and https are accepted.
func ValidateURL(rawURL string, allowed ...string) error {
	if rawURL == "" {
		return New(ErrCodeInvalidConfig, "URL cannot be empty")
	}
	if len(allowed) == 0 {
		allowed = []string{"http", "https"}
	}
	for _, scheme := range allowed {
		if strings.HasPrefix(rawURL, scheme+"://") {
			return nil
		}
	}
	return New(ErrCodeInvalidConfig, "URL must use one of the schemes %s: %q", strings.Join(allowed, ", "), rawURL)
}
