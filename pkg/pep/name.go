package pep

import (
	"regexp"
	"strings"
)

var nameSepRE = regexp.MustCompile(`[-_.]+`)

// NormalizeName converts a project name to its canonical form.
// Lowercases and collapses runs of "-", "_" and "." into a single "-",
// following PEP 503.
func NormalizeName(name string) string {
	return nameSepRE.ReplaceAllString(strings.ToLower(strings.TrimSpace(name)), "-")
}

// NormalizeExtra normalizes an extra name the same way as a project name.
func NormalizeExtra(extra string) string {
	return NormalizeName(extra)
}
