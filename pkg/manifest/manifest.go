// Package manifest reads root requirements from project files.
//
// Three formats are understood:
//
//   - requirements*.txt: one PEP 508 requirement per line, with comments,
//     line continuations and nested -r includes
//   - pyproject.toml: the PEP 621 [project] dependencies, plus the
//     optional-dependencies groups named as extras
//   - poetry.lock: every locked package pinned to its locked version
//
// Parsers return requirement strings unchanged; validating them is left to
// the resolver so errors name the offending requirement in one place.
package manifest

import (
	"path/filepath"
	"strings"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
)

// Parser reads root requirements from one kind of file.
type Parser interface {
	// Type names the format, such as "requirements.txt".
	Type() string
	// Supports reports whether the parser handles a file with this base name.
	Supports(name string) bool
	// Parse returns the requirements declared in the file at path.
	Parse(path string) ([]string, error)
}

// Parsers returns one parser per supported format. extras selects
// pyproject optional-dependencies groups.
func Parsers(extras []string) []Parser {
	return []Parser{
		&Requirements{},
		&Pyproject{Extras: extras},
		&PoetryLock{},
	}
}

// Read parses path with the first parser that supports its base name.
func Read(path string, extras []string) ([]string, error) {
	name := filepath.Base(path)
	for _, p := range Parsers(extras) {
		if p.Supports(name) {
			return p.Parse(path)
		}
	}
	return nil, perrors.New(perrors.ErrCodeInvalidRequirement, "unsupported manifest %q", name)
}

// ReadAll reads every path in order and returns the requirements with exact
// duplicates removed.
func ReadAll(paths, extras []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)
	for _, path := range paths {
		reqs, err := Read(path, extras)
		if err != nil {
			return nil, err
		}
		out = appendUnique(out, seen, reqs...)
	}
	return out, nil
}

func appendUnique(dst []string, seen map[string]bool, reqs ...string) []string {
	for _, r := range reqs {
		r = strings.TrimSpace(r)
		if r == "" || seen[r] {
			continue
		}
		seen[r] = true
		dst = append(dst, r)
	}
	return dst
}
