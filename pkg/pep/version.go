package pep

import (
	"fmt"
	"regexp"
	"strings"

	version "github.com/aquasecurity/go-pep440-version"
)

// Version is a parsed PEP 440 version.
type Version struct {
	v   version.Version
	raw string
}

// ParseVersion parses a PEP 440 version string.
func ParseVersion(s string) (Version, error) {
	s = strings.TrimSpace(s)
	v, err := version.Parse(s)
	if err != nil {
		return Version{}, fmt.Errorf("invalid version %q: %w", s, err)
	}
	return Version{v: v, raw: s}, nil
}

// MustParseVersion is like ParseVersion but panics on invalid input.
func MustParseVersion(s string) Version {
	v, err := ParseVersion(s)
	if err != nil {
		panic(err)
	}
	return v
}

// Compare returns -1, 0 or 1 when v is older than, equal to or newer than o.
func (v Version) Compare(o Version) int {
	return v.v.Compare(o.v)
}

// String returns the version as it was written.
func (v Version) String() string { return v.raw }

// IsPreRelease reports whether v is a pre-release or development release.
func (v Version) IsPreRelease() bool { return isPreRelease(v.raw) }

var preReleaseRE = regexp.MustCompile(`[0-9][._-]?(a|alpha|b|beta|c|rc|pre|preview|dev)[._-]?[0-9]*`)

func isPreRelease(s string) bool {
	s = strings.ToLower(s)
	if i := strings.IndexByte(s, '+'); i >= 0 {
		s = s[:i]
	}
	return preReleaseRE.MatchString(s)
}

// SpecifierSet is a comma-separated set of PEP 440 version clauses.
// The zero value matches every version.
type SpecifierSet struct {
	raw   string
	specs version.Specifiers
	set   bool
}

// ParseSpecifiers parses a specifier set such as ">=1.0,<2". Surrounding
// parentheses and whitespace are tolerated. An empty string yields the
// match-all set.
func ParseSpecifiers(s string) (SpecifierSet, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(strings.TrimPrefix(s, "("), ")")
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.Join(strings.Fields(p), ""); p != "" {
			parts = append(parts, p)
		}
	}
	if len(parts) == 0 {
		return SpecifierSet{}, nil
	}
	raw := strings.Join(parts, ",")
	// Pre-release filtering is a resolution policy decision, so the set
	// itself matches pre-releases like any other version.
	specs, err := version.NewSpecifiers(raw, version.WithPreRelease(true))
	if err != nil {
		return SpecifierSet{}, fmt.Errorf("invalid specifier %q: %w", s, err)
	}
	return SpecifierSet{raw: raw, specs: specs, set: true}, nil
}

// Empty reports whether the set has no clauses.
func (s SpecifierSet) Empty() bool { return !s.set }

// Contains reports whether v satisfies every clause.
func (s SpecifierSet) Contains(v Version) bool {
	if !s.set {
		return true
	}
	return s.specs.Check(v.v)
}

// MentionsPreRelease reports whether any clause names a pre-release version,
// which under PEP 440 opts the set into matching pre-releases.
func (s SpecifierSet) MentionsPreRelease() bool {
	return s.set && isPreRelease(s.raw)
}

// String returns the normalized text of the set.
func (s SpecifierSet) String() string { return s.raw }
