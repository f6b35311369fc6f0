package pep

import (
	"fmt"
	"path"
	"strings"
)

// Tag is a wheel compatibility tag triple (PEP 425).
type Tag struct {
	Interpreter string
	ABI         string
	Platform    string
}

// ParseTag parses "interpreter-abi-platform". Compressed tag sets are
// rejected; use ParseTagSet for those.
func ParseTag(s string) (Tag, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "-")
	if len(parts) != 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Tag{}, fmt.Errorf("invalid tag %q", s)
	}
	if strings.Contains(s, ".") {
		return Tag{}, fmt.Errorf("invalid tag %q: compressed tag set", s)
	}
	return Tag{Interpreter: parts[0], ABI: parts[1], Platform: parts[2]}, nil
}

// ParseTagSet expands a possibly compressed tag set such as
// "py2.py3-none-any" into its individual tags, in written order.
func ParseTagSet(s string) ([]Tag, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(s)), "-")
	if len(parts) != 3 {
		return nil, fmt.Errorf("invalid tag set %q", s)
	}
	return expandTags(parts[0], parts[1], parts[2])
}

func expandTags(interp, abi, plat string) ([]Tag, error) {
	var tags []Tag
	for _, i := range strings.Split(interp, ".") {
		for _, a := range strings.Split(abi, ".") {
			for _, p := range strings.Split(plat, ".") {
				if i == "" || a == "" || p == "" {
					return nil, fmt.Errorf("invalid tag set %s-%s-%s", interp, abi, plat)
				}
				tags = append(tags, Tag{Interpreter: i, ABI: a, Platform: p})
			}
		}
	}
	return tags, nil
}

// String returns "interpreter-abi-platform".
func (t Tag) String() string {
	return t.Interpreter + "-" + t.ABI + "-" + t.Platform
}

// IsZero reports whether t is the zero tag.
func (t Tag) IsZero() bool { return t == Tag{} }

// WheelFilename is a parsed wheel filename (PEP 427).
type WheelFilename struct {
	Filename string
	Name     string // normalized project name
	Version  string
	Build    string // optional build tag
	Tags     []Tag  // expanded tag set, in written order
}

// ParseWheelFilename parses "{name}-{ver}(-{build})?-{py}-{abi}-{plat}.whl".
// A URL or path is accepted; only its final element is parsed.
func ParseWheelFilename(filename string) (WheelFilename, error) {
	base := path.Base(strings.SplitN(strings.SplitN(filename, "#", 2)[0], "?", 2)[0])
	if !strings.HasSuffix(strings.ToLower(base), ".whl") {
		return WheelFilename{}, fmt.Errorf("not a wheel filename: %q", base)
	}
	parts := strings.Split(base[:len(base)-4], "-")
	if len(parts) != 5 && len(parts) != 6 {
		return WheelFilename{}, fmt.Errorf("invalid wheel filename %q: want 5 or 6 dash-separated parts, got %d", base, len(parts))
	}

	w := WheelFilename{
		Filename: base,
		Name:     NormalizeName(parts[0]),
		Version:  parts[1],
	}
	if _, err := ParseVersion(w.Version); err != nil {
		return WheelFilename{}, fmt.Errorf("invalid wheel filename %q: %w", base, err)
	}
	if len(parts) == 6 {
		w.Build = parts[2]
		if w.Build == "" || w.Build[0] < '0' || w.Build[0] > '9' {
			return WheelFilename{}, fmt.Errorf("invalid wheel filename %q: build tag must start with a digit", base)
		}
	}
	n := len(parts)
	tags, err := expandTags(strings.ToLower(parts[n-3]), strings.ToLower(parts[n-2]), strings.ToLower(parts[n-1]))
	if err != nil {
		return WheelFilename{}, fmt.Errorf("invalid wheel filename %q: %w", base, err)
	}
	w.Tags = tags
	return w, nil
}

// IsWheel reports whether filename names a wheel.
func IsWheel(filename string) bool {
	return strings.HasSuffix(strings.ToLower(filename), ".whl")
}
