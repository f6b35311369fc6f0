package pep

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

var (
	reqNameRE   = regexp.MustCompile(`^\s*([A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?)\s*`)
	reqExtrasRE = regexp.MustCompile(`^\[([^\]]*)\]\s*`)
	extraNameRE = regexp.MustCompile(`^[A-Za-z0-9](?:[A-Za-z0-9._-]*[A-Za-z0-9])?$`)
)

// Requirement is a parsed PEP 508 dependency specifier.
//
// Exactly one of Specifiers and URL is meaningful: a requirement written as
// "name @ url" is a direct reference and carries no version clauses.
type Requirement struct {
	Name       string       // project name as written
	Extras     []string     // normalized, sorted, unique
	Specifiers SpecifierSet // empty for direct references
	URL        string       // set for "name @ url"
	Marker     *Marker      // nil when absent
}

// ParseRequirement parses a single requirement line such as
// `requests[socks]>=2.28,<3; python_version >= "3.8"` or
// `pkg @ https://host/pkg-1.0-py3-none-any.whl`.
func ParseRequirement(text string) (Requirement, error) {
	orig := text
	text = strings.TrimSpace(text)
	if text == "" {
		return Requirement{}, fmt.Errorf("empty requirement")
	}

	m := reqNameRE.FindStringSubmatch(text)
	if m == nil {
		return Requirement{}, fmt.Errorf("invalid requirement %q: missing project name", orig)
	}
	req := Requirement{Name: m[1]}
	rest := text[len(m[0]):]

	if em := reqExtrasRE.FindStringSubmatch(rest); em != nil {
		extras, err := parseExtras(em[1])
		if err != nil {
			return Requirement{}, fmt.Errorf("invalid requirement %q: %w", orig, err)
		}
		req.Extras = extras
		rest = rest[len(em[0]):]
	} else if strings.HasPrefix(rest, "[") {
		return Requirement{}, fmt.Errorf("invalid requirement %q: unterminated extras", orig)
	}

	var markerText string
	if strings.HasPrefix(rest, "@") {
		rest = strings.TrimSpace(rest[1:])
		// A URL may contain ';' so the marker separator needs whitespace before it.
		if i := strings.Index(rest, " ;"); i >= 0 {
			markerText = rest[i+2:]
			rest = rest[:i]
		}
		req.URL = strings.TrimSpace(rest)
		if req.URL == "" || !strings.Contains(req.URL, ":") && !strings.HasPrefix(req.URL, "/") {
			return Requirement{}, fmt.Errorf("invalid requirement %q: invalid URL", orig)
		}
	} else {
		if i := strings.IndexByte(rest, ';'); i >= 0 {
			markerText = rest[i+1:]
			rest = rest[:i]
		}
		specs, err := ParseSpecifiers(rest)
		if err != nil {
			return Requirement{}, fmt.Errorf("invalid requirement %q: %w", orig, err)
		}
		req.Specifiers = specs
	}

	if strings.TrimSpace(markerText) != "" {
		marker, err := ParseMarker(markerText)
		if err != nil {
			return Requirement{}, err
		}
		req.Marker = marker
	}
	return req, nil
}

func parseExtras(s string) ([]string, error) {
	seen := map[string]bool{}
	var out []string
	for _, e := range strings.Split(s, ",") {
		e = strings.TrimSpace(e)
		if e == "" {
			continue
		}
		if !extraNameRE.MatchString(e) {
			return nil, fmt.Errorf("invalid extra %q", e)
		}
		e = NormalizeExtra(e)
		if !seen[e] {
			seen[e] = true
			out = append(out, e)
		}
	}
	sort.Strings(out)
	return out, nil
}

// String renders the requirement in canonical PEP 508 form.
func (r Requirement) String() string {
	var b strings.Builder
	b.WriteString(r.Name)
	if len(r.Extras) > 0 {
		b.WriteString("[" + strings.Join(r.Extras, ",") + "]")
	}
	if r.URL != "" {
		b.WriteString(" @ " + r.URL)
		if r.Marker != nil {
			b.WriteString(" ")
		}
	} else {
		b.WriteString(r.Specifiers.String())
	}
	if r.Marker != nil {
		b.WriteString("; " + r.Marker.String())
	}
	return b.String()
}
