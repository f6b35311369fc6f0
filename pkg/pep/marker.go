package pep

import (
	"fmt"
	"strings"
	"unicode"
)

// MarkerEnv maps marker variable names (python_version, sys_platform, extra...)
// to their values in a target environment.
type MarkerEnv map[string]string

// With returns a copy of env with key set to value.
func (env MarkerEnv) With(key, value string) MarkerEnv {
	out := make(MarkerEnv, len(env)+1)
	for k, v := range env {
		out[k] = v
	}
	out[key] = value
	return out
}

// Marker is a parsed PEP 508 environment marker. A nil *Marker always
// evaluates to true.
type Marker struct {
	text string
	root markerNode
}

// ParseMarker parses a marker expression such as
// `python_version >= "3.8" and sys_platform != "win32"`.
func ParseMarker(text string) (*Marker, error) {
	text = strings.TrimSpace(text)
	toks, err := tokenizeMarker(text)
	if err != nil {
		return nil, err
	}
	p := &markerParser{toks: toks}
	root, err := p.parseOr()
	if err != nil {
		return nil, fmt.Errorf("invalid marker %q: %w", text, err)
	}
	if !p.done() {
		return nil, fmt.Errorf("invalid marker %q: unexpected %q", text, p.peek().val)
	}
	return &Marker{text: text, root: root}, nil
}

// Evaluate reports whether the marker holds in env. Variables missing from
// env evaluate as the empty string.
func (m *Marker) Evaluate(env MarkerEnv) (bool, error) {
	if m == nil {
		return true, nil
	}
	return m.root.eval(env)
}

// EvaluateExtras evaluates the marker once with extra="" and once per
// requested extra, and reports whether any evaluation holds.
func (m *Marker) EvaluateExtras(env MarkerEnv, extras []string) (bool, error) {
	if m == nil {
		return true, nil
	}
	ok, err := m.Evaluate(env.With("extra", ""))
	if err != nil || ok {
		return ok, err
	}
	for _, extra := range extras {
		ok, err := m.Evaluate(env.With("extra", NormalizeExtra(extra)))
		if err != nil || ok {
			return ok, err
		}
	}
	return false, nil
}

// String returns the marker text.
func (m *Marker) String() string {
	if m == nil {
		return ""
	}
	return m.text
}

type markerNode interface {
	eval(env MarkerEnv) (bool, error)
}

type markerAnd struct{ left, right markerNode }
type markerOr struct{ left, right markerNode }

func (n markerAnd) eval(env MarkerEnv) (bool, error) {
	l, err := n.left.eval(env)
	if err != nil || !l {
		return false, err
	}
	return n.right.eval(env)
}

func (n markerOr) eval(env MarkerEnv) (bool, error) {
	l, err := n.left.eval(env)
	if err != nil {
		return false, err
	}
	if l {
		return true, nil
	}
	return n.right.eval(env)
}

type markerValue struct {
	variable string // set when the operand is an environment variable
	literal  string
}

func (v markerValue) resolve(env MarkerEnv) string {
	if v.variable == "" {
		return v.literal
	}
	return env[v.variable]
}

type markerCompare struct {
	lhs, rhs markerValue
	op       string
}

var versionOps = map[string]bool{"<": true, "<=": true, ">": true, ">=": true, "==": true, "!=": true, "~=": true}

func (n markerCompare) eval(env MarkerEnv) (bool, error) {
	lhs, rhs := n.lhs.resolve(env), n.rhs.resolve(env)
	if n.lhs.variable == "extra" || n.rhs.variable == "extra" {
		lhs, rhs = NormalizeExtra(lhs), NormalizeExtra(rhs)
	}

	switch n.op {
	case "in":
		return strings.Contains(rhs, lhs), nil
	case "not in":
		return !strings.Contains(rhs, lhs), nil
	case "===":
		return lhs == rhs, nil
	}

	if versionOps[n.op] {
		if spec, err := ParseSpecifiers(n.op + rhs); err == nil {
			if v, err := ParseVersion(lhs); err == nil {
				return spec.Contains(v), nil
			}
		}
	}

	switch n.op {
	case "==":
		return lhs == rhs, nil
	case "!=":
		return lhs != rhs, nil
	case "<":
		return lhs < rhs, nil
	case "<=":
		return lhs <= rhs, nil
	case ">":
		return lhs > rhs, nil
	case ">=":
		return lhs >= rhs, nil
	}
	return false, fmt.Errorf("operator %q cannot compare %q and %q", n.op, lhs, rhs)
}

var markerVariables = map[string]bool{
	"python_version":                 true,
	"python_full_version":            true,
	"os_name":                        true,
	"sys_platform":                   true,
	"platform_release":               true,
	"platform_system":                true,
	"platform_version":               true,
	"platform_machine":               true,
	"platform_python_implementation": true,
	"implementation_name":            true,
	"implementation_version":         true,
	"extra":                          true,
	// legacy aliases
	"os.name":                        true,
	"sys.platform":                   true,
	"platform.version":               true,
	"platform.machine":               true,
	"platform.python_implementation": true,
	"python_implementation":          true,
}

var markerAliases = map[string]string{
	"os.name":                        "os_name",
	"sys.platform":                   "sys_platform",
	"platform.version":               "platform_version",
	"platform.machine":               "platform_machine",
	"platform.python_implementation": "platform_python_implementation",
	"python_implementation":          "platform_python_implementation",
}

type tokenKind int

const (
	tokVar tokenKind = iota
	tokString
	tokOp
	tokAnd
	tokOr
	tokLParen
	tokRParen
)

type token struct {
	kind tokenKind
	val  string
}

func tokenizeMarker(s string) ([]token, error) {
	var toks []token
	for i := 0; i < len(s); {
		c := s[i]
		switch {
		case c == ' ' || c == '\t':
			i++
		case c == '(':
			toks = append(toks, token{tokLParen, "("})
			i++
		case c == ')':
			toks = append(toks, token{tokRParen, ")"})
			i++
		case c == '"' || c == '\'':
			end := strings.IndexByte(s[i+1:], c)
			if end < 0 {
				return nil, fmt.Errorf("invalid marker %q: unterminated string", s)
			}
			toks = append(toks, token{tokString, s[i+1 : i+1+end]})
			i += end + 2
		case strings.ContainsRune("<>=!~", rune(c)):
			j := i
			for j < len(s) && strings.ContainsRune("<>=!~", rune(s[j])) {
				j++
			}
			op := s[i:j]
			if !versionOps[op] && op != "===" {
				return nil, fmt.Errorf("invalid marker %q: unknown operator %q", s, op)
			}
			toks = append(toks, token{tokOp, op})
			i = j
		default:
			j := i
			for j < len(s) && (unicode.IsLetter(rune(s[j])) || unicode.IsDigit(rune(s[j])) || s[j] == '_' || s[j] == '.') {
				j++
			}
			if j == i {
				return nil, fmt.Errorf("invalid marker %q: unexpected %q", s, string(c))
			}
			word := s[i:j]
			i = j
			switch word {
			case "and":
				toks = append(toks, token{tokAnd, word})
			case "or":
				toks = append(toks, token{tokOr, word})
			case "in":
				toks = append(toks, token{tokOp, "in"})
			case "not":
				rest := strings.TrimLeft(s[i:], " \t")
				if !strings.HasPrefix(rest, "in") {
					return nil, fmt.Errorf("invalid marker %q: expected 'in' after 'not'", s)
				}
				i = len(s) - len(rest) + 2
				toks = append(toks, token{tokOp, "not in"})
			default:
				if !markerVariables[word] {
					return nil, fmt.Errorf("invalid marker %q: unknown variable %q", s, word)
				}
				if alias, ok := markerAliases[word]; ok {
					word = alias
				}
				toks = append(toks, token{tokVar, word})
			}
		}
	}
	return toks, nil
}

type markerParser struct {
	toks []token
	pos  int
}

func (p *markerParser) done() bool { return p.pos >= len(p.toks) }

func (p *markerParser) peek() token {
	if p.done() {
		return token{kind: -1}
	}
	return p.toks[p.pos]
}

func (p *markerParser) next() token {
	t := p.peek()
	p.pos++
	return t
}

func (p *markerParser) parseOr() (markerNode, error) {
	left, err := p.parseAnd()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokOr {
		p.next()
		right, err := p.parseAnd()
		if err != nil {
			return nil, err
		}
		left = markerOr{left, right}
	}
	return left, nil
}

func (p *markerParser) parseAnd() (markerNode, error) {
	left, err := p.parseAtom()
	if err != nil {
		return nil, err
	}
	for p.peek().kind == tokAnd {
		p.next()
		right, err := p.parseAtom()
		if err != nil {
			return nil, err
		}
		left = markerAnd{left, right}
	}
	return left, nil
}

func (p *markerParser) parseAtom() (markerNode, error) {
	if p.peek().kind == tokLParen {
		p.next()
		n, err := p.parseOr()
		if err != nil {
			return nil, err
		}
		if p.next().kind != tokRParen {
			return nil, fmt.Errorf("missing closing parenthesis")
		}
		return n, nil
	}
	lhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	op := p.next()
	if op.kind != tokOp {
		return nil, fmt.Errorf("expected operator, got %q", op.val)
	}
	rhs, err := p.parseValue()
	if err != nil {
		return nil, err
	}
	return markerCompare{lhs: lhs, rhs: rhs, op: op.val}, nil
}

func (p *markerParser) parseValue() (markerValue, error) {
	t := p.next()
	switch t.kind {
	case tokVar:
		return markerValue{variable: t.val}, nil
	case tokString:
		return markerValue{literal: t.val}, nil
	}
	if t.val == "" {
		return markerValue{}, fmt.Errorf("unexpected end of marker")
	}
	return markerValue{}, fmt.Errorf("expected variable or string, got %q", t.val)
}
