package manifest

import (
	"bufio"
	"os"
	"path/filepath"
	"strings"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
)

// maxIncludeDepth bounds nested -r includes.
const maxIncludeDepth = 16

// Requirements parses pip requirements files. Options other than -r and
// --requirement are skipped, as are bare URLs and VCS lines; PEP 508
// direct references ("name @ url") are kept.
type Requirements struct{}

func (r *Requirements) Type() string { return "requirements.txt" }

func (r *Requirements) Supports(name string) bool {
	return name == "requirements.txt" ||
		(strings.HasPrefix(name, "requirements") && strings.HasSuffix(name, ".txt"))
}

func (r *Requirements) Parse(path string) ([]string, error) {
	return parseRequirements(path, make(map[string]bool), make(map[string]bool), 0)
}

func parseRequirements(path string, seen, visited map[string]bool, depth int) ([]string, error) {
	if depth > maxIncludeDepth {
		return nil, perrors.New(perrors.ErrCodeInvalidRequirement, "%s: includes nested too deeply", path)
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if visited[abs] {
		return nil, nil
	}
	visited[abs] = true

	lines, err := logicalLines(path)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "read %s", path)
	}

	var out []string
	for _, line := range lines {
		if include, ok := includeTarget(line); ok {
			if !filepath.IsAbs(include) {
				include = filepath.Join(filepath.Dir(path), include)
			}
			nested, err := parseRequirements(include, seen, visited, depth+1)
			if err != nil {
				return nil, err
			}
			out = append(out, nested...)
			continue
		}
		if line[0] == '-' || isBareURL(line) {
			continue
		}
		out = appendUnique(out, seen, line)
	}
	return out, nil
}

// logicalLines returns the non-empty lines of path with comments removed
// and backslash continuations joined.
func logicalLines(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var (
		out     []string
		pending strings.Builder
	)
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := stripComment(scanner.Text())
		if cont, ok := strings.CutSuffix(strings.TrimRight(line, " \t"), `\`); ok {
			pending.WriteString(cont)
			continue
		}
		pending.WriteString(line)
		if full := strings.TrimSpace(pending.String()); full != "" {
			out = append(out, full)
		}
		pending.Reset()
	}
	if full := strings.TrimSpace(pending.String()); full != "" {
		out = append(out, full)
	}
	return out, scanner.Err()
}

// stripComment drops a "#" comment that starts the line or follows
// whitespace. A "#" inside a URL fragment is kept.
func stripComment(line string) string {
	if strings.HasPrefix(strings.TrimSpace(line), "#") {
		return ""
	}
	for i := 1; i < len(line); i++ {
		if line[i] == '#' && (line[i-1] == ' ' || line[i-1] == '\t') {
			return line[:i]
		}
	}
	return line
}

func includeTarget(line string) (string, bool) {
	for _, prefix := range []string{"--requirement", "-r"} {
		rest, ok := strings.CutPrefix(line, prefix)
		if !ok {
			continue
		}
		rest = strings.TrimPrefix(rest, "=")
		if target := strings.TrimSpace(rest); target != "" {
			return target, true
		}
		return "", false
	}
	return "", false
}

// isBareURL reports whether line is a URL or VCS reference without a
// "name @" prefix.
func isBareURL(line string) bool {
	scheme := strings.Index(line, "://")
	if scheme < 0 && !strings.HasPrefix(line, "git+") {
		return false
	}
	at := strings.Index(line, "@")
	return at < 0 || (scheme >= 0 && at > scheme) || strings.HasPrefix(line, "git+")
}
