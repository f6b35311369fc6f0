package tags

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/matzehuels/wheelres/pkg/pep"
)

// PythonVersion is a major.minor interpreter version.
type PythonVersion struct {
	Major, Minor int
}

// ParsePythonVersion parses "3.11" or "3.11.4" (the patch level is ignored).
func ParsePythonVersion(s string) (PythonVersion, error) {
	parts := strings.Split(strings.TrimSpace(s), ".")
	if len(parts) < 2 {
		return PythonVersion{}, fmt.Errorf("invalid python version %q: want major.minor", s)
	}
	major, err := strconv.Atoi(parts[0])
	if err != nil || major < 2 {
		return PythonVersion{}, fmt.Errorf("invalid python version %q", s)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil || minor < 0 {
		return PythonVersion{}, fmt.Errorf("invalid python version %q", s)
	}
	return PythonVersion{Major: major, Minor: minor}, nil
}

func (v PythonVersion) String() string { return fmt.Sprintf("%d.%d", v.Major, v.Minor) }

func (v PythonVersion) nodot() string { return fmt.Sprintf("%d%d", v.Major, v.Minor) }

// CPython returns the accepted tags of a CPython interpreter in preference
// order, the way pip orders them:
//
//  1. cpXY-cpXY-plat, cpXY-abi3-plat, cpXY-none-plat
//  2. cpXW-abi3-plat for every older minor W down to 2
//  3. pyXY-none-plat, pyX-none-plat, then older pyXW-none-plat
//  4. cpXY-none-any
//  5. pyXY-none-any, pyX-none-any, then older pyXW-none-any
//
// platforms are in preference order. "any" is appended implicitly by
// steps 4 and 5 and need not be listed.
func CPython(v PythonVersion, platforms []string) []pep.Tag {
	var out []pep.Tag
	interp := "cp" + v.nodot()

	for _, abi := range []string{interp, "abi3", "none"} {
		if abi == "abi3" && !hasABI3(v) {
			continue
		}
		for _, plat := range platforms {
			out = append(out, pep.Tag{Interpreter: interp, ABI: abi, Platform: plat})
		}
	}
	if hasABI3(v) {
		for minor := v.Minor - 1; minor >= 2; minor-- {
			older := "cp" + PythonVersion{v.Major, minor}.nodot()
			for _, plat := range platforms {
				out = append(out, pep.Tag{Interpreter: older, ABI: "abi3", Platform: plat})
			}
		}
	}

	versions := pyInterpreterRange(v)
	for _, py := range versions {
		for _, plat := range platforms {
			out = append(out, pep.Tag{Interpreter: py, ABI: "none", Platform: plat})
		}
	}
	out = append(out, pep.Tag{Interpreter: interp, ABI: "none", Platform: "any"})
	for _, py := range versions {
		out = append(out, pep.Tag{Interpreter: py, ABI: "none", Platform: "any"})
	}
	return out
}

func hasABI3(v PythonVersion) bool { return v.Major == 3 && v.Minor >= 2 || v.Major > 3 }

func pyInterpreterRange(v PythonVersion) []string {
	out := []string{"py" + v.nodot(), "py" + strconv.Itoa(v.Major)}
	for minor := v.Minor - 1; minor >= 0; minor-- {
		out = append(out, "py"+PythonVersion{v.Major, minor}.nodot())
	}
	return out
}

// MarkerEnv returns the PEP 508 marker variables of a CPython interpreter
// running on the given sys_platform and machine.
func MarkerEnv(full string, v PythonVersion, sysPlatform, machine string) pep.MarkerEnv {
	if full == "" {
		full = v.String() + ".0"
	}
	env := pep.MarkerEnv{
		"python_version":                 v.String(),
		"python_full_version":            full,
		"implementation_name":            "cpython",
		"implementation_version":         full,
		"platform_python_implementation": "CPython",
		"sys_platform":                   sysPlatform,
		"platform_machine":               machine,
	}
	switch sysPlatform {
	case "win32":
		env["os_name"], env["platform_system"] = "nt", "Windows"
	case "darwin":
		env["os_name"], env["platform_system"] = "posix", "Darwin"
	default:
		env["os_name"], env["platform_system"] = "posix", "Linux"
	}
	return env
}
