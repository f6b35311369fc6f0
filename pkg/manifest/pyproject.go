package manifest

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
)

// Pyproject reads PEP 621 dependencies from pyproject.toml. Extras names
// the optional-dependencies groups to include; "*" includes all of them.
type Pyproject struct {
	Extras []string
}

func (p *Pyproject) Type() string              { return "pyproject.toml" }
func (p *Pyproject) Supports(name string) bool { return name == "pyproject.toml" }

type pyprojectFile struct {
	Project struct {
		Name                 string              `toml:"name"`
		Dependencies         []string            `toml:"dependencies"`
		OptionalDependencies map[string][]string `toml:"optional-dependencies"`
	} `toml:"project"`
}

func (p *Pyproject) Parse(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "read %s", path)
	}
	var file pyprojectFile
	if err := toml.Unmarshal(data, &file); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "parse %s", path)
	}

	seen := make(map[string]bool)
	out := appendUnique(nil, seen, file.Project.Dependencies...)
	for _, group := range p.groups(file.Project.OptionalDependencies) {
		reqs, ok := file.Project.OptionalDependencies[group]
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInvalidRequirement, "%s: no optional-dependencies group %q", path, group)
		}
		out = appendUnique(out, seen, reqs...)
	}
	return out, nil
}

func (p *Pyproject) groups(optional map[string][]string) []string {
	for _, e := range p.Extras {
		if e == "*" {
			all := make([]string, 0, len(optional))
			for name := range optional {
				all = append(all, name)
			}
			sort.Strings(all)
			return all
		}
	}
	return p.Extras
}
