package manifest

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/pep"
)

// PoetryLock turns poetry.lock into exact pins, one per locked package, so
// a lock made for one platform can be re-resolved for another.
type PoetryLock struct{}

func (p *PoetryLock) Type() string              { return "poetry.lock" }
func (p *PoetryLock) Supports(name string) bool { return name == "poetry.lock" }

type lockFile struct {
	Packages []lockPackage `toml:"package"`
}

type lockPackage struct {
	Name    string `toml:"name"`
	Version string `toml:"version"`
}

func (p *PoetryLock) Parse(path string) ([]string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "read %s", path)
	}
	var lock lockFile
	if err := toml.Unmarshal(data, &lock); err != nil {
		return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "parse %s", path)
	}

	pins := make([]string, 0, len(lock.Packages))
	for _, pkg := range lock.Packages {
		if pkg.Name == "" || pkg.Version == "" {
			continue
		}
		pins = append(pins, pep.NormalizeName(pkg.Name)+"=="+pkg.Version)
	}
	sort.Strings(pins)
	return appendUnique(nil, make(map[string]bool), pins...), nil
}
