package resolve

import (
	"context"
	"sort"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/model"
)

// fastFail checks that every named root has at least one candidate that
// fits the environment (tags, requires-python, specifiers) before the
// solver starts. It reports the failure the solver would reach for the
// same root, only sooner.
func fastFail(ctx context.Context, f *Factory, env *model.Environment, roots []model.Requirement) error {
	byName := make(map[string][]model.Requirement)
	for _, r := range roots {
		byName[r.Name()] = append(byName[r.Name()], r)
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	f.Prefetch(ctx, names)

	for _, name := range names {
		reqs := byName[name]
		cands, err := f.FindCandidates(ctx, env, name, reqs, nil)
		if err != nil {
			return err
		}
		if len(cands) == 0 {
			causes := make([]requirementInfo, len(reqs))
			for i, r := range reqs {
				causes[i] = requirementInfo{Requirement: r, IsRoot: true}
			}
			return perrors.Unsatisfiable(conflicts(causes))
		}
	}
	return nil
}
