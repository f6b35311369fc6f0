package resolve

import (
	"context"
	"errors"
	"sort"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/graph"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/solver"
)

// classify maps any failure of a resolution onto a coded error.
func classify(ctx context.Context, err error) *perrors.Error {
	if ctx.Err() != nil {
		return perrors.Wrap(perrors.ErrCodeCancelled, err, "resolution cancelled")
	}

	var impossible *solver.ImpossibleError[model.Requirement, *model.Candidate]
	if errors.As(err, &impossible) {
		return perrors.Unsatisfiable(conflicts(impossible.Causes))
	}
	var deep *solver.TooDeepError
	if errors.As(err, &deep) {
		return perrors.Wrap(perrors.ErrCodeTooDeep, err, "no resolution within %d rounds", deep.Rounds)
	}
	for _, sentinel := range []error{graph.ErrGraphHasCycle, graph.ErrUnknownNode, graph.ErrDuplicateNode} {
		if errors.Is(err, sentinel) {
			return perrors.Wrap(perrors.ErrCodeInvalidGraph, err, "resolved graph rejected")
		}
	}
	if e, ok := perrors.As(err); ok {
		return e
	}
	return perrors.Wrap(perrors.ErrCodeInternal, err, "resolution failed")
}

// conflicts converts solver causes into a sorted, de-duplicated chain.
func conflicts(causes []requirementInfo) []perrors.Conflict {
	seen := make(map[perrors.Conflict]bool)
	var out []perrors.Conflict
	for _, c := range causes {
		cf := perrors.Conflict{Requirement: c.Requirement.String()}
		if !c.IsRoot {
			cf.Parent = c.Parent.String()
		}
		if !seen[cf] {
			seen[cf] = true
			out = append(out, cf)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Requirement != out[j].Requirement {
			return out[i].Requirement < out[j].Requirement
		}
		return out[i].Parent < out[j].Parent
	})
	return out
}
