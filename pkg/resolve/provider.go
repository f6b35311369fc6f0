package resolve

import (
	"context"
	"sort"

	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/pep"
	"github.com/matzehuels/wheelres/pkg/solver"
)

type (
	requirementInfo = solver.RequirementInformation[model.Requirement, *model.Candidate]
	preferenceInput = solver.PreferenceInput[model.Requirement, *model.Candidate]
)

// Provider adapts a Factory to the solver for one environment.
type Provider struct {
	factory      *Factory
	env          *model.Environment
	preferDirect bool

	// extras is the union of extras requested of each project so far.
	extras map[string]map[string]bool
}

var _ solver.Provider[model.Requirement, *model.Candidate] = (*Provider)(nil)

// NewProvider creates a provider. With preferDirect, identifiers that carry
// a direct reference are pinned before others.
func NewProvider(f *Factory, env *model.Environment, preferDirect bool) *Provider {
	return &Provider{
		factory:      f,
		env:          env,
		preferDirect: preferDirect,
		extras:       make(map[string]map[string]bool),
	}
}

func (p *Provider) IdentifyRequirement(r model.Requirement) string { return r.Name() }
func (p *Provider) IdentifyCandidate(c *model.Candidate) string    { return c.Name() }

// GetPreference orders identifiers, smallest first, by: implicated in the
// last backtrack, carries a direct reference (when enabled), is a root,
// number of parents (more first), not yet pinned, and the accepted-tag index
// of its top candidate.
func (p *Provider) GetPreference(identifier string, in preferenceInput) solver.Preference {
	backtrack := 1
	for _, cause := range in.BacktrackCauses {
		if cause.Requirement.Name() == identifier || (!cause.IsRoot && cause.Parent.Name() == identifier) {
			backtrack = 0
			break
		}
	}

	direct, root := 1, 1
	parents := make(map[string]bool)
	for _, info := range in.Information[identifier] {
		if p.preferDirect && info.Requirement.IsDirect() {
			direct = 0
		}
		if info.IsRoot {
			root = 0
			continue
		}
		parents[info.Parent.Name()] = true
	}

	resolved := 0
	if _, ok := in.Resolutions[identifier]; ok {
		resolved = 1
	}

	tagRank := len(p.env.Tags())
	if cands := in.Candidates[identifier]; len(cands) > 0 {
		if i := p.env.TagPolicy().Index(cands[0].Key.Tag); i >= 0 {
			tagRank = i
		}
	}
	return solver.Preference{backtrack, direct, root, -len(parents), resolved, tagRank}
}

// FindMatches returns the candidates for identifier, newest first.
func (p *Provider) FindMatches(ctx context.Context, identifier string, requirements map[string][]model.Requirement, incompatibilities map[string][]*model.Candidate) ([]*model.Candidate, error) {
	reqs := requirements[identifier]
	p.addExtras(identifier, reqs)

	cands, err := p.factory.FindCandidates(ctx, p.env, identifier, reqs, incompatibilities[identifier])
	if err != nil {
		return nil, err
	}
	policy := p.env.TagPolicy()
	sort.SliceStable(cands, func(i, j int) bool {
		a, b := cands[i], cands[j]
		if c := a.Version.Compare(b.Version); c != 0 {
			return c > 0
		}
		if ia, ib := policy.Index(a.Key.Tag), policy.Index(b.Key.Tag); ia != ib {
			return ia < ib
		}
		return a.Key.Filename < b.Key.Filename
	})
	return cands, nil
}

func (p *Provider) IsSatisfiedBy(r model.Requirement, c *model.Candidate) bool {
	return satisfies(r, c)
}

// GetDependencies returns the dependencies of c under the extras requested
// of its project, then warms the listings they will need.
func (p *Provider) GetDependencies(ctx context.Context, c *model.Candidate) ([]model.Requirement, error) {
	deps, err := p.factory.GetDependencies(ctx, p.env, c, p.Extras(c.Name()))
	if err != nil {
		return nil, err
	}
	seen := make(map[string]bool)
	var names []string
	for _, d := range deps {
		if !d.IsDirect() && !seen[d.Name()] {
			seen[d.Name()] = true
			names = append(names, d.Name())
		}
	}
	p.factory.Prefetch(ctx, names)
	return deps, nil
}

func (p *Provider) addExtras(identifier string, reqs []model.Requirement) {
	for _, r := range reqs {
		for _, e := range r.Extras() {
			set := p.extras[identifier]
			if set == nil {
				set = make(map[string]bool)
				p.extras[identifier] = set
			}
			set[pep.NormalizeExtra(e)] = true
		}
	}
}

// Extras returns the sorted extras requested of project so far.
func (p *Provider) Extras(project string) []string {
	var out []string
	for e := range p.extras[project] {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
