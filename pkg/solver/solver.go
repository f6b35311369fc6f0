package solver

import (
	"context"
	"fmt"
	"sort"
)

// Resolver runs the backtracking search. A Resolver may be reused but not
// shared between concurrent Resolve calls.
type Resolver[R, C any] struct {
	provider  Provider[R, C]
	reporter  Reporter[R, C]
	maxRounds int
}

// New creates a resolver. A nil reporter means NopReporter; maxRounds <= 0
// means DefaultMaxRounds.
func New[R, C any](p Provider[R, C], rep Reporter[R, C], maxRounds int) *Resolver[R, C] {
	if rep == nil {
		rep = NopReporter[R, C]{}
	}
	if maxRounds <= 0 {
		maxRounds = DefaultMaxRounds
	}
	return &Resolver[R, C]{provider: p, reporter: rep, maxRounds: maxRounds}
}

type state[R, C any] struct {
	mapping         map[string]C
	order           []string // pin order of mapping keys
	criteria        map[string]*Criterion[R, C]
	backtrackCauses []RequirementInformation[R, C]
}

func (s *state[R, C]) clone() *state[R, C] {
	out := &state[R, C]{
		mapping:         make(map[string]C, len(s.mapping)),
		order:           append([]string(nil), s.order...),
		criteria:        make(map[string]*Criterion[R, C], len(s.criteria)),
		backtrackCauses: append([]RequirementInformation[R, C](nil), s.backtrackCauses...),
	}
	for k, v := range s.mapping {
		out.mapping[k] = v
	}
	for k, v := range s.criteria {
		out.criteria[k] = v
	}
	return out
}

func (s *state[R, C]) pin(name string, c C) {
	s.unpin(name)
	s.mapping[name] = c
	s.order = append(s.order, name)
}

func (s *state[R, C]) unpin(name string) {
	if _, ok := s.mapping[name]; !ok {
		return
	}
	delete(s.mapping, name)
	for i, n := range s.order {
		if n == name {
			s.order = append(s.order[:i:i], s.order[i+1:]...)
			break
		}
	}
}

// popLast removes and returns the most recent pin.
func (s *state[R, C]) popLast() (string, C, bool) {
	var zero C
	if len(s.order) == 0 {
		return "", zero, false
	}
	name := s.order[len(s.order)-1]
	c := s.mapping[name]
	s.order = s.order[:len(s.order)-1]
	delete(s.mapping, name)
	return name, c, true
}

// conflictError carries the criterion that ended up with no candidates.
type conflictError[R, C any] struct {
	criterion *Criterion[R, C]
}

func (e *conflictError[R, C]) Error() string { return "requirements conflicted" }

type run[R, C any] struct {
	*Resolver[R, C]
	ctx    context.Context
	states []*state[R, C]
}

func (r *run[R, C]) state() *state[R, C] { return r.states[len(r.states)-1] }

func (r *run[R, C]) pushNewState() {
	r.states = append(r.states, r.state().clone())
}

// Resolve searches for a pin of every identifier reachable from roots.
// Errors are *ImpossibleError, *TooDeepError, a context error, or an
// error returned by the provider.
func (rv *Resolver[R, C]) Resolve(ctx context.Context, roots []R) (*Result[R, C], error) {
	r := &run[R, C]{Resolver: rv, ctx: ctx}
	r.states = []*state[R, C]{{
		mapping:  make(map[string]C),
		criteria: make(map[string]*Criterion[R, C]),
	}}

	var zero C
	for _, req := range roots {
		if err := r.addToCriteria(r.state().criteria, req, zero, true); err != nil {
			if ce, ok := err.(*conflictError[R, C]); ok {
				return nil, &ImpossibleError[R, C]{Causes: ce.criterion.Information}
			}
			return nil, err
		}
	}
	// The root state is kept as a sentinel so the first pin has something
	// to backtrack to.
	r.pushNewState()

	for round := 0; round < rv.maxRounds; round++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		rv.reporter.StartingRound(round)

		st := r.state()
		var unsatisfied []string
		for name, crit := range st.criteria {
			if !r.isCurrentPinSatisfying(name, crit) {
				unsatisfied = append(unsatisfied, name)
			}
		}
		if len(unsatisfied) == 0 {
			return r.buildResult(), nil
		}
		sort.Strings(unsatisfied)
		satisfiedBefore := make(map[string]bool)
		for name := range st.criteria {
			satisfiedBefore[name] = true
		}
		for _, name := range unsatisfied {
			delete(satisfiedBefore, name)
		}

		name := r.choose(unsatisfied)
		causes, err := r.attemptToPin(name)
		if err != nil {
			return nil, err
		}

		if len(causes) > 0 {
			var infos []RequirementInformation[R, C]
			for _, c := range causes {
				infos = append(infos, c.Information...)
			}
			rv.reporter.ResolvingConflicts(infos)
			ok, err := r.backjump(infos)
			if err != nil {
				return nil, err
			}
			r.state().backtrackCauses = infos
			if !ok {
				return nil, &ImpossibleError[R, C]{Causes: infos}
			}
			continue
		}

		// Pins that were satisfied before this round and no longer are
		// stop contributing requirements.
		st = r.state()
		invalidated := make(map[string]bool)
		for n := range satisfiedBefore {
			if crit, ok := st.criteria[n]; ok && !r.isCurrentPinSatisfying(n, crit) {
				invalidated[n] = true
			}
		}
		if len(invalidated) > 0 {
			r.removeInformationFrom(st.criteria, invalidated)
		}
		r.pushNewState()
	}
	return nil, &TooDeepError{Rounds: rv.maxRounds}
}

func (r *run[R, C]) choose(names []string) string {
	st := r.state()
	in := PreferenceInput[R, C]{
		Resolutions:     st.mapping,
		Candidates:      make(map[string][]C, len(st.criteria)),
		Information:     make(map[string][]RequirementInformation[R, C], len(st.criteria)),
		BacktrackCauses: st.backtrackCauses,
	}
	for k, crit := range st.criteria {
		in.Candidates[k] = crit.Candidates
		in.Information[k] = crit.Information
	}
	best := names[0]
	bestPref := r.provider.GetPreference(best, in)
	for _, n := range names[1:] {
		p := r.provider.GetPreference(n, in)
		if p.Less(bestPref) {
			best, bestPref = n, p
		}
	}
	return best
}

func (r *run[R, C]) isCurrentPinSatisfying(name string, crit *Criterion[R, C]) bool {
	pin, ok := r.state().mapping[name]
	if !ok {
		return false
	}
	for _, info := range crit.Information {
		if !r.provider.IsSatisfiedBy(info.Requirement, pin) {
			return false
		}
	}
	return true
}

// requirementsView collects the requirements of every criterion, plus
// extra for identifier.
func requirementsView[R, C any](criteria map[string]*Criterion[R, C], identifier string, extra ...R) map[string][]R {
	out := make(map[string][]R, len(criteria)+1)
	for k, crit := range criteria {
		out[k] = crit.Requirements()
	}
	if len(extra) > 0 {
		out[identifier] = append(out[identifier], extra...)
	}
	return out
}

func incompatibilitiesView[R, C any](criteria map[string]*Criterion[R, C], identifier string, override []C) map[string][]C {
	out := make(map[string][]C, len(criteria)+1)
	for k, crit := range criteria {
		out[k] = crit.Incompatibilities
	}
	if override != nil {
		out[identifier] = override
	}
	return out
}

func (r *run[R, C]) addToCriteria(criteria map[string]*Criterion[R, C], req R, parent C, isRoot bool) error {
	identifier := r.provider.IdentifyRequirement(req)

	var incompat []C
	var info []RequirementInformation[R, C]
	if crit, ok := criteria[identifier]; ok {
		incompat = append(incompat, crit.Incompatibilities...)
		info = append(info, crit.Information...)
	}

	matches, err := r.provider.FindMatches(r.ctx, identifier,
		requirementsView(criteria, identifier, req),
		incompatibilitiesView(criteria, identifier, incompat))
	if err != nil {
		return err
	}
	info = append(info, RequirementInformation[R, C]{Requirement: req, Parent: parent, IsRoot: isRoot})
	next := &Criterion[R, C]{Candidates: matches, Information: info, Incompatibilities: incompat}
	if len(matches) == 0 {
		return &conflictError[R, C]{criterion: next}
	}
	criteria[identifier] = next
	return nil
}

// updatedCriteria returns a copy of the current criteria with the
// dependencies of c added.
func (r *run[R, C]) updatedCriteria(c C) (map[string]*Criterion[R, C], error) {
	deps, err := r.provider.GetDependencies(r.ctx, c)
	if err != nil {
		return nil, err
	}
	criteria := make(map[string]*Criterion[R, C], len(r.state().criteria))
	for k, v := range r.state().criteria {
		criteria[k] = v
	}
	for _, dep := range deps {
		if err := r.addToCriteria(criteria, dep, c, false); err != nil {
			return nil, err
		}
	}
	return criteria, nil
}

func (r *run[R, C]) attemptToPin(name string) ([]*Criterion[R, C], error) {
	crit := r.state().criteria[name]
	var causes []*Criterion[R, C]
	for _, candidate := range crit.Candidates {
		if err := r.ctx.Err(); err != nil {
			return nil, err
		}
		updated, err := r.updatedCriteria(candidate)
		if err != nil {
			if ce, ok := err.(*conflictError[R, C]); ok {
				causes = append(causes, ce.criterion)
				continue
			}
			return nil, err
		}

		for _, info := range crit.Information {
			if !r.provider.IsSatisfiedBy(info.Requirement, candidate) {
				return nil, &InconsistentCandidateError{Identifier: name, Candidate: fmt.Sprint(candidate)}
			}
		}
		r.reporter.Pinning(candidate)
		st := r.state()
		for k, v := range updated {
			st.criteria[k] = v
		}
		st.pin(name, candidate)
		return nil, nil
	}
	return causes, nil
}

// backjump unwinds states until a state whose pin contributed to the
// conflict is found, marks that pin incompatible, and re-filters the
// candidates. It reports false when there is nothing left to try.
func (r *run[R, C]) backjump(causes []RequirementInformation[R, C]) (bool, error) {
	incompatibleDeps := make(map[string]bool)
	for _, c := range causes {
		if !c.IsRoot {
			incompatibleDeps[r.provider.IdentifyCandidate(c.Parent)] = true
		}
		incompatibleDeps[r.provider.IdentifyRequirement(c.Requirement)] = true
	}

	for len(r.states) >= 3 {
		// Drop the state that triggered backtracking.
		r.states = r.states[:len(r.states)-1]

		var (
			broken    *state[R, C]
			name      string
			candidate C
		)
		for {
			if len(r.states) == 0 {
				return false, nil
			}
			broken = r.states[len(r.states)-1]
			r.states = r.states[:len(r.states)-1]
			var ok bool
			name, candidate, ok = broken.popLast()
			if !ok {
				return false, nil
			}
			deps, err := r.provider.GetDependencies(r.ctx, candidate)
			if err != nil {
				return false, err
			}
			related := false
			for _, d := range deps {
				if incompatibleDeps[r.provider.IdentifyRequirement(d)] {
					related = true
					break
				}
			}
			if related || len(broken.mapping) == 0 {
				break
			}
		}

		type entry struct {
			name     string
			incompat []C
		}
		var fromBroken []entry
		keys := make([]string, 0, len(broken.criteria))
		for k := range broken.criteria {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fromBroken = append(fromBroken, entry{k, append([]C(nil), broken.criteria[k].Incompatibilities...)})
		}
		fromBroken = append(fromBroken, entry{name, []C{candidate}})

		if len(r.states) == 0 {
			return false, nil
		}
		r.pushNewState()

		ok, err := func() (bool, error) {
			st := r.state()
			for _, e := range fromBroken {
				if len(e.incompat) == 0 {
					continue
				}
				crit, ok := st.criteria[e.name]
				if !ok {
					continue
				}
				matches, err := r.provider.FindMatches(r.ctx, e.name,
					requirementsView(st.criteria, e.name),
					incompatibilitiesView(st.criteria, e.name, e.incompat))
				if err != nil {
					return false, err
				}
				if len(matches) == 0 {
					return false, nil
				}
				st.criteria[e.name] = &Criterion[R, C]{
					Candidates:        matches,
					Information:       append([]RequirementInformation[R, C](nil), crit.Information...),
					Incompatibilities: append(append([]C(nil), e.incompat...), crit.Incompatibilities...),
				}
			}
			return true, nil
		}()
		if err != nil {
			return false, err
		}
		if ok {
			return true, nil
		}
	}
	return false, nil
}

// removeInformationFrom drops information contributed by the parents in
// invalidated.
func (r *run[R, C]) removeInformationFrom(criteria map[string]*Criterion[R, C], invalidated map[string]bool) {
	for key, crit := range criteria {
		var kept []RequirementInformation[R, C]
		changed := false
		for _, info := range crit.Information {
			if !info.IsRoot && invalidated[r.provider.IdentifyCandidate(info.Parent)] {
				changed = true
				continue
			}
			kept = append(kept, info)
		}
		if changed {
			criteria[key] = &Criterion[R, C]{
				Candidates:        crit.Candidates,
				Information:       kept,
				Incompatibilities: crit.Incompatibilities,
			}
		}
	}
}

// buildResult keeps only pins with a route to a root requirement.
func (r *run[R, C]) buildResult() *Result[R, C] {
	st := r.state()
	connected := make(map[string]bool)
	var visit func(name string) bool
	visiting := make(map[string]bool)
	visit = func(name string) bool {
		if v, ok := connected[name]; ok {
			return v
		}
		if visiting[name] {
			return false
		}
		visiting[name] = true
		defer delete(visiting, name)
		crit, ok := st.criteria[name]
		if !ok {
			return false
		}
		for _, info := range crit.Information {
			if info.IsRoot {
				connected[name] = true
				return true
			}
			parent := r.provider.IdentifyCandidate(info.Parent)
			if _, pinned := st.mapping[parent]; pinned && visit(parent) {
				connected[name] = true
				return true
			}
		}
		return false
	}

	res := &Result[R, C]{
		Mapping:  make(map[string]C),
		Criteria: make(map[string]*Criterion[R, C]),
	}
	for _, name := range st.order {
		if !visit(name) {
			continue
		}
		res.Mapping[name] = st.mapping[name]
		res.Criteria[name] = st.criteria[name]
		res.Order = append(res.Order, name)
	}
	return res
}
