// Package solver is a backtracking dependency solver in the style of
// resolvelib. It knows nothing about packages: a [Provider] supplies
// identities, candidates, dependencies and preferences, and the solver
// searches for one candidate per identifier that satisfies every
// requirement.
//
// The search pins one identifier per round, choosing the identifier with
// the smallest [Preference]. When no candidate of that identifier can be
// pinned, the solver backjumps to the most recent pin that contributed to
// the conflict, marks it incompatible, and continues.
package solver

import (
	"context"
	"fmt"
	"strings"
)

// DefaultMaxRounds bounds the number of pin attempts.
const DefaultMaxRounds = 10000

// RequirementInformation records that Parent (nil-valued for roots)
// imposed Requirement.
type RequirementInformation[R, C any] struct {
	Requirement R
	Parent      C
	// IsRoot distinguishes root requirements, since C may be a value type.
	IsRoot bool
}

// Preference orders identifiers: the smallest is pinned first. Ties are
// broken by identifier.
type Preference []int

// Less reports whether p sorts before o.
func (p Preference) Less(o Preference) bool {
	for i := 0; i < len(p) && i < len(o); i++ {
		if p[i] != o[i] {
			return p[i] < o[i]
		}
	}
	return len(p) < len(o)
}

// PreferenceInput is what the solver knows when asking for a preference.
type PreferenceInput[R, C any] struct {
	Resolutions     map[string]C
	Candidates      map[string][]C
	Information     map[string][]RequirementInformation[R, C]
	BacktrackCauses []RequirementInformation[R, C]
}

// Provider adapts a domain to the solver.
type Provider[R, C any] interface {
	IdentifyRequirement(r R) string
	IdentifyCandidate(c C) string
	GetPreference(identifier string, in PreferenceInput[R, C]) Preference
	// FindMatches returns the candidates of identifier that satisfy every
	// requirement in requirements[identifier] and are not listed in
	// incompatibilities[identifier], most preferred first.
	FindMatches(ctx context.Context, identifier string, requirements map[string][]R, incompatibilities map[string][]C) ([]C, error)
	IsSatisfiedBy(r R, c C) bool
	GetDependencies(ctx context.Context, c C) ([]R, error)
}

// Reporter observes the search.
type Reporter[R, C any] interface {
	StartingRound(index int)
	Pinning(c C)
	ResolvingConflicts(causes []RequirementInformation[R, C])
}

// NopReporter ignores every callback.
type NopReporter[R, C any] struct{}

func (NopReporter[R, C]) StartingRound(int)                                 {}
func (NopReporter[R, C]) Pinning(C)                                         {}
func (NopReporter[R, C]) ResolvingConflicts([]RequirementInformation[R, C]) {}

// Criterion is everything known about one identifier: its remaining
// candidates, the requirements imposed on it, and candidates known not to
// work.
type Criterion[R, C any] struct {
	Candidates        []C
	Information       []RequirementInformation[R, C]
	Incompatibilities []C
}

// Requirements returns the requirements of every information entry.
func (c *Criterion[R, C]) Requirements() []R {
	out := make([]R, len(c.Information))
	for i, info := range c.Information {
		out[i] = info.Requirement
	}
	return out
}

// Result is a successful resolution.
type Result[R, C any] struct {
	// Mapping holds the pinned candidate of every identifier reachable
	// from the roots.
	Mapping map[string]C
	// Order lists the identifiers of Mapping in pin order.
	Order []string
	// Criteria holds the criterion of every identifier in Mapping.
	Criteria map[string]*Criterion[R, C]
}

// ImpossibleError reports that no assignment satisfies the requirements.
// Causes are the requirements involved in the final conflict.
type ImpossibleError[R, C any] struct {
	Causes []RequirementInformation[R, C]
}

func (e *ImpossibleError[R, C]) Error() string {
	parts := make([]string, len(e.Causes))
	for i, c := range e.Causes {
		parts[i] = fmt.Sprint(c.Requirement)
	}
	return "resolution impossible: " + strings.Join(parts, ", ")
}

// TooDeepError reports that the round limit was reached.
type TooDeepError struct {
	Rounds int
}

func (e *TooDeepError) Error() string {
	return fmt.Sprintf("resolution too deep: gave up after %d rounds", e.Rounds)
}

// InconsistentCandidateError reports a provider that returned a candidate
// from FindMatches which IsSatisfiedBy then rejected.
type InconsistentCandidateError struct {
	Identifier string
	Candidate  string
}

func (e *InconsistentCandidateError) Error() string {
	return fmt.Sprintf("provider returned inconsistent candidate %s for %s", e.Candidate, e.Identifier)
}
