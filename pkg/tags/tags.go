// Package tags ranks wheel artifacts against a target environment.
//
// A [Policy] wraps an environment's ordered accepted tag list (most preferred
// first). [Rank] drops items whose tag set shares nothing with the policy
// and orders the rest by the index of their best accepted tag, breaking ties
// by filename and then origin URI so that ranking never depends on the order
// an index happened to list files in.
//
// The policy never assumes any tag is universally compatible: a
// "py3-none-any" wheel is only acceptable when the environment lists that
// tag.
package tags

import (
	"sort"

	"github.com/matzehuels/wheelres/pkg/pep"
)

// Policy answers compatibility questions for one accepted tag list.
type Policy struct {
	order []pep.Tag
	index map[pep.Tag]int
}

// NewPolicy builds a policy from accepted tags, most preferred first.
// Duplicate tags keep their first position.
func NewPolicy(accepted []pep.Tag) *Policy {
	p := &Policy{index: make(map[pep.Tag]int, len(accepted))}
	for _, t := range accepted {
		if _, ok := p.index[t]; ok {
			continue
		}
		p.index[t] = len(p.order)
		p.order = append(p.order, t)
	}
	return p
}

// Tags returns a copy of the accepted tags in preference order.
func (p *Policy) Tags() []pep.Tag {
	return append([]pep.Tag(nil), p.order...)
}

// Index returns the preference position of t, or -1 when t is not accepted.
func (p *Policy) Index(t pep.Tag) int {
	if i, ok := p.index[t]; ok {
		return i
	}
	return -1
}

// Best returns the most preferred accepted tag in set and its index.
// ok is false when no tag in set is accepted.
func (p *Policy) Best(set []pep.Tag) (best pep.Tag, index int, ok bool) {
	index = -1
	for _, t := range set {
		if i := p.Index(t); i >= 0 && (index < 0 || i < index) {
			best, index = t, i
		}
	}
	return best, index, index >= 0
}

// Satisfied returns the subset of set accepted by p, in preference order.
func (p *Policy) Satisfied(set []pep.Tag) []pep.Tag {
	var out []pep.Tag
	for _, t := range set {
		if p.Index(t) >= 0 {
			out = append(out, t)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return p.Index(out[i]) < p.Index(out[j]) })
	return out
}

// Compatible reports whether any tag in set is accepted.
func (p *Policy) Compatible(set []pep.Tag) bool {
	_, _, ok := p.Best(set)
	return ok
}

// Rankable is an artifact that can be ordered by a Policy.
type Rankable interface {
	RankTags() []pep.Tag
	RankFilename() string
	RankURI() string
}

// Rank returns the compatible items ordered best first. The input slice is
// not modified.
func Rank[T Rankable](items []T, p *Policy) []T {
	type ranked struct {
		item  T
		index int
	}
	var keep []ranked
	for _, it := range items {
		if _, i, ok := p.Best(it.RankTags()); ok {
			keep = append(keep, ranked{it, i})
		}
	}
	sort.SliceStable(keep, func(i, j int) bool {
		a, b := keep[i], keep[j]
		if a.index != b.index {
			return a.index < b.index
		}
		if fa, fb := a.item.RankFilename(), b.item.RankFilename(); fa != fb {
			return fa < fb
		}
		return a.item.RankURI() < b.item.RankURI()
	})
	out := make([]T, len(keep))
	for i, r := range keep {
		out[i] = r.item
	}
	return out
}
