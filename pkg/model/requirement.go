package model

import (
	"github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/pep"
)

// Requirement is a named or direct (URL) dependency on a project.
type Requirement struct {
	name       string
	specifiers pep.SpecifierSet
	extras     []string
	marker     *pep.Marker
	uri        string
	text       string
}

// ParseRequirement parses a PEP 508 requirement string. Malformed input
// fails with INVALID_REQUIREMENT.
func ParseRequirement(text string) (Requirement, error) {
	r, err := pep.ParseRequirement(text)
	if err != nil {
		return Requirement{}, errors.Wrap(errors.ErrCodeInvalidRequirement, err, "invalid requirement %q", text)
	}
	if err := errors.ValidateProjectName(r.Name); err != nil {
		return Requirement{}, err
	}
	return FromPEP(r), nil
}

// FromPEP converts an already parsed requirement.
func FromPEP(r pep.Requirement) Requirement {
	return Requirement{
		name:       pep.NormalizeName(r.Name),
		specifiers: r.Specifiers,
		extras:     append([]string(nil), r.Extras...),
		marker:     r.Marker,
		uri:        r.URL,
		text:       r.String(),
	}
}

// Name returns the normalized project name.
func (r Requirement) Name() string { return r.name }

// Specifiers returns the version clauses; empty for direct requirements.
func (r Requirement) Specifiers() pep.SpecifierSet { return r.specifiers }

// Extras returns a copy of the requested extras (normalized, sorted).
func (r Requirement) Extras() []string { return append([]string(nil), r.extras...) }

// Marker returns the environment marker, or nil.
func (r Requirement) Marker() *pep.Marker { return r.marker }

// URI returns the direct reference, or "".
func (r Requirement) URI() string { return r.uri }

// IsDirect reports whether the requirement pins an artifact by URL.
func (r Requirement) IsDirect() bool { return r.uri != "" }

// String returns the canonical requirement text.
func (r Requirement) String() string { return r.text }

// Applies reports whether the requirement's marker holds in env, considering
// the extras requested of the parent that declared it.
func (r Requirement) Applies(env *Environment, parentExtras []string) (bool, error) {
	return r.marker.EvaluateExtras(env.Markers(), parentExtras)
}
