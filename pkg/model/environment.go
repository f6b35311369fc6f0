package model

import (
	_ "crypto/sha256"
	_ "crypto/sha512"
	"sort"
	"strings"

	"github.com/opencontainers/go-digest"

	"github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/pep"
	"github.com/matzehuels/wheelres/pkg/tags"
)

// YankedPolicy decides whether yanked files are candidates.
type YankedPolicy string

const (
	YankedSkip  YankedPolicy = "skip"
	YankedAllow YankedPolicy = "allow"
)

// PreReleasePolicy decides whether pre-release versions are candidates.
type PreReleasePolicy string

const (
	// PreReleaseDefault admits pre-releases only when a specifier names one.
	PreReleaseDefault  PreReleasePolicy = "default"
	PreReleaseAllow    PreReleasePolicy = "allow"
	PreReleaseDisallow PreReleasePolicy = "disallow"
)

// URLPolicy decides what happens to "name @ url" entries found in
// dependency metadata.
type URLPolicy string

const (
	URLHonor  URLPolicy = "honor"
	URLIgnore URLPolicy = "ignore"
	URLRaise  URLPolicy = "raise"
)

// InvalidPolicy decides what happens to dependency entries that fail to parse.
type InvalidPolicy string

const (
	InvalidSkip  InvalidPolicy = "skip"
	InvalidRaise InvalidPolicy = "raise"
)

// Policy holds the knobs that change which candidates and dependencies a
// resolution accepts.
type Policy struct {
	Yanked              YankedPolicy
	PreRelease          PreReleasePolicy
	RequiresDistURL     URLPolicy
	AllowedURLSchemes   []string // empty means any scheme
	InvalidRequiresDist InvalidPolicy
}

// DefaultPolicy returns the policy used when none is configured.
func DefaultPolicy() Policy {
	return Policy{
		Yanked:              YankedSkip,
		PreRelease:          PreReleaseDefault,
		RequiresDistURL:     URLIgnore,
		InvalidRequiresDist: InvalidSkip,
	}
}

// WithDefaults fills zero fields from DefaultPolicy.
func (p Policy) WithDefaults() Policy {
	d := DefaultPolicy()
	if p.Yanked == "" {
		p.Yanked = d.Yanked
	}
	if p.PreRelease == "" {
		p.PreRelease = d.PreRelease
	}
	if p.RequiresDistURL == "" {
		p.RequiresDistURL = d.RequiresDistURL
	}
	if p.InvalidRequiresDist == "" {
		p.InvalidRequiresDist = d.InvalidRequiresDist
	}
	return p
}

// Validate rejects unknown policy values.
func (p Policy) Validate() error {
	switch p.Yanked {
	case YankedSkip, YankedAllow:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown yanked policy %q", p.Yanked)
	}
	switch p.PreRelease {
	case PreReleaseDefault, PreReleaseAllow, PreReleaseDisallow:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown pre-release policy %q", p.PreRelease)
	}
	switch p.RequiresDistURL {
	case URLHonor, URLIgnore, URLRaise:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown requires-dist URL policy %q", p.RequiresDistURL)
	}
	switch p.InvalidRequiresDist {
	case InvalidSkip, InvalidRaise:
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown invalid requires-dist policy %q", p.InvalidRequiresDist)
	}
	return nil
}

// Environment is an immutable description of one resolution target.
type Environment struct {
	id      string
	tags    []pep.Tag
	policy  *tags.Policy
	markers pep.MarkerEnv
	rules   Policy
	python  *pep.Version
}

// NewEnvironment builds an environment from an explicit accepted tag list
// (most preferred first) and marker variables.
func NewEnvironment(id string, accepted []pep.Tag, markers pep.MarkerEnv, policy Policy) (*Environment, error) {
	if len(accepted) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidEnvironment, "environment %q has no accepted tags", id)
	}
	policy = policy.WithDefaults()
	if err := policy.Validate(); err != nil {
		return nil, err
	}
	env := &Environment{
		id:      id,
		tags:    append([]pep.Tag(nil), accepted...),
		policy:  tags.NewPolicy(accepted),
		markers: make(pep.MarkerEnv, len(markers)),
		rules:   policy,
	}
	for k, v := range markers {
		env.markers[k] = v
	}
	env.rules.AllowedURLSchemes = append([]string(nil), policy.AllowedURLSchemes...)

	full := markers["python_full_version"]
	if full == "" {
		full = markers["python_version"]
	}
	if full != "" {
		v, err := pep.ParseVersion(full)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeInvalidEnvironment, err, "environment %q", id)
		}
		env.python = &v
	}
	return env, nil
}

// CPythonSpec describes a CPython target for NewCPythonEnvironment.
type CPythonSpec struct {
	PythonVersion string   // "3.11" or "3.11.4"
	SysPlatform   string   // "linux", "darwin", "win32"
	Machine       string   // "x86_64", "arm64"...
	Platforms     []string // platform tags in preference order
	Markers       pep.MarkerEnv
}

// NewCPythonEnvironment derives tags and marker variables for a CPython
// interpreter. Markers in spec override the derived ones.
func NewCPythonEnvironment(id string, spec CPythonSpec, policy Policy) (*Environment, error) {
	v, err := tags.ParsePythonVersion(spec.PythonVersion)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidEnvironment, err, "environment %q", id)
	}
	full := ""
	if strings.Count(spec.PythonVersion, ".") >= 2 {
		full = spec.PythonVersion
	}
	markers := tags.MarkerEnv(full, v, spec.SysPlatform, spec.Machine)
	for k, val := range spec.Markers {
		markers[k] = val
	}
	return NewEnvironment(id, tags.CPython(v, spec.Platforms), markers, policy)
}

// ID returns the environment identifier.
func (e *Environment) ID() string { return e.id }

// Tags returns a copy of the accepted tags, most preferred first.
func (e *Environment) Tags() []pep.Tag { return append([]pep.Tag(nil), e.tags...) }

// TagPolicy returns the ranking policy for the accepted tags.
func (e *Environment) TagPolicy() *tags.Policy { return e.policy }

// Markers returns a copy of the marker variables.
func (e *Environment) Markers() pep.MarkerEnv {
	out := make(pep.MarkerEnv, len(e.markers))
	for k, v := range e.markers {
		out[k] = v
	}
	return out
}

// Policy returns the resolution policy.
func (e *Environment) Policy() Policy {
	p := e.rules
	p.AllowedURLSchemes = append([]string(nil), e.rules.AllowedURLSchemes...)
	return p
}

// PythonVersion returns the interpreter version, if the markers define one.
func (e *Environment) PythonVersion() (pep.Version, bool) {
	if e.python == nil {
		return pep.Version{}, false
	}
	return *e.python, true
}

// Fingerprint is a stable digest of everything that can change a resolution
// outcome in this environment.
func (e *Environment) Fingerprint() digest.Digest {
	var b strings.Builder
	b.WriteString("tags:")
	for _, t := range e.tags {
		b.WriteString(t.String() + ",")
	}
	keys := make([]string, 0, len(e.markers))
	for k := range e.markers {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	b.WriteString("\nmarkers:")
	for _, k := range keys {
		b.WriteString(k + "=" + e.markers[k] + ",")
	}
	p := e.rules
	b.WriteString("\npolicy:" + string(p.Yanked) + "," + string(p.PreRelease) + "," +
		string(p.RequiresDistURL) + "," + string(p.InvalidRequiresDist) + "," + strings.Join(p.AllowedURLSchemes, "|"))
	return digest.FromString(b.String())
}
