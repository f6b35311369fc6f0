package model

import (
	"sync"

	"github.com/matzehuels/wheelres/pkg/pep"
)

// Candidate is one concrete wheel the solver may pin for a project.
type Candidate struct {
	Key      WheelKey
	Version  pep.Version
	Metadata *WheelKeyMetadata
	Hints    FileHints

	mu     sync.Mutex
	deps   []Requirement
	loaded bool
}

// NewCandidate creates a candidate for key.
func NewCandidate(key WheelKey, v pep.Version, md *WheelKeyMetadata, hints FileHints) *Candidate {
	return &Candidate{Key: key, Version: v, Metadata: md, Hints: hints}
}

// Name returns the normalized project name.
func (c *Candidate) Name() string { return c.Key.Name }

// String returns "name==version".
func (c *Candidate) String() string { return c.Key.String() }

// Dependencies returns the cached dependency list and whether it was loaded.
func (c *Candidate) Dependencies() ([]Requirement, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Requirement(nil), c.deps...), c.loaded
}

// SetDependencies stores the dependency list. Only the first call has effect.
func (c *Candidate) SetDependencies(deps []Requirement) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.loaded {
		return
	}
	c.deps = append([]Requirement(nil), deps...)
	c.loaded = true
}

// WithMetadata returns a copy of c carrying md. The dependency cache is not
// copied.
func (c *Candidate) WithMetadata(md WheelKeyMetadata) *Candidate {
	return &Candidate{Key: c.Key, Version: c.Version, Metadata: &md, Hints: c.Hints}
}
