package model

import (
	"fmt"

	"github.com/opencontainers/go-digest"

	"github.com/matzehuels/wheelres/pkg/pep"
)

// WheelKey identifies one wheel artifact.
type WheelKey struct {
	Name     string  // normalized project name
	Version  string  // version as written in the filename
	Tag      pep.Tag // best accepted tag of the file in the resolving environment
	Filename string
	URI      string
	Hash     digest.Digest // "" when the index advertised no usable hash
}

// String returns "name==version".
func (k WheelKey) String() string {
	return k.Name + "==" + k.Version
}

// Describe returns a longer description including the tag and filename.
func (k WheelKey) Describe() string {
	return fmt.Sprintf("%s==%s (%s, %s)", k.Name, k.Version, k.Tag, k.Filename)
}

// Enrich attaches late-bound information to the key. The key is copied, so
// enrichment never changes identity or equality of k.
func (k WheelKey) Enrich(info Enrichment) WheelKeyMetadata {
	return WheelKeyMetadata{
		Key:            k,
		TagSet:         append([]pep.Tag(nil), info.TagSet...),
		SatisfiedTags:  append([]pep.Tag(nil), info.SatisfiedTags...),
		Origin:         info.Origin,
		RequiresPython: info.RequiresPython,
		MetadataDigest: info.MetadataDigest,
		Strategy:       info.Strategy,
	}
}

// Enrichment carries the fields set by WheelKey.Enrich.
type Enrichment struct {
	TagSet         []pep.Tag
	SatisfiedTags  []pep.Tag
	Origin         string
	RequiresPython string
	MetadataDigest digest.Digest
	Strategy       string
}

// WheelKeyMetadata is a WheelKey plus information learned while resolving.
type WheelKeyMetadata struct {
	Key            WheelKey
	TagSet         []pep.Tag // every tag in the filename
	SatisfiedTags  []pep.Tag // tags accepted by the environment, most preferred first
	Origin         string    // where the metadata was actually read from
	RequiresPython string
	MetadataDigest digest.Digest
	Strategy       string // strategy instance that produced the metadata
}

// With returns a copy of m with the metadata provenance fields replaced.
func (m WheelKeyMetadata) With(origin string, d digest.Digest, strategy string) WheelKeyMetadata {
	out := m
	out.TagSet = append([]pep.Tag(nil), m.TagSet...)
	out.SatisfiedTags = append([]pep.Tag(nil), m.SatisfiedTags...)
	out.Origin, out.MetadataDigest, out.Strategy = origin, d, strategy
	return out
}

// SidecarState describes what an index said about separately served
// core metadata for a file.
type SidecarState int

const (
	// SidecarUnknown means the index did not say; strategies may probe.
	SidecarUnknown SidecarState = iota
	SidecarAbsent
	SidecarPresent
)

// FileHints is what the index listing said about a file beyond its key.
type FileHints struct {
	Sidecar       SidecarState
	SidecarHashes map[string]string
	Yanked        bool
}
