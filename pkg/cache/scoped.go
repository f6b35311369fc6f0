package cache

import (
	"sort"
	"strings"
)

// Keyer builds the keys of the three cache mappings.
type Keyer interface {
	// IndexKey identifies a project listing on one index.
	IndexKey(indexBase, project string) string
	// MetadataKey identifies core metadata by artifact URI and, when known,
	// the artifact content hash ("sha256:...").
	MetadataKey(uri, contentHash string) string
	// GraphKey identifies a whole resolution.
	GraphKey(opts GraphKeyOpts) string
}

// GraphKeyOpts are the inputs that determine a resolution outcome.
type GraphKeyOpts struct {
	Roots       []string `json:"roots"`       // requirement strings, any order
	Environment string   `json:"environment"` // environment fingerprint
	Plan        string   `json:"plan"`        // strategy plan fingerprint
	IndexBase   string   `json:"index"`
}

// DefaultKeyer produces human-readable index and metadata keys and hashed
// graph keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the default keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// IndexKey returns "index:<base>:<project>".
func (DefaultKeyer) IndexKey(indexBase, project string) string {
	return "index:" + strings.TrimRight(indexBase, "/") + ":" + project
}

// MetadataKey returns "metadata:<uri>[@<hash>]".
func (DefaultKeyer) MetadataKey(uri, contentHash string) string {
	if contentHash == "" {
		return "metadata:" + uri
	}
	return "metadata:" + uri + "@" + contentHash
}

// GraphKey hashes opts with the roots sorted, so root order does not matter.
func (DefaultKeyer) GraphKey(opts GraphKeyOpts) string {
	roots := append([]string(nil), opts.Roots...)
	sort.Strings(roots)
	opts.Roots = roots
	return hashKey("graph", opts)
}

// ScopedKeyer wraps a Keyer with a prefix, so several tenants or index
// mirrors can share one store without colliding.
//
//	keyer := NewScopedKeyer(NewDefaultKeyer(), "team-a:")
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer with a prefix.
// The prefix is prepended to all generated keys.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// IndexKey generates a prefixed index key.
func (k *ScopedKeyer) IndexKey(indexBase, project string) string {
	return k.prefix + k.inner.IndexKey(indexBase, project)
}

// MetadataKey generates a prefixed metadata key.
func (k *ScopedKeyer) MetadataKey(uri, contentHash string) string {
	return k.prefix + k.inner.MetadataKey(uri, contentHash)
}

// GraphKey generates a prefixed graph key.
func (k *ScopedKeyer) GraphKey(opts GraphKeyOpts) string {
	return k.prefix + k.inner.GraphKey(opts)
}
