package strategy

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"

	"github.com/matzehuels/wheelres/pkg/model"
)

var (
	// ErrNotApplicable is returned by a strategy that cannot serve a key.
	// It tells the chain to try the next strategy and is never surfaced
	// to callers of Chain.Resolve.
	ErrNotApplicable = errors.New("strategy not applicable")

	// ErrExhausted is returned by Chain.Resolve when no strategy applied.
	ErrExhausted = errors.New("no applicable strategy")
)

// Family groups strategies by the kind of artifact they produce.
type Family string

const (
	FamilyIndex    Family = "index"
	FamilyMetadata Family = "metadata"
	FamilyWheel    Family = "wheel"
)

// Criticality controls whether a strategy instance participates.
type Criticality string

const (
	// Imperative instances exclude every non-imperative instance: when any
	// instance is imperative, only imperative instances run.
	Imperative Criticality = "imperative"
	Required   Criticality = "required"
	Optional   Criticality = "optional"
	Disabled   Criticality = "disabled"
)

// ParseCriticality validates s. The empty string yields Optional.
func ParseCriticality(s string) (Criticality, error) {
	switch c := Criticality(strings.ToLower(strings.TrimSpace(s))); c {
	case "":
		return Optional, nil
	case Imperative, Required, Optional, Disabled:
		return c, nil
	default:
		return "", fmt.Errorf("criticality: invalid value %q", s)
	}
}

func (c Criticality) rank() int {
	switch c {
	case Imperative:
		return 0
	case Required:
		return 1
	default:
		return 2
	}
}

// Info describes one configured strategy instance.
type Info struct {
	Name        string      `json:"strategy"`    // definition name, e.g. "pep658_http"
	InstanceID  string      `json:"instance_id"` // unique per plan
	Family      Family      `json:"family"`
	Precedence  int         `json:"precedence"` // lower runs first
	Criticality Criticality `json:"criticality"`
}

func (i Info) String() string {
	return fmt.Sprintf("%s:%s@%d", i.Family, i.InstanceID, i.Precedence)
}

// Key is implemented by every family key.
type Key interface {
	String() string
}

// Strategy produces an artifact for a key, or ErrNotApplicable.
type Strategy[K Key] interface {
	Info() Info
	Resolve(ctx context.Context, key K) (*Artifact, error)
}

// Source kinds recorded on artifacts.
const (
	SourceHTTP       = "http"
	SourceSidecar    = "sidecar"
	SourceReleaseAPI = "release_api"
	SourceFile       = "file"
	SourceExtracted  = "wheel_extracted"
)

// Artifact is the bytes a strategy produced plus where they came from.
type Artifact struct {
	Data     []byte
	Origin   string        // URI the bytes were read from
	Source   string        // one of the Source* kinds
	Digest   digest.Digest // sha256 of Data
	Strategy string        // instance id, set by the chain
}

func newArtifact(data []byte, origin, source string) *Artifact {
	return &Artifact{Data: data, Origin: origin, Source: source, Digest: digest.FromBytes(data)}
}

// IndexKey addresses a project listing.
type IndexKey struct {
	Project   string // normalized project name
	IndexBase string
}

func (k IndexKey) String() string { return k.Project + "@" + k.IndexBase }

// MetadataKey addresses the core metadata of one wheel.
type MetadataKey struct {
	Wheel model.WheelKey
	Hints model.FileHints
}

func (k MetadataKey) String() string { return k.Wheel.String() }

// Options are the free-form per-instance settings from configuration.
type Options map[string]string

// Get returns the value of key or def.
func (o Options) Get(key, def string) string {
	if v, ok := o[key]; ok && v != "" {
		return v
	}
	return def
}

// Bool parses key as a boolean, returning def when unset or malformed.
func (o Options) Bool(key string, def bool) bool {
	if b, err := strconv.ParseBool(o.Get(key, "")); err == nil {
		return b
	}
	return def
}

// Duration parses key as a duration, returning def when unset or malformed.
func (o Options) Duration(key string, def time.Duration) time.Duration {
	if d, err := time.ParseDuration(o.Get(key, "")); err == nil {
		return d
	}
	return def
}

type base struct {
	info    Info
	timeout time.Duration
}

func (b base) Info() Info { return b.info }

// bound applies the per-instance timeout, if any.
func (b base) bound(ctx context.Context) (context.Context, context.CancelFunc) {
	if b.timeout <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, b.timeout)
}
