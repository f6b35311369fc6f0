package strategy

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/index"
	"github.com/matzehuels/wheelres/pkg/model"
)

// Built-in strategy names.
const (
	NamePEP691HTTP      = "pep691_http"
	NamePEP658HTTP      = "pep658_http"
	NameReleaseJSON     = "release_json"
	NameLocalMetadata   = "direct_uri_core_metadata"
	NameWheelExtraction = "wheel_extracted_metadata"
	NameWheelHTTP       = "wheel_http"
	NameWheelFile       = "uri_wheel_file"
)

// Config binds a strategy definition to an instance. Unset fields fall
// back to the definition's defaults.
type Config struct {
	Strategy    string  `toml:"strategy" json:"strategy"`
	InstanceID  string  `toml:"instance_id" json:"instance_id,omitempty"`
	Precedence  *int    `toml:"precedence" json:"precedence,omitempty"`
	Criticality string  `toml:"criticality" json:"criticality,omitempty"`
	Options     Options `toml:"options" json:"options,omitempty"`
}

// Deps are the shared collaborators handed to strategy constructors.
type Deps struct {
	Client *index.Client
	// ReleaseAPI is the JSON API base used by release_json, e.g.
	// https://pypi.org/pypi. Empty disables that strategy unless its
	// instance sets the "base" option.
	ReleaseAPI string
	// Wheels is filled in by Plan before metadata strategies are built.
	Wheels *Chain[model.WheelKey]
}

// Constructor builds one strategy instance.
type Constructor[K Key] func(info Info, opts Options, deps Deps) (Strategy[K], error)

// Definition describes a strategy that can be instantiated by Plan.
type Definition[K Key] struct {
	Name        string
	Precedence  int
	Criticality Criticality // default criticality; empty means Optional
	// Default instances are created without any configuration. Other
	// definitions only run when a Config names them.
	Default bool
	// Needs lists families this strategy calls into at runtime.
	Needs []Family
	New   Constructor[K]
}

type definition struct {
	name        string
	family      Family
	precedence  int
	criticality Criticality
	isDefault   bool
	needs       []Family
	build       func(Info, Options, Deps) (any, error)
}

// Registry holds strategy definitions. Safe for concurrent use.
type Registry struct {
	mu   sync.RWMutex
	defs map[string]*definition
}

// NewRegistry returns a registry with the built-in strategies.
func NewRegistry() *Registry {
	r := &Registry{defs: make(map[string]*definition)}
	registerBuiltins(r)
	return r
}

var defaultRegistry = NewRegistry()

// Default returns the process-wide registry.
func Default() *Registry { return defaultRegistry }

// Register adds a definition to r. The family is derived from K.
func Register[K Key](r *Registry, def Definition[K]) error {
	family, ok := familyOf[K]()
	if !ok {
		return perrors.New(perrors.ErrCodeInvalidConfig, "strategy %q: unsupported key type %T", def.Name, *new(K))
	}
	if def.Name == "" || def.New == nil {
		return perrors.New(perrors.ErrCodeInvalidConfig, "strategy definition needs a name and a constructor")
	}
	crit := def.Criticality
	if crit == "" {
		crit = Optional
	}
	build := def.New
	d := &definition{
		name:        def.Name,
		family:      family,
		precedence:  def.Precedence,
		criticality: crit,
		isDefault:   def.Default,
		needs:       append([]Family(nil), def.Needs...),
		build: func(info Info, opts Options, deps Deps) (any, error) {
			return build(info, opts, deps)
		},
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.defs[def.Name]; dup {
		return perrors.New(perrors.ErrCodeInvalidConfig, "strategy %q already registered", def.Name)
	}
	r.defs[def.Name] = d
	return nil
}

func familyOf[K Key]() (Family, bool) {
	switch any(*new(K)).(type) {
	case IndexKey:
		return FamilyIndex, true
	case MetadataKey:
		return FamilyMetadata, true
	case model.WheelKey:
		return FamilyWheel, true
	}
	return "", false
}

// Names returns the registered definition names, sorted.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Set is the planned strategy chains of every family.
type Set struct {
	Index    *Chain[IndexKey]
	Metadata *Chain[MetadataKey]
	Wheel    *Chain[model.WheelKey]
}

// Infos returns every planned instance in family order, then chain order.
func (s *Set) Infos() []Info {
	var out []Info
	out = append(out, s.Index.Infos()...)
	out = append(out, s.Metadata.Infos()...)
	out = append(out, s.Wheel.Infos()...)
	return out
}

// Fingerprint is a stable description of the plan, used in cache keys.
func (s *Set) Fingerprint() string {
	infos := s.Infos()
	parts := make([]string, len(infos))
	for i, info := range infos {
		parts[i] = info.String()
	}
	return strings.Join(parts, ",")
}

type instance struct {
	def        *definition
	info       Info
	opts       Options
	configured bool
}

// Plan builds the strategy chains from configs.
//
// Default definitions get one instance each, with the definition name as
// instance id. A config whose instance id matches an existing instance
// overrides it; other configs add instances. Disabled instances are
// dropped. If any instance is imperative, only imperative instances run.
func (r *Registry) Plan(configs []Config, deps Deps) (*Set, error) {
	if deps.Client == nil {
		deps.Client = index.NewClient(nil)
	}

	r.mu.RLock()
	instances := make(map[string]*instance)
	var order []string
	for _, d := range r.defs {
		if !d.isDefault {
			continue
		}
		instances[d.name] = &instance{def: d, info: d.info(d.name)}
		order = append(order, d.name)
	}
	for _, cfg := range configs {
		d, ok := r.defs[cfg.Strategy]
		if !ok {
			r.mu.RUnlock()
			return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown strategy %q (available: %s)",
				cfg.Strategy, strings.Join(r.namesLocked(), ", "))
		}
		iid := cfg.InstanceID
		if iid == "" {
			iid = cfg.Strategy
		}
		inst, exists := instances[iid]
		switch {
		case exists && (inst.configured || inst.def != d):
			r.mu.RUnlock()
			return nil, perrors.New(perrors.ErrCodeInvalidConfig, "duplicate strategy instance id %q", iid)
		case !exists:
			inst = &instance{def: d, info: d.info(iid)}
			instances[iid] = inst
			order = append(order, iid)
		}
		inst.configured = true
		if cfg.Precedence != nil {
			inst.info.Precedence = *cfg.Precedence
		}
		if cfg.Criticality != "" {
			c, err := ParseCriticality(cfg.Criticality)
			if err != nil {
				r.mu.RUnlock()
				return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "strategy instance %q", iid)
			}
			inst.info.Criticality = c
		}
		inst.opts = cfg.Options
	}
	r.mu.RUnlock()

	active := gate(instances, order)
	if err := checkNeeds(active); err != nil {
		return nil, err
	}

	byFamily := make(map[Family][]*instance)
	for _, inst := range active {
		byFamily[inst.def.family] = append(byFamily[inst.def.family], inst)
	}

	wheels, err := buildChain[model.WheelKey](FamilyWheel, byFamily[FamilyWheel], deps)
	if err != nil {
		return nil, err
	}
	deps.Wheels = wheels
	indexes, err := buildChain[IndexKey](FamilyIndex, byFamily[FamilyIndex], deps)
	if err != nil {
		return nil, err
	}
	metadata, err := buildChain[MetadataKey](FamilyMetadata, byFamily[FamilyMetadata], deps)
	if err != nil {
		return nil, err
	}
	return &Set{Index: indexes, Metadata: metadata, Wheel: wheels}, nil
}

func (r *Registry) namesLocked() []string {
	names := make([]string, 0, len(r.defs))
	for n := range r.defs {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func (d *definition) info(iid string) Info {
	return Info{Name: d.name, InstanceID: iid, Family: d.family, Precedence: d.precedence, Criticality: d.criticality}
}

// gate drops disabled instances and applies the imperative rule. The
// result is ordered by instance id for deterministic construction.
func gate(instances map[string]*instance, order []string) []*instance {
	var enabled []*instance
	imperative := false
	for _, iid := range order {
		inst := instances[iid]
		if inst.info.Criticality == Disabled {
			continue
		}
		if inst.info.Criticality == Imperative {
			imperative = true
		}
		enabled = append(enabled, inst)
	}
	var out []*instance
	for _, inst := range enabled {
		if imperative && inst.info.Criticality != Imperative {
			continue
		}
		out = append(out, inst)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].info.InstanceID < out[j].info.InstanceID })
	return out
}

func checkNeeds(active []*instance) error {
	have := make(map[Family]bool)
	for _, inst := range active {
		have[inst.def.family] = true
	}
	for _, inst := range active {
		for _, f := range inst.def.needs {
			if !have[f] {
				return perrors.New(perrors.ErrCodeInvalidConfig,
					"strategy instance %q needs an enabled %s strategy", inst.info.InstanceID, f)
			}
		}
	}
	return nil
}

func buildChain[K Key](family Family, insts []*instance, deps Deps) (*Chain[K], error) {
	var strategies []Strategy[K]
	for _, inst := range insts {
		built, err := inst.def.build(inst.info, inst.opts, deps)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "strategy instance %q", inst.info.InstanceID)
		}
		s, ok := built.(Strategy[K])
		if !ok {
			return nil, perrors.New(perrors.ErrCodeInternal, "strategy instance %q built %T", inst.info.InstanceID, built)
		}
		if got := s.Info(); got.InstanceID != inst.info.InstanceID {
			return nil, perrors.New(perrors.ErrCodeInvalidConfig,
				"strategy instance %q reports instance id %q", inst.info.InstanceID, got.InstanceID)
		}
		strategies = append(strategies, s)
	}
	return NewChain(family, strategies...)
}

func registerBuiltins(r *Registry) {
	must := func(err error) {
		if err != nil {
			panic(fmt.Sprintf("strategy: register builtin: %v", err))
		}
	}

	must(Register(r, Definition[IndexKey]{
		Name: NamePEP691HTTP, Precedence: 50, Default: true,
		New: func(info Info, opts Options, deps Deps) (Strategy[IndexKey], error) {
			return NewIndexHTTP(info, deps.Client, opts.Duration("timeout", 30*time.Second)), nil
		},
	}))
	must(Register(r, Definition[MetadataKey]{
		Name: NameReleaseJSON, Precedence: 30, Default: true,
		New: func(info Info, opts Options, deps Deps) (Strategy[MetadataKey], error) {
			apiBase := opts.Get("base", deps.ReleaseAPI)
			if apiBase != "" {
				if err := perrors.ValidateURL(apiBase); err != nil {
					return nil, err
				}
			}
			return NewReleaseJSON(info, deps.Client, opts.Duration("timeout", 30*time.Second), apiBase), nil
		},
	}))
	must(Register(r, Definition[MetadataKey]{
		Name: NameLocalMetadata, Precedence: 40, Default: true,
		New: func(info Info, _ Options, _ Deps) (Strategy[MetadataKey], error) {
			return NewLocalWheelMetadata(info), nil
		},
	}))
	must(Register(r, Definition[MetadataKey]{
		Name: NamePEP658HTTP, Precedence: 50, Default: true,
		New: func(info Info, opts Options, deps Deps) (Strategy[MetadataKey], error) {
			return NewSidecarHTTP(info, deps.Client, opts.Duration("timeout", 30*time.Second), opts.Bool("probe", true)), nil
		},
	}))
	must(Register(r, Definition[MetadataKey]{
		Name: NameWheelExtraction, Precedence: 90, Default: true, Needs: []Family{FamilyWheel},
		New: func(info Info, _ Options, deps Deps) (Strategy[MetadataKey], error) {
			return NewWheelInspection(info, deps.Wheels), nil
		},
	}))
	must(Register(r, Definition[model.WheelKey]{
		Name: NameWheelFile, Precedence: 40, Default: true,
		New: func(info Info, _ Options, _ Deps) (Strategy[model.WheelKey], error) {
			return NewWheelFile(info), nil
		},
	}))
	must(Register(r, Definition[model.WheelKey]{
		Name: NameWheelHTTP, Precedence: 50, Default: true,
		New: func(info Info, opts Options, deps Deps) (Strategy[model.WheelKey], error) {
			return NewWheelHTTP(info, deps.Client, opts.Duration("timeout", 120*time.Second)), nil
		},
	}))
}
