package config

import (
	"context"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/wheelres/pkg/cache"
	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/index"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/pep"
	"github.com/matzehuels/wheelres/pkg/resolve"
	"github.com/matzehuels/wheelres/pkg/strategy"
	"github.com/matzehuels/wheelres/pkg/trace"
)

// Policy converts the policy section, layering over onto the top-level
// values field by field.
func (p PolicyConfig) Policy(over *PolicyConfig) model.Policy {
	merged := p
	if over != nil {
		if over.Yanked != "" {
			merged.Yanked = over.Yanked
		}
		if over.PreRelease != "" {
			merged.PreRelease = over.PreRelease
		}
		if over.RequiresDistURL != "" {
			merged.RequiresDistURL = over.RequiresDistURL
		}
		if over.AllowedURLSchemes != nil {
			merged.AllowedURLSchemes = over.AllowedURLSchemes
		}
		if over.InvalidRequiresDist != "" {
			merged.InvalidRequiresDist = over.InvalidRequiresDist
		}
	}
	return model.Policy{
		Yanked:              model.YankedPolicy(merged.Yanked),
		PreRelease:          model.PreReleasePolicy(merged.PreRelease),
		RequiresDistURL:     model.URLPolicy(merged.RequiresDistURL),
		AllowedURLSchemes:   append([]string(nil), merged.AllowedURLSchemes...),
		InvalidRequiresDist: model.InvalidPolicy(merged.InvalidRequiresDist),
	}
}

// Build constructs the environment described by e under the top-level policy.
func (e EnvironmentConfig) Build(policy PolicyConfig) (*model.Environment, error) {
	pol := policy.Policy(e.Policy)
	if len(e.Tags) > 0 {
		accepted := make([]pep.Tag, 0, len(e.Tags))
		for _, s := range e.Tags {
			t, err := pep.ParseTag(s)
			if err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeInvalidEnvironment, err, "environment %q", e.Name)
			}
			accepted = append(accepted, t)
		}
		return model.NewEnvironment(e.Name, accepted, pep.MarkerEnv(e.Markers), pol)
	}
	return model.NewCPythonEnvironment(e.Name, model.CPythonSpec{
		PythonVersion: e.Python,
		SysPlatform:   e.SysPlatform,
		Machine:       e.Machine,
		Platforms:     e.Platforms,
		Markers:       pep.MarkerEnv(e.Markers),
	}, pol)
}

// Environment builds the named environment. An empty name selects the
// first one.
func (c Config) Environment(name string) (*model.Environment, error) {
	if len(c.Environments) == 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "no environments configured")
	}
	if name == "" {
		return c.Environments[0].Build(c.Policy)
	}
	for _, e := range c.Environments {
		if e.Name == name {
			return e.Build(c.Policy)
		}
	}
	return nil, perrors.New(perrors.ErrCodeInvalidEnvironment, "unknown environment %q (have %v)", name, c.EnvironmentNames())
}

// BuildEnvironments builds every configured environment in file order.
func (c Config) BuildEnvironments() ([]*model.Environment, error) {
	out := make([]*model.Environment, 0, len(c.Environments))
	for _, e := range c.Environments {
		env, err := e.Build(c.Policy)
		if err != nil {
			return nil, err
		}
		out = append(out, env)
	}
	return out, nil
}

// OpenCache opens the configured cache store. The caller closes the cache.
func (c Config) OpenCache(ctx context.Context) (*cache.Cache, error) {
	var store cache.Store
	switch c.Cache.Backend {
	case BackendMemory, "":
		store = cache.NewMemoryStore()
	case BackendNone:
		store = cache.NewNullStore()
	case BackendFile:
		dir := c.Cache.Dir
		if dir == "" {
			d, err := DefaultCacheDir()
			if err != nil {
				return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "locate cache dir")
			}
			dir = d
		}
		fs, err := cache.NewFileStore(dir)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "open file cache")
		}
		store = fs
	case BackendRedis:
		rs, err := cache.NewRedisStore(ctx, c.Cache.RedisAddr, c.Cache.RedisPassword, c.Cache.RedisDB, c.Cache.Prefix)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "open redis cache")
		}
		store = rs
	default:
		return nil, perrors.New(perrors.ErrCodeInvalidConfig, "unknown cache backend %q", c.Cache.Backend)
	}
	opts := cache.Options{TTL: c.Cache.TTL, DisableGraphs: c.Cache.DisableGraphs}
	// The redis store prefixes its own keys.
	if c.Cache.Prefix != "" && c.Cache.Backend != BackendRedis {
		opts.Keyer = cache.NewScopedKeyer(nil, c.Cache.Prefix)
	}
	return cache.New(store, opts), nil
}

// PlanStrategies plans the configured strategy instances against the
// default registry.
func (c Config) PlanStrategies() (*strategy.Set, error) {
	return strategy.Default().Plan(c.Strategies, strategy.Deps{
		Client:     index.NewClient(c.Index.Headers),
		ReleaseAPI: c.Index.ReleaseAPI,
	})
}

// Options returns the engine options of the configuration.
func (c Config) Options() resolve.Options {
	return resolve.Options{
		IndexBase:    c.Index.Base,
		FastFail:     c.Resolve.FastFail,
		PreferDirect: c.Resolve.PreferDirect,
		MaxRounds:    c.Resolve.MaxRounds,
		Concurrency:  c.Resolve.Concurrency,
	}
}

// NewEngine wires an engine from the configuration: strategy plan, cache
// store and options. A nil sink means trace.Default(). The returned cache
// is owned by the caller.
func (c Config) NewEngine(ctx context.Context, logger *log.Logger, sink trace.Sink) (*resolve.Engine, *cache.Cache, error) {
	set, err := c.PlanStrategies()
	if err != nil {
		return nil, nil, err
	}
	store, err := c.OpenCache(ctx)
	if err != nil {
		return nil, nil, err
	}
	engine, err := resolve.NewEngine(resolve.Config{
		Strategies: set,
		Cache:      store,
		Sink:       sink,
		Logger:     logger,
		Options:    c.Options(),
	})
	if err != nil {
		store.Close()
		return nil, nil, err
	}
	return engine, store, nil
}
