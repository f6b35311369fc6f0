package resolve

import (
	"context"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/matzehuels/wheelres/pkg/cache"
	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/graph"
	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/solver"
	"github.com/matzehuels/wheelres/pkg/strategy"
	"github.com/matzehuels/wheelres/pkg/trace"
)

// DefaultIndexBase is the index queried when none is configured.
const DefaultIndexBase = "https://pypi.org/simple"

// Options configures resolution behavior.
type Options struct {
	IndexBase    string // PEP 691 index base URL
	FastFail     bool   // check roots for any viable candidate before solving
	PreferDirect bool   // pin direct references before other identifiers
	MaxRounds    int    // solver round limit
	Concurrency  int    // listing prefetch and ResolveMany parallelism
}

// WithDefaults returns a copy of Options with zero values replaced by defaults.
func (o Options) WithDefaults() Options {
	if o.IndexBase == "" {
		o.IndexBase = DefaultIndexBase
	}
	if o.MaxRounds <= 0 {
		o.MaxRounds = solver.DefaultMaxRounds
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Config wires an Engine.
type Config struct {
	// Strategies is the planned strategy set. Nil plans the default
	// registry with no configuration.
	Strategies *strategy.Set
	// Cache is shared by every resolution of the engine. Nil means a fresh
	// memory cache.
	Cache  *cache.Cache
	Sink   trace.Sink
	Logger *log.Logger
	Options
}

// Engine resolves root requirements into dependency graphs. It is safe for
// concurrent use; all resolutions share its cache.
type Engine struct {
	strategies *strategy.Set
	cache      *cache.Cache
	sink       trace.Sink
	logger     *log.Logger
	opts       Options
}

// NewEngine creates an engine.
func NewEngine(cfg Config) (*Engine, error) {
	if cfg.Strategies == nil {
		set, err := strategy.Default().Plan(nil, strategy.Deps{})
		if err != nil {
			return nil, err
		}
		cfg.Strategies = set
	}
	if cfg.Cache == nil {
		cfg.Cache = cache.NewMemory()
	}
	if cfg.Sink == nil {
		cfg.Sink = trace.Default()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(io.Discard)
	}
	return &Engine{
		strategies: cfg.Strategies,
		cache:      cfg.Cache,
		sink:       cfg.Sink,
		logger:     cfg.Logger,
		opts:       cfg.Options.WithDefaults(),
	}, nil
}

// Cache returns the engine's cache.
func (e *Engine) Cache() *cache.Cache { return e.cache }

// Strategies returns the engine's strategy plan.
func (e *Engine) Strategies() *strategy.Set { return e.strategies }

// Result is the outcome of one resolution: a graph or an error, never both.
type Result struct {
	RunID       string         `json:"run_id"`
	Environment string         `json:"environment"`
	Roots       []string       `json:"roots"`
	Graph       *graph.Graph   `json:"graph,omitempty"`
	Err         *perrors.Error `json:"-"`
	Diagnostics Diagnostics    `json:"diagnostics"`
}

// OK reports whether the resolution succeeded.
func (r *Result) OK() bool { return r.Err == nil }

// Diagnostics describes how a resolution went.
type Diagnostics struct {
	Duration    time.Duration `json:"duration"`
	GraphCached bool          `json:"graph_cached"`
	Rounds      int           `json:"rounds"`
	Pins        int           `json:"pins"`
	Backtracks  int           `json:"backtracks"`
	Strategies  string        `json:"strategies"`
}

// Request is one independent resolution for ResolveMany.
type Request struct {
	Roots       []string
	Environment *model.Environment
}

// Resolve resolves roots in env. Root requirements are validated before
// any network activity; roots whose marker does not hold in env are
// dropped. On failure the result carries a coded error and no graph.
func (e *Engine) Resolve(ctx context.Context, roots []string, env *model.Environment) *Result {
	res := &Result{
		RunID: uuid.NewString(),
		Roots: append([]string(nil), roots...),
		Diagnostics: Diagnostics{
			Strategies: e.strategies.Fingerprint(),
		},
	}
	if env != nil {
		res.Environment = env.ID()
	}
	ctx = trace.WithRunID(ctx, res.RunID)
	ctx = trace.WithSink(ctx, e.sink)

	start := time.Now()
	e.sink.Emit(ctx, trace.EventResolveStart, trace.Fields{"environment": res.Environment, "roots": res.Roots})
	g, err := e.resolve(ctx, roots, env, &res.Diagnostics)
	res.Diagnostics.Duration = time.Since(start)

	if err != nil {
		res.Err = classify(ctx, err)
		e.sink.Emit(ctx, trace.EventResolveFailed, trace.Fields{"code": string(res.Err.Code), "error": res.Err.Message})
		e.logger.Debug("resolution failed", "run", res.RunID, "environment", res.Environment, "code", res.Err.Code, "error", res.Err.Message)
		return res
	}
	res.Graph = g
	e.sink.Emit(ctx, trace.EventResolveDone, trace.Fields{
		"nodes":  len(g.Nodes),
		"edges":  len(g.Edges),
		"cached": res.Diagnostics.GraphCached,
	})
	e.logger.Debug("resolution done", "run", res.RunID, "environment", res.Environment, "nodes", len(g.Nodes), "duration", res.Diagnostics.Duration)
	return res
}

func (e *Engine) resolve(ctx context.Context, roots []string, env *model.Environment, diag *Diagnostics) (*graph.Graph, error) {
	if env == nil {
		return nil, perrors.New(perrors.ErrCodeInvalidEnvironment, "no environment given")
	}

	reqs := make([]model.Requirement, 0, len(roots))
	texts := make([]string, 0, len(roots))
	for _, text := range roots {
		r, err := model.ParseRequirement(text)
		if err != nil {
			return nil, err
		}
		ok, err := r.Applies(env, nil)
		if err != nil {
			return nil, perrors.Wrap(perrors.ErrCodeInvalidRequirement, err, "marker of %q", text)
		}
		if !ok {
			e.logger.Debug("dropping root excluded by marker", "requirement", text, "environment", env.ID())
			continue
		}
		reqs = append(reqs, r)
		texts = append(texts, r.String())
	}

	key := e.cache.Keyer().GraphKey(cache.GraphKeyOpts{
		Roots:       texts,
		Environment: env.Fingerprint().String(),
		Plan:        e.strategies.Fingerprint(),
		IndexBase:   e.opts.IndexBase,
	})
	if data, ok, err := e.cache.Graphs().Get(ctx, key); err == nil && ok {
		if g, err := graph.Unmarshal(data); err == nil {
			e.sink.Emit(ctx, trace.EventCacheHit, trace.Fields{"mapping": cache.MappingGraph, "key": key})
			diag.GraphCached = true
			return g, nil
		}
	}

	factory := NewFactory(FactoryConfig{
		Strategies:  e.strategies,
		Cache:       e.cache,
		IndexBase:   e.opts.IndexBase,
		Logger:      e.logger,
		Concurrency: e.opts.Concurrency,
	})
	if e.opts.FastFail {
		if err := fastFail(ctx, factory, env, reqs); err != nil {
			return nil, err
		}
	}

	provider := NewProvider(factory, env, e.opts.PreferDirect)
	rep := newReporter(ctx, e.sink)
	out, err := solver.New[model.Requirement, *model.Candidate](provider, rep, e.opts.MaxRounds).Resolve(ctx, reqs)
	diag.Rounds, diag.Pins, diag.Backtracks = rep.rounds, rep.pins, rep.backtracks
	if err != nil {
		return nil, err
	}

	g, err := translate(out, reqs, factory, provider)
	if err != nil {
		return nil, err
	}
	if data, err := g.Marshal(); err == nil {
		if err := e.cache.Graphs().Put(ctx, key, data); err != nil {
			e.logger.Warn("graph cache write failed", "error", err)
		}
	}
	return g, nil
}

// ResolveMany resolves independent requests concurrently. Results are
// positionally aligned with reqs.
func (e *Engine) ResolveMany(ctx context.Context, reqs []Request) []*Result {
	out := make([]*Result, len(reqs))
	var g errgroup.Group
	g.SetLimit(e.opts.Concurrency)
	for i, r := range reqs {
		g.Go(func() error {
			out[i] = e.Resolve(ctx, r.Roots, r.Environment)
			return nil
		})
	}
	_ = g.Wait()
	return out
}
