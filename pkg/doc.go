// Package pkg provides the core libraries for wheelres dependency resolution.
//
// # Overview
//
// Wheelres resolves PEP 508 requirements against a package index for a
// target Python environment, choosing only built wheels. The result is a
// pinned dependency graph recording, for every project, the chosen file, its
// hash and where its dependency metadata came from.
//
// # Architecture
//
// The typical data flow through a resolution:
//
//	Root requirements + target environment
//	         ↓
//	    [resolve] engine (parse roots, check graph cache)
//	         ↓
//	    [solver] backtracking search, asking the provider for
//	         ↓          candidates and dependencies
//	    [strategy] chains: index listing → core metadata → wheel bytes
//	         ↓
//	    [graph] pinned nodes, edges and roots
//
// # Quick Start
//
//	cfg := config.Defaults()
//	engine, store, err := cfg.NewEngine(ctx, logger, nil)
//	if err != nil {
//	    return err
//	}
//	defer store.Close()
//
//	env, _ := cfg.Environment("")
//	res := engine.Resolve(ctx, []string{"requests>=2.31"}, env)
//	if !res.OK() {
//	    return res.Err
//	}
//	res.Graph.WriteRequirements(os.Stdout)
//
// # Main Packages
//
// ## Packaging Standards
//
// [pep] - Versions and specifiers (PEP 440), requirements and markers
// (PEP 508), name normalization (PEP 503), wheel filenames and tags
// (PEP 427/425) and core metadata parsing.
//
// [tags] - Compatibility tag generation for CPython targets.
//
// [model] - Environments, policies, requirements and candidates.
//
// ## Resolution
//
// [resolve] - The engine, the provider bridging it to the solver, and
// candidate discovery with filtering by tag, yanked state, Requires-Python
// and pre-release policy.
//
// [solver] - Generic backtracking resolver over a provider interface.
//
// [strategy] - Named, ordered strategies for fetching index listings,
// core metadata and wheels, with per-instance criticality.
//
// [index] - PEP 691 JSON simple index client and sidecar metadata URLs.
//
// ## Infrastructure
//
// [cache] - Index, metadata and graph caches over memory, file or Redis
// stores, with singleflight loading.
//
// [trace] - Structured resolution events fanned out to log and Prometheus
// sinks.
//
// [config] - TOML configuration and engine wiring.
//
// [manifest] - Root requirements from requirements.txt, pyproject.toml and
// poetry.lock.
//
// [graph] - The resolved graph and its JSON and requirements-file forms.
//
// [errors] - Coded errors shared by every package.
package pkg
