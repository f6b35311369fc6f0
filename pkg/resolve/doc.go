// Package resolve turns root requirements and a target environment into a
// dependency graph of concrete wheels.
//
// # Overview
//
// An [Engine] owns a planned strategy set and a shared cache. Each call to
// [Engine.Resolve] builds a fresh [Factory] and [Provider], runs the
// backtracking solver from package solver, and translates the pinned
// candidates into a [graph.Graph]:
//
//	engine, err := resolve.NewEngine(resolve.Config{})
//	if err != nil {
//	    return err
//	}
//	res := engine.Resolve(ctx, []string{"requests>=2"}, env)
//	if !res.OK() {
//	    return res.Err
//	}
//	res.Graph.WriteRequirements(os.Stdout)
//
// # Candidates
//
// The factory lists a project through the index strategy chain, drops files
// that are not wheels, are yanked (per policy), carry no accepted tag, or
// require another Python, and offers one wheel per version: the one whose
// best tag ranks highest in the environment. Direct references bypass the
// index entirely.
//
// # Dependencies
//
// Core metadata is read through the metadata strategy chain on first use and
// kept in the cache together with where it came from, so a graph built from
// a warm cache is byte-identical to one built from a cold cache.
//
// # Errors
//
// Every failure is reported as a *errors.Error with one of the codes in
// package errors. Roots are validated before any network activity.
package resolve
