// Package strategy acquires the artifacts a resolution needs: project
// listings, core metadata and whole wheels.
//
// # Families
//
// Each family has its own key type:
//   - index: [IndexKey] (project + index base) yields a PEP 691 listing
//   - metadata: [MetadataKey] (a wheel + index hints) yields METADATA bytes
//   - wheel: [model.WheelKey] yields the raw wheel archive
//
// # Fallback
//
// A [Chain] tries its strategies in precedence order. A strategy that
// cannot serve a key returns [ErrNotApplicable] and the chain moves on; any
// other error stops the chain. Every attempt is recorded with its position
// and outcome, both in the returned attempt list and as a
// trace.EventStrategyAttempt event.
//
// # Configuration
//
// A [Registry] knows the available strategy definitions. [Registry.Plan]
// turns a list of [Config] values into a [Set] of ordered chains:
//
//	set, err := strategy.Default().Plan(cfg.Strategies, strategy.Deps{Client: client})
//	art, attempts, err := set.Metadata.Resolve(ctx, sink, key)
//
// Third-party strategies are added with [Register] before planning.
package strategy
