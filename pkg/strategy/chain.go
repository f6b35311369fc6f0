package strategy

import (
	"context"
	"errors"
	"fmt"
	"sort"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/trace"
)

// Outcomes recorded for each attempt.
const (
	OutcomeOK            = "ok"
	OutcomeNotApplicable = "not_applicable"
	OutcomeError         = "error"
)

// Chain runs the strategies of one family in precedence order.
type Chain[K Key] struct {
	family     Family
	strategies []Strategy[K]
}

// NewChain orders strategies by precedence, then criticality, then
// instance id. Disabled instances are dropped. A chain never mixes
// imperative and non-imperative instances.
func NewChain[K Key](family Family, strategies ...Strategy[K]) (*Chain[K], error) {
	var kept []Strategy[K]
	imperative, other := 0, 0
	for _, s := range strategies {
		info := s.Info()
		if info.Criticality == Disabled {
			continue
		}
		if info.Criticality == Imperative {
			imperative++
		} else {
			other++
		}
		kept = append(kept, s)
	}
	if imperative > 0 && other > 0 {
		return nil, perrors.New(perrors.ErrCodeInvalidConfig,
			"%s chain mixes imperative and non-imperative strategies", family)
	}
	sort.SliceStable(kept, func(i, j int) bool {
		a, b := kept[i].Info(), kept[j].Info()
		if a.Precedence != b.Precedence {
			return a.Precedence < b.Precedence
		}
		if a.Criticality.rank() != b.Criticality.rank() {
			return a.Criticality.rank() < b.Criticality.rank()
		}
		return a.InstanceID < b.InstanceID
	})
	return &Chain[K]{family: family, strategies: kept}, nil
}

// Family returns the family of the chain.
func (c *Chain[K]) Family() Family { return c.family }

// Len returns the number of strategies in the chain.
func (c *Chain[K]) Len() int {
	if c == nil {
		return 0
	}
	return len(c.strategies)
}

// Infos returns the strategy descriptions in execution order.
func (c *Chain[K]) Infos() []Info {
	if c == nil {
		return nil
	}
	out := make([]Info, len(c.strategies))
	for i, s := range c.strategies {
		out[i] = s.Info()
	}
	return out
}

// Resolve tries each strategy in turn and returns the first artifact. The
// attempt list covers every strategy that ran, including the last one.
// When every strategy declined, the error wraps ErrExhausted.
func (c *Chain[K]) Resolve(ctx context.Context, sink trace.Sink, key K) (*Artifact, []perrors.Attempt, error) {
	if sink == nil {
		sink = trace.FromContext(ctx)
	}
	ctx = trace.WithSink(ctx, sink)

	var attempts []perrors.Attempt
	if c == nil {
		return nil, nil, fmt.Errorf("%w for %s", ErrExhausted, key)
	}
	for pos, s := range c.strategies {
		if err := ctx.Err(); err != nil {
			return nil, attempts, err
		}
		info := s.Info()
		art, err := s.Resolve(ctx, key)

		attempt := perrors.Attempt{Strategy: info.InstanceID, Position: pos}
		switch {
		case err == nil && art != nil:
			attempt.Outcome = OutcomeOK
		case err == nil, errors.Is(err, ErrNotApplicable):
			attempt.Outcome = OutcomeNotApplicable
		default:
			attempt.Outcome = OutcomeError
			attempt.Detail = err.Error()
		}
		attempts = append(attempts, attempt)
		sink.Emit(ctx, trace.EventStrategyAttempt, trace.Fields{
			"family":     string(c.family),
			"strategy":   info.Name,
			"instance":   info.InstanceID,
			"position":   pos,
			"precedence": info.Precedence,
			"outcome":    attempt.Outcome,
			"key":        key.String(),
		})

		switch attempt.Outcome {
		case OutcomeOK:
			art.Strategy = info.InstanceID
			return art, attempts, nil
		case OutcomeError:
			return nil, attempts, fmt.Errorf("%s: %w", info.InstanceID, err)
		}
	}
	return nil, attempts, fmt.Errorf("%w for %s", ErrExhausted, key)
}
