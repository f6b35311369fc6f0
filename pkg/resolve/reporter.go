package resolve

import (
	"context"

	"github.com/matzehuels/wheelres/pkg/model"
	"github.com/matzehuels/wheelres/pkg/trace"
)

// reporter turns solver callbacks into trace events and counts them for
// the result diagnostics.
type reporter struct {
	ctx  context.Context
	sink trace.Sink

	rounds, pins, backtracks int
}

func newReporter(ctx context.Context, sink trace.Sink) *reporter {
	return &reporter{ctx: ctx, sink: sink}
}

func (r *reporter) StartingRound(index int) {
	r.rounds++
	r.sink.Emit(r.ctx, trace.EventSolverRound, trace.Fields{"round": index})
}

func (r *reporter) Pinning(c *model.Candidate) {
	r.pins++
	r.sink.Emit(r.ctx, trace.EventSolverPin, trace.Fields{
		"project": c.Name(),
		"version": c.Key.Version,
		"tag":     c.Key.Tag.String(),
	})
}

func (r *reporter) ResolvingConflicts(causes []requirementInfo) {
	r.backtracks++
	texts := make([]string, len(causes))
	for i, c := range causes {
		texts[i] = c.Requirement.String()
	}
	r.sink.Emit(r.ctx, trace.EventSolverBacktrack, trace.Fields{"causes": texts})
}
