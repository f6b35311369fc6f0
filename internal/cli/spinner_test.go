package cli

import (
	"bytes"
	"context"
	"strings"
	"testing"
	"time"

	perrors "github.com/matzehuels/wheelres/pkg/errors"
	"github.com/matzehuels/wheelres/pkg/graph"
	"github.com/matzehuels/wheelres/pkg/resolve"
	"github.com/matzehuels/wheelres/pkg/trace"
)

func TestSpinnerDraws(t *testing.T) {
	var buf bytes.Buffer
	s := newSpinner(context.Background(), &buf, "Resolving app", 1)
	s.Start()
	time.Sleep(200 * time.Millisecond)
	s.Stop()

	if !strings.Contains(buf.String(), "Resolving app") {
		t.Errorf("output = %q, want the message", buf.String())
	}
}

func TestSpinnerCountsEvents(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Resolving app", 2)
	ctx := context.Background()
	for _, ev := range []string{
		trace.EventSolverRound, trace.EventSolverRound, trace.EventSolverRound,
		trace.EventSolverPin, trace.EventSolverPin,
		trace.EventSolverBacktrack,
		trace.EventResolveDone,
		trace.EventCacheHit,
	} {
		s.Emit(ctx, ev, nil)
	}

	s.mu.Lock()
	got := s.status()
	s.mu.Unlock()
	want := "Resolving app · 1/2 environments · 3 rounds · 2 pins · 1 backtracks"
	if got != want {
		t.Errorf("status = %q, want %q", got, want)
	}
}

func TestSpinnerSingleEnvironmentStatus(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Resolving app", 1)
	s.Emit(context.Background(), trace.EventSolverRound, nil)

	s.mu.Lock()
	got := s.status()
	s.mu.Unlock()
	if got != "Resolving app · 1 rounds · 0 pins" {
		t.Errorf("status = %q", got)
	}
}

func TestSpinnerStopIsIdempotent(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Resolving", 1)
	s.Start()
	s.Stop()
	s.Stop()
	s.Stop()
}

func TestSpinnerCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := newSpinner(ctx, &bytes.Buffer{}, "Resolving", 1)
	s.Start()
	if s.Cancelled() {
		t.Error("Cancelled() = true before cancel")
	}
	cancel()
	s.Stop()
	if !s.Cancelled() {
		t.Error("Cancelled() = false after cancel")
	}
}

func TestSpinnerStopIsNotCancellation(t *testing.T) {
	s := newSpinner(context.Background(), &bytes.Buffer{}, "Resolving", 1)
	s.Start()
	s.Stop()
	if s.Cancelled() {
		t.Error("Cancelled() = true after a plain Stop")
	}
}

func TestSpinnerFinish(t *testing.T) {
	ok := &resolve.Result{Environment: "pure", Graph: &graph.Graph{}}
	failed := &resolve.Result{Environment: "other", Err: perrors.New(perrors.ErrCodeUnsatisfiable, "no match")}

	tests := []struct {
		name       string
		results    []*resolve.Result
		backtracks int
		want       string
	}{
		{"Success", []*resolve.Result{ok}, 0, iconSuccess + " Resolved in 2 rounds"},
		{"Backtracks", []*resolve.Result{ok}, 1, iconSuccess + " Resolved in 2 rounds with 1 backtracks"},
		{"Failure", []*resolve.Result{ok, failed}, 0, iconError + " 1 of 2 environment(s) failed"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			s := newSpinner(context.Background(), &buf, "Resolving", len(tt.results))
			ctx := context.Background()
			s.Emit(ctx, trace.EventSolverRound, nil)
			s.Emit(ctx, trace.EventSolverRound, nil)
			for i := 0; i < tt.backtracks; i++ {
				s.Emit(ctx, trace.EventSolverBacktrack, nil)
			}
			s.Start()
			s.Finish(tt.results)

			if !strings.Contains(buf.String(), tt.want) {
				t.Errorf("output = %q, want %q", buf.String(), tt.want)
			}
		})
	}
}

func TestSpinnerFinishCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	var buf bytes.Buffer
	s := newSpinner(ctx, &buf, "Resolving", 1)
	s.Start()
	cancel()
	s.Finish([]*resolve.Result{{Environment: "pure", Err: perrors.New(perrors.ErrCodeCancelled, "cancelled")}})

	if !strings.Contains(buf.String(), iconError+" Cancelled") {
		t.Errorf("output = %q, want a cancellation line", buf.String())
	}
}
