// Package trace records what a resolution did: which strategies were tried
// and with what outcome, cache hits and misses, and solver progress.
//
// # Architecture
//
// A [Sink] receives events. Emitting is fire-and-forget: sinks never return
// errors and never influence the resolution. Implementations:
//   - [Nop]: discards everything
//   - [Recorder]: append-only in-memory log, for tests and diagnostics
//   - [LogSink]: forwards events to a charmbracelet logger
//   - [MetricsSink]: counts events in Prometheus collectors
//   - [Multi]: fans out to several sinks
//
// # Usage
//
// Register a process-wide default at startup, or pass a sink per resolution:
//
//	func main() {
//	    trace.SetDefault(trace.NewLogSink(logger))
//	    // ... run application
//	}
//
// Libraries emit events with a context carrying the resolution run id:
//
//	ctx = trace.WithRunID(ctx, runID)
//	sink.Emit(ctx, trace.EventCacheHit, trace.Fields{"mapping": "index", "key": key})
package trace

import (
	"context"
	"sync"
	"time"
)

// Event names emitted by the resolver.
const (
	EventResolveStart    = "resolve.start"
	EventResolveDone     = "resolve.done"
	EventResolveFailed   = "resolve.failed"
	EventStrategyAttempt = "strategy.attempt"
	EventCacheHit        = "cache.hit"
	EventCacheMiss       = "cache.miss"
	EventCacheShared     = "cache.shared"
	EventSolverRound     = "solver.round"
	EventSolverPin       = "solver.pin"
	EventSolverBacktrack = "solver.backtrack"
)

// Fields is the payload of an event.
type Fields map[string]any

// Sink receives trace events.
type Sink interface {
	Emit(ctx context.Context, event string, fields Fields)
}

// Record is one event captured by a Recorder.
type Record struct {
	Time   time.Time
	RunID  string
	Event  string
	Fields Fields
}

type (
	ctxKey     struct{}
	sinkCtxKey struct{}
)

// WithRunID returns a context whose events are stamped with id.
func WithRunID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// RunID returns the run id stored by WithRunID, or "".
func RunID(ctx context.Context) string {
	id, _ := ctx.Value(ctxKey{}).(string)
	return id
}

// WithSink returns a context carrying s, for code that emits events
// without being handed a sink explicitly.
func WithSink(ctx context.Context, s Sink) context.Context {
	return context.WithValue(ctx, sinkCtxKey{}, s)
}

// FromContext returns the sink stored by WithSink, or Default().
func FromContext(ctx context.Context) Sink {
	if s, ok := ctx.Value(sinkCtxKey{}).(Sink); ok && s != nil {
		return s
	}
	return Default()
}

// =============================================================================
// Sinks
// =============================================================================

// Nop discards all events.
type Nop struct{}

func (Nop) Emit(context.Context, string, Fields) {}

// Recorder keeps every event in order. Safe for concurrent use.
type Recorder struct {
	mu      sync.Mutex
	records []Record
}

// Emit appends the event.
func (r *Recorder) Emit(ctx context.Context, event string, fields Fields) {
	cp := make(Fields, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.records = append(r.records, Record{Time: time.Now(), RunID: RunID(ctx), Event: event, Fields: cp})
}

// Records returns a snapshot of the recorded events.
func (r *Recorder) Records() []Record {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Record(nil), r.records...)
}

// Count returns how many events named event were recorded.
func (r *Recorder) Count(event string) int {
	n := 0
	for _, rec := range r.Records() {
		if rec.Event == event {
			n++
		}
	}
	return n
}

// Multi fans an event out to several sinks in order.
type Multi []Sink

func (m Multi) Emit(ctx context.Context, event string, fields Fields) {
	for _, s := range m {
		if s != nil {
			s.Emit(ctx, event, fields)
		}
	}
}

// =============================================================================
// Default Sink
// =============================================================================

var (
	defaultSink Sink = Nop{}
	defaultMu   sync.RWMutex
)

// SetDefault registers the sink used when a resolution is given none.
func SetDefault(s Sink) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	if s != nil {
		defaultSink = s
	}
}

// Default returns the registered default sink.
func Default() Sink {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultSink
}

// Reset restores the default sink to Nop.
// This is primarily useful for testing.
func Reset() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultSink = Nop{}
}
