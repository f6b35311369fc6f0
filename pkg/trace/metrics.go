package trace

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
)

const metricsNamespace = "wheelres"

// MetricsSink counts events in Prometheus collectors.
type MetricsSink struct {
	Events     *prometheus.CounterVec // every event, by name
	Strategies *prometheus.CounterVec // strategy attempts, by strategy and outcome
	Cache      *prometheus.CounterVec // cache lookups, by mapping and result
	Backtracks prometheus.Counter
}

// NewMetricsSink creates the collectors and registers them with reg.
// A nil reg uses the default Prometheus registerer.
func NewMetricsSink(reg prometheus.Registerer) (*MetricsSink, error) {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &MetricsSink{
		Events: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "trace",
			Name:      "events_total",
			Help:      "Trace events emitted, by event name.",
		}, []string{"event"}),
		Strategies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "strategy",
			Name:      "attempts_total",
			Help:      "Strategy attempts, by strategy instance and outcome.",
		}, []string{"strategy", "outcome"}),
		Cache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "cache",
			Name:      "lookups_total",
			Help:      "Cache lookups, by mapping and result.",
		}, []string{"mapping", "result"}),
		Backtracks: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Subsystem: "solver",
			Name:      "backtracks_total",
			Help:      "Solver backtracking steps.",
		}),
	}
	for _, c := range []prometheus.Collector{m.Events, m.Strategies, m.Cache, m.Backtracks} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}
	return m, nil
}

// Emit increments the counters matching event.
func (m *MetricsSink) Emit(_ context.Context, event string, fields Fields) {
	m.Events.WithLabelValues(event).Inc()
	switch event {
	case EventStrategyAttempt:
		m.Strategies.WithLabelValues(str(fields["strategy"]), str(fields["outcome"])).Inc()
	case EventCacheHit:
		m.Cache.WithLabelValues(str(fields["mapping"]), "hit").Inc()
	case EventCacheMiss:
		m.Cache.WithLabelValues(str(fields["mapping"]), "miss").Inc()
	case EventCacheShared:
		m.Cache.WithLabelValues(str(fields["mapping"]), "shared").Inc()
	case EventSolverBacktrack:
		m.Backtracks.Inc()
	}
}

func str(v any) string {
	if s, ok := v.(string); ok {
		return s
	}
	if v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
