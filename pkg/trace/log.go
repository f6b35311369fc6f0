package trace

import (
	"context"
	"sort"

	"github.com/charmbracelet/log"
)

// LogSink writes events to a logger at debug level.
type LogSink struct {
	Logger *log.Logger
}

// NewLogSink returns a sink writing to logger.
func NewLogSink(logger *log.Logger) *LogSink {
	return &LogSink{Logger: logger}
}

// Emit logs the event with its fields as sorted key/value pairs.
func (s *LogSink) Emit(ctx context.Context, event string, fields Fields) {
	if s == nil || s.Logger == nil {
		return
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	kv := make([]any, 0, 2*len(keys)+2)
	if id := RunID(ctx); id != "" {
		kv = append(kv, "run", id)
	}
	for _, k := range keys {
		kv = append(kv, k, fields[k])
	}
	s.Logger.Debug(event, kv...)
}
