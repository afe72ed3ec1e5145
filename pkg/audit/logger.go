package audit

import (
	"context"
	"fmt"
	"strings"
)

// Logger is one audit sink.
type Logger interface {
	// Log writes the event. Implementations must be safe for concurrent
	// use.
	Log(ctx context.Context, event *Event) error
	// Close flushes and releases the sink.
	Close() error
}

// NopLogger discards events. It stands in when auditing is disabled.
type NopLogger struct{}

func (NopLogger) Log(context.Context, *Event) error { return nil }
func (NopLogger) Close() error                      { return nil }

// MultiLogger fans every event out to all sinks. A failing sink does not
// stop the others; Log returns an aggregate error so callers still see the
// failure.
type MultiLogger struct {
	sinks []Logger
}

// NewMultiLogger builds a fan-out over the given sinks.
func NewMultiLogger(sinks ...Logger) *MultiLogger {
	return &MultiLogger{sinks: sinks}
}

// Log implements Logger.
func (m *MultiLogger) Log(ctx context.Context, event *Event) error {
	var failures []string
	for _, sink := range m.sinks {
		if err := sink.Log(ctx, event); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("audit sink failures: %s", strings.Join(failures, "; "))
	}
	return nil
}

// Close implements Logger.
func (m *MultiLogger) Close() error {
	var failures []string
	for _, sink := range m.sinks {
		if err := sink.Close(); err != nil {
			failures = append(failures, err.Error())
		}
	}
	if len(failures) > 0 {
		return fmt.Errorf("audit sink close failures: %s", strings.Join(failures, "; "))
	}
	return nil
}
