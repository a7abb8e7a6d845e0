// Package eventlog records chat and tweet events to optional external sinks.
// Recording is best-effort: unless strict mode is on, sink failures are logged and dropped.
package eventlog

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/zhouzirui/tweetsmith/backend/internal/config"
)

const (
	TableChats  = "chats"
	TableTweets = "tweets"
)

// Sink persists a single record into a named table.
type Sink interface {
	Name() string
	Write(ctx context.Context, table string, record map[string]any) error
}

// Logger fans records out to every configured sink.
type Logger struct {
	sinks  []Sink
	strict bool
}

// New returns a Logger over sinks. strict makes Record return sink failures to the caller.
func New(strict bool, sinks ...Sink) *Logger {
	return &Logger{sinks: sinks, strict: strict}
}

// Open builds the sinks described by cfg. A Logger without sinks is a no-op.
func Open(ctx context.Context, cfg config.EventLogConfig) (*Logger, error) {
	sinks := make([]Sink, 0, 2)

	if cfg.RESTEnabled() {
		sinks = append(sinks, NewRESTSink(cfg.URL, cfg.Key, &http.Client{Timeout: 10 * time.Second}))
	}

	if cfg.DatabaseURL != "" {
		pg, err := NewPostgresSink(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, fmt.Errorf("failed to open postgres event sink: %w", err)
		}
		sinks = append(sinks, pg)
	}

	return New(cfg.Strict, sinks...), nil
}

// Enabled reports whether at least one sink is configured.
func (l *Logger) Enabled() bool {
	return l != nil && len(l.sinks) > 0
}

// Record writes record to table on every sink.
func (l *Logger) Record(ctx context.Context, table string, record map[string]any) error {
	if !l.Enabled() {
		return nil
	}

	var errs []error
	for _, sink := range l.sinks {
		if err := sink.Write(ctx, table, record); err != nil {
			log.Printf("[eventlog] %s sink failed for table=%s: %v", sink.Name(), table, err)
			errs = append(errs, fmt.Errorf("%s sink: %w", sink.Name(), err))
		}
	}

	if len(errs) == 0 || !l.strict {
		return nil
	}
	return fmt.Errorf("event log failed: %w", errors.Join(errs...))
}

// Close releases sinks that hold connections.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	for _, sink := range l.sinks {
		if closer, ok := sink.(interface{ Close() }); ok {
			closer.Close()
		}
	}
}
