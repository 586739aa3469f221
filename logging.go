package statestore

import (
	"context"
	"log/slog"
	"time"
)

// Canonical log field names.
const (
	LogKeyOp         = "op"
	LogKeyPath       = "path"
	LogKeyStoreID    = "store_id"
	LogKeyDurationMS = "duration_ms"
	LogKeyError      = "error"
	LogKeyNotifyErr  = "notify_error"
)

// MutationLogEvent describes one mutator call, committed or not.
type MutationLogEvent struct {
	StoreID  string
	Op       string
	Path     string
	Duration time.Duration
	// Err is the mutation failure; the root was left untouched.
	Err error
	// NotifyErr is set when activity hooks failed after a commit.
	NotifyErr error
}

// MutationLogger records mutation events.
type MutationLogger interface {
	LogMutation(MutationLogEvent)
}

// MutationLoggerFunc adapts a function to MutationLogger.
type MutationLoggerFunc func(MutationLogEvent)

// LogMutation implements MutationLogger.
func (f MutationLoggerFunc) LogMutation(event MutationLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopMutationLogger struct{}

func (noopMutationLogger) LogMutation(MutationLogEvent) {}

// WithLogger attaches a mutation logger to the store.
func WithLogger(logger MutationLogger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.logger = noopMutationLogger{}
			return
		}
		cfg.logger = logger
	}
}

// WithSlogLogger logs mutations and query evaluations through logger, see
// SlogMutationLogger and SlogEvaluatorLogger.
func WithSlogLogger(logger *slog.Logger) Option {
	return func(cfg *storeConfig) {
		cfg.logger = SlogMutationLogger(logger)
		cfg.evaluatorLogger = SlogEvaluatorLogger(logger)
	}
}

// SlogMutationLogger returns a MutationLogger that writes committed mutations
// at debug level and failures at warn level. A nil logger uses slog.Default.
func SlogMutationLogger(logger *slog.Logger) MutationLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return MutationLoggerFunc(func(event MutationLogEvent) {
		attrs := []slog.Attr{
			slog.String(LogKeyStoreID, event.StoreID),
			slog.String(LogKeyOp, event.Op),
			slog.String(LogKeyPath, event.Path),
			slog.Float64(LogKeyDurationMS, float64(event.Duration)/float64(time.Millisecond)),
		}
		level := slog.LevelDebug
		msg := "state mutation committed"
		if event.Err != nil {
			level = slog.LevelWarn
			msg = "state mutation rejected"
			attrs = append(attrs, slog.String(LogKeyError, event.Err.Error()))
		}
		if event.NotifyErr != nil {
			level = slog.LevelWarn
			attrs = append(attrs, slog.String(LogKeyNotifyErr, event.NotifyErr.Error()))
		}
		logger.LogAttrs(context.Background(), level, msg, attrs...)
	})
}

func (s *Store) logger() MutationLogger {
	if s.cfg.logger != nil {
		return s.cfg.logger
	}
	return noopMutationLogger{}
}

// MultiMutationLogger fans each event out to every non-nil logger.
func MultiMutationLogger(loggers ...MutationLogger) MutationLogger {
	compact := make([]MutationLogger, 0, len(loggers))
	for _, logger := range loggers {
		if logger != nil {
			compact = append(compact, logger)
		}
	}
	return MutationLoggerFunc(func(event MutationLogEvent) {
		for _, logger := range compact {
			logger.LogMutation(event)
		}
	})
}
