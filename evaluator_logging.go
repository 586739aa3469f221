package statestore

import (
	"context"
	"log/slog"
	"time"
)

// Log field names for evaluator events, alongside the mutation keys.
const (
	LogKeyEngine = "engine"
	LogKeyExpr   = "expr"
	LogKeyIndex  = "index"
)

// EvaluatorLogEvent describes one expression evaluation against a collection
// element.
type EvaluatorLogEvent struct {
	Engine   string
	Expr     string
	Path     string
	Index    int
	Duration time.Duration
	Err      error
}

// EvaluatorLogger records evaluator events.
type EvaluatorLogger interface {
	LogEvaluation(EvaluatorLogEvent)
}

// EvaluatorLoggerFunc adapts a function to EvaluatorLogger.
type EvaluatorLoggerFunc func(EvaluatorLogEvent)

// LogEvaluation implements EvaluatorLogger.
func (f EvaluatorLoggerFunc) LogEvaluation(event EvaluatorLogEvent) {
	if f != nil {
		f(event)
	}
}

type noopEvaluatorLogger struct{}

func (noopEvaluatorLogger) LogEvaluation(EvaluatorLogEvent) {}

// WithEvaluatorLogger attaches an evaluator logger to the store.
func WithEvaluatorLogger(logger EvaluatorLogger) Option {
	return func(cfg *storeConfig) {
		if logger == nil {
			cfg.evaluatorLogger = noopEvaluatorLogger{}
			return
		}
		cfg.evaluatorLogger = logger
	}
}

// SlogEvaluatorLogger writes each evaluation at debug level and failures at
// warn level. A nil logger uses slog.Default.
func SlogEvaluatorLogger(logger *slog.Logger) EvaluatorLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		attrs := []slog.Attr{
			slog.String(LogKeyEngine, event.Engine),
			slog.String(LogKeyExpr, event.Expr),
			slog.String(LogKeyPath, event.Path),
			slog.Int(LogKeyIndex, event.Index),
			slog.Float64(LogKeyDurationMS, float64(event.Duration)/float64(time.Millisecond)),
		}
		level := slog.LevelDebug
		msg := "query expression evaluated"
		if event.Err != nil {
			level = slog.LevelWarn
			msg = "query expression failed"
			attrs = append(attrs, slog.String(LogKeyError, event.Err.Error()))
		}
		logger.LogAttrs(context.Background(), level, msg, attrs...)
	})
}

func (s *Store) evaluatorLogger() EvaluatorLogger {
	if s.cfg.evaluatorLogger != nil {
		return s.cfg.evaluatorLogger
	}
	return noopEvaluatorLogger{}
}
