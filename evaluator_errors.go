package statestore

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrNoEvaluator is returned when no expression evaluator is available.
	ErrNoEvaluator = errors.New("statestore: evaluator not configured")
	// ErrNotBool is returned when a query expression yields a non-bool value.
	ErrNotBool = errors.New("statestore: expression result is not a bool")
	// ErrEvaluationTimeout is returned when a JS predicate exceeds the limit
	// set with JSWithTimeout.
	ErrEvaluationTimeout = errors.New("statestore: evaluation timed out")
)

// EvaluationError captures evaluator metadata alongside the originating error.
// Index is the element position, or -1 when compilation failed.
type EvaluationError struct {
	Engine string
	Expr   string
	Path   string
	Index  int
	Err    error
}

func (e *EvaluationError) Error() string {
	if e == nil {
		return "<nil>"
	}
	if e.CompileFailure() {
		return fmt.Sprintf("statestore: %s evaluator %s path=%s: compile: %v", e.Engine, describeExpression(e.Expr), e.Path, e.Err)
	}
	return fmt.Sprintf("statestore: %s evaluator %s path=%s index=%d: %v", e.Engine, describeExpression(e.Expr), e.Path, e.Index, e.Err)
}

// CompileFailure reports whether the expression failed before any element
// was evaluated.
func (e *EvaluationError) CompileFailure() bool {
	return e != nil && e.Index < 0
}

func (e *EvaluationError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

func describeExpression(expr string) string {
	if expr == "" {
		return "expr=<empty>"
	}
	return fmt.Sprintf("expr=%q", expr)
}

func wrapEvaluatorError(engine string, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		return err
	}

	if strings.HasPrefix(err.Error(), "statestore:") {
		return err
	}
	return fmt.Errorf("statestore: %s evaluator: %w", engine, err)
}

// wrapEvaluationError attaches metadata to err, filling only the fields an
// existing EvaluationError left empty.
func wrapEvaluationError(engine, expr string, ctx RuleContext, err error) error {
	if err == nil {
		return nil
	}

	var evalErr *EvaluationError
	if errors.As(err, &evalErr) {
		if evalErr.Engine == "" {
			evalErr.Engine = engine
		}
		if evalErr.Expr == "" {
			evalErr.Expr = expr
		}
		if evalErr.Path == "" {
			evalErr.Path = ctx.Path
			evalErr.Index = ctx.Index
		}
		return evalErr
	}

	return &EvaluationError{
		Engine: engine,
		Expr:   expr,
		Path:   ctx.Path,
		Index:  ctx.Index,
		Err:    err,
	}
}
