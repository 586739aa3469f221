package statestore

import (
	"fmt"
	"strings"
	"time"

	"github.com/goliatone/go-statestore/tree"
)

// Query selects elements of the list or object at Path for which Expr
// evaluates to true. Object elements bind their fields as variables; every
// element is also bound as item with its position as index.
type Query struct {
	Path     tree.Path
	Expr     string
	Args     map[string]any
	Metadata map[string]any
}

// Find returns the first element matching q, or the absent sentinel.
func (s *Store) Find(q Query) (tree.Value, error) {
	matches, err := s.query("find", q, true)
	if err != nil {
		return tree.Absent(), err
	}
	if len(matches) == 0 {
		return tree.Absent(), nil
	}
	return matches[0], nil
}

// Filter returns every element matching q as a list, in collection order.
func (s *Store) Filter(q Query) (tree.Value, error) {
	matches, err := s.query("filter", q, false)
	if err != nil {
		return tree.Absent(), err
	}
	return tree.ListOf(matches...), nil
}

// FindExpr is Find without arguments or metadata.
func (s *Store) FindExpr(path tree.Path, expr string) (tree.Value, error) {
	return s.Find(Query{Path: path, Expr: expr})
}

// FilterExpr is Filter without arguments or metadata.
func (s *Store) FilterExpr(path tree.Path, expr string) (tree.Value, error) {
	return s.Filter(Query{Path: path, Expr: expr})
}

func (s *Store) query(op string, q Query, first bool) ([]tree.Value, error) {
	if strings.TrimSpace(q.Expr) == "" {
		return nil, wrapOpError(op, q.Path, fmt.Errorf("%w: expression must not be empty", ErrInvalidArgument))
	}
	evaluator, err := s.resolveEvaluator()
	if err != nil {
		return nil, wrapOpError(op, q.Path, err)
	}
	elements, err := s.collection(q.Path)
	if err != nil {
		return nil, wrapOpError(op, q.Path, err)
	}

	engine := evaluatorEngineName(evaluator)
	rule, err := evaluator.Compile(q.Expr)
	if err != nil {
		return nil, wrapOpError(op, q.Path, wrapEvaluationError(engine, q.Expr, RuleContext{Path: q.Path.String(), Index: -1}, err))
	}

	now := s.cfg.now()
	var matches []tree.Value
	for i, element := range elements {
		ctx := RuleContext{
			Item:     element.Export(),
			Index:    i,
			Path:     q.Path.String(),
			Now:      &now,
			Args:     q.Args,
			Metadata: q.Metadata,
		}.withDefaults()

		start := time.Now()
		result, evalErr := rule.Evaluate(ctx)
		evalErr = wrapEvaluationError(engine, q.Expr, ctx, evalErr)
		matched := false
		if evalErr == nil {
			var ok bool
			if matched, ok = result.(bool); !ok {
				evalErr = wrapEvaluationError(engine, q.Expr, ctx, fmt.Errorf("%w: got %T", ErrNotBool, result))
			}
		}
		s.evaluatorLogger().LogEvaluation(EvaluatorLogEvent{
			Engine:   engine,
			Expr:     q.Expr,
			Path:     ctx.Path,
			Index:    i,
			Duration: time.Since(start),
			Err:      evalErr,
		})
		if evalErr != nil {
			return nil, wrapOpError(op, q.Path, evalErr)
		}
		if !matched {
			continue
		}
		matches = append(matches, element)
		if first {
			break
		}
	}
	return matches, nil
}

// resolveEvaluator returns the configured evaluator, building the default
// expr evaluator on first use.
func (s *Store) resolveEvaluator() (Evaluator, error) {
	s.evalOnce.Do(func() {
		if s.cfg.evaluator != nil {
			s.evaluator = s.cfg.evaluator
			return
		}
		var exprOpts []ExprEvaluatorOption
		if s.cfg.programCache != nil {
			exprOpts = append(exprOpts, ExprWithProgramCache(s.cfg.programCache))
		}
		if s.cfg.functions != nil {
			exprOpts = append(exprOpts, ExprWithFunctionRegistry(s.cfg.functions))
		}
		s.evaluator = NewExprEvaluator(exprOpts...)
	})
	if s.evaluator == nil {
		return nil, ErrNoEvaluator
	}
	return s.evaluator, nil
}
