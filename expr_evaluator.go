package statestore

import (
	"fmt"
	"strings"

	exprlang "github.com/expr-lang/expr"
	exprvm "github.com/expr-lang/expr/vm"
)

// ExprEvaluatorOption configures NewExprEvaluator.
type ExprEvaluatorOption func(*exprEvaluator)

// ExprWithProgramCache reuses compiled programs. Keys carry the helper set
// the program was compiled against, so one cache can serve evaluators with
// different registries.
func ExprWithProgramCache(cache ProgramCache) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		e.cache = cache
	}
}

// ExprWithFunctionRegistry declares the registry helpers as expr functions
// and binds call(name, args...). The registry is cloned.
func ExprWithFunctionRegistry(registry *FunctionRegistry) ExprEvaluatorOption {
	return func(e *exprEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

// exprEvaluator is the default engine for Find and Filter.
type exprEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
	helpers  []string
}

// NewExprEvaluator constructs an Evaluator backed by expr-lang/expr. Element
// fields an expression names but an element lacks evaluate to nil.
func NewExprEvaluator(opts ...ExprEvaluatorOption) Evaluator {
	e := &exprEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	e.helpers = e.registry.Names()
	return e
}

func (e *exprEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	rule, err := e.Compile(expression)
	if err != nil {
		return nil, err
	}
	return rule.Evaluate(ctx)
}

func (e *exprEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if strings.TrimSpace(expression) == "" {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("expression must not be empty"))
	}
	cache := e.cache
	if applyCompileOptions(opts).skipCache {
		cache = nil
	}
	program, err := e.program(expression, cache)
	if err != nil {
		return nil, err
	}
	return &exprCompiledRule{evaluator: e, program: program, expression: expression}, nil
}

func (e *exprEvaluator) cacheKey(expression string) string {
	if len(e.helpers) == 0 {
		return expression
	}
	return expression + "|fn:" + strings.Join(e.helpers, ",")
}

func (e *exprEvaluator) program(expression string, cache ProgramCache) (*exprvm.Program, error) {
	key := e.cacheKey(expression)
	if cache != nil {
		if cached, ok := cache.Get(key); ok {
			if program, ok := cached.(*exprvm.Program); ok {
				return program, nil
			}
		}
	}

	options := []exprlang.Option{
		exprlang.Env(map[string]any{}),
		exprlang.AllowUndefinedVariables(),
	}
	for _, name := range e.helpers {
		helper := name
		options = append(options, exprlang.Function(helper, func(arguments ...any) (any, error) {
			return e.registry.Call(helper, arguments...)
		}))
	}
	program, err := exprlang.Compile(expression, options...)
	if err != nil {
		return nil, wrapEvaluationError("expr", expression, RuleContext{}, err)
	}
	if cache != nil {
		cache.Set(key, program)
	}
	return program, nil
}

// env binds the element for one run; call is only present with a registry.
func (e *exprEvaluator) env(ctx RuleContext) map[string]any {
	env := ctx.bindings()
	if e.registry != nil {
		env[bindingCall] = func(name string, arguments ...any) (any, error) {
			return e.registry.Call(name, arguments...)
		}
	}
	return env
}

type exprCompiledRule struct {
	evaluator  *exprEvaluator
	program    *exprvm.Program
	expression string
}

func (r *exprCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil || r.program == nil {
		return nil, wrapEvaluatorError("expr", fmt.Errorf("compiled rule missing program"))
	}
	ctx = ctx.withDefaults()
	result, err := exprlang.Run(r.program, r.evaluator.env(ctx))
	if err != nil {
		return nil, wrapEvaluationError("expr", r.expression, ctx, err)
	}
	return result, nil
}
