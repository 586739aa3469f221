package statestore

import (
	"fmt"
	"reflect"
	"sort"
	"strings"

	celgo "github.com/google/cel-go/cel"
	functions "github.com/google/cel-go/common/functions"
	"github.com/google/cel-go/common/types"
	"github.com/google/cel-go/common/types/ref"
	"github.com/google/cel-go/common/types/traits"
)

// CELEvaluatorOption configures the CEL evaluator.
type CELEvaluatorOption func(*celEvaluator)

// CELWithProgramCache wires a ProgramCache into the CEL evaluator.
func CELWithProgramCache(cache ProgramCache) CELEvaluatorOption {
	return func(e *celEvaluator) {
		e.cache = cache
	}
}

// CELWithFunctionRegistry wires a FunctionRegistry into the CEL evaluator.
func CELWithFunctionRegistry(registry *FunctionRegistry) CELEvaluatorOption {
	return func(e *celEvaluator) {
		if registry == nil {
			return
		}
		e.registry = registry.Clone()
	}
}

type celProgram struct {
	env     *celgo.Env
	program celgo.Program
}

type celEvaluator struct {
	cache    ProgramCache
	registry *FunctionRegistry
}

// NewCELEvaluator constructs an Evaluator backed by cel-go. CEL declares
// variables up front, so a program is compiled per distinct set of element
// fields.
func NewCELEvaluator(opts ...CELEvaluatorOption) Evaluator {
	e := &celEvaluator{}
	for _, opt := range opts {
		if opt != nil {
			opt(e)
		}
	}
	return e
}

func (e *celEvaluator) Evaluate(ctx RuleContext, expression string) (any, error) {
	return e.evaluate(ctx, expression, e.cache)
}

// evaluate compiles per field set, so compiled rules defer here on each run.
func (e *celEvaluator) evaluate(ctx RuleContext, expression string, cache ProgramCache) (any, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	ctx = ctx.withDefaults()
	fields := ctx.fields()
	program, err := e.loadOrCompile(expression, fields, cache)
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx, err)
	}
	out, _, err := program.program.Eval(e.activation(ctx))
	if err != nil {
		return nil, wrapEvaluationError("cel", expression, ctx, err)
	}
	return out.Value(), nil
}

func (e *celEvaluator) Compile(expression string, opts ...CompileOption) (CompiledRule, error) {
	if expression == "" {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("expression must not be empty"))
	}
	cache := e.cache
	if applyCompileOptions(opts).skipCache {
		cache = nil
	}
	return &celCompiledRule{
		evaluator:  e,
		expression: expression,
		cache:      cache,
	}, nil
}

func (e *celEvaluator) loadOrCompile(expression string, fields map[string]any, cache ProgramCache) (*celProgram, error) {
	names := make([]string, 0, len(fields))
	for key := range fields {
		names = append(names, key)
	}
	sort.Strings(names)
	cacheKey := "cel:" + expression + "|" + strings.Join(names, ",")
	if helpers := e.registry.Names(); len(helpers) > 0 {
		cacheKey += "|fn:" + strings.Join(helpers, ",")
	}

	if cache != nil {
		if cached, ok := cache.Get(cacheKey); ok {
			if program, ok := cached.(*celProgram); ok {
				return program, nil
			}
		}
	}

	env, err := e.buildEnv(names)
	if err != nil {
		return nil, err
	}
	ast, issues := env.Parse(expression)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	checked, issues := env.Check(ast)
	if issues != nil && issues.Err() != nil {
		return nil, issues.Err()
	}
	prg, err := env.Program(checked)
	if err != nil {
		return nil, err
	}

	bundle := &celProgram{
		env:     env,
		program: prg,
	}
	if cache != nil {
		cache.Set(cacheKey, bundle)
	}
	return bundle, nil
}

func (e *celEvaluator) buildEnv(fieldNames []string) (*celgo.Env, error) {
	opts := []celgo.EnvOption{
		celgo.Variable(bindingItem, celgo.DynType),
		celgo.Variable(bindingIndex, celgo.IntType),
		celgo.Variable(bindingNow, celgo.TimestampType),
		celgo.Variable(bindingArgs, celgo.DynType),
		celgo.Variable(bindingMetadata, celgo.DynType),
	}
	if e.registry != nil {
		opts = append(opts, celgo.Function(bindingCall, celgo.Overload(
			"call_dyn",
			[]*celgo.Type{celgo.StringType, celgo.ListType(celgo.DynType)},
			celgo.DynType,
			celgo.FunctionBinding(e.callBinding()),
		)))
		opts = append(opts, e.helperFunctions()...)
	}
	for _, name := range fieldNames {
		opts = append(opts, celgo.Variable(name, celgo.DynType))
	}
	return celgo.NewEnv(opts...)
}

func (e *celEvaluator) activation(ctx RuleContext) map[string]any {
	return ctx.bindings()
}

type celCompiledRule struct {
	evaluator  *celEvaluator
	expression string
	cache      ProgramCache
}

func (r *celCompiledRule) Evaluate(ctx RuleContext) (any, error) {
	if r.evaluator == nil {
		return nil, wrapEvaluatorError("cel", fmt.Errorf("compiled rule missing evaluator"))
	}
	return r.evaluator.evaluate(ctx, r.expression, r.cache)
}

// callBinding backs call(name, [args...]).
func (e *celEvaluator) callBinding() functions.FunctionOp {
	return func(values ...ref.Val) ref.Val {
		if e.registry == nil {
			return types.NewErr("statestore: function registry not configured")
		}
		if len(values) != 2 {
			return types.NewErr("statestore: call requires a function name and an argument list")
		}
		name, ok := values[0].Value().(string)
		if !ok {
			return types.NewErr("statestore: call name must be string")
		}
		var args []any
		if list, ok := values[1].(traits.Lister); ok {
			size, _ := list.Size().Value().(int64)
			for i := int64(0); i < size; i++ {
				args = append(args, celNative(list.Get(types.Int(i))))
			}
		}
		return e.invoke(name, args)
	}
}

// helperFunctions declares fixed-arity registry helpers as CEL functions so
// they can be called directly; variadic helpers stay behind call().
func (e *celEvaluator) helperFunctions() []celgo.EnvOption {
	var opts []celgo.EnvOption
	for _, name := range e.registry.Names() {
		arity := e.registry.arity(name)
		if arity == Variadic || reservedBinding(name) {
			continue
		}
		params := make([]*celgo.Type, arity)
		for i := range params {
			params[i] = celgo.DynType
		}
		helper := name
		opts = append(opts, celgo.Function(helper, celgo.Overload(
			fmt.Sprintf("statestore_%s_%d", helper, arity),
			params,
			celgo.DynType,
			celgo.FunctionBinding(func(values ...ref.Val) ref.Val {
				args := make([]any, len(values))
				for i, value := range values {
					args[i] = celNative(value)
				}
				return e.invoke(helper, args)
			}),
		)))
	}
	return opts
}

func (e *celEvaluator) invoke(name string, args []any) ref.Val {
	result, err := e.registry.Call(name, args...)
	if err != nil {
		return types.NewErr("%s", err.Error())
	}
	if result == nil {
		return types.NullValue
	}
	return types.DefaultTypeAdapter.NativeToValue(result)
}

var (
	nativeListType = reflect.TypeOf([]any{})
	nativeMapType  = reflect.TypeOf(map[string]any{})
)

// celNative turns CEL lists and maps, including literals, into []any and
// map[string]any so helpers see the same shapes on every engine.
func celNative(value ref.Val) any {
	switch value.(type) {
	case traits.Lister:
		if out, err := value.ConvertToNative(nativeListType); err == nil {
			return out
		}
	case traits.Mapper:
		if out, err := value.ConvertToNative(nativeMapType); err == nil {
			return out
		}
	}
	return value.Value()
}
