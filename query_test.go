package statestore

import (
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-statestore/tree"
)

var evaluatorFactories = []struct {
	name string
	new  func(cache ProgramCache, registry *FunctionRegistry) Evaluator
}{
	{
		name: "expr",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []ExprEvaluatorOption{}
			if cache != nil {
				opts = append(opts, ExprWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, ExprWithFunctionRegistry(registry))
			}
			return NewExprEvaluator(opts...)
		},
	},
	{
		name: "cel",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []CELEvaluatorOption{}
			if cache != nil {
				opts = append(opts, CELWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, CELWithFunctionRegistry(registry))
			}
			return NewCELEvaluator(opts...)
		},
	},
	{
		name: "js",
		new: func(cache ProgramCache, registry *FunctionRegistry) Evaluator {
			opts := []JSEvaluatorOption{}
			if cache != nil {
				opts = append(opts, JSWithProgramCache(cache))
			}
			if registry != nil {
				opts = append(opts, JSWithFunctionRegistry(registry))
			}
			return NewJSEvaluator(opts...)
		},
	},
}

func newEvaluatorOrSkip(t *testing.T, name string, evaluator Evaluator) Evaluator {
	t.Helper()
	if evaluator == nil {
		t.Skipf("%s evaluator not available in this build", name)
	}
	return evaluator
}

func TestFindAndFilterAcrossEvaluators(t *testing.T) {
	type queryCase struct {
		name  string
		exprs map[string]string
		args  map[string]any
		want  []int64
	}
	cases := []queryCase{
		{
			name:  "field comparison",
			exprs: map[string]string{"expr": "done == false", "cel": "done == false", "js": "done === false"},
			want:  []int64{2, 3},
		},
		{
			name:  "membership",
			exprs: map[string]string{"expr": `"core" in tags`, "cel": `"core" in tags`, "js": `tags.indexOf("core") >= 0`},
			want:  []int64{1, 2},
		},
		{
			name:  "index binding",
			exprs: map[string]string{"expr": "index == 2", "cel": "index == 2", "js": "index === 2"},
			want:  []int64{3},
		},
		{
			name:  "args binding",
			exprs: map[string]string{"expr": "id == args.id", "cel": "id == args.id", "js": "id === args.id"},
			args:  map[string]any{"id": int64(1)},
			want:  []int64{1},
		},
		{
			name:  "no match",
			exprs: map[string]string{"expr": "id > 10", "cel": "id > 10", "js": "id > 10"},
			want:  nil,
		},
	}

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new(nil, nil))
			store := loadTodos(t, WithEvaluator(evaluator))

			for _, tc := range cases {
				tc := tc
				t.Run(tc.name, func(t *testing.T) {
					q := Query{Path: tree.P("todos"), Expr: tc.exprs[factory.name], Args: tc.args}

					filtered, err := store.Filter(q)
					if err != nil {
						t.Fatalf("filter: %v", err)
					}
					if got := ids(filtered.Values()); !equalIDs(got, tc.want) {
						t.Fatalf("filter ids mismatch, expected %v, got %v", tc.want, got)
					}

					found, err := store.Find(q)
					if err != nil {
						t.Fatalf("find: %v", err)
					}
					if len(tc.want) == 0 {
						if !found.IsAbsent() {
							t.Fatalf("expected no match, got %v", found)
						}
						return
					}
					if got := found.Field("id").Export(); got != tc.want[0] {
						t.Fatalf("find expected id %d, got %#v", tc.want[0], got)
					}
				})
			}
		})
	}
}

func TestDefaultEvaluatorIsExpr(t *testing.T) {
	cache := &fakeProgramCache{}
	store := loadTodos(t, WithProgramCache(cache))

	for i := 0; i < 3; i++ {
		found, err := store.FindExpr(tree.P("todos"), `text startsWith "wire"`)
		if err != nil {
			t.Fatalf("find iteration %d: %v", i, err)
		}
		if got := found.Field("id").Export(); got != int64(2) {
			t.Fatalf("expected id 2, got %#v", got)
		}
	}
	if cache.misses != 1 || cache.hits != 2 {
		t.Fatalf("expected one compile and two cache hits, got misses=%d hits=%d", cache.misses, cache.hits)
	}
	if name := evaluatorEngineName(store.evaluator); name != "expr" {
		t.Fatalf("expected default expr evaluator, got %q", name)
	}
}

func TestEvaluatorProgramCache(t *testing.T) {
	expect := map[string]struct{ hits, misses int }{
		"expr": {hits: 1, misses: 1},
		"cel":  {hits: 5, misses: 1},
		"js":   {hits: 1, misses: 1},
	}
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			cache := &fakeProgramCache{}
			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new(cache, nil))
			store := loadTodos(t, WithEvaluator(evaluator))

			for i := 0; i < 2; i++ {
				if _, err := store.FilterExpr(tree.P("todos"), "id > 0"); err != nil {
					t.Fatalf("unexpected error on iteration %d: %v", i, err)
				}
			}

			want := expect[factory.name]
			if cache.hits != want.hits {
				t.Fatalf("cache hits mismatch, expected %d, got %d", want.hits, cache.hits)
			}
			if cache.misses != want.misses {
				t.Fatalf("cache misses mismatch, expected %d, got %d", want.misses, cache.misses)
			}
		})
	}
}

func TestCompileWithoutCacheBypassesProgramCache(t *testing.T) {
	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			cache := &fakeProgramCache{}
			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new(cache, nil))

			rule, err := evaluator.Compile("id > 0", CompileWithoutCache())
			if err != nil {
				t.Fatalf("compile: %v", err)
			}
			for i := 0; i < 2; i++ {
				got, err := rule.Evaluate(RuleContext{Item: map[string]any{"id": int64(2)}})
				if err != nil {
					t.Fatalf("evaluate %d: %v", i, err)
				}
				if got != true {
					t.Fatalf("expected true, got %#v", got)
				}
			}
			if cache.hits != 0 || cache.misses != 0 || len(cache.store) != 0 {
				t.Fatalf("expected untouched cache, got hits=%d misses=%d entries=%d", cache.hits, cache.misses, len(cache.store))
			}

			if _, err := evaluator.Evaluate(RuleContext{Item: map[string]any{"id": int64(2)}}, "id > 0"); err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if len(cache.store) != 1 {
				t.Fatalf("expected plain evaluation to fill the cache, got %d entries", len(cache.store))
			}
		})
	}
}

func TestCustomFunctionsAcrossEvaluators(t *testing.T) {
	exprs := map[string]string{
		"expr": `sametext(text, "WIRE HOOKS")`,
		"cel":  `call("sametext", [text, "WIRE HOOKS"])`,
		"js":   `sametext(text, "WIRE HOOKS")`,
	}

	for _, factory := range evaluatorFactories {
		factory := factory
		t.Run(factory.name, func(t *testing.T) {
			registry := NewFunctionRegistry()
			if err := registry.Register("sametext", func(args ...any) (any, error) {
				if len(args) != 2 {
					return nil, fmt.Errorf("sametext expects 2 args")
				}
				a, _ := args[0].(string)
				b, _ := args[1].(string)
				return strings.EqualFold(a, b), nil
			}); err != nil {
				t.Fatalf("register sametext: %v", err)
			}

			evaluator := newEvaluatorOrSkip(t, factory.name, factory.new(nil, registry))
			store := loadTodos(t, WithEvaluator(evaluator))

			found, err := store.FindExpr(tree.P("todos"), exprs[factory.name])
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got := found.Field("id").Export(); got != int64(2) {
				t.Fatalf("expected id 2, got %#v", got)
			}
		})
	}
}

func TestWithCustomFunctionReachesDefaultEvaluator(t *testing.T) {
	store := loadTodos(t, WithCustomFunction("tagged", func(args ...any) (any, error) {
		tags, _ := args[0].([]any)
		return len(tags) > 1, nil
	}))

	found, err := store.FindExpr(tree.P("todos"), "tagged(tags)")
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := found.Field("id").Export(); got != int64(2) {
		t.Fatalf("expected id 2, got %#v", got)
	}
}

func TestQueryErrors(t *testing.T) {
	store := loadTodos(t)

	if _, err := store.FindExpr(tree.P("todos"), "  "); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for empty expression, got %v", err)
	}
	if _, err := store.FindExpr(tree.P("title"), "true"); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("expected ErrTypeMismatch for scalar target, got %v", err)
	}
	if _, err := store.FilterExpr(tree.P("archive"), "true"); !errors.Is(err, ErrPathNotFound) {
		t.Fatalf("expected ErrPathNotFound, got %v", err)
	}

	_, err := store.FindExpr(tree.P("todos"), "id")
	if !errors.Is(err, ErrNotBool) {
		t.Fatalf("expected ErrNotBool, got %v", err)
	}
	var evalErr *EvaluationError
	if !errors.As(err, &evalErr) {
		t.Fatalf("expected EvaluationError, got %T", err)
	}
	if evalErr.Engine != "expr" || evalErr.Expr != "id" || evalErr.Path != "todos" || evalErr.Index != 0 {
		t.Fatalf("unexpected evaluation metadata %+v", evalErr)
	}
	if evalErr.CompileFailure() {
		t.Fatalf("expected element failure, not a compile failure")
	}

	_, err = store.FindExpr(tree.P("todos"), "id ==")
	if !errors.As(err, &evalErr) || !evalErr.CompileFailure() || evalErr.Path != "todos" {
		t.Fatalf("expected compile failure at todos, got %#v", err)
	}
	if !strings.Contains(err.Error(), "compile:") {
		t.Fatalf("expected compile marker in %q", err.Error())
	}
}

func TestQueryLogsEachEvaluation(t *testing.T) {
	var events []EvaluatorLogEvent
	store := loadTodos(t, WithEvaluatorLogger(EvaluatorLoggerFunc(func(event EvaluatorLogEvent) {
		events = append(events, event)
	})))

	if _, err := store.FilterExpr(tree.P("todos"), "done"); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(events) != 3 {
		t.Fatalf("expected one log event per element, got %d", len(events))
	}
	for i, event := range events {
		if event.Engine != "expr" || event.Index != i || event.Path != "todos" || event.Err != nil {
			t.Fatalf("unexpected log event %d: %+v", i, event)
		}
	}
}

func TestRuleContextUsesStoreClock(t *testing.T) {
	stamp := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	capture := &capturingEvaluator{}
	store := loadTodos(t, WithEvaluator(capture), WithClock(func() time.Time { return stamp }))

	if _, err := store.FilterExpr(tree.P("todos"), "anything"); err != nil {
		t.Fatalf("filter: %v", err)
	}
	if len(capture.contexts) != 3 {
		t.Fatalf("expected 3 contexts, got %d", len(capture.contexts))
	}
	for i, ctx := range capture.contexts {
		if ctx.Now == nil || !ctx.Now.Equal(stamp) {
			t.Fatalf("context %d: expected clock stamp, got %v", i, ctx.Now)
		}
		if ctx.Args == nil || ctx.Metadata == nil {
			t.Fatalf("context %d: expected default maps", i)
		}
		item, ok := ctx.Item.(map[string]any)
		if !ok || item["id"] != int64(i+1) {
			t.Fatalf("context %d: unexpected item %#v", i, ctx.Item)
		}
	}
}

func TestRuleContextBindingsShadowReservedFields(t *testing.T) {
	ctx := RuleContext{
		Item:  map[string]any{"index": "field", "name": "ada"},
		Index: 4,
	}.withDefaults()

	env := ctx.bindings()
	if env["index"] != 4 {
		t.Fatalf("expected element position to win over field, got %#v", env["index"])
	}
	if env["name"] != "ada" {
		t.Fatalf("expected element fields to be bound, got %#v", env["name"])
	}
	if _, ok := env["item"].(map[string]any); !ok {
		t.Fatalf("expected item binding, got %#v", env["item"])
	}
}

func ids(values []tree.Value) []int64 {
	var out []int64
	for _, value := range values {
		if id, ok := value.Field("id").Export().(int64); ok {
			out = append(out, id)
		}
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

type fakeProgramCache struct {
	store  map[string]any
	hits   int
	misses int
}

func (c *fakeProgramCache) Get(key string) (any, bool) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	value, ok := c.store[key]
	if ok {
		c.hits++
		return value, true
	}
	c.misses++
	return nil, false
}

func (c *fakeProgramCache) Set(key string, value any) {
	if c.store == nil {
		c.store = make(map[string]any)
	}
	c.store[key] = value
}

type capturingEvaluator struct {
	contexts []RuleContext
}

func (c *capturingEvaluator) Evaluate(ctx RuleContext, _ string) (any, error) {
	c.contexts = append(c.contexts, ctx)
	return true, nil
}

func (c *capturingEvaluator) Compile(expr string, _ ...CompileOption) (CompiledRule, error) {
	return capturingRule{evaluator: c, expr: expr}, nil
}

type capturingRule struct {
	evaluator *capturingEvaluator
	expr      string
}

func (r capturingRule) Evaluate(ctx RuleContext) (any, error) {
	return r.evaluator.Evaluate(ctx, r.expr)
}

func TestBuiltinFunctionsFollowStoreSemantics(t *testing.T) {
	store := loadTodos(t, WithBuiltinFunctions())

	cases := []struct {
		expr string
		want int64
	}{
		{expr: `has_value(tags, "events")`, want: 2},
		{expr: `where(item, {"done": false, "text": "document store"})`, want: 3},
		{expr: `pluck(item, "tags.0") == "core" && index > 0`, want: 2},
		{expr: `has_value([1.0, 3.0], id)`, want: 1},
	}
	for _, tc := range cases {
		found, err := store.FindExpr(tree.P("todos"), tc.expr)
		if err != nil {
			t.Fatalf("%s: %v", tc.expr, err)
		}
		if got := found.Field("id").Export(); got != tc.want {
			t.Fatalf("%s: expected id %d, got %#v", tc.expr, tc.want, got)
		}
	}
}

func TestFunctionRegistryArity(t *testing.T) {
	registry := BuiltinFunctions()
	if _, err := registry.Call("HAS_VALUE", []any{1}); !errors.Is(err, ErrInvalidArgument) {
		t.Fatalf("expected arity error, got %v", err)
	}
	if err := registry.RegisterArity("pluck", 1, func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected duplicate registration to fail")
	}
	if err := registry.Register("item", func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected reserved name to fail")
	}
	if err := registry.RegisterArity("bad", -2, func(...any) (any, error) { return nil, nil }); err == nil {
		t.Fatalf("expected invalid arity to fail")
	}
	got, err := registry.Call("pluck", map[string]any{"a": []any{"x", "y"}}, "a.1")
	if err != nil || got != "y" {
		t.Fatalf("expected pluck to resolve list index, got %#v, %v", got, err)
	}
	want := []string{"has_value", "pluck", "where"}
	if names := registry.Names(); strings.Join(names, ",") != strings.Join(want, ",") {
		t.Fatalf("expected %v, got %v", want, names)
	}
}

func TestWithBuiltinFunctionsKeepsCustomHelpers(t *testing.T) {
	store := loadTodos(t,
		WithCustomFunction("pluck", func(...any) (any, error) { return true, nil }),
		WithBuiltinFunctions(),
	)

	found, err := store.FindExpr(tree.P("todos"), `pluck(item, "missing")`)
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if got := found.Field("id").Export(); got != int64(1) {
		t.Fatalf("expected custom pluck to win, got %#v", got)
	}
}

func TestBuiltinFunctionsAsCELFunctions(t *testing.T) {
	evaluator := NewCELEvaluator(CELWithFunctionRegistry(BuiltinFunctions()))
	store := loadTodos(t, WithEvaluator(evaluator))

	cases := []struct {
		expr string
		want int64
	}{
		{expr: `has_value(tags, "events")`, want: 2},
		{expr: `where(item, {"done": false, "text": "document store"})`, want: 3},
		{expr: `has_value([2.0], id)`, want: 2},
		{expr: `call("pluck", [item, "tags.0"]) == "core"`, want: 1},
	}
	for _, tc := range cases {
		found, err := store.FindExpr(tree.P("todos"), tc.expr)
		if err != nil {
			t.Fatalf("%s: %v", tc.expr, err)
		}
		if got := found.Field("id").Export(); got != tc.want {
			t.Fatalf("%s: expected id %d, got %#v", tc.expr, tc.want, got)
		}
	}
}
