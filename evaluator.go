package statestore

import "time"

// RuleContext carries the inputs of one expression evaluation: the collection
// element under test and the query arguments.
type RuleContext struct {
	// Item is the exported element. Object elements also bind their fields
	// as top-level variables.
	Item     any
	Index    int
	Path     string
	Now      *time.Time
	Args     map[string]any
	Metadata map[string]any
}

func (ctx RuleContext) withDefaultNow() RuleContext {
	if ctx.Now != nil {
		return ctx
	}
	now := time.Now()
	ctx.Now = &now
	return ctx
}

func (ctx RuleContext) timestamp() time.Time {
	ctx = ctx.withDefaultNow()
	return *ctx.Now
}

func (ctx RuleContext) withDefaultMaps() RuleContext {
	if ctx.Args == nil {
		ctx.Args = map[string]any{}
	}
	if ctx.Metadata == nil {
		ctx.Metadata = map[string]any{}
	}
	return ctx
}

func (ctx RuleContext) withDefaults() RuleContext {
	return ctx.withDefaultNow().withDefaultMaps()
}

// Names bound by every evaluator. Element fields with these names are
// shadowed.
const (
	bindingItem     = "item"
	bindingIndex    = "index"
	bindingNow      = "now"
	bindingArgs     = "args"
	bindingMetadata = "metadata"
	bindingCall     = "call"
)

func reservedBinding(name string) bool {
	switch name {
	case bindingItem, bindingIndex, bindingNow, bindingArgs, bindingMetadata, bindingCall:
		return true
	}
	return false
}

// fields returns the element's own fields, without reserved names.
func (ctx RuleContext) fields() map[string]any {
	item, ok := ctx.Item.(map[string]any)
	if !ok {
		return nil
	}
	out := make(map[string]any, len(item))
	for key, value := range item {
		if reservedBinding(key) {
			continue
		}
		out[key] = value
	}
	return out
}

// bindings returns every variable visible to an expression.
func (ctx RuleContext) bindings() map[string]any {
	env := ctx.fields()
	if env == nil {
		env = map[string]any{}
	}
	env[bindingItem] = ctx.Item
	env[bindingIndex] = ctx.Index
	env[bindingNow] = ctx.timestamp()
	env[bindingArgs] = ctx.Args
	env[bindingMetadata] = ctx.Metadata
	return env
}

// Evaluator executes expressions against a rule context.
type Evaluator interface {
	Evaluate(ctx RuleContext, expr string) (any, error)
	Compile(expr string, opts ...CompileOption) (CompiledRule, error)
}

// CompiledRule represents a reusable expression program.
type CompiledRule interface {
	Evaluate(ctx RuleContext) (any, error)
}

// CompileOption configures evaluator compile behaviour.
type CompileOption interface {
	applyCompileOption(*compileConfig)
}

type compileConfig struct {
	skipCache bool
}

type compileOptionFunc func(*compileConfig)

func (f compileOptionFunc) applyCompileOption(cfg *compileConfig) { f(cfg) }

// CompileWithoutCache compiles the expression even when the evaluator has a
// ProgramCache, and keeps the result out of it. Use it for one-off
// expressions that would only churn the cache.
func CompileWithoutCache() CompileOption {
	return compileOptionFunc(func(cfg *compileConfig) {
		cfg.skipCache = true
	})
}

func applyCompileOptions(opts []CompileOption) compileConfig {
	var cfg compileConfig
	for _, opt := range opts {
		if opt != nil {
			opt.applyCompileOption(&cfg)
		}
	}
	return cfg
}

// ProgramCache stores compiled expression programs keyed by expression strings.
type ProgramCache interface {
	Get(key string) (any, bool)
	Set(key string, value any)
}

// WithProgramCache registers a program cache used by the default evaluator.
func WithProgramCache(cache ProgramCache) Option {
	return func(cfg *storeConfig) {
		cfg.programCache = cache
	}
}

func evaluatorEngineName(e Evaluator) string {
	switch e.(type) {
	case nil:
		return "unknown"
	case *exprEvaluator:
		return "expr"
	case *celEvaluator:
		return "cel"
	default:
		if isJSEvaluator(e) {
			return "js"
		}
		return "custom"
	}
}
