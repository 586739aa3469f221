//go:build !js_eval

package statestore

// NewJSEvaluator is unavailable without the js_eval build tag and returns
// nil. Passing nil to WithEvaluator leaves the default expr evaluator in place.
func NewJSEvaluator(opts ...JSEvaluatorOption) Evaluator {
	_ = applyJSEvaluatorOptions(opts)
	return nil
}

func isJSEvaluator(Evaluator) bool {
	return false
}
