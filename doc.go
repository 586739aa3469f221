// Package statestore holds one persistent nested value and exposes
// path-addressed accessors and mutators over it, for use inside an
// event-driven controller.
//
// Every mutation computes a new root with github.com/goliatone/go-statestore/tree
// and swaps it in atomically; earlier roots are never modified, so values
// returned by Get stay valid after later writes.
//
//	bind := statestore.NewModel(map[string]any{"todos": []any{}})
//	model := bind(controller) // registers the "reset" and "seek" handlers
//	if err := model.Mutators.Push(tree.P("todos"), map[string]any{"title": "ship"}); err != nil {
//		return err
//	}
//	todo, err := model.Accessors.FindWhere(tree.P("todos"), map[string]any{"title": "ship"})
//
// Dispatcher is a minimal in-process Controller for callers without their own
// event bus. Decode copies a subtree into a typed Go value using yaml tags.
//
// Committed mutations can be logged (MutationLogger, log/slog) and fanned out
// as activity events (pkg/activity). Collections can be queried with expr,
// CEL or, behind the js_eval build tag, JavaScript expressions.
package statestore
