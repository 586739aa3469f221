// Package tree implements the persistent nested value held by a state store.
//
// A Value is a tagged union of scalar, object and list nodes. Objects keep
// insertion order and lists keep element order; both are backed by the
// structurally shared collections from github.com/benbjohnson/immutable, so an
// update produces a new root that reuses every untouched subtree.
//
// The zero Value is the absent sentinel returned by lookups that do not
// resolve. It is never stored inside an object or list.
//
// Path-addressed helpers (GetIn, SetIn, DeleteIn, UpdateIn) and MergeDeep are
// free functions over Value so they can be reused outside the store:
//
//	root := tree.From(map[string]any{"todos": []any{}})
//	root, err := tree.SetIn(root, tree.P("todos", 0), tree.From("write docs"))
//	if err != nil {
//		return err
//	}
//	fmt.Println(tree.GetIn(root, tree.P("todos", 0)).Export())
package tree
