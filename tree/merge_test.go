package tree

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeDeepRecursesIntoObjects(t *testing.T) {
	base := From(Pairs{
		{Key: "a", Value: Pairs{{Key: "x", Value: 1}, {Key: "y", Value: 2}}},
		{Key: "b", Value: "keep"},
	})
	incoming := From(Pairs{
		{Key: "a", Value: Pairs{{Key: "y", Value: 20}, {Key: "z", Value: 30}}},
		{Key: "c", Value: true},
	})

	merged := MergeDeep(base, incoming)

	assert.Equal(t, map[string]any{
		"a": map[string]any{"x": int64(1), "y": int64(20), "z": int64(30)},
		"b": "keep",
		"c": true,
	}, merged.Export())
	assert.Equal(t, []string{"a", "b", "c"}, mustObject(t, merged).Keys())
	assert.Equal(t, []string{"x", "y", "z"}, mustObject(t, GetIn(merged, P("a"))).Keys())
}

func TestMergeDeepReplacesOnKindConflict(t *testing.T) {
	base := From(map[string]any{
		"list":   []any{1, 2, 3},
		"scalar": "text",
		"object": map[string]any{"k": 1},
	})
	incoming := From(map[string]any{
		"list":   []any{9},
		"scalar": map[string]any{"now": "object"},
		"object": 5,
	})

	merged := MergeDeep(base, incoming)

	assert.Equal(t, []any{int64(9)}, GetIn(merged, P("list")).Export())
	assert.Equal(t, map[string]any{"now": "object"}, GetIn(merged, P("scalar")).Export())
	assert.Equal(t, int64(5), GetIn(merged, P("object")).Export())
}

func TestMergeDeepDisjointKeysYieldUnion(t *testing.T) {
	left := From(map[string]any{"a": 1, "b": map[string]any{"c": 2}})
	right := From(map[string]any{"d": 3, "e": []any{4}})

	merged := MergeDeep(left, right)

	for _, key := range []string{"a", "b", "d", "e"} {
		assert.True(t, HasIn(merged, P(key)), "missing key %s", key)
	}
	assert.True(t, Equal(merged, MergeDeep(right, left)))
}

func TestMergeDeepLeavesInputsUntouched(t *testing.T) {
	base := From(map[string]any{"a": map[string]any{"x": 1}})
	incoming := From(map[string]any{"a": map[string]any{"y": 2}})

	_ = MergeDeep(base, incoming)

	assert.Equal(t, map[string]any{"a": map[string]any{"x": int64(1)}}, base.Export())
	assert.Equal(t, map[string]any{"a": map[string]any{"y": int64(2)}}, incoming.Export())
}

func TestMergeAllLaterWins(t *testing.T) {
	merged := MergeAll(
		From(map[string]any{"a": 1, "b": 1}),
		From(map[string]any{"b": 2}),
		From(map[string]any{"c": 3}),
	)
	assert.Equal(t, map[string]any{"a": int64(1), "b": int64(2), "c": int64(3)}, merged.Export())
	assert.True(t, MergeAll().IsAbsent())
}

func TestMergeInCreatesMissingPath(t *testing.T) {
	root := EmptyObject()

	next, err := MergeIn(root, P("settings", "ui"), From(map[string]any{"theme": "dark"}))
	require.NoError(t, err)
	assert.Equal(t, "dark", GetIn(next, P("settings", "ui", "theme")).Export())

	next, err = MergeIn(next, P("settings", "ui"), From(map[string]any{"density": "compact"}))
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"theme": "dark", "density": "compact"}, GetIn(next, P("settings", "ui")).Export())
}

func TestNestBuildsSingleKeyChain(t *testing.T) {
	nested := Nest(P("x", "y"), From(map[string]any{"z": 5}))

	assert.Equal(t, map[string]any{
		"x": map[string]any{"y": map[string]any{"z": int64(5)}},
	}, nested.Export())
	assert.Equal(t, int64(7), Nest(Path{}, Scalar(7)).Export())
}
