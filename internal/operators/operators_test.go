package operators

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ronaldjose/terrastore/internal/store"
)

func value(t *testing.T, raw string) store.Value {
	t.Helper()
	v, err := store.NewValue([]byte(raw))
	require.NoError(t, err)
	return v
}

func TestGJSONCondition(t *testing.T) {
	cond := GJSONCondition{}
	doc := value(t, `{"v":2,"flag":false,"empty":null,"nested":{"x":"y"}}`)

	assert.True(t, cond.IsSatisfied("k", doc, "v"))
	assert.True(t, cond.IsSatisfied("k", doc, "nested.x"))
	assert.False(t, cond.IsSatisfied("k", doc, "missing"))
	assert.False(t, cond.IsSatisfied("k", doc, "flag"))
	assert.False(t, cond.IsSatisfied("k", doc, "empty"))

	// Equality form.
	assert.True(t, cond.IsSatisfied("k", doc, "v==2"))
	assert.False(t, cond.IsSatisfied("k", doc, "v==3"))
	assert.True(t, cond.IsSatisfied("k", doc, `nested.x=="y"`))
	assert.False(t, cond.IsSatisfied("k", doc, `missing==1`))
}

func TestComparators(t *testing.T) {
	asc := Lexicographical{}
	assert.Negative(t, asc.Compare("a", "b"))
	assert.Positive(t, asc.Compare("b", "a"))
	assert.Zero(t, asc.Compare("a", "a"))

	desc := LexicographicalDesc{}
	assert.Positive(t, desc.Compare("a", "b"))
	assert.Negative(t, desc.Compare("b", "a"))
}

func TestMergeFunction(t *testing.T) {
	fn := MergeFunction{}
	merged, err := fn.Apply("k",
		map[string]any{"a": 1, "b": 2},
		map[string]any{"b": 3, "c": 4})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"a": 1, "b": 3, "c": 4}, merged)
}

func TestReplaceFunction(t *testing.T) {
	fn := ReplaceFunction{}
	replaced, err := fn.Apply("k", map[string]any{"old": true}, map[string]any{"new": true})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"new": true}, replaced)

	_, err = fn.Apply("k", map[string]any{"old": true}, nil)
	assert.Error(t, err)
}

func TestNewRegistry(t *testing.T) {
	registry := NewRegistry()

	_, err := registry.Condition(GJSONConditionType)
	require.NoError(t, err)
	_, err = registry.Condition("ghost")
	require.Error(t, err)

	_, err = registry.Function(MergeFunctionName)
	require.NoError(t, err)
	_, err = registry.Function(ReplaceFunctionName)
	require.NoError(t, err)

	// Unknown comparator names fall back to the ascending default.
	cmp := registry.Comparator("ghost")
	assert.Negative(t, cmp.Compare("a", "b"))
	assert.Positive(t, registry.Comparator(LexicographicalDescName).Compare("a", "b"))
}
