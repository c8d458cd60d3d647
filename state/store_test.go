package state

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/researchmesh/core"
)

func testSchema(t *testing.T) *Schema {
	t.Helper()

	s, err := NewSchema(
		ReplaceField("brief", ""),
		ReplaceField("loops", 0),
		AppendField("results", func() any { return []string{} }),
		MessagesField("messages"),
	)
	require.NoError(t, err)

	return s
}

func TestNewSchema_Duplicate(t *testing.T) {
	_, err := NewSchema(ReplaceField("a", 1), ReplaceField("a", 2))
	assert.True(t, errors.Is(err, ErrDuplicateField))
}

func TestStore_Defaults(t *testing.T) {
	st := NewStore(testSchema(t))

	assert.Equal(t, "", Value[string](st, "brief"))
	assert.Equal(t, 0, Value[int](st, "loops"))
	assert.Empty(t, Value[[]string](st, "results"))
	assert.Empty(t, Value[[]core.Message](st, "messages"))
}

func TestStore_ReplaceTakesLatest(t *testing.T) {
	st := NewStore(testSchema(t))

	require.NoError(t, st.Merge(Update{"brief": "x"}))
	require.NoError(t, st.Merge(Update{"brief": "y"}))

	assert.Equal(t, "y", Value[string](st, "brief"))
	assert.Equal(t, 2, st.Version())
}

func TestStore_AppendPreservesOrder(t *testing.T) {
	st := NewStore(testSchema(t))

	require.NoError(t, st.Merge(Update{"results": []string{"a"}}))
	require.NoError(t, st.Merge(Update{"results": []string{"b"}}))
	require.NoError(t, st.MergeField("results", "c"))

	assert.Equal(t, []string{"a", "b", "c"}, Value[[]string](st, "results"))
}

func TestStore_AppendTypeMismatch(t *testing.T) {
	st := NewStore(testSchema(t))

	err := st.Merge(Update{"results": 42, "brief": "ignored"})
	require.Error(t, err)
	// all-or-nothing: brief was not touched
	assert.Equal(t, "", Value[string](st, "brief"))
	assert.Equal(t, 0, st.Version())
}

func TestStore_UnknownField(t *testing.T) {
	st := NewStore(testSchema(t))

	err := st.Merge(Update{"nope": 1})
	assert.True(t, errors.Is(err, ErrUnknownField))
}

func TestStore_MessagesOverride(t *testing.T) {
	st := NewStore(testSchema(t))

	a := core.NewHumanMessage("a")
	b := core.NewAssistantMessage("b")
	x := core.NewSystemMessage("x")

	require.NoError(t, st.Merge(Update{"messages": []core.Message{a}}))
	require.NoError(t, st.Merge(Update{"messages": b}))
	assert.Equal(t, []core.Message{a, b}, Value[[]core.Message](st, "messages"))

	require.NoError(t, st.Merge(Update{"messages": Override{Value: []core.Message{x}}}))
	assert.Equal(t, []core.Message{x}, Value[[]core.Message](st, "messages"))
}

func TestStore_CloneIsolation(t *testing.T) {
	st := NewStore(testSchema(t))
	require.NoError(t, st.Merge(Update{"results": []string{"a"}}))

	clone := st.Clone()
	require.NoError(t, clone.Merge(Update{"results": []string{"b"}, "brief": "clone"}))

	assert.Equal(t, []string{"a"}, Value[[]string](st, "results"))
	assert.Equal(t, "", Value[string](st, "brief"))
	assert.Equal(t, []string{"a", "b"}, Value[[]string](clone, "results"))
}

func TestAppend_DoesNotAlias(t *testing.T) {
	base := make([]string, 1, 8)
	base[0] = "a"

	first, err := Append(base, []string{"b"})
	require.NoError(t, err)
	second, err := Append(base, []string{"c"})
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, first)
	assert.Equal(t, []string{"a", "c"}, second)
}

func TestLookup_WrongType(t *testing.T) {
	st := NewStore(testSchema(t))

	_, ok := Lookup[int](st, "brief")
	assert.False(t, ok)
}

func TestCopyOf(t *testing.T) {
	st := NewStore(testSchema(t))
	require.NoError(t, st.Merge(Update{"results": []string{"a"}, "brief": "b"}))

	cp := CopyOf(st.Schema(), st)
	require.NoError(t, cp.Merge(Update{"results": []string{"c"}}))

	assert.Equal(t, []string{"a"}, Value[[]string](st, "results"))
	assert.Equal(t, []string{"a", "c"}, Value[[]string](cp, "results"))
	assert.Equal(t, "b", Value[string](cp, "brief"))
}
