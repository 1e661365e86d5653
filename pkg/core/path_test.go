package core

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLookup_EmptyPathReturnsDocument(t *testing.T) {
	doc := map[string]any{"a": 1}

	v, found, err := Lookup(doc, "")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, doc, v)
}

func TestLookup_NestedMap(t *testing.T) {
	doc := map[string]any{
		"data": map[string]any{
			"ticker": map[string]any{"last": "123.45"},
		},
	}

	v, found, err := Lookup(doc, "data.ticker.last")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "123.45", v)
}

func TestLookup_SequenceIndex(t *testing.T) {
	doc := map[string]any{
		"bids": []any{
			[]any{"100.5", "2"},
			[]any{"100.4", "7"},
		},
	}

	v, found, err := Lookup(doc, "bids.1.0")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "100.4", v)
}

func TestLookup_MissingSegmentIsNotFatal(t *testing.T) {
	doc := map[string]any{"data": map[string]any{}}

	v, found, err := Lookup(doc, "data.ticker.last")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestLookup_IndexOutOfRangeIsNotFatal(t *testing.T) {
	doc := []any{"only"}

	v, found, err := Lookup(doc, "3")

	require.NoError(t, err)
	assert.False(t, found)
	assert.Nil(t, v)
}

func TestLookup_ScalarTraversalIsPathError(t *testing.T) {
	doc := map[string]any{"data": "scalar"}

	_, _, err := Lookup(doc, "data.ticker")

	require.Error(t, err)
	assert.True(t, IsPathError(err))
}

func TestLookup_NonNumericIndexIsPathError(t *testing.T) {
	doc := map[string]any{"rows": []any{1, 2, 3}}

	_, _, err := Lookup(doc, "rows.first")

	require.Error(t, err)
	assert.True(t, IsPathError(err))
}

func TestLookup_RowAndParamsTypes(t *testing.T) {
	row := Row{"nested": Params{"x": 7}}

	v, found, err := Lookup(row, "nested.x")

	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 7, v)
}

func TestLookupDefault(t *testing.T) {
	doc := map[string]any{"a": map[string]any{"b": 1}}

	assert.Equal(t, 1, LookupDefault(doc, "a.b", -1))
	assert.Equal(t, -1, LookupDefault(doc, "a.c", -1))
	assert.Equal(t, -1, LookupDefault("scalar", "a.b", -1))
}
