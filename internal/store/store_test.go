package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDeepMerge(t *testing.T) {
	tests := []struct {
		name     string
		existing map[string]interface{}
		partial  map[string]interface{}
		expected map[string]interface{}
	}{
		{
			name:     "disjoint keys union",
			existing: map[string]interface{}{"a": 1.0},
			partial:  map[string]interface{}{"b": 2.0},
			expected: map[string]interface{}{"a": 1.0, "b": 2.0},
		},
		{
			name:     "scalar replaced",
			existing: map[string]interface{}{"a": 1.0},
			partial:  map[string]interface{}{"a": 9.0},
			expected: map[string]interface{}{"a": 9.0},
		},
		{
			name: "nested objects merge recursively",
			existing: map[string]interface{}{
				"seasons": map[string]interface{}{
					"2022-23": map[string]interface{}{"pts": 28.9},
				},
			},
			partial: map[string]interface{}{
				"seasons": map[string]interface{}{
					"2023-24": map[string]interface{}{"pts": 25.1},
				},
			},
			expected: map[string]interface{}{
				"seasons": map[string]interface{}{
					"2022-23": map[string]interface{}{"pts": 28.9},
					"2023-24": map[string]interface{}{"pts": 25.1},
				},
			},
		},
		{
			name:     "object replaces scalar",
			existing: map[string]interface{}{"a": 1.0},
			partial:  map[string]interface{}{"a": map[string]interface{}{"b": 2.0}},
			expected: map[string]interface{}{"a": map[string]interface{}{"b": 2.0}},
		},
		{
			name:     "arrays replaced not merged",
			existing: map[string]interface{}{"a": []interface{}{1.0, 2.0}},
			partial:  map[string]interface{}{"a": []interface{}{3.0}},
			expected: map[string]interface{}{"a": []interface{}{3.0}},
		},
		{
			name:     "empty partial preserves existing",
			existing: map[string]interface{}{"a": 1.0},
			partial:  map[string]interface{}{},
			expected: map[string]interface{}{"a": 1.0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, DeepMerge(tt.existing, tt.partial))
		})
	}
}

func TestMemoryStoreMergeSemantics(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "players", "p1", map[string]interface{}{
		"display_name": "LeBron James",
		"provider_ids": map[string]interface{}{"nbastats": "2544"},
	}, true))

	// merge adds a nested key without clobbering siblings
	require.NoError(t, s.Set(ctx, "players", "p1", map[string]interface{}{
		"provider_ids": map[string]interface{}{"sportsdb": "34161111"},
	}, true))

	doc, err := s.Get(ctx, "players", "p1")
	require.NoError(t, err)
	assert.Equal(t, "LeBron James", doc["display_name"])

	ids, ok := doc["provider_ids"].(map[string]interface{})
	require.True(t, ok)
	assert.Equal(t, "2544", ids["nbastats"])
	assert.Equal(t, "34161111", ids["sportsdb"])

	// non-merge set replaces the whole document
	require.NoError(t, s.Set(ctx, "players", "p1", map[string]interface{}{
		"display_name": "Someone Else",
	}, false))
	doc, err = s.Get(ctx, "players", "p1")
	require.NoError(t, err)
	assert.Nil(t, doc["provider_ids"])
}

func TestMemoryStoreQueryByDottedPath(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "players", "p1", map[string]interface{}{
		"provider_ids": map[string]interface{}{"sportsdb": "111"},
	}, true))
	require.NoError(t, s.Set(ctx, "players", "p2", map[string]interface{}{
		"provider_ids": map[string]interface{}{"sportsdb": "222"},
	}, true))
	require.NoError(t, s.Set(ctx, "players", "p3", map[string]interface{}{
		"display_name": "No IDs",
	}, true))

	results, err := s.Query(ctx, "players", "provider_ids.sportsdb", "111")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Contains(t, results, "p1")

	none, err := s.Query(ctx, "players", "provider_ids.sportsdb", "999")
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestMemoryStoreGetMissing(t *testing.T) {
	s := NewMemoryStore()
	doc, err := s.Get(context.Background(), "players", "nope")
	require.NoError(t, err)
	assert.Nil(t, doc)
}

func TestMemoryStoreListAndDelete(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "players", "p1", map[string]interface{}{"a": 1}, true))
	require.NoError(t, s.Set(ctx, "players", "p2", map[string]interface{}{"a": 2}, true))
	require.NoError(t, s.Set(ctx, "other", "x", map[string]interface{}{"a": 3}, true))

	docs, err := s.List(ctx, "players")
	require.NoError(t, err)
	assert.Len(t, docs, 2)

	require.NoError(t, s.Delete(ctx, "players", "p1"))
	docs, err = s.List(ctx, "players")
	require.NoError(t, err)
	assert.Len(t, docs, 1)
	assert.Contains(t, docs, "p2")
}

func TestMemoryStoreReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryStore()

	require.NoError(t, s.Set(ctx, "players", "p1", map[string]interface{}{"a": 1.0}, true))

	doc, err := s.Get(ctx, "players", "p1")
	require.NoError(t, err)
	doc["a"] = 99.0

	fresh, err := s.Get(ctx, "players", "p1")
	require.NoError(t, err)
	assert.Equal(t, 1.0, fresh["a"])
}
