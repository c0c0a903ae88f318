// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package metadata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMergeReplacesTopLevelKeysWholesale(t *testing.T) {
	base, err := FromMap(map[string]any{
		"title": "base title",
		"databases": map[string]any{
			"demo": map[string]any{"description": "from directory"},
		},
	})
	require.NoError(t, err)

	overlay, err := FromMap(map[string]any{
		"databases": map[string]any{
			"other": map[string]any{"description": "from caller"},
		},
	})
	require.NoError(t, err)

	merged, err := Merge(base, overlay)
	require.NoError(t, err)

	assert.Equal(t, "base title", merged.Title())
	assert.False(t, merged.DatabaseMeta("demo").Exists())
	assert.Equal(t, "from caller", merged.DatabaseMeta("other").Get("description").String())
}

func TestMergeEmptyOverlayKeepsBase(t *testing.T) {
	base, err := FromMap(map[string]any{"title": "kept"})
	require.NoError(t, err)

	merged, err := Merge(base, Empty())
	require.NoError(t, err)
	assert.Equal(t, base.Map(), merged.Map())
}

func TestMergeDoesNotMutateBase(t *testing.T) {
	base, err := FromMap(map[string]any{"title": "original"})
	require.NoError(t, err)
	overlay, err := FromMap(map[string]any{"title": "changed"})
	require.NoError(t, err)

	_, err = Merge(base, overlay)
	require.NoError(t, err)
	assert.Equal(t, "original", base.Title())
}

func TestDottedDatabaseNamesResolveAsSingleKeys(t *testing.T) {
	doc, err := FromMap(map[string]any{
		"databases": map[string]any{
			"my.data": map[string]any{
				"tables": map[string]any{
					"log.entries": map[string]any{"hidden": true},
				},
			},
		},
	})
	require.NoError(t, err)

	assert.True(t, doc.DatabaseMeta("my.data").Exists())
	assert.True(t, doc.TableMeta("my.data", "log.entries").Get("hidden").Bool())
	assert.False(t, doc.DatabaseMeta("my").Exists())
}

func TestFromJSONRejectsNonObjects(t *testing.T) {
	_, err := FromJSON([]byte(`["not", "an", "object"]`))
	require.Error(t, err)

	_, err = FromJSON([]byte(`{"title": "ok"`))
	require.Error(t, err)

	doc, err := FromJSON([]byte(`{"title": "ok"}`))
	require.NoError(t, err)
	assert.Equal(t, "ok", doc.Title())
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, Empty().IsEmpty())

	doc, err := FromMap(map[string]any{"title": "x"})
	require.NoError(t, err)
	assert.False(t, doc.IsEmpty())
}
