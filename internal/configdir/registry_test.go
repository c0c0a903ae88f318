// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRegistryExplicitBeforeDiscovered(t *testing.T) {
	root := t.TempDir()
	explicit := writeFile(t, root, "first.db", "")
	discovered := writeFile(t, root, "second.db", "")

	reg, err := BuildRegistry([]string{explicit}, []string{discovered}, nil)
	require.NoError(t, err)
	require.Equal(t, 2, reg.Len())

	all := reg.All()
	assert.Equal(t, "first", all[0].Name)
	assert.Equal(t, "second", all[1].Name)
	assert.True(t, all[0].Mutable)
}

func TestBuildRegistryDeduplicatesByAbsolutePath(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "demo.db", "")

	reg, err := BuildRegistry([]string{path}, []string{path}, nil)
	require.NoError(t, err)
	assert.Equal(t, 1, reg.Len())
}

func TestBuildRegistryNameCollision(t *testing.T) {
	root := t.TempDir()
	a := writeFile(t, root, "a/demo.db", "")
	b := writeFile(t, root, "b/demo.db", "")

	_, err := BuildRegistry([]string{a, b}, nil, nil)
	require.Error(t, err)

	var dup *DuplicateDatabaseNameError
	require.ErrorAs(t, err, &dup)
	assert.Equal(t, "demo", dup.Name)
	assert.Len(t, dup.Paths, 2)
}

func TestBuildRegistryStripsOnlyFinalSuffix(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "my.data.db", "")

	reg, err := BuildRegistry(nil, []string{path}, nil)
	require.NoError(t, err)

	db, err := reg.Get("my.data")
	require.NoError(t, err)
	assert.Equal(t, path, db.Path)
}

func TestBuildRegistryExplicitMustExist(t *testing.T) {
	_, err := BuildRegistry([]string{filepath.Join(t.TempDir(), "missing.db")}, nil, nil)
	require.Error(t, err)
}

func TestBuildRegistryImmutableFromInspectDoc(t *testing.T) {
	root := t.TempDir()
	covered := writeFile(t, root, "fixtures.db", "")
	uncovered := writeFile(t, root, "live.db", "")

	doc, err := ParseInspectDoc("inspect-data.json", []byte(`{
		"fixtures": {"hash": "abc", "size": 8192, "file": "fixtures.db", "tables": {"t": {"count": 5}}},
		"ghost": {"hash": "dd", "size": 1, "file": "ghost.db"}
	}`))
	require.NoError(t, err)

	reg, err := BuildRegistry(nil, []string{covered, uncovered}, doc)
	require.NoError(t, err)

	fixtures, err := reg.Get("fixtures")
	require.NoError(t, err)
	assert.False(t, fixtures.Mutable)
	assert.Equal(t, "abc", fixtures.Hash)
	assert.Equal(t, int64(8192), fixtures.Size)
	assert.Equal(t, int64(5), fixtures.TableCounts["t"])

	live, err := reg.Get("live")
	require.NoError(t, err)
	assert.True(t, live.Mutable)
	assert.Empty(t, live.Hash)

	assert.Equal(t, []string{"ghost"}, doc.UnmatchedKeys())
}

func TestRegistryLookups(t *testing.T) {
	root := t.TempDir()
	b := writeFile(t, root, "beta.db", "")
	a := writeFile(t, root, "alpha.db", "")

	reg, err := BuildRegistry([]string{b, a}, nil, nil)
	require.NoError(t, err)

	assert.True(t, reg.Has("alpha"))
	assert.False(t, reg.Has("gamma"))

	_, err = reg.Get("gamma")
	assert.ErrorIs(t, err, ErrDatabaseNotFound)

	assert.Equal(t, []string{"alpha", "beta"}, reg.Names())

	all := reg.All()
	assert.Equal(t, "beta", all[0].Name)
}

func TestRegistryReturnsCopies(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "fixtures.db", "")

	doc, err := ParseInspectDoc("inspect-data.json",
		[]byte(`{"fixtures": {"hash": "abc", "size": 1, "file": "fixtures.db", "tables": {"t": {"count": 5}}}}`))
	require.NoError(t, err)

	reg, err := BuildRegistry(nil, []string{path}, doc)
	require.NoError(t, err)

	db, err := reg.Get("fixtures")
	require.NoError(t, err)
	db.TableCounts["t"] = 999

	again, err := reg.Get("fixtures")
	require.NoError(t, err)
	assert.Equal(t, int64(5), again.TableCounts["t"])
}
