// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package static

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGuard(t *testing.T) (*Guard, string) {
	t.Helper()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "css"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "app.js"), []byte("console.log('hi')"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "css", "site.css"), []byte("body{}"), 0o644))
	return NewGuard(root), root
}

func TestResolveFile(t *testing.T) {
	guard, root := newTestGuard(t)

	asset, err := guard.Resolve("app.js")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "app.js"), asset.AbsPath)
	assert.Equal(t, int64(17), asset.Size)
	assert.False(t, asset.ModTime.IsZero())
	assert.Contains(t, asset.ContentType, "javascript")
}

func TestResolveNestedFileContentType(t *testing.T) {
	guard, _ := newTestGuard(t)

	asset, err := guard.Resolve("css/site.css")
	require.NoError(t, err)
	assert.Contains(t, asset.ContentType, "text/css")
}

func TestResolveLeadingSlashAccepted(t *testing.T) {
	guard, _ := newTestGuard(t)

	_, err := guard.Resolve("/app.js")
	assert.NoError(t, err)
}

func TestResolveUnknownExtensionFallsBack(t *testing.T) {
	guard, root := newTestGuard(t)
	require.NoError(t, os.WriteFile(filepath.Join(root, "blob.xyzdata"), []byte("x"), 0o644))

	asset, err := guard.Resolve("blob.xyzdata")
	require.NoError(t, err)
	assert.Equal(t, "application/octet-stream", asset.ContentType)
}

func TestResolveRejectsTraversal(t *testing.T) {
	guard, _ := newTestGuard(t)

	for _, requested := range []string{
		"../secret.txt",
		"css/../../secret.txt",
		"../../../../etc/passwd",
	} {
		_, err := guard.Resolve(requested)
		var escape *PathEscapeError
		require.ErrorAs(t, err, &escape, requested)
		assert.Equal(t, requested, escape.Requested)
	}
}

func TestResolveRefusesDirectories(t *testing.T) {
	guard, _ := newTestGuard(t)

	for _, requested := range []string{"", "/", "css", "css/"} {
		_, err := guard.Resolve(requested)
		assert.ErrorIs(t, err, ErrDirectoryListing, requested)
	}
}

func TestResolveMissingFile(t *testing.T) {
	guard, _ := newTestGuard(t)

	_, err := guard.Resolve("nope.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestResolveRejectsNullBytes(t *testing.T) {
	guard, _ := newTestGuard(t)

	_, err := guard.Resolve("app.js\x00.txt")
	var escape *PathEscapeError
	assert.ErrorAs(t, err, &escape)
}
