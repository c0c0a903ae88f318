// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package static maps requested asset paths onto files below a single
// root directory. Requests may never escape the root and directories are
// never listed; both conditions surface as typed errors the transport
// layer turns into client responses.
package static

import (
	"errors"
	"fmt"
	"mime"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ErrDirectoryListing indicates the request resolved to a directory.
// Directory contents are never enumerated for browsing.
var ErrDirectoryListing = errors.New("directory listing is not allowed")

// PathEscapeError indicates the requested path points outside the asset
// root.
type PathEscapeError struct {
	// Requested is the offending request path.
	Requested string
}

// Error implements the error interface.
func (e *PathEscapeError) Error() string {
	return fmt.Sprintf("path %q escapes the static root", e.Requested)
}

// Asset describes one resolvable static file.
type Asset struct {
	// AbsPath is the absolute file path below the root.
	AbsPath string
	// Size is the file size in bytes.
	Size int64
	// ModTime is the file modification time.
	ModTime time.Time
	// ContentType is inferred from the file extension.
	ContentType string
}

// Guard resolves request paths against one asset root.
type Guard struct {
	root string
}

// NewGuard creates a guard over an absolute root directory.
func NewGuard(root string) *Guard {
	return &Guard{root: filepath.Clean(root)}
}

// Root returns the guarded directory.
func (g *Guard) Root() string {
	return g.root
}

// Resolve maps a requested path to an asset below the root. Traversal
// outside the root fails with *PathEscapeError, directories (the root
// included) fail with ErrDirectoryListing, and missing files report
// os.ErrNotExist through the returned error.
func (g *Guard) Resolve(requested string) (*Asset, error) {
	if strings.ContainsRune(requested, 0) {
		return nil, &PathEscapeError{Requested: requested}
	}

	rel := strings.TrimPrefix(requested, "/")
	full := filepath.Join(g.root, rel)
	if full != g.root && !strings.HasPrefix(full, g.root+string(filepath.Separator)) {
		return nil, &PathEscapeError{Requested: requested}
	}

	info, err := os.Stat(full)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %q: %w", requested, err)
	}
	if info.IsDir() {
		return nil, fmt.Errorf("%q: %w", requested, ErrDirectoryListing)
	}

	contentType := mime.TypeByExtension(filepath.Ext(full))
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &Asset{
		AbsPath:     full,
		Size:        info.Size(),
		ModTime:     info.ModTime(),
		ContentType: contentType,
	}, nil
}
