// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"errors"
	"fmt"
	"strings"
)

// Errors returned while resolving a configuration directory.
var (
	// ErrNotDirectory indicates the configured root is not a directory.
	ErrNotDirectory = errors.New("config root is not a directory")

	// ErrDatabaseNotFound indicates a lookup for an unregistered database name.
	ErrDatabaseNotFound = errors.New("database not found")
)

// ParseError represents a failure to decode a configuration document.
type ParseError struct {
	// Path is the file that failed to decode.
	Path string
	// Err is the underlying decoder error.
	Err error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e *ParseError) Unwrap() error {
	return e.Err
}

// DeprecatedNameError is returned when the directory contains a file using
// a retired configuration filename. It always aborts resolution, even when
// a correctly named file is also present.
type DeprecatedNameError struct {
	// Path is the offending file.
	Path string
}

// Error implements the error interface.
func (e *DeprecatedNameError) Error() string {
	return fmt.Sprintf("%s: config.json should be renamed to settings.json", e.Path)
}

// AmbiguousConfigError is returned when more than one file claims the same
// logical configuration slot, such as settings.json next to settings.yaml.
type AmbiguousConfigError struct {
	// Logical is the slot name, "settings" or "metadata".
	Logical string
	// Dir is the directory holding the conflicting files.
	Dir string
	// Candidates are the conflicting filenames, in preference order.
	Candidates []string
}

// Error implements the error interface.
func (e *AmbiguousConfigError) Error() string {
	return fmt.Sprintf("ambiguous %s configuration in %s: found %s, expected exactly one",
		e.Logical, e.Dir, strings.Join(e.Candidates, ", "))
}

// DuplicateDatabaseNameError is returned when two database files resolve to
// the same registry name.
type DuplicateDatabaseNameError struct {
	// Name is the colliding registry name.
	Name string
	// Paths are the files that produced the collision.
	Paths []string
}

// Error implements the error interface.
func (e *DuplicateDatabaseNameError) Error() string {
	return fmt.Sprintf("multiple database files share the name %q: %s",
		e.Name, strings.Join(e.Paths, ", "))
}
