// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/dataserve/internal/util"
)

// Database describes one registered database file.
type Database struct {
	// Name is the registry name, the file name without its suffix.
	Name string
	// Path is the absolute file path.
	Path string
	// Mutable is false when an inspection document covers the file.
	Mutable bool

	// Hash, Size and TableCounts carry the precomputed state for
	// immutable databases. They are zero for mutable ones.
	Hash        string
	Size        int64
	TableCounts map[string]int64
}

func (d Database) clone() Database {
	out := d
	if d.TableCounts != nil {
		out.TableCounts = make(map[string]int64, len(d.TableCounts))
		for k, v := range d.TableCounts {
			out.TableCounts[k] = v
		}
	}
	return out
}

// Registry holds the registered databases in registration order with
// unique names. It is built once during resolution and read-only after.
type Registry struct {
	ordered []Database
	byName  map[string]int
}

// BuildRegistry combines caller-supplied database files with the files a
// directory scan discovered. Caller-supplied files register first and must
// exist; discovered files already deduplicated against them by absolute
// path register after. Two distinct files sharing a name is an error.
// When an inspection document is supplied, files it covers register as
// immutable with the document's precomputed state, and document entries
// covering no file are logged as warnings.
func BuildRegistry(explicit, discovered []string, doc *InspectDoc) (*Registry, error) {
	reg := &Registry{byName: map[string]int{}}
	seen := map[string]bool{}

	add := func(path string, fromCaller bool) error {
		abs, err := util.ExpandPath(path)
		if err != nil {
			return fmt.Errorf("invalid database path %q: %w", path, err)
		}
		if fromCaller {
			info, statErr := os.Stat(abs)
			if statErr != nil {
				return fmt.Errorf("database file %s: %w", abs, statErr)
			}
			if !info.Mode().IsRegular() {
				return fmt.Errorf("database file %s is not a regular file", abs)
			}
		}
		if seen[abs] {
			return nil
		}
		seen[abs] = true

		fileName := filepath.Base(abs)
		name := util.FileStem(fileName)
		if prev, dup := reg.byName[name]; dup {
			return &DuplicateDatabaseNameError{
				Name:  name,
				Paths: []string{reg.ordered[prev].Path, abs},
			}
		}

		db := Database{Name: name, Path: abs, Mutable: true}
		if doc != nil {
			if match, ok := doc.Match(fileName); ok {
				db.Mutable = false
				db.Hash = match.Hash
				db.Size = match.Size
				db.TableCounts = match.TableCounts
			}
		}
		reg.byName[name] = len(reg.ordered)
		reg.ordered = append(reg.ordered, db)
		return nil
	}

	for _, path := range explicit {
		if err := add(path, true); err != nil {
			return nil, err
		}
	}
	for _, path := range discovered {
		if err := add(path, false); err != nil {
			return nil, err
		}
	}

	if doc != nil {
		for _, key := range doc.UnmatchedKeys() {
			log.Warnf("%s entry %q does not match any attached database",
				filepath.Base(doc.Path()), key)
		}
	}
	return reg, nil
}

// Len returns the number of registered databases.
func (r *Registry) Len() int {
	return len(r.ordered)
}

// Get returns the database registered under name.
func (r *Registry) Get(name string) (Database, error) {
	idx, ok := r.byName[name]
	if !ok {
		return Database{}, fmt.Errorf("%q: %w", name, ErrDatabaseNotFound)
	}
	return r.ordered[idx].clone(), nil
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, ok := r.byName[name]
	return ok
}

// All returns the databases in registration order.
func (r *Registry) All() []Database {
	out := make([]Database, len(r.ordered))
	for i, db := range r.ordered {
		out[i] = db.clone()
	}
	return out
}

// Names returns the registered names sorted alphabetically.
func (r *Registry) Names() []string {
	names := make([]string, 0, len(r.byName))
	for name := range r.byName {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
