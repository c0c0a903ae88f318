// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package plugin provides the extension-point registry. Plugins register
// themselves against typed extension interfaces and are either compiled in
// or loaded from sandboxed Lua scripts. Discovered .py candidate files from
// a plugins directory are catalogued but never executed.
package plugin

import (
	"os"
	"path/filepath"
	"sync"

	log "github.com/sirupsen/logrus"
)

// RequestInfo describes the request a hook runs for.
type RequestInfo struct {
	// Path is the request path.
	Path string
	// Database is the database name in scope, or "".
	Database string
	// Table is the table name in scope, or "".
	Table string
}

// Plugin is the base interface every registered extension implements.
type Plugin interface {
	// Name identifies the plugin. Registering a second plugin under the
	// same name replaces the first.
	Name() string
}

// TemplateVarProvider contributes extra variables to template rendering.
type TemplateVarProvider interface {
	Plugin
	// ExtraTemplateVars returns additional variables for the request.
	ExtraTemplateVars(info RequestInfo) map[string]any
}

// Registry holds the registered plugins in registration order.
type Registry struct {
	mu      sync.RWMutex
	ordered []Plugin
	byName  map[string]int
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: map[string]int{}}
}

// Register adds a plugin. A plugin already registered under the same name
// is replaced in place, keeping its original position.
func (r *Registry) Register(p Plugin) {
	if p == nil || p.Name() == "" {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if idx, exists := r.byName[p.Name()]; exists {
		log.Warnf("Plugin %s registered twice, replacing previous registration", p.Name())
		r.ordered[idx] = p
		return
	}
	r.byName[p.Name()] = len(r.ordered)
	r.ordered = append(r.ordered, p)
	log.Debugf("Registered plugin %s", p.Name())
}

// Names returns the plugin names in registration order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, len(r.ordered))
	for i, p := range r.ordered {
		names[i] = p.Name()
	}
	return names
}

// Len returns the number of registered plugins.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.ordered)
}

// ExtraTemplateVars collects template variables from every registered
// TemplateVarProvider in registration order. Later providers win on key
// conflicts.
func (r *Registry) ExtraTemplateVars(info RequestInfo) map[string]any {
	r.mu.RLock()
	defer r.mu.RUnlock()

	vars := map[string]any{}
	for _, p := range r.ordered {
		provider, ok := p.(TemplateVarProvider)
		if !ok {
			continue
		}
		for k, v := range provider.ExtraTemplateVars(info) {
			vars[k] = v
		}
	}
	return vars
}

// Candidate is a discovered plugin file. Candidates are inventory only;
// nothing in this process loads or runs them.
type Candidate struct {
	// Name is the file name.
	Name string `json:"name"`
	// Path is the absolute file path.
	Path string `json:"path"`
	// Size is the file size in bytes.
	Size int64 `json:"size"`
}

// CandidatesFromPaths builds candidate records for discovered plugin
// files. Files that vanished since discovery are recorded with size 0.
func CandidatesFromPaths(paths []string) []Candidate {
	candidates := make([]Candidate, 0, len(paths))
	for _, path := range paths {
		c := Candidate{Name: filepath.Base(path), Path: path}
		if info, err := os.Stat(path); err == nil {
			c.Size = info.Size()
		} else {
			log.Debugf("Plugin candidate %s not statable: %v", path, err)
		}
		candidates = append(candidates, c)
	}
	return candidates
}
