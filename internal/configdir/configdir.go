// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package configdir resolves a configuration directory into an immutable
// Config. A single resolution scans the directory once, decodes the
// settings and metadata documents it finds, merges caller-supplied
// overrides and registers every database file. Nothing is re-read after
// Resolve returns; serving a changed directory requires a new resolution.
package configdir

import (
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/traylinx/dataserve/internal/metadata"
	"github.com/traylinx/dataserve/internal/settings"
)

// Options carries the caller-supplied inputs that combine with a scanned
// directory during resolution. All fields are optional.
type Options struct {
	// ExplicitDatabases are database files to register ahead of any the
	// directory scan discovers. Each must exist.
	ExplicitDatabases []string

	// SettingOverrides win over directory-provided settings key by key.
	SettingOverrides map[string]any

	// MetadataOverrides replace directory-provided metadata one
	// top-level key at a time.
	MetadataOverrides map[string]any
}

// Config is the result of a resolution. It is immutable; accessors return
// copies where the underlying value is mutable.
type Config struct {
	inv      *Inventory
	settings map[string]any
	view     *settings.View
	meta     *metadata.Doc
	registry *Registry
}

// Resolve builds a Config from an optional configuration directory and
// caller options. An empty root skips the directory scan and resolves
// from the options alone. Resolving the same directory and options twice
// yields the same Config as resolving once, provided the directory has
// not changed in between.
func Resolve(root string, opts Options) (*Config, error) {
	inv := &Inventory{}
	if root != "" {
		scanned, err := Scan(root)
		if err != nil {
			return nil, err
		}
		inv = scanned
	}

	var fileSettings map[string]any
	if inv.SettingsPath != "" {
		decoded, err := ReadDocument(inv.SettingsPath)
		if err != nil {
			return nil, err
		}
		fileSettings = decoded
	}
	merged := settings.Merge(fileSettings, opts.SettingOverrides)
	if err := settings.Validate(merged); err != nil {
		if inv.SettingsPath != "" {
			return nil, fmt.Errorf("%s: %w", inv.SettingsPath, err)
		}
		return nil, err
	}

	baseMeta := metadata.Empty()
	if inv.MetadataPath != "" {
		decoded, err := ReadDocument(inv.MetadataPath)
		if err != nil {
			return nil, err
		}
		if baseMeta, err = metadata.FromMap(decoded); err != nil {
			return nil, &ParseError{Path: inv.MetadataPath, Err: err}
		}
	}
	overlayMeta, err := metadata.FromMap(opts.MetadataOverrides)
	if err != nil {
		return nil, fmt.Errorf("invalid metadata overrides: %w", err)
	}
	mergedMeta, err := metadata.Merge(baseMeta, overlayMeta)
	if err != nil {
		return nil, err
	}

	var doc *InspectDoc
	if inv.InspectDataPath != "" {
		if doc, err = ReadInspectFile(inv.InspectDataPath); err != nil {
			return nil, err
		}
	}

	registry, err := BuildRegistry(opts.ExplicitDatabases, inv.DatabaseFiles, doc)
	if err != nil {
		return nil, err
	}

	if inv.Root != "" {
		log.Debugf("resolved config directory %s: %d databases, %d plugin candidates",
			inv.Root, registry.Len(), len(inv.PluginPaths))
	}

	return &Config{
		inv:      inv,
		settings: merged,
		view:     settings.NewView(merged),
		meta:     mergedMeta,
		registry: registry,
	}, nil
}

// Root returns the absolute configuration directory, or "" when resolution
// ran without one.
func (c *Config) Root() string {
	return c.inv.Root
}

// PluginsDir returns the plugins directory, or "" when the directory has
// none.
func (c *Config) PluginsDir() string {
	return c.inv.PluginsDir
}

// PluginPaths returns the discovered plugin candidate files, sorted.
func (c *Config) PluginPaths() []string {
	out := make([]string, len(c.inv.PluginPaths))
	copy(out, c.inv.PluginPaths)
	return out
}

// TemplatesDir returns the template override directory, or "".
func (c *Config) TemplatesDir() string {
	return c.inv.TemplatesDir
}

// StaticDir returns the static asset directory, or "".
func (c *Config) StaticDir() string {
	return c.inv.StaticDir
}

// SettingsPath returns the settings document the scan selected, or "".
func (c *Config) SettingsPath() string {
	return c.inv.SettingsPath
}

// MetadataPath returns the metadata document the scan selected, or "".
func (c *Config) MetadataPath() string {
	return c.inv.MetadataPath
}

// InspectDataPath returns the recorded inspection document, or "".
func (c *Config) InspectDataPath() string {
	return c.inv.InspectDataPath
}

// Settings returns a copy of the merged settings map.
func (c *Config) Settings() map[string]any {
	out := make(map[string]any, len(c.settings))
	for k, v := range c.settings {
		out[k] = v
	}
	return out
}

// SettingsView returns typed access to the merged settings.
func (c *Config) SettingsView() *settings.View {
	return c.view
}

// Metadata returns the merged metadata document.
func (c *Config) Metadata() *metadata.Doc {
	return c.meta
}

// Databases returns the database registry.
func (c *Config) Databases() *Registry {
	return c.registry
}
