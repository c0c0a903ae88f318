// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/traylinx/dataserve/internal/constant"
	"github.com/traylinx/dataserve/internal/util"
)

// configDocExtensions lists the accepted extensions for a logical
// configuration slot, in preference order.
var configDocExtensions = []string{".json", ".yml", ".yaml"}

// Inventory records what a single scan of a configuration directory found.
// All paths are absolute. String fields are empty when the corresponding
// convention entry is absent.
type Inventory struct {
	// Root is the absolute path of the scanned directory.
	Root string

	// PluginsDir, TemplatesDir and StaticDir point at the conventional
	// subdirectories when present.
	PluginsDir   string
	TemplatesDir string
	StaticDir    string

	// PluginPaths lists the plugin candidate files inside PluginsDir,
	// sorted by name.
	PluginPaths []string

	// MetadataPath and SettingsPath point at the winning document for
	// each logical slot.
	MetadataPath string
	SettingsPath string

	// InspectDataPath points at a recorded inspection document. The
	// scanner records it without parsing.
	InspectDataPath string

	// DatabaseFiles lists the top-level database files, sorted by name.
	DatabaseFiles []string
}

// Scan inspects the immediate children of root and classifies them by the
// directory conventions. Name matching is exact and case sensitive. The
// scan never recurses below the conventional subdirectories and fails on
// a retired configuration filename or an ambiguous logical slot.
func Scan(root string) (*Inventory, error) {
	absRoot, err := util.ExpandPath(root)
	if err != nil {
		return nil, fmt.Errorf("invalid config directory: %w", err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to stat config directory %s: %w", absRoot, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%s: %w", absRoot, ErrNotDirectory)
	}

	entries, err := os.ReadDir(absRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to read config directory %s: %w", absRoot, err)
	}
	present := make(map[string]bool, len(entries))
	for _, entry := range entries {
		present[entry.Name()] = true
	}

	// A retired filename aborts the scan even when the current one exists.
	if present[constant.DeprecatedConfigFileName] {
		return nil, &DeprecatedNameError{Path: filepath.Join(absRoot, constant.DeprecatedConfigFileName)}
	}

	inv := &Inventory{Root: absRoot}

	settingsPath, err := winnerForSlot(absRoot, "settings", present)
	if err != nil {
		return nil, err
	}
	inv.SettingsPath = settingsPath

	metadataPath, err := winnerForSlot(absRoot, "metadata", present)
	if err != nil {
		return nil, err
	}
	inv.MetadataPath = metadataPath

	if present[constant.InspectDataFileName] {
		inv.InspectDataPath = filepath.Join(absRoot, constant.InspectDataFileName)
	}

	inv.PluginsDir = subdirIfPresent(absRoot, constant.PluginsDirName)
	inv.TemplatesDir = subdirIfPresent(absRoot, constant.TemplatesDirName)
	inv.StaticDir = subdirIfPresent(absRoot, constant.StaticDirName)

	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, constant.DatabaseFileSuffix) {
			continue
		}
		full := filepath.Join(absRoot, name)
		if fi, statErr := os.Stat(full); statErr == nil && fi.Mode().IsRegular() {
			inv.DatabaseFiles = append(inv.DatabaseFiles, full)
		}
	}
	sort.Strings(inv.DatabaseFiles)

	if inv.PluginsDir != "" {
		inv.PluginPaths, err = scanPlugins(inv.PluginsDir)
		if err != nil {
			return nil, err
		}
	}

	return inv, nil
}

// winnerForSlot returns the single present candidate for a logical slot,
// or "" when none exists. More than one candidate is an error.
func winnerForSlot(root, logical string, present map[string]bool) (string, error) {
	var found []string
	for _, ext := range configDocExtensions {
		if name := logical + ext; present[name] {
			found = append(found, name)
		}
	}
	switch len(found) {
	case 0:
		return "", nil
	case 1:
		return filepath.Join(root, found[0]), nil
	default:
		return "", &AmbiguousConfigError{Logical: logical, Dir: root, Candidates: found}
	}
}

// subdirIfPresent returns the absolute path of a conventional subdirectory,
// or "" when the name is absent or not a directory. Symlinks to directories
// count.
func subdirIfPresent(root, name string) string {
	full := filepath.Join(root, name)
	if info, err := os.Stat(full); err == nil && info.IsDir() {
		return full
	}
	return ""
}

// scanPlugins lists the plugin candidates in dir: regular files with the
// plugin suffix, hidden entries and subdirectories excluded.
func scanPlugins(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read plugins directory %s: %w", dir, err)
	}
	var paths []string
	for _, entry := range entries {
		name := entry.Name()
		if strings.HasPrefix(name, ".") || !strings.HasSuffix(name, constant.PluginFileSuffix) {
			continue
		}
		full := filepath.Join(dir, name)
		if fi, statErr := os.Stat(full); statErr == nil && fi.Mode().IsRegular() {
			paths = append(paths, full)
		}
	}
	sort.Strings(paths)
	return paths, nil
}
