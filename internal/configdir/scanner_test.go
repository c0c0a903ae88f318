// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"errors"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScanClassifiesConventionEntries(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plugins", ".mypy_cache"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "templates"), 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "static"), 0o755))
	writeFile(t, root, "plugins/hooray.py", "# plugin\n")
	writeFile(t, root, "plugins/non_py_file.txt", "not a plugin\n")
	writeFile(t, root, "metadata.json", `{"title": "Demo"}`)
	writeFile(t, root, "settings.json", `{"default_cache_ttl": 60}`)
	writeFile(t, root, "demo.db", "")
	writeFile(t, root, "my.data.db", "")
	writeFile(t, root, ".hidden.db", "")
	writeFile(t, root, "notes.txt", "")
	writeFile(t, root, "sub/inner.db", "")

	inv, err := Scan(root)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "plugins"), inv.PluginsDir)
	assert.Equal(t, filepath.Join(root, "templates"), inv.TemplatesDir)
	assert.Equal(t, filepath.Join(root, "static"), inv.StaticDir)
	assert.Equal(t, filepath.Join(root, "metadata.json"), inv.MetadataPath)
	assert.Equal(t, filepath.Join(root, "settings.json"), inv.SettingsPath)
	assert.Empty(t, inv.InspectDataPath)

	assert.Equal(t, []string{filepath.Join(root, "plugins", "hooray.py")}, inv.PluginPaths)
	assert.Equal(t, []string{
		filepath.Join(root, "demo.db"),
		filepath.Join(root, "my.data.db"),
	}, inv.DatabaseFiles)
}

func TestScanPluginDirectoriesAreNotCandidates(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "plugins", "helpers.py"), 0o755))
	writeFile(t, root, "plugins/real.py", "# plugin\n")

	inv, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(root, "plugins", "real.py")}, inv.PluginPaths)
}

func TestScanDeprecatedConfigNameFailsEvenWithSettings(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "config.json", `{"default_cache_ttl": 60}`)
	writeFile(t, root, "settings.json", `{"default_cache_ttl": 60}`)

	_, err := Scan(root)
	require.Error(t, err)

	var deprecated *DeprecatedNameError
	require.ErrorAs(t, err, &deprecated)
	assert.Equal(t, filepath.Join(root, "config.json"), deprecated.Path)
	assert.Contains(t, err.Error(), "config.json should be renamed to settings.json")
}

func TestScanAmbiguousLogicalSlot(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "metadata.json", `{}`)
	writeFile(t, root, "metadata.yml", "title: x\n")

	_, err := Scan(root)
	require.Error(t, err)

	var ambiguous *AmbiguousConfigError
	require.ErrorAs(t, err, &ambiguous)
	assert.Equal(t, "metadata", ambiguous.Logical)
	assert.Equal(t, []string{"metadata.json", "metadata.yml"}, ambiguous.Candidates)
}

func TestScanRecordsInspectDataWithoutParsing(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "inspect-data.json", "this is not json at all")

	inv, err := Scan(root)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "inspect-data.json"), inv.InspectDataPath)
}

func TestScanMissingRoot(t *testing.T) {
	_, err := Scan(filepath.Join(t.TempDir(), "gone"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestScanRootMustBeDirectory(t *testing.T) {
	root := t.TempDir()
	file := writeFile(t, root, "flat", "")

	_, err := Scan(file)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotDirectory))
}

func TestScanPluginFilterProperties(t *testing.T) {
	type pluginFixture struct {
		Name   string
		IsDir  bool
		Hidden bool
	}

	genFixture := gopter.CombineGens(
		gen.RegexMatch(`[a-z][a-z0-9_]{0,8}`),
		gen.OneConstOf(".py", ".txt", ".pyc", ""),
		gen.Bool(),
		gen.Bool(),
	).Map(func(vals []any) pluginFixture {
		name := vals[0].(string) + vals[1].(string)
		if vals[3].(bool) {
			name = "." + name
		}
		return pluginFixture{Name: name, IsDir: vals[2].(bool), Hidden: vals[3].(bool)}
	})

	parameters := gopter.DefaultTestParameters()
	parameters.MinSuccessfulTests = 60
	properties := gopter.NewProperties(parameters)

	properties.Property("only visible plugin files survive the filter", prop.ForAll(
		func(fixtures []pluginFixture) bool {
			root, err := os.MkdirTemp(t.TempDir(), "scan")
			if err != nil {
				return false
			}
			pluginsDir := filepath.Join(root, "plugins")
			if err := os.MkdirAll(pluginsDir, 0o755); err != nil {
				return false
			}

			want := map[string]bool{}
			for _, f := range fixtures {
				full := filepath.Join(pluginsDir, f.Name)
				if f.IsDir {
					_ = os.MkdirAll(full, 0o755)
				} else {
					_ = os.WriteFile(full, []byte("x"), 0o644)
				}
				if fi, statErr := os.Stat(full); statErr == nil && fi.Mode().IsRegular() &&
					!f.Hidden && strings.HasSuffix(f.Name, ".py") {
					want[full] = true
				}
			}

			first, err := Scan(root)
			if err != nil {
				return false
			}
			second, err := Scan(root)
			if err != nil {
				return false
			}

			if !sort.StringsAreSorted(first.PluginPaths) {
				return false
			}
			if len(first.PluginPaths) != len(second.PluginPaths) {
				return false
			}
			got := map[string]bool{}
			for _, p := range first.PluginPaths {
				got[p] = true
			}
			if len(got) != len(want) {
				return false
			}
			for p := range want {
				if !got[p] {
					return false
				}
			}
			return true
		},
		gen.SliceOf(genFixture),
	))

	properties.TestingRun(t)
}
