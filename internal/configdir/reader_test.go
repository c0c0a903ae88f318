// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/traylinx/dataserve/internal/constant"
)

func TestDecodeDocumentJSON(t *testing.T) {
	doc, err := DecodeDocument("settings.json", []byte(`{"default_cache_ttl": 60}`))
	require.NoError(t, err)
	assert.Equal(t, float64(60), doc["default_cache_ttl"])
}

func TestDecodeDocumentJSONRejectsYAMLSyntax(t *testing.T) {
	_, err := DecodeDocument("settings.json", []byte("default_cache_ttl: 60\n"))
	require.Error(t, err)

	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	assert.Equal(t, "settings.json", parseErr.Path)
}

func TestDecodeDocumentYAMLAcceptsJSON(t *testing.T) {
	doc, err := DecodeDocument("settings.yml", []byte(`{"default_cache_ttl": 60}`))
	require.NoError(t, err)
	assert.Equal(t, 60, doc["default_cache_ttl"])
}

func TestDecodeDocumentYAML(t *testing.T) {
	doc, err := DecodeDocument("metadata.yaml", []byte("title: Demo\ndatabases:\n  demo:\n    description: demo db\n"))
	require.NoError(t, err)
	assert.Equal(t, "Demo", doc["title"])

	dbs, ok := doc["databases"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, dbs, "demo")
}

func TestDecodeDocumentEmptyYAMLIsEmptyMapping(t *testing.T) {
	doc, err := DecodeDocument("settings.yaml", nil)
	require.NoError(t, err)
	assert.Empty(t, doc)
}

func TestDecodeDocumentEmptyJSONFails(t *testing.T) {
	_, err := DecodeDocument("settings.json", nil)
	require.Error(t, err)

	var parseErr *ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestDecodeDocumentRejectsNonMappings(t *testing.T) {
	_, err := DecodeDocument("settings.json", []byte(`[1, 2, 3]`))
	require.Error(t, err)

	_, err = DecodeDocument("settings.yml", []byte("- 1\n- 2\n"))
	require.Error(t, err)
}

func TestDecodeDocumentUnsupportedExtension(t *testing.T) {
	_, err := DecodeDocument("settings.toml", []byte("x = 1"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported document format")
}

func TestReadDocumentRoundTrip(t *testing.T) {
	dir := t.TempDir()

	// Written-then-read settings survive both formats. The expected maps
	// carry each decoder's number representation.
	jsonDoc := map[string]any{"default_cache_ttl": float64(60), "base_url": "/data/"}
	data, err := json.Marshal(jsonDoc)
	require.NoError(t, err)
	jsonPath := filepath.Join(dir, "settings.json")
	require.NoError(t, os.WriteFile(jsonPath, data, 0o644))

	got, err := ReadDocument(jsonPath)
	require.NoError(t, err)
	assert.Equal(t, jsonDoc, got)

	yamlDoc := map[string]any{"default_cache_ttl": 60, "base_url": "/data/"}
	data, err = yaml.Marshal(yamlDoc)
	require.NoError(t, err)
	yamlPath := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(yamlPath, data, 0o644))

	got, err = ReadDocument(yamlPath)
	require.NoError(t, err)
	assert.Equal(t, yamlDoc, got)
}

func TestReadDocumentMissingFile(t *testing.T) {
	_, err := ReadDocument(filepath.Join(t.TempDir(), "settings.json"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestReadDocumentSizeLimit(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	oversized := bytes.Repeat([]byte(" "), constant.MaxDocumentBytes+1)
	require.NoError(t, os.WriteFile(path, oversized, 0o644))

	_, err := ReadDocument(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "document limit")
}
