// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/goccy/go-json"
	"gopkg.in/yaml.v3"

	"github.com/traylinx/dataserve/internal/constant"
)

// ReadDocument reads and decodes a configuration document into a mapping.
// The file extension selects the decoder: .json is parsed as strict JSON,
// .yml and .yaml as YAML. YAML accepts any JSON payload, the reverse does
// not hold.
func ReadDocument(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	if len(data) > constant.MaxDocumentBytes {
		return nil, fmt.Errorf("%s exceeds the %d byte document limit", path, constant.MaxDocumentBytes)
	}
	return DecodeDocument(path, data)
}

// DecodeDocument decodes document bytes according to the extension of path.
// Decoder failures are reported as *ParseError carrying the path.
func DecodeDocument(path string, data []byte) (map[string]any, error) {
	out := map[string]any{}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		if err := json.Unmarshal(data, &out); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	case ".yml", ".yaml":
		if err := yaml.Unmarshal(data, &out); err != nil {
			return nil, &ParseError{Path: path, Err: err}
		}
	default:
		return nil, fmt.Errorf("unsupported document format %q in %s", filepath.Ext(path), path)
	}
	if out == nil {
		out = map[string]any{}
	}
	return out, nil
}
