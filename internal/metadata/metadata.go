// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package metadata holds the merged metadata document describing the
// instance, its databases and their tables. The document is kept as
// canonical JSON bytes so merge and lookup operate on the wire form
// without repeated decode/encode round trips.
package metadata

import (
	"fmt"
	"strings"

	"github.com/goccy/go-json"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
)

// Doc is an immutable metadata document. The zero value is not usable;
// construct one with Empty, FromMap or FromJSON.
type Doc struct {
	raw []byte
}

// Empty returns a document with no keys.
func Empty() *Doc {
	return &Doc{raw: []byte("{}")}
}

// FromMap builds a document from a decoded mapping. A nil map yields an
// empty document.
func FromMap(m map[string]any) (*Doc, error) {
	if m == nil {
		return Empty(), nil
	}
	raw, err := json.Marshal(m)
	if err != nil {
		return nil, fmt.Errorf("failed to encode metadata: %w", err)
	}
	return &Doc{raw: raw}, nil
}

// FromJSON wraps raw JSON bytes. The payload must be a JSON object.
func FromJSON(raw []byte) (*Doc, error) {
	if !gjson.ValidBytes(raw) {
		return nil, fmt.Errorf("metadata is not valid JSON")
	}
	if !gjson.ParseBytes(raw).IsObject() {
		return nil, fmt.Errorf("metadata must be a JSON object")
	}
	buf := make([]byte, len(raw))
	copy(buf, raw)
	return &Doc{raw: buf}, nil
}

// Raw returns a copy of the document bytes.
func (d *Doc) Raw() []byte {
	buf := make([]byte, len(d.raw))
	copy(buf, d.raw)
	return buf
}

// Map decodes the document into a fresh mapping.
func (d *Doc) Map() map[string]any {
	out := map[string]any{}
	_ = json.Unmarshal(d.raw, &out)
	return out
}

// IsEmpty reports whether the document has no top-level keys.
func (d *Doc) IsEmpty() bool {
	empty := true
	gjson.ParseBytes(d.raw).ForEach(func(_, _ gjson.Result) bool {
		empty = false
		return false
	})
	return empty
}

// Merge overlays overlay on base one top-level key at a time. A key
// present in overlay replaces the base value for that key wholesale;
// nested values are never merged. Neither input is modified.
func Merge(base, overlay *Doc) (*Doc, error) {
	out := base.Raw()
	var mergeErr error
	gjson.ParseBytes(overlay.raw).ForEach(func(key, value gjson.Result) bool {
		out, mergeErr = sjson.SetRawBytes(out, EscapeKey(key.String()), []byte(value.Raw))
		return mergeErr == nil
	})
	if mergeErr != nil {
		return nil, fmt.Errorf("failed to merge metadata: %w", mergeErr)
	}
	return &Doc{raw: out}, nil
}

// Get looks up a value by path segments. Each segment is escaped, so
// database or table names containing dots resolve as single keys.
func (d *Doc) Get(segments ...string) gjson.Result {
	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = EscapeKey(s)
	}
	return gjson.GetBytes(d.raw, strings.Join(escaped, "."))
}

// Title returns the instance title, or the empty string when unset.
func (d *Doc) Title() string {
	return d.Get("title").String()
}

// DatabaseMeta returns the metadata subtree for the named database.
func (d *Doc) DatabaseMeta(db string) gjson.Result {
	return d.Get("databases", db)
}

// TableMeta returns the metadata subtree for a table within a database.
func (d *Doc) TableMeta(db, table string) gjson.Result {
	return d.Get("databases", db, "tables", table)
}

// EscapeKey escapes path metacharacters so a literal map key can be used
// as a single gjson/sjson path segment.
func EscapeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch r {
		case '.', '*', '?', '\\', '|', '#', '@', ':':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
