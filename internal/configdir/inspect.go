// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package configdir

import (
	"bytes"
	"fmt"
	"os"
	"sort"

	"github.com/goccy/go-json"

	"github.com/traylinx/dataserve/internal/util"
)

// inspectEntry is one precomputed database record inside an inspection
// document.
type inspectEntry struct {
	Hash   string                 `json:"hash"`
	Size   int64                  `json:"size"`
	File   string                 `json:"file"`
	Tables map[string]tableCounts `json:"tables"`
}

type tableCounts struct {
	Count int64 `json:"count"`
}

// recognized reports whether the entry carries at least one meaningful
// field. Entries decoding to the zero value are treated as malformed.
func (e inspectEntry) recognized() bool {
	return e.Hash != "" || e.Size > 0 || e.File != "" || len(e.Tables) > 0
}

// InspectMatch is the precomputed state an inspection document holds for
// one database file.
type InspectMatch struct {
	Hash        string
	Size        int64
	TableCounts map[string]int64
}

// InspectDoc is a parsed inspection document. Entries are keyed the way
// the document keyed them; matching against database files accepts the
// file name, the name without its suffix, or the entry's recorded file.
type InspectDoc struct {
	path    string
	entries map[string]inspectEntry
	matched map[string]bool
}

// ReadInspectFile reads and parses an inspection document from disk.
func ReadInspectFile(path string) (*InspectDoc, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParseInspectDoc(path, data)
}

// ParseInspectDoc parses inspection document bytes. Two layouts are
// accepted: a document whose only top-level key is "immutable" holding a
// map of entries, and a flat document whose top-level keys are the entries
// themselves. A document fitting neither layout is a *ParseError.
func ParseInspectDoc(path string, data []byte) (*InspectDoc, error) {
	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, &ParseError{Path: path, Err: err}
	}

	doc := &InspectDoc{path: path, matched: map[string]bool{}}

	if section, ok := top["immutable"]; ok && len(top) == 1 {
		if entries, sectionOK := decodeEntrySection(section); sectionOK {
			doc.entries = entries
			return doc, nil
		}
	}

	entries := make(map[string]inspectEntry, len(top))
	for key, raw := range top {
		if !isJSONObject(raw) {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("entry %q is not an object", key)}
		}
		var entry inspectEntry
		if err := json.Unmarshal(raw, &entry); err != nil {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("entry %q: %w", key, err)}
		}
		if !entry.recognized() {
			return nil, &ParseError{Path: path, Err: fmt.Errorf("entry %q carries no recognized fields", key)}
		}
		entries[key] = entry
	}
	doc.entries = entries
	return doc, nil
}

// decodeEntrySection attempts to decode the value of an "immutable" key as
// a map of entries. It reports false when any value is not a well-formed
// entry, in which case the caller falls back to the flat layout.
func decodeEntrySection(raw json.RawMessage) (map[string]inspectEntry, bool) {
	var values map[string]json.RawMessage
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, false
	}
	entries := make(map[string]inspectEntry, len(values))
	for key, value := range values {
		if !isJSONObject(value) {
			return nil, false
		}
		var entry inspectEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			return nil, false
		}
		if !entry.recognized() {
			return nil, false
		}
		entries[key] = entry
	}
	return entries, true
}

func isJSONObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimLeft(raw, " \t\r\n")
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// Path returns the file the document was read from.
func (d *InspectDoc) Path() string {
	return d.path
}

// Len returns the number of entries in the document.
func (d *InspectDoc) Len() int {
	return len(d.entries)
}

// Match looks up the entry for a database file name. Keys are tried in
// sorted order so repeated resolutions are deterministic. A successful
// match is remembered for UnmatchedKeys.
func (d *InspectDoc) Match(fileName string) (InspectMatch, bool) {
	stem := util.FileStem(fileName)
	keys := make([]string, 0, len(d.entries))
	for key := range d.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		entry := d.entries[key]
		if key == fileName || key == stem || entry.File == fileName {
			d.matched[key] = true
			counts := make(map[string]int64, len(entry.Tables))
			for table, tc := range entry.Tables {
				counts[table] = tc.Count
			}
			return InspectMatch{Hash: entry.Hash, Size: entry.Size, TableCounts: counts}, true
		}
	}
	return InspectMatch{}, false
}

// UnmatchedKeys returns the entry keys no database file has matched,
// sorted by name.
func (d *InspectDoc) UnmatchedKeys() []string {
	var keys []string
	for key := range d.entries {
		if !d.matched[key] {
			keys = append(keys, key)
		}
	}
	sort.Strings(keys)
	return keys
}
