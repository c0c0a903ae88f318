// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package database

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/goccy/go-json"
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/dataserve/internal/configdir"
	"github.com/traylinx/dataserve/internal/util"
)

// InspectTable is the precomputed state for one table.
type InspectTable struct {
	Count int64 `json:"count"`
}

// InspectEntry is the precomputed state for one database file.
type InspectEntry struct {
	Hash   string                  `json:"hash"`
	Size   int64                   `json:"size"`
	File   string                  `json:"file"`
	Tables map[string]InspectTable `json:"tables"`
}

// InspectReport is a generated inspection document. Databases listed in
// it can later be served as immutable without reopening them for counts.
type InspectReport struct {
	Immutable map[string]InspectEntry `json:"immutable"`
}

// BuildInspectReport walks every database in the registry and records its
// content hash, file size and per-table row counts. timeLimit bounds each
// counting query when positive.
func BuildInspectReport(ctx context.Context, registry *configdir.Registry, timeLimit time.Duration) (*InspectReport, error) {
	report := &InspectReport{Immutable: map[string]InspectEntry{}}

	for _, desc := range registry.All() {
		entry, err := inspectOne(ctx, desc, timeLimit)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect %s: %w", desc.Path, err)
		}
		report.Immutable[desc.Name] = entry
		log.Debugf("Inspected %s: %d tables, %d bytes", desc.Name, len(entry.Tables), entry.Size)
	}
	return report, nil
}

func inspectOne(ctx context.Context, desc configdir.Database, timeLimit time.Duration) (InspectEntry, error) {
	info, err := os.Stat(desc.Path)
	if err != nil {
		return InspectEntry{}, err
	}
	hash, err := FileHash(desc.Path)
	if err != nil {
		return InspectEntry{}, err
	}

	db, err := sql.Open("sqlite3", fmt.Sprintf("file:%s?mode=ro", desc.Path))
	if err != nil {
		return InspectEntry{}, err
	}
	defer db.Close()
	db.SetMaxOpenConns(1)

	names, err := TableNames(ctx, db)
	if err != nil {
		return InspectEntry{}, err
	}

	tables := make(map[string]InspectTable, len(names))
	for _, name := range names {
		count, err := countWithLimit(ctx, db, name, timeLimit)
		if err != nil {
			return InspectEntry{}, err
		}
		tables[name] = InspectTable{Count: count}
	}

	return InspectEntry{
		Hash:   hash,
		Size:   info.Size(),
		File:   filepath.Base(desc.Path),
		Tables: tables,
	}, nil
}

func countWithLimit(ctx context.Context, db *sql.DB, table string, timeLimit time.Duration) (int64, error) {
	if timeLimit > 0 {
		limited, cancel := context.WithTimeout(ctx, timeLimit)
		defer cancel()
		ctx = limited
	}
	return TableCount(ctx, db, table)
}

// JSON renders the report as indented JSON.
func (r *InspectReport) JSON() ([]byte, error) {
	data, err := json.MarshalIndent(r, "", "    ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode inspect report: %w", err)
	}
	return data, nil
}

// WriteFile writes the report atomically.
func (r *InspectReport) WriteFile(path string) error {
	return util.AtomicWriteJSON(path, r)
}
