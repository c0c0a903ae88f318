// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package database opens and inspects the registered SQLite files. The
// registry decides what exists; this package owns the live connections
// and the queries that run over them.
package database

import (
	"database/sql"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3" // SQLite driver
	log "github.com/sirupsen/logrus"

	"github.com/traylinx/dataserve/internal/configdir"
)

// Pool hands out read-only connections for registered databases, opening
// at most one *sql.DB per database, lazily.
type Pool struct {
	registry *configdir.Registry
	mu       sync.RWMutex
	conns    map[string]*sql.DB
}

// NewPool creates a pool over the registry. No connections are opened
// until the first Conn call.
func NewPool(registry *configdir.Registry) *Pool {
	return &Pool{
		registry: registry,
		conns:    map[string]*sql.DB{},
	}
}

// Conn returns the shared read-only connection for the named database,
// opening it on first use. Unknown names fail with ErrDatabaseNotFound.
func (p *Pool) Conn(name string) (*sql.DB, error) {
	desc, err := p.registry.Get(name)
	if err != nil {
		return nil, err
	}

	p.mu.RLock()
	db, ok := p.conns[name]
	p.mu.RUnlock()
	if ok {
		return db, nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if db, ok = p.conns[name]; ok {
		return db, nil
	}

	db, err = openReadOnly(desc)
	if err != nil {
		return nil, err
	}
	p.conns[name] = db
	return db, nil
}

// Close releases every open connection. It always attempts all of them
// and returns the last failure.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var lastErr error
	for name, db := range p.conns {
		if err := db.Close(); err != nil {
			log.WithError(err).Warnf("Failed to close database %s", name)
			lastErr = err
		}
		delete(p.conns, name)
	}
	return lastErr
}

// openReadOnly opens the descriptor's file with a read-only DSN. Files
// covered by an inspection document additionally promise SQLite they
// will never change, which skips change detection.
func openReadOnly(desc configdir.Database) (*sql.DB, error) {
	dsn := fmt.Sprintf("file:%s?mode=ro", desc.Path)
	if !desc.Mutable {
		dsn += "&immutable=1"
	}
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", desc.Path, err)
	}

	// SQLite works best with single connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return db, nil
}
