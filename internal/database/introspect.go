// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package database

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"strings"
)

// TableNames lists the user tables of an open database, sorted by name.
// Internal SQLite bookkeeping tables are excluded.
func TableNames(ctx context.Context, db *sql.DB) ([]string, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan table name: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}
	return names, nil
}

type queryError string

func (q queryError) Error() string { return string(q) }

// ErrNoSuchTable reports a query against a table the database does not
// have. The driver exposes no typed sentinel for this, so detection is
// by message.
const ErrNoSuchTable = queryError("no such table")

// ErrRowNotFound reports a row lookup that matched nothing.
const ErrRowNotFound = queryError("row not found")

// TableCount returns the row count of a table. The identifier is quoted,
// not interpolated, so any valid table name works.
func TableCount(ctx context.Context, db *sql.DB, table string) (int64, error) {
	var count int64
	query := fmt.Sprintf(`SELECT COUNT(*) FROM %s`, QuoteIdentifier(table))
	if err := db.QueryRowContext(ctx, query).Scan(&count); err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return 0, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
		}
		return 0, fmt.Errorf("failed to count rows in %s: %w", table, err)
	}
	return count, nil
}

// TableColumns returns the column names of a table in declaration order.
func TableColumns(ctx context.Context, db *sql.DB, table string) ([]string, error) {
	rows, err := db.QueryContext(ctx, `SELECT name FROM pragma_table_info(?) ORDER BY cid`, table)
	if err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	defer rows.Close()

	var columns []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan column name: %w", err)
		}
		columns = append(columns, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	if len(columns) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
	}
	return columns, nil
}

// TableRows reads up to limit rows from a table starting at offset.
// Values come back as the driver produced them, with []byte normalized
// to string for rendering.
func TableRows(ctx context.Context, db *sql.DB, table string, limit, offset int) ([]string, [][]any, error) {
	query := fmt.Sprintf(`SELECT * FROM %s LIMIT ? OFFSET ?`, QuoteIdentifier(table))
	rows, err := db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
		}
		return nil, nil, fmt.Errorf("failed to read rows of %s: %w", table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}

	var out [][]any
	for rows.Next() {
		values := make([]any, len(columns))
		targets := make([]any, len(columns))
		for i := range values {
			targets[i] = &values[i]
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, nil, fmt.Errorf("failed to scan row of %s: %w", table, err)
		}
		for i, v := range values {
			if b, ok := v.([]byte); ok {
				values[i] = string(b)
			}
		}
		out = append(out, values)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("failed to read rows of %s: %w", table, err)
	}
	return columns, out, nil
}

// RowByID fetches the single row of a table addressed by its rowid.
// For tables with an integer primary key the rowid is that key. A
// missing row fails with ErrRowNotFound, an unknown table with
// ErrNoSuchTable. []byte values are normalized to string.
func RowByID(ctx context.Context, db *sql.DB, table string, id int64) ([]string, []any, error) {
	query := fmt.Sprintf(`SELECT * FROM %s WHERE rowid = ?`, QuoteIdentifier(table))
	rows, err := db.QueryContext(ctx, query, id)
	if err != nil {
		if strings.Contains(err.Error(), "no such table") {
			return nil, nil, fmt.Errorf("%w: %s", ErrNoSuchTable, table)
		}
		return nil, nil, fmt.Errorf("failed to read row %d of %s: %w", id, table, err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read columns of %s: %w", table, err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, nil, fmt.Errorf("failed to read row %d of %s: %w", id, table, err)
		}
		return nil, nil, fmt.Errorf("%w: %s rowid %d", ErrRowNotFound, table, id)
	}

	values := make([]any, len(columns))
	targets := make([]any, len(columns))
	for i := range values {
		targets[i] = &values[i]
	}
	if err := rows.Scan(targets...); err != nil {
		return nil, nil, fmt.Errorf("failed to scan row %d of %s: %w", id, table, err)
	}
	for i, v := range values {
		if b, ok := v.([]byte); ok {
			values[i] = string(b)
		}
	}
	return columns, values, nil
}

// SQLiteVersion reports the library version of an open database.
func SQLiteVersion(ctx context.Context, db *sql.DB) (string, error) {
	var version string
	if err := db.QueryRowContext(ctx, `SELECT sqlite_version()`).Scan(&version); err != nil {
		return "", fmt.Errorf("failed to read sqlite version: %w", err)
	}
	return version, nil
}

// FileHash computes the SHA-256 digest of a file as a hex string.
func FileHash(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("failed to hash %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// QuoteIdentifier wraps an identifier in double quotes, doubling any
// embedded quote characters.
func QuoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
