// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package database

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTableNamesExcludesInternalTables(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM sqlite_master").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("facetable").AddRow("searchable"))

	names, err := TableNames(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, []string{"facetable", "searchable"}, names)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableCountQuotesIdentifier(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM "select"`)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(15))

	count, err := TableCount(context.Background(), db, "select")
	require.NoError(t, err)
	assert.Equal(t, int64(15), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTableCountMissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT COUNT").
		WillReturnError(errors.New("no such table: missing"))

	_, err = TableCount(context.Background(), db, "missing")
	assert.ErrorIs(t, err, ErrNoSuchTable)
}

func TestTableColumns(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM pragma_table_info").
		WithArgs("facetable").
		WillReturnRows(sqlmock.NewRows([]string{"name"}).AddRow("pk").AddRow("planet_int").AddRow("city_id"))

	columns, err := TableColumns(context.Background(), db, "facetable")
	require.NoError(t, err)
	assert.Equal(t, []string{"pk", "planet_int", "city_id"}, columns)
}

func TestTableColumnsUnknownTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT name FROM pragma_table_info").
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"name"}))

	_, err = TableColumns(context.Background(), db, "missing")
	assert.ErrorIs(t, err, ErrNoSuchTable)
}

func TestTableRowsNormalizesBytes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "notes"`)).
		WithArgs(10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "body"}).
			AddRow(1, []byte("hello")).
			AddRow(2, nil))

	columns, rows, err := TableRows(context.Background(), db, "notes", 10, 0)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "body"}, columns)
	require.Len(t, rows, 2)
	assert.Equal(t, "hello", rows[0][1])
	assert.Nil(t, rows[1][1])
}

func TestRowByID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cities" WHERE rowid = ?`)).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}).AddRow(1, []byte("row-0")))

	columns, row, err := RowByID(context.Background(), db, "cities", 1)
	require.NoError(t, err)
	assert.Equal(t, []string{"id", "label"}, columns)
	assert.Equal(t, "row-0", row[1])
}

func TestRowByIDMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "cities" WHERE rowid = ?`)).
		WithArgs(int64(999)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "label"}))

	_, _, err = RowByID(context.Background(), db, "cities", 999)
	assert.ErrorIs(t, err, ErrRowNotFound)
}

func TestRowByIDMissingTable(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT * FROM "ghost" WHERE rowid = ?`)).
		WillReturnError(errors.New("no such table: ghost"))

	_, _, err = RowByID(context.Background(), db, "ghost", 1)
	assert.ErrorIs(t, err, ErrNoSuchTable)
}

func TestSQLiteVersion(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT sqlite_version()`)).
		WillReturnRows(sqlmock.NewRows([]string{"sqlite_version()"}).AddRow("3.46.1"))

	version, err := SQLiteVersion(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, "3.46.1", version)
}

func TestQuoteIdentifier(t *testing.T) {
	assert.Equal(t, `"plain"`, QuoteIdentifier("plain"))
	assert.Equal(t, `"with""quote"`, QuoteIdentifier(`with"quote`))
}

func TestFileHash(t *testing.T) {
	path := filepath.Join(t.TempDir(), "blob")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o644))

	hash, err := FileHash(path)
	require.NoError(t, err)
	assert.Equal(t, "b94d27b9934d3e08a52e52d7da7dabfac484efe37a5380ee9088f7ace2efcde9", hash)

	_, err = FileHash(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}
