// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"errors"
	"net/http"
	"sort"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/traylinx/dataserve/internal/configdir"
	"github.com/traylinx/dataserve/internal/database"
	"github.com/traylinx/dataserve/internal/plugin"
)

// tableSummary is one table with its row count.
type tableSummary struct {
	Name  string `json:"name"`
	Count int64  `json:"count"`
}

func (s *Server) indexHandler(c *gin.Context) {
	title := s.cfg.Metadata().Title()
	if title == "" {
		title = "dataserve"
	}

	reg := s.cfg.Databases()
	summaries := make([]gin.H, 0, reg.Len())
	for _, desc := range reg.All() {
		names, err := s.tableNamesFor(c, desc)
		if err != nil {
			requestLog(c).WithError(err).Warnf("Failed to list tables of %s", desc.Name)
		}
		summaries = append(summaries, gin.H{
			"Name":       desc.Name,
			"TableCount": len(names),
			"Mutable":    desc.Mutable,
		})
	}

	c.HTML(http.StatusOK, "index.html", gin.H{
		"Title":     title,
		"Databases": summaries,
		"Extra":     s.plugins.ExtraTemplateVars(plugin.RequestInfo{Path: c.Request.URL.Path}),
	})
}

func (s *Server) databaseHandler(c *gin.Context) {
	raw := c.Param("db")
	reg := s.cfg.Databases()

	name, wantJSON := raw, false
	if !reg.Has(raw) && strings.HasSuffix(raw, ".json") {
		name = strings.TrimSuffix(raw, ".json")
		wantJSON = true
	}
	desc, err := reg.Get(name)
	if err != nil {
		notFound(c)
		return
	}

	tables, err := s.tableSummariesFor(c, desc)
	if err != nil {
		requestLog(c).WithError(err).Errorf("Failed to inspect database %s", desc.Name)
		c.String(http.StatusInternalServerError, "500: Internal server error")
		return
	}

	if wantJSON {
		c.JSON(http.StatusOK, gin.H{"database": desc.Name, "tables": tables})
		return
	}
	c.HTML(http.StatusOK, "database.html", gin.H{
		"Database": desc.Name,
		"Tables":   tables,
		"Extra": s.plugins.ExtraTemplateVars(plugin.RequestInfo{
			Path:     c.Request.URL.Path,
			Database: desc.Name,
		}),
	})
}

func (s *Server) tableHandler(c *gin.Context) {
	reg := s.cfg.Databases()
	desc, err := reg.Get(c.Param("db"))
	if err != nil {
		notFound(c)
		return
	}

	names, err := s.tableNamesFor(c, desc)
	if err != nil {
		requestLog(c).WithError(err).Errorf("Failed to list tables of %s", desc.Name)
		c.String(http.StatusInternalServerError, "500: Internal server error")
		return
	}
	known := make(map[string]bool, len(names))
	for _, n := range names {
		known[n] = true
	}

	rawTable := c.Param("table")
	table, wantJSON := rawTable, false
	if !known[rawTable] && strings.HasSuffix(rawTable, ".json") {
		table = strings.TrimSuffix(rawTable, ".json")
		wantJSON = true
	}
	if !known[table] {
		notFound(c)
		return
	}

	limit := s.cfg.SettingsView().DefaultPageSize()
	if maxRows := s.cfg.SettingsView().MaxReturnedRows(); limit > maxRows {
		limit = maxRows
	}

	conn, err := s.pool.Conn(desc.Name)
	if err != nil {
		requestLog(c).WithError(err).Errorf("Failed to open database %s", desc.Name)
		c.String(http.StatusInternalServerError, "500: Internal server error")
		return
	}

	ctx, cancel := s.queryCtx(c)
	defer cancel()
	columns, rows, err := database.TableRows(ctx, conn, table, limit+1, 0)
	if err != nil {
		if errors.Is(err, database.ErrNoSuchTable) {
			notFound(c)
			return
		}
		requestLog(c).WithError(err).Errorf("Failed to read rows of %s.%s", desc.Name, table)
		c.String(http.StatusInternalServerError, "500: Internal server error")
		return
	}

	truncated := len(rows) > limit
	if truncated {
		rows = rows[:limit]
	}

	if wantJSON {
		c.JSON(http.StatusOK, gin.H{
			"database":  desc.Name,
			"table":     table,
			"columns":   columns,
			"rows":      rows,
			"truncated": truncated,
		})
		return
	}
	c.HTML(http.StatusOK, "table.html", gin.H{
		"Database":  desc.Name,
		"Table":     table,
		"Columns":   columns,
		"Rows":      rows,
		"Truncated": truncated,
		"Extra": s.plugins.ExtraTemplateVars(plugin.RequestInfo{
			Path:     c.Request.URL.Path,
			Database: desc.Name,
			Table:    table,
		}),
	})
}

func (s *Server) rowHandler(c *gin.Context) {
	reg := s.cfg.Databases()
	desc, err := reg.Get(c.Param("db"))
	if err != nil {
		notFound(c)
		return
	}
	table := c.Param("table")

	rawPK := c.Param("pk")
	pk, wantJSON := rawPK, false
	if strings.HasSuffix(rawPK, ".json") {
		pk = strings.TrimSuffix(rawPK, ".json")
		wantJSON = true
	}
	id, err := strconv.ParseInt(pk, 10, 64)
	if err != nil {
		notFound(c)
		return
	}

	conn, err := s.pool.Conn(desc.Name)
	if err != nil {
		requestLog(c).WithError(err).Errorf("Failed to open database %s", desc.Name)
		c.String(http.StatusInternalServerError, "500: Internal server error")
		return
	}

	ctx, cancel := s.queryCtx(c)
	defer cancel()
	columns, row, err := database.RowByID(ctx, conn, table, id)
	if err != nil {
		if errors.Is(err, database.ErrNoSuchTable) || errors.Is(err, database.ErrRowNotFound) {
			notFound(c)
			return
		}
		requestLog(c).WithError(err).Errorf("Failed to read row %d of %s.%s", id, desc.Name, table)
		c.String(http.StatusInternalServerError, "500: Internal server error")
		return
	}

	if wantJSON {
		c.JSON(http.StatusOK, gin.H{
			"database": desc.Name,
			"table":    table,
			"row_id":   id,
			"columns":  columns,
			"row":      row,
		})
		return
	}
	c.HTML(http.StatusOK, "row.html", gin.H{
		"Database": desc.Name,
		"Table":    table,
		"RowID":    id,
		"Columns":  columns,
		"Row":      row,
		"Extra": s.plugins.ExtraTemplateVars(plugin.RequestInfo{
			Path:     c.Request.URL.Path,
			Database: desc.Name,
			Table:    table,
		}),
	})
}

// tableNamesFor lists a database's tables, from precomputed counts for
// immutable files and live introspection otherwise.
func (s *Server) tableNamesFor(c *gin.Context, desc configdir.Database) ([]string, error) {
	if !desc.Mutable {
		names := make([]string, 0, len(desc.TableCounts))
		for name := range desc.TableCounts {
			names = append(names, name)
		}
		sort.Strings(names)
		return names, nil
	}

	conn, err := s.pool.Conn(desc.Name)
	if err != nil {
		return nil, err
	}
	ctx, cancel := s.queryCtx(c)
	defer cancel()
	return database.TableNames(ctx, conn)
}

// tableSummariesFor pairs each table with its row count.
func (s *Server) tableSummariesFor(c *gin.Context, desc configdir.Database) ([]tableSummary, error) {
	names, err := s.tableNamesFor(c, desc)
	if err != nil {
		return nil, err
	}

	summaries := make([]tableSummary, 0, len(names))
	if !desc.Mutable {
		for _, name := range names {
			summaries = append(summaries, tableSummary{Name: name, Count: desc.TableCounts[name]})
		}
		return summaries, nil
	}

	conn, err := s.pool.Conn(desc.Name)
	if err != nil {
		return nil, err
	}
	for _, name := range names {
		ctx, cancel := s.queryCtx(c)
		count, err := database.TableCount(ctx, conn, name)
		cancel()
		if err != nil {
			return nil, err
		}
		summaries = append(summaries, tableSummary{Name: name, Count: count})
	}
	return summaries, nil
}
