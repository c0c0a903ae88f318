// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"runtime"

	"github.com/gin-gonic/gin"

	"github.com/traylinx/dataserve/internal/buildinfo"
	"github.com/traylinx/dataserve/internal/constant"
	"github.com/traylinx/dataserve/internal/database"
	"github.com/traylinx/dataserve/internal/plugin"
)

func notFound(c *gin.Context) {
	c.String(http.StatusNotFound, "404: Not found")
}

// queryCtx derives a context bounded by the configured per-query time
// budget.
func (s *Server) queryCtx(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), s.cfg.SettingsView().SQLTimeLimit())
}

func (s *Server) metadataHandler(c *gin.Context) {
	c.Data(http.StatusOK, "application/json; charset=utf-8", s.cfg.Metadata().Raw())
}

func (s *Server) settingsHandler(c *gin.Context) {
	c.JSON(http.StatusOK, s.cfg.Settings())
}

func (s *Server) pluginsHandler(c *gin.Context) {
	candidates := plugin.CandidatesFromPaths(s.cfg.PluginPaths())
	c.JSON(http.StatusOK, gin.H{
		"plugins":    s.plugins.Names(),
		"candidates": candidates,
	})
}

func (s *Server) databasesHandler(c *gin.Context) {
	reg := s.cfg.Databases()
	out := make([]gin.H, 0, reg.Len())
	for _, name := range reg.Names() {
		desc, err := reg.Get(name)
		if err != nil {
			continue
		}
		size := desc.Size
		if desc.Mutable {
			if info, statErr := os.Stat(desc.Path); statErr == nil {
				size = info.Size()
			}
		}
		out = append(out, gin.H{
			"name":       desc.Name,
			"path":       desc.Path,
			"size":       size,
			"is_mutable": desc.Mutable,
			"is_memory":  false,
			"hash":       desc.Hash,
		})
	}
	c.JSON(http.StatusOK, out)
}

func (s *Server) versionsHandler(c *gin.Context) {
	ctx, cancel := s.queryCtx(c)
	defer cancel()

	sqliteVersion, err := s.sqliteVersion(ctx)
	if err != nil {
		requestLog(c).WithError(err).Warn("Failed to read sqlite version")
	}
	c.JSON(http.StatusOK, gin.H{
		"app": gin.H{
			"name":       constant.AppName,
			"version":    buildinfo.Version,
			"commit":     buildinfo.Commit,
			"build_date": buildinfo.BuildDate,
		},
		"go":     runtime.Version(),
		"sqlite": gin.H{"version": sqliteVersion},
	})
}

// sqliteVersion asks an existing pooled connection when one is available
// and falls back to a throwaway in-memory database otherwise.
func (s *Server) sqliteVersion(ctx context.Context) (string, error) {
	if names := s.cfg.Databases().Names(); len(names) > 0 {
		db, err := s.pool.Conn(names[0])
		if err == nil {
			return database.SQLiteVersion(ctx, db)
		}
	}
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		return "", err
	}
	defer db.Close()
	return database.SQLiteVersion(ctx, db)
}
