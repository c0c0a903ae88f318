// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package api exposes the resolved configuration over HTTP: JSON
// introspection endpoints, HTML pages for browsing databases and tables,
// and guarded static file serving.
package api

import (
	"fmt"
	"html/template"

	"github.com/gin-gonic/gin"

	"github.com/traylinx/dataserve/internal/configdir"
	"github.com/traylinx/dataserve/internal/database"
	"github.com/traylinx/dataserve/internal/plugin"
	"github.com/traylinx/dataserve/internal/static"
	"github.com/traylinx/dataserve/internal/templates"
)

// Server owns the HTTP surface over one resolved configuration.
type Server struct {
	cfg     *configdir.Config
	pool    *database.Pool
	plugins *plugin.Registry
	tmpl    *template.Template
	guard   *static.Guard
}

// NewServer assembles a server for a resolved configuration. The template
// set is parsed here, once; a nil plugin registry gets an empty one.
func NewServer(cfg *configdir.Config, pool *database.Pool, plugins *plugin.Registry) (*Server, error) {
	if plugins == nil {
		plugins = plugin.NewRegistry()
	}
	tmpl, err := templates.Load(cfg.TemplatesDir())
	if err != nil {
		return nil, fmt.Errorf("failed to load templates: %w", err)
	}
	s := &Server{
		cfg:     cfg,
		pool:    pool,
		plugins: plugins,
		tmpl:    tmpl,
	}
	if dir := cfg.StaticDir(); dir != "" {
		s.guard = static.NewGuard(dir)
	}
	return s, nil
}

// Engine builds the gin engine with all routes attached.
func (s *Server) Engine() *gin.Engine {
	engine := gin.New()
	engine.Use(gin.Recovery(), RequestLogger())
	engine.SetHTMLTemplate(s.tmpl)

	engine.GET("/", s.indexHandler)
	engine.GET("/-/metadata.json", s.metadataHandler)
	engine.GET("/-/settings.json", s.settingsHandler)
	engine.GET("/-/plugins.json", s.pluginsHandler)
	engine.GET("/-/databases.json", s.databasesHandler)
	engine.GET("/-/versions.json", s.versionsHandler)
	engine.GET("/static/*filepath", s.staticHandler)
	engine.GET("/:db", s.databaseHandler)
	engine.GET("/:db/:table", s.tableHandler)
	engine.GET("/:db/:table/:pk", s.rowHandler)

	engine.NoRoute(func(c *gin.Context) {
		notFound(c)
	})
	return engine
}
