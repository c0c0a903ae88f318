// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package cmd implements the command-line operations of the dataserve
// binary: serving a configuration directory over HTTP and generating
// inspection documents for immutable deployments.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	log "github.com/sirupsen/logrus"
	"github.com/skratchdot/open-golang/open"

	"github.com/traylinx/dataserve/internal/api"
	"github.com/traylinx/dataserve/internal/configdir"
	"github.com/traylinx/dataserve/internal/database"
	"github.com/traylinx/dataserve/internal/plugin"
)

// ServeOptions carries everything the serve command needs: where to listen,
// which directory and database files to expose, and resolution overrides.
type ServeOptions struct {
	Host              string
	Port              int
	Dir               string
	ExplicitDatabases []string
	MetadataPath      string
	SettingOverrides  map[string]any
	OpenBrowser       bool
}

// RunServe resolves the configuration once, builds the HTTP server and
// blocks until a shutdown signal arrives. Resolution failures are fatal;
// nothing is served from a directory that did not resolve cleanly.
func RunServe(opts *ServeOptions) {
	gin.SetMode(gin.ReleaseMode)

	cfg, err := resolveConfig(opts)
	if err != nil {
		log.Errorf("failed to resolve configuration: %v", err)
		os.Exit(1)
	}

	pool := database.NewPool(cfg.Databases())

	registry := plugin.NewRegistry()
	if dir := cfg.PluginsDir(); dir != "" {
		luaPlugins, errLua := plugin.LoadLuaPlugins(dir)
		if errLua != nil {
			log.WithError(errLua).Warn("failed to load plugin scripts")
		}
		for _, p := range luaPlugins {
			registry.Register(p)
		}
	}

	srv, err := api.NewServer(cfg, pool, registry)
	if err != nil {
		log.Errorf("failed to build server: %v", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf("%s:%d", opts.Host, opts.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Errorf("failed to listen on %s: %v", addr, err)
		os.Exit(1)
	}

	httpSrv := &http.Server{
		Handler:           srv.Engine(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	ctxSignal, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	done := make(chan struct{})
	go func() {
		if errServe := httpSrv.Serve(ln); errServe != nil && !errors.Is(errServe, http.ErrServerClosed) {
			log.WithError(errServe).Error("server stopped unexpectedly")
		}
		close(done)
	}()

	url := fmt.Sprintf("http://%s", addr)
	log.Infof("serving %d databases on %s", cfg.Databases().Len(), url)

	if opts.OpenBrowser {
		if errOpen := open.Start(url); errOpen != nil {
			log.WithError(errOpen).Warn("failed to open browser")
		}
	}

	<-ctxSignal.Done()
	log.Info("shutdown signal received")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()
	if errShutdown := httpSrv.Shutdown(shutdownCtx); errShutdown != nil && !errors.Is(errShutdown, http.ErrServerClosed) {
		log.WithError(errShutdown).Warn("failed to shut down server cleanly")
	}

	select {
	case <-done:
	case <-time.After(5 * time.Second):
	}

	if errClose := pool.Close(); errClose != nil {
		log.WithError(errClose).Warn("failed to close database pool")
	}
}

func resolveConfig(opts *ServeOptions) (*configdir.Config, error) {
	var metadataOverrides map[string]any
	if opts.MetadataPath != "" {
		doc, err := configdir.ReadDocument(opts.MetadataPath)
		if err != nil {
			return nil, err
		}
		metadataOverrides = doc
	}

	return configdir.Resolve(opts.Dir, configdir.Options{
		ExplicitDatabases: opts.ExplicitDatabases,
		SettingOverrides:  opts.SettingOverrides,
		MetadataOverrides: metadataOverrides,
	})
}
