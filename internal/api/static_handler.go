// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"

	"github.com/traylinx/dataserve/internal/static"
)

func (s *Server) staticHandler(c *gin.Context) {
	if s.guard == nil {
		notFound(c)
		return
	}

	asset, err := s.guard.Resolve(c.Param("filepath"))
	if err != nil {
		var escape *static.PathEscapeError
		switch {
		case errors.Is(err, static.ErrDirectoryListing):
			c.String(http.StatusForbidden, "403: Directory listing is not allowed")
		case errors.As(err, &escape), errors.Is(err, os.ErrNotExist):
			notFound(c)
		default:
			requestLog(c).WithError(err).Error("Failed to resolve static asset")
			c.String(http.StatusInternalServerError, "500: Internal server error")
		}
		return
	}

	f, err := os.Open(asset.AbsPath)
	if err != nil {
		requestLog(c).WithError(err).Errorf("Failed to open static asset %s", asset.AbsPath)
		notFound(c)
		return
	}
	defer f.Close()

	c.Header("Content-Type", asset.ContentType)
	if ttl := s.cfg.SettingsView().CacheTTL(); ttl > 0 {
		c.Header("Cache-Control", fmt.Sprintf("max-age=%d", ttl))
	}
	http.ServeContent(c.Writer, c.Request, filepath.Base(asset.AbsPath), asset.ModTime, f)
}
