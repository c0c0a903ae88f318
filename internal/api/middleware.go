// Copyright 2026 The dataserve Authors. All rights reserved.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

package api

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	log "github.com/sirupsen/logrus"
)

// requestIDKey is the gin context key holding the request id.
const requestIDKey = "request_id"

// RequestLogger assigns every request a short id, exposes it through the
// X-Request-ID header and logs completion with latency and status.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.SplitN(uuid.NewString(), "-", 2)[0]
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set("X-Request-ID", requestID)

		start := time.Now()
		c.Next()

		log.WithFields(log.Fields{
			requestIDKey: requestID,
			"status":     c.Writer.Status(),
			"latency_ms": time.Since(start).Milliseconds(),
		}).Infof("%s %s", c.Request.Method, c.Request.URL.Path)
	}
}

// requestLog returns a logrus entry carrying the request id.
func requestLog(c *gin.Context) *log.Entry {
	if id, ok := c.Get(requestIDKey); ok {
		return log.WithField(requestIDKey, id)
	}
	return log.NewEntry(log.StandardLogger())
}
