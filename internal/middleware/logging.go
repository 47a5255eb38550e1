// Package middleware provides HTTP middleware functions for request logging and processing.
package middleware

import (
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/cueline/cueline/internal/logger"
)

// RequestLogger returns a Gin middleware for logging HTTP requests.
// Overlay media fetches happen on every cue fire and would drown the log,
// so successful media file GETs are logged at debug instead of info. The
// WebSocket endpoint only passes through here once, at upgrade time.
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()

		ev := logger.Log.Info()
		if status < 400 && isMediaFetch(c.Request.Method, path) {
			ev = logger.Log.Debug()
		}
		ev.
			Str("method", c.Request.Method).
			Str("path", path).
			Int("status", status).
			Dur("duration", duration).
			Str("client_ip", c.ClientIP()).
			Msg("HTTP request")

		if len(c.Errors) > 0 {
			logger.Log.Error().
				Strs("errors", c.Errors.Errors()).
				Str("path", path).
				Msg("Request completed with errors")
		}
	}
}

func isMediaFetch(method, path string) bool {
	return method == "GET" && strings.HasPrefix(path, "/api/v1/media/files/")
}
