package server

import (
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt"
)

const (
	requestIDKey    = "requestId"
	requestIDHeader = "X-Request-Id"
)

// RequestID attaches a request ID to the context and the response header.
// A client supplied X-Request-Id is kept.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// RequestIDFromContext returns the ID stored by RequestID.
func RequestIDFromContext(c *gin.Context) string {
	if c == nil {
		return ""
	}
	return c.GetString(requestIDKey)
}

// Logging emits one structured log entry per request.
func Logging(logger *resetfmt.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := resetfmt.Fields{
			"request_id":  RequestIDFromContext(c),
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": float64(time.Since(start).Microseconds()) / 1000.0,
			"bytes_in":    c.Request.ContentLength,
			"bytes_out":   c.Writer.Size(),
			"client_ip":   c.ClientIP(),
		}
		if op := c.GetString(operationIDKey); op != "" {
			fields["op"] = op
		}
		logger.WithFields(fields).Info("request complete")
	}
}

// Recovery turns a panic into a 500 with the error envelope.
func (s *Server) Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if rec := recover(); rec != nil {
				s.logger.WithFields(resetfmt.Fields{
					"request_id": RequestIDFromContext(c),
					"stack":      string(debug.Stack()),
				}).WithError(resetfmt.RecoverError(rec)).Error("panic")
				s.respondError(c, http.StatusInternalServerError, CodeInternal, "Unexpected server error", nil)
			}
		}()
		c.Next()
	}
}
