package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt"
)

// ErrorBody is the error object of every failed response.
type ErrorBody struct {
	Code    string      `json:"code"`
	Message string      `json:"message"`
	Details interface{} `json:"details,omitempty"`
}

// ErrorResponse wraps the error body.
type ErrorResponse struct {
	Error ErrorBody `json:"error"`
}

// Error codes.
const (
	CodeStructural = "structural"
	CodeParse      = "parse"
	CodeRange      = "range"
	CodeValidation = "validation_error"
	CodeTooLarge   = "too_large"
	CodeCanceled   = "canceled"
	CodeInternal   = "internal"
)

func (s *Server) respondError(c *gin.Context, status int, code, message string, details interface{}) {
	s.logger.WithFields(resetfmt.Fields{
		"status":     status,
		"code":       code,
		"path":       c.Request.URL.Path,
		"method":     c.Request.Method,
		"request_id": RequestIDFromContext(c),
	}).Warn("http error: %s", message)

	c.AbortWithStatusJSON(status, ErrorResponse{
		Error: ErrorBody{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// fail maps an engine error onto a status code and the error envelope.
func (s *Server) fail(c *gin.Context, err error) {
	var (
		structural *resetfmt.StructuralError
		rangeErr   *resetfmt.RangeError
	)
	switch {
	case errors.As(err, &structural):
		s.respondError(c, http.StatusUnprocessableEntity, CodeStructural, err.Error(), gin.H{"reason": structural.Reason})
	case errors.As(err, &rangeErr):
		s.respondError(c, http.StatusBadRequest, CodeRange, err.Error(), gin.H{"blocks": rangeErr.Blocks})
	case resetfmt.IsDocumentError(err):
		s.respondError(c, http.StatusBadRequest, CodeParse, err.Error(), nil)
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		s.respondError(c, http.StatusServiceUnavailable, CodeCanceled, err.Error(), nil)
	default:
		s.respondError(c, http.StatusInternalServerError, CodeInternal, err.Error(), nil)
	}
}
