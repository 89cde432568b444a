package server

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt"
)

const (
	operationIDKey = "operationId"

	// ChangedHeader tells whether a returned document differs from the upload.
	ChangedHeader     = "X-Formatting-Changed"
	OperationIDHeader = "X-Operation-Id"

	docxContentType = "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
)

// FragmentResponse is the result of a fragment reset. OOXML is the package
// to insert; it is the request body unchanged when Changed is false.
type FragmentResponse struct {
	Changed     bool   `json:"changed"`
	OOXML       string `json:"ooxml"`
	OperationID string `json:"operation_id"`
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"ok": true})
}

func (s *Server) resetFragment(c *gin.Context) {
	body, ok := s.readBody(c)
	if !ok {
		return
	}

	out, err := s.engine.ResetFragment(c.Request.Context(), string(body))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(operationIDKey, out.OperationID)

	resp := FragmentResponse{Changed: out.Changed, OOXML: string(body), OperationID: out.OperationID}
	if out.Changed {
		resp.OOXML = string(out.Output)
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) resetDocument(c *gin.Context) {
	span, err := spanFromQuery(c)
	if err != nil {
		s.respondError(c, http.StatusBadRequest, CodeValidation, err.Error(), nil)
		return
	}

	body, ok := s.readBody(c)
	if !ok {
		return
	}

	out, err := s.engine.ResetBytes(c.Request.Context(), body, span)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.Set(operationIDKey, out.OperationID)

	data := body
	if out.Changed {
		data = out.Output
	}
	c.Header(ChangedHeader, strconv.FormatBool(out.Changed))
	c.Header(OperationIDHeader, out.OperationID)
	c.Data(http.StatusOK, docxContentType, data)
}

// readBody reads the request body up to the configured limit. It writes
// the error response itself and reports whether the caller may continue.
func (s *Server) readBody(c *gin.Context) ([]byte, bool) {
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.config.MaxBodyBytes)
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			s.respondError(c, http.StatusRequestEntityTooLarge, CodeTooLarge, "request body too large", gin.H{"limit": tooLarge.Limit})
			return nil, false
		}
		s.respondError(c, http.StatusBadRequest, CodeValidation, "unable to read request body", nil)
		return nil, false
	}
	if len(body) == 0 {
		s.respondError(c, http.StatusBadRequest, CodeValidation, "request body is required", nil)
		return nil, false
	}
	return body, true
}

func spanFromQuery(c *gin.Context) (resetfmt.Span, error) {
	var span resetfmt.Span
	if v, ok := c.GetQuery("from"); ok {
		pos, err := resetfmt.ParsePosition(v)
		if err != nil {
			return span, err
		}
		span.From = &pos
	}
	if v, ok := c.GetQuery("to"); ok {
		pos, err := resetfmt.ParsePosition(v)
		if err != nil {
			return span, err
		}
		span.To = &pos
	}
	return span, nil
}
