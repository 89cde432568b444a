// Package server exposes the formatting reset over HTTP.
//
// Routes:
//
//	POST /v1/reset-formatting   Flat OPC fragment in, {changed, ooxml} out
//	POST /v1/documents/reset    DOCX in, DOCX out (?from=B:O&to=B:O)
//	GET  /healthz
package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/benjaminschreck/go-resetfmt/pkg/resetfmt"
)

const shutdownTimeout = 10 * time.Second

// Server serves an engine over HTTP.
type Server struct {
	engine *resetfmt.Engine
	config resetfmt.ServerConfig
	logger *resetfmt.Logger
	router *gin.Engine
}

// New builds the router for engine. Server settings come from the engine
// configuration.
func New(engine *resetfmt.Engine) *Server {
	cfg := engine.Config().Server
	switch {
	case cfg.Debug:
		gin.SetMode(gin.DebugMode)
	case gin.Mode() != gin.TestMode:
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		engine: engine,
		config: cfg,
		logger: engine.Logger().WithField("component", "http"),
		router: gin.New(),
	}

	s.router.Use(
		RequestID(),
		Logging(s.logger),
		s.Recovery(),
	)
	s.router.GET("/healthz", s.health)

	v1 := s.router.Group("/v1")
	v1.POST("/reset-formatting", s.resetFragment)
	v1.POST("/documents/reset", s.resetDocument)

	return s
}

// Handler returns the HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.router
}

// HTTPServer returns an http.Server with the configured address and
// timeouts.
func (s *Server) HTTPServer() *http.Server {
	return &http.Server{
		Addr:              s.config.Addr,
		Handler:           s.router,
		ReadTimeout:       s.config.ReadTimeout,
		ReadHeaderTimeout: s.config.ReadTimeout,
		WriteTimeout:      s.config.WriteTimeout,
	}
}

// ListenAndServe serves until ctx is done, then shuts down gracefully.
func (s *Server) ListenAndServe(ctx context.Context) error {
	srv := s.HTTPServer()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening on %s", srv.Addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
