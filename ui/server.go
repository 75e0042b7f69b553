// Package ui serves the operator's interactive web interface: the analysis
// form, the live processing view, results, history and settings.
package ui

import (
	"context"
	"embed"
	"fmt"
	"html/template"
	"net/http"
	"time"

	"uniscan/internal"
	"uniscan/internal/container"

	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html static/*
var embeddedFiles embed.FS

// Server represents the web server for the UNI-SCAN UI
type Server struct {
	c         *container.Container
	router    *gin.Engine
	templates *template.Template
	log       *internal.Logger
	maxAlts   int
	now       func() time.Time
}

// NewServer creates the server and registers its routes. The container must
// already be initialized.
func NewServer(c *container.Container) (*Server, error) {
	if c == nil || c.Workflows == nil {
		return nil, fmt.Errorf("container not initialized")
	}
	if mode := c.Config.Server.GinMode; mode != "" {
		gin.SetMode(mode)
	}

	s := &Server{
		c:       c,
		router:  gin.New(),
		log:     c.Logger.With("component", "ui"),
		maxAlts: c.Config.Workflow.MaxAlternativeReferences,
		now:     time.Now,
	}
	templates, err := loadTemplates()
	if err != nil {
		return nil, err
	}
	s.templates = templates
	s.setupMiddleware()
	s.setupRoutes()
	return s, nil
}

// setupRoutes configures the application routes
func (s *Server) setupRoutes() {
	s.router.GET("/", s.handleIndex)
	s.router.POST("/analyze", s.handleSubmit)
	s.router.POST("/reset", s.handleReset)

	s.router.GET("/history", s.handleHistory)
	s.router.GET("/analyses/:id", s.handleAnalysis)
	s.router.POST("/analyses/:id/delete", s.handleDelete)
	s.router.POST("/analyses/:id/email", s.handleGenerateEmail)
	s.router.GET("/analyses/:id/export/:format", s.handleExport)

	s.router.GET("/settings", s.handleSettings)
	s.router.POST("/settings/publisher", s.handleSetPublisher)
	s.router.POST("/settings/profile", s.handleSaveProfile)

	api := s.router.Group("/api")
	{
		api.GET("/workflow", s.handleWorkflowStatus)
		api.POST("/workflow", s.handleWorkflowSubmit)
		api.POST("/workflow/reset", s.handleWorkflowReset)
		api.GET("/workflow/events", s.handleWorkflowEvents)
		api.GET("/subjects", s.handleSubjects)
		api.GET("/subjects/:id/manuals", s.handleManuals)
		api.GET("/analyses", s.handleAnalysesList)
		api.POST("/analyses/:id/email", s.handleEmailAPI)
	}

	s.router.NoRoute(s.handleNotFound)
}

// Handler exposes the router, for http.Server and tests
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves on addr until ctx is cancelled, then shuts down gracefully
func (s *Server) Start(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	// event streams stay open until the hub lets them go
	srv.RegisterOnShutdown(s.c.SSEHub.Close)

	errCh := make(chan error, 1)
	go func() {
		s.log.Info("starting UNI-SCAN UI", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		s.log.Info("shutting down UI server")
		return srv.Shutdown(shutdownCtx)
	}
}
