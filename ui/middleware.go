package ui

import (
	"io/fs"
	"net/http"
	"time"

	"uniscan/app/workflow"
	"uniscan/domain/core"

	"github.com/gin-gonic/gin"
)

const (
	sessionCookie = "uniscan_session"
	sessionKey    = "session_id"
	sessionMaxAge = 7 * 24 * 60 * 60
)

// setupMiddleware configures Gin middleware
func (s *Server) setupMiddleware() {
	s.router.Use(gin.Recovery())
	s.router.Use(s.requestLogger())

	staticFS, err := fs.Sub(embeddedFiles, "static")
	if err != nil {
		s.log.Error("failed to create static filesystem", "error", err)
	} else {
		s.router.StaticFS("/static", http.FS(staticFS))
	}

	s.router.Use(s.ensureSession())
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Writer.Header().Get("Content-Type") == "text/event-stream" {
			return
		}
		s.log.Debug("request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"took", time.Since(start))
	}
}

// ensureSession gives every browser a session id cookie. The id keys the
// browser's workflow; sessions are not authenticated.
func (s *Server) ensureSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw, _ := c.Cookie(sessionCookie)
		id, err := core.ParseSessionID(raw)
		if err != nil {
			id = core.NewSessionID()
			c.SetSameSite(http.SameSiteLaxMode)
			c.SetCookie(sessionCookie, id.String(), sessionMaxAge, "/", "", false, true)
		}
		c.Set(sessionKey, id)
		c.Next()
	}
}

func sessionOf(c *gin.Context) core.SessionID {
	if v, ok := c.Get(sessionKey); ok {
		if id, ok := v.(core.SessionID); ok {
			return id
		}
	}
	return ""
}

func (s *Server) workflowOf(c *gin.Context) *workflow.Workflow {
	return s.c.Workflows.Get(sessionOf(c))
}
