package ui

import (
	stderrors "errors"
	"net/http"

	"uniscan/domain/catalog"
	"uniscan/domain/promoter"
	"uniscan/internal/errors"

	"github.com/gin-gonic/gin"
)

type publisherRequest struct {
	Publisher string `form:"publisher" binding:"required"`
}

func (s *Server) settingsPage(c *gin.Context, status int, extra gin.H) {
	data := gin.H{
		"Title":      "Impostazioni",
		"Active":     "settings",
		"Publishers": catalog.Publishers,
		"Saved":      c.Query("saved"),
		"Violations": map[string]string(nil),
	}
	if _, ok := extra["Profile"]; !ok {
		profile, err := s.c.Profiles.Get(c.Request.Context())
		if err != nil {
			s.renderError(c, err)
			return
		}
		if profile == nil {
			profile = &promoter.Profile{}
		}
		data["Profile"] = profile
	}
	for k, v := range extra {
		data[k] = v
	}
	s.renderTemplate(c, status, tmplSettings, data)
}

func (s *Server) handleSettings(c *gin.Context) {
	s.settingsPage(c, http.StatusOK, nil)
}

func (s *Server) handleSetPublisher(c *gin.Context) {
	var req publisherRequest
	if err := c.ShouldBind(&req); err != nil {
		s.settingsPage(c, http.StatusUnprocessableEntity, gin.H{"PublisherError": "Seleziona un editore"})
		return
	}
	if _, err := s.c.Publisher.Set(req.Publisher); err != nil {
		s.settingsPage(c, statusFor(err), gin.H{"PublisherError": messageFor(err)})
		return
	}
	c.Redirect(http.StatusSeeOther, "/settings?saved=publisher")
}

func (s *Server) handleSaveProfile(c *gin.Context) {
	var profile promoter.Profile
	if err := c.ShouldBind(&profile); err != nil {
		s.settingsPage(c, http.StatusUnprocessableEntity, gin.H{"Profile": &profile, "ProfileError": "Dati del profilo non validi"})
		return
	}
	if _, err := s.c.Profiles.Save(c.Request.Context(), profile); err != nil {
		extra := gin.H{"Profile": &profile, "ProfileError": messageFor(err)}
		var appErr *errors.AppError
		if stderrors.As(err, &appErr) {
			extra["Violations"] = violationMap(appErr.Violations)
		}
		s.settingsPage(c, statusFor(err), extra)
		return
	}
	c.Redirect(http.StatusSeeOther, "/settings?saved=profile")
}
