package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphinepj/Clam-Companion/internal/application"
	"github.com/alphinepj/Clam-Companion/internal/logging"
	"github.com/alphinepj/Clam-Companion/internal/middleware"
)

type SettingsHandler struct {
	auth   *application.AuthService
	logger logging.Logger
}

func NewSettingsHandler(auth *application.AuthService, logger logging.Logger) *SettingsHandler {
	return &SettingsHandler{auth: auth, logger: logger}
}

// Get returns the caller's preferences: GET /api/v1/settings.
func (h *SettingsHandler) Get(c *gin.Context) {
	settings, err := h.auth.GetSettings(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

type updateSettingsRequest struct {
	AIProvider   *string `json:"aiProvider"`
	VoiceEnabled *bool   `json:"voiceEnabled"`
}

// Update applies a partial settings change: PUT /api/v1/settings. Absent
// fields keep their stored values.
func (h *SettingsHandler) Update(c *gin.Context) {
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	settings, err := h.auth.UpdateSettings(c.Request.Context(), c.GetString(middleware.UserIDKey), application.UpdateSettingsInput{
		AIProvider:   req.AIProvider,
		VoiceEnabled: req.VoiceEnabled,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
