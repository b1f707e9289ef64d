package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphinepj/Clam-Companion/internal/application"
	"github.com/alphinepj/Clam-Companion/internal/logging"
	"github.com/alphinepj/Clam-Companion/internal/middleware"
)

type AuthHandler struct {
	auth   *application.AuthService
	logger logging.Logger
}

func NewAuthHandler(auth *application.AuthService, logger logging.Logger) *AuthHandler {
	return &AuthHandler{auth: auth, logger: logger}
}

type credentialsRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// Register creates an account: POST /api/v1/auth/register.
func (h *AuthHandler) Register(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	out, err := h.auth.Register(c.Request.Context(), application.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, out)
}

// Login verifies credentials and issues a token: POST /api/v1/auth/login.
func (h *AuthHandler) Login(c *gin.Context) {
	var req credentialsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	out, err := h.auth.Login(c.Request.Context(), application.Credentials{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, out)
}

// Me returns the authenticated profile: GET /api/v1/auth/me.
func (h *AuthHandler) Me(c *gin.Context) {
	user, err := h.auth.CurrentUser(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": user})
}
