// Package handler exposes the application services over HTTP with gin.
package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/logging"
)

// errorBody is the envelope every non-2xx response carries.
type errorBody struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

// respondError translates a service error into the envelope. Anything
// unrecognized becomes a generic 500; the detail goes to the log, never to
// the client.
func respondError(c *gin.Context, logger logging.Logger, err error) {
	var ve *domain.ValidationError
	switch {
	case errors.As(err, &ve):
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   ve.Reason,
			Code:    "VALIDATION_ERROR",
			Details: map[string]any{"field": ve.Field},
		})
	case errors.Is(err, domain.ErrInvalidID):
		c.JSON(http.StatusBadRequest, errorBody{
			Error: "Invalid conversation id",
			Code:  "INVALID_ID",
		})
	case errors.Is(err, domain.ErrNotFound):
		c.JSON(http.StatusNotFound, errorBody{
			Error: "Conversation not found",
			Code:  "CONVERSATION_NOT_FOUND",
		})
	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, errorBody{
			Error: "Email already registered",
			Code:  "EMAIL_TAKEN",
		})
	case errors.Is(err, domain.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, errorBody{
			Error: "Invalid email or password",
			Code:  "INVALID_CREDENTIALS",
		})
	case errors.Is(err, domain.ErrUserNotFound):
		c.JSON(http.StatusUnauthorized, errorBody{
			Error: "User not found",
			Code:  "UNAUTHORIZED",
		})
	default:
		logger.Error(c.Request.Context(), "request failed", "error", err)
		c.JSON(http.StatusInternalServerError, errorBody{
			Error: "Something went wrong, please try again later",
			Code:  "INTERNAL_ERROR",
		})
	}
}

// respondBadRequest reports a request body that failed binding.
func respondBadRequest(c *gin.Context, err error) {
	c.JSON(http.StatusBadRequest, errorBody{
		Error:   err.Error(),
		Code:    "VALIDATION_ERROR",
		Details: map[string]any{"field": "body"},
	})
}
