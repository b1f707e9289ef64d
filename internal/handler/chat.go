package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/alphinepj/Clam-Companion/internal/application"
	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/logging"
	"github.com/alphinepj/Clam-Companion/internal/middleware"
)

const (
	defaultPage  = 1
	defaultLimit = 10
)

type ChatHandler struct {
	chat   *application.ChatService
	logger logging.Logger
}

func NewChatHandler(chat *application.ChatService, logger logging.Logger) *ChatHandler {
	return &ChatHandler{chat: chat, logger: logger}
}

type chatRequest struct {
	Message        string `json:"message" binding:"required"`
	Goal           string `json:"goal" binding:"required"`
	ConversationID string `json:"conversationId"`
	Tone           string `json:"tone"`
	Language       string `json:"language"`
}

type chatResponse struct {
	Response       string    `json:"response"`
	ConversationID string    `json:"conversationId"`
	MessageID      string    `json:"messageId"`
	Timestamp      time.Time `json:"timestamp"`
	Tone           string    `json:"tone,omitempty"`
	Language       string    `json:"language,omitempty"`
	AIProvider     string    `json:"aiProvider"`
}

// Chat runs one turn: POST /api/v1/chat.
func (h *ChatHandler) Chat(c *gin.Context) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	out, err := h.chat.Chat(c.Request.Context(), application.ChatInput{
		UserID:         c.GetString(middleware.UserIDKey),
		ConversationID: req.ConversationID,
		Message:        req.Message,
		Goal:           domain.Goal(req.Goal),
		Tone:           req.Tone,
		Language:       req.Language,
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.JSON(http.StatusOK, chatResponse{
		Response:       out.Response,
		ConversationID: out.ConversationID,
		MessageID:      out.MessageID,
		Timestamp:      out.Timestamp,
		Tone:           out.Tone,
		Language:       out.Language,
		AIProvider:     out.Provider,
	})
}

// GetConversation serves the full transcript: GET /api/v1/chat/:conversationId.
func (h *ChatHandler) GetConversation(c *gin.Context) {
	detail, err := h.chat.GetConversation(
		c.Request.Context(),
		c.GetString(middleware.UserIDKey),
		c.Param("conversationId"),
	)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"conversation": detail})
}

// ListConversations serves one summary page: GET /api/v1/chat?page=&limit=.
func (h *ChatHandler) ListConversations(c *gin.Context) {
	page, ok := queryInt(c, "page", defaultPage)
	if !ok {
		return
	}
	limit, ok := queryInt(c, "limit", defaultLimit)
	if !ok {
		return
	}

	list, err := h.chat.ListConversations(c.Request.Context(), c.GetString(middleware.UserIDKey), page, limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, list)
}

// DeleteConversation removes a thread: DELETE /api/v1/chat/:conversationId.
func (h *ChatHandler) DeleteConversation(c *gin.Context) {
	conversationID := c.Param("conversationId")
	err := h.chat.DeleteConversation(c.Request.Context(), c.GetString(middleware.UserIDKey), conversationID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"message":        "Conversation deleted successfully",
		"conversationId": conversationID,
	})
}

// Stats serves usage aggregates: GET /api/v1/chat/stats.
func (h *ChatHandler) Stats(c *gin.Context) {
	stats, err := h.chat.Stats(c.Request.Context(), c.GetString(middleware.UserIDKey))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// queryInt parses an optional integer query parameter, answering the request
// itself when the value is not a number.
func queryInt(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorBody{
			Error:   name + " must be a number",
			Code:    "VALIDATION_ERROR",
			Details: map[string]any{"field": name},
		})
		return 0, false
	}
	return v, true
}
