package application

import (
	"time"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

// The view types below are the JSON payloads served by the read endpoints.
// Cached entries store them marshaled, so a cache hit and a store read are
// byte-identical to the client.

// MessageView is one message in a conversation detail or summary.
type MessageView struct {
	ID        string    `json:"id"`
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	Tone      string    `json:"tone,omitempty"`
	Language  string    `json:"language,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// ConversationDetail is the full transcript returned by conversation reads.
type ConversationDetail struct {
	ID        string        `json:"id"`
	Goal      string        `json:"goal"`
	Messages  []MessageView `json:"messages"`
	CreatedAt time.Time     `json:"createdAt"`
	UpdatedAt time.Time     `json:"updatedAt"`
}

// ConversationSummaryView is the list-view projection: message count and the
// last message only, never the full history.
type ConversationSummaryView struct {
	ID           string       `json:"id"`
	Goal         string       `json:"goal"`
	MessageCount int          `json:"messageCount"`
	LastMessage  *MessageView `json:"lastMessage,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
	UpdatedAt    time.Time    `json:"updatedAt"`
}

// Pagination describes one page of a list response.
type Pagination struct {
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	Total      int64 `json:"total"`
	TotalPages int   `json:"totalPages"`
	HasNext    bool  `json:"hasNext"`
	HasPrev    bool  `json:"hasPrev"`
}

// ConversationList is one page of conversation summaries.
type ConversationList struct {
	Conversations []ConversationSummaryView `json:"conversations"`
	Pagination    Pagination                `json:"pagination"`
}

// ChatStats aggregates the caller's conversation usage.
type ChatStats struct {
	TotalConversations int64  `json:"totalConversations"`
	FavoriteGoal       string `json:"favoriteGoal,omitempty"`
}

// SettingsView is the user's chat preferences payload.
type SettingsView struct {
	AIProvider   string `json:"aiProvider"`
	VoiceEnabled bool   `json:"voiceEnabled"`
}

// UserView is the account profile payload; the password hash never leaves
// the domain.
type UserView struct {
	ID                string       `json:"id"`
	Email             string       `json:"email"`
	ConversationCount int64        `json:"conversationCount"`
	Settings          SettingsView `json:"settings"`
	CreatedAt         time.Time    `json:"createdAt"`
	LastLoginAt       *time.Time   `json:"lastLoginAt,omitempty"`
}

func newPagination(page, limit int, total int64) Pagination {
	totalPages := int((total + int64(limit) - 1) / int64(limit))
	return Pagination{
		Page:       page,
		Limit:      limit,
		Total:      total,
		TotalPages: totalPages,
		HasNext:    page < totalPages,
		HasPrev:    page > 1 && total > 0,
	}
}

func toMessageView(m domain.Message) MessageView {
	return MessageView{
		ID:        m.ID,
		Role:      m.Role.String(),
		Content:   m.Content,
		Tone:      m.Tone,
		Language:  m.Language,
		Timestamp: m.CreatedAt,
	}
}

func toConversationDetail(conv *domain.Conversation) *ConversationDetail {
	messages := make([]MessageView, len(conv.Messages))
	for i, m := range conv.Messages {
		messages[i] = toMessageView(m)
	}
	return &ConversationDetail{
		ID:        conv.ID,
		Goal:      conv.Goal.String(),
		Messages:  messages,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}
}

func toSummaryView(s domain.ConversationSummary) ConversationSummaryView {
	view := ConversationSummaryView{
		ID:           s.ID,
		Goal:         s.Goal.String(),
		MessageCount: s.MessageCount,
		CreatedAt:    s.CreatedAt,
		UpdatedAt:    s.UpdatedAt,
	}
	if s.LastMessage != nil {
		last := toMessageView(*s.LastMessage)
		view.LastMessage = &last
	}
	return view
}

func toUserView(u *domain.User) UserView {
	view := UserView{
		ID:                u.ID,
		Email:             u.Email,
		ConversationCount: u.ConversationCount,
		Settings: SettingsView{
			AIProvider:   u.Settings.AIProvider,
			VoiceEnabled: u.Settings.VoiceEnabled,
		},
		CreatedAt: u.CreatedAt,
	}
	if !u.LastLoginAt.IsZero() {
		last := u.LastLoginAt
		view.LastLoginAt = &last
	}
	return view
}
