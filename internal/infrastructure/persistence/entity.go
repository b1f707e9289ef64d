// Package persistence implements the domain repositories on gorm. Tables are
// created through AutoMigrate at startup; see database.PostgresDB.
package persistence

import (
	"time"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

type Conversation struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement;not null"`
	ConversationID string    `json:"conversation_id" gorm:"uniqueIndex;size:36;not null"`
	UserID         string    `json:"user_id" gorm:"index;size:36;not null"`
	Goal           string    `json:"goal" gorm:"size:100;not null"`
	CreatedAt      time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt      time.Time `json:"updated_at" gorm:"autoUpdateTime;index"`
}

func (Conversation) TableName() string {
	return "conversations"
}

type Message struct {
	ID             uint      `json:"id" gorm:"primaryKey;autoIncrement"`
	MessageID      string    `json:"message_id" gorm:"uniqueIndex;size:36;not null"`
	ConversationID string    `json:"conversation_id" gorm:"index:idx_conversation_created,priority:1;size:36;not null"`
	Role           string    `json:"role" gorm:"type:varchar(20);not null;check:role IN ('user','assistant')"`
	Content        string    `json:"content" gorm:"type:text;not null"`
	Tone           string    `json:"tone,omitempty" gorm:"size:32"`
	Language       string    `json:"language,omitempty" gorm:"size:16"`
	CreatedAt      time.Time `json:"created_at" gorm:"index:idx_conversation_created,priority:2;autoCreateTime"`
}

func (Message) TableName() string {
	return "messages"
}

type User struct {
	ID                uint       `json:"id" gorm:"primaryKey;autoIncrement"`
	UserID            string     `json:"user_id" gorm:"uniqueIndex;size:36;not null"`
	Email             string     `json:"email" gorm:"uniqueIndex;size:255;not null"`
	Password          string     `json:"-" gorm:"size:255;not null"`
	ConversationCount int64      `json:"conversation_count" gorm:"not null;default:0"`
	AIProvider        string     `json:"ai_provider" gorm:"size:20;not null;default:openai"`
	VoiceEnabled      bool       `json:"voice_enabled" gorm:"not null;default:false"`
	CreatedAt         time.Time  `json:"created_at" gorm:"autoCreateTime"`
	LastLoginAt       *time.Time `json:"last_login_at,omitempty"`
}

func (User) TableName() string {
	return "users"
}

// Models lists every table for AutoMigrate.
func Models() []any {
	return []any{&Conversation{}, &Message{}, &User{}}
}

func toMessageEntity(conversationID string, m domain.Message) Message {
	return Message{
		MessageID:      m.ID,
		ConversationID: conversationID,
		Role:           m.Role.String(),
		Content:        m.Content,
		Tone:           m.Tone,
		Language:       m.Language,
		CreatedAt:      m.CreatedAt,
	}
}

func toDomainMessage(m Message) domain.Message {
	return domain.Message{
		ID:        m.MessageID,
		Role:      domain.Role(m.Role),
		Content:   m.Content,
		Tone:      m.Tone,
		Language:  m.Language,
		CreatedAt: m.CreatedAt,
	}
}

func toDomainUser(u User) *domain.User {
	user := &domain.User{
		ID:                u.UserID,
		Email:             u.Email,
		PasswordHash:      u.Password,
		ConversationCount: u.ConversationCount,
		Settings: domain.Settings{
			AIProvider:   u.AIProvider,
			VoiceEnabled: u.VoiceEnabled,
		},
		CreatedAt: u.CreatedAt,
	}
	if u.LastLoginAt != nil {
		user.LastLoginAt = *u.LastLoginAt
	}
	return user
}
