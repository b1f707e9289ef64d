package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

func (r Role) String() string { return string(r) }

// Goal is the conversation topic selected by the user. It shapes the system
// prompt sent to the providers. Besides the named goals a free-form custom
// goal is accepted.
type Goal string

const (
	GoalEmotionalSupport    Goal = "emotional-support"
	GoalStressRelief        Goal = "stress-relief"
	GoalPoliteGreetings     Goal = "polite-greetings"
	GoalKindDisagreement    Goal = "kind-disagreement"
	GoalRespectfulQuestions Goal = "respectful-questions"
)

const (
	// MaxMessageLen bounds the user message accepted per chat turn.
	MaxMessageLen = 1000
	// MaxGoalLen bounds free-form custom goals.
	MaxGoalLen = 100
)

// NamedGoals lists the built-in goals in a fixed order.
func NamedGoals() []Goal {
	return []Goal{
		GoalEmotionalSupport,
		GoalStressRelief,
		GoalPoliteGreetings,
		GoalKindDisagreement,
		GoalRespectfulQuestions,
	}
}

// IsNamed reports whether the goal is one of the built-in goals.
func (g Goal) IsNamed() bool {
	switch g {
	case GoalEmotionalSupport, GoalStressRelief, GoalPoliteGreetings,
		GoalKindDisagreement, GoalRespectfulQuestions:
		return true
	}
	return false
}

func (g Goal) String() string { return string(g) }

// ValidateGoal accepts a named goal or a non-empty custom goal up to
// MaxGoalLen characters.
func ValidateGoal(g Goal) error {
	if g.IsNamed() {
		return nil
	}
	trimmed := strings.TrimSpace(string(g))
	if trimmed == "" {
		return NewValidationError("goal", "goal is required")
	}
	if len([]rune(trimmed)) > MaxGoalLen {
		return NewValidationError("goal", "custom goal must be at most 100 characters")
	}
	return nil
}

// ValidateMessageContent enforces the 1..MaxMessageLen bound on user input.
func ValidateMessageContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return NewValidationError("message", "message must not be empty")
	}
	if len([]rune(content)) > MaxMessageLen {
		return NewValidationError("message", "message must be at most 1000 characters")
	}
	return nil
}

// Message is a single utterance inside a conversation. Messages are
// immutable once appended; there is no edit or retraction operation.
type Message struct {
	ID        string
	Role      Role
	Content   string
	Tone      string
	Language  string
	CreatedAt time.Time
}

// IsUser reports whether the message was authored by the user.
func (m *Message) IsUser() bool { return m.Role == RoleUser }

// Conversation is the aggregate root: an ordered message thread owned by a
// single user. Insertion order equals chronological order and is never
// rearranged.
type Conversation struct {
	ID        string
	UserID    string
	Goal      Goal
	Messages  []Message
	CreatedAt time.Time
	UpdatedAt time.Time
}

// LastMessage returns the newest message, or nil for an empty thread.
func (c *Conversation) LastMessage() *Message {
	if len(c.Messages) == 0 {
		return nil
	}
	return &c.Messages[len(c.Messages)-1]
}

// ConversationSummary is the list-view projection: message count and last
// message only, never the full history.
type ConversationSummary struct {
	ID           string
	Goal         Goal
	MessageCount int
	LastMessage  *Message
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

const (
	// ListMinPageSize and ListMaxPageSize bound the page size accepted by
	// conversation listing.
	ListMinPageSize = 1
	ListMaxPageSize = 50
)

// ValidatePage rejects out-of-range pagination parameters.
func ValidatePage(page, pageSize int) error {
	if page < 1 {
		return NewValidationError("page", "page must be >= 1")
	}
	if pageSize < ListMinPageSize || pageSize > ListMaxPageSize {
		return NewValidationError("limit", "limit must be between 1 and 50")
	}
	return nil
}
