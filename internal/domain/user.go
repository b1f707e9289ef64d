package domain

import "time"

// Settings holds the per-user preferences consumed by the chat pipeline.
// AIProvider, when set, is attempted first by the orchestrator.
type Settings struct {
	AIProvider   string
	VoiceEnabled bool
}

// User is owned by the auth subsystem and referenced by id from
// Conversation. ConversationCount grows monotonically: it is incremented
// whenever a conversation is created and never decremented, so it reflects
// lifetime usage rather than the current thread count.
type User struct {
	ID                string
	Email             string
	PasswordHash      string
	ConversationCount int64
	Settings          Settings
	CreatedAt         time.Time
	LastLoginAt       time.Time
}
