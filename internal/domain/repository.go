package domain

import "context"

// ConversationRepository is the durable store for conversations and their
// ordered message lists. Every operation that takes a userID enforces
// ownership: a conversation owned by someone else behaves exactly like a
// missing one (ErrNotFound).
type ConversationRepository interface {
	// Create persists a new conversation and increments the owner's
	// conversation counter as part of the same write.
	Create(ctx context.Context, conv *Conversation) error

	// AppendMessages atomically appends msgs to the conversation in order
	// and bumps its updated-at timestamp. Either every message is durably
	// added or the call fails without partial writes.
	AppendMessages(ctx context.Context, conversationID, userID string, msgs ...Message) error

	// Get loads a conversation with its full message history in insertion
	// order.
	Get(ctx context.Context, conversationID, userID string) (*Conversation, error)

	// List returns one page of the owner's conversations ordered by
	// updated-at descending, plus the total count. Bounds are validated by
	// the caller.
	List(ctx context.Context, userID string, page, pageSize int) ([]ConversationSummary, int64, error)

	// Delete removes the conversation and all its messages. Deletion is
	// immediate and irreversible.
	Delete(ctx context.Context, conversationID, userID string) error

	// CountByGoal aggregates the owner's conversations per goal, used for
	// profile statistics.
	CountByGoal(ctx context.Context, userID string) (map[Goal]int64, error)
}

// UserRepository persists accounts and their settings.
type UserRepository interface {
	Create(ctx context.Context, user *User) error
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	UpdateLastLogin(ctx context.Context, id string) error
	UpdateSettings(ctx context.Context, id string, settings Settings) error
}
