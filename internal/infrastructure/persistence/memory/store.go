// Package memory implements the domain repositories in process memory. It
// backs the "memory" storage backend for local development and is what the
// service and handler tests run against.
package memory

import (
	"sync"
	"time"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

// Store holds all records behind a single lock shared by both repositories,
// so cross-record writes (conversation create + user counter) stay atomic.
type Store struct {
	mu            sync.RWMutex
	users         map[string]*domain.User
	emails        map[string]string
	conversations map[string]*domain.Conversation
	now           func() time.Time
}

func NewStore() *Store {
	return &Store{
		users:         make(map[string]*domain.User),
		emails:        make(map[string]string),
		conversations: make(map[string]*domain.Conversation),
		now:           time.Now,
	}
}

func copyConversation(c *domain.Conversation) *domain.Conversation {
	out := *c
	out.Messages = make([]domain.Message, len(c.Messages))
	copy(out.Messages, c.Messages)
	return &out
}

func copyUser(u *domain.User) *domain.User {
	out := *u
	return &out
}
