// Package cache provides the read-through response cache for conversation
// reads. Writes go straight to the store; readers call GetOrLoad and
// invalidate on mutation.
package cache

import (
	"context"
	"fmt"
	"time"
)

// Loader produces the value on a cache miss, already serialized.
type Loader func() ([]byte, error)

// Store is implemented by the redis cache, the in-process memory cache used
// in tests, and a no-op used when caching is disabled.
type Store interface {
	GetOrLoad(ctx context.Context, key string, ttl time.Duration, load Loader) ([]byte, error)
	Delete(ctx context.Context, keys ...string) error
	DeleteByPrefix(ctx context.Context, prefix string) error
	Close() error
}

// ListKey caches one page of a user's conversation list.
func ListKey(userID string, page, pageSize int) string {
	return fmt.Sprintf("chat:list:%s:p%d:s%d", userID, page, pageSize)
}

// ListPrefix matches every cached list page for a user, any page or size.
func ListPrefix(userID string) string {
	return fmt.Sprintf("chat:list:%s:", userID)
}

// DetailKey caches a single conversation with its full transcript.
func DetailKey(userID, conversationID string) string {
	return fmt.Sprintf("chat:detail:%s:%s", userID, conversationID)
}

// Noop satisfies Store without caching anything.
type Noop struct{}

func NewNoop() *Noop { return &Noop{} }

func (*Noop) GetOrLoad(_ context.Context, _ string, _ time.Duration, load Loader) ([]byte, error) {
	return load()
}

func (*Noop) Delete(context.Context, ...string) error { return nil }

func (*Noop) DeleteByPrefix(context.Context, string) error { return nil }

func (*Noop) Close() error { return nil }
