package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

func seedUser(t *testing.T, users *UserRepository, email string) *domain.User {
	t.Helper()
	user := &domain.User{ID: uuid.NewString(), Email: email, PasswordHash: "x"}
	require.NoError(t, users.Create(context.Background(), user))
	return user
}

func TestConversationLifecycle(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := NewUserRepository(store)
	convs := NewConversationRepository(store)

	owner := seedUser(t, users, "owner@example.com")
	other := seedUser(t, users, "other@example.com")

	conv := &domain.Conversation{ID: uuid.NewString(), UserID: owner.ID, Goal: domain.GoalStressRelief}
	require.NoError(t, convs.Create(ctx, conv))
	assert.False(t, conv.CreatedAt.IsZero())

	require.NoError(t, convs.AppendMessages(ctx, conv.ID, owner.ID,
		domain.Message{ID: uuid.NewString(), Role: domain.RoleUser, Content: "hi"},
		domain.Message{ID: uuid.NewString(), Role: domain.RoleAssistant, Content: "hello"},
	))

	got, err := convs.Get(ctx, conv.ID, owner.ID)
	require.NoError(t, err)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, "hi", got.Messages[0].Content)
	assert.Equal(t, "hello", got.Messages[1].Content)

	// Ownership: other users see nothing.
	_, err = convs.Get(ctx, conv.ID, other.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
	assert.ErrorIs(t, convs.AppendMessages(ctx, conv.ID, other.ID,
		domain.Message{ID: uuid.NewString(), Role: domain.RoleUser, Content: "x"}), domain.ErrNotFound)
	assert.ErrorIs(t, convs.Delete(ctx, conv.ID, other.ID), domain.ErrNotFound)

	reloaded, err := users.GetByID(ctx, owner.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), reloaded.ConversationCount)

	require.NoError(t, convs.Delete(ctx, conv.ID, owner.ID))
	_, err = convs.Get(ctx, conv.ID, owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestGetReturnsCopy(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	convs := NewConversationRepository(store)

	conv := &domain.Conversation{ID: uuid.NewString(), UserID: "u1", Goal: domain.GoalEmotionalSupport}
	require.NoError(t, convs.Create(ctx, conv))
	require.NoError(t, convs.AppendMessages(ctx, conv.ID, "u1",
		domain.Message{ID: uuid.NewString(), Role: domain.RoleUser, Content: "original"}))

	got, err := convs.Get(ctx, conv.ID, "u1")
	require.NoError(t, err)
	got.Messages[0].Content = "mutated"

	again, err := convs.Get(ctx, conv.ID, "u1")
	require.NoError(t, err)
	assert.Equal(t, "original", again.Messages[0].Content)
}

func TestListOrderingAndPaging(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	convs := NewConversationRepository(store)

	current := time.Unix(1700000000, 0).UTC()
	store.now = func() time.Time { return current }

	mk := func(goal domain.Goal) *domain.Conversation {
		conv := &domain.Conversation{ID: uuid.NewString(), UserID: "u1", Goal: goal}
		require.NoError(t, convs.Create(ctx, conv))
		current = current.Add(time.Second)
		return conv
	}
	a := mk(domain.GoalEmotionalSupport)
	b := mk(domain.GoalStressRelief)
	c := mk(domain.GoalPoliteGreetings)

	// Touch a so it becomes the most recent.
	require.NoError(t, convs.AppendMessages(ctx, a.ID, "u1",
		domain.Message{ID: uuid.NewString(), Role: domain.RoleUser, Content: "newest"}))

	page1, total, err := convs.List(ctx, "u1", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, page1, 2)
	assert.Equal(t, a.ID, page1[0].ID)
	assert.Equal(t, 1, page1[0].MessageCount)
	require.NotNil(t, page1[0].LastMessage)
	assert.Equal(t, "newest", page1[0].LastMessage.Content)
	assert.Equal(t, c.ID, page1[1].ID)
	assert.Nil(t, page1[1].LastMessage)

	page2, _, err := convs.List(ctx, "u1", 2, 2)
	require.NoError(t, err)
	require.Len(t, page2, 1)
	assert.Equal(t, b.ID, page2[0].ID)

	beyond, total, err := convs.List(ctx, "u1", 9, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Empty(t, beyond)
}

func TestCountByGoal(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	convs := NewConversationRepository(store)

	for i := 0; i < 2; i++ {
		require.NoError(t, convs.Create(ctx, &domain.Conversation{ID: uuid.NewString(), UserID: "u1", Goal: domain.GoalStressRelief}))
	}
	require.NoError(t, convs.Create(ctx, &domain.Conversation{ID: uuid.NewString(), UserID: "u1", Goal: domain.GoalEmotionalSupport}))
	require.NoError(t, convs.Create(ctx, &domain.Conversation{ID: uuid.NewString(), UserID: "u2", Goal: domain.GoalStressRelief}))

	counts, err := convs.CountByGoal(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, int64(2), counts[domain.GoalStressRelief])
	assert.Equal(t, int64(1), counts[domain.GoalEmotionalSupport])
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	users := NewUserRepository(store)

	user := seedUser(t, users, "a@example.com")

	dup := &domain.User{ID: uuid.NewString(), Email: "a@example.com"}
	assert.ErrorIs(t, users.Create(ctx, dup), domain.ErrEmailTaken)

	byEmail, err := users.GetByEmail(ctx, "a@example.com")
	require.NoError(t, err)
	assert.Equal(t, user.ID, byEmail.ID)

	_, err = users.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	require.NoError(t, users.UpdateSettings(ctx, user.ID, domain.Settings{AIProvider: "gemini", VoiceEnabled: true}))
	require.NoError(t, users.UpdateLastLogin(ctx, user.ID))

	reloaded, err := users.GetByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Equal(t, "gemini", reloaded.Settings.AIProvider)
	assert.True(t, reloaded.Settings.VoiceEnabled)
	assert.False(t, reloaded.LastLoginAt.IsZero())

	assert.ErrorIs(t, users.UpdateLastLogin(ctx, "missing"), domain.ErrUserNotFound)
	assert.ErrorIs(t, users.UpdateSettings(ctx, "missing", domain.Settings{}), domain.ErrUserNotFound)
}

func TestConcurrentAppends(t *testing.T) {
	ctx := context.Background()
	store := NewStore()
	convs := NewConversationRepository(store)

	conv := &domain.Conversation{ID: uuid.NewString(), UserID: "u1", Goal: domain.GoalStressRelief}
	require.NoError(t, convs.Create(ctx, conv))

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			msg := domain.Message{ID: uuid.NewString(), Role: domain.RoleUser, Content: fmt.Sprintf("msg-%d", i)}
			assert.NoError(t, convs.AppendMessages(ctx, conv.ID, "u1", msg))
		}(i)
	}
	wg.Wait()

	got, err := convs.Get(ctx, conv.ID, "u1")
	require.NoError(t, err)
	assert.Len(t, got.Messages, 20)
}
