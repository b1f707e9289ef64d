package memory

import (
	"context"
	"sort"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

type ConversationRepository struct {
	store *Store
}

func NewConversationRepository(store *Store) *ConversationRepository {
	return &ConversationRepository{store: store}
}

func (r *ConversationRepository) Create(_ context.Context, conv *domain.Conversation) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	stored := copyConversation(conv)
	stored.CreatedAt = now
	stored.UpdatedAt = now
	s.conversations[stored.ID] = stored

	if owner, ok := s.users[conv.UserID]; ok {
		owner.ConversationCount++
	}

	conv.CreatedAt = stored.CreatedAt
	conv.UpdatedAt = stored.UpdatedAt
	return nil
}

func (r *ConversationRepository) AppendMessages(_ context.Context, conversationID, userID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return domain.ErrNotFound
	}
	conv.Messages = append(conv.Messages, msgs...)
	conv.UpdatedAt = s.now().UTC()
	return nil
}

func (r *ConversationRepository) Get(_ context.Context, conversationID, userID string) (*domain.Conversation, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return nil, domain.ErrNotFound
	}
	return copyConversation(conv), nil
}

func (r *ConversationRepository) List(_ context.Context, userID string, page, pageSize int) ([]domain.ConversationSummary, int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	var owned []*domain.Conversation
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			owned = append(owned, conv)
		}
	}
	sort.Slice(owned, func(i, j int) bool {
		if !owned[i].UpdatedAt.Equal(owned[j].UpdatedAt) {
			return owned[i].UpdatedAt.After(owned[j].UpdatedAt)
		}
		return owned[i].ID < owned[j].ID
	})

	total := int64(len(owned))
	start := (page - 1) * pageSize
	if start >= len(owned) {
		return []domain.ConversationSummary{}, total, nil
	}
	end := start + pageSize
	if end > len(owned) {
		end = len(owned)
	}

	summaries := make([]domain.ConversationSummary, 0, end-start)
	for _, conv := range owned[start:end] {
		summary := domain.ConversationSummary{
			ID:           conv.ID,
			Goal:         conv.Goal,
			MessageCount: len(conv.Messages),
			CreatedAt:    conv.CreatedAt,
			UpdatedAt:    conv.UpdatedAt,
		}
		if last := conv.LastMessage(); last != nil {
			lastCopy := *last
			summary.LastMessage = &lastCopy
		}
		summaries = append(summaries, summary)
	}
	return summaries, total, nil
}

func (r *ConversationRepository) Delete(_ context.Context, conversationID, userID string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	conv, ok := s.conversations[conversationID]
	if !ok || conv.UserID != userID {
		return domain.ErrNotFound
	}
	delete(s.conversations, conversationID)
	return nil
}

func (r *ConversationRepository) CountByGoal(_ context.Context, userID string) (map[domain.Goal]int64, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(map[domain.Goal]int64)
	for _, conv := range s.conversations {
		if conv.UserID == userID {
			out[conv.Goal]++
		}
	}
	return out, nil
}
