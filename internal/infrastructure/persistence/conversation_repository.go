package persistence

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/infrastructure/database"
)

type ConversationRepository struct {
	db *database.PostgresDB
}

func NewConversationRepository(db *database.PostgresDB) *ConversationRepository {
	return &ConversationRepository{db: db}
}

// Create inserts the conversation row and bumps the owner's lifetime
// conversation counter in one transaction. Messages are appended separately.
func (r *ConversationRepository) Create(ctx context.Context, conv *domain.Conversation) error {
	entity := Conversation{
		ConversationID: conv.ID,
		UserID:         conv.UserID,
		Goal:           conv.Goal.String(),
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&entity).Error; err != nil {
			return fmt.Errorf("failed to create conversation: %w", err)
		}
		if err := tx.Model(&User{}).
			Where("user_id = ?", conv.UserID).
			UpdateColumn("conversation_count", gorm.Expr("conversation_count + 1")).Error; err != nil {
			return fmt.Errorf("failed to update conversation count: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	conv.CreatedAt = entity.CreatedAt
	conv.UpdatedAt = entity.UpdatedAt
	return nil
}

// AppendMessages writes msgs in order and touches the conversation's
// updated_at, all or nothing. Returns domain.ErrNotFound when the
// conversation does not exist or belongs to another user.
func (r *ConversationRepository) AppendMessages(ctx context.Context, conversationID, userID string, msgs ...domain.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv Conversation
		if err := tx.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("failed to get conversation: %w", err)
		}

		entities := make([]Message, len(msgs))
		for i, m := range msgs {
			entities[i] = toMessageEntity(conversationID, m)
		}
		if err := tx.Create(&entities).Error; err != nil {
			return fmt.Errorf("failed to create messages: %w", err)
		}

		if err := tx.Model(&conv).
			UpdateColumn("updated_at", time.Now().UTC()).Error; err != nil {
			return fmt.Errorf("failed to touch conversation: %w", err)
		}
		return nil
	})
}

func (r *ConversationRepository) Get(ctx context.Context, conversationID, userID string) (*domain.Conversation, error) {
	var conv Conversation
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ? AND user_id = ?", conversationID, userID).
		First(&conv).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get conversation: %w", err)
	}

	var entities []Message
	if err := r.db.WithContext(ctx).
		Where("conversation_id = ?", conversationID).
		Order("created_at ASC, id ASC").
		Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("failed to get messages: %w", err)
	}

	messages := make([]domain.Message, len(entities))
	for i, e := range entities {
		messages[i] = toDomainMessage(e)
	}
	return &domain.Conversation{
		ID:        conv.ConversationID,
		UserID:    conv.UserID,
		Goal:      domain.Goal(conv.Goal),
		Messages:  messages,
		CreatedAt: conv.CreatedAt,
		UpdatedAt: conv.UpdatedAt,
	}, nil
}

// List pages the owner's conversations newest-activity first. Message counts
// and last messages are fetched with two aggregate queries rather than one
// query per row.
func (r *ConversationRepository) List(ctx context.Context, userID string, page, pageSize int) ([]domain.ConversationSummary, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&Conversation{}).
		Where("user_id = ?", userID).
		Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count conversations: %w", err)
	}

	var convs []Conversation
	if err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("updated_at DESC").
		Limit(pageSize).
		Offset((page - 1) * pageSize).
		Find(&convs).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get conversations: %w", err)
	}
	if len(convs) == 0 {
		return []domain.ConversationSummary{}, total, nil
	}

	ids := make([]string, len(convs))
	for i, c := range convs {
		ids[i] = c.ConversationID
	}

	type msgCount struct {
		ConversationID string
		Count          int64
	}
	var counts []msgCount
	if err := r.db.WithContext(ctx).Model(&Message{}).
		Select("conversation_id, COUNT(*) AS count").
		Where("conversation_id IN ?", ids).
		Group("conversation_id").
		Scan(&counts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count messages: %w", err)
	}
	countByID := make(map[string]int64, len(counts))
	for _, c := range counts {
		countByID[c.ConversationID] = c.Count
	}

	var lasts []Message
	if err := r.db.WithContext(ctx).
		Where("id IN (?)", r.db.Model(&Message{}).
			Select("MAX(id)").
			Where("conversation_id IN ?", ids).
			Group("conversation_id")).
		Find(&lasts).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to get last messages: %w", err)
	}
	lastByID := make(map[string]domain.Message, len(lasts))
	for _, m := range lasts {
		lastByID[m.ConversationID] = toDomainMessage(m)
	}

	summaries := make([]domain.ConversationSummary, len(convs))
	for i, c := range convs {
		s := domain.ConversationSummary{
			ID:           c.ConversationID,
			Goal:         domain.Goal(c.Goal),
			MessageCount: int(countByID[c.ConversationID]),
			CreatedAt:    c.CreatedAt,
			UpdatedAt:    c.UpdatedAt,
		}
		if last, ok := lastByID[c.ConversationID]; ok {
			s.LastMessage = &last
		}
		summaries[i] = s
	}
	return summaries, total, nil
}

func (r *ConversationRepository) Delete(ctx context.Context, conversationID, userID string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var conv Conversation
		if err := tx.Where("conversation_id = ? AND user_id = ?", conversationID, userID).
			First(&conv).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return domain.ErrNotFound
			}
			return fmt.Errorf("failed to get conversation: %w", err)
		}
		if err := tx.Where("conversation_id = ?", conversationID).
			Delete(&Message{}).Error; err != nil {
			return fmt.Errorf("failed to delete messages: %w", err)
		}
		if err := tx.Delete(&conv).Error; err != nil {
			return fmt.Errorf("failed to delete conversation: %w", err)
		}
		return nil
	})
}

func (r *ConversationRepository) CountByGoal(ctx context.Context, userID string) (map[domain.Goal]int64, error) {
	type goalCount struct {
		Goal  string
		Count int64
	}
	var rows []goalCount
	if err := r.db.WithContext(ctx).Model(&Conversation{}).
		Select("goal, COUNT(*) AS count").
		Where("user_id = ?", userID).
		Group("goal").
		Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to count conversations by goal: %w", err)
	}
	out := make(map[domain.Goal]int64, len(rows))
	for _, row := range rows {
		out[domain.Goal(row.Goal)] = row.Count
	}
	return out, nil
}
