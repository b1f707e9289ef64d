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

type UserRepository struct {
	db *database.PostgresDB
}

func NewUserRepository(db *database.PostgresDB) *UserRepository {
	return &UserRepository{db: db}
}

func (r *UserRepository) Create(ctx context.Context, user *domain.User) error {
	entity := User{
		UserID:       user.ID,
		Email:        user.Email,
		Password:     user.PasswordHash,
		AIProvider:   user.Settings.AIProvider,
		VoiceEnabled: user.Settings.VoiceEnabled,
	}
	if err := r.db.WithContext(ctx).Create(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return domain.ErrEmailTaken
		}
		return fmt.Errorf("failed to create user: %w", err)
	}
	user.CreatedAt = entity.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var entity User
	if err := r.db.WithContext(ctx).Where("user_id = ?", id).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toDomainUser(entity), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var entity User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return toDomainUser(entity), nil
}

func (r *UserRepository) UpdateLastLogin(ctx context.Context, id string) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", id).
		UpdateColumn("last_login_at", time.Now().UTC())
	if res.Error != nil {
		return fmt.Errorf("failed to update last login: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UserRepository) UpdateSettings(ctx context.Context, id string, settings domain.Settings) error {
	res := r.db.WithContext(ctx).Model(&User{}).
		Where("user_id = ?", id).
		UpdateColumns(map[string]any{
			"ai_provider":   settings.AIProvider,
			"voice_enabled": settings.VoiceEnabled,
		})
	if res.Error != nil {
		return fmt.Errorf("failed to update settings: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
