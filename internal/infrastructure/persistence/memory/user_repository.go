package memory

import (
	"context"

	"github.com/alphinepj/Clam-Companion/internal/domain"
)

type UserRepository struct {
	store *Store
}

func NewUserRepository(store *Store) *UserRepository {
	return &UserRepository{store: store}
}

func (r *UserRepository) Create(_ context.Context, user *domain.User) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, taken := s.emails[user.Email]; taken {
		return domain.ErrEmailTaken
	}
	stored := copyUser(user)
	stored.CreatedAt = s.now().UTC()
	s.users[stored.ID] = stored
	s.emails[stored.Email] = stored.ID

	user.CreatedAt = stored.CreatedAt
	return nil
}

func (r *UserRepository) GetByID(_ context.Context, id string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	user, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(user), nil
}

func (r *UserRepository) GetByEmail(_ context.Context, email string) (*domain.User, error) {
	s := r.store
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, ok := s.emails[email]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return copyUser(s.users[id]), nil
}

func (r *UserRepository) UpdateLastLogin(_ context.Context, id string) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.LastLoginAt = s.now().UTC()
	return nil
}

func (r *UserRepository) UpdateSettings(_ context.Context, id string, settings domain.Settings) error {
	s := r.store
	s.mu.Lock()
	defer s.mu.Unlock()

	user, ok := s.users[id]
	if !ok {
		return domain.ErrUserNotFound
	}
	user.Settings = settings
	return nil
}
