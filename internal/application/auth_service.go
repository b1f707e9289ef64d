package application

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/alphinepj/Clam-Companion/config"
	"github.com/alphinepj/Clam-Companion/internal/domain"
	"github.com/alphinepj/Clam-Companion/internal/logging"
)

const (
	minPasswordLen = 8
	// bcrypt rejects anything longer than 72 bytes.
	maxPasswordLen = 72
)

// ProviderRegistry reports which provider names a user may prefer. The
// orchestrator satisfies it.
type ProviderRegistry interface {
	Has(name string) bool
}

// AuthService owns user accounts: registration, login, profile reads and
// the provider/voice settings consumed by the chat pipeline.
type AuthService struct {
	users           domain.UserRepository
	tokens          *TokenService
	providers       ProviderRegistry
	defaultProvider string
	bcryptCost      int
	logger          logging.Logger
}

func NewAuthService(
	users domain.UserRepository,
	tokens *TokenService,
	providers ProviderRegistry,
	cfg config.AuthConfig,
	defaultProvider string,
	logger logging.Logger,
) *AuthService {
	cost := cfg.BcryptCost
	if cost < bcrypt.MinCost || cost > bcrypt.MaxCost {
		cost = bcrypt.DefaultCost
	}
	return &AuthService{
		users:           users,
		tokens:          tokens,
		providers:       providers,
		defaultProvider: defaultProvider,
		bcryptCost:      cost,
		logger:          logger,
	}
}

// Credentials is an email/password pair for register and login.
type Credentials struct {
	Email    string
	Password string
}

// AuthOutput is a fresh token plus the account it belongs to.
type AuthOutput struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
	User      UserView  `json:"user"`
}

// Register creates an account with a normalized email and a bcrypt-hashed
// password, then signs it in.
func (s *AuthService) Register(ctx context.Context, creds Credentials) (*AuthOutput, error) {
	email := normalizeEmail(creds.Email)
	if err := validateCredentials(email, creds.Password); err != nil {
		return nil, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(creds.Password), s.bcryptCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: string(hash),
		Settings:     domain.Settings{AIProvider: s.defaultProvider},
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	s.logger.Info(ctx, "user registered", "user_id", user.ID)

	return s.signIn(user)
}

// Login verifies the credentials and issues a token. Unknown email and wrong
// password are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, creds Credentials) (*AuthOutput, error) {
	email := normalizeEmail(creds.Email)
	if email == "" || creds.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(creds.Password)) != nil {
		return nil, domain.ErrInvalidCredentials
	}

	// Best effort: a failed last-login stamp must not block the login.
	if err := s.users.UpdateLastLogin(ctx, user.ID); err != nil {
		s.logger.Warn(ctx, "failed to update last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLoginAt = time.Now().UTC()
	}

	return s.signIn(user)
}

// CurrentUser returns the authenticated account's profile.
func (s *AuthService) CurrentUser(ctx context.Context, userID string) (*UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := toUserView(user)
	return &view, nil
}

// GetSettings returns the user's chat preferences.
func (s *AuthService) GetSettings(ctx context.Context, userID string) (*SettingsView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return &SettingsView{
		AIProvider:   user.Settings.AIProvider,
		VoiceEnabled: user.Settings.VoiceEnabled,
	}, nil
}

// UpdateSettingsInput applies a partial settings update; nil fields keep
// their current value.
type UpdateSettingsInput struct {
	AIProvider   *string
	VoiceEnabled *bool
}

// UpdateSettings validates and persists the new preferences. The provider
// preference must be empty or a registered provider name.
func (s *AuthService) UpdateSettings(ctx context.Context, userID string, in UpdateSettingsInput) (*SettingsView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	settings := user.Settings
	if in.AIProvider != nil {
		name := strings.TrimSpace(*in.AIProvider)
		if name != "" && !s.providers.Has(name) {
			return nil, domain.NewValidationError("aiProvider", "unknown AI provider")
		}
		settings.AIProvider = name
	}
	if in.VoiceEnabled != nil {
		settings.VoiceEnabled = *in.VoiceEnabled
	}

	if err := s.users.UpdateSettings(ctx, userID, settings); err != nil {
		return nil, err
	}
	return &SettingsView{
		AIProvider:   settings.AIProvider,
		VoiceEnabled: settings.VoiceEnabled,
	}, nil
}

func (s *AuthService) signIn(user *domain.User) (*AuthOutput, error) {
	token, expiresAt, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, err
	}
	return &AuthOutput{
		Token:     token,
		ExpiresAt: expiresAt,
		User:      toUserView(user),
	}, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func validateCredentials(email, password string) error {
	if email == "" || !strings.Contains(email, "@") {
		return domain.NewValidationError("email", "a valid email address is required")
	}
	if len(password) < minPasswordLen {
		return domain.NewValidationError("password", "password must be at least 8 characters")
	}
	if len(password) > maxPasswordLen {
		return domain.NewValidationError("password", "password must be at most 72 characters")
	}
	return nil
}
