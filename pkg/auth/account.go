package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/pkg/domain"
)

const (
	minPasswordLength = 8
	maxPasswordLength = 128

	// DefaultEmailVerificationTTL is how long a verification link stays
	// valid.
	DefaultEmailVerificationTTL = 24 * time.Hour

	verificationTokenLen = 32
)

// AccountConfig tunes registration and email verification.
type AccountConfig struct {
	EmailVerificationTTL time.Duration
}

// AccountService handles registration and email verification for local
// accounts.
type AccountService struct {
	config AccountConfig
	users  UserStore
	tokens TokenStore
}

// NewAccountService creates a new account service.
func NewAccountService(config AccountConfig, users UserStore, tokens TokenStore) *AccountService {
	if config.EmailVerificationTTL == 0 {
		config.EmailVerificationTTL = DefaultEmailVerificationTTL
	}
	return &AccountService{config: config, users: users, tokens: tokens}
}

// Register creates a new local user with password credentials. The
// account starts active with its email unverified.
func (s *AccountService) Register(ctx context.Context, email, password string, username *string) (*domain.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" || !strings.Contains(email, "@") {
		return nil, fmt.Errorf("invalid email address %q", email)
	}
	if len(password) < minPasswordLength || len(password) > maxPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	exists, err := s.users.ExistsByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrUserAlreadyExists
	}

	if username != nil && *username != "" {
		taken, err := s.users.ExistsByUsername(ctx, *username)
		if err != nil {
			return nil, err
		}
		if taken {
			return nil, domain.ErrUsernameAlreadyExists
		}
	} else {
		username = nil
	}

	hash, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	user := &domain.User{
		ID:            uuid.New(),
		Email:         email,
		Username:      username,
		Provider:      domain.ProviderLocal,
		Active:        true,
		EmailVerified: false,
		PasswordHash:  hash,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// CreateEmailVerificationToken issues a fresh email verification token
// for the user, revoking any outstanding one first. The raw token is
// returned for delivery; only its hash is stored.
func (s *AccountService) CreateEmailVerificationToken(ctx context.Context, userID uuid.UUID) (string, error) {
	if err := s.tokens.RevokeActive(ctx, userID, domain.TokenKindEmailVerification); err != nil {
		return "", fmt.Errorf("failed to revoke active tokens: %w", err)
	}

	raw, err := GenerateToken(verificationTokenLen)
	if err != nil {
		return "", err
	}

	now := time.Now()
	token := &domain.VerificationToken{
		ID:        uuid.New(),
		UserID:    userID,
		TokenHash: HashToken(raw),
		Kind:      domain.TokenKindEmailVerification,
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.EmailVerificationTTL),
	}
	if err := s.tokens.Create(ctx, token); err != nil {
		return "", fmt.Errorf("failed to create verification token: %w", err)
	}
	return raw, nil
}

// VerifyEmail consumes a verification token and marks the user's email
// as confirmed.
func (s *AccountService) VerifyEmail(ctx context.Context, rawToken string) error {
	token, err := s.tokens.GetByTokenHash(ctx, HashToken(rawToken), domain.TokenKindEmailVerification)
	if err != nil {
		return err
	}
	if token.ConsumedAt != nil {
		return domain.ErrVerificationTokenConsumed
	}
	if !token.IsValid() {
		return domain.ErrVerificationTokenExpired
	}

	if err := s.tokens.MarkConsumed(ctx, token.ID); err != nil {
		return err
	}
	return s.users.SetEmailVerified(ctx, token.UserID)
}

// FindUserByEmail resolves a user for the resend-verification flow.
func (s *AccountService) FindUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	return s.users.FindByIdentifier(ctx, strings.ToLower(strings.TrimSpace(email)))
}
