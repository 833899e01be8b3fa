package auth

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/pkg/domain"
)

const (
	refreshTokenLen = 32

	// Default token lifetimes
	DefaultAccessTokenTTL  = 15 * time.Minute
	DefaultRefreshTokenTTL = 7 * 24 * time.Hour
)

// SessionConfig holds session configuration.
type SessionConfig struct {
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	JWTSecret       []byte
	Issuer          string
}

// SessionService issues and refreshes sessions: a short-lived JWT
// access token paired with an opaque refresh token stored hashed.
// Login never issues sessions itself; callers hand a Success outcome
// to this service.
type SessionService struct {
	config   SessionConfig
	sessions SessionStore
}

// NewSessionService creates a new session service.
func NewSessionService(config SessionConfig, sessions SessionStore) *SessionService {
	if config.AccessTokenTTL == 0 {
		config.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if config.RefreshTokenTTL == 0 {
		config.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	return &SessionService{config: config, sessions: sessions}
}

// AccessTokenTTL returns the access token TTL.
func (s *SessionService) AccessTokenTTL() time.Duration {
	return s.config.AccessTokenTTL
}

// RefreshTokenTTL returns the refresh token TTL.
func (s *SessionService) RefreshTokenTTL() time.Duration {
	return s.config.RefreshTokenTTL
}

// IssueSessionOpts holds request context recorded with the session.
type IssueSessionOpts struct {
	IP        string
	UserAgent string
}

// AccessTokenClaims represents the claims in an access token.
type AccessTokenClaims struct {
	jwt.RegisteredClaims
	Email         string `json:"email,omitempty"`
	EmailVerified bool   `json:"email_verified,omitempty"`
	MFAVerified   bool   `json:"mfa_verified,omitempty"`
}

// IssueSession creates a session for an authenticated user and returns
// the token pair. All authentication paths funnel through here.
func (s *SessionService) IssueSession(ctx context.Context, user *domain.User, opts IssueSessionOpts) (*domain.TokenPair, error) {
	now := time.Now()

	refreshToken, err := GenerateToken(refreshTokenLen)
	if err != nil {
		return nil, err
	}

	session := &domain.Session{
		ID:        uuid.New(),
		UserID:    user.ID,
		TokenHash: HashToken(refreshToken),
		CreatedAt: now,
		ExpiresAt: now.Add(s.config.RefreshTokenTTL),
	}
	if opts.IP != "" || opts.UserAgent != "" {
		metadata, _ := json.Marshal(domain.SessionMetadata{
			IP:        opts.IP,
			UserAgent: opts.UserAgent,
		})
		session.Metadata = metadata
	}

	if err := s.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	accessToken, expiresAt, err := s.signAccessToken(user, session.ID, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.AccessTokenTTL.Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

// RefreshSession exchanges a refresh token for a new access token.
// The findUser callback resolves the session's user for fresh claims.
func (s *SessionService) RefreshSession(ctx context.Context, refreshToken string, findUser func(context.Context, uuid.UUID) (*domain.User, error)) (*domain.TokenPair, error) {
	session, err := s.sessions.GetByTokenHash(ctx, HashToken(refreshToken))
	if err != nil {
		return nil, err
	}

	if !session.IsValid() {
		if session.RevokedAt != nil {
			return nil, domain.ErrSessionRevoked
		}
		return nil, domain.ErrSessionExpired
	}

	_ = s.sessions.UpdateLastSeen(ctx, session.ID)

	user, err := findUser(ctx, session.UserID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	accessToken, expiresAt, err := s.signAccessToken(user, session.ID, now)
	if err != nil {
		return nil, err
	}

	return &domain.TokenPair{
		AccessToken:  accessToken,
		RefreshToken: refreshToken, // same opaque token, session unchanged
		TokenType:    "Bearer",
		ExpiresIn:    int(s.config.AccessTokenTTL.Seconds()),
		ExpiresAt:    expiresAt,
	}, nil
}

// RevokeSession revokes a session by refresh token.
func (s *SessionService) RevokeSession(ctx context.Context, refreshToken string) error {
	return s.sessions.RevokeByTokenHash(ctx, HashToken(refreshToken))
}

// RevokeAllSessions revokes all sessions for a user.
func (s *SessionService) RevokeAllSessions(ctx context.Context, userID uuid.UUID) error {
	return s.sessions.RevokeAllByUserID(ctx, userID)
}

// ValidateAccessToken validates an access token and returns the claims.
func (s *SessionService) ValidateAccessToken(tokenString string) (*AccessTokenClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &AccessTokenClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, domain.ErrInvalidToken
		}
		return s.config.JWTSecret, nil
	})
	if err != nil {
		return nil, domain.ErrInvalidToken
	}

	claims, ok := token.Claims.(*AccessTokenClaims)
	if !ok || !token.Valid {
		return nil, domain.ErrInvalidToken
	}
	return claims, nil
}

func (s *SessionService) signAccessToken(user *domain.User, sessionID uuid.UUID, now time.Time) (string, time.Time, error) {
	expiresAt := now.Add(s.config.AccessTokenTTL)
	claims := AccessTokenClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID.String(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			Issuer:    s.config.Issuer,
			ID:        sessionID.String(),
		},
		Email:         user.Email,
		EmailVerified: user.EmailVerified,
		MFAVerified:   user.TOTPEnabled,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.config.JWTSecret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign access token: %w", err)
	}
	return signed, expiresAt, nil
}

// GenerateToken generates a cryptographically secure random token.
func GenerateToken(length int) (string, error) {
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate token: %w", err)
	}
	return base64.URLEncoding.EncodeToString(b), nil
}

// HashToken hashes an opaque token for storage using SHA-256.
func HashToken(token string) string {
	hash := sha256.Sum256([]byte(token))
	return base64.StdEncoding.EncodeToString(hash[:])
}
