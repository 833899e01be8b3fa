package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/pkg/domain"
)

// memStore is an in-memory UserStore for tests. Mutation methods mirror
// the atomic semantics the real store provides in SQL.
type memStore struct {
	users map[uuid.UUID]*domain.User
}

func newMemStore(users ...*domain.User) *memStore {
	s := &memStore{users: make(map[uuid.UUID]*domain.User)}
	for _, u := range users {
		s.users[u.ID] = u
	}
	return s
}

func (s *memStore) FindByIdentifier(_ context.Context, identifier string) (*domain.User, error) {
	for _, u := range s.users {
		if u.Email == identifier || (u.Username != nil && *u.Username == identifier) {
			return u, nil
		}
	}
	return nil, domain.ErrUserNotFound
}

func (s *memStore) FindByID(_ context.Context, id uuid.UUID) (*domain.User, error) {
	u, ok := s.users[id]
	if !ok {
		return nil, domain.ErrUserNotFound
	}
	return u, nil
}

func (s *memStore) Create(_ context.Context, user *domain.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *memStore) ExistsByEmail(_ context.Context, email string) (bool, error) {
	for _, u := range s.users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) ExistsByUsername(_ context.Context, username string) (bool, error) {
	for _, u := range s.users {
		if u.Username != nil && *u.Username == username {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) RecordLoginFailure(_ context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	u := s.users[id]
	u.FailedLoginAttempts++
	if u.FailedLoginAttempts >= maxAttempts {
		until := time.Now().Add(lockFor)
		u.LockedUntil = &until
	}
	return nil
}

func (s *memStore) RecordLoginSuccess(_ context.Context, id uuid.UUID, at time.Time) error {
	u := s.users[id]
	u.FailedLoginAttempts = 0
	u.LockedUntil = nil
	u.LastLoginAt = &at
	return nil
}

func (s *memStore) SaveTOTPSetup(_ context.Context, id uuid.UUID, secret []byte, backupCodes []string) error {
	u := s.users[id]
	u.TOTPSecret = secret
	u.TOTPEnabled = false
	u.BackupCodes = backupCodes
	return nil
}

func (s *memStore) SetTOTPEnabled(_ context.Context, id uuid.UUID, enabled bool) error {
	s.users[id].TOTPEnabled = enabled
	return nil
}

func (s *memStore) ClearTOTP(_ context.Context, id uuid.UUID) error {
	u := s.users[id]
	u.TOTPSecret = nil
	u.TOTPEnabled = false
	u.BackupCodes = nil
	return nil
}

func (s *memStore) SaveBackupCodes(_ context.Context, id uuid.UUID, codes []string) error {
	s.users[id].BackupCodes = codes
	return nil
}

func (s *memStore) SetEmailVerified(_ context.Context, id uuid.UUID) error {
	s.users[id].EmailVerified = true
	return nil
}

// plainVerifier treats the stored hash as the plaintext password. The
// login state machine only cares about the boolean.
type plainVerifier struct{}

func (plainVerifier) Verify(password, hash string) bool {
	return password == hash
}

// memSessionStore is an in-memory SessionStore for tests.
type memSessionStore struct {
	sessions map[string]*domain.Session // key: token hash
}

func newMemSessionStore() *memSessionStore {
	return &memSessionStore{sessions: make(map[string]*domain.Session)}
}

func (s *memSessionStore) Create(_ context.Context, session *domain.Session) error {
	s.sessions[session.TokenHash] = session
	return nil
}

func (s *memSessionStore) GetByTokenHash(_ context.Context, tokenHash string) (*domain.Session, error) {
	session, ok := s.sessions[tokenHash]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (s *memSessionStore) UpdateLastSeen(_ context.Context, id uuid.UUID) error {
	now := time.Now()
	for _, session := range s.sessions {
		if session.ID == id {
			session.LastSeenAt = &now
		}
	}
	return nil
}

func (s *memSessionStore) RevokeByTokenHash(_ context.Context, tokenHash string) error {
	session, ok := s.sessions[tokenHash]
	if !ok {
		return domain.ErrSessionNotFound
	}
	now := time.Now()
	session.RevokedAt = &now
	return nil
}

func (s *memSessionStore) RevokeAllByUserID(_ context.Context, userID uuid.UUID) error {
	now := time.Now()
	for _, session := range s.sessions {
		if session.UserID == userID && session.RevokedAt == nil {
			session.RevokedAt = &now
		}
	}
	return nil
}

// memTokenStore is an in-memory TokenStore for tests.
type memTokenStore struct {
	tokens map[uuid.UUID]*domain.VerificationToken
}

func newMemTokenStore() *memTokenStore {
	return &memTokenStore{tokens: make(map[uuid.UUID]*domain.VerificationToken)}
}

func (s *memTokenStore) Create(_ context.Context, token *domain.VerificationToken) error {
	s.tokens[token.ID] = token
	return nil
}

func (s *memTokenStore) GetByTokenHash(_ context.Context, tokenHash string, kind domain.VerificationTokenKind) (*domain.VerificationToken, error) {
	for _, t := range s.tokens {
		if t.TokenHash == tokenHash && t.Kind == kind {
			return t, nil
		}
	}
	return nil, domain.ErrVerificationTokenNotFound
}

func (s *memTokenStore) MarkConsumed(_ context.Context, id uuid.UUID) error {
	t, ok := s.tokens[id]
	if !ok || t.ConsumedAt != nil {
		return domain.ErrVerificationTokenNotFound
	}
	now := time.Now()
	t.ConsumedAt = &now
	return nil
}

func (s *memTokenStore) RevokeActive(_ context.Context, userID uuid.UUID, kind domain.VerificationTokenKind) error {
	now := time.Now()
	for _, t := range s.tokens {
		if t.UserID == userID && t.Kind == kind && t.ConsumedAt == nil {
			t.ConsumedAt = &now
		}
	}
	return nil
}
