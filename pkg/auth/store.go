package auth

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/pkg/domain"
)

// UserStore is the persistence collaborator for credential records.
// Implementations must apply each mutation as a single read-modify-write
// unit (one statement or one transaction) so that concurrent failed
// attempts cannot under-count lockouts and concurrent backup-code
// redemptions cannot both match the same code.
type UserStore interface {
	// FindByIdentifier resolves a user by email or username. Returns
	// domain.ErrUserNotFound when no account matches.
	FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// FindByID retrieves a user by ID.
	FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// Create inserts a new user.
	Create(ctx context.Context, user *domain.User) error

	// ExistsByEmail reports whether an account with the email exists.
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// ExistsByUsername reports whether the username is taken.
	ExistsByUsername(ctx context.Context, username string) (bool, error)

	// RecordLoginFailure increments the failed-attempt counter and, if
	// the post-increment count reaches maxAttempts, sets the lock to
	// now+lockFor. Counter bump and lock set happen atomically.
	RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error

	// RecordLoginSuccess resets the failed-attempt counter, clears any
	// lock and stamps the last-login time.
	RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error

	// SaveTOTPSetup stores a fresh secret and backup-code batch with
	// 2FA still disabled, replacing any earlier unconfirmed setup.
	SaveTOTPSetup(ctx context.Context, id uuid.UUID, secret []byte, backupCodes []string) error

	// SetTOTPEnabled flips the 2FA flag.
	SetTOTPEnabled(ctx context.Context, id uuid.UUID, enabled bool) error

	// ClearTOTP removes the secret, the flag and all backup codes
	// together.
	ClearTOTP(ctx context.Context, id uuid.UUID) error

	// SaveBackupCodes replaces the unused backup-code set.
	SaveBackupCodes(ctx context.Context, id uuid.UUID, codes []string) error

	// SetEmailVerified marks the user's email address as confirmed.
	SetEmailVerified(ctx context.Context, id uuid.UUID) error
}

// PasswordVerifier checks a password against a stored hash. The hash
// format is opaque to everything but the implementation.
type PasswordVerifier interface {
	Verify(password, hash string) bool
}

// SessionStore is the persistence collaborator for refresh sessions.
type SessionStore interface {
	Create(ctx context.Context, session *domain.Session) error
	GetByTokenHash(ctx context.Context, tokenHash string) (*domain.Session, error)
	UpdateLastSeen(ctx context.Context, id uuid.UUID) error
	RevokeByTokenHash(ctx context.Context, tokenHash string) error
	RevokeAllByUserID(ctx context.Context, userID uuid.UUID) error
}

// TokenStore is the persistence collaborator for single-use
// verification tokens.
type TokenStore interface {
	Create(ctx context.Context, token *domain.VerificationToken) error
	GetByTokenHash(ctx context.Context, tokenHash string, kind domain.VerificationTokenKind) (*domain.VerificationToken, error)
	MarkConsumed(ctx context.Context, id uuid.UUID) error
	RevokeActive(ctx context.Context, userID uuid.UUID, kind domain.VerificationTokenKind) error
}
