package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/shelfmark/shelfmark/pkg/domain"
)

const userColumns = `id, email, username, name, provider, active, email_verified, password_hash,
	       totp_secret, totp_enabled, backup_codes, failed_login_attempts, locked_until,
	       last_login_at, created_at, updated_at, deleted_at`

// UsersRepository handles user persistence. It implements auth.UserStore.
// When constructed with a SecretCipher, TOTP secrets are encrypted before
// they reach the database and decrypted on the way out; callers above
// this layer only ever see raw key bytes.
type UsersRepository struct {
	db     *sql.DB
	cipher *SecretCipher
}

// NewUsersRepository creates a new users repository. cipher may be nil,
// in which case secrets are stored as-is.
func NewUsersRepository(db *sql.DB, cipher *SecretCipher) *UsersRepository {
	return &UsersRepository{db: db, cipher: cipher}
}

// Create inserts a new user.
func (r *UsersRepository) Create(ctx context.Context, user *domain.User) error {
	query := `
		INSERT INTO users (id, email, username, name, provider, active, email_verified,
		                   password_hash, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := r.db.ExecContext(ctx, query,
		user.ID, user.Email, user.Username, user.Name, user.Provider,
		user.Active, user.EmailVerified, user.PasswordHash,
		user.CreatedAt, user.UpdatedAt,
	)
	return err
}

// FindByID retrieves a user by ID.
func (r *UsersRepository) FindByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// FindByIdentifier retrieves a user by email or username.
func (r *UsersRepository) FindByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users
		WHERE (email = $1 OR username = $1) AND deleted_at IS NULL
	`
	return r.scanUser(r.db.QueryRowContext(ctx, query, identifier))
}

// ExistsByEmail reports whether an account with the email exists.
func (r *UsersRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE email = $1 AND deleted_at IS NULL)`
	err := r.db.QueryRowContext(ctx, query, email).Scan(&exists)
	return exists, err
}

// ExistsByUsername reports whether the username is taken.
func (r *UsersRepository) ExistsByUsername(ctx context.Context, username string) (bool, error) {
	var exists bool
	query := `SELECT EXISTS(SELECT 1 FROM users WHERE username = $1 AND deleted_at IS NULL)`
	err := r.db.QueryRowContext(ctx, query, username).Scan(&exists)
	return exists, err
}

// RecordLoginFailure increments the failed-attempt counter and sets the
// lock when the post-increment count reaches maxAttempts. One statement,
// so concurrent failures cannot under-count.
func (r *UsersRepository) RecordLoginFailure(ctx context.Context, id uuid.UUID, maxAttempts int, lockFor time.Duration) error {
	query := `
		UPDATE users
		SET failed_login_attempts = failed_login_attempts + 1,
		    locked_until = CASE
		        WHEN failed_login_attempts + 1 >= $2 THEN NOW() + make_interval(secs => $3)
		        ELSE locked_until
		    END,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id, maxAttempts, lockFor.Seconds())
	return err
}

// RecordLoginSuccess resets the failed-attempt counter, clears any lock
// and stamps the last-login time.
func (r *UsersRepository) RecordLoginSuccess(ctx context.Context, id uuid.UUID, at time.Time) error {
	query := `
		UPDATE users
		SET failed_login_attempts = 0,
		    locked_until = NULL,
		    last_login_at = $2,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	_, err := r.db.ExecContext(ctx, query, id, at)
	return err
}

// SaveTOTPSetup stores a fresh secret and backup-code batch with 2FA
// still disabled, replacing any earlier unconfirmed setup.
func (r *UsersRepository) SaveTOTPSetup(ctx context.Context, id uuid.UUID, secret []byte, backupCodes []string) error {
	stored, err := r.sealSecret(secret)
	if err != nil {
		return err
	}
	query := `
		UPDATE users
		SET totp_secret = $2,
		    totp_enabled = FALSE,
		    backup_codes = $3,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOnUser(ctx, query, id, stored, pq.Array(backupCodes))
}

// SetTOTPEnabled flips the 2FA flag.
func (r *UsersRepository) SetTOTPEnabled(ctx context.Context, id uuid.UUID, enabled bool) error {
	query := `
		UPDATE users
		SET totp_enabled = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOnUser(ctx, query, id, enabled)
}

// ClearTOTP removes the secret, the flag and all backup codes together.
func (r *UsersRepository) ClearTOTP(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET totp_secret = NULL,
		    totp_enabled = FALSE,
		    backup_codes = NULL,
		    updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOnUser(ctx, query, id)
}

// SaveBackupCodes replaces the unused backup-code set.
func (r *UsersRepository) SaveBackupCodes(ctx context.Context, id uuid.UUID, codes []string) error {
	query := `
		UPDATE users
		SET backup_codes = $2, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOnUser(ctx, query, id, pq.Array(codes))
}

// SetEmailVerified marks the user's email address as confirmed.
func (r *UsersRepository) SetEmailVerified(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET email_verified = TRUE, updated_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOnUser(ctx, query, id)
}

// SoftDelete soft-deletes a user.
func (r *UsersRepository) SoftDelete(ctx context.Context, id uuid.UUID) error {
	query := `
		UPDATE users
		SET deleted_at = NOW()
		WHERE id = $1 AND deleted_at IS NULL
	`
	return r.execOnUser(ctx, query, id)
}

func (r *UsersRepository) execOnUser(ctx context.Context, query string, id uuid.UUID, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return err
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *UsersRepository) scanUser(row *sql.Row) (*domain.User, error) {
	user := &domain.User{}
	var secret []byte
	err := row.Scan(
		&user.ID, &user.Email, &user.Username, &user.Name, &user.Provider,
		&user.Active, &user.EmailVerified, &user.PasswordHash,
		&secret, &user.TOTPEnabled, pq.Array(&user.BackupCodes),
		&user.FailedLoginAttempts, &user.LockedUntil, &user.LastLoginAt,
		&user.CreatedAt, &user.UpdatedAt, &user.DeletedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	user.TOTPSecret, err = r.openSecret(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to decrypt TOTP secret: %w", err)
	}
	return user, nil
}

func (r *UsersRepository) sealSecret(secret []byte) ([]byte, error) {
	if r.cipher == nil || secret == nil {
		return secret, nil
	}
	sealed, err := r.cipher.Encrypt(secret)
	if err != nil {
		return nil, fmt.Errorf("failed to encrypt TOTP secret: %w", err)
	}
	return sealed, nil
}

func (r *UsersRepository) openSecret(stored []byte) ([]byte, error) {
	if r.cipher == nil || stored == nil {
		return stored, nil
	}
	return r.cipher.Decrypt(stored)
}
