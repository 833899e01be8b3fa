// Package auth implements shelfmark's authentication services: the
// login state machine with lockout and TOTP second factor, 2FA
// enrollment, password hashing, and JWT-backed sessions. The services
// reach storage only through the collaborator interfaces in store.go.
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/shelfmark/shelfmark/pkg/domain"
	"github.com/shelfmark/shelfmark/pkg/otp"
)

// Lockout and verification defaults.
const (
	DefaultMaxFailedAttempts = 5
	DefaultLockoutDuration   = 30 * time.Minute
)

// LoginConfig tunes the login state machine.
type LoginConfig struct {
	// MaxFailedAttempts locks the account once the failure counter
	// reaches it (default 5).
	MaxFailedAttempts int
	// LockoutDuration is how long a lock lasts (default 30 minutes).
	LockoutDuration time.Duration
	// TOTPWindow is the clock-skew tolerance in time steps (default 1).
	TOTPWindow int
}

// LoginService runs the credential + second-factor login state machine.
// It is stateless between calls: a TOTP re-prompt is just a second call
// carrying the same identifier and password plus the code.
type LoginService struct {
	config    LoginConfig
	users     UserStore
	passwords PasswordVerifier
}

// NewLoginService creates a login service, applying defaults for any
// zero config fields.
func NewLoginService(config LoginConfig, users UserStore, passwords PasswordVerifier) *LoginService {
	if config.MaxFailedAttempts == 0 {
		config.MaxFailedAttempts = DefaultMaxFailedAttempts
	}
	if config.LockoutDuration == 0 {
		config.LockoutDuration = DefaultLockoutDuration
	}
	if config.TOTPWindow == 0 {
		config.TOTPWindow = otp.DefaultWindow
	}
	return &LoginService{
		config:    config,
		users:     users,
		passwords: passwords,
	}
}

// Login attempts to authenticate identifier/password, plus totpCode
// when the account has 2FA enabled (empty string means none was
// submitted). It returns exactly one tagged outcome; an error is only
// returned for infrastructure faults, never for rejected credentials.
func (s *LoginService) Login(ctx context.Context, identifier, password, totpCode string) (*domain.LoginResult, error) {
	user, err := s.users.FindByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			// Same outcome as a wrong password, so responses do not
			// reveal which accounts exist.
			return &domain.LoginResult{Status: domain.LoginInvalidCredentials}, nil
		}
		return nil, fmt.Errorf("failed to look up user: %w", err)
	}

	// Lockout wins over everything, including a correct password.
	if user.IsLocked() {
		return &domain.LoginResult{
			Status:      domain.LoginAccountLocked,
			LockedUntil: user.LockedUntil,
		}, nil
	}

	if !user.Active {
		return &domain.LoginResult{Status: domain.LoginAccountInactive}, nil
	}

	// Federated accounts have no local mailbox confirmation step.
	if user.IsLocal() && !user.EmailVerified {
		return &domain.LoginResult{
			Status: domain.LoginEmailUnverified,
			Email:  user.Email,
		}, nil
	}

	if !s.passwords.Verify(password, user.PasswordHash) {
		if err := s.recordFailure(ctx, user); err != nil {
			return nil, err
		}
		return &domain.LoginResult{Status: domain.LoginInvalidCredentials}, nil
	}

	if user.TOTPEnabled {
		if totpCode == "" {
			return &domain.LoginResult{Status: domain.LoginTOTPRequired}, nil
		}
		if !otp.Verify(user.TOTPSecret, totpCode, s.config.TOTPWindow) {
			// Backup codes stand in for the authenticator.
			consumed, remaining := otp.VerifyAndConsume(user.BackupCodes, totpCode)
			if !consumed {
				if err := s.recordFailure(ctx, user); err != nil {
					return nil, err
				}
				return &domain.LoginResult{Status: domain.LoginInvalidTOTP}, nil
			}
			if err := s.users.SaveBackupCodes(ctx, user.ID, remaining); err != nil {
				return nil, fmt.Errorf("failed to consume backup code: %w", err)
			}
			user.BackupCodes = remaining
		}
	}

	now := time.Now()
	if err := s.users.RecordLoginSuccess(ctx, user.ID, now); err != nil {
		return nil, fmt.Errorf("failed to record login: %w", err)
	}
	user.FailedLoginAttempts = 0
	user.LockedUntil = nil
	user.LastLoginAt = &now

	return &domain.LoginResult{Status: domain.LoginSuccess, User: user}, nil
}

func (s *LoginService) recordFailure(ctx context.Context, user *domain.User) error {
	err := s.users.RecordLoginFailure(ctx, user.ID, s.config.MaxFailedAttempts, s.config.LockoutDuration)
	if err != nil {
		return fmt.Errorf("failed to record login failure: %w", err)
	}
	return nil
}
