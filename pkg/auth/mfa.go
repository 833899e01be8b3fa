package auth

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/shelfmark/shelfmark/pkg/domain"
	"github.com/shelfmark/shelfmark/pkg/otp"
)

// MFAConfig tunes the 2FA enrollment service.
type MFAConfig struct {
	// Issuer is shown in authenticator apps, e.g. "Shelfmark".
	Issuer string
	// TOTPWindow is the clock-skew tolerance used when confirming a
	// fresh enrollment (default 1).
	TOTPWindow int
	// BackupCodeCount is the batch size for recovery codes (default 10).
	BackupCodeCount int
}

// MFAService manages TOTP enrollment. Enabling is a two-step protocol:
// EnableTOTP stores a secret with the flag still off, and only a
// ConfirmTOTP call proving the authenticator works flips it on. An
// unconfirmed secret is harmless, since it cannot be used to log in
// while the flag is off.
type MFAService struct {
	config MFAConfig
	users  UserStore
}

// NewMFAService creates an MFA service, applying defaults for any zero
// config fields.
func NewMFAService(config MFAConfig, users UserStore) *MFAService {
	if config.TOTPWindow == 0 {
		config.TOTPWindow = otp.DefaultWindow
	}
	if config.BackupCodeCount == 0 {
		config.BackupCodeCount = otp.BackupCodeCount
	}
	return &MFAService{config: config, users: users}
}

// EnableTOTP generates a fresh secret and backup-code batch and
// persists them with 2FA still disabled. The returned setup is the one
// chance to show the secret and codes to the user.
func (s *MFAService) EnableTOTP(ctx context.Context, userID uuid.UUID) (*domain.MFASetup, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user.TOTPEnabled {
		return nil, domain.ErrTOTPAlreadyEnabled
	}

	secret, err := otp.GenerateSecret()
	if err != nil {
		return nil, err
	}
	backupCodes, err := otp.GenerateBackupCodes(s.config.BackupCodeCount)
	if err != nil {
		return nil, err
	}

	if err := s.users.SaveTOTPSetup(ctx, userID, secret, backupCodes); err != nil {
		return nil, fmt.Errorf("failed to save TOTP setup: %w", err)
	}

	return &domain.MFASetup{
		Secret:          otp.EncodeBase32(secret),
		ProvisioningURI: otp.ProvisioningURI(secret, user.Email, s.config.Issuer),
		BackupCodes:     backupCodes,
	}, nil
}

// ConfirmTOTP verifies a code against the just-issued secret and, on
// success, enables 2FA. Returns false (no error) for a wrong code.
func (s *MFAService) ConfirmTOTP(ctx context.Context, userID uuid.UUID, code string) (bool, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.TOTPEnabled {
		return false, domain.ErrTOTPAlreadyEnabled
	}
	if len(user.TOTPSecret) == 0 {
		return false, domain.ErrTOTPNotConfigured
	}

	if !otp.Verify(user.TOTPSecret, code, s.config.TOTPWindow) {
		return false, nil
	}

	if err := s.users.SetTOTPEnabled(ctx, userID, true); err != nil {
		return false, fmt.Errorf("failed to enable TOTP: %w", err)
	}
	return true, nil
}

// DisableTOTP clears the secret, the enabled flag and all backup codes
// together.
func (s *MFAService) DisableTOTP(ctx context.Context, userID uuid.UUID) error {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return err
	}
	if !user.TOTPEnabled && len(user.TOTPSecret) == 0 {
		return domain.ErrTOTPNotEnabled
	}

	if err := s.users.ClearTOTP(ctx, userID); err != nil {
		return fmt.Errorf("failed to disable TOTP: %w", err)
	}
	return nil
}

// RegenerateBackupCodes discards the old batch and persists a new one,
// returning the plain codes for display.
func (s *MFAService) RegenerateBackupCodes(ctx context.Context, userID uuid.UUID) ([]string, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !user.TOTPEnabled {
		return nil, domain.ErrTOTPNotEnabled
	}

	codes, err := otp.GenerateBackupCodes(s.config.BackupCodeCount)
	if err != nil {
		return nil, err
	}
	if err := s.users.SaveBackupCodes(ctx, userID, codes); err != nil {
		return nil, fmt.Errorf("failed to save backup codes: %w", err)
	}
	return codes, nil
}
