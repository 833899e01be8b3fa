package auth

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	pqotp "github.com/pquerna/otp"
	pqtotp "github.com/pquerna/otp/totp"

	"github.com/shelfmark/shelfmark/pkg/domain"
	"github.com/shelfmark/shelfmark/pkg/otp"
)

func newMFAService(users ...*domain.User) (*MFAService, *memStore) {
	store := newMemStore(users...)
	return NewMFAService(MFAConfig{Issuer: "Shelfmark"}, store), store
}

func TestEnableTOTP(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	svc, store := newMFAService(user)

	setup, err := svc.EnableTOTP(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("EnableTOTP() error = %v", err)
	}

	// 20-byte secret encodes to 32 Base32 characters.
	if len(setup.Secret) != 32 {
		t.Errorf("Secret length = %d, want 32", len(setup.Secret))
	}
	if !strings.HasPrefix(setup.ProvisioningURI, "otpauth://totp/Shelfmark:alice@example.com?") {
		t.Errorf("unexpected provisioning URI: %s", setup.ProvisioningURI)
	}
	if len(setup.BackupCodes) != otp.BackupCodeCount {
		t.Errorf("got %d backup codes, want %d", len(setup.BackupCodes), otp.BackupCodeCount)
	}

	// Persisted, but not yet trusted.
	stored := store.users[user.ID]
	if len(stored.TOTPSecret) != otp.SecretSize {
		t.Errorf("stored secret length = %d, want %d", len(stored.TOTPSecret), otp.SecretSize)
	}
	if stored.TOTPEnabled {
		t.Error("TOTP enabled before confirmation")
	}
}

func TestEnableTOTP_AlreadyEnabled(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	user.TOTPEnabled = true
	user.TOTPSecret = make([]byte, otp.SecretSize)
	svc, _ := newMFAService(user)

	if _, err := svc.EnableTOTP(context.Background(), user.ID); !errors.Is(err, domain.ErrTOTPAlreadyEnabled) {
		t.Errorf("error = %v, want ErrTOTPAlreadyEnabled", err)
	}
}

func TestConfirmTOTP(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	svc, store := newMFAService(user)
	ctx := context.Background()

	if _, err := svc.EnableTOTP(ctx, user.ID); err != nil {
		t.Fatalf("EnableTOTP() error = %v", err)
	}
	secret := store.users[user.ID].TOTPSecret

	// A wrong code leaves the flag off.
	ok, err := svc.ConfirmTOTP(ctx, user.ID, "000000")
	if err != nil {
		t.Fatalf("ConfirmTOTP() error = %v", err)
	}
	if ok || store.users[user.ID].TOTPEnabled {
		t.Fatal("wrong code enabled TOTP")
	}

	code, err := pqtotp.GenerateCodeCustom(otp.EncodeBase32(secret), time.Now(), pqtotp.ValidateOpts{
		Period:    otp.Period,
		Skew:      1,
		Digits:    pqotp.DigitsSix,
		Algorithm: pqotp.AlgorithmSHA1,
	})
	if err != nil {
		t.Fatalf("GenerateCodeCustom() error = %v", err)
	}

	ok, err = svc.ConfirmTOTP(ctx, user.ID, code)
	if err != nil {
		t.Fatalf("ConfirmTOTP() error = %v", err)
	}
	if !ok {
		t.Fatal("valid code rejected")
	}
	if !store.users[user.ID].TOTPEnabled {
		t.Error("TOTP not enabled after confirmation")
	}
}

func TestConfirmTOTP_WithoutSetup(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	svc, _ := newMFAService(user)

	if _, err := svc.ConfirmTOTP(context.Background(), user.ID, "123456"); !errors.Is(err, domain.ErrTOTPNotConfigured) {
		t.Errorf("error = %v, want ErrTOTPNotConfigured", err)
	}
}

func TestDisableTOTP(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	user.TOTPEnabled = true
	user.TOTPSecret = make([]byte, otp.SecretSize)
	user.BackupCodes = []string{"11111111"}
	svc, store := newMFAService(user)

	if err := svc.DisableTOTP(context.Background(), user.ID); err != nil {
		t.Fatalf("DisableTOTP() error = %v", err)
	}

	// Secret, flag and backup codes go together.
	stored := store.users[user.ID]
	if stored.TOTPEnabled || stored.TOTPSecret != nil || stored.BackupCodes != nil {
		t.Errorf("TOTP state not fully cleared: enabled=%v secret=%v codes=%v",
			stored.TOTPEnabled, stored.TOTPSecret, stored.BackupCodes)
	}
}

func TestDisableTOTP_NotEnabled(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	svc, _ := newMFAService(user)

	if err := svc.DisableTOTP(context.Background(), user.ID); !errors.Is(err, domain.ErrTOTPNotEnabled) {
		t.Errorf("error = %v, want ErrTOTPNotEnabled", err)
	}
}

func TestRegenerateBackupCodes(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	user.TOTPEnabled = true
	user.TOTPSecret = make([]byte, otp.SecretSize)
	user.BackupCodes = []string{"11111111", "22222222"}
	svc, store := newMFAService(user)

	codes, err := svc.RegenerateBackupCodes(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("RegenerateBackupCodes() error = %v", err)
	}
	if len(codes) != otp.BackupCodeCount {
		t.Fatalf("got %d codes, want %d", len(codes), otp.BackupCodeCount)
	}

	stored := store.users[user.ID].BackupCodes
	if len(stored) != otp.BackupCodeCount {
		t.Fatalf("stored %d codes, want %d", len(stored), otp.BackupCodeCount)
	}
	for _, old := range []string{"11111111", "22222222"} {
		for _, code := range stored {
			if code == old {
				t.Errorf("old code %s survived regeneration", old)
			}
		}
	}
}

func TestRegenerateBackupCodes_RequiresEnabledTOTP(t *testing.T) {
	user := localUser("alice@example.com", "pw")
	svc, _ := newMFAService(user)

	if _, err := svc.RegenerateBackupCodes(context.Background(), user.ID); !errors.Is(err, domain.ErrTOTPNotEnabled) {
		t.Errorf("error = %v, want ErrTOTPNotEnabled", err)
	}
}
