package domain

import "time"

// LoginStatus tags the outcome of a login attempt. Exactly one status is
// produced per attempt.
type LoginStatus string

const (
	// LoginSuccess means the user authenticated fully, including the
	// second factor when one is enrolled.
	LoginSuccess LoginStatus = "success"
	// LoginInvalidCredentials covers both unknown identifiers and wrong
	// passwords so that responses do not leak which accounts exist.
	LoginInvalidCredentials LoginStatus = "invalid_credentials"
	// LoginAccountLocked means too many failed attempts; LockedUntil
	// carries the expiry.
	LoginAccountLocked LoginStatus = "account_locked"
	// LoginAccountInactive means the account has been deactivated.
	LoginAccountInactive LoginStatus = "account_inactive"
	// LoginEmailUnverified means a local account has not confirmed its
	// email address yet; Email carries the address for a resend flow.
	LoginEmailUnverified LoginStatus = "email_unverified"
	// LoginTOTPRequired means the password checked out but a second
	// factor is enrolled and no code was submitted. The caller re-prompts
	// and resubmits identifier, password and code together.
	LoginTOTPRequired LoginStatus = "totp_required"
	// LoginInvalidTOTP means the submitted code matched neither the
	// authenticator nor any unused backup code.
	LoginInvalidTOTP LoginStatus = "invalid_totp"
)

// LoginResult is the typed outcome of a login attempt. Authentication
// rejections are never surfaced as errors; errors are reserved for
// infrastructure faults such as an unreachable store.
type LoginResult struct {
	Status      LoginStatus
	User        *User      // set on LoginSuccess
	LockedUntil *time.Time // set on LoginAccountLocked
	Email       string     // set on LoginEmailUnverified
}

// MFASetup is returned when 2FA enrollment starts. Everything in it is
// shown to the user exactly once and never logged.
type MFASetup struct {
	Secret          string   // Base32 key for manual entry
	ProvisioningURI string   // otpauth:// URI for QR rendering
	BackupCodes     []string // plain single-use recovery codes
}
