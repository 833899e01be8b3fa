package domain

import "errors"

// Account errors
var (
	ErrUserNotFound          = errors.New("user not found")
	ErrUserAlreadyExists     = errors.New("user already exists")
	ErrUsernameAlreadyExists = errors.New("username already exists")
	ErrWeakPassword          = errors.New("password does not meet requirements")
)

// Session errors
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrSessionRevoked  = errors.New("session revoked")
	ErrInvalidToken    = errors.New("invalid token")
)

// Second-factor errors. These cover enrollment management only; login
// rejections are LoginResult statuses, not errors.
var (
	ErrTOTPAlreadyEnabled = errors.New("two-factor authentication is already enabled")
	ErrTOTPNotConfigured  = errors.New("two-factor authentication has not been set up")
	ErrTOTPNotEnabled     = errors.New("two-factor authentication is not enabled")
)

// Verification token errors
var (
	ErrVerificationTokenNotFound = errors.New("verification token not found")
	ErrVerificationTokenExpired  = errors.New("verification token expired")
	ErrVerificationTokenConsumed = errors.New("verification token already used")
)

// Collection errors
var (
	ErrItemNotFound = errors.New("collection item not found")
)
