package domain

import (
	"time"

	"github.com/google/uuid"
)

// VerificationTokenKind distinguishes token purposes.
type VerificationTokenKind string

const (
	TokenKindEmailVerification VerificationTokenKind = "email_verification"
	TokenKindPasswordReset     VerificationTokenKind = "password_reset"
)

// VerificationToken is a single-use token sent to a user out of band.
// Only the hash is stored.
type VerificationToken struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	TokenHash  string
	Kind       VerificationTokenKind
	CreatedAt  time.Time
	ExpiresAt  time.Time
	ConsumedAt *time.Time
}

// IsValid reports whether the token is unconsumed and unexpired.
func (t *VerificationToken) IsValid() bool {
	return t.ConsumedAt == nil && time.Now().Before(t.ExpiresAt)
}
