package domain

import (
	"time"

	"github.com/google/uuid"
)

// Registration provider constants.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

// User is the credential record. Login reads and mutates the lockout and
// second-factor fields; everything else belongs to the profile.
type User struct {
	ID                  uuid.UUID
	Email               string
	Username            *string
	Name                *string
	Provider            string
	Active              bool
	EmailVerified       bool
	PasswordHash        string
	TOTPSecret          []byte // raw key bytes, nil when 2FA is off
	TOTPEnabled         bool
	BackupCodes         []string
	FailedLoginAttempts int
	LockedUntil         *time.Time
	LastLoginAt         *time.Time
	CreatedAt           time.Time
	UpdatedAt           time.Time
	DeletedAt           *time.Time
}

// IsLocked returns true if the account is currently locked.
func (u *User) IsLocked() bool {
	if u.LockedUntil == nil {
		return false
	}
	return time.Now().Before(*u.LockedUntil)
}

// IsLocal returns true for accounts registered with email/password
// rather than a federated identity provider.
func (u *User) IsLocal() bool {
	return u.Provider == ProviderLocal
}
