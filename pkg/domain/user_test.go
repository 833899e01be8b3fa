package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestUser_IsLocked(t *testing.T) {
	now := time.Now()
	past := now.Add(-1 * time.Hour)
	future := now.Add(1 * time.Hour)

	tests := []struct {
		name        string
		lockedUntil *time.Time
		want        bool
	}{
		{
			name:        "not locked (nil)",
			lockedUntil: nil,
			want:        false,
		},
		{
			name:        "locked (future time)",
			lockedUntil: &future,
			want:        true,
		},
		{
			name:        "not locked (past time)",
			lockedUntil: &past,
			want:        false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{
				ID:          uuid.New(),
				Email:       "test@example.com",
				LockedUntil: tt.lockedUntil,
			}

			if got := user.IsLocked(); got != tt.want {
				t.Errorf("IsLocked() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestUser_IsLocal(t *testing.T) {
	tests := []struct {
		name     string
		provider string
		want     bool
	}{
		{name: "local account", provider: ProviderLocal, want: true},
		{name: "google account", provider: ProviderGoogle, want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			user := &User{Provider: tt.provider}
			if got := user.IsLocal(); got != tt.want {
				t.Errorf("IsLocal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestSession_IsValid(t *testing.T) {
	now := time.Now()
	revoked := now.Add(-time.Minute)

	tests := []struct {
		name    string
		session Session
		want    bool
	}{
		{
			name:    "valid",
			session: Session{ExpiresAt: now.Add(time.Hour)},
			want:    true,
		},
		{
			name:    "expired",
			session: Session{ExpiresAt: now.Add(-time.Hour)},
			want:    false,
		},
		{
			name:    "revoked",
			session: Session{ExpiresAt: now.Add(time.Hour), RevokedAt: &revoked},
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.session.IsValid(); got != tt.want {
				t.Errorf("IsValid() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidItemKind(t *testing.T) {
	for _, kind := range []ItemKind{ItemKindGame, ItemKindFilm, ItemKindSeries, ItemKindBook} {
		if !ValidItemKind(kind) {
			t.Errorf("ValidItemKind(%q) = false, want true", kind)
		}
	}
	for _, kind := range []ItemKind{"", "music", "GAME"} {
		if ValidItemKind(kind) {
			t.Errorf("ValidItemKind(%q) = true, want false", kind)
		}
	}
}
