package domain

import (
	"time"

	"github.com/google/uuid"
)

// ItemKind is the media category of a collection entry.
type ItemKind string

const (
	ItemKindGame   ItemKind = "game"
	ItemKindFilm   ItemKind = "film"
	ItemKindSeries ItemKind = "series"
	ItemKindBook   ItemKind = "book"
)

// ValidItemKind reports whether k is one of the supported categories.
func ValidItemKind(k ItemKind) bool {
	switch k {
	case ItemKindGame, ItemKindFilm, ItemKindSeries, ItemKindBook:
		return true
	}
	return false
}

// Item is one entry in a user's personal collection.
type Item struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	Kind      ItemKind
	Title     string
	Year      *int
	Rating    *int // 1..10, user's own rating
	Notes     *string
	CreatedAt time.Time
	UpdatedAt time.Time
}
