package models

import (
	"time"

	"github.com/google/uuid"
)

// Tier - уровень подписки пользователя.
type Tier string

const (
	TierWanderer   Tier = "wanderer"
	TierScribe     Tier = "scribe"
	TierChronicler Tier = "chronicler"
)

// Valid проверяет, что уровень известен.
func (t Tier) Valid() bool {
	switch t {
	case TierWanderer, TierScribe, TierChronicler:
		return true
	}
	return false
}

// Profile - профиль пользователя из таблицы profiles.
type Profile struct {
	ID           uuid.UUID `json:"id" db:"id"`
	Email        string    `json:"email" db:"email"`
	DisplayName  *string   `json:"display_name" db:"display_name"`
	Tier         Tier      `json:"tier" db:"tier"`
	StoriesCount int       `json:"stories_count" db:"stories_count"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
