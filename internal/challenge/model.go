package challenge

import (
	"time"

	"github.com/google/uuid"
)

// Difficulty levels.
const (
	DifficultyEasy   = "Easy"
	DifficultyMedium = "Medium"
	DifficultyHard   = "Hard"
)

// Statuses a challenge moves through.
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusUpcoming  = "upcoming"
)

// Challenge represents a row in the challenges table.
type Challenge struct {
	ID           uuid.UUID
	Title        string
	Description  string
	Difficulty   string // "Easy", "Medium" or "Hard"
	Category     string
	Icon         string
	Requirements []string
	IsVisible    bool
	MaxPoints    int
	Status       string // "active", "completed" or "upcoming"
	CreatedAt    time.Time
	UpdatedAt    time.Time

	ParticipantCount int
	Participants     []Participant // loaded on single-challenge reads
}

// Participant is a team taking part in a challenge.
type Participant struct {
	TeamID    uuid.UUID
	AccountID string
	Name      string
	Avatar    string
}

// Update describes a partial update to a challenge. Nil fields are left
// unchanged.
type Update struct {
	Title        *string
	Description  *string
	Difficulty   *string
	Category     *string
	Icon         *string
	Requirements *[]string
	IsVisible    *bool
	MaxPoints    *int
	Status       *string
}
