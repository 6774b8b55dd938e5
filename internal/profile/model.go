package profile

import (
	"time"

	"github.com/google/uuid"
)

// Roles a profile can hold.
const (
	RoleAdmin    = "admin"
	RoleTeamLead = "team_lead"
)

// Profile represents a row in the profiles table.
type Profile struct {
	ID           uuid.UUID
	Email        string
	PasswordHash string
	Role         string // "admin" or "team_lead"
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
