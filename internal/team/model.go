package team

import (
	"time"

	"github.com/google/uuid"
)

// MaxMembers is the roster bound per team.
const MaxMembers = 4

// Team represents a row in the teams table.
type Team struct {
	ID          uuid.UUID
	AccountID   string // unique login handle, e.g. "team-042"
	Name        string
	Description string
	Avatar      string
	PhotoURL    *string
	TeamLeadID  *uuid.UUID
	CreatedAt   time.Time
	UpdatedAt   time.Time

	Members      []Member
	ChallengeIDs []uuid.UUID // challenges the team participates in
}

// Member represents a row in the team_members table.
type Member struct {
	ID        uuid.UUID
	TeamID    uuid.UUID
	Name      string
	Role      string // free-form label, e.g. "Backend", "Design"
	Avatar    string
	CreatedAt time.Time
}

// Update describes a partial update to a team's profile fields. Nil fields
// are left unchanged.
type Update struct {
	Name        *string
	Description *string
	Avatar      *string
	PhotoURL    *string
}
