package ledger

import (
	"time"

	"github.com/google/uuid"
)

// Entry represents a row in the leaderboard_entries table: one immutable
// point award tied to a team. Corrections are expressed as new entries with
// negative points, never as edits; the table is append-only.
type Entry struct {
	ID          uuid.UUID
	TeamID      uuid.UUID
	ChallengeID *uuid.UUID
	Points      int
	Description *string
	AssignedBy  uuid.UUID
	CreatedAt   time.Time
}

// DetailedEntry is an Entry joined with display names for the admin panel.
type DetailedEntry struct {
	Entry
	TeamName       string
	ChallengeTitle *string
	AssignedByMail string
}
