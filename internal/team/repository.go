package team

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrTeamNotFound is returned when a team record is not found.
var ErrTeamNotFound = errors.New("team not found")

// ErrMemberNotFound is returned when a team member record is not found.
var ErrMemberNotFound = errors.New("team member not found")

// ErrDuplicateAccountID is returned when a team with the same account ID already exists.
var ErrDuplicateAccountID = errors.New("account ID already taken")

// ErrRosterFull is returned when adding a member would exceed MaxMembers.
var ErrRosterFull = errors.New("team roster is full")

// ErrTeamHasEntries is returned when attempting to delete a team that still
// has ledger entries referencing it.
var ErrTeamHasEntries = errors.New("team has leaderboard entries")

// ErrAlreadyInChallenge is returned when a team joins a challenge it already
// participates in.
var ErrAlreadyInChallenge = errors.New("team already participates in challenge")

// ErrNotInChallenge is returned when leaving a challenge the team does not
// participate in.
var ErrNotInChallenge = errors.New("team does not participate in challenge")

// ErrUnknownChallenge is returned when the referenced challenge does not exist.
var ErrUnknownChallenge = errors.New("challenge not found")

// Repository provides operations on the teams, team_members and
// team_challenges tables.
type Repository interface {
	Create(ctx context.Context, t *Team) error
	GetByID(ctx context.Context, id uuid.UUID) (*Team, error)
	GetByAccountID(ctx context.Context, accountID string) (*Team, error)
	GetByLeadID(ctx context.Context, leadID uuid.UUID) (*Team, error)
	List(ctx context.Context) ([]Team, error)
	Update(ctx context.Context, id uuid.UUID, upd Update) (*Team, error)
	Delete(ctx context.Context, id uuid.UUID) error

	AddMember(ctx context.Context, m *Member) error
	UpdateMember(ctx context.Context, teamID, id uuid.UUID, name, role, avatar *string) (*Member, error)
	RemoveMember(ctx context.Context, teamID, id uuid.UUID) error

	JoinChallenge(ctx context.Context, teamID, challengeID uuid.UUID) error
	LeaveChallenge(ctx context.Context, teamID, challengeID uuid.UUID) error
}
