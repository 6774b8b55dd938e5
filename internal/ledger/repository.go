package ledger

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrUnknownTeam is returned when an entry references a team that does not exist.
var ErrUnknownTeam = errors.New("entry references unknown team")

// ErrUnknownChallenge is returned when an entry references a challenge that does not exist.
var ErrUnknownChallenge = errors.New("entry references unknown challenge")

// ErrUnknownProfile is returned when an entry's assigning profile does not exist.
var ErrUnknownProfile = errors.New("entry references unknown profile")

// Store provides append and read access to the point ledger. There is no
// update or delete operation.
type Store interface {
	// Append durably inserts a single entry. On success exactly one row
	// exists for the call; on failure none does.
	Append(ctx context.Context, e *Entry) error
	// List returns every entry in the ledger.
	List(ctx context.Context) ([]Entry, error)
	// ListByTeam returns all entries awarded to one team.
	ListByTeam(ctx context.Context, teamID uuid.UUID) ([]Entry, error)
	// ListDetailed returns recent entries joined with team and challenge
	// names, newest first, capped at limit.
	ListDetailed(ctx context.Context, limit int) ([]DetailedEntry, error)
}
