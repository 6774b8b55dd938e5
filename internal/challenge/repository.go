package challenge

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrChallengeNotFound is returned when a challenge record is not found.
var ErrChallengeNotFound = errors.New("challenge not found")

// Repository provides operations on the challenges table.
type Repository interface {
	Create(ctx context.Context, c *Challenge) error
	GetByID(ctx context.Context, id uuid.UUID) (*Challenge, error)
	// List returns challenges. When visibleOnly is true, hidden challenges
	// are excluded; the admin listing passes false.
	List(ctx context.Context, visibleOnly bool) ([]Challenge, error)
	Update(ctx context.Context, id uuid.UUID, upd Update) (*Challenge, error)
}
