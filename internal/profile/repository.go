package profile

import (
	"context"
	"errors"

	"github.com/google/uuid"
)

// ErrProfileNotFound is returned when a profile record is not found.
var ErrProfileNotFound = errors.New("profile not found")

// ErrDuplicateEmail is returned when a profile with the same email already exists.
var ErrDuplicateEmail = errors.New("email already registered")

// Repository provides operations on the profiles table.
type Repository interface {
	Create(ctx context.Context, p *Profile) error
	GetByID(ctx context.Context, id uuid.UUID) (*Profile, error)
	GetByEmail(ctx context.Context, email string) (*Profile, error)
	CountAll(ctx context.Context) (int, error)
}
