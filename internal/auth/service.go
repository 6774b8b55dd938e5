package auth

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/hackarena/portal/internal/profile"
	"github.com/hackarena/portal/internal/team"
)

// ErrInvalidCredentials is returned when the identifier or password is wrong.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidToken is returned when a session token is malformed, expired or
// signed with the wrong key.
var ErrInvalidToken = errors.New("invalid or expired token")

// Service provides login and session-token operations.
type Service struct {
	profiles   profile.Repository
	teams      team.Repository
	secret     []byte
	ttl        time.Duration
	bcryptCost int
}

// NewService creates a new auth Service.
func NewService(profiles profile.Repository, teams team.Repository, secret string, ttl time.Duration, bcryptCost int) *Service {
	return &Service{
		profiles:   profiles,
		teams:      teams,
		secret:     []byte(secret),
		ttl:        ttl,
		bcryptCost: bcryptCost,
	}
}

type sessionClaims struct {
	jwt.RegisteredClaims
	Email  string `json:"email"`
	Role   string `json:"role"`
	TeamID string `json:"teamId,omitempty"`
}

// Login resolves an identifier (profile email or team account ID) and
// password to a signed session token. Unknown identifiers and wrong
// passwords are indistinguishable to the caller.
func (s *Service) Login(ctx context.Context, identifier, password string) (string, *Identity, error) {
	p, err := s.resolveProfile(ctx, identifier)
	if err != nil {
		if errors.Is(err, profile.ErrProfileNotFound) || errors.Is(err, team.ErrTeamNotFound) {
			return "", nil, ErrInvalidCredentials
		}
		return "", nil, fmt.Errorf("resolving profile: %w", err)
	}

	if bcrypt.CompareHashAndPassword([]byte(p.PasswordHash), []byte(password)) != nil {
		return "", nil, ErrInvalidCredentials
	}

	identity := &Identity{ProfileID: p.ID, Email: p.Email, Role: p.Role}
	if p.Role == profile.RoleTeamLead {
		t, err := s.teams.GetByLeadID(ctx, p.ID)
		if err != nil && !errors.Is(err, team.ErrTeamNotFound) {
			return "", nil, fmt.Errorf("resolving led team: %w", err)
		}
		if t != nil {
			identity.TeamID = &t.ID
		}
	}

	token, err := s.issueToken(identity)
	if err != nil {
		return "", nil, err
	}

	return token, identity, nil
}

// Verify parses a session token and reconstructs the Identity from its claims.
func (s *Service) Verify(tokenString string) (*Identity, error) {
	var claims sessionClaims
	token, err := jwt.ParseWithClaims(tokenString, &claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}

	profileID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return nil, ErrInvalidToken
	}

	identity := &Identity{ProfileID: profileID, Email: claims.Email, Role: claims.Role}
	if claims.TeamID != "" {
		teamID, err := uuid.Parse(claims.TeamID)
		if err != nil {
			return nil, ErrInvalidToken
		}
		identity.TeamID = &teamID
	}

	return identity, nil
}

// HashPassword hashes a plaintext password with the configured bcrypt cost.
func (s *Service) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hash), nil
}

// BootstrapAdmin creates the initial admin profile if no profiles exist.
// It is a no-op when the profiles table already has rows.
func (s *Service) BootstrapAdmin(ctx context.Context, email, password string) error {
	if email == "" || password == "" {
		return nil
	}

	count, err := s.profiles.CountAll(ctx)
	if err != nil {
		return fmt.Errorf("counting profiles: %w", err)
	}
	if count > 0 {
		return nil
	}

	hash, err := s.HashPassword(password)
	if err != nil {
		return err
	}

	p := &profile.Profile{Email: email, PasswordHash: hash, Role: profile.RoleAdmin}
	if err := s.profiles.Create(ctx, p); err != nil {
		return fmt.Errorf("creating bootstrap admin: %w", err)
	}

	slog.Info("bootstrap admin profile created", "email", email)
	return nil
}

func (s *Service) resolveProfile(ctx context.Context, identifier string) (*profile.Profile, error) {
	p, err := s.profiles.GetByEmail(ctx, identifier)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, profile.ErrProfileNotFound) {
		return nil, err
	}

	// Not an email: try a team account handle whose lead logs in on the
	// team's behalf.
	t, err := s.teams.GetByAccountID(ctx, identifier)
	if err != nil {
		return nil, err
	}
	if t.TeamLeadID == nil {
		return nil, profile.ErrProfileNotFound
	}
	return s.profiles.GetByID(ctx, *t.TeamLeadID)
}

func (s *Service) issueToken(identity *Identity) (string, error) {
	now := time.Now()
	claims := &sessionClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.New().String(),
			Subject:   identity.ProfileID.String(),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
		},
		Email: identity.Email,
		Role:  identity.Role,
	}
	if identity.TeamID != nil {
		claims.TeamID = identity.TeamID.String()
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}
