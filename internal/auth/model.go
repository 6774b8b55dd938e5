package auth

import "github.com/google/uuid"

// Identity is stored in the request context after authentication.
type Identity struct {
	ProfileID uuid.UUID
	Email     string
	Role      string     // "admin" or "team_lead"
	TeamID    *uuid.UUID // team led by this profile; nil for admins
}

// IsAdmin reports whether the identity holds the admin role.
func (i *Identity) IsAdmin() bool {
	return i.Role == "admin"
}

// LeadsTeam reports whether the identity is the lead of the given team.
func (i *Identity) LeadsTeam(teamID uuid.UUID) bool {
	return i.TeamID != nil && *i.TeamID == teamID
}
