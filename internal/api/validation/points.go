package validation

import (
	"github.com/google/uuid"
)

// AssignPointsRequest mirrors the fields needed for point assignment validation.
type AssignPointsRequest struct {
	TeamID      string
	ChallengeID string
	Points      *int
}

// ValidateAssignPointsRequest validates the fields of a point assignment.
// Any integer point value is allowed: corrections are expressed as new
// negative entries, and a zero-point entry records an annotation without
// moving the standings.
func ValidateAssignPointsRequest(req AssignPointsRequest) []FieldError {
	var errs []FieldError

	if req.TeamID == "" {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId is required"})
	} else if _, err := uuid.Parse(req.TeamID); err != nil {
		errs = append(errs, FieldError{Field: "teamId", Message: "teamId must be a valid UUID"})
	}

	if req.ChallengeID != "" {
		if _, err := uuid.Parse(req.ChallengeID); err != nil {
			errs = append(errs, FieldError{Field: "challengeId", Message: "challengeId must be a valid UUID"})
		}
	}

	if req.Points == nil {
		errs = append(errs, FieldError{Field: "points", Message: "points is required"})
	}

	return errs
}

// LoginRequest mirrors the fields needed for login validation.
type LoginRequest struct {
	Identifier string
	Password   string
}

// ValidateLoginRequest validates the fields of a login request.
func ValidateLoginRequest(req LoginRequest) []FieldError {
	var errs []FieldError

	if req.Identifier == "" {
		errs = append(errs, FieldError{Field: "identifier", Message: "identifier is required"})
	}
	if req.Password == "" {
		errs = append(errs, FieldError{Field: "password", Message: "password is required"})
	}

	return errs
}
