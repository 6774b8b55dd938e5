package validation

import "strings"

// CreateTeamRequest mirrors the fields needed for create team validation.
type CreateTeamRequest struct {
	AccountID string
	Name      string
	LeadEmail string
}

// ValidateCreateTeamRequest validates the fields of a create team request.
func ValidateCreateTeamRequest(req CreateTeamRequest) []FieldError {
	var errs []FieldError

	accountID := strings.TrimSpace(req.AccountID)
	if accountID == "" {
		errs = append(errs, FieldError{Field: "accountId", Message: "accountId is required"})
	} else if len(accountID) > 64 {
		errs = append(errs, FieldError{Field: "accountId", Message: "accountId must be at most 64 characters"})
	} else if strings.ContainsAny(accountID, " \t\n") {
		errs = append(errs, FieldError{Field: "accountId", Message: "accountId must not contain whitespace"})
	}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	if req.LeadEmail != "" && !strings.Contains(req.LeadEmail, "@") {
		errs = append(errs, FieldError{Field: "leadEmail", Message: "leadEmail must be a valid email address"})
	}

	return errs
}

// AddMemberRequest mirrors the fields needed for add member validation.
type AddMemberRequest struct {
	Name string
	Role string
}

// ValidateAddMemberRequest validates the fields of an add member request.
func ValidateAddMemberRequest(req AddMemberRequest) []FieldError {
	var errs []FieldError

	name := strings.TrimSpace(req.Name)
	if name == "" {
		errs = append(errs, FieldError{Field: "name", Message: "name is required"})
	} else if len(name) > 255 {
		errs = append(errs, FieldError{Field: "name", Message: "name must be at most 255 characters"})
	}

	role := strings.TrimSpace(req.Role)
	if role == "" {
		errs = append(errs, FieldError{Field: "role", Message: "role is required"})
	} else if len(role) > 64 {
		errs = append(errs, FieldError{Field: "role", Message: "role must be at most 64 characters"})
	}

	return errs
}
