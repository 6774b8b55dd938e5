package validation

import "strings"

var difficulties = map[string]bool{"Easy": true, "Medium": true, "Hard": true}
var statuses = map[string]bool{"active": true, "completed": true, "upcoming": true}

// CreateChallengeRequest mirrors the fields needed for create challenge validation.
type CreateChallengeRequest struct {
	Title      string
	Difficulty string
	Category   string
	MaxPoints  int
	Status     string
}

// ValidateCreateChallengeRequest validates the fields of a create challenge request.
func ValidateCreateChallengeRequest(req CreateChallengeRequest) []FieldError {
	var errs []FieldError

	title := strings.TrimSpace(req.Title)
	if title == "" {
		errs = append(errs, FieldError{Field: "title", Message: "title is required"})
	} else if len(title) > 255 {
		errs = append(errs, FieldError{Field: "title", Message: "title must be at most 255 characters"})
	}

	if !difficulties[req.Difficulty] {
		errs = append(errs, FieldError{Field: "difficulty", Message: "difficulty must be \"Easy\", \"Medium\" or \"Hard\""})
	}

	if strings.TrimSpace(req.Category) == "" {
		errs = append(errs, FieldError{Field: "category", Message: "category is required"})
	}

	if req.MaxPoints <= 0 {
		errs = append(errs, FieldError{Field: "maxPoints", Message: "maxPoints must be a positive integer"})
	}

	if req.Status != "" && !statuses[req.Status] {
		errs = append(errs, FieldError{Field: "status", Message: "status must be \"active\", \"completed\" or \"upcoming\""})
	}

	return errs
}

// UpdateChallengeRequest mirrors the optional fields of a challenge update.
type UpdateChallengeRequest struct {
	Difficulty *string
	Status     *string
	MaxPoints  *int
}

// ValidateUpdateChallengeRequest validates the provided fields of a challenge update.
func ValidateUpdateChallengeRequest(req UpdateChallengeRequest) []FieldError {
	var errs []FieldError

	if req.Difficulty != nil && !difficulties[*req.Difficulty] {
		errs = append(errs, FieldError{Field: "difficulty", Message: "difficulty must be \"Easy\", \"Medium\" or \"Hard\""})
	}

	if req.Status != nil && !statuses[*req.Status] {
		errs = append(errs, FieldError{Field: "status", Message: "status must be \"active\", \"completed\" or \"upcoming\""})
	}

	if req.MaxPoints != nil && *req.MaxPoints <= 0 {
		errs = append(errs, FieldError{Field: "maxPoints", Message: "maxPoints must be a positive integer"})
	}

	return errs
}
