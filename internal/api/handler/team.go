package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/api/response"
	"github.com/hackarena/portal/internal/api/validation"
	"github.com/hackarena/portal/internal/notify"
	"github.com/hackarena/portal/internal/profile"
	"github.com/hackarena/portal/internal/team"
)

// PasswordHasher hashes plaintext passwords for new lead profiles.
type PasswordHasher interface {
	HashPassword(password string) (string, error)
}

// TeamHandler handles team and roster endpoints.
type TeamHandler struct {
	repo     team.Repository
	profiles profile.Repository
	hasher   PasswordHasher
	bus      notify.Bus
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(repo team.Repository, profiles profile.Repository, hasher PasswordHasher, bus notify.Bus) *TeamHandler {
	return &TeamHandler{repo: repo, profiles: profiles, hasher: hasher, bus: bus}
}

type memberResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

type teamResponse struct {
	ID           string           `json:"id"`
	AccountID    string           `json:"accountId"`
	Name         string           `json:"name"`
	Description  string           `json:"description"`
	Avatar       string           `json:"avatar"`
	PhotoURL     *string          `json:"photoUrl"`
	Members      []memberResponse `json:"members"`
	ChallengeIDs []string         `json:"challengeIds"`
	CreatedAt    string           `json:"createdAt"`
	UpdatedAt    string           `json:"updatedAt"`
}

func toTeamResponse(t *team.Team) teamResponse {
	members := make([]memberResponse, 0, len(t.Members))
	for _, m := range t.Members {
		members = append(members, memberResponse{
			ID:     m.ID.String(),
			Name:   m.Name,
			Role:   m.Role,
			Avatar: m.Avatar,
		})
	}
	challengeIDs := make([]string, 0, len(t.ChallengeIDs))
	for _, id := range t.ChallengeIDs {
		challengeIDs = append(challengeIDs, id.String())
	}
	return teamResponse{
		ID:           t.ID.String(),
		AccountID:    t.AccountID,
		Name:         t.Name,
		Description:  t.Description,
		Avatar:       t.Avatar,
		PhotoURL:     t.PhotoURL,
		Members:      members,
		ChallengeIDs: challengeIDs,
		CreatedAt:    t.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:    t.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

// publishTeamChange emits a change notification for the teams topic.
// Publish failures are logged only; the periodic resync covers them.
func (h *TeamHandler) publishTeamChange(op string, id uuid.UUID) {
	ev := notify.Event{Table: "teams", Op: op, ID: id.String()}
	if err := h.bus.Publish(notify.TopicTeams, ev); err != nil {
		slog.Warn("failed to publish team change notification", "error", err)
	}
}

// List handles GET /teams.
func (h *TeamHandler) List(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teams, err := h.repo.List(r.Context())
	if err != nil {
		slog.Error("failed to list teams", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list teams", requestID)
		return
	}

	items := make([]teamResponse, 0, len(teams))
	for i := range teams {
		items = append(items, toTeamResponse(&teams[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// GetByID handles GET /teams/{id}.
func (h *TeamHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	t, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to get team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get team", requestID)
		return
	}

	response.Success(w, http.StatusOK, toTeamResponse(t), requestID)
}

type createTeamRequest struct {
	AccountID    string `json:"accountId"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Avatar       string `json:"avatar"`
	LeadEmail    string `json:"leadEmail"`
	LeadPassword string `json:"leadPassword"`
}

// Create handles POST /admin/teams. When lead credentials are provided a
// team_lead profile is created and attached as the team's lead.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateTeamRequest(validation.CreateTeamRequest{
		AccountID: req.AccountID,
		Name:      req.Name,
		LeadEmail: req.LeadEmail,
	})
	if req.LeadEmail != "" && req.LeadPassword == "" {
		fieldErrors = append(fieldErrors, validation.FieldError{Field: "leadPassword", Message: "leadPassword is required when leadEmail is set"})
	}
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	t := &team.Team{
		AccountID:   req.AccountID,
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
	}

	if req.LeadEmail != "" {
		hash, err := h.hasher.HashPassword(req.LeadPassword)
		if err != nil {
			slog.Error("failed to hash lead password", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", requestID)
			return
		}
		lead := &profile.Profile{Email: req.LeadEmail, PasswordHash: hash, Role: profile.RoleTeamLead}
		if err := h.profiles.Create(r.Context(), lead); err != nil {
			if errors.Is(err, profile.ErrDuplicateEmail) {
				response.Err(w, http.StatusConflict, "DUPLICATE_EMAIL", fmt.Sprintf("A profile with email %q already exists", req.LeadEmail), requestID)
				return
			}
			slog.Error("failed to create lead profile", "error", err)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", requestID)
			return
		}
		t.TeamLeadID = &lead.ID
	}

	if err := h.repo.Create(r.Context(), t); err != nil {
		if errors.Is(err, team.ErrDuplicateAccountID) {
			response.Err(w, http.StatusConflict, "DUPLICATE_ACCOUNT_ID", fmt.Sprintf("A team with account ID %q already exists", req.AccountID), requestID)
			return
		}
		slog.Error("failed to create team", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create team", requestID)
		return
	}

	h.publishTeamChange(notify.OpInsert, t.ID)
	response.Success(w, http.StatusCreated, toTeamResponse(t), requestID)
}

type updateTeamRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	Avatar      *string `json:"avatar"`
	PhotoURL    *string `json:"photoUrl"`
}

// Update handles PATCH /teams/{id}. Access is restricted to admins and the
// team's own lead by middleware.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateTeamRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	if req.Name != nil && *req.Name == "" {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed",
			[]validation.FieldError{{Field: "name", Message: "name must not be empty"}}, requestID)
		return
	}

	t, err := h.repo.Update(r.Context(), id, team.Update{
		Name:        req.Name,
		Description: req.Description,
		Avatar:      req.Avatar,
		PhotoURL:    req.PhotoURL,
	})
	if err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		slog.Error("failed to update team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update team", requestID)
		return
	}

	h.publishTeamChange(notify.OpUpdate, t.ID)
	response.Success(w, http.StatusOK, toTeamResponse(t), requestID)
}

// Delete handles DELETE /admin/teams/{id}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		if errors.Is(err, team.ErrTeamHasEntries) {
			response.Err(w, http.StatusConflict, "TEAM_HAS_ENTRIES", "Cannot delete a team with leaderboard entries", requestID)
			return
		}
		slog.Error("failed to delete team", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to delete team", requestID)
		return
	}

	h.publishTeamChange(notify.OpDelete, id)
	response.NoContent(w)
}

type addMemberRequest struct {
	Name   string `json:"name"`
	Role   string `json:"role"`
	Avatar string `json:"avatar"`
}

// AddMember handles POST /teams/{id}/members.
func (h *TeamHandler) AddMember(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req addMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAddMemberRequest(validation.AddMemberRequest{
		Name: req.Name,
		Role: req.Role,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	m := &team.Member{
		TeamID: teamID,
		Name:   req.Name,
		Role:   req.Role,
		Avatar: req.Avatar,
	}

	if err := h.repo.AddMember(r.Context(), m); err != nil {
		if errors.Is(err, team.ErrTeamNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
			return
		}
		if errors.Is(err, team.ErrRosterFull) {
			response.Err(w, http.StatusConflict, "ROSTER_FULL",
				fmt.Sprintf("A team can have at most %d members", team.MaxMembers), requestID)
			return
		}
		slog.Error("failed to add team member", "error", err, "teamId", teamID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to add team member", requestID)
		return
	}

	h.publishTeamChange(notify.OpUpdate, teamID)
	response.Success(w, http.StatusCreated, memberResponse{
		ID:     m.ID.String(),
		Name:   m.Name,
		Role:   m.Role,
		Avatar: m.Avatar,
	}, requestID)
}

type updateMemberRequest struct {
	Name   *string `json:"name"`
	Role   *string `json:"role"`
	Avatar *string `json:"avatar"`
}

// UpdateMember handles PATCH /teams/{id}/members/{memberId}.
func (h *TeamHandler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	memberID, err := uuid.Parse(chi.URLParam(r, "memberId"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "memberId must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateMemberRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	m, err := h.repo.UpdateMember(r.Context(), teamID, memberID, req.Name, req.Role, req.Avatar)
	if err != nil {
		if errors.Is(err, team.ErrMemberNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team member not found", requestID)
			return
		}
		slog.Error("failed to update team member", "error", err, "memberId", memberID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update team member", requestID)
		return
	}

	h.publishTeamChange(notify.OpUpdate, teamID)
	response.Success(w, http.StatusOK, memberResponse{
		ID:     m.ID.String(),
		Name:   m.Name,
		Role:   m.Role,
		Avatar: m.Avatar,
	}, requestID)
}

// JoinChallenge handles POST /teams/{id}/challenges/{challengeId}.
func (h *TeamHandler) JoinChallenge(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	challengeID, err := uuid.Parse(chi.URLParam(r, "challengeId"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "challengeId must be a valid UUID", requestID)
		return
	}

	if err := h.repo.JoinChallenge(r.Context(), teamID, challengeID); err != nil {
		switch {
		case errors.Is(err, team.ErrTeamNotFound):
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team not found", requestID)
		case errors.Is(err, team.ErrUnknownChallenge):
			response.Err(w, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "Challenge not found", requestID)
		case errors.Is(err, team.ErrAlreadyInChallenge):
			response.Err(w, http.StatusConflict, "ALREADY_IN_CHALLENGE", "Team already participates in this challenge", requestID)
		default:
			slog.Error("failed to join challenge", "error", err, "teamId", teamID, "challengeId", challengeID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to join challenge", requestID)
		}
		return
	}

	h.publishTeamChange(notify.OpUpdate, teamID)
	response.Success(w, http.StatusCreated, map[string]string{
		"teamId":      teamID.String(),
		"challengeId": challengeID.String(),
	}, requestID)
}

// LeaveChallenge handles DELETE /teams/{id}/challenges/{challengeId}.
func (h *TeamHandler) LeaveChallenge(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	challengeID, err := uuid.Parse(chi.URLParam(r, "challengeId"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "challengeId must be a valid UUID", requestID)
		return
	}

	if err := h.repo.LeaveChallenge(r.Context(), teamID, challengeID); err != nil {
		if errors.Is(err, team.ErrNotInChallenge) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team does not participate in this challenge", requestID)
			return
		}
		slog.Error("failed to leave challenge", "error", err, "teamId", teamID, "challengeId", challengeID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to leave challenge", requestID)
		return
	}

	h.publishTeamChange(notify.OpUpdate, teamID)
	response.NoContent(w)
}

// RemoveMember handles DELETE /teams/{id}/members/{memberId}.
func (h *TeamHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	teamID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	memberID, err := uuid.Parse(chi.URLParam(r, "memberId"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "memberId must be a valid UUID", requestID)
		return
	}

	if err := h.repo.RemoveMember(r.Context(), teamID, memberID); err != nil {
		if errors.Is(err, team.ErrMemberNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Team member not found", requestID)
			return
		}
		slog.Error("failed to remove team member", "error", err, "memberId", memberID)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to remove team member", requestID)
		return
	}

	h.publishTeamChange(notify.OpUpdate, teamID)
	response.NoContent(w)
}
