package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/api/response"
	"github.com/hackarena/portal/internal/api/validation"
	"github.com/hackarena/portal/internal/leaderboard"
	"github.com/hackarena/portal/internal/ledger"
)

// PointsAssigner is the slice of the leaderboard service the admin points
// endpoint needs.
type PointsAssigner interface {
	AssignPoints(ctx context.Context, cmd leaderboard.AssignPointsCommand) (*ledger.Entry, error)
}

// PointsHandler handles the admin point assignment and ledger endpoints.
type PointsHandler struct {
	assigner PointsAssigner
	store    ledger.Store
}

// NewPointsHandler creates a new PointsHandler.
func NewPointsHandler(assigner PointsAssigner, store ledger.Store) *PointsHandler {
	return &PointsHandler{assigner: assigner, store: store}
}

type assignPointsRequest struct {
	TeamID      string  `json:"teamId"`
	ChallengeID string  `json:"challengeId"`
	Points      *int    `json:"points"`
	Description *string `json:"description"`
}

type entryResponse struct {
	ID          string  `json:"id"`
	TeamID      string  `json:"teamId"`
	ChallengeID *string `json:"challengeId"`
	Points      int     `json:"points"`
	Description *string `json:"description"`
	AssignedBy  string  `json:"assignedBy"`
	CreatedAt   string  `json:"createdAt"`
}

func toEntryResponse(e *ledger.Entry) entryResponse {
	resp := entryResponse{
		ID:          e.ID.String(),
		TeamID:      e.TeamID.String(),
		Points:      e.Points,
		Description: e.Description,
		AssignedBy:  e.AssignedBy.String(),
		CreatedAt:   e.CreatedAt.UTC().Format(time.RFC3339),
	}
	if e.ChallengeID != nil {
		s := e.ChallengeID.String()
		resp.ChallengeID = &s
	}
	return resp
}

// Assign handles POST /admin/points. The assigning profile is taken from the
// authenticated identity, never from the request body.
func (h *PointsHandler) Assign(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	identity := middleware.GetIdentity(r.Context())
	if identity == nil {
		response.Err(w, http.StatusUnauthorized, "UNAUTHORIZED", "Authentication required", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req assignPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateAssignPointsRequest(validation.AssignPointsRequest{
		TeamID:      req.TeamID,
		ChallengeID: req.ChallengeID,
		Points:      req.Points,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	teamID, _ := uuid.Parse(req.TeamID)
	var challengeID *uuid.UUID
	if req.ChallengeID != "" {
		id, _ := uuid.Parse(req.ChallengeID)
		challengeID = &id
	}

	entry, err := h.assigner.AssignPoints(r.Context(), leaderboard.AssignPointsCommand{
		TeamID:      teamID,
		ChallengeID: challengeID,
		Points:      *req.Points,
		Description: req.Description,
		AssignedBy:  identity.ProfileID,
	})
	if err != nil {
		switch {
		case errors.Is(err, ledger.ErrUnknownTeam):
			response.Err(w, http.StatusNotFound, "TEAM_NOT_FOUND", "Team not found", requestID)
		case errors.Is(err, ledger.ErrUnknownChallenge):
			response.Err(w, http.StatusNotFound, "CHALLENGE_NOT_FOUND", "Challenge not found", requestID)
		case errors.Is(err, ledger.ErrUnknownProfile):
			response.Err(w, http.StatusNotFound, "PROFILE_NOT_FOUND", "Assigning profile not found", requestID)
		default:
			slog.Error("failed to assign points", "error", err, "team_id", teamID)
			response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to assign points", requestID)
		}
		return
	}

	response.Success(w, http.StatusCreated, toEntryResponse(entry), requestID)
}

type detailedEntryResponse struct {
	entryResponse
	TeamName       string  `json:"teamName"`
	ChallengeTitle *string `json:"challengeTitle"`
	AssignedByMail string  `json:"assignedByEmail"`
}

const defaultEntriesLimit = 100

// ListEntries handles GET /admin/entries, newest first.
func (h *PointsHandler) ListEntries(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	limit := defaultEntriesLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 1000 {
			response.Err(w, http.StatusBadRequest, "INVALID_LIMIT", "limit must be an integer between 1 and 1000", requestID)
			return
		}
		limit = n
	}

	entries, err := h.store.ListDetailed(r.Context(), limit)
	if err != nil {
		slog.Error("failed to list ledger entries", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list entries", requestID)
		return
	}

	items := make([]detailedEntryResponse, 0, len(entries))
	for i := range entries {
		e := &entries[i]
		items = append(items, detailedEntryResponse{
			entryResponse:  toEntryResponse(&e.Entry),
			TeamName:       e.TeamName,
			ChallengeTitle: e.ChallengeTitle,
			AssignedByMail: e.AssignedByMail,
		})
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}
