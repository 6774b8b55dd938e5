package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/api/response"
	"github.com/hackarena/portal/internal/api/validation"
	"github.com/hackarena/portal/internal/challenge"
)

// ChallengeHandler handles challenge endpoints, public and admin.
type ChallengeHandler struct {
	repo challenge.Repository
}

// NewChallengeHandler creates a new ChallengeHandler.
func NewChallengeHandler(repo challenge.Repository) *ChallengeHandler {
	return &ChallengeHandler{repo: repo}
}

type challengeResponse struct {
	ID               string   `json:"id"`
	Title            string   `json:"title"`
	Description      string   `json:"description"`
	Difficulty       string   `json:"difficulty"`
	Category         string   `json:"category"`
	Icon             string   `json:"icon"`
	Requirements     []string `json:"requirements"`
	IsVisible        bool     `json:"isVisible"`
	MaxPoints        int      `json:"maxPoints"`
	Status           string   `json:"status"`
	ParticipantCount int      `json:"participantCount"`
	CreatedAt        string   `json:"createdAt"`
	UpdatedAt        string   `json:"updatedAt"`
}

type participantResponse struct {
	TeamID    string `json:"teamId"`
	AccountID string `json:"accountId"`
	Name      string `json:"name"`
	Avatar    string `json:"avatar"`
}

// challengeDetailResponse is the single-challenge shape: the listing fields
// plus the participating teams.
type challengeDetailResponse struct {
	challengeResponse
	Participants []participantResponse `json:"participants"`
}

func toChallengeResponse(c *challenge.Challenge) challengeResponse {
	reqs := c.Requirements
	if reqs == nil {
		reqs = []string{}
	}
	return challengeResponse{
		ID:               c.ID.String(),
		Title:            c.Title,
		Description:      c.Description,
		Difficulty:       c.Difficulty,
		Category:         c.Category,
		Icon:             c.Icon,
		Requirements:     reqs,
		IsVisible:        c.IsVisible,
		MaxPoints:        c.MaxPoints,
		Status:           c.Status,
		ParticipantCount: c.ParticipantCount,
		CreatedAt:        c.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        c.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

func toChallengeDetailResponse(c *challenge.Challenge) challengeDetailResponse {
	participants := make([]participantResponse, 0, len(c.Participants))
	for _, p := range c.Participants {
		participants = append(participants, participantResponse{
			TeamID:    p.TeamID.String(),
			AccountID: p.AccountID,
			Name:      p.Name,
			Avatar:    p.Avatar,
		})
	}
	return challengeDetailResponse{
		challengeResponse: toChallengeResponse(c),
		Participants:      participants,
	}
}

func (h *ChallengeHandler) list(w http.ResponseWriter, r *http.Request, visibleOnly bool) {
	requestID := middleware.GetRequestID(r.Context())

	challenges, err := h.repo.List(r.Context(), visibleOnly)
	if err != nil {
		slog.Error("failed to list challenges", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list challenges", requestID)
		return
	}

	items := make([]challengeResponse, 0, len(challenges))
	for i := range challenges {
		items = append(items, toChallengeResponse(&challenges[i]))
	}

	response.SuccessList(w, http.StatusOK, items, len(items), requestID)
}

// List handles GET /challenges. Hidden challenges are excluded.
func (h *ChallengeHandler) List(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, true)
}

// ListAll handles GET /admin/challenges. The visibility flag is ignored.
func (h *ChallengeHandler) ListAll(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, false)
}

// GetByID handles GET /challenges/{id}.
func (h *ChallengeHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	c, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, challenge.ErrChallengeNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Challenge not found", requestID)
			return
		}
		slog.Error("failed to get challenge", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to get challenge", requestID)
		return
	}

	response.Success(w, http.StatusOK, toChallengeDetailResponse(c), requestID)
}

type createChallengeRequest struct {
	Title        string   `json:"title"`
	Description  string   `json:"description"`
	Difficulty   string   `json:"difficulty"`
	Category     string   `json:"category"`
	Icon         string   `json:"icon"`
	Requirements []string `json:"requirements"`
	IsVisible    *bool    `json:"isVisible"`
	MaxPoints    int      `json:"maxPoints"`
	Status       string   `json:"status"`
}

// Create handles POST /admin/challenges.
func (h *ChallengeHandler) Create(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req createChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateCreateChallengeRequest(validation.CreateChallengeRequest{
		Title:      req.Title,
		Difficulty: req.Difficulty,
		Category:   req.Category,
		MaxPoints:  req.MaxPoints,
		Status:     req.Status,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	visible := true
	if req.IsVisible != nil {
		visible = *req.IsVisible
	}
	status := req.Status
	if status == "" {
		status = challenge.StatusUpcoming
	}

	c := &challenge.Challenge{
		Title:        req.Title,
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		Category:     req.Category,
		Icon:         req.Icon,
		Requirements: req.Requirements,
		IsVisible:    visible,
		MaxPoints:    req.MaxPoints,
		Status:       status,
	}

	if err := h.repo.Create(r.Context(), c); err != nil {
		slog.Error("failed to create challenge", "error", err)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to create challenge", requestID)
		return
	}

	response.Success(w, http.StatusCreated, toChallengeResponse(c), requestID)
}

type updateChallengeRequest struct {
	Title        *string   `json:"title"`
	Description  *string   `json:"description"`
	Difficulty   *string   `json:"difficulty"`
	Category     *string   `json:"category"`
	Icon         *string   `json:"icon"`
	Requirements *[]string `json:"requirements"`
	IsVisible    *bool     `json:"isVisible"`
	MaxPoints    *int      `json:"maxPoints"`
	Status       *string   `json:"status"`
}

// Update handles PATCH /admin/challenges/{id}, including visibility toggles.
func (h *ChallengeHandler) Update(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_ID", "id must be a valid UUID", requestID)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, 1<<20)
	var req updateChallengeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.Err(w, http.StatusBadRequest, "INVALID_JSON", "Request body must be valid JSON", requestID)
		return
	}

	fieldErrors := validation.ValidateUpdateChallengeRequest(validation.UpdateChallengeRequest{
		Difficulty: req.Difficulty,
		Status:     req.Status,
		MaxPoints:  req.MaxPoints,
	})
	if len(fieldErrors) > 0 {
		response.ErrWithDetails(w, http.StatusBadRequest, "VALIDATION_ERROR", "Input validation failed", fieldErrors, requestID)
		return
	}

	c, err := h.repo.Update(r.Context(), id, challenge.Update{
		Title:        req.Title,
		Description:  req.Description,
		Difficulty:   req.Difficulty,
		Category:     req.Category,
		Icon:         req.Icon,
		Requirements: req.Requirements,
		IsVisible:    req.IsVisible,
		MaxPoints:    req.MaxPoints,
		Status:       req.Status,
	})
	if err != nil {
		if errors.Is(err, challenge.ErrChallengeNotFound) {
			response.Err(w, http.StatusNotFound, "NOT_FOUND", "Challenge not found", requestID)
			return
		}
		slog.Error("failed to update challenge", "error", err, "id", id)
		response.Err(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Failed to update challenge", requestID)
		return
	}

	response.Success(w, http.StatusOK, toChallengeResponse(c), requestID)
}
