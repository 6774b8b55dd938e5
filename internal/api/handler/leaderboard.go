package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/api/response"
	"github.com/hackarena/portal/internal/leaderboard"
)

// LeaderboardHandler serves the public standings view.
type LeaderboardHandler struct {
	service *leaderboard.Service
}

// NewLeaderboardHandler creates a new LeaderboardHandler.
func NewLeaderboardHandler(service *leaderboard.Service) *LeaderboardHandler {
	return &LeaderboardHandler{service: service}
}

type leaderboardData struct {
	Standings []leaderboard.Standing `json:"standings"`
	SyncedAt  string                 `json:"syncedAt"`
}

// Get handles GET /leaderboard. It serves the synchronized in-memory view.
// When the cache has never been primed it falls back to a direct refresh so
// the first page load after startup is not empty; a failing store then maps
// to 503 rather than an empty board.
func (h *LeaderboardHandler) Get(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	standings := h.service.Standings()
	syncedAt := h.service.SyncedAt()
	if syncedAt.IsZero() {
		fresh, err := h.service.Refresh(r.Context())
		if err != nil {
			slog.Error("failed to fetch leaderboard", "error", err)
			response.Err(w, http.StatusServiceUnavailable, "RETRY", "Leaderboard is temporarily unavailable, please retry", requestID)
			return
		}
		standings = fresh
		syncedAt = h.service.SyncedAt()
	}

	if standings == nil {
		standings = []leaderboard.Standing{}
	}

	response.Success(w, http.StatusOK, leaderboardData{
		Standings: standings,
		SyncedAt:  syncedAt.UTC().Format(time.RFC3339),
	}, requestID)
}
