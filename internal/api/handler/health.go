package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/api/response"
)

// DBPinger verifies database connectivity.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// StandingsClock reports when the standings cache was last synchronized.
type StandingsClock interface {
	SyncedAt() time.Time
}

// HealthHandler handles the GET /health endpoint.
type HealthHandler struct {
	db        DBPinger
	standings StandingsClock
	version   string
}

// NewHealthHandler creates a new HealthHandler.
func NewHealthHandler(db DBPinger, standings StandingsClock, version string) *HealthHandler {
	return &HealthHandler{
		db:        db,
		standings: standings,
		version:   version,
	}
}

type healthData struct {
	Status            string  `json:"status"`
	Version           string  `json:"version"`
	DatabaseConnected bool    `json:"databaseConnected"`
	StandingsSyncedAt *string `json:"standingsSyncedAt"`
}

// ServeHTTP handles the health check request.
func (h *HealthHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	requestID := middleware.GetRequestID(r.Context())

	status := "healthy"
	dbConnected := true
	if err := h.db.Ping(r.Context()); err != nil {
		status = "degraded"
		dbConnected = false
	}

	var syncedAt *string
	if h.standings != nil {
		if t := h.standings.SyncedAt(); !t.IsZero() {
			s := t.UTC().Format(time.RFC3339)
			syncedAt = &s
		}
	}

	data := healthData{
		Status:            status,
		Version:           h.version,
		DatabaseConnected: dbConnected,
		StandingsSyncedAt: syncedAt,
	}

	response.Success(w, http.StatusOK, data, requestID)
}
