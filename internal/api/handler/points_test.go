package handler_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackarena/portal/internal/api/handler"
	"github.com/hackarena/portal/internal/leaderboard"
	"github.com/hackarena/portal/internal/ledger"
)

// --- Assign Tests ---

func TestAssign_Success(t *testing.T) {
	var gotCmd leaderboard.AssignPointsCommand
	assigner := &mockAssigner{
		assignFn: func(_ context.Context, cmd leaderboard.AssignPointsCommand) (*ledger.Entry, error) {
			gotCmd = cmd
			return &ledger.Entry{
				ID:         uuid.New(),
				TeamID:     cmd.TeamID,
				Points:     cmd.Points,
				AssignedBy: cmd.AssignedBy,
				CreatedAt:  time.Now(),
			}, nil
		},
	}
	h := handler.NewPointsHandler(assigner, &mockLedgerStore{})

	teamID := uuid.New()
	req := asAdmin(jsonRequest(t, http.MethodPost, "/admin/points", map[string]any{
		"teamId": teamID.String(),
		"points": 150,
	}))
	w := httptest.NewRecorder()
	h.Assign(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, teamID, gotCmd.TeamID)
	assert.Equal(t, 150, gotCmd.Points)
	assert.NotEqual(t, uuid.Nil, gotCmd.AssignedBy, "assigner comes from the authenticated identity")

	env := decodeEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Equal(t, float64(150), data["points"])
}

func TestAssign_NegativeCorrection(t *testing.T) {
	assigner := &mockAssigner{
		assignFn: func(_ context.Context, cmd leaderboard.AssignPointsCommand) (*ledger.Entry, error) {
			return &ledger.Entry{ID: uuid.New(), TeamID: cmd.TeamID, Points: cmd.Points, CreatedAt: time.Now()}, nil
		},
	}
	h := handler.NewPointsHandler(assigner, &mockLedgerStore{})

	req := asAdmin(jsonRequest(t, http.MethodPost, "/admin/points", map[string]any{
		"teamId": uuid.New().String(),
		"points": -50,
	}))
	w := httptest.NewRecorder()
	h.Assign(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)
}

func TestAssign_NoIdentity(t *testing.T) {
	h := handler.NewPointsHandler(&mockAssigner{}, &mockLedgerStore{})

	req := jsonRequest(t, http.MethodPost, "/admin/points", map[string]any{
		"teamId": uuid.New().String(),
		"points": 10,
	})
	w := httptest.NewRecorder()
	h.Assign(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAssign_ZeroPointAnnotation(t *testing.T) {
	var gotCmd leaderboard.AssignPointsCommand
	assigner := &mockAssigner{
		assignFn: func(_ context.Context, cmd leaderboard.AssignPointsCommand) (*ledger.Entry, error) {
			gotCmd = cmd
			return &ledger.Entry{ID: uuid.New(), TeamID: cmd.TeamID, Points: cmd.Points, Description: cmd.Description, CreatedAt: time.Now()}, nil
		},
	}
	h := handler.NewPointsHandler(assigner, &mockLedgerStore{})

	req := asAdmin(jsonRequest(t, http.MethodPost, "/admin/points", map[string]any{
		"teamId":      uuid.New().String(),
		"points":      0,
		"description": "disqualified entry reviewed, no change",
	}))
	w := httptest.NewRecorder()
	h.Assign(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	assert.Equal(t, 0, gotCmd.Points)
}

func TestAssign_MissingPoints(t *testing.T) {
	h := handler.NewPointsHandler(&mockAssigner{}, &mockLedgerStore{})

	req := asAdmin(jsonRequest(t, http.MethodPost, "/admin/points", map[string]any{
		"teamId": uuid.New().String(),
	}))
	w := httptest.NewRecorder()
	h.Assign(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
}

func TestAssign_UnknownTeam(t *testing.T) {
	assigner := &mockAssigner{
		assignFn: func(context.Context, leaderboard.AssignPointsCommand) (*ledger.Entry, error) {
			return nil, ledger.ErrUnknownTeam
		},
	}
	h := handler.NewPointsHandler(assigner, &mockLedgerStore{})

	req := asAdmin(jsonRequest(t, http.MethodPost, "/admin/points", map[string]any{
		"teamId": uuid.New().String(),
		"points": 10,
	}))
	w := httptest.NewRecorder()
	h.Assign(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "TEAM_NOT_FOUND", errorCode(t, w))
}

func TestAssign_UnknownChallenge(t *testing.T) {
	assigner := &mockAssigner{
		assignFn: func(context.Context, leaderboard.AssignPointsCommand) (*ledger.Entry, error) {
			return nil, ledger.ErrUnknownChallenge
		},
	}
	h := handler.NewPointsHandler(assigner, &mockLedgerStore{})

	req := asAdmin(jsonRequest(t, http.MethodPost, "/admin/points", map[string]any{
		"teamId":      uuid.New().String(),
		"challengeId": uuid.New().String(),
		"points":      10,
	}))
	w := httptest.NewRecorder()
	h.Assign(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "CHALLENGE_NOT_FOUND", errorCode(t, w))
}

// --- ListEntries Tests ---

func TestListEntries_Success(t *testing.T) {
	title := "Build a bot"
	var gotLimit int
	store := &mockLedgerStore{
		listDetailedFn: func(_ context.Context, limit int) ([]ledger.DetailedEntry, error) {
			gotLimit = limit
			return []ledger.DetailedEntry{{
				Entry: ledger.Entry{
					ID:         uuid.New(),
					TeamID:     uuid.New(),
					Points:     100,
					AssignedBy: uuid.New(),
					CreatedAt:  time.Now(),
				},
				TeamName:       "Team Alpha",
				ChallengeTitle: &title,
				AssignedByMail: "admin@example.com",
			}}, nil
		},
	}
	h := handler.NewPointsHandler(&mockAssigner{}, store)

	w := httptest.NewRecorder()
	h.ListEntries(w, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/entries", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 100, gotLimit)

	env := decodeEnvelope(t, w)
	items := env["data"].([]interface{})
	require.Len(t, items, 1)
	first := items[0].(map[string]interface{})
	assert.Equal(t, "Team Alpha", first["teamName"])
	assert.Equal(t, "Build a bot", first["challengeTitle"])
}

func TestListEntries_CustomLimit(t *testing.T) {
	var gotLimit int
	store := &mockLedgerStore{
		listDetailedFn: func(_ context.Context, limit int) ([]ledger.DetailedEntry, error) {
			gotLimit = limit
			return nil, nil
		},
	}
	h := handler.NewPointsHandler(&mockAssigner{}, store)

	w := httptest.NewRecorder()
	h.ListEntries(w, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/entries?limit=25", nil)))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 25, gotLimit)
}

func TestListEntries_InvalidLimit(t *testing.T) {
	h := handler.NewPointsHandler(&mockAssigner{}, &mockLedgerStore{})

	w := httptest.NewRecorder()
	h.ListEntries(w, asAdmin(httptest.NewRequest(http.MethodGet, "/admin/entries?limit=0", nil)))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_LIMIT", errorCode(t, w))
}
