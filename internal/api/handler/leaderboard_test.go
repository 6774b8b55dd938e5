package handler_test

import (
	"context"
	"io"
	"log/slog"
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
	"github.com/hackarena/portal/internal/team"
)

func newBoard(t *testing.T, teams *mockTeamRepo, store *mockLedgerStore) *leaderboard.Service {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return leaderboard.NewService(teams, store, &recordingBus{}, logger, nil, leaderboard.Options{})
}

func TestLeaderboardGet_ServesStandings(t *testing.T) {
	tm := team.Team{ID: uuid.New(), AccountID: "alpha", Name: "Team Alpha", CreatedAt: time.Now()}
	teams := &mockTeamRepo{
		listFn: func(context.Context) ([]team.Team, error) { return []team.Team{tm}, nil },
	}
	store := &mockLedgerStore{
		listFn: func(context.Context) ([]ledger.Entry, error) {
			return []ledger.Entry{{TeamID: tm.ID, Points: 120}}, nil
		},
	}
	board := newBoard(t, teams, store)
	h := handler.NewLeaderboardHandler(board)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	standings := data["standings"].([]interface{})
	require.Len(t, standings, 1)
	first := standings[0].(map[string]interface{})
	assert.Equal(t, float64(120), first["totalPoints"])
	assert.Equal(t, float64(1), first["rank"])
	assert.NotEmpty(t, data["syncedAt"])
}

func TestLeaderboardGet_EmptyBoard(t *testing.T) {
	teams := &mockTeamRepo{
		listFn: func(context.Context) ([]team.Team, error) { return nil, nil },
	}
	board := newBoard(t, teams, &mockLedgerStore{})
	h := handler.NewLeaderboardHandler(board)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

	require.Equal(t, http.StatusOK, w.Code)
	env := decodeEnvelope(t, w)
	data := env["data"].(map[string]interface{})
	assert.Empty(t, data["standings"])
}

func TestLeaderboardGet_UnavailableStore(t *testing.T) {
	teams := &mockTeamRepo{
		listFn: func(context.Context) ([]team.Team, error) { return nil, nil },
	}
	store := &mockLedgerStore{
		listFn: func(context.Context) ([]ledger.Entry, error) { return nil, assert.AnError },
	}
	board := newBoard(t, teams, store)
	h := handler.NewLeaderboardHandler(board)

	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
	assert.Equal(t, "RETRY", errorCode(t, w))
}

func TestLeaderboardGet_ServesCacheWithoutStoreAccess(t *testing.T) {
	tm := team.Team{ID: uuid.New(), AccountID: "alpha", Name: "Team Alpha", CreatedAt: time.Now()}
	calls := 0
	teams := &mockTeamRepo{
		listFn: func(context.Context) ([]team.Team, error) { return []team.Team{tm}, nil },
	}
	store := &mockLedgerStore{
		listFn: func(context.Context) ([]ledger.Entry, error) {
			calls++
			return nil, nil
		},
	}
	board := newBoard(t, teams, store)
	_, err := board.Refresh(context.Background())
	require.NoError(t, err)
	primed := calls

	h := handler.NewLeaderboardHandler(board)
	w := httptest.NewRecorder()
	h.Get(w, httptest.NewRequest(http.MethodGet, "/leaderboard", nil))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, primed, calls, "a primed cache is served without touching the store")
}
