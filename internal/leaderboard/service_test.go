package leaderboard_test

import (
	"context"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hackarena/portal/internal/leaderboard"
	"github.com/hackarena/portal/internal/ledger"
	"github.com/hackarena/portal/internal/notify"
	"github.com/hackarena/portal/internal/team"
)

type fakeTeams struct {
	mu    sync.Mutex
	teams []team.Team
	err   error
}

func (f *fakeTeams) List(_ context.Context) ([]team.Team, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	out := make([]team.Team, len(f.teams))
	copy(out, f.teams)
	return out, nil
}

type fakeStore struct {
	mu        sync.Mutex
	entries   []ledger.Entry
	listCalls int
	listErr   error
	appendErr error
}

func (f *fakeStore) Append(_ context.Context, e *ledger.Entry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.appendErr != nil {
		return f.appendErr
	}
	e.ID = uuid.New()
	e.CreatedAt = time.Now()
	f.entries = append(f.entries, *e)
	return nil
}

func (f *fakeStore) List(_ context.Context) ([]ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]ledger.Entry, len(f.entries))
	copy(out, f.entries)
	return out, nil
}

func (f *fakeStore) ListByTeam(_ context.Context, teamID uuid.UUID) ([]ledger.Entry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ledger.Entry
	for _, e := range f.entries {
		if e.TeamID == teamID {
			out = append(out, e)
		}
	}
	return out, nil
}

func (f *fakeStore) ListDetailed(_ context.Context, _ int) ([]ledger.DetailedEntry, error) {
	return nil, nil
}

func (f *fakeStore) calls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.listCalls
}

func (f *fakeStore) setListErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listErr = err
}

func (f *fakeStore) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.entries)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

const testDebounce = 50 * time.Millisecond

func setupService(t *testing.T, teams *fakeTeams, store *fakeStore) (*leaderboard.Service, notify.Bus) {
	t.Helper()

	bus := notify.NewGoChannelBus(discardLogger())
	svc := leaderboard.NewService(teams, store, bus, discardLogger(), nil, leaderboard.Options{
		Debounce: testDebounce,
	})

	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() {
		svc.Close()
		_ = bus.Close()
	})

	return svc, bus
}

func waitForTotal(t *testing.T, svc *leaderboard.Service, teamID uuid.UUID, want int) {
	t.Helper()
	require.Eventually(t, func() bool {
		for _, s := range svc.Standings() {
			if s.TeamID == teamID && s.Total == want {
				return true
			}
		}
		return false
	}, 3*time.Second, 10*time.Millisecond)
}

// --- Sync Tests ---

func TestService_StartPrimesStandings(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{entries: []ledger.Entry{{ID: uuid.New(), TeamID: tm.ID, Points: 30}}}

	svc, _ := setupService(t, teams, store)

	standings := svc.Standings()
	require.Len(t, standings, 1)
	assert.Equal(t, 30, standings[0].Total)
	assert.False(t, svc.SyncedAt().IsZero())
}

func TestService_NotificationTriggersRefresh(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, bus := setupService(t, teams, store)

	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 75}))
	require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))

	waitForTotal(t, svc, tm.ID, 75)
}

func TestService_TeamChangeTriggersRefresh(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, bus := setupService(t, teams, store)

	teams.mu.Lock()
	teams.teams[0].Name = "Renamed"
	teams.mu.Unlock()
	require.NoError(t, bus.Publish(notify.TopicTeams, notify.Event{Table: "teams", Op: notify.OpUpdate}))

	require.Eventually(t, func() bool {
		standings := svc.Standings()
		return len(standings) == 1 && standings[0].Name == "Renamed"
	}, 3*time.Second, 10*time.Millisecond)
}

func TestService_CoalescesBursts(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, bus := setupService(t, teams, store)
	base := store.calls()

	for i := 0; i < 10; i++ {
		require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 1}))
		require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))
	}

	waitForTotal(t, svc, tm.ID, 10)

	// Let any stray timer fire before counting.
	time.Sleep(3 * testDebounce)
	assert.Equal(t, base+1, store.calls(), "a burst of notifications should fold into one refresh")
}

func TestService_FailedRefreshKeepsLastKnownGood(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, bus := setupService(t, teams, store)

	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 40}))
	require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))
	waitForTotal(t, svc, tm.ID, 40)

	store.setListErr(assert.AnError)
	require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))
	time.Sleep(3 * testDebounce)

	standings := svc.Standings()
	require.Len(t, standings, 1)
	assert.Equal(t, 40, standings[0].Total, "failed refresh must not clear the cached standings")

	// Recovery on the next notification.
	store.setListErr(nil)
	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 5}))
	require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))
	waitForTotal(t, svc, tm.ID, 45)
}

func TestService_RefreshReturnsFetchError(t *testing.T) {
	teams := &fakeTeams{}
	store := &fakeStore{listErr: assert.AnError}

	bus := notify.NewGoChannelBus(discardLogger())
	defer bus.Close()
	svc := leaderboard.NewService(teams, store, bus, discardLogger(), nil, leaderboard.Options{})

	_, err := svc.Refresh(context.Background())
	assert.Error(t, err)
}

func TestService_RefreshIdempotent(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{entries: []ledger.Entry{{ID: uuid.New(), TeamID: tm.ID, Points: 60}}}

	svc, _ := setupService(t, teams, store)

	first, err := svc.Refresh(context.Background())
	require.NoError(t, err)
	second, err := svc.Refresh(context.Background())
	require.NoError(t, err)

	assert.Equal(t, first, second)
}

func TestService_PeriodicResync(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	bus := notify.NewGoChannelBus(discardLogger())
	svc := leaderboard.NewService(teams, store, bus, discardLogger(), nil, leaderboard.Options{
		Debounce: testDebounce,
		Resync:   100 * time.Millisecond,
	})
	require.NoError(t, svc.Start(context.Background()))
	t.Cleanup(func() {
		svc.Close()
		_ = bus.Close()
	})

	// A write whose notification was lost is still picked up by the resync.
	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 15}))
	waitForTotal(t, svc, tm.ID, 15)
}

// --- Listener Tests ---

func TestService_ListenerNotifiedOnCommit(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, bus := setupService(t, teams, store)

	var mu sync.Mutex
	var last []leaderboard.Standing
	unsubscribe := svc.OnStandingsChanged(func(s []leaderboard.Standing) {
		mu.Lock()
		last = s
		mu.Unlock()
	})
	defer unsubscribe()

	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 20}))
	require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))

	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(last) == 1 && last[0].Total == 20
	}, 3*time.Second, 10*time.Millisecond)
}

func TestService_UnsubscribeStopsCallbacks(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, bus := setupService(t, teams, store)

	var mu sync.Mutex
	calls := 0
	unsubscribe := svc.OnStandingsChanged(func([]leaderboard.Standing) {
		mu.Lock()
		calls++
		mu.Unlock()
	})

	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 10}))
	require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))
	require.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return calls == 1
	}, 3*time.Second, 10*time.Millisecond)

	unsubscribe()

	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 10}))
	require.NoError(t, bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert}))
	waitForTotal(t, svc, tm.ID, 20)

	time.Sleep(2 * testDebounce)
	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, 1, calls, "no callback may fire after unsubscribe returns")
}

// --- AssignPoints Tests ---

func TestAssignPoints_AppendsAndSyncs(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, _ := setupService(t, teams, store)

	admin := uuid.New()
	entry, err := svc.AssignPoints(context.Background(), leaderboard.AssignPointsCommand{
		TeamID:     tm.ID,
		Points:     80,
		AssignedBy: admin,
	})
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, entry.ID)
	assert.Equal(t, 80, entry.Points)
	assert.Equal(t, admin, entry.AssignedBy)

	waitForTotal(t, svc, tm.ID, 80)
}

func TestAssignPoints_UnknownTeamHasNoEffect(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{appendErr: ledger.ErrUnknownTeam}

	svc, _ := setupService(t, teams, store)
	before := svc.Standings()

	_, err := svc.AssignPoints(context.Background(), leaderboard.AssignPointsCommand{
		TeamID:     uuid.New(),
		Points:     50,
		AssignedBy: uuid.New(),
	})
	require.ErrorIs(t, err, ledger.ErrUnknownTeam)
	assert.Equal(t, 0, store.count())

	time.Sleep(2 * testDebounce)
	assert.Equal(t, before, svc.Standings())
}

func TestAssignPoints_NilTeamRejected(t *testing.T) {
	teams := &fakeTeams{}
	store := &fakeStore{}

	svc, _ := setupService(t, teams, store)

	_, err := svc.AssignPoints(context.Background(), leaderboard.AssignPointsCommand{
		Points:     10,
		AssignedBy: uuid.New(),
	})
	require.ErrorIs(t, err, ledger.ErrUnknownTeam)
	assert.Equal(t, 0, store.count())
}

func TestAssignPoints_ConcurrentAwardsAllCount(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	svc, _ := setupService(t, teams, store)

	const n = 20
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := svc.AssignPoints(context.Background(), leaderboard.AssignPointsCommand{
				TeamID:     tm.ID,
				Points:     1,
				AssignedBy: uuid.New(),
			})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	require.Equal(t, n, store.count())
	waitForTotal(t, svc, tm.ID, n)
}

func TestService_CloseStopsLoop(t *testing.T) {
	tm := makeTeam("alpha", time.Now())
	teams := &fakeTeams{teams: []team.Team{tm}}
	store := &fakeStore{}

	bus := notify.NewGoChannelBus(discardLogger())
	defer bus.Close()
	svc := leaderboard.NewService(teams, store, bus, discardLogger(), nil, leaderboard.Options{
		Debounce: testDebounce,
	})
	require.NoError(t, svc.Start(context.Background()))

	svc.Close()

	// Events published after Close must not trigger refreshes.
	base := store.calls()
	require.NoError(t, store.Append(context.Background(), &ledger.Entry{TeamID: tm.ID, Points: 10}))
	_ = bus.Publish(notify.TopicLedger, notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert})
	time.Sleep(2 * testDebounce)
	assert.Equal(t, base, store.calls())
}
