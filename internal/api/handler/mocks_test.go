package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/hackarena/portal/internal/api/middleware"
	"github.com/hackarena/portal/internal/auth"
	"github.com/hackarena/portal/internal/challenge"
	"github.com/hackarena/portal/internal/leaderboard"
	"github.com/hackarena/portal/internal/ledger"
	"github.com/hackarena/portal/internal/notify"
	"github.com/hackarena/portal/internal/profile"
	"github.com/hackarena/portal/internal/team"
)

type mockTeamRepo struct {
	createFn       func(ctx context.Context, t *team.Team) error
	getByIDFn      func(ctx context.Context, id uuid.UUID) (*team.Team, error)
	listFn         func(ctx context.Context) ([]team.Team, error)
	updateFn       func(ctx context.Context, id uuid.UUID, upd team.Update) (*team.Team, error)
	deleteFn       func(ctx context.Context, id uuid.UUID) error
	addMemberFn    func(ctx context.Context, m *team.Member) error
	updateMemberFn func(ctx context.Context, teamID, id uuid.UUID, name, role, avatar *string) (*team.Member, error)
	removeMemberFn func(ctx context.Context, teamID, id uuid.UUID) error

	joinChallengeFn  func(ctx context.Context, teamID, challengeID uuid.UUID) error
	leaveChallengeFn func(ctx context.Context, teamID, challengeID uuid.UUID) error
}

func (m *mockTeamRepo) Create(ctx context.Context, t *team.Team) error {
	return m.createFn(ctx, t)
}

func (m *mockTeamRepo) GetByID(ctx context.Context, id uuid.UUID) (*team.Team, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockTeamRepo) GetByAccountID(_ context.Context, _ string) (*team.Team, error) {
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) GetByLeadID(_ context.Context, _ uuid.UUID) (*team.Team, error) {
	return nil, team.ErrTeamNotFound
}

func (m *mockTeamRepo) List(ctx context.Context) ([]team.Team, error) {
	return m.listFn(ctx)
}

func (m *mockTeamRepo) Update(ctx context.Context, id uuid.UUID, upd team.Update) (*team.Team, error) {
	return m.updateFn(ctx, id, upd)
}

func (m *mockTeamRepo) Delete(ctx context.Context, id uuid.UUID) error {
	return m.deleteFn(ctx, id)
}

func (m *mockTeamRepo) AddMember(ctx context.Context, mem *team.Member) error {
	return m.addMemberFn(ctx, mem)
}

func (m *mockTeamRepo) UpdateMember(ctx context.Context, teamID, id uuid.UUID, name, role, avatar *string) (*team.Member, error) {
	return m.updateMemberFn(ctx, teamID, id, name, role, avatar)
}

func (m *mockTeamRepo) RemoveMember(ctx context.Context, teamID, id uuid.UUID) error {
	return m.removeMemberFn(ctx, teamID, id)
}

func (m *mockTeamRepo) JoinChallenge(ctx context.Context, teamID, challengeID uuid.UUID) error {
	return m.joinChallengeFn(ctx, teamID, challengeID)
}

func (m *mockTeamRepo) LeaveChallenge(ctx context.Context, teamID, challengeID uuid.UUID) error {
	return m.leaveChallengeFn(ctx, teamID, challengeID)
}

type mockProfileRepo struct {
	createFn func(ctx context.Context, p *profile.Profile) error
}

func (m *mockProfileRepo) Create(ctx context.Context, p *profile.Profile) error {
	return m.createFn(ctx, p)
}

func (m *mockProfileRepo) GetByID(_ context.Context, _ uuid.UUID) (*profile.Profile, error) {
	return nil, profile.ErrProfileNotFound
}

func (m *mockProfileRepo) GetByEmail(_ context.Context, _ string) (*profile.Profile, error) {
	return nil, profile.ErrProfileNotFound
}

func (m *mockProfileRepo) CountAll(_ context.Context) (int, error) { return 0, nil }

type mockChallengeRepo struct {
	createFn  func(ctx context.Context, c *challenge.Challenge) error
	getByIDFn func(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error)
	listFn    func(ctx context.Context, visibleOnly bool) ([]challenge.Challenge, error)
	updateFn  func(ctx context.Context, id uuid.UUID, upd challenge.Update) (*challenge.Challenge, error)
}

func (m *mockChallengeRepo) Create(ctx context.Context, c *challenge.Challenge) error {
	return m.createFn(ctx, c)
}

func (m *mockChallengeRepo) GetByID(ctx context.Context, id uuid.UUID) (*challenge.Challenge, error) {
	return m.getByIDFn(ctx, id)
}

func (m *mockChallengeRepo) List(ctx context.Context, visibleOnly bool) ([]challenge.Challenge, error) {
	return m.listFn(ctx, visibleOnly)
}

func (m *mockChallengeRepo) Update(ctx context.Context, id uuid.UUID, upd challenge.Update) (*challenge.Challenge, error) {
	return m.updateFn(ctx, id, upd)
}

type mockAssigner struct {
	assignFn func(ctx context.Context, cmd leaderboard.AssignPointsCommand) (*ledger.Entry, error)
}

func (m *mockAssigner) AssignPoints(ctx context.Context, cmd leaderboard.AssignPointsCommand) (*ledger.Entry, error) {
	return m.assignFn(ctx, cmd)
}

type mockLedgerStore struct {
	listFn         func(ctx context.Context) ([]ledger.Entry, error)
	listDetailedFn func(ctx context.Context, limit int) ([]ledger.DetailedEntry, error)
}

func (m *mockLedgerStore) Append(_ context.Context, _ *ledger.Entry) error { return nil }

func (m *mockLedgerStore) List(ctx context.Context) ([]ledger.Entry, error) {
	if m.listFn != nil {
		return m.listFn(ctx)
	}
	return nil, nil
}

func (m *mockLedgerStore) ListByTeam(_ context.Context, _ uuid.UUID) ([]ledger.Entry, error) {
	return nil, nil
}

func (m *mockLedgerStore) ListDetailed(ctx context.Context, limit int) ([]ledger.DetailedEntry, error) {
	return m.listDetailedFn(ctx, limit)
}

// recordingBus captures published events for assertions.
type recordingBus struct {
	mu     sync.Mutex
	events []notify.Event
}

func (b *recordingBus) Publish(_ string, ev notify.Event) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, ev)
	return nil
}

func (b *recordingBus) Subscribe(_ context.Context, _ string) (<-chan notify.Event, error) {
	ch := make(chan notify.Event)
	close(ch)
	return ch, nil
}

func (b *recordingBus) Close() error { return nil }

func (b *recordingBus) published() []notify.Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]notify.Event, len(b.events))
	copy(out, b.events)
	return out
}

type plainHasher struct{}

func (plainHasher) HashPassword(password string) (string, error) {
	return "hashed:" + password, nil
}

func jsonRequest(t *testing.T, method, target string, body any) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withURLParams(req *http.Request, params map[string]string) *http.Request {
	rctx := chi.NewRouteContext()
	for k, v := range params {
		rctx.URLParams.Add(k, v)
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

func asAdmin(req *http.Request) *http.Request {
	identity := &auth.Identity{ProfileID: uuid.New(), Email: "admin@example.com", Role: profile.RoleAdmin}
	return req.WithContext(middleware.WithIdentity(req.Context(), identity))
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var env map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	env := decodeEnvelope(t, w)
	apiErr, ok := env["error"].(map[string]interface{})
	require.True(t, ok, "response should carry an error object")
	return apiErr["code"].(string)
}
