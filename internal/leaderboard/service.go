package leaderboard

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hackarena/portal/internal/ledger"
	"github.com/hackarena/portal/internal/notify"
	"github.com/hackarena/portal/internal/team"
)

// TeamSource is the slice of the team repository the leaderboard needs.
type TeamSource interface {
	List(ctx context.Context) ([]team.Team, error)
}

// AssignPointsCommand is the admin action that appends one ledger entry.
// Points may be negative; corrections are new entries, never edits.
type AssignPointsCommand struct {
	TeamID      uuid.UUID
	ChallengeID *uuid.UUID
	Points      int
	Description *string
	AssignedBy  uuid.UUID
}

// Options tunes the sync behaviour.
type Options struct {
	// Debounce is the coalescing window: notifications arriving while a
	// refresh is pending fold into it instead of scheduling their own.
	Debounce time.Duration
	// Resync, when positive, forces a periodic full refresh as a safety net
	// for missed notifications.
	Resync time.Duration
}

const defaultDebounce = 150 * time.Millisecond

// Service keeps an in-memory standings view synchronized with the ledger.
// It subscribes to change notifications, coalesces bursts into single
// refreshes, and always recomputes totals from the full ledger rather than
// incrementing a cached counter, so concurrent appends are never lost.
type Service struct {
	teams   TeamSource
	store   ledger.Store
	bus     notify.Bus
	logger  *slog.Logger
	metrics *Metrics

	debounce time.Duration
	resync   time.Duration

	mu        sync.RWMutex
	standings []Standing
	syncedAt  time.Time

	listenerMu sync.Mutex
	listeners  map[int]func([]Standing)
	nextID     int

	cancel context.CancelFunc
	done   chan struct{}
}

// NewService creates a Service. metrics may be nil, in which case unregistered
// collectors are used.
func NewService(teams TeamSource, store ledger.Store, bus notify.Bus, logger *slog.Logger, metrics *Metrics, opts Options) *Service {
	if opts.Debounce <= 0 {
		opts.Debounce = defaultDebounce
	}
	if metrics == nil {
		metrics = NewMetrics(nil)
	}
	return &Service{
		teams:     teams,
		store:     store,
		bus:       bus,
		logger:    logger,
		metrics:   metrics,
		debounce:  opts.Debounce,
		resync:    opts.Resync,
		listeners: map[int]func([]Standing){},
	}
}

// Start subscribes to change notifications and launches the refresh loop.
// It primes the standings cache before returning; a failed initial fetch is
// logged and left to the first successful refresh.
func (s *Service) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(ctx)

	ledgerCh, err := s.bus.Subscribe(runCtx, notify.TopicLedger)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribing to ledger changes: %w", err)
	}
	teamsCh, err := s.bus.Subscribe(runCtx, notify.TopicTeams)
	if err != nil {
		cancel()
		return fmt.Errorf("subscribing to team changes: %w", err)
	}

	s.cancel = cancel
	s.done = make(chan struct{})

	if _, err := s.Refresh(runCtx); err != nil {
		s.logger.Warn("initial standings refresh failed", "error", err)
	}

	go s.run(runCtx, ledgerCh, teamsCh)
	return nil
}

// Close stops the refresh loop and waits for it to exit. Refresh results in
// flight are discarded, never applied after Close returns.
func (s *Service) Close() {
	if s.cancel == nil {
		return
	}
	s.cancel()
	<-s.done
}

func (s *Service) run(ctx context.Context, ledgerCh, teamsCh <-chan notify.Event) {
	defer close(s.done)

	var pending *time.Timer
	var pendingCh <-chan time.Time

	var resyncCh <-chan time.Time
	if s.resync > 0 {
		ticker := time.NewTicker(s.resync)
		defer ticker.Stop()
		resyncCh = ticker.C
	}

	schedule := func() {
		s.metrics.NotificationsSeen.Inc()
		if pending == nil {
			pending = time.NewTimer(s.debounce)
			pendingCh = pending.C
		}
		// An armed timer coalesces this notification into the refresh
		// already scheduled.
	}

	for {
		select {
		case <-ctx.Done():
			if pending != nil {
				pending.Stop()
			}
			return
		case _, ok := <-ledgerCh:
			if !ok {
				ledgerCh = nil
				continue
			}
			schedule()
		case _, ok := <-teamsCh:
			if !ok {
				teamsCh = nil
				continue
			}
			schedule()
		case <-pendingCh:
			pending = nil
			pendingCh = nil
			s.refresh(ctx)
		case <-resyncCh:
			s.refresh(ctx)
		}
	}
}

// refresh recomputes standings in the background. Fetch failures keep the
// last known good standings; the next notification or resync tick retries.
func (s *Service) refresh(ctx context.Context) {
	standings, err := s.compute(ctx)
	if err != nil {
		s.metrics.RefreshTotal.WithLabelValues("error").Inc()
		s.logger.Warn("standings refresh failed, keeping last known good", "error", err)
		return
	}
	if ctx.Err() != nil {
		// Stopped while fetching; a stale result must not be applied.
		return
	}
	s.commit(standings)
	s.metrics.RefreshTotal.WithLabelValues("ok").Inc()
}

func (s *Service) compute(ctx context.Context) ([]Standing, error) {
	teams, err := s.teams.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching teams: %w", err)
	}
	entries, err := s.store.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetching ledger: %w", err)
	}
	return Rank(teams, Aggregate(entries)), nil
}

func (s *Service) commit(standings []Standing) {
	s.mu.Lock()
	s.standings = standings
	s.syncedAt = time.Now().UTC()
	s.mu.Unlock()

	// Listeners are invoked under the registration lock so that no callback
	// can fire once its unsubscribe has returned.
	s.listenerMu.Lock()
	for _, fn := range s.listeners {
		fn(standings)
	}
	s.listenerMu.Unlock()
}

// Standings returns the last computed standings without touching the store.
func (s *Service) Standings() []Standing {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Standing, len(s.standings))
	copy(out, s.standings)
	return out
}

// SyncedAt reports when the standings cache was last committed.
func (s *Service) SyncedAt() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.syncedAt
}

// Refresh recomputes standings immediately, bypassing the debounce window.
// Unlike background refreshes, a fetch failure is returned to the caller so
// a direct read (initial page load) can surface a retry affordance.
func (s *Service) Refresh(ctx context.Context) ([]Standing, error) {
	standings, err := s.compute(ctx)
	if err != nil {
		return nil, err
	}
	if ctx.Err() == nil {
		s.commit(standings)
	}
	return standings, nil
}

// OnStandingsChanged registers fn to run after every committed refresh. The
// returned function unsubscribes; fn is never called after it returns.
func (s *Service) OnStandingsChanged(fn func([]Standing)) (unsubscribe func()) {
	s.listenerMu.Lock()
	id := s.nextID
	s.nextID++
	s.listeners[id] = fn
	s.listenerMu.Unlock()

	return func() {
		s.listenerMu.Lock()
		delete(s.listeners, id)
		s.listenerMu.Unlock()
	}
}

// AssignPoints validates and appends one ledger entry. It does not recompute
// standings itself; the published change notification drives that, keeping
// the write path separate from the aggregate path. Either exactly one row is
// committed or the command fails with no effect.
func (s *Service) AssignPoints(ctx context.Context, cmd AssignPointsCommand) (*ledger.Entry, error) {
	if cmd.TeamID == uuid.Nil {
		return nil, ledger.ErrUnknownTeam
	}

	entry := &ledger.Entry{
		TeamID:      cmd.TeamID,
		ChallengeID: cmd.ChallengeID,
		Points:      cmd.Points,
		Description: cmd.Description,
		AssignedBy:  cmd.AssignedBy,
	}

	if err := s.store.Append(ctx, entry); err != nil {
		return nil, err
	}
	s.metrics.AssignmentsTotal.Inc()

	ev := notify.Event{Table: "leaderboard_entries", Op: notify.OpInsert, ID: entry.ID.String()}
	if err := s.bus.Publish(notify.TopicLedger, ev); err != nil {
		// The row is committed; a resync tick will pick it up.
		s.logger.Warn("failed to publish ledger change notification", "error", err)
	}

	return entry, nil
}
