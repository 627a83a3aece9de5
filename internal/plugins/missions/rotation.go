package missions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"slices"
	"strconv"
	"sync"
	"time"

	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/kvstore"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// Scheduler owns the active mission set and rotates it on a fixed interval.
// Rotation wipes all progress and claims, so a claimed mission becomes
// claimable again in later rotations.
type Scheduler struct {
	store    *kvstore.Store
	catalog  *Catalog
	ledger   *Ledger
	notifier Notifier
	cfg      config.MissionsConfig

	now     func() time.Time
	shuffle func([]Mission)

	mu         sync.Mutex
	active     []Mission
	lastRotate time.Time
	latch      Latch

	// persisted is set once the current rotation is known to be in the
	// store, so a later disappearance means the store was wiped.
	persisted bool
}

// SchedulerOption customizes a Scheduler.
type SchedulerOption func(*Scheduler)

// WithSchedulerClock replaces time.Now, for tests.
func WithSchedulerClock(now func() time.Time) SchedulerOption {
	return func(s *Scheduler) {
		s.now = now
	}
}

// WithShuffle replaces the random shuffle, for tests.
func WithShuffle(shuffle func([]Mission)) SchedulerOption {
	return func(s *Scheduler) {
		s.shuffle = shuffle
	}
}

// NewScheduler creates a scheduler. Call Ensure before serving.
func NewScheduler(store *kvstore.Store, catalog *Catalog, ledger *Ledger, notifier Notifier, cfg config.MissionsConfig, opts ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		store:    store,
		catalog:  catalog,
		ledger:   ledger,
		notifier: notifier,
		cfg:      cfg,
		now:      time.Now,
		shuffle: func(ms []Mission) {
			rand.Shuffle(len(ms), func(i, j int) { ms[i], ms[j] = ms[j], ms[i] })
		},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Rotate starts a new rotation: progress and claims are wiped, a fresh
// random set is drawn and persisted with the current time. The in-memory
// board is updated even if persisting fails.
func (s *Scheduler) Rotate(ctx context.Context) ([]Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rotateLocked(ctx)
}

func (s *Scheduler) rotateLocked(ctx context.Context) ([]Mission, error) {
	var errs []error
	if err := s.ledger.ResetAll(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := s.store.Delete(ctx, KeyClaimed); err != nil {
		errs = append(errs, fmt.Errorf("clearing claimed missions: %w", err))
	}

	// The claimed set was just cleared, so this excludes nothing unless
	// another process claimed in between.
	picked := s.pick(readIDs(ctx, s.store, KeyClaimed))
	now := s.now()

	s.active = picked
	s.lastRotate = now

	persistErrs := len(errs)
	if err := s.store.Set(ctx, KeyActive, missionIDs(picked)); err != nil {
		errs = append(errs, fmt.Errorf("persisting active missions: %w", err))
	}
	if err := s.store.Set(ctx, KeyLastRotate, strconv.FormatInt(now.UnixMilli(), 10)); err != nil {
		errs = append(errs, fmt.Errorf("persisting rotation time: %w", err))
	}
	s.persisted = len(errs) == persistErrs

	slog.Info("missions rotated", slog.Any("missions", missionIDs(picked)))
	s.notifier.Info("New missions are waiting for you!")

	return slices.Clone(picked), errors.Join(errs...)
}

// pick draws up to ActiveCount missions from the catalog minus exclude.
// When no more than ActiveCount are available they are all returned in
// catalog order.
func (s *Scheduler) pick(exclude []string) []Mission {
	available := s.catalog.Without(exclude)
	if len(available) <= s.cfg.ActiveCount {
		return available
	}
	s.shuffle(available)
	return available[:s.cfg.ActiveCount]
}

// Ensure loads the persisted rotation, rotating instead when there is none,
// the id list is corrupt, or the interval already elapsed.
func (s *Scheduler) Ensure(ctx context.Context) ([]Mission, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, ok := lookupIDs(ctx, s.store, KeyActive)
	last := s.persistedRotation(ctx)
	now := s.now()

	if !ok || last.IsZero() || now.Sub(last) > s.cfg.RotateInterval {
		return s.rotateLocked(ctx)
	}

	s.active = s.catalog.Filter(ids)
	s.lastRotate = last
	s.persisted = true
	return slices.Clone(s.active), nil
}

// Current returns the active missions in their current order.
func (s *Scheduler) Current() []Mission {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.active)
}

// LastRotate returns when the active set was drawn, zero before Ensure.
func (s *Scheduler) LastRotate() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastRotate
}

// TimeLeft returns the countdown to the next rotation, never negative.
func (s *Scheduler) TimeLeft() time.Duration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.timeLeft(s.lastRotate)
}

func (s *Scheduler) timeLeft(last time.Time) time.Duration {
	left := s.cfg.RotateInterval - s.now().Sub(last)
	if left < 0 {
		return 0
	}
	return left
}

// Tick recomputes the countdown and rotates when it has run out. The
// latch guarantees one rotation per expiry. A rotation that vanished from
// the store, as after a logout, is replaced at once.
func (s *Scheduler) Tick(ctx context.Context) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ids, listed := lookupIDs(ctx, s.store, KeyActive)
	last := s.persistedRotation(ctx)

	if s.persisted && (!listed || last.IsZero()) {
		slog.Info("persisted rotation missing, rotating")
		_, err := s.rotateLocked(ctx)
		return true, err
	}

	// Another process may have rotated; follow its timestamp.
	if last.After(s.lastRotate) {
		s.lastRotate = last
		if listed {
			s.active = s.catalog.Filter(ids)
		}
	}
	// A rotation that failed to persist still counts from when it ran.
	if last.Before(s.lastRotate) {
		last = s.lastRotate
	}

	if !s.latch.Observe(s.timeLeft(last), !last.IsZero()) {
		return false, nil
	}
	_, err := s.rotateLocked(ctx)
	return true, err
}

// Run ticks every TickInterval until ctx is cancelled.
func (s *Scheduler) Run(ctx context.Context) error {
	ticker := time.NewTicker(s.cfg.TickInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if _, err := s.Tick(ctx); err != nil {
				slog.Error("mission rotation failed", slog.Any("error", err))
			}
		}
	}
}

// Claimed returns the IDs claimed during the current rotation.
func (s *Scheduler) Claimed(ctx context.Context) []string {
	return readIDs(ctx, s.store, KeyClaimed)
}

// Board assembles the active missions with their progress for display.
func (s *Scheduler) Board(ctx context.Context, user *credentials.UserData) Board {
	s.mu.Lock()
	active := slices.Clone(s.active)
	last := s.lastRotate
	left := s.timeLeft(last)
	s.mu.Unlock()

	progress := s.ledger.GetAll(ctx)
	claimed := s.Claimed(ctx)

	views := make([]MissionView, 0, len(active))
	for _, m := range active {
		p := ProgressOf(m, user, progress)
		isClaimed := slices.Contains(claimed, m.ID)
		views = append(views, MissionView{
			Mission:   m,
			Count:     progress[m.ID],
			Progress:  p,
			Completed: p >= 1,
			Claimed:   isClaimed,
			Claimable: p >= 1 && !isClaimed,
		})
	}
	return Board{Missions: views, LastRotate: last, TimeLeftMS: left.Milliseconds()}
}

// persistedRotation reads missions_last_rotate. Missing or unparsable
// values read as zero.
func (s *Scheduler) persistedRotation(ctx context.Context) time.Time {
	v, ok, err := s.store.Get(ctx, KeyLastRotate)
	if err != nil || !ok {
		return time.Time{}
	}
	ms, err := strconv.ParseInt(v.String(), 10, 64)
	if err != nil || ms <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(ms)
}

func missionIDs(ms []Mission) []string {
	ids := make([]string, len(ms))
	for i, m := range ms {
		ids[i] = m.ID
	}
	return ids
}
