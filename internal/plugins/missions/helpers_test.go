package missions

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/kvstore"
)

var testStart = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// --- Fakes ---

// fakeClock is a settable time source.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: testStart}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// mockRewards implements RewardClient.
type mockRewards struct {
	rechargeFn func(ctx context.Context, amount int) error

	mu    sync.Mutex
	calls []int
}

func (m *mockRewards) RechargeSproutCoins(ctx context.Context, amount int) error {
	m.mu.Lock()
	m.calls = append(m.calls, amount)
	m.mu.Unlock()
	if m.rechargeFn != nil {
		return m.rechargeFn(ctx, amount)
	}
	return nil
}

func (m *mockRewards) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

// note is one recorded notification.
type note struct {
	level   string
	message string
}

// recordingNotifier implements Notifier.
type recordingNotifier struct {
	mu    sync.Mutex
	notes []note
}

func (n *recordingNotifier) Info(message string)    { n.add("info", message) }
func (n *recordingNotifier) Success(message string) { n.add("success", message) }
func (n *recordingNotifier) Error(message string)   { n.add("error", message) }

func (n *recordingNotifier) add(level, message string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.notes = append(n.notes, note{level: level, message: message})
}

func (n *recordingNotifier) Notes() []note {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]note(nil), n.notes...)
}

// --- Fixture ---

type fixture struct {
	store     *kvstore.Store
	catalog   *Catalog
	ledger    *Ledger
	clock     *fakeClock
	notifier  *recordingNotifier
	rewards   *mockRewards
	scheduler *Scheduler
	claims    *ClaimService
	tracker   *Tracker
	games     *Games
}

func testMissionsConfig() config.MissionsConfig {
	return config.MissionsConfig{
		RotateInterval: 3 * time.Minute,
		ActiveCount:    3,
		TickInterval:   10 * time.Millisecond,
	}
}

// identityShuffle leaves order untouched so the first ActiveCount catalog
// missions are picked.
func identityShuffle([]Mission) {}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := kvstore.NewMemory()
	t.Cleanup(func() { store.Close() })

	f := &fixture{
		store:    store,
		catalog:  DefaultCatalog(),
		clock:    newFakeClock(),
		notifier: &recordingNotifier{},
		rewards:  &mockRewards{},
	}
	f.ledger = NewLedger(store)
	f.scheduler = NewScheduler(store, f.catalog, f.ledger, f.notifier, testMissionsConfig(),
		WithSchedulerClock(f.clock.Now),
		WithShuffle(identityShuffle),
	)
	f.claims = NewClaimService(store, f.catalog, f.ledger, f.rewards, f.notifier)
	f.tracker = NewTracker(f.ledger)
	f.games = NewGames(f.rewards, f.tracker, f.notifier)
	f.games.now = f.clock.Now
	return f
}

// activate persists ids as the active set.
func (f *fixture) activate(t *testing.T, ids ...string) {
	t.Helper()
	require.NoError(t, f.store.Set(context.Background(), KeyActive, ids))
}
