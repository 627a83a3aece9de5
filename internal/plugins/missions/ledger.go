package missions

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/keyxmakerx/sproutfound/internal/kvstore"
)

// Ledger is the persisted per-mission event counter. The whole map is read
// and rewritten on every change; a mutex serializes writers within this
// process, concurrent processes sharing a backend are last-write-wins.
type Ledger struct {
	store *kvstore.Store
	mu    sync.Mutex
}

// NewLedger creates a ledger over store.
func NewLedger(store *kvstore.Store) *Ledger {
	return &Ledger{store: store}
}

// GetAll returns every counter. A missing or unreadable blob yields an
// empty map; this never fails.
func (l *Ledger) GetAll(ctx context.Context) ProgressMap {
	v, ok, err := l.store.Get(ctx, KeyProgress)
	if err != nil {
		slog.Warn("reading mission progress", slog.Any("error", err))
		return ProgressMap{}
	}
	if !ok {
		return ProgressMap{}
	}

	var progress ProgressMap
	if err := v.Decode(&progress); err != nil || progress == nil {
		if err != nil {
			slog.Warn("discarding corrupt mission progress", slog.Any("error", err))
		}
		return ProgressMap{}
	}
	return progress
}

// Get returns one counter, 0 when absent.
func (l *Ledger) Get(ctx context.Context, id string) int {
	return l.GetAll(ctx)[id]
}

// Increment adds one to a counter.
func (l *Ledger) Increment(ctx context.Context, id string) error {
	return l.IncrementBy(ctx, id, 1)
}

// IncrementBy adds n to a counter. Negative n is rejected.
func (l *Ledger) IncrementBy(ctx context.Context, id string, n int) error {
	if n < 0 {
		return fmt.Errorf("incrementing %s: negative amount %d", id, n)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	progress := l.GetAll(ctx)
	progress[id] += n
	return l.write(ctx, progress)
}

// Reset sets a counter back to zero.
func (l *Ledger) Reset(ctx context.Context, id string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	progress := l.GetAll(ctx)
	progress[id] = 0
	return l.write(ctx, progress)
}

// ResetAll drops the whole ledger.
func (l *Ledger) ResetAll(ctx context.Context) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.store.Delete(ctx, KeyProgress); err != nil {
		return fmt.Errorf("clearing mission progress: %w", err)
	}
	return nil
}

// IsMissionActive reports whether id is in the persisted active set. A
// missing or corrupt set means nothing is active.
func (l *Ledger) IsMissionActive(ctx context.Context, id string) bool {
	return slices.Contains(readIDs(ctx, l.store, KeyActive), id)
}

// IncrementIfActive increments id only while it is on the board. Event
// call sites go through here so inactive missions never accumulate.
func (l *Ledger) IncrementIfActive(ctx context.Context, id string) (bool, error) {
	if !l.IsMissionActive(ctx, id) {
		return false, nil
	}
	if err := l.Increment(ctx, id); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Ledger) write(ctx context.Context, progress ProgressMap) error {
	if err := l.store.Set(ctx, KeyProgress, progress); err != nil {
		return fmt.Errorf("writing mission progress: %w", err)
	}
	return nil
}

// readIDs decodes a JSON string list. Missing or corrupt values read as nil.
func readIDs(ctx context.Context, store *kvstore.Store, key string) []string {
	ids, _ := lookupIDs(ctx, store, key)
	return ids
}

// lookupIDs is readIDs that also reports whether a usable list was found.
func lookupIDs(ctx context.Context, store *kvstore.Store, key string) ([]string, bool) {
	v, ok, err := store.Get(ctx, key)
	if err != nil {
		slog.Warn("reading id list", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if !ok {
		return nil, false
	}

	var ids []string
	if err := v.Decode(&ids); err != nil {
		slog.Warn("discarding corrupt id list", slog.String("key", key), slog.Any("error", err))
		return nil, false
	}
	if ids == nil {
		return nil, false
	}
	return ids, true
}
