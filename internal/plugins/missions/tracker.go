package missions

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// eventMissions lists the missions each event advances.
var eventMissions = map[Event][]string{
	EventPurchase:             {"five-transactions", "buy-products"},
	EventDeposit:              {"make-deposit", "two-deposits"},
	EventSproutCoinRedemption: {"redeem-sproutcoins"},
	EventInvestmentRedemption: {"first-redeem"},
	EventGameCompleted:        {"play-game", "play-5-games"},
}

// Tracker turns user events into ledger increments.
type Tracker struct {
	ledger *Ledger
}

// NewTracker creates a tracker.
func NewTracker(ledger *Ledger) *Tracker {
	return &Tracker{ledger: ledger}
}

// Record advances every active mission tied to event and returns the IDs
// that moved. Unknown events are ignored.
func (t *Tracker) Record(ctx context.Context, event Event) ([]string, error) {
	var (
		advanced []string
		errs     []error
	)
	for _, id := range eventMissions[event] {
		ok, err := t.ledger.IncrementIfActive(ctx, id)
		if err != nil {
			errs = append(errs, fmt.Errorf("advancing %s: %w", id, err))
			continue
		}
		if ok {
			advanced = append(advanced, id)
		}
	}

	if len(advanced) > 0 {
		slog.Debug("missions advanced", slog.String("event", string(event)), slog.Any("missions", advanced))
	}
	return advanced, errors.Join(errs...)
}
