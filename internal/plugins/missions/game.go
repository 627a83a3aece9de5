package missions

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
)

// gameRetention is how long sessions are remembered: finished ones so a
// late duplicate finish is still rejected, open ones until they are
// considered abandoned.
const gameRetention = time.Hour

// Games is the boundary to the mini-game. The game itself runs elsewhere;
// this only credits its coins and counts completions.
type Games struct {
	rewards  RewardClient
	tracker  *Tracker
	notifier Notifier
	now      func() time.Time

	mu       sync.Mutex
	sessions map[string]*GameSession
}

// NewGames creates the game boundary.
func NewGames(rewards RewardClient, tracker *Tracker, notifier Notifier) *Games {
	return &Games{
		rewards:  rewards,
		tracker:  tracker,
		notifier: notifier,
		now:      time.Now,
		sessions: make(map[string]*GameSession),
	}
}

// Start opens a new game session.
func (g *Games) Start() GameSession {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.pruneLocked()

	s := &GameSession{
		ID:        uuid.NewString(),
		StartedAt: g.now(),
	}
	g.sessions[s.ID] = s
	return *s
}

// Finish ends a session. Each session is accepted once; a completed game
// credits its coins and counts toward the game missions. A failed credit
// only raises a notification.
func (g *Games) Finish(ctx context.Context, id string, coins int, completed bool) (*GameResult, error) {
	if coins < 0 {
		return nil, apperror.NewValidation("coins must not be negative")
	}

	g.mu.Lock()
	s, ok := g.sessions[id]
	if !ok {
		g.mu.Unlock()
		return nil, apperror.NewNotFound("game session not found")
	}
	if s.FinishedAt != nil {
		g.mu.Unlock()
		return nil, apperror.NewConflict("game session already finished")
	}
	now := g.now()
	s.FinishedAt = &now
	s.Coins = coins
	s.Completed = completed
	session := *s
	g.mu.Unlock()

	result := &GameResult{Session: session}

	if completed && coins > 0 {
		if err := g.rewards.RechargeSproutCoins(ctx, coins); err != nil {
			slog.Warn("game coin credit failed", slog.String("session", id), slog.Any("error", err))
			g.notifier.Error("Could not credit your Sprout-Coins from the game.")
		} else {
			result.Credited = true
			g.notifier.Success(fmt.Sprintf("You earned %d Sprout-Coins in the game!", coins))
		}
	}

	if completed {
		advanced, err := g.tracker.Record(ctx, EventGameCompleted)
		if err != nil {
			slog.Error("recording game completion", slog.String("session", id), slog.Any("error", err))
		}
		result.Advanced = advanced
	}

	return result, nil
}

// pruneLocked drops sessions finished, or started and never finished,
// before the retention cutoff. Caller holds mu.
func (g *Games) pruneLocked() {
	cutoff := g.now().Add(-gameRetention)
	for id, s := range g.sessions {
		since := s.StartedAt
		if s.FinishedAt != nil {
			since = *s.FinishedAt
		}
		if since.Before(cutoff) {
			delete(g.sessions, id)
		}
	}
}
