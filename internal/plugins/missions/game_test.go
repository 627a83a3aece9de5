package missions

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
)

func TestGames_StartIssuesUniqueSessions(t *testing.T) {
	f := newFixture(t)
	a := f.games.Start()
	b := f.games.Start()

	assert.NotEqual(t, a.ID, b.ID)
	_, err := uuid.Parse(a.ID)
	assert.NoError(t, err)
	assert.Equal(t, testStart, a.StartedAt)
}

func TestGames_FinishCompleted(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.activate(t, "play-game", "play-5-games")

	s := f.games.Start()
	result, err := f.games.Finish(ctx, s.ID, 12, true)
	require.NoError(t, err)

	assert.True(t, result.Credited)
	assert.Equal(t, []string{"play-game", "play-5-games"}, result.Advanced)
	assert.Equal(t, []int{12}, f.rewards.Calls())
	assert.Equal(t, ProgressMap{"play-game": 1, "play-5-games": 1}, f.ledger.GetAll(ctx))
	require.NotNil(t, result.Session.FinishedAt)
}

func TestGames_FinishIsAcceptedOnce(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.activate(t, "play-game")

	s := f.games.Start()
	_, err := f.games.Finish(ctx, s.ID, 3, true)
	require.NoError(t, err)

	_, err = f.games.Finish(ctx, s.ID, 3, true)
	require.Error(t, err)
	assert.True(t, apperror.Is(err, "conflict"))

	assert.Equal(t, []int{3}, f.rewards.Calls())
	assert.Equal(t, 1, f.ledger.Get(ctx, "play-game"))
}

func TestGames_FinishAbandoned(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.activate(t, "play-game")

	s := f.games.Start()
	result, err := f.games.Finish(ctx, s.ID, 9, false)
	require.NoError(t, err)

	assert.False(t, result.Credited)
	assert.Empty(t, result.Advanced)
	assert.Empty(t, f.rewards.Calls())
	assert.Empty(t, f.ledger.GetAll(ctx))
}

func TestGames_FinishCompletedWithoutCoins(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.activate(t, "play-game")

	result, err := f.games.Finish(ctx, f.games.Start().ID, 0, true)
	require.NoError(t, err)
	assert.False(t, result.Credited)
	assert.Empty(t, f.rewards.Calls())
	assert.Equal(t, []string{"play-game"}, result.Advanced)
}

func TestGames_CreditFailureStillCountsCompletion(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	f.activate(t, "play-game")
	f.rewards.rechargeFn = func(context.Context, int) error { return errors.New("down") }

	result, err := f.games.Finish(ctx, f.games.Start().ID, 4, true)
	require.NoError(t, err)
	assert.False(t, result.Credited)
	assert.Equal(t, 1, f.ledger.Get(ctx, "play-game"))

	notes := f.notifier.Notes()
	require.Len(t, notes, 1)
	assert.Equal(t, "error", notes[0].level)
}

func TestGames_FinishRejects(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.games.Finish(ctx, "missing", 1, true)
	assert.True(t, apperror.Is(err, "not_found"))

	_, err = f.games.Finish(ctx, f.games.Start().ID, -1, true)
	assert.True(t, apperror.Is(err, "validation_error"))
}

func TestGames_PrunesOldSessions(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	finished := f.games.Start()
	_, err := f.games.Finish(ctx, finished.ID, 0, false)
	require.NoError(t, err)
	abandoned := f.games.Start()

	f.clock.Advance(90 * time.Minute)
	recent := f.games.Start()
	f.clock.Advance(40 * time.Minute)
	f.games.Start()

	f.games.mu.Lock()
	_, finishedKept := f.games.sessions[finished.ID]
	_, abandonedKept := f.games.sessions[abandoned.ID]
	_, recentKept := f.games.sessions[recent.ID]
	size := len(f.games.sessions)
	f.games.mu.Unlock()

	assert.False(t, finishedKept)
	assert.False(t, abandonedKept, "sessions never finished expire too")
	assert.True(t, recentKept)
	assert.Equal(t, 2, size)

	_, err = f.games.Finish(ctx, abandoned.ID, 10, true)
	assert.True(t, apperror.Is(err, "not_found"))
	assert.Empty(t, f.rewards.Calls())
}
