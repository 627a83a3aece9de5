package missions

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
	"github.com/keyxmakerx/sproutfound/internal/kvstore"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// ClaimService pays out completed missions.
type ClaimService struct {
	store    *kvstore.Store
	catalog  *Catalog
	ledger   *Ledger
	rewards  RewardClient
	notifier Notifier

	// mu serializes claims so a double submit can't pay twice.
	mu sync.Mutex
}

// NewClaimService creates a claim service.
func NewClaimService(store *kvstore.Store, catalog *Catalog, ledger *Ledger, rewards RewardClient, notifier Notifier) *ClaimService {
	return &ClaimService{
		store:    store,
		catalog:  catalog,
		ledger:   ledger,
		rewards:  rewards,
		notifier: notifier,
	}
}

// Claim pays the reward for a completed, unclaimed mission. Nothing is
// recorded locally unless the remote credit succeeds.
func (s *ClaimService) Claim(ctx context.Context, id string, user *credentials.UserData) (*ClaimResult, error) {
	mission, ok := s.catalog.Get(id)
	if !ok {
		return nil, apperror.NewNotFound("mission not found")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	claimed := readIDs(ctx, s.store, KeyClaimed)
	if slices.Contains(claimed, id) {
		return nil, apperror.NewConflict("mission reward already claimed")
	}

	if ProgressOf(mission, user, s.ledger.GetAll(ctx)) < 1 {
		return nil, apperror.NewValidation("mission is not complete yet")
	}

	if err := s.rewards.RechargeSproutCoins(ctx, mission.Reward); err != nil {
		slog.Warn("mission reward credit failed",
			slog.String("mission", id),
			slog.Any("error", err),
		)
		s.notifier.Error("Could not claim the reward. Please try again.")
		return nil, apperror.NewBadGateway("could not credit the reward", err)
	}

	// The coins are already credited; local write failures are logged
	// rather than reported so the client does not retry and pay twice.
	claimed = append(claimed, id)
	if err := s.store.Set(ctx, KeyClaimed, claimed); err != nil {
		slog.Error("recording claimed mission", slog.String("mission", id), slog.Any("error", err))
	}
	if err := s.ledger.Reset(ctx, id); err != nil {
		slog.Error("resetting claimed mission progress", slog.String("mission", id), slog.Any("error", err))
	}

	s.notifier.Success(fmt.Sprintf("You claimed %d Sprout-Coins!", mission.Reward))
	slog.Info("mission claimed", slog.String("mission", id), slog.Int("reward", mission.Reward))

	return &ClaimResult{MissionID: id, Reward: mission.Reward}, nil
}
