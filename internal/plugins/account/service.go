package account

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
	"github.com/keyxmakerx/sproutfound/internal/plugins/missions"
	"github.com/keyxmakerx/sproutfound/internal/remote"
)

// AccountService runs balance operations against the backend. A mission
// event is recorded only after the backend confirms the operation.
type AccountService interface {
	Recharge(ctx context.Context, req RechargeRequest) (*Result, error)
	Purchase(ctx context.Context, req PurchaseRequest) (*Result, error)
	RedeemCoins(ctx context.Context, req RedeemCoinsRequest) (*Result, error)
	RedeemInvestment(ctx context.Context, investmentID string, req RedeemInvestmentRequest) (*Result, error)

	// Profile returns the cached profile, fetching it when refresh is set
	// or nothing is cached.
	Profile(ctx context.Context, refresh bool) (*credentials.UserData, error)
}

// accountService implements AccountService.
type accountService struct {
	remote   Remote
	events   EventRecorder
	creds    credentials.Repository
	notifier missions.Notifier
}

// NewAccountService creates a new account service.
func NewAccountService(r Remote, events EventRecorder, creds credentials.Repository, notifier missions.Notifier) AccountService {
	return &accountService{
		remote:   r,
		events:   events,
		creds:    creds,
		notifier: notifier,
	}
}

func (s *accountService) Recharge(ctx context.Context, req RechargeRequest) (*Result, error) {
	if req.Amount <= 0 {
		return nil, apperror.NewValidation("amount must be positive")
	}
	if err := s.remote.RechargeAccount(ctx, req.Amount); err != nil {
		return nil, s.remoteFailed("recharge", "Could not recharge your account.", err)
	}
	s.notifier.Success("Your account was recharged.")
	return s.record(ctx, missions.EventDeposit), nil
}

func (s *accountService) Purchase(ctx context.Context, req PurchaseRequest) (*Result, error) {
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		return nil, apperror.NewValidation("name is required")
	}
	if req.Amount <= 0 {
		return nil, apperror.NewValidation("amount must be positive")
	}
	if req.SaveAmount < 0 {
		return nil, apperror.NewValidation("save amount must not be negative")
	}

	in := remote.PurchaseInput{Name: req.Name, Amount: req.Amount, SaveAmount: req.SaveAmount}
	if err := s.remote.MakePurchase(ctx, in); err != nil {
		return nil, s.remoteFailed("purchase", "Could not complete your purchase.", err)
	}
	s.notifier.Success("Purchase completed.")
	return s.record(ctx, missions.EventPurchase), nil
}

func (s *accountService) RedeemCoins(ctx context.Context, req RedeemCoinsRequest) (*Result, error) {
	if req.Coins <= 0 {
		return nil, apperror.NewValidation("coins must be positive")
	}
	if err := s.remote.RedeemSproutCoins(ctx, req.Coins); err != nil {
		return nil, s.remoteFailed("redeem coins", "Could not redeem your Sprout-Coins.", err)
	}
	s.notifier.Success(fmt.Sprintf("You redeemed %d Sprout-Coins.", req.Coins))
	return s.record(ctx, missions.EventSproutCoinRedemption), nil
}

func (s *accountService) RedeemInvestment(ctx context.Context, investmentID string, req RedeemInvestmentRequest) (*Result, error) {
	investmentID = strings.TrimSpace(investmentID)
	if investmentID == "" {
		return nil, apperror.NewValidation("investment id is required")
	}
	if req.Amount != nil && *req.Amount <= 0 {
		return nil, apperror.NewValidation("amount must be positive")
	}

	in := remote.RedeemInvestmentInput{InvestmentID: investmentID, Amount: req.Amount}
	if err := s.remote.RedeemInvestment(ctx, in); err != nil {
		return nil, s.remoteFailed("redeem investment", "Could not redeem your investment.", err)
	}
	s.notifier.Success("Investment redeemed.")
	return s.record(ctx, missions.EventInvestmentRedemption), nil
}

func (s *accountService) Profile(ctx context.Context, refresh bool) (*credentials.UserData, error) {
	if !refresh {
		cached, err := s.creds.GetUserData(ctx)
		if err != nil {
			slog.Warn("reading cached profile", slog.Any("error", err))
		}
		if cached != nil {
			return cached, nil
		}
	}

	profile, err := s.remote.GetProfile(ctx)
	if err != nil {
		return nil, apperror.NewBadGateway("could not load your profile", err)
	}
	if err := s.creds.SetUserData(ctx, profile); err != nil {
		slog.Warn("caching profile", slog.Any("error", err))
	}
	return profile, nil
}

// record advances missions after a confirmed operation. Tracking failures
// never fail the operation itself.
func (s *accountService) record(ctx context.Context, event missions.Event) *Result {
	advanced, err := s.events.Record(ctx, event)
	if err != nil {
		slog.Error("recording mission event", slog.String("event", string(event)), slog.Any("error", err))
	}
	return &Result{Advanced: advanced}
}

func (s *accountService) remoteFailed(op, message string, err error) error {
	slog.Warn("remote account call failed", slog.String("op", op), slog.Any("error", err))
	s.notifier.Error(message)
	return apperror.NewBadGateway(message, err)
}
