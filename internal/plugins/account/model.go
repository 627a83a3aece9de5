// Package account exposes the balance operations of the backend API and
// feeds their successes into mission tracking.
package account

import (
	"context"

	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
	"github.com/keyxmakerx/sproutfound/internal/plugins/missions"
	"github.com/keyxmakerx/sproutfound/internal/remote"
)

// Remote is the subset of the backend client this plugin uses.
type Remote interface {
	RechargeAccount(ctx context.Context, amount float64) error
	MakePurchase(ctx context.Context, in remote.PurchaseInput) error
	RedeemSproutCoins(ctx context.Context, coins int) error
	RedeemInvestment(ctx context.Context, in remote.RedeemInvestmentInput) error
	GetProfile(ctx context.Context) (*credentials.UserData, error)
}

// EventRecorder advances missions. Implemented by missions.Tracker.
type EventRecorder interface {
	Record(ctx context.Context, event missions.Event) ([]string, error)
}

// Result is returned by every balance operation.
type Result struct {
	Advanced []string `json:"advanced_missions"`
}

// --- Request DTOs (bound from HTTP requests) ---

// RechargeRequest tops up the balance.
type RechargeRequest struct {
	Amount float64 `json:"amount"`
}

// PurchaseRequest records a purchase.
type PurchaseRequest struct {
	Name       string  `json:"name"`
	Amount     float64 `json:"amount"`
	SaveAmount float64 `json:"save_amount"`
}

// RedeemCoinsRequest exchanges Sprout-Coins.
type RedeemCoinsRequest struct {
	Coins int `json:"coins"`
}

// RedeemInvestmentRequest withdraws an investment. Omit Amount for a full
// withdrawal.
type RedeemInvestmentRequest struct {
	Amount *float64 `json:"amount"`
}
