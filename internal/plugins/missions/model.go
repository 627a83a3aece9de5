// Package missions implements the rotating mission board: a fixed catalog
// of missions, a persisted per-mission progress ledger, a scheduler that
// swaps the active set on a fixed interval, and reward claims paid out in
// Sprout-Coins through the remote API.
//
// All state lives in the key-value store under the keys below, so it
// survives restarts and is wiped by logout together with the credentials.
package missions

import (
	"context"
	"time"

	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// Store keys. Values are JSON except KeyLastRotate, which holds epoch
// milliseconds as a decimal string.
const (
	KeyProgress   = "mission_progress"
	KeyClaimed    = "missions_claimed"
	KeyActive     = "active_missions"
	KeyLastRotate = "missions_last_rotate"
)

// ProgressMap maps mission ID to its raw event count.
type ProgressMap map[string]int

// ProgressFunc computes a completion ratio for a mission. The result is
// clamped to [0,1] by the catalog.
type ProgressFunc func(user *credentials.UserData, progress ProgressMap) float64

// Mission is one catalog entry.
type Mission struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description,omitempty" yaml:"description"`
	Goal        int    `json:"goal" yaml:"goal"`
	Reward      int    `json:"reward" yaml:"reward"`

	// Progress defaults to count/goal when nil.
	Progress ProgressFunc `json:"-" yaml:"-"`
}

// MissionView is a mission as shown on the board.
type MissionView struct {
	Mission
	Count     int     `json:"count"`
	Progress  float64 `json:"progress"`
	Completed bool    `json:"completed"`
	Claimed   bool    `json:"claimed"`
	Claimable bool    `json:"claimable"`
}

// Board is the active mission set plus the rotation countdown.
type Board struct {
	Missions   []MissionView `json:"missions"`
	LastRotate time.Time     `json:"last_rotate"`
	TimeLeftMS int64         `json:"time_left_ms"`
}

// ClaimResult is returned after a successful reward claim.
type ClaimResult struct {
	MissionID string `json:"mission_id"`
	Reward    int    `json:"reward"`
}

// Event is a user action that advances missions.
type Event string

const (
	EventPurchase             Event = "purchase"
	EventDeposit              Event = "deposit"
	EventSproutCoinRedemption Event = "sproutcoin_redemption"
	EventInvestmentRedemption Event = "investment_redemption"
	EventGameCompleted        Event = "game_completed"
)

// GameSession tracks one play of the mini-game.
type GameSession struct {
	ID         string     `json:"id"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Coins      int        `json:"coins"`
	Completed  bool       `json:"completed"`
}

// GameResult reports what happened when a game session ended.
type GameResult struct {
	Session  GameSession `json:"session"`
	Credited bool        `json:"credited"`
	Advanced []string    `json:"advanced"`
}

// --- Collaborators ---

// RewardClient pays out Sprout-Coins. Implemented by the remote API client.
type RewardClient interface {
	RechargeSproutCoins(ctx context.Context, amount int) error
}

// Notifier surfaces user-facing messages. Implemented by the notification hub.
type Notifier interface {
	Info(message string)
	Success(message string)
	Error(message string)
}

// --- Request DTOs (bound from HTTP requests) ---

// FinishGameRequest is the body of POST /api/v1/games/:id/finish.
type FinishGameRequest struct {
	Coins     int  `json:"coins"`
	Completed bool `json:"completed"`
}
