package auth

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// Authority owns the session state machine. State is only recomputed on
// CheckSession/Refresh/Login/Logout; nothing re-checks expiry on a timer,
// so a token that expires mid-session stays Authenticated until the next
// explicit refresh or restart.
type Authority struct {
	creds credentials.Repository
	now   func() time.Time

	// checkMu serializes checks so a slow check can't overwrite a newer one.
	checkMu sync.Mutex

	mu    sync.RWMutex
	state State
}

// AuthorityOption customizes an Authority.
type AuthorityOption func(*Authority)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) AuthorityOption {
	return func(a *Authority) {
		a.now = now
	}
}

// NewAuthority creates an authority in the Loading state.
func NewAuthority(creds credentials.Repository, opts ...AuthorityOption) *Authority {
	a := &Authority{
		creds: creds,
		now:   time.Now,
		state: State{Status: StatusLoading},
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// State returns the current snapshot.
func (a *Authority) State() State {
	a.mu.RLock()
	defer a.mu.RUnlock()
	return a.state
}

// CheckSession recomputes the state from stored credentials. Any missing
// credential, undecodable token, missing exp or past exp yields
// Unauthenticated. The new state replaces the old one atomically, so
// readers never observe a transient Loading after the first check.
func (a *Authority) CheckSession(ctx context.Context) State {
	a.checkMu.Lock()
	defer a.checkMu.Unlock()

	next := a.evaluate(ctx)

	a.mu.Lock()
	a.state = next
	a.mu.Unlock()
	return next
}

// Refresh re-runs CheckSession. Call it after any credential write and
// wait for it before leaving the login flow.
func (a *Authority) Refresh(ctx context.Context) State {
	return a.CheckSession(ctx)
}

// Login stores the credentials issued by the backend and refreshes.
func (a *Authority) Login(ctx context.Context, req LoginRequest) (State, error) {
	req.Token = strings.TrimSpace(req.Token)
	req.Verify = strings.TrimSpace(req.Verify)
	req.IP = strings.TrimSpace(req.IP)
	if req.Token == "" || req.Verify == "" || req.IP == "" {
		return a.State(), apperror.NewValidation("token, verify and ip are required")
	}

	if err := a.creds.SetToken(ctx, req.Token); err != nil {
		return a.State(), apperror.NewInternal(fmt.Errorf("storing token: %w", err))
	}
	if err := a.creds.SetVerify(ctx, req.Verify); err != nil {
		return a.State(), apperror.NewInternal(fmt.Errorf("storing verify: %w", err))
	}
	if err := a.creds.SetIP(ctx, req.IP); err != nil {
		return a.State(), apperror.NewInternal(fmt.Errorf("storing ip: %w", err))
	}

	state := a.Refresh(ctx)
	if !state.IsAuthenticated() {
		return state, apperror.NewUnauthorized("session token is expired or malformed")
	}

	slog.Info("session established", slog.String("sub", state.User.Subject()))
	return state, nil
}

// Logout wipes the entire store and marks the session Unauthenticated. The
// local state is reset even if the wipe fails.
func (a *Authority) Logout(ctx context.Context) error {
	a.checkMu.Lock()
	defer a.checkMu.Unlock()

	err := a.creds.ClearAll(ctx)

	a.mu.Lock()
	a.state = State{Status: StatusUnauthenticated}
	a.mu.Unlock()

	if err != nil {
		return fmt.Errorf("clearing credentials: %w", err)
	}
	slog.Info("session cleared")
	return nil
}

// evaluate derives a state without touching the stored one.
func (a *Authority) evaluate(ctx context.Context) State {
	unauthenticated := State{Status: StatusUnauthenticated}

	token, err := a.creds.GetToken(ctx)
	if err != nil {
		slog.Warn("session check failed reading token", slog.Any("error", err))
		return unauthenticated
	}
	verify, err := a.creds.GetVerify(ctx)
	if err != nil {
		slog.Warn("session check failed reading verify", slog.Any("error", err))
		return unauthenticated
	}
	ip, err := a.creds.GetIP(ctx)
	if err != nil {
		slog.Warn("session check failed reading ip", slog.Any("error", err))
		return unauthenticated
	}

	if token == "" || verify == "" || ip == "" {
		return unauthenticated
	}

	claims, exp, err := decodeToken(token)
	if err != nil {
		slog.Debug("stored token rejected", slog.Any("error", err))
		return unauthenticated
	}
	if a.now().After(exp) {
		return unauthenticated
	}

	return State{Status: StatusAuthenticated, User: claims}
}
