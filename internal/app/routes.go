package app

import (
	"context"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/sproutfound/internal/plugins/account"
	"github.com/keyxmakerx/sproutfound/internal/plugins/auth"
	"github.com/keyxmakerx/sproutfound/internal/plugins/missions"
	"github.com/keyxmakerx/sproutfound/internal/plugins/notifications"
)

// RegisterRoutes sets up all application routes. It registers public routes
// directly and delegates to each plugin's route registration function.
//
// This is the single place where all routes are aggregated. When a new
// plugin is added, its routes are registered here.
func (a *App) RegisterRoutes() {
	e := a.Echo

	// --- Public Routes (no auth required) ---

	e.GET("/healthz", a.health)

	// --- Plugin Routes ---

	// auth plugin (public: session state, login, logout)
	auth.RegisterRoutes(e, auth.NewHandler(a.Authority), a.Limiter)

	requireAuth := auth.RequireAuth(a.Authority)

	missions.RegisterRoutes(e,
		missions.NewHandler(a.Scheduler, a.Claims, a.Games, a.Credentials),
		requireAuth,
	)
	notifications.RegisterRoutes(e,
		notifications.NewHandler(a.Hub, a.Config.BaseURL),
		requireAuth,
	)
	account.RegisterRoutes(e, account.NewHandler(a.Account), requireAuth)
}

// health reports whether the store backend is reachable. The session state
// is included so probes can tell a cold start from a logged-out client.
func (a *App) health(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	body := map[string]string{
		"status":  "ok",
		"store":   "available",
		"session": string(a.Authority.State().Status),
	}
	if !a.Store.Available(ctx) {
		body["status"] = "degraded"
		body["store"] = "unavailable"
		return c.JSON(http.StatusServiceUnavailable, body)
	}
	return c.JSON(http.StatusOK, body)
}
