// Package app is the application bootstrap and dependency injection root.
// It creates and holds all shared infrastructure (key/value store, remote
// client, notification hub, Echo instance) and wires together all plugins.
package app

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
	"github.com/keyxmakerx/sproutfound/internal/config"
	"github.com/keyxmakerx/sproutfound/internal/kvstore"
	"github.com/keyxmakerx/sproutfound/internal/middleware"
	"github.com/keyxmakerx/sproutfound/internal/plugins/account"
	"github.com/keyxmakerx/sproutfound/internal/plugins/auth"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
	"github.com/keyxmakerx/sproutfound/internal/plugins/missions"
	"github.com/keyxmakerx/sproutfound/internal/plugins/notifications"
	"github.com/keyxmakerx/sproutfound/internal/remote"
)

// App holds all shared dependencies and the Echo HTTP server instance.
// Created once at startup in main.go and used to register all routes.
type App struct {
	// Config holds the loaded application configuration.
	Config *config.Config

	// Store is the key/value store shared by every plugin.
	Store *kvstore.Store

	// Echo is the HTTP server instance.
	Echo *echo.Echo

	Credentials credentials.Repository
	Authority   *auth.Authority
	Hub         *notifications.Hub
	Remote      *remote.Client

	Catalog   *missions.Catalog
	Ledger    *missions.Ledger
	Scheduler *missions.Scheduler
	Claims    *missions.ClaimService
	Tracker   *missions.Tracker
	Games     *missions.Games
	Account   account.AccountService

	// Limiter backs the per-route rate limits; main runs its sweeper.
	Limiter *middleware.RateLimiter
}

// New creates a new App over store and configures the Echo server with
// global middleware and error handling. The store is owned by the caller.
func New(cfg *config.Config, store *kvstore.Store) (*App, error) {
	catalog, err := loadCatalog(cfg.Missions)
	if err != nil {
		return nil, err
	}

	e := echo.New()

	// Disable Echo's default banner and startup message -- we log our own.
	e.HideBanner = true
	e.HidePort = true

	// Resolve the real client IP behind the configured reverse proxies. The
	// login rate limit keys on it.
	if err := middleware.TrustedProxies(e, cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("configuring trusted proxies: %w", err)
	}

	creds := credentials.NewRepository(store)
	hub := notifications.NewHub()
	client := remote.NewClient(cfg.Remote, creds)
	ledger := missions.NewLedger(store)
	tracker := missions.NewTracker(ledger)

	a := &App{
		Config:      cfg,
		Store:       store,
		Echo:        e,
		Credentials: creds,
		Authority:   auth.NewAuthority(creds),
		Hub:         hub,
		Remote:      client,
		Catalog:     catalog,
		Ledger:      ledger,
		Scheduler:   missions.NewScheduler(store, catalog, ledger, hub, cfg.Missions),
		Claims:      missions.NewClaimService(store, catalog, ledger, client, hub),
		Tracker:     tracker,
		Games:       missions.NewGames(client, tracker, hub),
		Account:     account.NewAccountService(client, tracker, creds, hub),
		Limiter:     middleware.NewRateLimiter(),
	}

	// Register global middleware in order of execution.
	a.setupMiddleware()

	// Register the custom error handler that maps AppErrors to HTTP responses.
	e.HTTPErrorHandler = a.errorHandler

	return a, nil
}

// loadCatalog returns the YAML catalog when one is configured, otherwise
// the built-in missions.
func loadCatalog(cfg config.MissionsConfig) (*missions.Catalog, error) {
	if cfg.CatalogFile == "" {
		return missions.DefaultCatalog(), nil
	}
	catalog, err := missions.LoadCatalogFile(cfg.CatalogFile)
	if err != nil {
		return nil, fmt.Errorf("loading mission catalog: %w", err)
	}
	slog.Info("loaded mission catalog",
		slog.String("file", cfg.CatalogFile),
		slog.Int("missions", catalog.Len()),
	)
	return catalog, nil
}

// setupMiddleware registers global middleware on the Echo instance.
// The request logger is outermost so it sees the status written for
// recovered panics.
func (a *App) setupMiddleware() {
	a.Echo.Use(middleware.RequestLogger())
	a.Echo.Use(middleware.Recovery())
	a.Echo.Use(middleware.SecurityHeaders())

	// CORS -- the web client runs on its own origin.
	a.Echo.Use(middleware.CORS(middleware.CORSConfig{
		AllowedOrigins:   []string{a.Config.BaseURL},
		AllowCredentials: true,
	}))

	a.Echo.Use(middleware.CSRF([]string{a.Config.BaseURL}))
}

// errorHandler is the custom Echo error handler. It maps domain errors
// (AppError) and Echo's own HTTP errors to JSON responses. Internal causes
// are logged, never sent.
func (a *App) errorHandler(err error, c echo.Context) {
	// Don't double-write if response is already committed.
	if c.Response().Committed {
		return
	}

	code := http.StatusInternalServerError
	errType := "internal_error"
	message := defaultErrorMessage(code)

	var appErr *apperror.AppError
	var echoErr *echo.HTTPError
	switch {
	case errors.As(err, &appErr):
		code = appErr.Code
		errType = appErr.Type
		message = appErr.Message

		if appErr.Internal != nil {
			slog.Error("internal error",
				slog.String("type", appErr.Type),
				slog.String("message", appErr.Message),
				slog.Any("internal", appErr.Internal),
				slog.String("path", c.Request().URL.Path),
			)
		}

	case errors.As(err, &echoErr):
		// Router 404/405 and binder errors.
		code = echoErr.Code
		errType = errorType(code)
		if msg, ok := echoErr.Message.(string); ok && code < 500 {
			message = msg
		} else {
			message = defaultErrorMessage(code)
		}

	default:
		slog.Error("unhandled error",
			slog.Any("error", err),
			slog.String("path", c.Request().URL.Path),
		)
	}

	if c.Request().Method == http.MethodHead {
		_ = c.NoContent(code)
		return
	}
	_ = c.JSON(code, map[string]string{
		"error":   errType,
		"message": message,
	})
}

// errorType maps a status to the classifier used by apperror.
func errorType(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusMethodNotAllowed:
		return "method_not_allowed"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_error"
	case http.StatusTooManyRequests:
		return "too_many_requests"
	case http.StatusServiceUnavailable:
		return "unavailable"
	default:
		return "internal_error"
	}
}

// defaultErrorMessage returns a user-friendly message for common HTTP status codes
// when no specific message was provided by the error.
func defaultErrorMessage(code int) string {
	switch code {
	case http.StatusBadRequest:
		return "The request was invalid or cannot be processed."
	case http.StatusUnauthorized:
		return "You need to log in first."
	case http.StatusForbidden:
		return "You don't have permission to access this resource."
	case http.StatusNotFound:
		return "The resource you're looking for doesn't exist."
	case http.StatusMethodNotAllowed:
		return "This action is not allowed."
	case http.StatusTooManyRequests:
		return "You're making too many requests. Please slow down."
	case http.StatusBadGateway:
		return "The Sprout Found service did not respond correctly."
	case http.StatusServiceUnavailable:
		return "The service is temporarily unavailable. Please try again later."
	default:
		return "An unexpected error occurred. Please try again."
	}
}

// Start begins listening for HTTP requests on the configured port.
func (a *App) Start() error {
	addr := fmt.Sprintf(":%d", a.Config.Port)
	slog.Info("starting Sprout Found server",
		slog.String("addr", addr),
		slog.String("env", a.Config.Env),
	)
	return a.Echo.Start(addr)
}
