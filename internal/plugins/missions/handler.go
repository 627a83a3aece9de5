package missions

import (
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

// Handler serves the mission board, claims and game sessions.
type Handler struct {
	scheduler *Scheduler
	claims    *ClaimService
	games     *Games
	creds     credentials.Repository
}

// NewHandler creates a missions handler.
func NewHandler(scheduler *Scheduler, claims *ClaimService, games *Games, creds credentials.Repository) *Handler {
	return &Handler{
		scheduler: scheduler,
		claims:    claims,
		games:     games,
		creds:     creds,
	}
}

// Board returns the active missions (GET /api/v1/missions).
func (h *Handler) Board(c echo.Context) error {
	ctx := c.Request().Context()
	return c.JSON(http.StatusOK, h.scheduler.Board(ctx, h.user(c)))
}

// Rotate forces a new rotation (POST /api/v1/missions/rotate).
func (h *Handler) Rotate(c echo.Context) error {
	ctx := c.Request().Context()
	if _, err := h.scheduler.Rotate(ctx); err != nil {
		return apperror.NewInternal(err)
	}
	return c.JSON(http.StatusOK, h.scheduler.Board(ctx, h.user(c)))
}

// Claim pays out a completed mission (POST /api/v1/missions/:id/claim).
func (h *Handler) Claim(c echo.Context) error {
	result, err := h.claims.Claim(c.Request().Context(), c.Param("id"), h.user(c))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// StartGame opens a game session (POST /api/v1/games).
func (h *Handler) StartGame(c echo.Context) error {
	return c.JSON(http.StatusCreated, h.games.Start())
}

// FinishGame ends a game session (POST /api/v1/games/:id/finish).
func (h *Handler) FinishGame(c echo.Context) error {
	var req FinishGameRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	result, err := h.games.Finish(c.Request().Context(), c.Param("id"), req.Coins, req.Completed)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// user returns the cached profile, nil when none is stored.
func (h *Handler) user(c echo.Context) *credentials.UserData {
	user, err := h.creds.GetUserData(c.Request().Context())
	if err != nil {
		slog.Warn("reading cached profile", slog.Any("error", err))
		return nil
	}
	return user
}
