package auth

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
)

// Handler exposes the session authority over HTTP. Handlers are thin: they
// bind the request, call the authority, and render JSON.
type Handler struct {
	authority *Authority
}

// NewHandler creates a new auth handler.
func NewHandler(authority *Authority) *Handler {
	return &Handler{authority: authority}
}

// Session returns the current session state (GET /api/v1/session).
func (h *Handler) Session(c echo.Context) error {
	return c.JSON(http.StatusOK, newSessionResponse(h.authority.State()))
}

// Login stores freshly issued credentials (POST /api/v1/session).
func (h *Handler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}

	state, err := h.authority.Login(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, newSessionResponse(state))
}

// Refresh re-checks the stored credentials (POST /api/v1/session/refresh).
func (h *Handler) Refresh(c echo.Context) error {
	state := h.authority.Refresh(c.Request().Context())
	return c.JSON(http.StatusOK, newSessionResponse(state))
}

// Logout wipes the store (POST /api/v1/session/logout).
func (h *Handler) Logout(c echo.Context) error {
	if err := h.authority.Logout(c.Request().Context()); err != nil {
		return apperror.NewInternal(err)
	}
	return c.NoContent(http.StatusNoContent)
}
