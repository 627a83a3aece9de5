package account

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
)

// Handler handles account HTTP requests. Handlers are thin: bind, call the
// service, render JSON.
type Handler struct {
	service AccountService
}

// NewHandler creates a new account handler.
func NewHandler(service AccountService) *Handler {
	return &Handler{service: service}
}

// Recharge tops up the balance (POST /api/v1/account/recharge).
func (h *Handler) Recharge(c echo.Context) error {
	var req RechargeRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	result, err := h.service.Recharge(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Purchase records a purchase (POST /api/v1/account/purchases).
func (h *Handler) Purchase(c echo.Context) error {
	var req PurchaseRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	result, err := h.service.Purchase(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, result)
}

// RedeemCoins exchanges Sprout-Coins (POST /api/v1/account/sproutcoins/redeem).
func (h *Handler) RedeemCoins(c echo.Context) error {
	var req RedeemCoinsRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	result, err := h.service.RedeemCoins(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// RedeemInvestment withdraws an investment
// (POST /api/v1/account/investments/:id/redeem).
func (h *Handler) RedeemInvestment(c echo.Context) error {
	var req RedeemInvestmentRequest
	if err := c.Bind(&req); err != nil {
		return apperror.NewBadRequest("invalid request")
	}
	result, err := h.service.RedeemInvestment(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// Profile returns the user profile (GET /api/v1/account/profile).
// ?refresh=true bypasses the cache.
func (h *Handler) Profile(c echo.Context) error {
	profile, err := h.service.Profile(c.Request().Context(), c.QueryParam("refresh") == "true")
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, profile)
}
