package account

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up account routes behind the session guard.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/v1/account", requireAuth)
	g.GET("/profile", h.Profile)
	g.POST("/recharge", h.Recharge)
	g.POST("/purchases", h.Purchase)
	g.POST("/sproutcoins/redeem", h.RedeemCoins)
	g.POST("/investments/:id/redeem", h.RedeemInvestment)
}
