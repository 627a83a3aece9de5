package notifications

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up notification routes behind the session guard.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	g := e.Group("/api/v1/notifications", requireAuth)
	g.GET("", h.List)
	g.GET("/ws", h.Stream)
}
