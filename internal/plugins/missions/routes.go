package missions

import (
	"github.com/labstack/echo/v4"
)

// RegisterRoutes sets up mission and game routes. Every route requires an
// authenticated session.
func RegisterRoutes(e *echo.Echo, h *Handler, requireAuth echo.MiddlewareFunc) {
	m := e.Group("/api/v1/missions", requireAuth)
	m.GET("", h.Board)
	m.POST("/rotate", h.Rotate)
	m.POST("/:id/claim", h.Claim)

	g := e.Group("/api/v1/games", requireAuth)
	g.POST("", h.StartGame)
	g.POST("/:id/finish", h.FinishGame)
}
