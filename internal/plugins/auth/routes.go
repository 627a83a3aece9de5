package auth

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/keyxmakerx/sproutfound/internal/middleware"
)

// RegisterRoutes sets up the session routes. They are public: the guard is
// exported separately for other plugins to use on their route groups.
//
// Login is rate-limited to 10 attempts per IP per minute.
func RegisterRoutes(e *echo.Echo, h *Handler, limiter *middleware.RateLimiter) {
	g := e.Group("/api/v1/session")
	g.GET("", h.Session)
	g.POST("", h.Login, limiter.Limit(10, time.Minute))
	g.POST("/refresh", h.Refresh)
	g.POST("/logout", h.Logout)
}
