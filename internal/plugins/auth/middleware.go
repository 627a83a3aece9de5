package auth

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// contextKeyClaims is the Echo context key holding the decoded claims.
const contextKeyClaims = "auth_claims"

// RequireAuth returns middleware that gates routes on the authority's
// current state. While the first check is still in flight it answers 503
// instead of redirecting, so a slow start never bounces a valid session.
// Unauthenticated API requests get a 401 JSON body; everything else is
// redirected to the landing page.
func RequireAuth(authority *Authority) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			state := authority.State()
			switch state.Status {
			case StatusLoading:
				return c.JSON(http.StatusServiceUnavailable, map[string]string{
					"error":   "unavailable",
					"message": "session check in progress",
				})
			case StatusAuthenticated:
				c.Set(contextKeyClaims, state.User)
				return next(c)
			default:
				return handleUnauthenticated(c)
			}
		}
	}
}

// handleUnauthenticated returns 401 JSON for API clients and a redirect to
// the landing page for everything else.
func handleUnauthenticated(c echo.Context) error {
	if isAPIRequest(c) {
		return c.JSON(http.StatusUnauthorized, map[string]string{
			"error":   "unauthorized",
			"message": "authentication required",
		})
	}
	return c.Redirect(http.StatusSeeOther, "/")
}

// GetClaims retrieves the session claims from the Echo context. Returns nil
// if RequireAuth was not applied.
func GetClaims(c echo.Context) Claims {
	claims, ok := c.Get(contextKeyClaims).(Claims)
	if !ok {
		return nil
	}
	return claims
}

// isAPIRequest returns true if the request targets the /api path.
func isAPIRequest(c echo.Context) bool {
	path := c.Request().URL.Path
	return path == "/api" || strings.HasPrefix(path, "/api/")
}
