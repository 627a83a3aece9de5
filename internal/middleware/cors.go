package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// CORSConfig holds configuration for the CORS middleware.
type CORSConfig struct {
	// AllowedOrigins is the list of origins permitted to make cross-origin
	// requests, normally just the web client. "*" allows any origin.
	AllowedOrigins []string

	// AllowCredentials lets the browser send cookies and auth headers.
	AllowCredentials bool
}

var (
	corsMethods = strings.Join([]string{
		http.MethodGet,
		http.MethodPost,
		http.MethodOptions,
	}, ", ")

	corsHeaders = strings.Join([]string{
		"Content-Type",
		"Authorization",
		echo.HeaderXRequestID,
	}, ", ")
)

// CORS returns middleware that answers cross-origin requests from the web
// client. Requests without an Origin header pass through untouched.
func CORS(cfg CORSConfig) echo.MiddlewareFunc {
	allowAll := false
	originSet := make(map[string]bool)
	for _, o := range cfg.AllowedOrigins {
		if o == "*" {
			allowAll = true
		}
		originSet[o] = true
	}

	// SECURITY: a wildcard origin with credentials lets any site act as the user.
	if allowAll && cfg.AllowCredentials {
		slog.Warn("CORS: wildcard origin with credentials is insecure, credentials disabled")
		cfg.AllowCredentials = false
	}

	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			res := c.Response()
			origin := req.Header.Get("Origin")

			if origin == "" {
				return next(c)
			}
			if !allowAll && !originSet[origin] {
				// The browser blocks the response without CORS headers.
				return next(c)
			}

			res.Header().Set("Access-Control-Allow-Origin", origin)
			res.Header().Add("Vary", "Origin")
			if cfg.AllowCredentials {
				res.Header().Set("Access-Control-Allow-Credentials", "true")
			}

			if req.Method == http.MethodOptions {
				res.Header().Set("Access-Control-Allow-Methods", corsMethods)
				res.Header().Set("Access-Control-Allow-Headers", corsHeaders)
				res.Header().Set("Access-Control-Max-Age", "3600")
				return c.NoContent(http.StatusNoContent)
			}

			res.Header().Set("Access-Control-Expose-Headers", echo.HeaderXRequestID)
			return next(c)
		}
	}
}
