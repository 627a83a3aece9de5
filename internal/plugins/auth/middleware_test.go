package auth

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func serveGuarded(a *Authority, path string) *httptest.ResponseRecorder {
	e := echo.New()
	var seen Claims
	handler := func(c echo.Context) error {
		seen = GetClaims(c)
		return c.String(http.StatusOK, seen.Subject())
	}
	e.GET(path, handler, RequireAuth(a))

	req := httptest.NewRequest(http.MethodGet, path, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth_LoadingIsNotARedirect(t *testing.T) {
	a, _ := newTestAuthority(t)

	rec := serveGuarded(a, "/dashboard")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Empty(t, rec.Header().Get("Location"))
}

func TestRequireAuth_Unauthenticated(t *testing.T) {
	a, _ := newTestAuthority(t)
	a.CheckSession(context.Background())

	t.Run("page request redirects to landing", func(t *testing.T) {
		rec := serveGuarded(a, "/dashboard")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
		assert.Equal(t, "/", rec.Header().Get("Location"))
	})

	t.Run("api request gets 401", func(t *testing.T) {
		rec := serveGuarded(a, "/api/v1/missions")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "authentication required")
	})

	t.Run("api-like prefix is not api", func(t *testing.T) {
		rec := serveGuarded(a, "/apiary")
		assert.Equal(t, http.StatusSeeOther, rec.Code)
	})
}

func TestRequireAuth_Authenticated(t *testing.T) {
	a, creds := newTestAuthority(t)
	storeCreds(t, creds, signToken(t, jwt.MapClaims{
		"sub": "user-9",
		"exp": testNow.Add(time.Hour).Unix(),
	}))
	require.True(t, a.CheckSession(context.Background()).IsAuthenticated())

	rec := serveGuarded(a, "/api/v1/missions")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "user-9", rec.Body.String())
}

func TestGetClaims_WithoutMiddleware(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	assert.Nil(t, GetClaims(c))
}
