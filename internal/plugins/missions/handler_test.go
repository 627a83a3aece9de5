package missions

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keyxmakerx/sproutfound/internal/apperror"
	"github.com/keyxmakerx/sproutfound/internal/plugins/credentials"
)

func newTestServer(t *testing.T, f *fixture) *echo.Echo {
	t.Helper()
	e := echo.New()
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		_ = c.JSON(apperror.SafeCode(err), map[string]string{"message": apperror.SafeMessage(err)})
	}
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	h := NewHandler(f.scheduler, f.claims, f.games, credentials.NewRepository(f.store))
	RegisterRoutes(e, h, passthrough)
	return e
}

func doJSON(e *echo.Echo, method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestHandler_BoardAndClaim(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	_, err := f.scheduler.Ensure(ctx)
	require.NoError(t, err)
	require.NoError(t, f.ledger.IncrementBy(ctx, "make-deposit", 2))
	e := newTestServer(t, f)

	rec := doJSON(e, http.MethodGet, "/api/v1/missions", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var board Board
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &board))
	require.Len(t, board.Missions, 3)
	assert.Equal(t, int64(180_000), board.TimeLeftMS)

	rec = doJSON(e, http.MethodPost, "/api/v1/missions/make-deposit/claim", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"mission_id":"make-deposit","reward":6}`, rec.Body.String())

	rec = doJSON(e, http.MethodPost, "/api/v1/missions/make-deposit/claim", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/missions/ghost/claim", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHandler_Rotate(t *testing.T) {
	f := newFixture(t)
	e := newTestServer(t, f)

	rec := doJSON(e, http.MethodPost, "/api/v1/missions/rotate", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, f.scheduler.Current(), 3)
}

func TestHandler_GameFlow(t *testing.T) {
	f := newFixture(t)
	f.activate(t, "play-game")
	e := newTestServer(t, f)

	rec := doJSON(e, http.MethodPost, "/api/v1/games", "")
	require.Equal(t, http.StatusCreated, rec.Code)

	var session GameSession
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &session))
	require.NotEmpty(t, session.ID)

	rec = doJSON(e, http.MethodPost, "/api/v1/games/"+session.ID+"/finish", `{"coins":7,"completed":true}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var result GameResult
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
	assert.True(t, result.Credited)
	assert.Equal(t, []string{"play-game"}, result.Advanced)

	rec = doJSON(e, http.MethodPost, "/api/v1/games/"+session.ID+"/finish", `{"coins":7,"completed":true}`)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = doJSON(e, http.MethodPost, "/api/v1/games/"+session.ID+"/finish", `{bad`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
