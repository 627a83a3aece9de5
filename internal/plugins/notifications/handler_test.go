package notifications

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func newTestServer(t *testing.T, hub *Hub, origin string) *httptest.Server {
	t.Helper()
	e := echo.New()
	passthrough := func(next echo.HandlerFunc) echo.HandlerFunc { return next }
	RegisterRoutes(e, NewHandler(hub, origin), passthrough)
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv
}

func TestHandler_List(t *testing.T) {
	hub := NewHub()
	hub.Success("hello")
	srv := newTestServer(t, hub, "")

	resp, err := http.Get(srv.URL + "/api/v1/notifications")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var got []Notification
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 1)
	assert.Equal(t, "hello", got[0].Message)
}

func TestHandler_StreamPushesNotifications(t *testing.T) {
	defer goleak.VerifyNone(t, goleak.IgnoreCurrent())

	hub := NewHub()
	srv := newTestServer(t, hub, "")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/notifications/ws"

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)

	require.Eventually(t, func() bool { return hub.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	sent := hub.Info("New missions are waiting for you!")

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var got Notification
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, sent.ID, got.ID)
	assert.Equal(t, LevelInfo, got.Level)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.Subscribers() == 0 }, 2*time.Second, 5*time.Millisecond)

	srv.Close()
}

func TestHandler_StreamRejectsForeignOrigin(t *testing.T) {
	hub := NewHub()
	srv := newTestServer(t, hub, "https://app.sproutfound.test")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/v1/notifications/ws"

	header := http.Header{"Origin": []string{"https://evil.test"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Subscribers())
}
