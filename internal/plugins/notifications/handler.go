package notifications

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// Handler serves notification history and the live stream.
type Handler struct {
	hub      *Hub
	upgrader websocket.Upgrader
}

// NewHandler creates a notifications handler. allowedOrigin restricts
// websocket upgrades to the configured client origin; empty accepts only
// same-host requests.
func NewHandler(hub *Hub, allowedOrigin string) *Handler {
	h := &Handler{hub: hub}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
	}
	if allowedOrigin != "" {
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			return r.Header.Get("Origin") == allowedOrigin
		}
	}
	return h
}

// List returns the recent notifications (GET /api/v1/notifications).
func (h *Handler) List(c echo.Context) error {
	return c.JSON(http.StatusOK, h.hub.Recent())
}

// Stream upgrades to a websocket and pushes every new notification as a
// JSON text frame (GET /api/v1/notifications/ws).
func (h *Handler) Stream(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// Upgrade already wrote the HTTP error.
		slog.Debug("websocket upgrade failed", slog.Any("error", err))
		return nil
	}
	defer conn.Close()

	events, cancel := h.hub.Subscribe(16)
	defer cancel()

	// The reader only exists to process control frames and notice the
	// client going away.
	closed := make(chan struct{})
	go func() {
		defer close(closed)
		conn.SetReadLimit(512)
		_ = conn.SetReadDeadline(time.Now().Add(pongWait))
		conn.SetPongHandler(func(string) error {
			return conn.SetReadDeadline(time.Now().Add(pongWait))
		})
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-closed:
			return nil
		case <-c.Request().Context().Done():
			return nil
		case n, ok := <-events:
			if !ok {
				return nil
			}
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteJSON(n); err != nil {
				slog.Debug("websocket write failed", slog.Any("error", err))
				return nil
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return nil
			}
		}
	}
}
