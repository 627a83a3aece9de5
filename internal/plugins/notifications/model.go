// Package notifications carries user-facing messages (the toasts of the
// web client) from services to connected clients. The hub keeps a short
// history so a client that connects late can still show recent messages.
package notifications

import "time"

// Level classifies a notification for display.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is one message.
type Notification struct {
	ID        string    `json:"id"`
	Level     Level     `json:"level"`
	Message   string    `json:"message"`
	CreatedAt time.Time `json:"created_at"`
}
