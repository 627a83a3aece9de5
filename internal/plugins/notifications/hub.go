package notifications

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
)

// HistorySize is how many notifications the hub remembers.
const HistorySize = 50

// subscriber is one live listener.
type subscriber struct {
	ch chan Notification
}

// Hub fans notifications out to subscribers and keeps the last
// HistorySize of them. Slow subscribers drop messages instead of blocking
// the sender.
type Hub struct {
	mu      sync.RWMutex
	history []Notification
	subs    map[*subscriber]struct{}
	now     func() time.Time
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		history: make([]Notification, 0, HistorySize),
		subs:    make(map[*subscriber]struct{}),
		now:     time.Now,
	}
}

// Notify records and broadcasts a message.
func (h *Hub) Notify(level Level, message string) Notification {
	n := Notification{
		ID:        uuid.NewString(),
		Level:     level,
		Message:   message,
		CreatedAt: h.now(),
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	if len(h.history) == HistorySize {
		copy(h.history, h.history[1:])
		h.history = h.history[:HistorySize-1]
	}
	h.history = append(h.history, n)

	for sub := range h.subs {
		select {
		case sub.ch <- n:
		default:
			slog.Debug("dropping notification for slow subscriber", slog.String("id", n.ID))
		}
	}
	return n
}

func (h *Hub) Info(message string)    { h.Notify(LevelInfo, message) }
func (h *Hub) Success(message string) { h.Notify(LevelSuccess, message) }
func (h *Hub) Error(message string)   { h.Notify(LevelError, message) }

// Recent returns the remembered notifications, oldest first.
func (h *Hub) Recent() []Notification {
	h.mu.RLock()
	defer h.mu.RUnlock()

	out := make([]Notification, len(h.history))
	copy(out, h.history)
	return out
}

// Subscribe registers a listener with the given buffer. The returned
// cancel func unregisters it and closes the channel; it is safe to call
// more than once.
func (h *Hub) Subscribe(buffer int) (<-chan Notification, func()) {
	sub := &subscriber{ch: make(chan Notification, buffer)}

	h.mu.Lock()
	h.subs[sub] = struct{}{}
	h.mu.Unlock()

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			h.mu.Lock()
			delete(h.subs, sub)
			close(sub.ch)
			h.mu.Unlock()
		})
	}
	return sub.ch, cancel
}

// Subscribers returns the number of live listeners.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}
