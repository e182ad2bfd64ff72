package portal

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

// BroadcastHook fans out layout events to in-process subscribers.
type BroadcastHook struct {
	mu   sync.RWMutex
	subs map[int]chan LayoutEvent
	next int
}

// NewBroadcastHook creates a broadcast hook.
func NewBroadcastHook() *BroadcastHook {
	return &BroadcastHook{subs: make(map[int]chan LayoutEvent)}
}

// LayoutUpdated satisfies RefreshHook. Slow subscribers miss events rather
// than block the caller.
func (h *BroadcastHook) LayoutUpdated(_ context.Context, event LayoutEvent) error {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, ch := range h.subs {
		select {
		case ch <- event:
		default:
		}
	}
	return nil
}

// Subscribe returns a channel of layout events and a cancel func.
func (h *BroadcastHook) Subscribe() (<-chan LayoutEvent, func()) {
	h.mu.Lock()
	defer h.mu.Unlock()
	id := h.next
	h.next++
	ch := make(chan LayoutEvent, 8)
	h.subs[id] = ch
	cancel := func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		if sub, ok := h.subs[id]; ok {
			delete(h.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// ServeWebSocket upgrades the request and streams layout events as JSON.
// An optional ?role= query narrows the stream to one role.
func (h *BroadcastHook) ServeWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	defer conn.Close()

	role := Role(r.URL.Query().Get("role"))
	events, cancel := h.Subscribe()
	defer cancel()

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !matchesRole(event, role) {
				continue
			}
			if err := conn.WriteJSON(event); err != nil {
				return
			}
		}
	}
}

// ServeSSE provides a Server-Sent Events endpoint for refresh events.
func (h *BroadcastHook) ServeSSE(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	role := Role(r.URL.Query().Get("role"))
	events, cancel := h.Subscribe()
	defer cancel()

	encoder := json.NewEncoder(w)
	flusher, _ := w.(http.Flusher)
	if flusher != nil {
		flusher.Flush()
	}

	for {
		select {
		case <-r.Context().Done():
			return
		case event, ok := <-events:
			if !ok {
				return
			}
			if !matchesRole(event, role) {
				continue
			}
			w.Write([]byte("data: "))
			if err := encoder.Encode(event); err != nil {
				return
			}
			w.Write([]byte("\n"))
			if flusher != nil {
				flusher.Flush()
			}
		}
	}
}

// Access events carry no role; every stream receives them.
func matchesRole(event LayoutEvent, role Role) bool {
	return role == "" || event.Role == "" || event.Role == role
}

// RefreshHooks fans a layout event out to several hooks, e.g. the broadcast
// hook plus a notifications bridge. Every hook is called; errors are joined.
type RefreshHooks []RefreshHook

// LayoutUpdated calls every hook in order.
func (hs RefreshHooks) LayoutUpdated(ctx context.Context, event LayoutEvent) error {
	var errs []error
	for _, h := range hs {
		if h == nil {
			continue
		}
		if err := h.LayoutUpdated(ctx, event); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// NotificationsClient is the minimal interface needed from a notifications
// service (go-notifications or similar).
type NotificationsClient interface {
	PublishLayoutEvent(ctx context.Context, channel string, event LayoutEvent) error
}

// NotificationsHook forwards layout events to an external notifications client.
type NotificationsHook struct {
	Client  NotificationsClient
	Channel string
}

// LayoutUpdated publishes events to the configured notifications client.
func (h *NotificationsHook) LayoutUpdated(ctx context.Context, event LayoutEvent) error {
	if h == nil || h.Client == nil {
		return nil
	}
	return h.Client.PublishLayoutEvent(ctx, h.Channel, event)
}

type noopRefreshHook struct{}

func (noopRefreshHook) LayoutUpdated(context.Context, LayoutEvent) error { return nil }
