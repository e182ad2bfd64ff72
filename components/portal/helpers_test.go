package portal

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"
)

var fixedNow = time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

type recordingHook struct {
	mu     sync.Mutex
	events []LayoutEvent
}

func (h *recordingHook) LayoutUpdated(_ context.Context, event LayoutEvent) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.events = append(h.events, event)
	return nil
}

func (h *recordingHook) reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]string, len(h.events))
	for i, e := range h.events {
		out[i] = e.Reason
	}
	return out
}

type recordingTelemetry struct {
	mu     sync.Mutex
	events []string
}

func (r *recordingTelemetry) Record(_ context.Context, event string, _ map[string]any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event)
}

func (r *recordingTelemetry) has(event string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Contains(r.events, event)
}

func newTestService(t *testing.T, mutate ...func(*Options)) (*Service, *MemoryStore) {
	t.Helper()
	store := NewMemoryStore()
	seq := 0
	opts := Options{
		Store: store,
		Now:   func() time.Time { return fixedNow },
		NewPresetID: func(name string) string {
			seq++
			return fmt.Sprintf("custom-%d", seq)
		},
	}
	for _, fn := range mutate {
		fn(&opts)
	}
	svc := NewService(opts)
	t.Cleanup(svc.Close)
	return svc, store
}

func assertDense(t *testing.T, layout Layout) {
	t.Helper()
	for i, w := range layout.Widgets {
		if w.Order != i {
			t.Fatalf("expected dense orders, widget %s at index %d has order %d", w.ID, i, w.Order)
		}
	}
}

func ids(widgets []WidgetInstance) []string {
	out := make([]string, len(widgets))
	for i, w := range widgets {
		out[i] = w.ID
	}
	return out
}
