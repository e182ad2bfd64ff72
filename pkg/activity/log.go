package activity

import (
	"context"
	"sync"

	"github.com/goliatone/go-portal/components/portal"
)

const defaultLogLimit = 50

// Log keeps the most recent events in memory. It backs the audit-log widget
// when no external activity store is wired.
type Log struct {
	mu     sync.RWMutex
	limit  int
	events []Event
}

// NewLog builds a Log holding at most limit events.
func NewLog(limit int) *Log {
	if limit <= 0 {
		limit = defaultLogLimit
	}
	return &Log{limit: limit}
}

// Notify implements Hook.
func (l *Log) Notify(_ context.Context, evt Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.events = append(l.events, NormalizeEvent(evt))
	if over := len(l.events) - l.limit; over > 0 {
		l.events = append(l.events[:0:0], l.events[over:]...)
	}
	return nil
}

// Recent returns up to n events, newest first.
func (l *Log) Recent(n int) []Event {
	l.mu.RLock()
	defer l.mu.RUnlock()
	if n <= 0 || n > len(l.events) {
		n = len(l.events)
	}
	out := make([]Event, 0, n)
	for i := len(l.events) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, NormalizeEvent(l.events[i]))
	}
	return out
}

// Provider serves the latest entries as widget data.
func (l *Log) Provider(entries int) portal.Provider {
	return portal.ProviderFunc(func(ctx context.Context, meta portal.WidgetContext) (portal.WidgetData, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		recent := l.Recent(entries)
		rows := make([]map[string]any, len(recent))
		for i, evt := range recent {
			rows[i] = map[string]any{
				"verb":   evt.Verb,
				"object": evt.ObjectType + ":" + evt.ObjectID,
				"at":     evt.OccurredAt,
			}
		}
		return portal.WidgetData{
			"title":   meta.Meta.NameForLocale(meta.Viewer.Locale),
			"entries": rows,
		}, nil
	})
}
