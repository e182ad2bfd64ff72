package portal

import (
	"context"
	"strings"
	"sync"

	"github.com/goliatone/go-portal/pkg/kvstore"
)

// KVStore is the per-browser (or per-deployment) key-value persistence the
// layout engine writes to. Subscribe registers a callback fired whenever the
// value under key changes; the returned func removes the subscription.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
	Subscribe(key string, fn func()) (unsubscribe func())
}

// KeySet resolves the role-namespaced keys used by the stores.
type KeySet struct {
	Prefix string
}

const (
	layoutKeyBase  = "portal.layout."
	presetsKeyBase = "portal.presets."
	// AccessOverridesKey is the well-known key holding the tenant override record.
	AccessOverridesKey = "portal.widget_access"
)

// Layout returns the layout key for role.
func (k KeySet) Layout(role Role) string {
	return k.join(layoutKeyBase + string(role))
}

// Presets returns the custom preset list key for role.
func (k KeySet) Presets(role Role) string {
	return k.join(presetsKeyBase + string(role))
}

// Access returns the tenant override key.
func (k KeySet) Access() string {
	return k.join(AccessOverridesKey)
}

func (k KeySet) join(key string) string {
	prefix := strings.TrimSuffix(strings.TrimSpace(k.Prefix), ":")
	if prefix == "" {
		return key
	}
	return prefix + ":" + key
}

// MemoryStore is a concurrency-safe in-process KVStore. Subscribers are
// notified synchronously after each write, outside of the store lock.
type MemoryStore struct {
	mu   sync.RWMutex
	data map[string]string
	subs kvstore.Subscribers
}

// NewMemoryStore creates an empty store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{data: make(map[string]string)}
}

// Get returns the stored value.
func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	value, ok := s.data[key]
	return value, ok, nil
}

// Set stores value under key and notifies subscribers when it changed.
func (s *MemoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	prev, existed := s.data[key]
	s.data[key] = value
	s.mu.Unlock()
	if existed && prev == value {
		return nil
	}
	s.subs.Notify(key)
	return nil
}

// Delete removes key and notifies subscribers when it existed.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	_, existed := s.data[key]
	delete(s.data, key)
	s.mu.Unlock()
	if existed {
		s.subs.Notify(key)
	}
	return nil
}

// Subscribe registers fn for changes to key.
func (s *MemoryStore) Subscribe(key string, fn func()) func() {
	return s.subs.Add(key, fn)
}

// AccessUpdatedSignal is emitted in-process by the admin surface after it
// rewrites the tenant override record.
const AccessUpdatedSignal = "widget-access-updated"

// Signals is a tiny in-process event bus keyed by event name. Events carry
// no payload; listeners simply reload.
type Signals struct {
	handlers kvstore.Subscribers
}

// NewSignals creates an empty bus.
func NewSignals() *Signals {
	return &Signals{}
}

// On registers fn for name and returns its cancel func.
func (s *Signals) On(name string, fn func()) func() {
	return s.handlers.Add(name, fn)
}

// Emit invokes every listener registered for name.
func (s *Signals) Emit(name string) {
	s.handlers.Notify(name)
}
