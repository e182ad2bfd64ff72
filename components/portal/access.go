package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// AccessOverrides maps role -> widget id -> enabled, as authored by a tenant
// administrator. A missing role or widget entry means "not restricted".
type AccessOverrides map[Role]map[string]bool

// IsEnabled returns the override for (role, widgetID), defaulting to true.
func (o AccessOverrides) IsEnabled(widgetID string, role Role) bool {
	if o == nil {
		return true
	}
	enabled, ok := o[role][widgetID]
	if !ok {
		return true
	}
	return enabled
}

// Restricted lists the widget ids explicitly disabled for role, sorted.
func (o AccessOverrides) Restricted(role Role) []string {
	var ids []string
	for id, enabled := range o[role] {
		if !enabled {
			ids = append(ids, id)
		}
	}
	slices.Sort(ids)
	return ids
}

func (o AccessOverrides) clone() AccessOverrides {
	if o == nil {
		return nil
	}
	out := make(AccessOverrides, len(o))
	for role, widgets := range o {
		inner := make(map[string]bool, len(widgets))
		for id, enabled := range widgets {
			inner[id] = enabled
		}
		out[role] = inner
	}
	return out
}

// AccessStore reads the tenant override record from the KV store. The core
// never writes it; see PublishAccessOverrides for the admin surface.
type AccessStore struct {
	kv        KVStore
	key       string
	validator *RecordValidator
	logger    *zap.Logger

	mu        sync.RWMutex
	overrides AccessOverrides
	loaded    bool
	gen       uint64
	unsubs    []func()
}

// NewAccessStore wires a store that invalidates its cache whenever the record
// changes in the KV store or the in-process signal fires.
func NewAccessStore(kv KVStore, keys KeySet, signals *Signals, validator *RecordValidator, logger *zap.Logger) *AccessStore {
	if validator == nil {
		validator = NewRecordValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &AccessStore{
		kv:        kv,
		key:       keys.Access(),
		validator: validator,
		logger:    logger,
	}
	if kv != nil {
		s.unsubs = append(s.unsubs, kv.Subscribe(s.key, s.invalidate))
	}
	if signals != nil {
		s.unsubs = append(s.unsubs, signals.On(AccessUpdatedSignal, s.invalidate))
	}
	return s
}

// Key returns the KV key the store reads.
func (s *AccessStore) Key() string { return s.key }

// Overrides returns a copy of the current override record.
func (s *AccessStore) Overrides(ctx context.Context) AccessOverrides {
	s.mu.RLock()
	if s.loaded {
		out := s.overrides.clone()
		s.mu.RUnlock()
		return out
	}
	s.mu.RUnlock()
	return s.Reload(ctx).clone()
}

// IsEnabled reports whether the tenant allows widgetID for role.
func (s *AccessStore) IsEnabled(ctx context.Context, widgetID string, role Role) bool {
	return s.Overrides(ctx).IsEnabled(widgetID, role)
}

// Reload re-reads the record. Absent or malformed data yields no overrides.
// A read that raced an invalidation is returned but not cached.
func (s *AccessStore) Reload(ctx context.Context) AccessOverrides {
	s.mu.RLock()
	gen := s.gen
	s.mu.RUnlock()

	overrides := s.read(ctx)

	s.mu.Lock()
	if s.gen == gen {
		s.overrides = overrides
		s.loaded = true
	}
	s.mu.Unlock()
	return overrides
}

// Close drops the store's subscriptions.
func (s *AccessStore) Close() {
	s.mu.Lock()
	unsubs := s.unsubs
	s.unsubs = nil
	s.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
}

func (s *AccessStore) invalidate() {
	s.mu.Lock()
	s.loaded = false
	s.gen++
	s.mu.Unlock()
}

func (s *AccessStore) read(ctx context.Context) AccessOverrides {
	if s.kv == nil {
		return nil
	}
	raw, ok, err := s.kv.Get(ctx, s.key)
	if err != nil {
		s.logger.Warn("read widget access overrides", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	overrides, err := s.validator.DecodeAccess(raw)
	if err != nil {
		s.logger.Warn("ignoring malformed widget access overrides", zap.String("key", s.key), zap.Error(err))
		return nil
	}
	return overrides
}

// PublishAccessOverrides is the admin-surface writer: it persists the record
// and emits the in-process signal so same-process dashboards refresh.
func PublishAccessOverrides(ctx context.Context, kv KVStore, keys KeySet, signals *Signals, overrides AccessOverrides) error {
	if kv == nil {
		return ErrMissingStore
	}
	record := make(map[string]map[string]bool, len(overrides))
	for role, widgets := range overrides {
		if !role.Valid() {
			return fmt.Errorf("%w: %q", ErrUnknownRole, role)
		}
		if widgets == nil {
			widgets = map[string]bool{}
		}
		record[string(role)] = widgets
	}
	data, err := json.Marshal(record)
	if err != nil {
		return fmt.Errorf("portal: marshal access overrides: %w", err)
	}
	if err := kv.Set(ctx, keys.Access(), string(data)); err != nil {
		return fmt.Errorf("portal: write access overrides: %w", err)
	}
	if signals != nil {
		signals.Emit(AccessUpdatedSignal)
	}
	return nil
}
