package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"sync"
	"time"

	"go.uber.org/zap"
)

type layoutRecord struct {
	Widgets      []WidgetInstance `json:"widgets"`
	ActivePreset *string          `json:"activePreset"`
	LastUpdated  time.Time        `json:"lastUpdated"`
}

// LayoutStore persists one layout per role. Every mutation re-reads the
// persisted state, applies the change, re-sequences orders, clears the
// active preset and writes the result back before returning.
type LayoutStore struct {
	kv        KVStore
	keys      KeySet
	catalog   *Catalog
	access    *AccessStore
	defaults  map[Role][]string
	validator *RecordValidator
	logger    *zap.Logger
	now       func() time.Time

	mu sync.Mutex
}

// LayoutStoreConfig wires a LayoutStore.
type LayoutStoreConfig struct {
	Store     KVStore
	Keys      KeySet
	Catalog   *Catalog
	Access    *AccessStore
	Defaults  map[Role][]string
	Validator *RecordValidator
	Logger    *zap.Logger
	Now       func() time.Time
}

// NewLayoutStore builds a store with safe defaults for optional collaborators.
func NewLayoutStore(cfg LayoutStoreConfig) *LayoutStore {
	if cfg.Catalog == nil {
		cfg.Catalog = NewCatalog()
	}
	if cfg.Defaults == nil {
		cfg.Defaults = DefaultRoleLayouts()
	}
	if cfg.Validator == nil {
		cfg.Validator = NewRecordValidator()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Access == nil {
		cfg.Access = NewAccessStore(cfg.Store, cfg.Keys, nil, cfg.Validator, cfg.Logger)
	}
	return &LayoutStore{
		kv:        cfg.Store,
		keys:      cfg.Keys,
		catalog:   cfg.Catalog,
		access:    cfg.Access,
		defaults:  cfg.Defaults,
		validator: cfg.Validator,
		logger:    cfg.Logger,
		now:       cfg.Now,
	}
}

// Load returns the role's layout. A persisted layout is re-filtered and
// re-sequenced (and written back if that changed it); otherwise the computed
// default is returned without being persisted.
func (s *LayoutStore) Load(ctx context.Context, role Role) (Layout, error) {
	if err := ctx.Err(); err != nil {
		return Layout{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.load(ctx, role), nil
}

// Default computes the role's default layout through the two-stage filter.
func (s *LayoutStore) Default(ctx context.Context, role Role) Layout {
	ids := s.defaults[role]
	widgets := make([]WidgetInstance, 0, len(ids))
	for i, id := range ids {
		meta, ok := s.catalog.Widget(id)
		if !ok {
			continue
		}
		widgets = append(widgets, WidgetInstance{ID: id, Order: i, Size: meta.DefaultSize, Visible: true})
	}
	return Layout{
		Role:         role,
		Widgets:      FilterWidgets(s.catalog, role, s.access.Overrides(ctx), widgets),
		ActivePreset: ptr(StandardPresetID),
	}
}

// Reorder moves sourceID to the position targetID occupies.
func (s *LayoutStore) Reorder(ctx context.Context, role Role, sourceID, targetID string) (Layout, bool, error) {
	return s.mutate(ctx, role, func(l *Layout) bool {
		next, ok := spliceMove(l.Widgets, sourceID, targetID)
		l.Widgets = next
		return ok
	})
}

// Resize sets the size of the widget with id.
func (s *LayoutStore) Resize(ctx context.Context, role Role, id string, size WidgetSize) (Layout, bool, error) {
	if !size.Valid() {
		layout, err := s.Load(ctx, role)
		return layout, false, err
	}
	return s.mutate(ctx, role, func(l *Layout) bool {
		idx := indexOf(l.Widgets, id)
		if idx < 0 {
			return false
		}
		l.Widgets[idx].Size = size
		return true
	})
}

// ToggleVisibility flips the visibility of the widget with id.
func (s *LayoutStore) ToggleVisibility(ctx context.Context, role Role, id string) (Layout, bool, error) {
	return s.mutate(ctx, role, func(l *Layout) bool {
		idx := indexOf(l.Widgets, id)
		if idx < 0 {
			return false
		}
		l.Widgets[idx].Visible = !l.Widgets[idx].Visible
		return true
	})
}

// AddWidget shows an existing (possibly hidden) instance or appends a new one
// at the end with the catalog default size. Disallowed ids are rejected.
// An already visible widget still clears the active preset.
func (s *LayoutStore) AddWidget(ctx context.Context, role Role, id string) (Layout, bool, error) {
	return s.mutate(ctx, role, func(l *Layout) bool {
		meta, ok := s.catalog.Widget(id)
		if !ok || !meta.AllowedFor(role) || !s.access.IsEnabled(ctx, id, role) {
			return false
		}
		if idx := indexOf(l.Widgets, id); idx >= 0 {
			l.Widgets[idx].Visible = true
			return true
		}
		l.Widgets = append(l.Widgets, WidgetInstance{ID: id, Size: meta.DefaultSize, Visible: true})
		return true
	})
}

// ResetLayout discards persisted state and returns the role default with the
// "standard" preset active.
func (s *LayoutStore) ResetLayout(ctx context.Context, role Role) (Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.kv == nil {
		return Layout{}, ErrMissingStore
	}
	if err := s.kv.Delete(ctx, s.keys.Layout(role)); err != nil {
		return Layout{}, fmt.Errorf("portal: reset layout %s: %w", role, err)
	}
	return s.Default(ctx, role), nil
}

// Replace swaps the layout contents for widgets (re-filtered) and marks
// presetID active. Preset application goes through here.
func (s *LayoutStore) Replace(ctx context.Context, role Role, widgets []WidgetInstance, presetID string) (Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	layout := Layout{
		Role:    role,
		Widgets: FilterWidgets(s.catalog, role, s.access.Overrides(ctx), widgets),
	}
	if presetID != "" {
		layout.ActivePreset = ptr(presetID)
	}
	if err := s.save(ctx, &layout); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

// SetActivePreset updates only the active preset pointer.
func (s *LayoutStore) SetActivePreset(ctx context.Context, role Role, presetID *string) (Layout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	layout := s.load(ctx, role)
	if samePreset(layout.ActivePreset, presetID) {
		return layout, nil
	}
	layout.ActivePreset = presetID
	if err := s.save(ctx, &layout); err != nil {
		return Layout{}, err
	}
	return layout, nil
}

func (s *LayoutStore) mutate(ctx context.Context, role Role, fn func(*Layout) bool) (Layout, bool, error) {
	if err := ctx.Err(); err != nil {
		return Layout{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current := s.load(ctx, role)
	next := current.clone()
	if !fn(&next) {
		return current, false, nil
	}
	resequence(next.Widgets)
	next.ActivePreset = nil
	if err := s.save(ctx, &next); err != nil {
		return current, false, err
	}
	return next, true, nil
}

func (s *LayoutStore) load(ctx context.Context, role Role) Layout {
	if s.kv == nil {
		return s.Default(ctx, role)
	}
	key := s.keys.Layout(role)
	raw, ok, err := s.kv.Get(ctx, key)
	if err != nil {
		s.logger.Warn("read layout", zap.String("key", key), zap.Error(err))
		return s.Default(ctx, role)
	}
	if !ok || raw == "" {
		return s.Default(ctx, role)
	}
	rec, err := s.validator.DecodeLayout(raw)
	if err != nil {
		s.logger.Warn("ignoring malformed layout", zap.String("key", key), zap.Error(err))
		return s.Default(ctx, role)
	}
	layout := Layout{
		Role:         role,
		Widgets:      FilterWidgets(s.catalog, role, s.access.Overrides(ctx), rec.Widgets),
		ActivePreset: rec.ActivePreset,
		LastUpdated:  rec.LastUpdated,
	}
	if !slices.Equal(layout.Widgets, rec.Widgets) {
		if err := s.save(ctx, &layout); err != nil {
			s.logger.Warn("write back normalized layout", zap.String("key", key), zap.Error(err))
		}
	}
	return layout
}

func (s *LayoutStore) save(ctx context.Context, layout *Layout) error {
	if s.kv == nil {
		return ErrMissingStore
	}
	layout.LastUpdated = s.now().UTC()
	if layout.Widgets == nil {
		layout.Widgets = []WidgetInstance{}
	}
	data, err := json.Marshal(layoutRecord{
		Widgets:      layout.Widgets,
		ActivePreset: layout.ActivePreset,
		LastUpdated:  layout.LastUpdated,
	})
	if err != nil {
		return fmt.Errorf("portal: marshal layout %s: %w", layout.Role, err)
	}
	if err := s.kv.Set(ctx, s.keys.Layout(layout.Role), string(data)); err != nil {
		return fmt.Errorf("portal: persist layout %s: %w", layout.Role, err)
	}
	return nil
}

func samePreset(a, b *string) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
