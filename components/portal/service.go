package portal

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// Options configures the portal Service. Every collaborator is optional;
// NewService fills in in-memory defaults so the engine works out of the box.
type Options struct {
	Store       KVStore
	Catalog     *Catalog
	Providers   *Providers
	Defaults    map[Role][]string
	Presets     []Preset
	Validator   *RecordValidator
	Signals     *Signals
	RefreshHook RefreshHook
	Telemetry   Telemetry
	Logger      *zap.Logger
	KeyPrefix   string
	Now         func() time.Time
	NewPresetID func(name string) string
}

// Service orchestrates the catalog, tenant overrides, per-role layouts and
// presets on top of a single KV store.
type Service struct {
	opts    Options
	keys    KeySet
	access  *AccessStore
	layouts *LayoutStore
	presets *PresetCatalog
	drag    *dragGate
}

// NewService builds a Service instance with safe defaults.
func NewService(opts Options) *Service {
	if opts.Store == nil {
		opts.Store = NewMemoryStore()
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Providers == nil {
		opts.Providers = NewProviders()
	}
	if opts.Defaults == nil {
		opts.Defaults = DefaultRoleLayouts()
	}
	if opts.Presets == nil {
		opts.Presets = DefaultPresets()
	}
	if opts.Validator == nil {
		opts.Validator = NewRecordValidator()
	}
	if opts.Signals == nil {
		opts.Signals = NewSignals()
	}
	if opts.RefreshHook == nil {
		opts.RefreshHook = noopRefreshHook{}
	}
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	opts.Telemetry = normalizeTelemetry(opts.Telemetry)

	keys := KeySet{Prefix: opts.KeyPrefix}
	access := NewAccessStore(opts.Store, keys, opts.Signals, opts.Validator, opts.Logger)
	layouts := NewLayoutStore(LayoutStoreConfig{
		Store:     opts.Store,
		Keys:      keys,
		Catalog:   opts.Catalog,
		Access:    access,
		Defaults:  opts.Defaults,
		Validator: opts.Validator,
		Logger:    opts.Logger,
		Now:       opts.Now,
	})
	presets := NewPresetCatalog(PresetCatalogConfig{
		Store:     opts.Store,
		Keys:      keys,
		Layouts:   layouts,
		Builtins:  opts.Presets,
		Validator: opts.Validator,
		Logger:    opts.Logger,
		NewID:     opts.NewPresetID,
	})
	return &Service{
		opts:    opts,
		keys:    keys,
		access:  access,
		layouts: layouts,
		presets: presets,
		drag:    &dragGate{},
	}
}

// Catalog exposes the widget catalog.
func (s *Service) Catalog() *Catalog { return s.opts.Catalog }

// Providers exposes the widget data providers.
func (s *Service) Providers() *Providers { return s.opts.Providers }

// Store exposes the backing KV store.
func (s *Service) Store() KVStore { return s.opts.Store }

// Keys exposes the KV key set.
func (s *Service) Keys() KeySet { return s.keys }

// Signals exposes the in-process signal bus.
func (s *Service) Signals() *Signals { return s.opts.Signals }

// Logger exposes the configured logger.
func (s *Service) Logger() *zap.Logger { return s.opts.Logger }

// Close releases store subscriptions.
func (s *Service) Close() {
	s.access.Close()
}

// WidgetsForRole lists catalog entries the role may place after both filter
// stages.
func (s *Service) WidgetsForRole(ctx context.Context, role Role) []WidgetMeta {
	return s.opts.Catalog.WidgetsForRole(role, s.access.Overrides(ctx))
}

// IsEnabled reports the tenant override for (widgetID, role).
func (s *Service) IsEnabled(ctx context.Context, widgetID string, role Role) bool {
	return s.access.IsEnabled(ctx, widgetID, role)
}

// AccessOverrides returns the current tenant override record.
func (s *Service) AccessOverrides(ctx context.Context) AccessOverrides {
	return s.access.Overrides(ctx)
}

// RestrictedWidgetIDs lists ids the tenant explicitly disabled for role.
func (s *Service) RestrictedWidgetIDs(ctx context.Context, role Role) []string {
	return s.access.Overrides(ctx).Restricted(role)
}

// ReloadAccess forces a re-read of the tenant override record.
func (s *Service) ReloadAccess(ctx context.Context) AccessOverrides {
	return s.access.Reload(ctx)
}

// PublishAccessOverrides writes the tenant override record and signals
// same-process listeners.
func (s *Service) PublishAccessOverrides(ctx context.Context, overrides AccessOverrides) error {
	if err := PublishAccessOverrides(ctx, s.opts.Store, s.keys, s.opts.Signals, overrides); err != nil {
		return err
	}
	s.access.Reload(ctx)
	s.notify(ctx, LayoutEvent{Reason: "access"})
	s.recordTelemetry(ctx, "portal.access.publish", map[string]any{"roles": len(overrides)})
	return nil
}

// Load returns the role's layout.
func (s *Service) Load(ctx context.Context, role Role) (Layout, error) {
	layout, err := s.layouts.Load(ctx, role)
	if err != nil {
		return Layout{}, err
	}
	s.recordTelemetry(ctx, "portal.layout.load", map[string]any{
		"role":    string(role),
		"widgets": len(layout.Widgets),
	})
	return layout, nil
}

// DefaultLayout computes the role default without touching persisted state.
func (s *Service) DefaultLayout(ctx context.Context, role Role) Layout {
	return s.layouts.Default(ctx, role)
}

// Reorder moves sourceID into targetID's position.
func (s *Service) Reorder(ctx context.Context, role Role, sourceID, targetID string) (Layout, error) {
	layout, changed, err := s.layouts.Reorder(ctx, role, sourceID, targetID)
	return s.afterMutation(ctx, layout, changed, err, LayoutEvent{Role: role, Reason: "reorder", WidgetID: sourceID})
}

// Resize changes a widget's size.
func (s *Service) Resize(ctx context.Context, role Role, widgetID string, size WidgetSize) (Layout, error) {
	layout, changed, err := s.layouts.Resize(ctx, role, widgetID, size)
	return s.afterMutation(ctx, layout, changed, err, LayoutEvent{Role: role, Reason: "resize", WidgetID: widgetID})
}

// ToggleWidget flips a widget's visibility.
func (s *Service) ToggleWidget(ctx context.Context, role Role, widgetID string) (Layout, error) {
	layout, changed, err := s.layouts.ToggleVisibility(ctx, role, widgetID)
	return s.afterMutation(ctx, layout, changed, err, LayoutEvent{Role: role, Reason: "toggle", WidgetID: widgetID})
}

// AddWidget shows or appends a widget the role is allowed to place.
func (s *Service) AddWidget(ctx context.Context, role Role, widgetID string) (Layout, error) {
	layout, changed, err := s.layouts.AddWidget(ctx, role, widgetID)
	return s.afterMutation(ctx, layout, changed, err, LayoutEvent{Role: role, Reason: "add", WidgetID: widgetID})
}

// ResetLayout discards customizations for role.
func (s *Service) ResetLayout(ctx context.Context, role Role) (Layout, error) {
	layout, err := s.layouts.ResetLayout(ctx, role)
	return s.afterMutation(ctx, layout, true, err, LayoutEvent{Role: role, Reason: "reset", PresetID: StandardPresetID})
}

// PresetsFor lists presets offered to role.
func (s *Service) PresetsFor(ctx context.Context, role Role) []Preset {
	if !role.Valid() {
		return nil
	}
	return s.presets.PresetsFor(ctx, role)
}

// ApplyPreset replaces the role layout with the preset. Unknown ids are a
// no-op returning the current layout.
func (s *Service) ApplyPreset(ctx context.Context, role Role, presetID string) (Layout, error) {
	layout, changed, err := s.presets.ApplyPreset(ctx, role, presetID)
	return s.afterMutation(ctx, layout, changed, err, LayoutEvent{Role: role, Reason: "preset.apply", PresetID: presetID})
}

// SaveCustomPreset snapshots the current layout as a custom preset.
func (s *Service) SaveCustomPreset(ctx context.Context, role Role, name, description string) (Preset, error) {
	preset, err := s.presets.SaveCustomPreset(ctx, role, name, description)
	if err != nil {
		return Preset{}, err
	}
	s.notify(ctx, LayoutEvent{Role: role, Reason: "preset.save", PresetID: preset.ID})
	s.recordTelemetry(ctx, "portal.preset.save", map[string]any{
		"role":      string(role),
		"preset_id": preset.ID,
	})
	return preset, nil
}

// DeleteCustomPreset removes a custom preset. Unknown ids are a no-op.
func (s *Service) DeleteCustomPreset(ctx context.Context, role Role, presetID string) error {
	removed, err := s.presets.DeleteCustomPreset(ctx, role, presetID)
	if err != nil || !removed {
		return err
	}
	s.notify(ctx, LayoutEvent{Role: role, Reason: "preset.delete", PresetID: presetID})
	s.recordTelemetry(ctx, "portal.preset.delete", map[string]any{
		"role":      string(role),
		"preset_id": presetID,
	})
	return nil
}

// FetchWidget resolves provider data for a placed widget.
func (s *Service) FetchWidget(ctx context.Context, viewer ViewerContext, instance WidgetInstance) (WidgetData, error) {
	meta, ok := s.opts.Catalog.Widget(instance.ID)
	if !ok {
		return nil, errInvalidWidgetID
	}
	provider, ok := s.opts.Providers.Provider(instance.ID)
	if !ok {
		return nil, nil
	}
	return provider.Fetch(ctx, WidgetContext{Instance: instance, Meta: meta, Viewer: viewer})
}

func (s *Service) afterMutation(ctx context.Context, layout Layout, changed bool, err error, event LayoutEvent) (Layout, error) {
	if err != nil {
		s.opts.Logger.Warn("layout mutation failed",
			zap.String("role", string(event.Role)),
			zap.String("reason", event.Reason),
			zap.Error(err))
		return layout, err
	}
	if !changed {
		return layout, nil
	}
	s.notify(ctx, event)
	s.recordTelemetry(ctx, "portal.layout."+event.Reason, map[string]any{
		"role":      string(event.Role),
		"widget_id": event.WidgetID,
		"preset_id": event.PresetID,
	})
	return layout, nil
}

func (s *Service) notify(ctx context.Context, event LayoutEvent) {
	if err := s.opts.RefreshHook.LayoutUpdated(ctx, event); err != nil {
		s.opts.Logger.Warn("refresh hook failed",
			zap.String("role", string(event.Role)),
			zap.String("reason", event.Reason),
			zap.Error(err))
	}
}

func (s *Service) recordTelemetry(ctx context.Context, event string, payload map[string]any) {
	s.opts.Telemetry.Record(ctx, event, payload)
}

// dragGate holds the single process-wide drag slot.
type dragGate struct {
	mu    sync.Mutex
	owner *Controller
}

func (g *dragGate) acquire(c *Controller) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner != nil && g.owner != c {
		return false
	}
	g.owner = c
	return true
}

func (g *dragGate) release(c *Controller) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.owner == c {
		g.owner = nil
	}
}
