package portal

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"strings"
	"sync"

	"github.com/ettle/strcase"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// PresetCatalog serves built-in and user-saved presets and applies them to
// the layout store.
type PresetCatalog struct {
	kv        KVStore
	keys      KeySet
	layouts   *LayoutStore
	builtins  []Preset
	validator *RecordValidator
	logger    *zap.Logger
	newID     func(name string) string

	mu sync.Mutex
}

// PresetCatalogConfig wires a PresetCatalog.
type PresetCatalogConfig struct {
	Store     KVStore
	Keys      KeySet
	Layouts   *LayoutStore
	Builtins  []Preset
	Validator *RecordValidator
	Logger    *zap.Logger
	NewID     func(name string) string
}

// NewPresetCatalog builds a preset catalog.
func NewPresetCatalog(cfg PresetCatalogConfig) *PresetCatalog {
	if cfg.Builtins == nil {
		cfg.Builtins = DefaultPresets()
	}
	if cfg.Validator == nil {
		cfg.Validator = NewRecordValidator()
	}
	if cfg.Logger == nil {
		cfg.Logger = zap.NewNop()
	}
	if cfg.NewID == nil {
		cfg.NewID = NewCustomPresetID
	}
	if cfg.Layouts == nil {
		cfg.Layouts = NewLayoutStore(LayoutStoreConfig{Store: cfg.Store, Keys: cfg.Keys, Validator: cfg.Validator, Logger: cfg.Logger})
	}
	return &PresetCatalog{
		kv:        cfg.Store,
		keys:      cfg.Keys,
		layouts:   cfg.Layouts,
		builtins:  cfg.Builtins,
		validator: cfg.Validator,
		logger:    cfg.Logger,
		newID:     cfg.NewID,
	}
}

// NewCustomPresetID derives "custom-<kebab-name>-<8 hex chars>".
func NewCustomPresetID(name string) string {
	slug := strcase.ToKebab(strings.TrimSpace(name))
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	if slug == "" {
		return "custom-" + suffix
	}
	return "custom-" + slug + "-" + suffix
}

// PresetsFor lists Minimal, Standard and Personal Focus, then any role
// specific presets, then the role's custom presets.
func (p *PresetCatalog) PresetsFor(ctx context.Context, role Role) []Preset {
	out := make([]Preset, 0, len(p.builtins)+2)
	for _, preset := range p.builtins {
		if !preset.OfferedTo(role) {
			continue
		}
		out = append(out, clonePreset(preset))
		if preset.ID == "minimal" {
			out = append(out, p.standard(ctx, role))
		}
	}
	if !slices.ContainsFunc(out, func(pr Preset) bool { return pr.ID == StandardPresetID }) {
		out = slices.Insert(out, 0, p.standard(ctx, role))
	}
	return append(out, p.customs(ctx, role)...)
}

// Lookup finds a preset offered to role by id.
func (p *PresetCatalog) Lookup(ctx context.Context, role Role, id string) (Preset, bool) {
	for _, preset := range p.PresetsFor(ctx, role) {
		if preset.ID == id {
			return preset, true
		}
	}
	return Preset{}, false
}

// ApplyPreset filters the preset through the two-stage rule and replaces the
// role's layout with it. Unknown ids are a no-op.
func (p *PresetCatalog) ApplyPreset(ctx context.Context, role Role, id string) (Layout, bool, error) {
	preset, ok := p.Lookup(ctx, role, id)
	if !ok || !role.Valid() {
		layout, err := p.layouts.Load(ctx, role)
		return layout, false, err
	}
	layout, err := p.layouts.Replace(ctx, role, preset.Widgets, preset.ID)
	if err != nil {
		return Layout{}, false, err
	}
	return layout, true, nil
}

// SaveCustomPreset snapshots the current layout as a new custom preset and
// makes it active.
func (p *PresetCatalog) SaveCustomPreset(ctx context.Context, role Role, name, description string) (Preset, error) {
	if !role.Valid() {
		return Preset{}, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	name = strings.TrimSpace(name)
	if name == "" {
		return Preset{}, ErrPresetName
	}
	current, err := p.layouts.Load(ctx, role)
	if err != nil {
		return Preset{}, err
	}
	preset := Preset{
		ID:          p.newID(name),
		Name:        name,
		Description: strings.TrimSpace(description),
		Icon:        "bookmark",
		Widgets:     slices.Clone(current.Widgets),
		IsCustom:    true,
		ForRoles:    []Role{role},
	}

	p.mu.Lock()
	customs := append(p.customs(ctx, role), preset)
	err = p.saveCustoms(ctx, role, customs)
	p.mu.Unlock()
	if err != nil {
		return Preset{}, err
	}
	if _, err := p.layouts.SetActivePreset(ctx, role, ptr(preset.ID)); err != nil {
		return Preset{}, err
	}
	return preset, nil
}

// DeleteCustomPreset removes a custom preset. When it was active the layout
// keeps its widgets but no longer follows a preset.
func (p *PresetCatalog) DeleteCustomPreset(ctx context.Context, role Role, id string) (bool, error) {
	p.mu.Lock()
	customs := p.customs(ctx, role)
	idx := slices.IndexFunc(customs, func(pr Preset) bool { return pr.ID == id })
	if idx < 0 {
		p.mu.Unlock()
		return false, nil
	}
	err := p.saveCustoms(ctx, role, slices.Delete(customs, idx, idx+1))
	p.mu.Unlock()
	if err != nil {
		return false, err
	}
	layout, err := p.layouts.Load(ctx, role)
	if err != nil {
		return true, err
	}
	if layout.Active() == id {
		if _, err := p.layouts.SetActivePreset(ctx, role, nil); err != nil {
			return true, err
		}
	}
	return true, nil
}

func (p *PresetCatalog) standard(ctx context.Context, role Role) Preset {
	def := p.layouts.Default(ctx, role)
	return Preset{
		ID:          StandardPresetID,
		Name:        "Standard",
		Description: "The recommended layout for your role",
		Icon:        "layout",
		Widgets:     def.Widgets,
	}
}

func (p *PresetCatalog) customs(ctx context.Context, role Role) []Preset {
	if p.kv == nil {
		return nil
	}
	key := p.keys.Presets(role)
	raw, ok, err := p.kv.Get(ctx, key)
	if err != nil {
		p.logger.Warn("read custom presets", zap.String("key", key), zap.Error(err))
		return nil
	}
	if !ok || raw == "" {
		return nil
	}
	presets, err := p.validator.DecodePresets(raw)
	if err != nil {
		p.logger.Warn("ignoring malformed custom presets", zap.String("key", key), zap.Error(err))
		return nil
	}
	for i := range presets {
		presets[i].IsCustom = true
	}
	return presets
}

func (p *PresetCatalog) saveCustoms(ctx context.Context, role Role, presets []Preset) error {
	if p.kv == nil {
		return ErrMissingStore
	}
	if presets == nil {
		presets = []Preset{}
	}
	data, err := json.Marshal(presets)
	if err != nil {
		return fmt.Errorf("portal: marshal custom presets %s: %w", role, err)
	}
	if err := p.kv.Set(ctx, p.keys.Presets(role), string(data)); err != nil {
		return fmt.Errorf("portal: persist custom presets %s: %w", role, err)
	}
	return nil
}

func clonePreset(p Preset) Preset {
	p.Widgets = slices.Clone(p.Widgets)
	p.ForRoles = slices.Clone(p.ForRoles)
	return p
}
