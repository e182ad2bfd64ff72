package portal

import (
	"errors"
	"fmt"
	"io"
	"maps"
	"os"

	"gopkg.in/yaml.v3"
)

const (
	manifestVersionV1 = "1"
	// ManifestVersion exposes the current manifest format version for tooling.
	ManifestVersion = manifestVersionV1
)

// ManifestDocument models a YAML manifest that extends the widget catalog,
// presets and per-role default layouts of a deployment.
type ManifestDocument struct {
	Version     string            `yaml:"version"`
	Name        string            `yaml:"name,omitempty"`
	Widgets     []ManifestWidget  `yaml:"widgets,omitempty"`
	Presets     []ManifestPreset  `yaml:"presets,omitempty"`
	RoleLayouts map[Role][]string `yaml:"role_layouts,omitempty"`
	Source      string            `yaml:"-"`
}

// ManifestWidget is a catalog entry plus optional static demo data served by
// a generated provider.
type ManifestWidget struct {
	WidgetMeta `yaml:",inline"`
	Data       map[string]any `yaml:"data,omitempty"`
}

// ManifestPreset declares a built-in preset. Slots are ordered by their
// position in the list and are visible unless marked hidden.
type ManifestPreset struct {
	ID          string         `yaml:"id"`
	Name        string         `yaml:"name"`
	Description string         `yaml:"description,omitempty"`
	Icon        string         `yaml:"icon,omitempty"`
	ForRoles    []Role         `yaml:"for_roles,omitempty"`
	Widgets     []ManifestSlot `yaml:"widgets"`
}

// ManifestSlot places one widget in a manifest preset.
type ManifestSlot struct {
	ID     string     `yaml:"id"`
	Size   WidgetSize `yaml:"size"`
	Hidden bool       `yaml:"hidden,omitempty"`
}

// Preset converts the manifest entry into a Preset.
func (p ManifestPreset) Preset() Preset {
	widgets := make([]WidgetInstance, len(p.Widgets))
	for i, slot := range p.Widgets {
		widgets[i] = WidgetInstance{ID: slot.ID, Order: i, Size: slot.Size, Visible: !slot.Hidden}
	}
	return Preset{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Icon:        p.Icon,
		Widgets:     widgets,
		ForRoles:    append([]Role(nil), p.ForRoles...),
	}
}

// ReadManifest loads a manifest file from disk without applying it.
func ReadManifest(path string) (*ManifestDocument, error) {
	f, err := os.Open(path) //nolint:gosec
	if err != nil {
		return nil, fmt.Errorf("portal: open manifest %s: %w", path, err)
	}
	defer f.Close()
	doc, err := DecodeManifest(f)
	if err != nil {
		return nil, fmt.Errorf("portal: decode manifest %s: %w", path, err)
	}
	doc.Source = path
	return doc, nil
}

// DecodeManifest reads a manifest from any reader.
func DecodeManifest(r io.Reader) (*ManifestDocument, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)
	var doc ManifestDocument
	if err := decoder.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("portal: manifest is empty")
		}
		return nil, fmt.Errorf("portal: parse manifest: %w", err)
	}
	if doc.Version == "" {
		doc.Version = manifestVersionV1
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return &doc, nil
}

// Validate checks the manifest shape. Widget ids referenced by presets and
// role layouts may point at built-in widgets, so only self-consistency and
// enum values are checked here.
func (doc *ManifestDocument) Validate() error {
	if doc.Version != manifestVersionV1 {
		return fmt.Errorf("portal: unsupported manifest version %q", doc.Version)
	}
	seen := make(map[string]struct{}, len(doc.Widgets))
	for idx, widget := range doc.Widgets {
		if widget.ID == "" {
			return fmt.Errorf("portal: manifest widget at index %d is missing id", idx)
		}
		if _, exists := seen[widget.ID]; exists {
			return fmt.Errorf("portal: manifest duplicates widget id %s", widget.ID)
		}
		seen[widget.ID] = struct{}{}
		if err := validateMeta(widget.WidgetMeta); err != nil {
			return err
		}
	}
	presets := make(map[string]struct{}, len(doc.Presets))
	for idx, preset := range doc.Presets {
		if preset.ID == "" || preset.Name == "" {
			return fmt.Errorf("portal: manifest preset at index %d needs id and name", idx)
		}
		if preset.ID == StandardPresetID {
			return fmt.Errorf("portal: manifest cannot redefine the %q preset", StandardPresetID)
		}
		if _, exists := presets[preset.ID]; exists {
			return fmt.Errorf("portal: manifest duplicates preset id %s", preset.ID)
		}
		presets[preset.ID] = struct{}{}
		for _, role := range preset.ForRoles {
			if !role.Valid() {
				return fmt.Errorf("portal: manifest preset %s: %w: %q", preset.ID, ErrUnknownRole, role)
			}
		}
		for _, w := range preset.Widgets {
			if !w.Size.Valid() {
				return fmt.Errorf("portal: manifest preset %s widget %s: %w: %q", preset.ID, w.ID, ErrInvalidSize, w.Size)
			}
		}
	}
	for role := range doc.RoleLayouts {
		if !role.Valid() {
			return fmt.Errorf("portal: manifest role layout: %w: %q", ErrUnknownRole, role)
		}
	}
	return nil
}

// Apply registers the manifest's widgets and demo providers and merges its
// presets and role layouts into opts. Manifest presets replace built-ins
// with the same id.
func (doc *ManifestDocument) Apply(opts *Options) error {
	if doc == nil {
		return fmt.Errorf("portal: manifest document is nil")
	}
	if opts.Catalog == nil {
		opts.Catalog = NewCatalog()
	}
	if opts.Providers == nil {
		opts.Providers = NewProviders()
	}
	for _, widget := range doc.Widgets {
		if err := opts.Catalog.Register(widget.WidgetMeta); err != nil {
			return fmt.Errorf("portal: register widget %s from %s: %w", widget.ID, doc.Source, err)
		}
		if _, ok := opts.Providers.Provider(widget.ID); ok {
			continue
		}
		data := widget.Data
		if err := opts.Providers.Register(widget.ID, staticProvider(func(WidgetContext) WidgetData {
			return WidgetData(maps.Clone(data))
		})); err != nil {
			return err
		}
	}
	if len(doc.Presets) > 0 {
		if opts.Presets == nil {
			opts.Presets = DefaultPresets()
		}
		for _, preset := range doc.Presets {
			opts.Presets = upsertPreset(opts.Presets, preset.Preset())
		}
	}
	if len(doc.RoleLayouts) > 0 {
		if opts.Defaults == nil {
			opts.Defaults = DefaultRoleLayouts()
		}
		for role, ids := range doc.RoleLayouts {
			opts.Defaults[role] = append([]string(nil), ids...)
		}
	}
	return nil
}

func upsertPreset(presets []Preset, preset Preset) []Preset {
	for i := range presets {
		if presets[i].ID == preset.ID {
			presets[i] = preset
			return presets
		}
	}
	return append(presets, preset)
}
