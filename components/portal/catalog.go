package portal

import (
	"fmt"
	"slices"
	"sync"
)

// CatalogHook lets packages register widgets during init().
type CatalogHook func(c *Catalog) error

var (
	globalHookMu sync.Mutex
	globalHooks  []CatalogHook
)

// RegisterCatalogHook registers a hook executed against new catalogs.
func RegisterCatalogHook(h CatalogHook) {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	globalHooks = append(globalHooks, h)
}

// Catalog is the static widget registry. Registration order is preserved so
// pickers list widgets deterministically.
type Catalog struct {
	mu    sync.RWMutex
	metas map[string]WidgetMeta
	order []string
}

// NewCatalog builds a catalog holding the default widgets plus any hooks.
func NewCatalog() *Catalog {
	c := NewEmptyCatalog()
	for _, meta := range DefaultWidgets() {
		_ = c.Register(meta)
	}
	_ = c.ApplyHooks()
	return c
}

// NewEmptyCatalog builds a catalog without default widgets.
func NewEmptyCatalog() *Catalog {
	return &Catalog{metas: make(map[string]WidgetMeta)}
}

// ApplyHooks executes registered catalog hooks.
func (c *Catalog) ApplyHooks() error {
	globalHookMu.Lock()
	defer globalHookMu.Unlock()
	for _, hook := range globalHooks {
		if err := hook(c); err != nil {
			return err
		}
	}
	return nil
}

// Register validates and stores a widget. Re-registering an id replaces the
// entry in place.
func (c *Catalog) Register(meta WidgetMeta) error {
	if err := validateMeta(meta); err != nil {
		return err
	}
	meta.AllowedRoles = slices.Clone(meta.AllowedRoles)
	meta.NameLocalized = normalizeLocaleMap(meta.NameLocalized)
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.metas[meta.ID]; !exists {
		c.order = append(c.order, meta.ID)
	}
	c.metas[meta.ID] = meta
	return nil
}

// Widget fetches a widget by id.
func (c *Catalog) Widget(id string) (WidgetMeta, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	meta, ok := c.metas[id]
	return meta, ok
}

// Widgets returns every registered widget in registration order.
func (c *Catalog) Widgets() []WidgetMeta {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]WidgetMeta, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.metas[id])
	}
	return out
}

// WidgetsForRole filters the catalog by role allow list, then by the tenant
// overrides. An unknown role yields an empty list.
func (c *Catalog) WidgetsForRole(role Role, access AccessOverrides) []WidgetMeta {
	var out []WidgetMeta
	for _, meta := range c.Widgets() {
		if meta.AllowedFor(role) && access.IsEnabled(meta.ID, role) {
			out = append(out, meta)
		}
	}
	return out
}

// Allowed applies the two-stage rule to a single widget id.
func (c *Catalog) Allowed(id string, role Role, access AccessOverrides) bool {
	meta, ok := c.Widget(id)
	if !ok {
		return false
	}
	return meta.AllowedFor(role) && access.IsEnabled(id, role)
}

func validateMeta(meta WidgetMeta) error {
	if meta.ID == "" {
		return fmt.Errorf("portal: widget id is required")
	}
	if meta.Name == "" {
		return fmt.Errorf("portal: widget %s is missing a name", meta.ID)
	}
	if !meta.Category.Valid() {
		return fmt.Errorf("portal: widget %s has unknown category %q", meta.ID, meta.Category)
	}
	if !meta.DefaultSize.Valid() {
		return fmt.Errorf("portal: widget %s: %w %q", meta.ID, ErrInvalidSize, meta.DefaultSize)
	}
	if len(meta.AllowedRoles) == 0 {
		return fmt.Errorf("portal: widget %s must allow at least one role", meta.ID)
	}
	for _, role := range meta.AllowedRoles {
		if !role.Valid() {
			return fmt.Errorf("portal: widget %s: %w %q", meta.ID, ErrUnknownRole, role)
		}
	}
	return nil
}
