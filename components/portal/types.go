package portal

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"
)

// Role is the viewer's functional category resolved by the auth/membership layer.
type Role string

const (
	RoleStaff   Role = "staff"
	RoleHR      Role = "hr"
	RoleManager Role = "manager"
	RoleFinance Role = "finance"
	RoleAdmin   Role = "admin"
)

var allRoles = []Role{RoleStaff, RoleHR, RoleManager, RoleFinance, RoleAdmin}

// Roles returns every known role in declaration order.
func Roles() []Role {
	return slices.Clone(allRoles)
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	return slices.Contains(allRoles, r)
}

// ParseRole normalizes and validates a role string.
func ParseRole(value string) (Role, error) {
	role := Role(strings.ToLower(strings.TrimSpace(value)))
	if !role.Valid() {
		return "", fmt.Errorf("%w: %q", ErrUnknownRole, value)
	}
	return role, nil
}

// Category groups widgets in the "add widget" picker.
type Category string

const (
	CategoryOverview   Category = "overview"
	CategoryHR         Category = "hr"
	CategoryFinance    Category = "finance"
	CategoryOperations Category = "operations"
	CategoryPersonal   Category = "personal"
)

// Valid reports whether c is a known category.
func (c Category) Valid() bool {
	switch c {
	case CategoryOverview, CategoryHR, CategoryFinance, CategoryOperations, CategoryPersonal:
		return true
	}
	return false
}

// WidgetSize controls how many grid columns a widget spans.
type WidgetSize string

const (
	SizeSmall  WidgetSize = "small"
	SizeMedium WidgetSize = "medium"
	SizeLarge  WidgetSize = "large"
	SizeFull   WidgetSize = "full"
)

// Valid reports whether s is a known size.
func (s WidgetSize) Valid() bool {
	switch s {
	case SizeSmall, SizeMedium, SizeLarge, SizeFull:
		return true
	}
	return false
}

// ParseWidgetSize normalizes and validates a size string.
func ParseWidgetSize(value string) (WidgetSize, error) {
	size := WidgetSize(strings.ToLower(strings.TrimSpace(value)))
	if !size.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidSize, value)
	}
	return size, nil
}

// WidgetMeta is the immutable catalog entry describing a widget.
type WidgetMeta struct {
	ID            string            `json:"id" yaml:"id"`
	Name          string            `json:"name" yaml:"name"`
	NameLocalized map[string]string `json:"name_localized,omitempty" yaml:"name_localized,omitempty"`
	Description   string            `json:"description,omitempty" yaml:"description,omitempty"`
	Icon          string            `json:"icon,omitempty" yaml:"icon,omitempty"`
	Category      Category          `json:"category" yaml:"category"`
	DefaultSize   WidgetSize        `json:"default_size" yaml:"default_size"`
	AllowedRoles  []Role            `json:"allowed_roles" yaml:"allowed_roles"`
}

// AllowedFor reports whether the role is in the widget's allow list.
func (m WidgetMeta) AllowedFor(role Role) bool {
	return slices.Contains(m.AllowedRoles, role)
}

// NameForLocale returns the display name for the locale, falling back to Name.
func (m WidgetMeta) NameForLocale(locale string) string {
	return ResolveLocalizedValue(m.NameLocalized, locale, m.Name)
}

// WidgetInstance is one widget placed on a role-scoped layout.
type WidgetInstance struct {
	ID      string     `json:"id" yaml:"id"`
	Order   int        `json:"order" yaml:"order"`
	Size    WidgetSize `json:"size" yaml:"size"`
	Visible bool       `json:"visible" yaml:"visible"`
}

// Layout is the live, persisted arrangement for a role.
type Layout struct {
	Role         Role             `json:"role"`
	Widgets      []WidgetInstance `json:"widgets"`
	ActivePreset *string          `json:"activePreset"`
	LastUpdated  time.Time        `json:"lastUpdated"`
}

// Widget returns the instance with the given id and its index.
func (l Layout) Widget(id string) (WidgetInstance, int, bool) {
	idx := indexOf(l.Widgets, id)
	if idx < 0 {
		return WidgetInstance{}, -1, false
	}
	return l.Widgets[idx], idx, true
}

// IDs returns widget ids in placement order.
func (l Layout) IDs() []string {
	ids := make([]string, len(l.Widgets))
	for i, w := range l.Widgets {
		ids[i] = w.ID
	}
	return ids
}

// Active returns the active preset id or an empty string.
func (l Layout) Active() string {
	if l.ActivePreset == nil {
		return ""
	}
	return *l.ActivePreset
}

func (l Layout) clone() Layout {
	out := l
	out.Widgets = slices.Clone(l.Widgets)
	if l.ActivePreset != nil {
		id := *l.ActivePreset
		out.ActivePreset = &id
	}
	return out
}

// Preset is a named layout snapshot that can be applied wholesale.
type Preset struct {
	ID          string           `json:"id" yaml:"id"`
	Name        string           `json:"name" yaml:"name"`
	Description string           `json:"description,omitempty" yaml:"description,omitempty"`
	Icon        string           `json:"icon,omitempty" yaml:"icon,omitempty"`
	Widgets     []WidgetInstance `json:"widgets" yaml:"widgets"`
	IsCustom    bool             `json:"isCustom" yaml:"is_custom,omitempty"`
	ForRoles    []Role           `json:"forRoles,omitempty" yaml:"for_roles,omitempty"`
}

// OfferedTo reports whether the preset is listed for the role.
func (p Preset) OfferedTo(role Role) bool {
	return len(p.ForRoles) == 0 || slices.Contains(p.ForRoles, role)
}

// ViewerContext captures the resolved viewer identity.
type ViewerContext struct {
	UserID   string `json:"user_id,omitempty"`
	TenantID string `json:"tenant_id,omitempty"`
	Role     Role   `json:"role"`
	Locale   string `json:"locale,omitempty"`
}

// LayoutEvent describes a layout change transports might care about.
type LayoutEvent struct {
	Role     Role   `json:"role"`
	Reason   string `json:"reason"`
	WidgetID string `json:"widget_id,omitempty"`
	PresetID string `json:"preset_id,omitempty"`
}

// RefreshHook notifies transports (SSE/WebSocket) about layout changes.
type RefreshHook interface {
	LayoutUpdated(ctx context.Context, event LayoutEvent) error
}

func ptr[T any](v T) *T { return &v }

func indexOf(widgets []WidgetInstance, id string) int {
	return slices.IndexFunc(widgets, func(w WidgetInstance) bool { return w.ID == id })
}
