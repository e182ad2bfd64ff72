package portal

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleManifest = `
version: 1
name: acme-portal
widgets:
  - id: acme-kudos
    name: Kudos
    name_localized:
      es: Reconocimientos
    icon: star
    category: overview
    default_size: medium
    allowed_roles: [staff, manager, admin]
    data:
      count: 4
presets:
  - id: kudos-first
    name: Kudos First
    widgets:
      - id: acme-kudos
        size: large
      - id: tasks
        size: medium
        hidden: true
role_layouts:
  staff: [acme-kudos, tasks, payslip]
`

func TestDecodeManifest(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)

	widget := doc.Widgets[0]
	assert.Equal(t, "acme-kudos", widget.ID)
	assert.Equal(t, SizeMedium, widget.DefaultSize)
	assert.Equal(t, []Role{RoleStaff, RoleManager, RoleAdmin}, widget.AllowedRoles)
	assert.Equal(t, 4, widget.Data["count"])

	preset := doc.Presets[0].Preset()
	assert.Equal(t, []WidgetInstance{
		{ID: "acme-kudos", Order: 0, Size: SizeLarge, Visible: true},
		{ID: "tasks", Order: 1, Size: SizeMedium, Visible: false},
	}, preset.Widgets)
}

func TestManifestApplyExtendsService(t *testing.T) {
	doc, err := DecodeManifest(strings.NewReader(sampleManifest))
	require.NoError(t, err)
	var opts Options
	require.NoError(t, doc.Apply(&opts))
	require.NoError(t, opts.Providers.Check(opts.Catalog))

	svc := NewService(opts)
	defer svc.Close()
	ctx := context.Background()

	layout, err := svc.Load(ctx, RoleStaff)
	require.NoError(t, err)
	assert.Equal(t, []string{"acme-kudos", "tasks", "payslip"}, layout.IDs())

	hrLayout, err := svc.Load(ctx, RoleHR)
	require.NoError(t, err)
	assert.Equal(t, DefaultRoleLayouts()[RoleHR], hrLayout.IDs())

	applied, err := svc.ApplyPreset(ctx, RoleHR, "kudos-first")
	require.NoError(t, err)
	assert.Equal(t, []string{"tasks"}, applied.IDs(), "hr may not place acme-kudos")

	view, err := svc.NewController(ViewerContext{Role: RoleStaff, Locale: "es"}).View(ctx)
	require.NoError(t, err)
	assert.Equal(t, "Reconocimientos", view.Widgets[0].Name)
	assert.Equal(t, 4, view.Widgets[0].Data["count"])
}

func TestManifestValidation(t *testing.T) {
	cases := map[string]string{
		"version":         "version: 2\n",
		"unknown field":   "version: 1\nwidgets:\n  - id: a\n    name: A\n    category: hr\n    default_size: small\n    allowed_roles: [hr]\n    colour: red\n",
		"duplicate":       "widgets:\n  - {id: a, name: A, category: hr, default_size: small, allowed_roles: [hr]}\n  - {id: a, name: A, category: hr, default_size: small, allowed_roles: [hr]}\n",
		"bad role":        "role_layouts:\n  guest: [tasks]\n",
		"standard preset": "presets:\n  - {id: standard, name: S, widgets: []}\n",
		"bad size":        "presets:\n  - id: p\n    name: P\n    widgets:\n      - {id: tasks, size: giant}\n",
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			if _, err := DecodeManifest(strings.NewReader(payload)); err == nil {
				t.Fatalf("expected error")
			}
		})
	}
	if _, err := DecodeManifest(strings.NewReader("")); err == nil {
		t.Fatalf("expected error for empty manifest")
	}
}

func TestReadManifestFromDisk(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(sampleManifest), 0o600))
	doc, err := ReadManifest(path)
	require.NoError(t, err)
	assert.Equal(t, path, doc.Source)
	assert.Equal(t, "acme-portal", doc.Name)

	_, err = ReadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
