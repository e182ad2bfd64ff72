package main

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-portal/components/portal"
)

func testGlobals(t *testing.T) (*Globals, *bytes.Buffer) {
	t.Helper()
	var out bytes.Buffer
	return &Globals{Backend: backendFile, Dir: t.TempDir(), out: &out}, &out
}

func TestResolveDefaultsAndOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`backend: redis
key_prefix: acme
redis:
  addr: redis:6379
server:
  router: fiber
`), 0o644))

	cfg, err := (&Globals{Config: path}).resolve()
	require.NoError(t, err)
	assert.Equal(t, backendRedis, cfg.Backend)
	assert.Equal(t, "acme", cfg.KeyPrefix)
	assert.Equal(t, "fiber", cfg.Server.Router)

	cfg, err = (&Globals{Config: path, Backend: "FILE", KeyPrefix: "globex"}).resolve()
	require.NoError(t, err)
	assert.Equal(t, backendFile, cfg.Backend)
	assert.Equal(t, defaultDir, cfg.File.Dir)
	assert.Equal(t, "globex", cfg.KeyPrefix)
}

func TestResolveRejectsBadConfig(t *testing.T) {
	if _, err := (&Globals{Backend: "etcd"}).resolve(); err == nil {
		t.Fatalf("expected unknown backend error")
	}
	if _, err := (&Globals{Backend: backendPostgres}).resolve(); err == nil {
		t.Fatalf("expected missing url error")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("backend: file\nunknown: true\n"), 0o644))
	if _, err := (&Globals{Config: path}).resolve(); err == nil {
		t.Fatalf("expected unknown field error")
	}
}

func TestLayoutCommandsPersistBetweenRuns(t *testing.T) {
	g, out := testGlobals(t)
	ctx := context.Background()

	reorder := &layoutReorderCmd{Role: "staff", Source: "payslip", Target: "tasks"}
	require.NoError(t, reorder.Run(ctx, g))

	out.Reset()
	require.NoError(t, (&layoutShowCmd{Role: "staff"}).Run(ctx, g))
	var layout portal.Layout
	require.NoError(t, json.Unmarshal(out.Bytes(), &layout))
	_, idx, ok := layout.Widget("payslip")
	require.True(t, ok)
	assert.Equal(t, 4, idx)

	err := (&layoutResizeCmd{Role: "staff", Widget: "payslip", Size: "huge"}).Run(ctx, g)
	assert.ErrorIs(t, err, portal.ErrInvalidSize)

	out.Reset()
	require.NoError(t, (&layoutResetCmd{Role: "staff"}).Run(ctx, g))
	require.NoError(t, json.Unmarshal(out.Bytes(), &layout))
	_, idx, _ = layout.Widget("payslip")
	assert.Equal(t, 3, idx)
}

func TestPresetSaveAndList(t *testing.T) {
	g, out := testGlobals(t)
	ctx := context.Background()

	require.NoError(t, (&presetSaveCmd{Role: "manager", Name: "Team Focus"}).Run(ctx, g))
	var saved portal.Preset
	require.NoError(t, json.Unmarshal(out.Bytes(), &saved))
	assert.True(t, saved.IsCustom)

	out.Reset()
	require.NoError(t, (&presetListCmd{Role: "manager"}).Run(ctx, g))
	var presets []portal.Preset
	require.NoError(t, json.Unmarshal(out.Bytes(), &presets))
	found := false
	for _, p := range presets {
		if p.ID == saved.ID {
			found = true
		}
	}
	assert.True(t, found, "saved preset missing from %v", presets)

	out.Reset()
	require.NoError(t, (&presetDeleteCmd{Role: "manager", Preset: saved.ID}).Run(ctx, g))
	assert.Contains(t, out.String(), "deleted "+saved.ID)
}

func TestAccessSetAndClear(t *testing.T) {
	g, out := testGlobals(t)
	ctx := context.Background()

	require.NoError(t, (&accessSetCmd{Role: "finance", Widget: "invoices", Enabled: false}).Run(ctx, g))
	var report accessReport
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Equal(t, []string{"invoices"}, report.Restricted[portal.RoleFinance])
	assert.False(t, report.Overrides.IsEnabled("invoices", portal.RoleFinance))

	out.Reset()
	require.NoError(t, (&accessClearCmd{}).Run(ctx, g))
	report = accessReport{}
	require.NoError(t, json.Unmarshal(out.Bytes(), &report))
	assert.Empty(t, report.Restricted)

	err := (&accessSetCmd{Role: "guest", Widget: "invoices"}).Run(ctx, g)
	assert.ErrorIs(t, err, portal.ErrUnknownRole)
}

func TestScaffoldAddsManifestWidget(t *testing.T) {
	g, out := testGlobals(t)
	dir := t.TempDir()
	manifest := filepath.Join(dir, "portal.yaml")
	stub := filepath.Join(dir, "providers", "travel_requests.go")
	cmd := &scaffoldCmd{
		Name:         "Travel Requests",
		Category:     "finance",
		Size:         "medium",
		Role:         []string{"finance", "Manager"},
		ManifestPath: manifest,
		ProviderOut:  stub,
		Package:      "providers",
	}
	require.NoError(t, cmd.Run(context.Background(), g))
	assert.Contains(t, out.String(), "added travel-requests")

	doc, err := portal.ReadManifest(manifest)
	require.NoError(t, err)
	require.Len(t, doc.Widgets, 1)
	widget := doc.Widgets[0]
	assert.Equal(t, "travel-requests", widget.ID)
	assert.Equal(t, []portal.Role{portal.RoleFinance, portal.RoleManager}, widget.AllowedRoles)

	source, err := os.ReadFile(stub)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(source), "func NewTravelRequestsProvider() portal.Provider"))

	if err := cmd.Run(context.Background(), g); err == nil {
		t.Fatalf("expected duplicate widget error")
	}
	cmd.Overwrite = true
	cmd.Description = "Pending trips"
	require.NoError(t, cmd.Run(context.Background(), g))
	doc, err = portal.ReadManifest(manifest)
	require.NoError(t, err)
	assert.Equal(t, "Pending trips", doc.Widgets[0].Description)
}

func TestScaffoldedManifestLoadsIntoService(t *testing.T) {
	g, out := testGlobals(t)
	manifest := filepath.Join(t.TempDir(), "portal.yaml")
	require.NoError(t, (&scaffoldCmd{
		Name:         "Travel Requests",
		Category:     "finance",
		Size:         "small",
		Role:         []string{"finance"},
		ManifestPath: manifest,
	}).Run(context.Background(), g))

	g.Manifest = manifest
	out.Reset()
	require.NoError(t, (&layoutAddCmd{Role: "finance", Widget: "travel-requests"}).Run(context.Background(), g))
	var layout portal.Layout
	require.NoError(t, json.Unmarshal(out.Bytes(), &layout))
	instance, _, ok := layout.Widget("travel-requests")
	require.True(t, ok)
	assert.Equal(t, portal.SizeSmall, instance.Size)
}

func TestServeDefaults(t *testing.T) {
	cfg := (&serveCmd{Router: "FIBER"}).server(ServerConfig{Addr: ":7000"})
	assert.Equal(t, ServerConfig{Addr: ":7000", MetricsAddr: ":9090", Router: routerFiber, BasePath: "/portal"}, cfg)
}
