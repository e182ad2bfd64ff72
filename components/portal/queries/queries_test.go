package queries

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-portal/components/portal"
)

type stubLayoutService struct {
	calls int
	role  portal.Role
}

func (s *stubLayoutService) Load(_ context.Context, role portal.Role) (portal.Layout, error) {
	s.calls++
	s.role = role
	return portal.Layout{Role: role}, nil
}

type stubPresetService struct {
	calls int
}

func (s *stubPresetService) PresetsFor(context.Context, portal.Role) []portal.Preset {
	s.calls++
	return []portal.Preset{{ID: "minimal"}}
}

func TestLayoutQuery(t *testing.T) {
	service := &stubLayoutService{}
	query := NewLayoutQuery(service)
	layout, err := query.Query(context.Background(), LayoutInput{Role: "HR"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || layout.Role != portal.RoleHR {
		t.Fatalf("expected 1 call for hr, got %d %q", service.calls, layout.Role)
	}
	if _, err := query.Query(context.Background(), LayoutInput{Role: "guest"}); !errors.Is(err, portal.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	if service.calls != 1 {
		t.Fatalf("unknown role must not reach the service")
	}
}

func TestPresetsQuery(t *testing.T) {
	service := &stubPresetService{}
	presets, err := NewPresetsQuery(service).Query(context.Background(), LayoutInput{Role: "staff"})
	if err != nil {
		t.Fatalf("Query returned error: %v", err)
	}
	if service.calls != 1 || len(presets) != 1 {
		t.Fatalf("expected presets from service, got %#v", presets)
	}
}

func TestCatalogQueryReflectsOverrides(t *testing.T) {
	ctx := context.Background()
	svc := portal.NewService(portal.Options{})
	defer svc.Close()
	require.NoError(t, svc.PublishAccessOverrides(ctx, portal.AccessOverrides{
		portal.RoleFinance: {"invoices": false},
	}))

	result, err := NewCatalogQuery(svc).Query(ctx, LayoutInput{Role: "finance"})
	require.NoError(t, err)
	assert.Equal(t, portal.RoleFinance, result.Role)
	assert.Equal(t, []string{"invoices"}, result.Restricted)
	for _, meta := range result.Widgets {
		assert.NotEqual(t, "invoices", meta.ID)
		assert.True(t, meta.AllowedFor(portal.RoleFinance), meta.ID)
	}

	staff, err := NewCatalogQuery(svc).Query(ctx, LayoutInput{Role: "staff"})
	require.NoError(t, err)
	assert.Empty(t, staff.Restricted)
	assert.NotNil(t, staff.Restricted)
}

func TestViewQuery(t *testing.T) {
	ctx := context.Background()
	svc := portal.NewService(portal.Options{})
	defer svc.Close()
	_, err := svc.ToggleWidget(ctx, portal.RoleStaff, "payslip")
	require.NoError(t, err)

	query := NewViewQuery(svc)
	normal, err := query.Query(ctx, ViewInput{Viewer: portal.ViewerContext{Role: "staff"}})
	require.NoError(t, err)
	assert.False(t, normal.Editing)
	for _, w := range normal.Widgets {
		assert.NotEqual(t, "payslip", w.Instance.ID)
	}

	editing, err := query.Query(ctx, ViewInput{Viewer: portal.ViewerContext{Role: "staff"}, Editing: true})
	require.NoError(t, err)
	assert.True(t, editing.Editing)
	assert.Len(t, editing.Widgets, len(normal.Widgets)+1)

	_, err = query.Query(ctx, ViewInput{Viewer: portal.ViewerContext{Role: "nobody"}})
	assert.ErrorIs(t, err, portal.ErrUnknownRole)
}
