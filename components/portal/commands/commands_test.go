package commands

import (
	"context"
	"errors"
	"testing"

	"github.com/goliatone/go-portal/components/portal"
)

type stubTelemetry struct {
	calls int
}

func (s *stubTelemetry) Record(context.Context, string, map[string]any) { s.calls++ }

type stubService struct {
	reorderCalls int
	resizeCalls  int
	toggleCalls  int
	addCalls     int
	resetCalls   int
	applyCalls   int
	saveCalls    int
	deleteCalls  int
	publishCalls int
	lastRole     portal.Role
	lastSize     portal.WidgetSize
	overrides    portal.AccessOverrides
}

func (s *stubService) Reorder(_ context.Context, role portal.Role, _, _ string) (portal.Layout, error) {
	s.reorderCalls++
	s.lastRole = role
	return portal.Layout{}, nil
}

func (s *stubService) Resize(_ context.Context, role portal.Role, _ string, size portal.WidgetSize) (portal.Layout, error) {
	s.resizeCalls++
	s.lastRole, s.lastSize = role, size
	return portal.Layout{}, nil
}

func (s *stubService) ToggleWidget(_ context.Context, role portal.Role, _ string) (portal.Layout, error) {
	s.toggleCalls++
	s.lastRole = role
	return portal.Layout{}, nil
}

func (s *stubService) AddWidget(_ context.Context, role portal.Role, _ string) (portal.Layout, error) {
	s.addCalls++
	s.lastRole = role
	return portal.Layout{}, nil
}

func (s *stubService) ResetLayout(_ context.Context, role portal.Role) (portal.Layout, error) {
	s.resetCalls++
	s.lastRole = role
	return portal.Layout{}, nil
}

func (s *stubService) ApplyPreset(_ context.Context, role portal.Role, _ string) (portal.Layout, error) {
	s.applyCalls++
	s.lastRole = role
	return portal.Layout{}, nil
}

func (s *stubService) SaveCustomPreset(_ context.Context, role portal.Role, name, _ string) (portal.Preset, error) {
	s.saveCalls++
	s.lastRole = role
	return portal.Preset{ID: "custom-1", Name: name, IsCustom: true}, nil
}

func (s *stubService) DeleteCustomPreset(_ context.Context, role portal.Role, _ string) error {
	s.deleteCalls++
	s.lastRole = role
	return nil
}

func (s *stubService) PublishAccessOverrides(_ context.Context, overrides portal.AccessOverrides) error {
	s.publishCalls++
	s.overrides = overrides
	return nil
}

func TestReorderWidgetsCommand(t *testing.T) {
	service := &stubService{}
	telemetry := &stubTelemetry{}
	cmd := NewReorderWidgetsCommand(service, telemetry)
	if err := cmd.Execute(context.Background(), ReorderWidgetsInput{Role: " Staff ", SourceID: "payslip", TargetID: "tasks"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.reorderCalls != 1 || service.lastRole != portal.RoleStaff {
		t.Fatalf("expected reorder call for staff, got %d %q", service.reorderCalls, service.lastRole)
	}
	if telemetry.calls != 1 {
		t.Fatalf("expected telemetry to record")
	}
}

func TestCommandsRejectUnknownRole(t *testing.T) {
	service := &stubService{}
	ctx := context.Background()
	errs := []error{
		NewReorderWidgetsCommand(service, nil).Execute(ctx, ReorderWidgetsInput{Role: "guest"}),
		NewToggleWidgetCommand(service, nil).Execute(ctx, WidgetInput{Role: "guest"}),
		NewAddWidgetCommand(service, nil).Execute(ctx, WidgetInput{}),
		NewResetLayoutCommand(service, nil).Execute(ctx, ResetLayoutInput{Role: "root"}),
		NewApplyPresetCommand(service, nil).Execute(ctx, ApplyPresetInput{Role: "x"}),
		NewDeleteCustomPresetCommand(service, nil).Execute(ctx, DeleteCustomPresetInput{}),
	}
	for i, err := range errs {
		if !errors.Is(err, portal.ErrUnknownRole) {
			t.Fatalf("case %d: expected ErrUnknownRole, got %v", i, err)
		}
	}
	if service.reorderCalls+service.toggleCalls+service.addCalls+service.resetCalls+service.applyCalls+service.deleteCalls != 0 {
		t.Fatalf("service must not be called for unknown roles")
	}
}

func TestResizeWidgetCommandValidatesSize(t *testing.T) {
	service := &stubService{}
	cmd := NewResizeWidgetCommand(service, nil)
	err := cmd.Execute(context.Background(), ResizeWidgetInput{Role: "hr", WidgetID: "tasks", Size: "giant"})
	if !errors.Is(err, portal.ErrInvalidSize) {
		t.Fatalf("expected ErrInvalidSize, got %v", err)
	}
	if err := cmd.Execute(context.Background(), ResizeWidgetInput{Role: "hr", WidgetID: "tasks", Size: "LARGE"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.resizeCalls != 1 || service.lastSize != portal.SizeLarge {
		t.Fatalf("expected one resize to large, got %d %q", service.resizeCalls, service.lastSize)
	}
}

func TestLayoutCommandsDelegate(t *testing.T) {
	service := &stubService{}
	ctx := context.Background()
	if err := NewToggleWidgetCommand(service, nil).Execute(ctx, WidgetInput{Role: "hr", WidgetID: "tasks"}); err != nil {
		t.Fatalf("toggle: %v", err)
	}
	if err := NewAddWidgetCommand(service, nil).Execute(ctx, WidgetInput{Role: "hr", WidgetID: "headcount"}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if err := NewResetLayoutCommand(service, nil).Execute(ctx, ResetLayoutInput{Role: "hr"}); err != nil {
		t.Fatalf("reset: %v", err)
	}
	if err := NewApplyPresetCommand(service, nil).Execute(ctx, ApplyPresetInput{Role: "hr", PresetID: "minimal"}); err != nil {
		t.Fatalf("apply: %v", err)
	}
	if err := NewDeleteCustomPresetCommand(service, nil).Execute(ctx, DeleteCustomPresetInput{Role: "hr", PresetID: "custom-1"}); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if service.toggleCalls != 1 || service.addCalls != 1 || service.resetCalls != 1 || service.applyCalls != 1 || service.deleteCalls != 1 {
		t.Fatalf("expected each command to delegate once, got %#v", service)
	}
}

func TestSaveCustomPresetCommandFillsResult(t *testing.T) {
	service := &stubService{}
	var out portal.Preset
	cmd := NewSaveCustomPresetCommand(service, nil)
	if err := cmd.Execute(context.Background(), SaveCustomPresetInput{Role: "manager", Name: "Mine", Result: &out}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if out.ID != "custom-1" || out.Name != "Mine" || !out.IsCustom {
		t.Fatalf("expected result filled, got %#v", out)
	}
	if err := cmd.Execute(context.Background(), SaveCustomPresetInput{Role: "manager", Name: "NoResult"}); err != nil {
		t.Fatalf("Execute without result returned error: %v", err)
	}
}

func TestPublishAccessCommand(t *testing.T) {
	service := &stubService{}
	cmd := NewPublishAccessCommand(service, nil)
	ctx := context.Background()
	input := PublishAccessInput{ActorRole: "finance", Overrides: map[string]map[string]bool{"finance": {"invoices": false}}}
	if err := cmd.Execute(ctx, input); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	input.ActorRole = "admin"
	input.Overrides["guest"] = map[string]bool{}
	if err := cmd.Execute(ctx, input); !errors.Is(err, portal.ErrUnknownRole) {
		t.Fatalf("expected ErrUnknownRole, got %v", err)
	}
	delete(input.Overrides, "guest")
	if err := cmd.Execute(ctx, input); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	if service.publishCalls != 1 || service.overrides.IsEnabled("invoices", portal.RoleFinance) {
		t.Fatalf("expected overrides published, got %#v", service.overrides)
	}
}

func TestCommandsAgainstService(t *testing.T) {
	svc := portal.NewService(portal.Options{})
	defer svc.Close()
	ctx := context.Background()
	if err := NewReorderWidgetsCommand(svc, nil).Execute(ctx, ReorderWidgetsInput{Role: "staff", SourceID: "payslip", TargetID: "tasks"}); err != nil {
		t.Fatalf("Execute returned error: %v", err)
	}
	layout, err := svc.Load(ctx, portal.RoleStaff)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if _, idx, _ := layout.Widget("payslip"); idx != 4 {
		t.Fatalf("expected payslip moved to 4, got %d", idx)
	}
}
