package commands

import (
	"context"
	"errors"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal/components/portal"
)

var errServiceRequired = errors.New("portal: command requires service")

// ReorderWidgetsInput moves Source into Target's position.
type ReorderWidgetsInput struct {
	Role     string `json:"role"`
	SourceID string `json:"source_id"`
	TargetID string `json:"target_id"`
}

type reorderService interface {
	Reorder(ctx context.Context, role portal.Role, sourceID, targetID string) (portal.Layout, error)
}

// ReorderWidgetsCommand wraps Service.Reorder.
type ReorderWidgetsCommand struct {
	service   reorderService
	telemetry Telemetry
}

// NewReorderWidgetsCommand builds the command.
func NewReorderWidgetsCommand(service reorderService, telemetry Telemetry) *ReorderWidgetsCommand {
	return &ReorderWidgetsCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ReorderWidgetsInput] = (*ReorderWidgetsCommand)(nil)

// Execute applies the move.
func (c *ReorderWidgetsCommand) Execute(ctx context.Context, msg ReorderWidgetsInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	if _, err := c.service.Reorder(ctx, role, msg.SourceID, msg.TargetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.reorder", map[string]any{
		"role":      string(role),
		"source_id": msg.SourceID,
		"target_id": msg.TargetID,
	})
	return nil
}

// ResizeWidgetInput sets a widget's size.
type ResizeWidgetInput struct {
	Role     string `json:"role"`
	WidgetID string `json:"widget_id"`
	Size     string `json:"size"`
}

type resizeService interface {
	Resize(ctx context.Context, role portal.Role, widgetID string, size portal.WidgetSize) (portal.Layout, error)
}

// ResizeWidgetCommand wraps Service.Resize.
type ResizeWidgetCommand struct {
	service   resizeService
	telemetry Telemetry
}

// NewResizeWidgetCommand builds the command.
func NewResizeWidgetCommand(service resizeService, telemetry Telemetry) *ResizeWidgetCommand {
	return &ResizeWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResizeWidgetInput] = (*ResizeWidgetCommand)(nil)

// Execute validates the size and resizes the widget.
func (c *ResizeWidgetCommand) Execute(ctx context.Context, msg ResizeWidgetInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	size, err := portal.ParseWidgetSize(msg.Size)
	if err != nil {
		return err
	}
	if _, err := c.service.Resize(ctx, role, msg.WidgetID, size); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.resize", map[string]any{
		"role":      string(role),
		"widget_id": msg.WidgetID,
		"size":      string(size),
	})
	return nil
}

// WidgetInput targets one widget on a role layout.
type WidgetInput struct {
	Role     string `json:"role"`
	WidgetID string `json:"widget_id"`
}

type toggleService interface {
	ToggleWidget(ctx context.Context, role portal.Role, widgetID string) (portal.Layout, error)
}

// ToggleWidgetCommand wraps Service.ToggleWidget.
type ToggleWidgetCommand struct {
	service   toggleService
	telemetry Telemetry
}

// NewToggleWidgetCommand builds the command.
func NewToggleWidgetCommand(service toggleService, telemetry Telemetry) *ToggleWidgetCommand {
	return &ToggleWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[WidgetInput] = (*ToggleWidgetCommand)(nil)

// Execute flips visibility.
func (c *ToggleWidgetCommand) Execute(ctx context.Context, msg WidgetInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	if _, err := c.service.ToggleWidget(ctx, role, msg.WidgetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.toggle", map[string]any{
		"role":      string(role),
		"widget_id": msg.WidgetID,
	})
	return nil
}

type addService interface {
	AddWidget(ctx context.Context, role portal.Role, widgetID string) (portal.Layout, error)
}

// AddWidgetCommand wraps Service.AddWidget.
type AddWidgetCommand struct {
	service   addService
	telemetry Telemetry
}

// NewAddWidgetCommand builds the command.
func NewAddWidgetCommand(service addService, telemetry Telemetry) *AddWidgetCommand {
	return &AddWidgetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[WidgetInput] = (*AddWidgetCommand)(nil)

// Execute places or re-shows the widget.
func (c *AddWidgetCommand) Execute(ctx context.Context, msg WidgetInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	if _, err := c.service.AddWidget(ctx, role, msg.WidgetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.add", map[string]any{
		"role":      string(role),
		"widget_id": msg.WidgetID,
	})
	return nil
}

// ResetLayoutInput targets a role layout.
type ResetLayoutInput struct {
	Role string `json:"role"`
}

type resetService interface {
	ResetLayout(ctx context.Context, role portal.Role) (portal.Layout, error)
}

// ResetLayoutCommand wraps Service.ResetLayout.
type ResetLayoutCommand struct {
	service   resetService
	telemetry Telemetry
}

// NewResetLayoutCommand builds the command.
func NewResetLayoutCommand(service resetService, telemetry Telemetry) *ResetLayoutCommand {
	return &ResetLayoutCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ResetLayoutInput] = (*ResetLayoutCommand)(nil)

// Execute discards the role's customizations.
func (c *ResetLayoutCommand) Execute(ctx context.Context, msg ResetLayoutInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	if _, err := c.service.ResetLayout(ctx, role); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.reset", map[string]any{"role": string(role)})
	return nil
}
