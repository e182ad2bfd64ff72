package commands

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal/components/portal"
)

// ApplyPresetInput applies a preset to a role layout.
type ApplyPresetInput struct {
	Role     string `json:"role"`
	PresetID string `json:"preset_id"`
}

type applyPresetService interface {
	ApplyPreset(ctx context.Context, role portal.Role, presetID string) (portal.Layout, error)
}

// ApplyPresetCommand wraps Service.ApplyPreset.
type ApplyPresetCommand struct {
	service   applyPresetService
	telemetry Telemetry
}

// NewApplyPresetCommand builds the command.
func NewApplyPresetCommand(service applyPresetService, telemetry Telemetry) *ApplyPresetCommand {
	return &ApplyPresetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[ApplyPresetInput] = (*ApplyPresetCommand)(nil)

// Execute replaces the layout with the preset.
func (c *ApplyPresetCommand) Execute(ctx context.Context, msg ApplyPresetInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	if _, err := c.service.ApplyPreset(ctx, role, msg.PresetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.preset.apply", map[string]any{
		"role":      string(role),
		"preset_id": msg.PresetID,
	})
	return nil
}

// SaveCustomPresetInput snapshots the current layout. Result is filled with
// the saved preset when the command succeeds.
type SaveCustomPresetInput struct {
	Role        string         `json:"role"`
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Result      *portal.Preset `json:"-"`
}

type savePresetService interface {
	SaveCustomPreset(ctx context.Context, role portal.Role, name, description string) (portal.Preset, error)
}

// SaveCustomPresetCommand wraps Service.SaveCustomPreset.
type SaveCustomPresetCommand struct {
	service   savePresetService
	telemetry Telemetry
}

// NewSaveCustomPresetCommand builds the command.
func NewSaveCustomPresetCommand(service savePresetService, telemetry Telemetry) *SaveCustomPresetCommand {
	return &SaveCustomPresetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[SaveCustomPresetInput] = (*SaveCustomPresetCommand)(nil)

// Execute saves the preset.
func (c *SaveCustomPresetCommand) Execute(ctx context.Context, msg SaveCustomPresetInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	preset, err := c.service.SaveCustomPreset(ctx, role, msg.Name, msg.Description)
	if err != nil {
		return err
	}
	if msg.Result != nil {
		*msg.Result = preset
	}
	c.telemetry.Record(ctx, "portal.command.preset.save", map[string]any{
		"role":      string(role),
		"preset_id": preset.ID,
	})
	return nil
}

// DeleteCustomPresetInput removes a custom preset.
type DeleteCustomPresetInput struct {
	Role     string `json:"role"`
	PresetID string `json:"preset_id"`
}

type deletePresetService interface {
	DeleteCustomPreset(ctx context.Context, role portal.Role, presetID string) error
}

// DeleteCustomPresetCommand wraps Service.DeleteCustomPreset.
type DeleteCustomPresetCommand struct {
	service   deletePresetService
	telemetry Telemetry
}

// NewDeleteCustomPresetCommand builds the command.
func NewDeleteCustomPresetCommand(service deletePresetService, telemetry Telemetry) *DeleteCustomPresetCommand {
	return &DeleteCustomPresetCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[DeleteCustomPresetInput] = (*DeleteCustomPresetCommand)(nil)

// Execute deletes the preset.
func (c *DeleteCustomPresetCommand) Execute(ctx context.Context, msg DeleteCustomPresetInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	role, err := portal.ParseRole(msg.Role)
	if err != nil {
		return err
	}
	if err := c.service.DeleteCustomPreset(ctx, role, msg.PresetID); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.preset.delete", map[string]any{
		"role":      string(role),
		"preset_id": msg.PresetID,
	})
	return nil
}
