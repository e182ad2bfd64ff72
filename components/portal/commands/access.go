package commands

import (
	"context"
	"errors"
	"fmt"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal/components/portal"
)

// ErrForbidden is returned when a non-admin tries to change widget access.
var ErrForbidden = errors.New("portal: widget access changes require the admin role")

// PublishAccessInput replaces the tenant override record. ActorRole is the
// caller's resolved role and must be admin.
type PublishAccessInput struct {
	ActorRole string                     `json:"-"`
	Overrides map[string]map[string]bool `json:"overrides"`
}

type accessService interface {
	PublishAccessOverrides(ctx context.Context, overrides portal.AccessOverrides) error
}

// PublishAccessCommand wraps Service.PublishAccessOverrides.
type PublishAccessCommand struct {
	service   accessService
	telemetry Telemetry
}

// NewPublishAccessCommand builds the command.
func NewPublishAccessCommand(service accessService, telemetry Telemetry) *PublishAccessCommand {
	return &PublishAccessCommand{service: service, telemetry: normalizeTelemetry(telemetry)}
}

var _ gocommand.Commander[PublishAccessInput] = (*PublishAccessCommand)(nil)

// Execute validates the caller and record, then publishes it.
func (c *PublishAccessCommand) Execute(ctx context.Context, msg PublishAccessInput) error {
	if c.service == nil {
		return errServiceRequired
	}
	if portal.Role(msg.ActorRole) != portal.RoleAdmin {
		return ErrForbidden
	}
	overrides := make(portal.AccessOverrides, len(msg.Overrides))
	disabled := 0
	for key, widgets := range msg.Overrides {
		role, err := portal.ParseRole(key)
		if err != nil {
			return fmt.Errorf("portal: access overrides: %w", err)
		}
		inner := make(map[string]bool, len(widgets))
		for id, enabled := range widgets {
			inner[id] = enabled
			if !enabled {
				disabled++
			}
		}
		overrides[role] = inner
	}
	if err := c.service.PublishAccessOverrides(ctx, overrides); err != nil {
		return err
	}
	c.telemetry.Record(ctx, "portal.command.access.publish", map[string]any{
		"roles":    len(overrides),
		"disabled": disabled,
	})
	return nil
}
