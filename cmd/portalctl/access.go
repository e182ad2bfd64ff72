package main

import (
	"context"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/components/portal/commands"
)

type accessCmd struct {
	Show  accessShowCmd  `cmd:"" help:"Print the override record and the widgets each role loses."`
	Set   accessSetCmd   `cmd:"" help:"Enable or disable a widget for a role."`
	Clear accessClearCmd `cmd:"" help:"Remove every override."`
}

type accessReport struct {
	Overrides  portal.AccessOverrides   `json:"overrides"`
	Restricted map[portal.Role][]string `json:"restricted"`
}

type accessShowCmd struct{}

func (c *accessShowCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.printAccess(ctx, g)
}

type accessSetCmd struct {
	Role    string `arg:""`
	Widget  string `arg:""`
	Enabled bool   `negatable:"" default:"true" help:"Allow the widget (--no-enabled disables it)."`
}

func (c *accessSetCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	record := toRecord(rt.service.AccessOverrides(ctx))
	role, err := portal.ParseRole(c.Role)
	if err != nil {
		return err
	}
	if record[string(role)] == nil {
		record[string(role)] = map[string]bool{}
	}
	record[string(role)][c.Widget] = c.Enabled
	if err := rt.publish(ctx, record); err != nil {
		return err
	}
	return rt.printAccess(ctx, g)
}

type accessClearCmd struct{}

func (c *accessClearCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := rt.publish(ctx, map[string]map[string]bool{}); err != nil {
		return err
	}
	return rt.printAccess(ctx, g)
}

// The CLI acts as the tenant admin.
func (rt *runtime) publish(ctx context.Context, record map[string]map[string]bool) error {
	return commands.NewPublishAccessCommand(rt.service, nil).Execute(ctx, commands.PublishAccessInput{
		ActorRole: string(portal.RoleAdmin),
		Overrides: record,
	})
}

func (rt *runtime) printAccess(ctx context.Context, g *Globals) error {
	report := accessReport{
		Overrides:  rt.service.AccessOverrides(ctx),
		Restricted: map[portal.Role][]string{},
	}
	for _, role := range portal.Roles() {
		if ids := rt.service.RestrictedWidgetIDs(ctx, role); len(ids) > 0 {
			report.Restricted[role] = ids
		}
	}
	return g.printJSON(report)
}

func toRecord(overrides portal.AccessOverrides) map[string]map[string]bool {
	record := make(map[string]map[string]bool, len(overrides))
	for role, widgets := range overrides {
		inner := make(map[string]bool, len(widgets))
		for id, enabled := range widgets {
			inner[id] = enabled
		}
		record[string(role)] = inner
	}
	return record
}
