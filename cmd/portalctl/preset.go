package main

import (
	"context"
	"fmt"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/components/portal/commands"
	"github.com/goliatone/go-portal/components/portal/queries"
)

type presetCmd struct {
	List   presetListCmd   `cmd:"" help:"List presets available to a role."`
	Apply  presetApplyCmd  `cmd:"" help:"Replace the role's layout with a preset."`
	Save   presetSaveCmd   `cmd:"" help:"Save the current layout as a custom preset."`
	Delete presetDeleteCmd `cmd:"" help:"Delete a custom preset."`
}

type presetListCmd struct {
	Role string `arg:""`
}

func (c *presetListCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	presets, err := queries.NewPresetsQuery(rt.service).Query(ctx, queries.LayoutInput{Role: c.Role})
	if err != nil {
		return err
	}
	return g.printJSON(presets)
}

type presetApplyCmd struct {
	Role   string `arg:""`
	Preset string `arg:"" help:"Preset id."`
}

func (c *presetApplyCmd) Run(ctx context.Context, g *Globals) error {
	return runLayoutCommand(ctx, g, c.Role, func(rt *runtime) error {
		return commands.NewApplyPresetCommand(rt.service, nil).Execute(ctx, commands.ApplyPresetInput{
			Role:     c.Role,
			PresetID: c.Preset,
		})
	})
}

type presetSaveCmd struct {
	Role        string `arg:""`
	Name        string `arg:"" help:"Preset name."`
	Description string `help:"Optional description."`
}

func (c *presetSaveCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	var saved portal.Preset
	if err := commands.NewSaveCustomPresetCommand(rt.service, nil).Execute(ctx, commands.SaveCustomPresetInput{
		Role:        c.Role,
		Name:        c.Name,
		Description: c.Description,
		Result:      &saved,
	}); err != nil {
		return err
	}
	return g.printJSON(saved)
}

type presetDeleteCmd struct {
	Role   string `arg:""`
	Preset string `arg:""`
}

func (c *presetDeleteCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := commands.NewDeleteCustomPresetCommand(rt.service, nil).Execute(ctx, commands.DeleteCustomPresetInput{
		Role:     c.Role,
		PresetID: c.Preset,
	}); err != nil {
		return err
	}
	fmt.Fprintf(g.stdout(), "deleted %s\n", c.Preset)
	return nil
}
