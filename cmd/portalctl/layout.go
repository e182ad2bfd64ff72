package main

import (
	"context"

	"github.com/goliatone/go-portal/components/portal/commands"
	"github.com/goliatone/go-portal/components/portal/queries"
)

type layoutCmd struct {
	Show    layoutShowCmd    `cmd:"" help:"Print the role's layout."`
	Reorder layoutReorderCmd `cmd:"" help:"Move a widget into another widget's position."`
	Resize  layoutResizeCmd  `cmd:"" help:"Change a widget's size."`
	Toggle  layoutToggleCmd  `cmd:"" help:"Hide or show a widget."`
	Add     layoutAddCmd     `cmd:"" help:"Place a catalog widget on the layout."`
	Reset   layoutResetCmd   `cmd:"" help:"Discard customizations and restore the role default."`
}

type layoutShowCmd struct {
	Role string `arg:"" help:"Role whose layout to print."`
}

func (c *layoutShowCmd) Run(ctx context.Context, g *Globals) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	return rt.printLayout(ctx, g, c.Role)
}

type layoutReorderCmd struct {
	Role   string `arg:""`
	Source string `arg:"" help:"Widget being moved."`
	Target string `arg:"" help:"Widget whose position it takes."`
}

func (c *layoutReorderCmd) Run(ctx context.Context, g *Globals) error {
	return runLayoutCommand(ctx, g, c.Role, func(rt *runtime) error {
		return commands.NewReorderWidgetsCommand(rt.service, nil).Execute(ctx, commands.ReorderWidgetsInput{
			Role:     c.Role,
			SourceID: c.Source,
			TargetID: c.Target,
		})
	})
}

type layoutResizeCmd struct {
	Role   string `arg:""`
	Widget string `arg:""`
	Size   string `arg:"" help:"small, medium, large or full."`
}

func (c *layoutResizeCmd) Run(ctx context.Context, g *Globals) error {
	return runLayoutCommand(ctx, g, c.Role, func(rt *runtime) error {
		return commands.NewResizeWidgetCommand(rt.service, nil).Execute(ctx, commands.ResizeWidgetInput{
			Role:     c.Role,
			WidgetID: c.Widget,
			Size:     c.Size,
		})
	})
}

type layoutToggleCmd struct {
	Role   string `arg:""`
	Widget string `arg:""`
}

func (c *layoutToggleCmd) Run(ctx context.Context, g *Globals) error {
	return runLayoutCommand(ctx, g, c.Role, func(rt *runtime) error {
		return commands.NewToggleWidgetCommand(rt.service, nil).Execute(ctx, commands.WidgetInput{Role: c.Role, WidgetID: c.Widget})
	})
}

type layoutAddCmd struct {
	Role   string `arg:""`
	Widget string `arg:""`
}

func (c *layoutAddCmd) Run(ctx context.Context, g *Globals) error {
	return runLayoutCommand(ctx, g, c.Role, func(rt *runtime) error {
		return commands.NewAddWidgetCommand(rt.service, nil).Execute(ctx, commands.WidgetInput{Role: c.Role, WidgetID: c.Widget})
	})
}

type layoutResetCmd struct {
	Role string `arg:""`
}

func (c *layoutResetCmd) Run(ctx context.Context, g *Globals) error {
	return runLayoutCommand(ctx, g, c.Role, func(rt *runtime) error {
		return commands.NewResetLayoutCommand(rt.service, nil).Execute(ctx, commands.ResetLayoutInput{Role: c.Role})
	})
}

func runLayoutCommand(ctx context.Context, g *Globals, role string, fn func(rt *runtime) error) error {
	rt, err := g.open(ctx, nil)
	if err != nil {
		return err
	}
	defer rt.Close()
	if err := fn(rt); err != nil {
		return err
	}
	return rt.printLayout(ctx, g, role)
}

func (rt *runtime) printLayout(ctx context.Context, g *Globals, role string) error {
	layout, err := queries.NewLayoutQuery(rt.service).Query(ctx, queries.LayoutInput{Role: role})
	if err != nil {
		return err
	}
	return g.printJSON(layout)
}
