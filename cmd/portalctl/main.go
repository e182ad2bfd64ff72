package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/alecthomas/kong"
)

type cli struct {
	Globals

	Layout   layoutCmd   `cmd:"" help:"Inspect and edit per-role layouts."`
	Preset   presetCmd   `cmd:"" help:"List, apply, save and delete presets."`
	Access   accessCmd   `cmd:"" help:"Show or change tenant widget access."`
	Scaffold scaffoldCmd `cmd:"" help:"Add a widget entry to a portal manifest."`
	Serve    serveCmd    `cmd:"" help:"Run the portal HTTP API."`
}

func main() {
	var c cli
	ctx := context.Background()
	kctx := kong.Parse(&c,
		kong.Name("portalctl"),
		kong.Description("Operate go-portal layouts, presets and widget access."),
		kong.UsageOnError(),
		kong.BindTo(ctx, (*context.Context)(nil)),
	)
	err := kctx.Run(&c.Globals)
	kctx.FatalIfErrorf(err)
}

// Globals are flags shared by every command. Flags win over the config file.
type Globals struct {
	Config      string `type:"path" env:"PORTAL_CONFIG" help:"YAML config file."`
	Backend     string `env:"PORTAL_BACKEND" help:"KV backend: memory, file, redis or postgres."`
	Dir         string `type:"path" help:"Directory for the file backend."`
	RedisAddr   string `name:"redis-addr" env:"PORTAL_REDIS_ADDR" help:"Redis address for the redis backend."`
	PostgresURL string `name:"postgres-url" env:"PORTAL_POSTGRES_URL" help:"Connection URL for the postgres backend."`
	Manifest    string `type:"path" help:"Manifest extending the widget catalog and presets."`
	KeyPrefix   string `name:"key-prefix" help:"Prefix applied to every KV key."`
	Debug       bool   `help:"Enable development logging."`

	out io.Writer `kong:"-"`
}

func (g *Globals) stdout() io.Writer {
	if g.out == nil {
		return os.Stdout
	}
	return g.out
}

func (g *Globals) printJSON(v any) error {
	encoder := json.NewEncoder(g.stdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(v); err != nil {
		return fmt.Errorf("portalctl: encode output: %w", err)
	}
	return nil
}
