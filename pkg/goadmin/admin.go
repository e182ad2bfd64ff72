package goadmin

import (
	"context"
	"errors"

	"github.com/goliatone/go-portal/pkg/activity"
	portalpkg "github.com/goliatone/go-portal/pkg/portal"
)

// MenuBuilder ensures portal entries exist within the admin navigation.
type MenuBuilder interface {
	EnsureMenuItem(ctx context.Context, menuCode string, item MenuItem) error
}

// MenuItem captures portal link metadata.
type MenuItem struct {
	Label    string
	Route    string
	Icon     string
	Position int
}

// Config wires the portal service and feature flags into an admin shell.
type Config struct {
	EnablePortal    bool
	MenuCode        string
	MenuBuilder     MenuBuilder
	Service         *portalpkg.Service
	DefaultMenuItem MenuItem
	AccessMenuItem  MenuItem
	ActivityHooks   activity.Hooks
	ActivityConfig  activity.Config
}

// Admin exposes helpers for go-admin style applications.
type Admin struct {
	cfg     Config
	emitter *activity.Emitter
}

// New creates an Admin helper that can seed portal menus.
func New(cfg Config) (*Admin, error) {
	if cfg.EnablePortal && cfg.Service == nil {
		return nil, errors.New("goadmin: portal service is required when enabled")
	}
	if cfg.MenuCode == "" {
		cfg.MenuCode = "admin.main"
	}
	if cfg.DefaultMenuItem.Label == "" {
		cfg.DefaultMenuItem.Label = "Dashboard"
	}
	if cfg.DefaultMenuItem.Route == "" {
		cfg.DefaultMenuItem.Route = "portal.dashboard"
	}
	if cfg.DefaultMenuItem.Icon == "" {
		cfg.DefaultMenuItem.Icon = "home"
	}
	if cfg.AccessMenuItem.Label == "" {
		cfg.AccessMenuItem.Label = "Widget Access"
	}
	if cfg.AccessMenuItem.Route == "" {
		cfg.AccessMenuItem.Route = "portal.access"
	}
	if cfg.AccessMenuItem.Icon == "" {
		cfg.AccessMenuItem.Icon = "shield"
	}
	if cfg.AccessMenuItem.Position == 0 {
		cfg.AccessMenuItem.Position = cfg.DefaultMenuItem.Position + 1
	}
	return &Admin{cfg: cfg, emitter: activity.NewEmitter(cfg.ActivityHooks, cfg.ActivityConfig)}, nil
}

// Portal exposes the configured portal service when enabled.
func (a *Admin) Portal() *portalpkg.Service {
	if !a.cfg.EnablePortal {
		return nil
	}
	return a.cfg.Service
}

// LayoutHook returns a refresh hook that records layout changes as activity,
// or nil when activity is disabled.
func (a *Admin) LayoutHook() *activity.LayoutHook {
	if !a.emitter.Enabled() {
		return nil
	}
	return &activity.LayoutHook{Emitter: a.emitter}
}

// Bootstrap seeds the dashboard and widget access menu entries when portal
// support is enabled.
func (a *Admin) Bootstrap(ctx context.Context) error {
	if !a.cfg.EnablePortal || a.cfg.MenuBuilder == nil {
		return nil
	}
	if err := a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.DefaultMenuItem); err != nil {
		return err
	}
	return a.cfg.MenuBuilder.EnsureMenuItem(ctx, a.cfg.MenuCode, a.cfg.AccessMenuItem)
}
