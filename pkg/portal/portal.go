package portal

import (
	core "github.com/goliatone/go-portal/components/portal"
)

// Service exposes the underlying components/portal.Service type.
type Service = core.Service

// Options re-export for convenience.
type Options = core.Options

// Role re-export for convenience.
type Role = core.Role

// Layout re-export for convenience.
type Layout = core.Layout

// NewService proxies to the internal constructor.
func NewService(opts Options) *Service {
	return core.NewService(opts)
}
