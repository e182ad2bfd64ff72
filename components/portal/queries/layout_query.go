package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal/components/portal"
)

// LayoutInput targets a role layout.
type LayoutInput struct {
	Role string `json:"role"`
}

type layoutService interface {
	Load(ctx context.Context, role portal.Role) (portal.Layout, error)
}

// LayoutQuery executes read-only layout resolution.
type LayoutQuery struct {
	service layoutService
}

// NewLayoutQuery builds the query.
func NewLayoutQuery(service layoutService) *LayoutQuery {
	return &LayoutQuery{service: service}
}

var _ gocommand.Querier[LayoutInput, portal.Layout] = (*LayoutQuery)(nil)

// Query resolves the layout for the role.
func (q *LayoutQuery) Query(ctx context.Context, input LayoutInput) (portal.Layout, error) {
	role, err := portal.ParseRole(input.Role)
	if err != nil {
		return portal.Layout{}, err
	}
	return q.service.Load(ctx, role)
}

type presetService interface {
	PresetsFor(ctx context.Context, role portal.Role) []portal.Preset
}

// PresetsQuery lists presets offered to a role.
type PresetsQuery struct {
	service presetService
}

// NewPresetsQuery builds the query.
func NewPresetsQuery(service presetService) *PresetsQuery {
	return &PresetsQuery{service: service}
}

var _ gocommand.Querier[LayoutInput, []portal.Preset] = (*PresetsQuery)(nil)

// Query returns built-in presets for the role followed by its custom presets.
func (q *PresetsQuery) Query(ctx context.Context, input LayoutInput) ([]portal.Preset, error) {
	role, err := portal.ParseRole(input.Role)
	if err != nil {
		return nil, err
	}
	return q.service.PresetsFor(ctx, role), nil
}
