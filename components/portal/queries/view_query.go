package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal/components/portal"
)

// ViewInput requests a rendered dashboard for a viewer.
type ViewInput struct {
	Viewer  portal.ViewerContext
	Editing bool
}

type viewService interface {
	NewController(viewer portal.ViewerContext) *portal.Controller
}

// ViewQuery renders a stateless dashboard view. Drag state is never present
// because each query uses a fresh controller.
type ViewQuery struct {
	service viewService
}

// NewViewQuery builds the query.
func NewViewQuery(service viewService) *ViewQuery {
	return &ViewQuery{service: service}
}

var _ gocommand.Querier[ViewInput, portal.DashboardView] = (*ViewQuery)(nil)

// Query renders the dashboard for the viewer.
func (q *ViewQuery) Query(ctx context.Context, input ViewInput) (portal.DashboardView, error) {
	role, err := portal.ParseRole(string(input.Viewer.Role))
	if err != nil {
		return portal.DashboardView{}, err
	}
	viewer := input.Viewer
	viewer.Role = role
	controller := q.service.NewController(viewer)
	controller.SetEditMode(input.Editing)
	return controller.View(ctx)
}
