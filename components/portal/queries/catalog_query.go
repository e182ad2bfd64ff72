package queries

import (
	"context"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal/components/portal"
)

// CatalogResult is what the "add widget" picker shows for a role.
type CatalogResult struct {
	Role       portal.Role         `json:"role"`
	Widgets    []portal.WidgetMeta `json:"widgets"`
	Restricted []string            `json:"restricted"`
}

type catalogService interface {
	WidgetsForRole(ctx context.Context, role portal.Role) []portal.WidgetMeta
	RestrictedWidgetIDs(ctx context.Context, role portal.Role) []string
}

// CatalogQuery resolves the widgets a role may place.
type CatalogQuery struct {
	service catalogService
}

// NewCatalogQuery builds the query.
func NewCatalogQuery(service catalogService) *CatalogQuery {
	return &CatalogQuery{service: service}
}

var _ gocommand.Querier[LayoutInput, CatalogResult] = (*CatalogQuery)(nil)

// Query applies both filter stages to the catalog.
func (q *CatalogQuery) Query(ctx context.Context, input LayoutInput) (CatalogResult, error) {
	role, err := portal.ParseRole(input.Role)
	if err != nil {
		return CatalogResult{}, err
	}
	restricted := q.service.RestrictedWidgetIDs(ctx, role)
	if restricted == nil {
		restricted = []string{}
	}
	return CatalogResult{
		Role:       role,
		Widgets:    q.service.WidgetsForRole(ctx, role),
		Restricted: restricted,
	}, nil
}
