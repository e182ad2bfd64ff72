package portal

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"
)

// Provider fetches data required to render a widget instance.
type Provider interface {
	Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error)
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, meta WidgetContext) (WidgetData, error)

// Fetch calls f.
func (f ProviderFunc) Fetch(ctx context.Context, meta WidgetContext) (WidgetData, error) {
	return f(ctx, meta)
}

// WidgetContext contains the metadata needed by providers.
type WidgetContext struct {
	Instance WidgetInstance
	Meta     WidgetMeta
	Viewer   ViewerContext
}

// WidgetData is an opaque payload handed to the view layer.
type WidgetData map[string]any

// Providers maps widget ids to the provider rendering them. It replaces a
// closed id switch: Check reports catalog entries without a provider so
// missing wiring fails at startup rather than at render time.
type Providers struct {
	mu        sync.RWMutex
	providers map[string]Provider
}

// NewProviders returns a registry seeded with the demo providers.
func NewProviders() *Providers {
	p := NewEmptyProviders()
	for id, provider := range defaultProviders() {
		p.providers[id] = provider
	}
	return p
}

// NewEmptyProviders returns a registry with no providers.
func NewEmptyProviders() *Providers {
	return &Providers{providers: map[string]Provider{}}
}

// Register associates a provider with a widget id.
func (p *Providers) Register(id string, provider Provider) error {
	if id == "" {
		return errInvalidWidgetID
	}
	if provider == nil {
		return fmt.Errorf("portal: provider for %s cannot be nil", id)
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.providers[id] = provider
	return nil
}

// Provider fetches the provider registered for id.
func (p *Providers) Provider(id string) (Provider, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	provider, ok := p.providers[id]
	return provider, ok
}

// Check returns an error listing catalog widgets with no provider.
func (p *Providers) Check(catalog *Catalog) error {
	p.mu.RLock()
	defer p.mu.RUnlock()
	var missing []string
	for _, meta := range catalog.Widgets() {
		if _, ok := p.providers[meta.ID]; !ok {
			missing = append(missing, meta.ID)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return fmt.Errorf("portal: widgets without provider: %v", missing)
}

func staticProvider(data func(WidgetContext) WidgetData) Provider {
	return ProviderFunc(func(ctx context.Context, meta WidgetContext) (WidgetData, error) {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		out := data(meta)
		if out == nil {
			out = WidgetData{}
		}
		out["title"] = meta.Meta.NameForLocale(meta.Viewer.Locale)
		return out, nil
	})
}

func defaultProviders() map[string]Provider {
	today := func() string { return time.Now().UTC().Format(time.DateOnly) }
	return map[string]Provider{
		"quick-stats": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"stats": map[string]int{"open_tasks": 7, "meetings_today": 3, "leave_days": 12}}
		}),
		"announcements": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"items": []map[string]any{
				{"title": "Office closed on Friday", "date": today()},
				{"title": "Benefits enrollment opens", "date": today()},
			}}
		}),
		"quick-actions": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"actions": []map[string]any{
				{"label": "Request leave", "route": "/portal/leave/new", "icon": "sun"},
				{"label": "Submit expense", "route": "/portal/expenses/new", "icon": "receipt"},
			}}
		}),
		"meetings": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"items": []map[string]any{
				{"title": "Standup", "at": "09:30"},
				{"title": "1:1", "at": "14:00"},
			}}
		}),
		"attendance": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"status": "clocked-in", "week_hours": 32.5}
		}),
		"leave-balance": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"annual": 12, "sick": 5, "personal": 2}
		}),
		"payslip": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"net": 4820.55, "currency": "USD", "period": today()}
		}),
		"tasks": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"open": 7, "overdue": 1}
		}),
		"projects": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"items": []string{"Portal redesign", "Payroll migration"}}
		}),
		"expense-claims": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"pending": 2, "approved": 5}
		}),
		"headcount": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"total": 214, "by_department": map[string]int{"engineering": 88, "sales": 47, "operations": 79}}
		}),
		"leave-requests": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"pending": 4}
		}),
		"recruitment": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"open_roles": 6, "candidates": 41}
		}),
		"employee-directory": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"search_route": "/portal/people"}
		}),
		"onboarding": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"new_hires": 3, "completion": 0.66}
		}),
		"team-overview": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"reports": 8, "out_today": 1}
		}),
		"team-attendance": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"office": 5, "remote": 2, "leave": 1}
		}),
		"performance-reviews": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"cycle": "H2", "completed": 5, "total": 8}
		}),
		"system-health": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"checks": []map[string]any{
				{"name": "Payroll sync", "status": "ok"},
				{"name": "Directory sync", "status": "warning"},
			}}
		}),
		"audit-log": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"items": []map[string]any{
				{"actor": "admin", "action": "updated widget access"},
			}}
		}),
		"invoices": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"outstanding": 17, "overdue": 3}
		}),
		"payroll-summary": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"gross": 912000, "deadline": today()}
		}),
		"budget": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"spent": 0.58}
		}),
		"expense-approvals": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"waiting": 6}
		}),
		"cash-flow": staticProvider(func(WidgetContext) WidgetData {
			return WidgetData{"inflow": 1.2e6, "outflow": 0.9e6, "days": 90}
		}),
	}
}
