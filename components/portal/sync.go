package portal

import (
	"context"
	"slices"
	"sync"

	"go.uber.org/zap"
)

// Sync keeps one viewer's dashboard consistent with the tenant override
// record. It listens for KV changes to the override key (other tabs,
// processes or instances) and for the in-process access signal. Any change
// re-derives the layout from persisted state through the new filter; local
// customizations survive except for widgets the admin just restricted.
type Sync struct {
	service   *Service
	viewer    ViewerContext
	onRefresh func(Layout)

	mu         sync.Mutex
	ctx        context.Context
	restricted []string
	layout     Layout
	unsubs     []func()
	refreshes  int
}

// NewSync builds a listener for viewer. onRefresh, when set, receives the
// recomputed layout after each refresh.
func (s *Service) NewSync(viewer ViewerContext, onRefresh func(Layout)) *Sync {
	return &Sync{service: s, viewer: viewer, onRefresh: onRefresh}
}

// Start subscribes and performs an initial refresh. Calling Start on a
// running listener is a no-op.
func (y *Sync) Start(ctx context.Context) {
	y.mu.Lock()
	if y.unsubs != nil {
		y.mu.Unlock()
		return
	}
	y.ctx = context.WithoutCancel(ctx)
	store := y.service.Store()
	y.unsubs = []func(){
		store.Subscribe(y.service.Keys().Access(), y.fire),
		y.service.Signals().On(AccessUpdatedSignal, y.fire),
	}
	y.mu.Unlock()
	y.Refresh(ctx)
}

// Stop drops the subscriptions. It is safe to call more than once.
func (y *Sync) Stop() {
	y.mu.Lock()
	unsubs := y.unsubs
	y.unsubs = nil
	y.mu.Unlock()
	for _, fn := range unsubs {
		fn()
	}
}

// Refresh reloads overrides, recomputes the restricted ids and re-derives the
// viewer's layout.
func (y *Sync) Refresh(ctx context.Context) {
	overrides := y.service.ReloadAccess(ctx)
	restricted := overrides.Restricted(y.viewer.Role)
	layout, err := y.service.Load(ctx, y.viewer.Role)
	if err != nil {
		y.service.Logger().Warn("sync layout reload failed",
			zap.String("role", string(y.viewer.Role)),
			zap.Error(err))
		return
	}

	y.mu.Lock()
	y.restricted = restricted
	y.layout = layout
	y.refreshes++
	y.mu.Unlock()

	y.service.notify(ctx, LayoutEvent{Role: y.viewer.Role, Reason: "access"})
	if y.onRefresh != nil {
		y.onRefresh(layout)
	}
}

// RestrictedWidgetIDs lists what the tenant hid from the viewer's role, for
// an informational banner.
func (y *Sync) RestrictedWidgetIDs() []string {
	y.mu.Lock()
	defer y.mu.Unlock()
	return slices.Clone(y.restricted)
}

// Layout returns the most recently derived layout.
func (y *Sync) Layout() Layout {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.layout.clone()
}

// Refreshes counts completed refreshes, including the initial one.
func (y *Sync) Refreshes() int {
	y.mu.Lock()
	defer y.mu.Unlock()
	return y.refreshes
}

func (y *Sync) fire() {
	y.mu.Lock()
	ctx := y.ctx
	running := y.unsubs != nil
	y.mu.Unlock()
	if !running || ctx == nil {
		return
	}
	y.Refresh(ctx)
}
