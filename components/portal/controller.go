package portal

import (
	"context"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const viewFetchLimit = 8

// Controller holds one viewer's interaction state: the edit mode flag and the
// drag gesture. Only one controller per Service may be dragging at a time.
type Controller struct {
	service *Service
	viewer  ViewerContext

	mu      sync.Mutex
	editing bool
	source  string
	target  string
}

// DragState exposes the drag gesture for drop indicators.
type DragState struct {
	Active bool   `json:"active"`
	Source string `json:"source,omitempty"`
	Target string `json:"target,omitempty"`
}

// DashboardView is the render-ready dashboard for one viewer.
type DashboardView struct {
	Role         Role         `json:"role"`
	Editing      bool         `json:"editing"`
	ActivePreset *string      `json:"activePreset"`
	Widgets      []WidgetView `json:"widgets"`
	Restricted   []string     `json:"restricted,omitempty"`
	Drag         DragState    `json:"drag"`
}

// WidgetView is one rendered widget with its interaction flags and data.
type WidgetView struct {
	Instance   WidgetInstance `json:"instance"`
	Name       string         `json:"name"`
	Icon       string         `json:"icon,omitempty"`
	Category   Category       `json:"category"`
	Dimmed     bool           `json:"dimmed,omitempty"`
	Dragging   bool           `json:"dragging,omitempty"`
	DropTarget bool           `json:"dropTarget,omitempty"`
	Data       WidgetData     `json:"data,omitempty"`
	Error      string         `json:"error,omitempty"`
}

// NewController wires the service into a controller for viewer.
func (s *Service) NewController(viewer ViewerContext) *Controller {
	return &Controller{service: s, viewer: viewer}
}

// Viewer returns the viewer the controller renders for.
func (c *Controller) Viewer() ViewerContext { return c.viewer }

// Editing reports whether edit mode is on.
func (c *Controller) Editing() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.editing
}

// SetEditMode switches edit mode. Leaving edit mode cancels any drag.
func (c *Controller) SetEditMode(on bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.editing = on
	if !on {
		c.resetDragLocked()
	}
}

// ToggleEditMode flips edit mode and returns the new value.
func (c *Controller) ToggleEditMode() bool {
	c.mu.Lock()
	on := !c.editing
	c.mu.Unlock()
	c.SetEditMode(on)
	return on
}

// DragStart begins dragging widgetID.
func (c *Controller) DragStart(widgetID string) error {
	if widgetID == "" {
		return errInvalidWidgetID
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editing {
		return ErrNotEditing
	}
	if c.source != "" {
		return ErrDragInProgress
	}
	if !c.service.drag.acquire(c) {
		return ErrDragInProgress
	}
	c.source = widgetID
	c.target = ""
	return nil
}

// DragOver marks targetID as the hovered drop target. Hovering the source
// itself clears the target.
func (c *Controller) DragOver(targetID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == "" {
		return ErrNoDrag
	}
	if targetID == c.source {
		targetID = ""
	}
	c.target = targetID
	return nil
}

// DragLeave returns to dragging without a target.
func (c *Controller) DragLeave() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.source == "" {
		return ErrNoDrag
	}
	c.target = ""
	return nil
}

// Drop ends the gesture. With a target different from the source the layout
// is reordered; otherwise nothing is persisted.
func (c *Controller) Drop(ctx context.Context) (Layout, error) {
	c.mu.Lock()
	if c.source == "" {
		c.mu.Unlock()
		return Layout{}, ErrNoDrag
	}
	source, target := c.source, c.target
	c.resetDragLocked()
	c.mu.Unlock()

	if target == "" || target == source {
		return c.service.Load(ctx, c.viewer.Role)
	}
	return c.service.Reorder(ctx, c.viewer.Role, source, target)
}

// DragCancel abandons the gesture without persisting anything.
func (c *Controller) DragCancel() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.resetDragLocked()
}

// DragState returns the current gesture.
func (c *Controller) DragState() DragState {
	c.mu.Lock()
	defer c.mu.Unlock()
	return DragState{Active: c.source != "", Source: c.source, Target: c.target}
}

// Resize changes a widget's size from the edit-mode size picker.
func (c *Controller) Resize(ctx context.Context, widgetID string, size WidgetSize) (Layout, error) {
	if err := c.requireEditing(); err != nil {
		return Layout{}, err
	}
	return c.service.Resize(ctx, c.viewer.Role, widgetID, size)
}

// ToggleVisibility hides or re-shows a widget.
func (c *Controller) ToggleVisibility(ctx context.Context, widgetID string) (Layout, error) {
	if err := c.requireEditing(); err != nil {
		return Layout{}, err
	}
	return c.service.ToggleWidget(ctx, c.viewer.Role, widgetID)
}

// AddWidget places a widget from the picker.
func (c *Controller) AddWidget(ctx context.Context, widgetID string) (Layout, error) {
	if err := c.requireEditing(); err != nil {
		return Layout{}, err
	}
	return c.service.AddWidget(ctx, c.viewer.Role, widgetID)
}

// View renders the viewer's dashboard. Normal mode omits hidden widgets;
// edit mode keeps them, dimmed. Provider data is fetched concurrently and a
// failing provider only marks its own widget.
func (c *Controller) View(ctx context.Context) (DashboardView, error) {
	layout, err := c.service.Load(ctx, c.viewer.Role)
	if err != nil {
		return DashboardView{}, err
	}
	c.mu.Lock()
	editing := c.editing
	drag := DragState{Active: c.source != "", Source: c.source, Target: c.target}
	c.mu.Unlock()

	view := DashboardView{
		Role:         layout.Role,
		Editing:      editing,
		ActivePreset: layout.ActivePreset,
		Restricted:   c.service.RestrictedWidgetIDs(ctx, c.viewer.Role),
		Drag:         drag,
		Widgets:      make([]WidgetView, 0, len(layout.Widgets)),
	}
	for _, w := range layout.Widgets {
		if !w.Visible && !editing {
			continue
		}
		meta, _ := c.service.Catalog().Widget(w.ID)
		view.Widgets = append(view.Widgets, WidgetView{
			Instance:   w,
			Name:       meta.NameForLocale(c.viewer.Locale),
			Icon:       meta.Icon,
			Category:   meta.Category,
			Dimmed:     !w.Visible,
			Dragging:   drag.Source == w.ID,
			DropTarget: drag.Target == w.ID,
		})
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(viewFetchLimit)
	for i := range view.Widgets {
		if view.Widgets[i].Dimmed {
			continue
		}
		g.Go(func() error {
			wv := &view.Widgets[i]
			data, err := c.service.FetchWidget(gctx, c.viewer, wv.Instance)
			if err != nil {
				c.service.Logger().Warn("widget provider failed",
					zap.String("role", string(c.viewer.Role)),
					zap.String("widget_id", wv.Instance.ID),
					zap.Error(err))
				wv.Error = err.Error()
				return nil
			}
			wv.Data = data
			return nil
		})
	}
	_ = g.Wait()
	return view, nil
}

func (c *Controller) requireEditing() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.editing {
		return ErrNotEditing
	}
	return nil
}

func (c *Controller) resetDragLocked() {
	if c.source != "" {
		c.service.drag.release(c)
	}
	c.source = ""
	c.target = ""
}
