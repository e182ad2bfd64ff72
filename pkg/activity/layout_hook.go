package activity

import (
	"context"
	"time"

	"github.com/goliatone/go-portal/components/portal"
)

// LayoutHook turns portal layout events into activity events so layout edits,
// preset changes and access publishes show up in the audit trail.
type LayoutHook struct {
	Emitter *Emitter
	Now     func() time.Time
}

var _ portal.RefreshHook = (*LayoutHook)(nil)

// LayoutUpdated implements portal.RefreshHook.
func (h *LayoutHook) LayoutUpdated(ctx context.Context, event portal.LayoutEvent) error {
	if h == nil || !h.Emitter.Enabled() {
		return nil
	}
	evt := Event{
		Verb:           event.Reason,
		ObjectType:     "layout",
		ObjectID:       string(event.Role),
		DefinitionCode: "layout:" + event.Reason,
		Metadata:       map[string]any{},
	}
	if event.Role == "" {
		evt.ObjectType, evt.ObjectID = "access", "tenant"
	}
	if event.WidgetID != "" {
		evt.Metadata["widget_id"] = event.WidgetID
	}
	if event.PresetID != "" {
		evt.Metadata["preset_id"] = event.PresetID
	}
	if h.Now != nil {
		evt.OccurredAt = h.Now()
	}
	return h.Emitter.Emit(ctx, evt)
}
