package activity

import (
	"context"
	"testing"

	"github.com/goliatone/go-portal/components/portal"
)

type recordingHook struct {
	events []Event
}

func (h *recordingHook) Notify(_ context.Context, evt Event) error {
	h.events = append(h.events, evt)
	return nil
}

func TestEmitterDefaultsChannelAndEmits(t *testing.T) {
	hook := &recordingHook{}
	em := NewEmitter(Hooks{hook}, Config{Enabled: true})
	if !em.Enabled() {
		t.Fatalf("expected emitter enabled")
	}
	err := em.Emit(context.Background(), Event{
		Verb:       "verb",
		ObjectType: "object",
		ObjectID:   "id",
	})
	if err != nil {
		t.Fatalf("emit returned error: %v", err)
	}
	if len(hook.events) != 1 {
		t.Fatalf("expected event emitted, got %d", len(hook.events))
	}
	if hook.events[0].Channel != "portal" {
		t.Fatalf("expected default channel portal, got %q", hook.events[0].Channel)
	}
}

func TestEmitterDisabledWithoutHooks(t *testing.T) {
	em := NewEmitter(nil, Config{Enabled: true})
	if em.Enabled() {
		t.Fatalf("expected emitter disabled without hooks")
	}
}

func TestEmitterCarriesLayoutHookEventsOnCustomChannel(t *testing.T) {
	hook := &recordingHook{}
	layoutHook := &LayoutHook{Emitter: NewEmitter(Hooks{hook}, Config{Enabled: true, Channel: " hr-portal "})}
	ctx := context.Background()

	if err := layoutHook.LayoutUpdated(ctx, portal.LayoutEvent{Role: portal.RoleManager, Reason: "preset.apply", PresetID: "team-lead"}); err != nil {
		t.Fatalf("LayoutUpdated returned error: %v", err)
	}
	if len(hook.events) != 1 {
		t.Fatalf("expected one event, got %d", len(hook.events))
	}
	evt := hook.events[0]
	if evt.Channel != "hr-portal" {
		t.Fatalf("expected configured channel, got %q", evt.Channel)
	}
	if evt.DefinitionCode != "layout:preset.apply" || evt.ObjectID != "manager" || evt.Metadata["preset_id"] != "team-lead" {
		t.Fatalf("unexpected preset event %#v", evt)
	}
	if _, ok := evt.Metadata["widget_id"]; ok {
		t.Fatalf("preset event must not carry a widget id")
	}
}
