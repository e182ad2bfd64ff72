package httpapi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/components/portal/commands"
	"github.com/goliatone/go-portal/components/portal/queries"
)

// NewHandlers wires every command and query against service.
func NewHandlers(service *portal.Service, telemetry commands.Telemetry) *Handlers {
	return &Handlers{
		Reorder:       commands.NewReorderWidgetsCommand(service, telemetry),
		Resize:        commands.NewResizeWidgetCommand(service, telemetry),
		Toggle:        commands.NewToggleWidgetCommand(service, telemetry),
		Add:           commands.NewAddWidgetCommand(service, telemetry),
		Reset:         commands.NewResetLayoutCommand(service, telemetry),
		ApplyPreset:   commands.NewApplyPresetCommand(service, telemetry),
		SavePreset:    commands.NewSaveCustomPresetCommand(service, telemetry),
		DeletePreset:  commands.NewDeleteCustomPresetCommand(service, telemetry),
		PublishAccess: commands.NewPublishAccessCommand(service, telemetry),
		Layout:        queries.NewLayoutQuery(service),
		Presets:       queries.NewPresetsQuery(service),
		Catalog:       queries.NewCatalogQuery(service),
		View:          queries.NewViewQuery(service),
	}
}

// Routes mounts the handlers on a chi router. Broadcast is optional and adds
// the /events (SSE) and /ws streams.
func Routes(h *Handlers, broadcast *portal.BroadcastHook) chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/dashboard", h.HandleDashboard)
	r.Post("/access", h.HandlePublishAccess)

	r.Route("/roles/{role}", func(r chi.Router) {
		r.Get("/layout", withRole(h.HandleLayout))
		r.Delete("/layout", withRole(h.HandleReset))
		r.Post("/layout/reorder", withRole(h.HandleReorder))
		r.Post("/widgets", withRole(h.HandleAddWidget))
		r.Post("/widgets/{widget}/resize", withRoleParam("widget", h.HandleResize))
		r.Post("/widgets/{widget}/toggle", withRoleParam("widget", h.HandleToggle))
		r.Get("/catalog", withRole(h.HandleCatalog))
		r.Get("/presets", withRole(h.HandlePresets))
		r.Post("/presets", withRole(h.HandleSavePreset))
		r.Post("/presets/{preset}/apply", withRoleParam("preset", h.HandleApplyPreset))
		r.Delete("/presets/{preset}", withRoleParam("preset", h.HandleDeletePreset))
	})

	if broadcast != nil {
		r.Get("/events", broadcast.ServeSSE)
		r.Get("/ws", broadcast.ServeWebSocket)
	}
	return r
}

func withRole(fn func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "role"))
	}
}

func withRoleParam(param string, fn func(http.ResponseWriter, *http.Request, string, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		fn(w, r, chi.URLParam(r, "role"), chi.URLParam(r, param))
	}
}
