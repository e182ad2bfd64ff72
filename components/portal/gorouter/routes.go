package gorouter

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	router "github.com/goliatone/go-router"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/components/portal/commands"
	"github.com/goliatone/go-portal/components/portal/httpapi"
	"github.com/goliatone/go-portal/components/portal/queries"
)

// ViewerResolver converts a router.Context into a portal.ViewerContext.
type ViewerResolver func(router.Context) portal.ViewerContext

// Config wires go-router with the portal commands, queries, and hooks.
type Config[T any] struct {
	Router         router.Router[T]
	Handlers       *httpapi.Handlers
	Broadcast      *portal.BroadcastHook
	ViewerResolver ViewerResolver
	BasePath       string
	Routes         RouteConfig
}

// RouteConfig customizes the relative paths used for portal endpoints.
type RouteConfig struct {
	Dashboard    string
	Layout       string
	Reorder      string
	Widgets      string
	Resize       string
	Toggle       string
	Catalog      string
	Presets      string
	ApplyPreset  string
	DeletePreset string
	Access       string
	WebSocket    string
}

// Register mounts portal routes (JSON, REST, WebSocket) on a go-router router.
func Register[T any](cfg Config[T]) error {
	if cfg.Router == nil {
		return errors.New("gorouter: router is required")
	}
	if cfg.Handlers == nil {
		return errors.New("gorouter: handlers are required")
	}
	if err := requireHandlers(cfg.Handlers); err != nil {
		return err
	}
	routes := defaultRouteConfig(cfg.Routes)
	base := cfg.BasePath
	if base == "" {
		base = "/portal"
	}
	resolver := cfg.ViewerResolver
	if resolver == nil {
		resolver = defaultViewerResolver
	}
	h := cfg.Handlers
	group := cfg.Router.Group(base)

	group.Get(routes.Dashboard, router.WrapHandler(func(ctx router.Context) error {
		view, err := h.View.Query(ctx.Context(), queries.ViewInput{
			Viewer:  resolver(ctx),
			Editing: parseBool(ctx.Query("edit")),
		})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, view)
	}))

	group.Get(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		return respondLayout(ctx, h, http.StatusOK)
	}))

	group.Delete(routes.Layout, router.WrapHandler(func(ctx router.Context) error {
		if err := h.Reset.Execute(ctx.Context(), commands.ResetLayoutInput{Role: ctx.Param("role")}); err != nil {
			return respondError(ctx, err)
		}
		return respondLayout(ctx, h, http.StatusOK)
	}))

	group.Post(routes.Reorder, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ReorderWidgetsInput
		if err := decode(ctx, &payload); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		payload.Role = ctx.Param("role")
		if err := h.Reorder.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return respondLayout(ctx, h, http.StatusOK)
	}))

	group.Post(routes.Widgets, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.WidgetInput
		if err := decode(ctx, &payload); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		payload.Role = ctx.Param("role")
		if err := h.Add.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return respondLayout(ctx, h, http.StatusCreated)
	}))

	group.Post(routes.Resize, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.ResizeWidgetInput
		if err := decode(ctx, &payload); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		payload.Role, payload.WidgetID = ctx.Param("role"), ctx.Param("widget")
		if err := h.Resize.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return respondLayout(ctx, h, http.StatusOK)
	}))

	group.Post(routes.Toggle, router.WrapHandler(func(ctx router.Context) error {
		input := commands.WidgetInput{Role: ctx.Param("role"), WidgetID: ctx.Param("widget")}
		if err := h.Toggle.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return respondLayout(ctx, h, http.StatusOK)
	}))

	group.Get(routes.Catalog, router.WrapHandler(func(ctx router.Context) error {
		result, err := h.Catalog.Query(ctx.Context(), queries.LayoutInput{Role: ctx.Param("role")})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, result)
	}))

	group.Get(routes.Presets, router.WrapHandler(func(ctx router.Context) error {
		presets, err := h.Presets.Query(ctx.Context(), queries.LayoutInput{Role: ctx.Param("role")})
		if err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusOK, presets)
	}))

	group.Post(routes.Presets, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.SaveCustomPresetInput
		if err := decode(ctx, &payload); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		var preset portal.Preset
		payload.Role, payload.Result = ctx.Param("role"), &preset
		if err := h.SavePreset.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusCreated, preset)
	}))

	group.Post(routes.ApplyPreset, router.WrapHandler(func(ctx router.Context) error {
		input := commands.ApplyPresetInput{Role: ctx.Param("role"), PresetID: ctx.Param("preset")}
		if err := h.ApplyPreset.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return respondLayout(ctx, h, http.StatusOK)
	}))

	group.Delete(routes.DeletePreset, router.WrapHandler(func(ctx router.Context) error {
		input := commands.DeleteCustomPresetInput{Role: ctx.Param("role"), PresetID: ctx.Param("preset")}
		if err := h.DeletePreset.Execute(ctx.Context(), input); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusNoContent, map[string]string{"status": "deleted"})
	}))

	group.Post(routes.Access, router.WrapHandler(func(ctx router.Context) error {
		var payload commands.PublishAccessInput
		if err := decode(ctx, &payload); err != nil {
			return ctx.JSON(http.StatusBadRequest, map[string]string{"error": err.Error()})
		}
		payload.ActorRole = string(resolver(ctx).Role)
		if err := h.PublishAccess.Execute(ctx.Context(), payload); err != nil {
			return respondError(ctx, err)
		}
		return ctx.JSON(http.StatusAccepted, map[string]string{"status": "published"})
	}))

	if cfg.Broadcast != nil {
		registerWebSocket(group, cfg.Broadcast, routes.WebSocket)
	}
	return nil
}

func registerWebSocket[T any](r router.Router[T], hook *portal.BroadcastHook, path string) {
	cfg := router.DefaultWebSocketConfig()
	r.WebSocket(path, cfg, func(ws router.WebSocketContext) error {
		events, cancel := hook.Subscribe()
		defer cancel()
		for {
			select {
			case event, ok := <-events:
				if !ok {
					return nil
				}
				if err := ws.WriteJSON(event); err != nil {
					return err
				}
			case <-ws.Context().Done():
				return ws.Close()
			}
		}
	})
}

func requireHandlers(h *httpapi.Handlers) error {
	var missing []string
	check := func(name string, ok bool) {
		if !ok {
			missing = append(missing, name)
		}
	}
	check("reorder", h.Reorder != nil)
	check("resize", h.Resize != nil)
	check("toggle", h.Toggle != nil)
	check("add", h.Add != nil)
	check("reset", h.Reset != nil)
	check("apply_preset", h.ApplyPreset != nil)
	check("save_preset", h.SavePreset != nil)
	check("delete_preset", h.DeletePreset != nil)
	check("publish_access", h.PublishAccess != nil)
	check("layout", h.Layout != nil)
	check("presets", h.Presets != nil)
	check("catalog", h.Catalog != nil)
	check("view", h.View != nil)
	if len(missing) > 0 {
		return errors.New("gorouter: handlers missing " + strings.Join(missing, ", "))
	}
	return nil
}

func respondLayout(ctx router.Context, h *httpapi.Handlers, status int) error {
	layout, err := h.Layout.Query(ctx.Context(), queries.LayoutInput{Role: ctx.Param("role")})
	if err != nil {
		return respondError(ctx, err)
	}
	return ctx.JSON(status, layout)
}

func decode(ctx router.Context, out any) error {
	body := ctx.Body()
	if len(body) == 0 {
		return nil
	}
	return json.Unmarshal(body, out)
}

func defaultViewerResolver(ctx router.Context) portal.ViewerContext {
	var viewer portal.ViewerContext
	if v, ok := ctx.Locals("user_id").(string); ok {
		viewer.UserID = v
	}
	if v, ok := ctx.Locals("tenant_id").(string); ok {
		viewer.TenantID = v
	}
	if v, ok := ctx.Locals("role").(string); ok {
		viewer.Role = portal.Role(strings.ToLower(v))
	}
	viewer.Locale = inferLocale(ctx)
	return viewer
}

func inferLocale(ctx router.Context) string {
	if locale, ok := ctx.Locals("locale").(string); ok && locale != "" {
		return locale
	}
	if locale := strings.TrimSpace(ctx.Query("locale")); locale != "" {
		return strings.ToLower(locale)
	}
	if header := ctx.Header("Accept-Language"); header != "" {
		if lang := parseAcceptLanguage(header); lang != "" {
			return lang
		}
	}
	return ""
}

func parseAcceptLanguage(header string) string {
	for _, token := range strings.Split(header, ",") {
		token = strings.TrimSpace(token)
		if idx := strings.Index(token, ";"); idx >= 0 {
			token = token[:idx]
		}
		if token != "" {
			return strings.ToLower(token)
		}
	}
	return ""
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	}
	return false
}

func respondError(ctx router.Context, err error) error {
	return ctx.JSON(httpapi.StatusFor(err), map[string]string{"error": err.Error()})
}

func defaultRouteConfig(routes RouteConfig) RouteConfig {
	if routes.Dashboard == "" {
		routes.Dashboard = "/dashboard"
	}
	if routes.Layout == "" {
		routes.Layout = "/roles/:role/layout"
	}
	if routes.Reorder == "" {
		routes.Reorder = "/roles/:role/layout/reorder"
	}
	if routes.Widgets == "" {
		routes.Widgets = "/roles/:role/widgets"
	}
	if routes.Resize == "" {
		routes.Resize = "/roles/:role/widgets/:widget/resize"
	}
	if routes.Toggle == "" {
		routes.Toggle = "/roles/:role/widgets/:widget/toggle"
	}
	if routes.Catalog == "" {
		routes.Catalog = "/roles/:role/catalog"
	}
	if routes.Presets == "" {
		routes.Presets = "/roles/:role/presets"
	}
	if routes.ApplyPreset == "" {
		routes.ApplyPreset = "/roles/:role/presets/:preset/apply"
	}
	if routes.DeletePreset == "" {
		routes.DeletePreset = "/roles/:role/presets/:preset"
	}
	if routes.Access == "" {
		routes.Access = "/access"
	}
	if routes.WebSocket == "" {
		routes.WebSocket = "/ws"
	}
	return routes
}
