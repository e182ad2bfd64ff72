package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	gocommand "github.com/goliatone/go-command"
	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/components/portal/commands"
	"github.com/goliatone/go-portal/components/portal/queries"
)

// ViewerResolver extracts the resolved viewer from a request. Role resolution
// happens upstream; the resolver only reads what the auth layer attached.
type ViewerResolver func(r *http.Request) portal.ViewerContext

// Handlers exposes HTTP endpoints backed by shared commands and queries.
// Mutating handlers answer with the refreshed layout when Layout is set.
type Handlers struct {
	Reorder       gocommand.Commander[commands.ReorderWidgetsInput]
	Resize        gocommand.Commander[commands.ResizeWidgetInput]
	Toggle        gocommand.Commander[commands.WidgetInput]
	Add           gocommand.Commander[commands.WidgetInput]
	Reset         gocommand.Commander[commands.ResetLayoutInput]
	ApplyPreset   gocommand.Commander[commands.ApplyPresetInput]
	SavePreset    gocommand.Commander[commands.SaveCustomPresetInput]
	DeletePreset  gocommand.Commander[commands.DeleteCustomPresetInput]
	PublishAccess gocommand.Commander[commands.PublishAccessInput]

	Layout  gocommand.Querier[queries.LayoutInput, portal.Layout]
	Presets gocommand.Querier[queries.LayoutInput, []portal.Preset]
	Catalog gocommand.Querier[queries.LayoutInput, queries.CatalogResult]
	View    gocommand.Querier[queries.ViewInput, portal.DashboardView]

	Viewer ViewerResolver
}

func (h *Handlers) HandleLayout(w http.ResponseWriter, r *http.Request, role string) {
	h.respondLayout(w, r, role, http.StatusOK)
}

func (h *Handlers) HandleReorder(w http.ResponseWriter, r *http.Request, role string) {
	var payload commands.ReorderWidgetsInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Role = role
	if err := h.Reorder.Execute(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	h.respondLayout(w, r, role, http.StatusOK)
}

func (h *Handlers) HandleResize(w http.ResponseWriter, r *http.Request, role, widgetID string) {
	var payload commands.ResizeWidgetInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Role, payload.WidgetID = role, widgetID
	if err := h.Resize.Execute(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	h.respondLayout(w, r, role, http.StatusOK)
}

func (h *Handlers) HandleToggle(w http.ResponseWriter, r *http.Request, role, widgetID string) {
	if err := h.Toggle.Execute(r.Context(), commands.WidgetInput{Role: role, WidgetID: widgetID}); err != nil {
		respondError(w, err)
		return
	}
	h.respondLayout(w, r, role, http.StatusOK)
}

func (h *Handlers) HandleAddWidget(w http.ResponseWriter, r *http.Request, role string) {
	var payload commands.WidgetInput
	if !decode(w, r, &payload) {
		return
	}
	payload.Role = role
	if err := h.Add.Execute(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	h.respondLayout(w, r, role, http.StatusCreated)
}

func (h *Handlers) HandleReset(w http.ResponseWriter, r *http.Request, role string) {
	if err := h.Reset.Execute(r.Context(), commands.ResetLayoutInput{Role: role}); err != nil {
		respondError(w, err)
		return
	}
	h.respondLayout(w, r, role, http.StatusOK)
}

func (h *Handlers) HandlePresets(w http.ResponseWriter, r *http.Request, role string) {
	presets, err := h.Presets.Query(r.Context(), queries.LayoutInput{Role: role})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, presets)
}

func (h *Handlers) HandleApplyPreset(w http.ResponseWriter, r *http.Request, role, presetID string) {
	if err := h.ApplyPreset.Execute(r.Context(), commands.ApplyPresetInput{Role: role, PresetID: presetID}); err != nil {
		respondError(w, err)
		return
	}
	h.respondLayout(w, r, role, http.StatusOK)
}

func (h *Handlers) HandleSavePreset(w http.ResponseWriter, r *http.Request, role string) {
	var payload commands.SaveCustomPresetInput
	if !decode(w, r, &payload) {
		return
	}
	var preset portal.Preset
	payload.Role, payload.Result = role, &preset
	if err := h.SavePreset.Execute(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, preset)
}

func (h *Handlers) HandleDeletePreset(w http.ResponseWriter, r *http.Request, role, presetID string) {
	if err := h.DeletePreset.Execute(r.Context(), commands.DeleteCustomPresetInput{Role: role, PresetID: presetID}); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) HandleCatalog(w http.ResponseWriter, r *http.Request, role string) {
	result, err := h.Catalog.Query(r.Context(), queries.LayoutInput{Role: role})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}

// HandleDashboard renders the viewer's dashboard; ?edit=true includes hidden
// widgets flagged as dimmed.
func (h *Handlers) HandleDashboard(w http.ResponseWriter, r *http.Request) {
	input := queries.ViewInput{
		Viewer:  h.viewer(r),
		Editing: parseBool(r.URL.Query().Get("edit")),
	}
	view, err := h.View.Query(r.Context(), input)
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handlers) HandlePublishAccess(w http.ResponseWriter, r *http.Request) {
	var payload commands.PublishAccessInput
	if !decode(w, r, &payload) {
		return
	}
	payload.ActorRole = string(h.viewer(r).Role)
	if err := h.PublishAccess.Execute(r.Context(), payload); err != nil {
		respondError(w, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

func (h *Handlers) respondLayout(w http.ResponseWriter, r *http.Request, role string, status int) {
	if h.Layout == nil {
		w.WriteHeader(status)
		return
	}
	layout, err := h.Layout.Query(r.Context(), queries.LayoutInput{Role: role})
	if err != nil {
		respondError(w, err)
		return
	}
	writeJSON(w, status, layout)
}

func (h *Handlers) viewer(r *http.Request) portal.ViewerContext {
	if h.Viewer != nil {
		return h.Viewer(r)
	}
	return HeaderViewer(r)
}

// HeaderViewer reads the viewer from X-Portal-User, X-Portal-Role and the
// locale query or Accept-Language header.
func HeaderViewer(r *http.Request) portal.ViewerContext {
	viewer := portal.ViewerContext{
		UserID:   r.Header.Get("X-Portal-User"),
		TenantID: r.Header.Get("X-Portal-Tenant"),
		Role:     portal.Role(strings.ToLower(strings.TrimSpace(r.Header.Get("X-Portal-Role")))),
		Locale:   strings.ToLower(strings.TrimSpace(r.URL.Query().Get("locale"))),
	}
	if viewer.Locale == "" {
		viewer.Locale = parseAcceptLanguage(r.Header.Get("Accept-Language"))
	}
	return viewer
}

func parseAcceptLanguage(header string) string {
	for token := range strings.SplitSeq(header, ",") {
		token, _, _ = strings.Cut(strings.TrimSpace(token), ";")
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

func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if r.Body == nil || r.ContentLength == 0 {
		return true
	}
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return false
	}
	return true
}

// StatusFor maps portal errors onto HTTP status codes.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, portal.ErrUnknownRole),
		errors.Is(err, portal.ErrInvalidSize),
		errors.Is(err, portal.ErrPresetName):
		return http.StatusBadRequest
	case errors.Is(err, commands.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, portal.ErrNotEditing),
		errors.Is(err, portal.ErrDragInProgress),
		errors.Is(err, portal.ErrNoDrag):
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func respondError(w http.ResponseWriter, err error) {
	http.Error(w, err.Error(), StatusFor(err))
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
