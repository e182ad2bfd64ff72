package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/goliatone/go-portal/components/portal"
	"github.com/goliatone/go-portal/components/portal/commands"
	"github.com/goliatone/go-portal/components/portal/queries"
)

type stubCommander[T any] struct {
	last  T
	calls int
	err   error
}

func (s *stubCommander[T]) Execute(ctx context.Context, msg T) error {
	s.last = msg
	s.calls++
	return s.err
}

type stubQuerier[T, R any] struct {
	last   T
	calls  int
	result R
	err    error
}

func (s *stubQuerier[T, R]) Query(ctx context.Context, msg T) (R, error) {
	s.last = msg
	s.calls++
	return s.result, s.err
}

func TestHandleReorder(t *testing.T) {
	reorder := &stubCommander[commands.ReorderWidgetsInput]{}
	layout := &stubQuerier[queries.LayoutInput, portal.Layout]{result: portal.Layout{Role: portal.RoleStaff}}
	api := &Handlers{Reorder: reorder, Layout: layout}
	buf, _ := json.Marshal(commands.ReorderWidgetsInput{SourceID: "payslip", TargetID: "tasks"})
	req := httptest.NewRequest(http.MethodPost, "/roles/staff/layout/reorder", bytes.NewReader(buf))
	rec := httptest.NewRecorder()
	api.HandleReorder(rec, req, "staff")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if reorder.last.Role != "staff" || reorder.last.SourceID != "payslip" {
		t.Fatalf("expected payload propagation, got %#v", reorder.last)
	}
	if layout.calls != 1 {
		t.Fatalf("expected layout to be re-read")
	}
	var out portal.Layout
	if err := json.Unmarshal(rec.Body.Bytes(), &out); err != nil || out.Role != portal.RoleStaff {
		t.Fatalf("expected layout body, got %s (%v)", rec.Body.String(), err)
	}
}

func TestHandleReorderBadJSON(t *testing.T) {
	reorder := &stubCommander[commands.ReorderWidgetsInput]{}
	api := &Handlers{Reorder: reorder}
	req := httptest.NewRequest(http.MethodPost, "/roles/staff/layout/reorder", bytes.NewBufferString("{"))
	rec := httptest.NewRecorder()
	api.HandleReorder(rec, req, "staff")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	if reorder.calls != 0 {
		t.Fatalf("command must not run on bad payload")
	}
}

func TestHandleAddWidgetWithoutLayoutQuery(t *testing.T) {
	add := &stubCommander[commands.WidgetInput]{}
	api := &Handlers{Add: add}
	req := httptest.NewRequest(http.MethodPost, "/roles/hr/widgets", bytes.NewBufferString(`{"widget_id":"headcount"}`))
	rec := httptest.NewRecorder()
	api.HandleAddWidget(rec, req, "hr")
	if rec.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rec.Code)
	}
	if add.last.WidgetID != "headcount" || add.last.Role != "hr" {
		t.Fatalf("expected widget id propagation, got %#v", add.last)
	}
}

func TestHandleDeletePreset(t *testing.T) {
	del := &stubCommander[commands.DeleteCustomPresetInput]{}
	api := &Handlers{DeletePreset: del}
	req := httptest.NewRequest(http.MethodDelete, "/roles/hr/presets/custom-1", nil)
	rec := httptest.NewRecorder()
	api.HandleDeletePreset(rec, req, "hr", "custom-1")
	if rec.Code != http.StatusNoContent {
		t.Fatalf("expected 204, got %d", rec.Code)
	}
	if del.last.PresetID != "custom-1" {
		t.Fatalf("expected preset id propagation")
	}
}

func TestHandlePublishAccessUsesViewerRole(t *testing.T) {
	publish := &stubCommander[commands.PublishAccessInput]{}
	api := &Handlers{PublishAccess: publish}
	req := httptest.NewRequest(http.MethodPost, "/access", bytes.NewBufferString(`{"overrides":{"finance":{"invoices":false}}}`))
	req.Header.Set("X-Portal-Role", "Admin")
	rec := httptest.NewRecorder()
	api.HandlePublishAccess(rec, req)
	if rec.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", rec.Code)
	}
	if publish.last.ActorRole != "admin" || publish.last.Overrides["finance"]["invoices"] {
		t.Fatalf("expected actor role and overrides, got %#v", publish.last)
	}
}

func TestStatusFor(t *testing.T) {
	cases := map[int]error{
		http.StatusBadRequest:          fmt.Errorf("wrap: %w", portal.ErrUnknownRole),
		http.StatusForbidden:           commands.ErrForbidden,
		http.StatusConflict:            portal.ErrNotEditing,
		http.StatusInternalServerError: errors.New("disk full"),
	}
	for want, err := range cases {
		if got := StatusFor(err); got != want {
			t.Fatalf("StatusFor(%v) = %d, want %d", err, got, want)
		}
	}
	if StatusFor(portal.ErrInvalidSize) != http.StatusBadRequest || StatusFor(portal.ErrPresetName) != http.StatusBadRequest {
		t.Fatalf("expected validation errors to map to 400")
	}
}

func TestHeaderViewer(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/dashboard", nil)
	req.Header.Set("X-Portal-User", "u1")
	req.Header.Set("X-Portal-Role", " HR ")
	req.Header.Set("Accept-Language", "pt-BR;q=0.9, en;q=0.8")
	viewer := HeaderViewer(req)
	if viewer.UserID != "u1" || viewer.Role != portal.RoleHR || viewer.Locale != "pt-br" {
		t.Fatalf("unexpected viewer %#v", viewer)
	}
	req = httptest.NewRequest(http.MethodGet, "/dashboard?locale=ES", nil)
	if got := HeaderViewer(req).Locale; got != "es" {
		t.Fatalf("expected query locale, got %q", got)
	}
}

func TestRoutesEndToEnd(t *testing.T) {
	svc := portal.NewService(portal.Options{})
	defer svc.Close()
	server := httptest.NewServer(Routes(NewHandlers(svc, nil), nil))
	defer server.Close()

	do := func(method, path, body string, headers ...string) *http.Response {
		t.Helper()
		req, err := http.NewRequest(method, server.URL+path, bytes.NewBufferString(body))
		if err != nil {
			t.Fatalf("new request: %v", err)
		}
		for i := 0; i+1 < len(headers); i += 2 {
			req.Header.Set(headers[i], headers[i+1])
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatalf("%s %s: %v", method, path, err)
		}
		t.Cleanup(func() { resp.Body.Close() })
		return resp
	}

	resp := do(http.MethodPost, "/roles/staff/layout/reorder", `{"source_id":"payslip","target_id":"tasks"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("reorder: expected 200, got %d", resp.StatusCode)
	}
	var layout portal.Layout
	if err := json.NewDecoder(resp.Body).Decode(&layout); err != nil {
		t.Fatalf("decode layout: %v", err)
	}
	if _, idx, _ := layout.Widget("payslip"); idx != 4 {
		t.Fatalf("expected payslip at 4, got %d", idx)
	}

	if resp := do(http.MethodPost, "/roles/staff/widgets/tasks/resize", `{"size":"giant"}`); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("resize: expected 400, got %d", resp.StatusCode)
	}
	if resp := do(http.MethodGet, "/roles/guest/layout", ""); resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("unknown role: expected 400, got %d", resp.StatusCode)
	}
	if resp := do(http.MethodPost, "/access", `{"overrides":{}}`, "X-Portal-Role", "staff"); resp.StatusCode != http.StatusForbidden {
		t.Fatalf("access: expected 403, got %d", resp.StatusCode)
	}

	resp = do(http.MethodPost, "/roles/staff/presets", `{"name":"Focus"}`)
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("save preset: expected 201, got %d", resp.StatusCode)
	}
	var preset portal.Preset
	if err := json.NewDecoder(resp.Body).Decode(&preset); err != nil || !preset.IsCustom {
		t.Fatalf("expected custom preset, got %#v (%v)", preset, err)
	}
	if resp := do(http.MethodDelete, "/roles/staff/presets/"+preset.ID, ""); resp.StatusCode != http.StatusNoContent {
		t.Fatalf("delete preset: expected 204, got %d", resp.StatusCode)
	}

	resp = do(http.MethodGet, "/dashboard?edit=1", "", "X-Portal-Role", "staff")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("dashboard: expected 200, got %d", resp.StatusCode)
	}
	var view portal.DashboardView
	if err := json.NewDecoder(resp.Body).Decode(&view); err != nil {
		t.Fatalf("decode view: %v", err)
	}
	if !view.Editing || view.Role != portal.RoleStaff || len(view.Widgets) == 0 {
		t.Fatalf("unexpected view %#v", view)
	}
}
