package metrics

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/goliatone/go-portal/components/portal"
)

func TestTelemetryCountsServiceEvents(t *testing.T) {
	tel := New(Config{})
	svc := portal.NewService(portal.Options{Telemetry: tel})
	defer svc.Close()
	ctx := context.Background()

	_, err := svc.Reorder(ctx, portal.RoleStaff, "payslip", "tasks")
	require.NoError(t, err)
	_, err = svc.Reorder(ctx, portal.RoleStaff, "missing", "tasks")
	require.NoError(t, err)
	layout, err := svc.Load(ctx, portal.RoleStaff)
	require.NoError(t, err)

	assert.Equal(t, 1.0, testutil.ToFloat64(tel.events.WithLabelValues("portal.layout.reorder", "staff")))
	assert.Equal(t, float64(len(layout.Widgets)), testutil.ToFloat64(tel.layoutWidgets.WithLabelValues("staff")))
}

func TestHandlerExposesMetrics(t *testing.T) {
	tel := New(Config{Namespace: "hr"})
	tel.Record(context.Background(), "portal.access.publish", nil)

	rec := httptest.NewRecorder()
	tel.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, strings.Contains(string(body), `hr_events_total{event="portal.access.publish",role=""} 1`), string(body))
}
