package metrics

import (
	"context"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Telemetry records portal events as Prometheus series. It satisfies both
// portal.Telemetry and commands.Telemetry.
type Telemetry struct {
	events        *prometheus.CounterVec
	layoutWidgets *prometheus.GaugeVec
	gatherer      prometheus.Gatherer
}

// Config controls where metrics are registered.
type Config struct {
	Namespace string
	Registry  *prometheus.Registry
}

// New registers the portal metrics. A nil Registry uses a fresh one so tests
// and multiple services never collide on the default registerer.
func New(cfg Config) *Telemetry {
	if cfg.Namespace == "" {
		cfg.Namespace = "portal"
	}
	if cfg.Registry == nil {
		cfg.Registry = prometheus.NewRegistry()
	}
	factory := promauto.With(cfg.Registry)
	return &Telemetry{
		events: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: cfg.Namespace,
				Name:      "events_total",
				Help:      "Total number of portal events by name and role",
			},
			[]string{"event", "role"},
		),
		layoutWidgets: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: cfg.Namespace,
				Subsystem: "layout",
				Name:      "widgets",
				Help:      "Widgets on the most recently loaded layout per role",
			},
			[]string{"role"},
		),
		gatherer: cfg.Registry,
	}
}

// Record implements the telemetry interfaces.
func (t *Telemetry) Record(_ context.Context, event string, payload map[string]any) {
	role, _ := payload["role"].(string)
	t.events.WithLabelValues(event, role).Inc()
	if widgets, ok := payload["widgets"].(int); ok && role != "" {
		t.layoutWidgets.WithLabelValues(role).Set(float64(widgets))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (t *Telemetry) Handler() http.Handler {
	return promhttp.HandlerFor(t.gatherer, promhttp.HandlerOpts{})
}
