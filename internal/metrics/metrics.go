package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all eventsvc metrics
const namespace = "eventsvc"

// Registry is the Prometheus registry served at /metrics
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// AppInfo exposes the running version as a label (always 1)
var AppInfo = promauto.With(Registry).NewGaugeVec(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "app_info",
		Help:      "Application version information (always set to 1, version info in labels)",
	},
	[]string{"version", "environment"},
)

// EventsCreated counts events that were stored and published
var EventsCreated = promauto.With(Registry).NewCounter(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_created_total",
		Help:      "Total number of events successfully created",
	},
)

// EventFailures counts failed event creations by the stage that failed
var EventFailures = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "event_failures_total",
		Help:      "Total number of failed event creations",
	},
	[]string{"stage"}, // stage: store|publish
)

// LogForwardFailures counts records the log sink did not accept
var LogForwardFailures = promauto.With(Registry).NewCounterVec(
	prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "log_forward_failures_total",
		Help:      "Total number of records that could not be delivered to the log sink",
	},
	[]string{"type"},
)

// DatabaseUp is 1 when the last health probe reached the database, else 0
var DatabaseUp = promauto.With(Registry).NewGauge(
	prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "database_up",
		Help:      "Whether the last database liveness probe succeeded (1) or not (0)",
	},
)
