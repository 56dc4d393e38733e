package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EventsReceived       prometheus.Counter
	EventsDropped        *prometheus.CounterVec
	DuplicateEvents      prometheus.Counter
	RepliesSent          *prometheus.CounterVec
	InteractiveFallbacks prometheus.Counter
	DeliveryFailures     prometheus.Counter
	Escalations          prometheus.Counter
	AdminCommands        *prometheus.CounterVec
	CollaboratorDuration *prometheus.HistogramVec
	SweepRemoved         *prometheus.CounterVec
	ActiveSessions       prometheus.Gauge
}

// Drop reason label values for EventsDropped.
const (
	DropUnparseable = "unparseable"
	DropMissingID   = "missing_id"
	DropMissingFrom = "missing_sender"
	DropEcho        = "echo"
	DropDuplicate   = "duplicate"
	DropClosedHours = "closed_hours"
	DropBlocked     = "blocked"
	DropHandoff     = "human_handoff"
	DropInactive    = "inactive"
	DropAdminChat   = "admin_chat"
)

func NewMetrics() *Metrics {
	return NewMetricsWith(prometheus.DefaultRegisterer)
}

// NewMetricsWith registers on a caller-owned registerer so tests can use
// isolated registries.
func NewMetricsWith(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		EventsReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "inbound_events_received_total",
			Help: "Total number of normalized inbound webhook events",
		}),
		EventsDropped: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "inbound_events_dropped_total",
			Help: "Total number of inbound events dropped before a reply, by reason",
		}, []string{"reason"}),
		DuplicateEvents: factory.NewCounter(prometheus.CounterOpts{
			Name: "duplicate_events_total",
			Help: "Total number of replayed event ids suppressed by the deduplicator",
		}),
		RepliesSent: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "replies_sent_total",
			Help: "Total number of outbound replies delivered, by kind",
		}, []string{"kind"}),
		InteractiveFallbacks: factory.NewCounter(prometheus.CounterOpts{
			Name: "interactive_fallbacks_total",
			Help: "Total number of interactive sends degraded to plain text",
		}),
		DeliveryFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "delivery_failures_total",
			Help: "Total number of replies lost after text fallback also failed",
		}),
		Escalations: factory.NewCounter(prometheus.CounterOpts{
			Name: "escalations_total",
			Help: "Total number of conversations handed off to a human",
		}),
		AdminCommands: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "admin_commands_total",
			Help: "Total number of admin console commands processed, by verb",
		}, []string{"verb"}),
		CollaboratorDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "collaborator_request_duration_seconds",
			Help:    "Time taken for catalog, generation, and outbound calls",
			Buckets: prometheus.DefBuckets,
		}, []string{"collaborator"}),
		SweepRemoved: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "sweep_removed_total",
			Help: "Total number of entries removed by maintenance sweeps, by store",
		}, []string{"store"}),
		ActiveSessions: factory.NewGauge(prometheus.GaugeOpts{
			Name: "active_sessions",
			Help: "Current number of tracked user sessions",
		}),
	}
}
