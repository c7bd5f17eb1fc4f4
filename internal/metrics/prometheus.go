package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Registry holds all swarmctl metrics.
type Registry struct {
	gatherer prometheus.Gatherer

	// Inbound
	FramesTotal     *prometheus.CounterVec
	FramesDiscarded *prometheus.CounterVec
	ConsumerFaults  *prometheus.CounterVec
	UpdateRate      prometheus.Gauge
	Agents          prometheus.Gauge

	// Outbound
	IntentsSent      *prometheus.CounterVec
	IntentsDropped   *prometheus.CounterVec
	ValidationFaults *prometheus.CounterVec
	Coalesced        *prometheus.CounterVec

	// Session
	Connected         prometheus.Gauge
	ReconnectAttempts prometheus.Counter
	GaveUp            prometheus.Counter
}

// NewRegistry registers the swarmctl collectors with reg.
func NewRegistry(reg *prometheus.Registry) *Registry {
	f := promauto.With(reg)
	r := &Registry{gatherer: reg}

	r.FramesTotal = f.NewCounterVec(prometheus.CounterOpts{
		Name: "swarmctl_frames_total",
		Help: "Inbound frames accepted by the router, by message type",
	}, []string{"type"})

	r.FramesDiscarded = f.NewCounterVec(prometheus.CounterOpts{
		Name: "swarmctl_frames_discarded_total",
		Help: "Inbound frames discarded as malformed",
	}, []string{"type"})

	r.ConsumerFaults = f.NewCounterVec(prometheus.CounterOpts{
		Name: "swarmctl_consumer_faults_total",
		Help: "Subscriber invocations that returned an error or panicked",
	}, []string{"type"})

	r.UpdateRate = f.NewGauge(prometheus.GaugeOpts{
		Name: "swarmctl_state_updates_per_second",
		Help: "State update rate measured every 100 updates",
	})

	r.Agents = f.NewGauge(prometheus.GaugeOpts{
		Name: "swarmctl_agents",
		Help: "Agents in the most recent state update",
	})

	r.IntentsSent = f.NewCounterVec(prometheus.CounterOpts{
		Name: "swarmctl_intents_sent_total",
		Help: "Outbound intents written to the socket",
	}, []string{"type"})

	r.IntentsDropped = f.NewCounterVec(prometheus.CounterOpts{
		Name: "swarmctl_intents_dropped_total",
		Help: "Outbound intents dropped because the session was not open",
	}, []string{"type"})

	r.ValidationFaults = f.NewCounterVec(prometheus.CounterOpts{
		Name: "swarmctl_validation_faults_total",
		Help: "Parameter or action values rejected before sending",
	}, []string{"name"})

	r.Coalesced = f.NewCounterVec(prometheus.CounterOpts{
		Name: "swarmctl_parameter_changes_coalesced_total",
		Help: "Debounced parameter changes superseded by a later value",
	}, []string{"name"})

	r.Connected = f.NewGauge(prometheus.GaugeOpts{
		Name: "swarmctl_session_connected",
		Help: "1 when the session socket is open",
	})

	r.ReconnectAttempts = f.NewCounter(prometheus.CounterOpts{
		Name: "swarmctl_reconnect_attempts_total",
		Help: "Reconnect attempts scheduled after a disconnect",
	})

	r.GaveUp = f.NewCounter(prometheus.CounterOpts{
		Name: "swarmctl_session_gave_up_total",
		Help: "Times the session exhausted its retry budget",
	})

	return r
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(r.gatherer, promhttp.HandlerOpts{})
}
