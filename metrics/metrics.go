// Package metrics exposes the Prometheus collectors this module updates,
// grounded in the teacher's observability/metrics Provider abstraction
// (fsvxavier-nexs-lib/observability/metrics) but wired directly to
// github.com/prometheus/client_golang rather than reproducing the
// multi-backend Provider/Counter/Gauge interfaces: this core only ever
// ships one metrics backend, so the extra indirection the teacher uses
// to support DataDog/NewRelic alongside Prometheus buys nothing here.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Registry bundles the collectors a ConnectionHandler and its
// collaborators update over the lifetime of a connection.
type Registry struct {
	ActiveConnections prometheus.Gauge
	ActiveSubscriptions prometheus.Gauge
	ActiveRoutes        prometheus.Gauge
	RouteEvictions      prometheus.Counter
	FramesIn            *prometheus.CounterVec
	FramesOut           *prometheus.CounterVec
	AcksByMode          *prometheus.CounterVec
	DieCount            *prometheus.CounterVec
}

// NewRegistry builds and registers the collectors against reg. Pass
// prometheus.NewRegistry() in tests to avoid polluting the default
// registry.
func NewRegistry(reg prometheus.Registerer) *Registry {
	r := &Registry{
		ActiveConnections: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stomp_connections_active",
			Help: "Number of currently open STOMP connections.",
		}),
		ActiveSubscriptions: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stomp_subscriptions_active",
			Help: "Number of currently bound subscriptions across all connections.",
		}),
		ActiveRoutes: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "stomp_producer_routes_active",
			Help: "Number of cached producer routes across all connections.",
		}),
		RouteEvictions: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "stomp_producer_route_evictions_total",
			Help: "Number of producer routes evicted from the LRU cache.",
		}),
		FramesIn: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stomp_frames_in_total",
			Help: "STOMP frames received from clients, by command.",
		}, []string{"command"}),
		FramesOut: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stomp_frames_out_total",
			Help: "STOMP frames sent to clients, by command.",
		}, []string{"command"}),
		AcksByMode: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stomp_acks_total",
			Help: "ACK and NACK frames processed, by ack mode (NACKs as <mode>:nack).",
		}, []string{"mode"}),
		DieCount: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "stomp_connection_die_total",
			Help: "Fatal connection teardowns, by ERROR frame message.",
		}, []string{"code"}),
	}

	for _, c := range []prometheus.Collector{
		r.ActiveConnections, r.ActiveSubscriptions, r.ActiveRoutes,
		r.RouteEvictions, r.FramesIn, r.FramesOut, r.AcksByMode, r.DieCount,
	} {
		reg.MustRegister(c)
	}
	return r
}

// Noop returns a Registry backed by a private registry, for components
// and tests that want metrics calls to be no-ops on shared state.
func Noop() *Registry {
	return NewRegistry(prometheus.NewRegistry())
}
