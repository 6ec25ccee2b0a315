// Package metrics exposes Prometheus collectors for session transitions,
// delegation outcomes, remote call latency and dev service traffic.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics groups the collectors. A nil *Metrics records nothing.
type Metrics struct {
	transitions *prometheus.CounterVec
	delegations *prometheus.CounterVec
	calls       *prometheus.HistogramVec
	state       *prometheus.GaugeVec
	requests    *prometheus.CounterVec
}

// New creates the collectors and registers them with reg (skipped when nil).
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tipjar",
			Subsystem: "session",
			Name:      "transitions_total",
			Help:      "Session transitions by resulting state and outcome.",
		}, []string{"state", "outcome"}),
		delegations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tipjar",
			Subsystem: "session",
			Name:      "delegations_total",
			Help:      "Delegation attempts by result.",
		}, []string{"result"}),
		calls: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "tipjar",
			Subsystem: "remote",
			Name:      "call_duration_seconds",
			Help:      "Remote call latency by operation and outcome.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"op", "outcome"}),
		state: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "tipjar",
			Subsystem: "session",
			Name:      "state",
			Help:      "1 for the active session state, 0 otherwise.",
		}, []string{"state"}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "tipjar",
			Subsystem: "devserver",
			Name:      "requests_total",
			Help:      "Requests served by the development service, by route and status code.",
		}, []string{"route", "code"}),
	}
	if reg != nil {
		for _, c := range []prometheus.Collector{m.transitions, m.delegations, m.calls, m.state, m.requests} {
			if err := reg.Register(c); err != nil {
				return nil, err
			}
		}
	}
	return m, nil
}

// Transition counts a state change attempt.
func (m *Metrics) Transition(state, outcome string) {
	if m == nil {
		return
	}
	m.transitions.WithLabelValues(state, outcome).Inc()
}

// Delegation counts a delegation result: accepted, new_user or rejected.
func (m *Metrics) Delegation(result string) {
	if m == nil {
		return
	}
	m.delegations.WithLabelValues(result).Inc()
}

// ActiveState marks state as the only active one among all.
func (m *Metrics) ActiveState(state string, all []string) {
	if m == nil {
		return
	}
	for _, s := range all {
		v := 0.0
		if s == state {
			v = 1
		}
		m.state.WithLabelValues(s).Set(v)
	}
}

// ObserveCall records one remote round trip.
func (m *Metrics) ObserveCall(op, outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.calls.WithLabelValues(op, outcome).Observe(d.Seconds())
}

// Request counts one request served by the development service.
func (m *Metrics) Request(route string, code int) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(route, strconv.Itoa(code)).Inc()
}
