// Package metrics exposes Prometheus instruments for the trip and vehicle
// commands. A nil *Metrics is valid and records nothing.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics tracks lifecycle transitions, audit volume, and command latency.
type Metrics struct {
	Transitions       *prometheus.CounterVec
	ValidationFailure *prometheus.CounterVec
	AuditEntries      prometheus.Counter
	PrimaryChanges    prometheus.Counter
	CommandDuration   *prometheus.HistogramVec
	HTTPDuration      *prometheus.HistogramVec
	Subscribers       prometheus.GaugeFunc
}

// New registers every instrument with reg. subscribers, when non-nil, backs
// the live-subscription gauge.
func New(reg prometheus.Registerer, subscribers func() int) *Metrics {
	f := promauto.With(reg)
	m := &Metrics{
		Transitions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fahrtenbuch_trip_transitions_total",
			Help: "Trip lifecycle transitions by event",
		}, []string{"event"}),
		ValidationFailure: f.NewCounterVec(prometheus.CounterOpts{
			Name: "fahrtenbuch_validation_failures_total",
			Help: "Commands rejected by validation, by command",
		}, []string{"command"}),
		AuditEntries: f.NewCounter(prometheus.CounterOpts{
			Name: "fahrtenbuch_audit_entries_total",
			Help: "Audit rows appended for protected trips",
		}),
		PrimaryChanges: f.NewCounter(prometheus.CounterOpts{
			Name: "fahrtenbuch_primary_vehicle_changes_total",
			Help: "Times the primary vehicle was (re)assigned",
		}),
		CommandDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fahrtenbuch_command_duration_seconds",
			Help:    "Duration of store-backed commands",
			Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1},
		}, []string{"command"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "fahrtenbuch_http_request_duration_seconds",
			Help:    "HTTP request latency by method, route pattern and status",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}
	if subscribers != nil {
		m.Subscribers = f.NewGaugeFunc(prometheus.GaugeOpts{
			Name: "fahrtenbuch_live_subscriptions",
			Help: "Open change subscriptions",
		}, func() float64 { return float64(subscribers()) })
	}
	return m
}

// IncTransition records a successful lifecycle event.
func (m *Metrics) IncTransition(event string) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(event).Inc()
}

// IncValidationFailure records a command rejected by validation.
func (m *Metrics) IncValidationFailure(command string) {
	if m == nil {
		return
	}
	m.ValidationFailure.WithLabelValues(command).Inc()
}

// AddAuditEntries records n appended audit rows.
func (m *Metrics) AddAuditEntries(n int) {
	if m == nil || n == 0 {
		return
	}
	m.AuditEntries.Add(float64(n))
}

// IncPrimaryChange records a primary-vehicle assignment.
func (m *Metrics) IncPrimaryChange() {
	if m == nil {
		return
	}
	m.PrimaryChanges.Inc()
}

// ObserveCommand records the duration of command.
// Call with time.Now() at the start of the operation.
func (m *Metrics) ObserveCommand(command string, start time.Time) {
	if m == nil {
		return
	}
	m.CommandDuration.WithLabelValues(command).Observe(time.Since(start).Seconds())
}

// ObserveHTTP records one served request. route is the matched pattern, not
// the raw path, to keep label cardinality bounded.
func (m *Metrics) ObserveHTTP(method, route string, status int, start time.Time) {
	if m == nil {
		return
	}
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
}
