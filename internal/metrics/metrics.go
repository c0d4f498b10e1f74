// Package metrics provides the Prometheus instruments for the alert
// subsystem. All methods are safe to call on a nil *Metrics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "mission"

// Poll outcomes.
const (
	PollOK     = "ok"
	PollFailed = "failed"
	PollStale  = "stale"
)

// Report outcomes.
const (
	ReportSubmitted = "submitted"
	ReportFailed    = "failed"
	ReportDuplicate = "duplicate"
)

// Metrics holds all instruments on a dedicated registry.
type Metrics struct {
	Registry *prometheus.Registry

	PollsTotal          *prometheus.CounterVec
	PollDuration        prometheus.Histogram
	PollTicksSkipped    prometheus.Counter
	AlertsActive        *prometheus.GaugeVec
	ReportsTotal        *prometheus.CounterVec
	IntakeRecordsTotal  *prometheus.CounterVec
	JournalDroppedTotal prometheus.CounterFunc
}

// New creates a Metrics instance with its own registry. The Go runtime and
// process collectors are registered alongside.
func New() *Metrics {
	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(registry)

	return &Metrics{
		Registry: registry,

		PollsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "polls_total",
				Help:      "Total number of global state polls by outcome",
			},
			[]string{"outcome"},
		),
		PollDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "poll_duration_seconds",
				Help:      "Global state poll duration in seconds",
				Buckets:   []float64{.01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
		),
		PollTicksSkipped: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "poll_ticks_skipped_total",
				Help:      "Scheduler ticks skipped because a poll was still in flight",
			},
		),
		AlertsActive: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "alerts_active",
				Help:      "Alerts in the ranked display list by severity",
			},
			[]string{"severity"},
		),
		ReportsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "reports_total",
				Help:      "Immediate events by outcome",
			},
			[]string{"outcome"},
		),
		IntakeRecordsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "intake_records_total",
				Help:      "OTLP log records received by transport",
			},
			[]string{"transport"},
		),
	}
}

// ObservePoll records one completed poll.
func (m *Metrics) ObservePoll(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.PollsTotal.WithLabelValues(outcome).Inc()
	m.PollDuration.Observe(d.Seconds())
}

func (m *Metrics) TickSkipped() {
	if m == nil {
		return
	}
	m.PollTicksSkipped.Inc()
}

// SetActive replaces the per-severity gauge values.
func (m *Metrics) SetActive(counts map[string]int) {
	if m == nil {
		return
	}
	for _, sev := range []string{"critical", "warning", "normal"} {
		m.AlertsActive.WithLabelValues(sev).Set(float64(counts[sev]))
	}
}

func (m *Metrics) Report(outcome string) {
	if m == nil {
		return
	}
	m.ReportsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) Intake(transport string, n int) {
	if m == nil || n <= 0 {
		return
	}
	m.IntakeRecordsTotal.WithLabelValues(transport).Add(float64(n))
}

// TrackDropped exposes a dropped-writes counter owned elsewhere.
func (m *Metrics) TrackDropped(fn func() int64) {
	if m == nil || fn == nil || m.JournalDroppedTotal != nil {
		return
	}
	m.JournalDroppedTotal = promauto.With(m.Registry).NewCounterFunc(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "journal_dropped_writes_total",
			Help:      "Journal writes dropped because the write buffer was full",
		},
		func() float64 { return float64(fn()) },
	)
}

// Handler returns the HTTP handler serving this registry.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{Registry: m.Registry})
}
