package server

import (
	"strconv"
	"time"

	"github.com/jrsteele09/graph-kpi-dashboard/directory"
	"github.com/jrsteele09/graph-kpi-dashboard/kpi"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const metricsNamespace = "kpi_dashboard"

// SessionCounter is the part of the session registry the metrics read.
type SessionCounter interface {
	Len() int
}

// Metrics holds the dashboard's Prometheus metrics. It observes the directory
// client and the KPI aggregator.
type Metrics struct {
	RequestsTotal       *prometheus.CounterVec
	RequestDuration     *prometheus.HistogramVec
	UpstreamRequests    *prometheus.CounterVec
	UpstreamDuration    *prometheus.HistogramVec
	Aggregations        *prometheus.CounterVec
	AggregationDuration *prometheus.HistogramVec
	MailboxFallbacks    prometheus.Counter
}

var (
	_ directory.Observer = (*Metrics)(nil)
	_ kpi.Recorder       = (*Metrics)(nil)
)

// NewMetrics creates and registers all metrics with the given registry. The
// active session gauge reads sessions on every scrape.
func NewMetrics(reg prometheus.Registerer, sessions SessionCounter) *Metrics {
	factory := promauto.With(reg)

	if sessions != nil {
		factory.NewGaugeFunc(
			prometheus.GaugeOpts{
				Namespace: metricsNamespace,
				Name:      "active_sessions",
				Help:      "Number of sessions in the registry",
			},
			func() float64 { return float64(sessions.Len()) },
		)
	}

	return &Metrics{
		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests served",
			},
			[]string{"route", "code"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		UpstreamRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "directory_requests_total",
				Help:      "Total directory API requests",
			},
			[]string{"operation", "status"}, // status=ok/error
		),
		UpstreamDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "directory_request_duration_seconds",
				Help:      "Directory API request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		Aggregations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "aggregations_total",
				Help:      "Total KPI aggregations",
			},
			[]string{"kind", "status"},
		),
		AggregationDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: metricsNamespace,
				Name:      "aggregation_duration_seconds",
				Help:      "KPI aggregation duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"kind"},
		),
		MailboxFallbacks: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: metricsNamespace,
				Name:      "mailbox_fallbacks_total",
				Help:      "Sent mail counts that failed and were counted as 0",
			},
		),
	}
}

func (m *Metrics) ObserveHTTPRequest(route string, code int, duration time.Duration) {
	if route == "" {
		route = "unmatched"
	}
	m.RequestsTotal.WithLabelValues(route, strconv.Itoa(code)).Inc()
	m.RequestDuration.WithLabelValues(route).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRequest(operation string, err error, duration time.Duration) {
	m.UpstreamRequests.WithLabelValues(operation, statusLabel(err)).Inc()
	m.UpstreamDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *Metrics) ObserveAggregation(kind string, err error, duration time.Duration) {
	m.Aggregations.WithLabelValues(kind, statusLabel(err)).Inc()
	m.AggregationDuration.WithLabelValues(kind).Observe(duration.Seconds())
}

func (m *Metrics) MailboxFallback() {
	m.MailboxFallbacks.Inc()
}

func statusLabel(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
