package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const MetricPrefix = "scanload_"

type Metrics struct {
	scansCounter        *prometheus.CounterVec
	skippedScansCounter *prometheus.CounterVec
	rowsReadCounter     *prometheus.CounterVec
	scanDurationSeconds *prometheus.HistogramVec
	filterDurationTotal *prometheus.CounterVec
	filterScansCounter  *prometheus.CounterVec
}

// NewMetrics registers the scan-load metrics with reg.
func NewMetrics(prefix string, reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		scansCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "scans_total",
			Help: "Number of executed scans grouped by scan kind and outcome severity",
		}, []string{"kind", "severity"}),
		skippedScansCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "skipped_scans_total",
			Help: "Number of scan iterations skipped before a statement was executed",
		}, []string{"kind"}),
		rowsReadCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "rows_read_total",
			Help: "Number of rows read by scans grouped by scan kind",
		}, []string{"kind"}),
		scanDurationSeconds: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    prefix + "scan_duration_seconds",
			Help:    "Duration of executed scans grouped by scan kind",
			Buckets: prometheus.ExponentialBuckets(0.01, 4, 10),
		}, []string{"kind"}),
		filterScansCounter: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "reversed_query_scans_total",
			Help: "Number of reversed partition scans grouped by clustering key filter",
		}, []string{"filter"}),
		filterDurationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: prefix + "reversed_query_scan_seconds_total",
			Help: "Total duration of reversed partition scans grouped by clustering key filter",
		}, []string{"filter"}),
	}
}

func (m *Metrics) RecordScan(kind string, severity string, duration time.Duration, rows int64) {
	m.scansCounter.With(prometheus.Labels{"kind": kind, "severity": severity}).Inc()
	m.scanDurationSeconds.With(prometheus.Labels{"kind": kind}).Observe(duration.Seconds())
	m.rowsReadCounter.With(prometheus.Labels{"kind": kind}).Add(float64(rows))
}

func (m *Metrics) RecordSkippedScan(kind string) {
	m.skippedScansCounter.With(prometheus.Labels{"kind": kind}).Inc()
}

func (m *Metrics) RecordFilterScan(filter string, duration time.Duration) {
	m.filterScansCounter.With(prometheus.Labels{"filter": filter}).Inc()
	m.filterDurationTotal.With(prometheus.Labels{"filter": filter}).Add(duration.Seconds())
}
