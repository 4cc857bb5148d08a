package events

import (
	"github.com/sirupsen/logrus"

	"github.com/G-Research/scanload/internal/scanload/metrics"
)

// Sink receives scan events. Publish is called from the scan job's goroutine.
type Sink interface {
	Publish(e *ScanEvent)
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(e *ScanEvent)

func (f SinkFunc) Publish(e *ScanEvent) {
	f(e)
}

// MultiSink publishes every event to each of its sinks in order.
type MultiSink []Sink

func (m MultiSink) Publish(e *ScanEvent) {
	for _, sink := range m {
		sink.Publish(e)
	}
}

// LogSink logs events at the level matching their severity.
type LogSink struct {
	log *logrus.Entry
}

func NewLogSink(log *logrus.Entry) *LogSink {
	return &LogSink{log: log}
}

func (s *LogSink) Publish(e *ScanEvent) {
	log := s.log.WithFields(logrus.Fields{
		"event_id": e.EventId,
		"kind":     e.Kind,
		"node":     e.Node,
		"table":    e.Table,
	})
	switch e.Severity {
	case Error:
		log.Error(e.String())
	case Warning:
		log.Warn(e.String())
	default:
		log.Info(e.String())
	}
}

// MetricsSink records events as Prometheus metrics.
type MetricsSink struct {
	metrics *metrics.Metrics
}

func NewMetricsSink(m *metrics.Metrics) *MetricsSink {
	return &MetricsSink{metrics: m}
}

func (s *MetricsSink) Publish(e *ScanEvent) {
	if e.Skipped {
		s.metrics.RecordSkippedScan(string(e.Kind))
		return
	}
	s.metrics.RecordScan(string(e.Kind), e.Severity.String(), e.Duration, e.Rows)
}
