package helper

import (
	"maps"
	"sync"
	"time"
)

type metricKind int

const (
	kindDuration metricKind = iota
	kindCounter
	kindValue
)

// MetricRecord is one captured MetricsCollector call.
// Value holds the recorded value, the duration in seconds, or 1 for a counter increment.
type MetricRecord struct {
	Metric string
	Value  float64
	Labels map[string]string
	kind   metricKind
}

// MetricsCollectorSpy is a lazyframe.MetricsCollector that captures every call.
type MetricsCollectorSpy struct {
	mu      sync.Mutex
	records []MetricRecord
}

func NewMetricsCollectorSpy() *MetricsCollectorSpy {
	return &MetricsCollectorSpy{}
}

func (s *MetricsCollectorSpy) RecordDuration(metric string, duration time.Duration, labels map[string]string) {
	s.add(kindDuration, metric, duration.Seconds(), labels)
}

func (s *MetricsCollectorSpy) IncrementCounter(metric string, labels map[string]string) {
	s.add(kindCounter, metric, 1, labels)
}

func (s *MetricsCollectorSpy) RecordValue(metric string, value float64, labels map[string]string) {
	s.add(kindValue, metric, value, labels)
}

func (s *MetricsCollectorSpy) add(kind metricKind, metric string, value float64, labels map[string]string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = append(s.records, MetricRecord{Metric: metric, Value: value, Labels: maps.Clone(labels), kind: kind})
}

// HasDurationRecord reports whether a duration of metric was recorded with at least the given labels.
func (s *MetricsCollectorSpy) HasDurationRecord(metric string, labels map[string]string) bool {
	return len(s.filter(kindDuration, metric, labels)) > 0
}

// HasCounterRecord reports whether metric was incremented with at least the given labels.
func (s *MetricsCollectorSpy) HasCounterRecord(metric string, labels map[string]string) bool {
	return len(s.filter(kindCounter, metric, labels)) > 0
}

// ValueRecords returns the recorded values of metric in call order.
func (s *MetricsCollectorSpy) ValueRecords(metric string) []MetricRecord {
	return s.filter(kindValue, metric, nil)
}

func (s *MetricsCollectorSpy) filter(kind metricKind, metric string, labels map[string]string) []MetricRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []MetricRecord
	for _, record := range s.records {
		if record.kind == kind && record.Metric == metric && hasLabels(record.Labels, labels) {
			matched = append(matched, record)
		}
	}

	return matched
}

func hasLabels(actual, expected map[string]string) bool {
	for k, v := range expected {
		if got, ok := actual[k]; !ok || got != v {
			return false
		}
	}

	return true
}
