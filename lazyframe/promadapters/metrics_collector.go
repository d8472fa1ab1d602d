package promadapters

import (
	"errors"
	"slices"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	helpDuration = "Lazyframe operation duration in seconds"
	helpCounter  = "Lazyframe operation counter"
	helpValue    = "Lazyframe current value"
)

// MetricsCollector implements lazyframe.MetricsCollector on top of Prometheus vectors.
// It is safe for concurrent use, which batch reads rely on.
type MetricsCollector struct {
	registerer prometheus.Registerer

	mu         sync.Mutex
	histograms map[string]labeledVec[*prometheus.HistogramVec]
	counters   map[string]labeledVec[*prometheus.CounterVec]
	gauges     map[string]labeledVec[*prometheus.GaugeVec]
}

type labeledVec[V any] struct {
	vec        V
	labelNames []string
}

// NewMetricsCollector creates a collector registering its instruments on registerer.
// A nil registerer means prometheus.DefaultRegisterer.
func NewMetricsCollector(registerer prometheus.Registerer) *MetricsCollector {
	if registerer == nil {
		registerer = prometheus.DefaultRegisterer
	}

	return &MetricsCollector{
		registerer: registerer,
		histograms: make(map[string]labeledVec[*prometheus.HistogramVec]),
		counters:   make(map[string]labeledVec[*prometheus.CounterVec]),
		gauges:     make(map[string]labeledVec[*prometheus.GaugeVec]),
	}
}

// RecordDuration observes duration in seconds on the histogram named metricName.
func (m *MetricsCollector) RecordDuration(metricName string, duration time.Duration, labels map[string]string) {
	histogram, ok := m.getOrCreateHistogram(metricName, labels)
	if !ok {
		return
	}

	histogram.With(labels).Observe(duration.Seconds())
}

// IncrementCounter adds one to the counter named metricName.
func (m *MetricsCollector) IncrementCounter(metricName string, labels map[string]string) {
	counter, ok := m.getOrCreateCounter(metricName, labels)
	if !ok {
		return
	}

	counter.With(labels).Inc()
}

// RecordValue sets the gauge named metricName to value.
func (m *MetricsCollector) RecordValue(metricName string, value float64, labels map[string]string) {
	gauge, ok := m.getOrCreateGauge(metricName, labels)
	if !ok {
		return
	}

	gauge.With(labels).Set(value)
}

func (m *MetricsCollector) getOrCreateHistogram(name string, labels map[string]string) (*prometheus.HistogramVec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	labelNames := sortedLabelNames(labels)

	if existing, exists := m.histograms[name]; exists {
		return existing.vec, slices.Equal(existing.labelNames, labelNames)
	}

	vec := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{Name: name, Help: helpDuration, Buckets: prometheus.DefBuckets},
		labelNames,
	)

	registered, ok := register(m.registerer, prometheus.Collector(vec))
	if !ok {
		return nil, false
	}

	vec, ok = registered.(*prometheus.HistogramVec)
	if !ok {
		return nil, false
	}

	m.histograms[name] = labeledVec[*prometheus.HistogramVec]{vec: vec, labelNames: labelNames}

	return vec, true
}

func (m *MetricsCollector) getOrCreateCounter(name string, labels map[string]string) (*prometheus.CounterVec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	labelNames := sortedLabelNames(labels)

	if existing, exists := m.counters[name]; exists {
		return existing.vec, slices.Equal(existing.labelNames, labelNames)
	}

	vec := prometheus.NewCounterVec(prometheus.CounterOpts{Name: name, Help: helpCounter}, labelNames)

	registered, ok := register(m.registerer, prometheus.Collector(vec))
	if !ok {
		return nil, false
	}

	vec, ok = registered.(*prometheus.CounterVec)
	if !ok {
		return nil, false
	}

	m.counters[name] = labeledVec[*prometheus.CounterVec]{vec: vec, labelNames: labelNames}

	return vec, true
}

func (m *MetricsCollector) getOrCreateGauge(name string, labels map[string]string) (*prometheus.GaugeVec, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	labelNames := sortedLabelNames(labels)

	if existing, exists := m.gauges[name]; exists {
		return existing.vec, slices.Equal(existing.labelNames, labelNames)
	}

	vec := prometheus.NewGaugeVec(prometheus.GaugeOpts{Name: name, Help: helpValue}, labelNames)

	registered, ok := register(m.registerer, prometheus.Collector(vec))
	if !ok {
		return nil, false
	}

	vec, ok = registered.(*prometheus.GaugeVec)
	if !ok {
		return nil, false
	}

	m.gauges[name] = labeledVec[*prometheus.GaugeVec]{vec: vec, labelNames: labelNames}

	return vec, true
}

// register registers collector, reusing an identical collector that is already registered.
func register(registerer prometheus.Registerer, collector prometheus.Collector) (prometheus.Collector, bool) {
	err := registerer.Register(collector)
	if err == nil {
		return collector, true
	}

	var alreadyRegistered prometheus.AlreadyRegisteredError
	if errors.As(err, &alreadyRegistered) {
		return alreadyRegistered.ExistingCollector, true
	}

	return nil, false
}

func sortedLabelNames(labels map[string]string) []string {
	names := make([]string, 0, len(labels))
	for name := range labels {
		names = append(names, name)
	}

	slices.Sort(names)

	return names
}
