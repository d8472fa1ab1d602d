// Package promadapters provides a Prometheus implementation of lazyframe.MetricsCollector.
//
// Instruments are created on demand the first time a metric name is recorded and registered
// on the Registerer passed to NewMetricsCollector:
//   - RecordDuration -> HistogramVec (seconds)
//   - IncrementCounter -> CounterVec
//   - RecordValue -> GaugeVec
//
// The label names of a metric are fixed by its first recording. Later recordings with a
// different label set are dropped.
//
// Usage:
//
//	registry := prometheus.NewRegistry()
//	store, err := postgresengine.NewSymbolStoreFromPGXPool(pool,
//		postgresengine.WithMetrics(promadapters.NewMetricsCollector(registry)),
//	)
package promadapters
