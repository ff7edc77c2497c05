// Package otel exports authkit counters and histograms through
// OpenTelemetry observable instruments.
//
// [NewExporter] registers an Int64ObservableCounter per counter metric and
// Int64ObservableGauge per histogram bucket. A single callback reads
// [authkit.Client.MetricsSnapshot] on each collection cycle.
//
// # What this package must NOT do
//
//   - Own the OTel MeterProvider — callers supply the Meter.
//   - Mutate client state.
package otel
