// Package otel binds Engine metrics to OpenTelemetry observable instruments.
//
// [NewExporter] registers an Int64ObservableCounter per Engine counter and an
// Int64ObservableGauge per cumulative latency bucket. One callback reads
// [sessionauth.Engine.MetricsSnapshot] per collection cycle. The caller owns
// the MeterProvider.
package otel
