// Package otel publishes careauth engine metrics through an OpenTelemetry Meter.
//
// [NewOTelExporter] registers one Int64ObservableCounter per engine counter and
// one Int64ObservableGauge per cumulative latency bucket. A single callback reads
// [careauth.Engine.MetricsSnapshot] on each collection cycle.
//
// The caller owns the MeterProvider and supplies the Meter.
package otel
