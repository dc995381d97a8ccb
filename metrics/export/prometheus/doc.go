// Package prometheus provides a Prometheus collector for careauth metrics.
//
// [NewPrometheusExporter] accepts a [careauth.Engine] and implements
// prometheus.Collector; [PrometheusExporter.Handler] serves it through promhttp.
// Counter names are prefixed careauth_*_total; the single histogram is
// careauth_validate_latency_seconds.
//
// # What this package must NOT do
//
//   - Register metrics in the global Prometheus registry; callers register the
//     collector or mount the Handler.
//   - Mutate engine state.
package prometheus
