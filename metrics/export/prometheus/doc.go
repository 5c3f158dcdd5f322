// Package prometheus exposes Engine counters and latency histograms as a
// client_golang Collector.
//
// Counters are named sessionauth_*_total. The register and login latency
// histograms are sessionauth_register_latency_seconds and
// sessionauth_login_latency_seconds. Register the Collector on your own
// registry or mount [Handler].
package prometheus
