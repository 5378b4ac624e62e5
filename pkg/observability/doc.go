/*
Package observability exposes simulator activity as Prometheus metrics.

Metrics are fed by lifecycle hooks, so any simulator built with
turing.WithLifecycleHooks(metrics.Hooks()) is measured without the engine
knowing about Prometheus.
*/
package observability
