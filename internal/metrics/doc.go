// Package metrics holds the Prometheus collectors for provider calls, the resolution pipeline and the HTTP API.
//
// Collectors register with the default registry at init through promauto. The server exposes them at
// GET /metrics using [Handler].
package metrics
