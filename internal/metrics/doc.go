// Package metrics defines the Prometheus collectors MediaKit exports at /metrics.
package metrics
