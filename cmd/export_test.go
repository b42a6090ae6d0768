package cmd

import "github.com/prometheus/client_golang/prometheus"

// MetricsRegistry exposes the registry of the shared application to tests.
func MetricsRegistry() *prometheus.Registry {
	return app.Metrics.Registry()
}
