// Package metrics collects per-invocation counters and exports them in the
// node_exporter textfile format.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "paractl"

// Metrics holds the collectors for a single paractl invocation. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	submissions *prometheus.CounterVec
	polls       prometheus.Counter
	connect     prometheus.Histogram
	paraHeight  *prometheus.GaugeVec
	bestBlock   prometheus.Gauge
	authorities prometheus.Gauge
}

// New creates a Metrics with its own registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Registration extrinsics submitted, by terminal status.",
		}, []string{"status"}),
		polls: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registration_polls_total",
			Help:      "Queries of the registered parachain set.",
		}),
		connect: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "connect_seconds",
			Help:      "Time to establish a relay chain connection.",
			Buckets:   []float64{.05, .1, .25, .5, 1, 2, 3},
		}),
		paraHeight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "parachain_height",
			Help:      "Head block number of a parachain as seen by the relay chain.",
		}, []string{"para_id"}),
		bestBlock: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "best_block",
			Help:      "Latest relay chain block number.",
		}),
		authorities: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "authorities",
			Help:      "Authorities in the last written chainspec.",
		}),
	}
	m.registry.MustRegister(m.submissions, m.polls, m.connect, m.paraHeight, m.bestBlock, m.authorities)
	return m
}

// Registry exposes the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) Submission(status string) {
	if m != nil {
		m.submissions.WithLabelValues(status).Inc()
	}
}

func (m *Metrics) Poll() {
	if m != nil {
		m.polls.Inc()
	}
}

func (m *Metrics) Connected(d time.Duration) {
	if m != nil {
		m.connect.Observe(d.Seconds())
	}
}

func (m *Metrics) ParachainHeight(paraID string, height uint64) {
	if m != nil {
		m.paraHeight.WithLabelValues(paraID).Set(float64(height))
	}
}

func (m *Metrics) BestBlock(n uint64) {
	if m != nil {
		m.bestBlock.Set(float64(n))
	}
}

func (m *Metrics) Authorities(n int) {
	if m != nil {
		m.authorities.Set(float64(n))
	}
}

// WriteFile writes all collected metrics to path in textfile format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil || path == "" {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, m.registry); err != nil {
		return fmt.Errorf("failed to write metrics to %s: %w", path, err)
	}
	return nil
}
