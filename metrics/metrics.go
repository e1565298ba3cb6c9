// Package metrics records Prometheus metrics for benchmark sweeps.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "strbench"

// Outcome label values.
const (
	OutcomeOK     = "ok"
	OutcomeFailed = "failed"
)

// Metrics holds the collectors updated by the sampler. A nil *Metrics
// is valid and records nothing.
type Metrics struct {
	PointsTotal   *prometheus.CounterVec
	PointDuration *prometheus.HistogramVec
	InFlight      prometheus.Gauge
}

// New creates the collectors and registers them on reg.
func New(reg prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		PointsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "points_total",
				Help:      "Grid points measured, by operator variant and outcome.",
			},
			[]string{"variant", "outcome"},
		),
		PointDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "point_duration_seconds",
				Help:      "Wall time of one compile, run and parse pipeline.",
				Buckets:   prometheus.ExponentialBuckets(0.05, 2, 10),
			},
			[]string{"variant"},
		),
		InFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "points_in_flight",
				Help:      "Pipelines currently running.",
			},
		),
	}

	for _, c := range []prometheus.Collector{m.PointsTotal, m.PointDuration, m.InFlight} {
		if err := reg.Register(c); err != nil {
			return nil, fmt.Errorf("register metrics: %w", err)
		}
	}

	return m, nil
}

// ObservePoint records one finished pipeline.
func (m *Metrics) ObservePoint(variant string, d time.Duration, err error) {
	if m == nil {
		return
	}

	outcome := OutcomeOK
	if err != nil {
		outcome = OutcomeFailed
	}

	m.PointsTotal.WithLabelValues(variant, outcome).Inc()
	m.PointDuration.WithLabelValues(variant).Observe(d.Seconds())
}

// TrackInFlight increments the in-flight gauge and returns the
// matching decrement.
func (m *Metrics) TrackInFlight() func() {
	if m == nil {
		return func() {}
	}

	m.InFlight.Inc()

	return m.InFlight.Dec
}

// WriteTextfile writes everything g gathers to path in the Prometheus
// text format.
func WriteTextfile(path string, g prometheus.Gatherer) error {
	if err := prometheus.WriteToTextfile(path, g); err != nil {
		return fmt.Errorf("write metrics to %s: %w", path, err)
	}

	return nil
}
