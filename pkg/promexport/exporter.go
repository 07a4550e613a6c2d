// Package promexport exposes batch summaries as Prometheus gauges and pushes
// them to a Pushgateway.
package promexport

import (
	"context"
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"

	"github.com/ccollicutt/startlat/pkg/output"
)

const namespace = "startlat"

// Exporter holds the gauges for the most recent batch.
type Exporter struct {
	registry  *prometheus.Registry
	interval  *prometheus.GaugeVec
	samples   *prometheus.GaugeVec
	runs      prometheus.Gauge
	completed prometheus.Gauge
}

// New creates an exporter with its own registry.
func New() *Exporter {
	e := &Exporter{
		registry: prometheus.NewRegistry(),
		interval: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interval_nanoseconds",
			Help:      "Startup interval duration statistics of the last batch.",
		}, []string{"interval", "stat"}),
		samples: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "interval_samples",
			Help:      "Number of runs that produced each interval in the last batch.",
		}, []string{"interval"}),
		runs: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_runs",
			Help:      "Number of runs in the last batch.",
		}),
		completed: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "batch_completed_timestamp_seconds",
			Help:      "Unix time the last batch finished.",
		}),
	}
	e.registry.MustRegister(e.interval, e.samples, e.runs, e.completed)
	return e
}

// Registry returns the registry holding the exporter's collectors.
func (e *Exporter) Registry() *prometheus.Registry {
	return e.registry
}

// Observe replaces the gauges with the values of report.
func (e *Exporter) Observe(report *output.Report) {
	e.interval.Reset()
	e.samples.Reset()

	for key, s := range report.Summary {
		e.interval.WithLabelValues(key, "minimum").Set(float64(s.Minimum))
		e.interval.WithLabelValues(key, "maximum").Set(float64(s.Maximum))
		e.interval.WithLabelValues(key, "average").Set(float64(s.Average))
		e.samples.WithLabelValues(key).Set(float64(s.Samples))
	}

	e.runs.Set(float64(len(report.Metadata.Runs)))
	if !report.Metadata.MeasuredAt.IsZero() {
		e.completed.Set(float64(report.Metadata.MeasuredAt.Unix()))
	}
}

// Push sends the current gauges to the Pushgateway at url, replacing any
// metrics previously pushed under job.
func (e *Exporter) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(e.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("pushing to %s: %w", url, err)
	}
	return nil
}
