// Package metrics collects per-run translation metrics and writes them in
// the Prometheus text format, for node_exporter's textfile collector.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder holds the metrics of one run. A nil *Recorder discards
// everything, so callers never need to check whether metrics are enabled.
type Recorder struct {
	registry *prometheus.Registry

	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	retriesTotal    *prometheus.CounterVec

	commentsTotal  *prometheus.GaugeVec
	runDuration    prometheus.Gauge
	runStatus      *prometheus.GaugeVec
	lastRunSeconds prometheus.Gauge
}

// NewRecorder creates a Recorder with its own registry. Labels in constLabels
// (for example provider) are attached to every metric.
func NewRecorder(constLabels prometheus.Labels) *Recorder {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "pgnct_gateway_requests_total",
				Help:        "Translation requests sent to the gateway, by result",
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "pgnct_gateway_request_duration_seconds",
				Help:        "Duration of translation requests in seconds",
				Buckets:     []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
				ConstLabels: constLabels,
			},
			[]string{"result"},
		),
		retriesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "pgnct_gateway_retries_total",
				Help:        "Retried translation requests, by error kind",
				ConstLabels: constLabels,
			},
			[]string{"kind"},
		),
		commentsTotal: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "pgnct_comments",
				Help:        "Comments in the last run, by outcome",
				ConstLabels: constLabels,
			},
			[]string{"outcome"},
		),
		runDuration: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "pgnct_run_duration_seconds",
				Help:        "Wall time of the last run in seconds",
				ConstLabels: constLabels,
			},
		),
		runStatus: factory.NewGaugeVec(
			prometheus.GaugeOpts{
				Name:        "pgnct_run_status",
				Help:        "Status of the last run (1 for the reported status)",
				ConstLabels: constLabels,
			},
			[]string{"status"},
		),
		lastRunSeconds: factory.NewGauge(
			prometheus.GaugeOpts{
				Name:        "pgnct_last_run_timestamp_seconds",
				Help:        "Unix time the last run finished",
				ConstLabels: constLabels,
			},
		),
	}
}

// ObserveRequest records one gateway call.
func (r *Recorder) ObserveRequest(result string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.requestsTotal.WithLabelValues(result).Inc()
	r.requestDuration.WithLabelValues(result).Observe(elapsed.Seconds())
}

// ObserveRetry records a retried request.
func (r *Recorder) ObserveRetry(kind string) {
	if r == nil {
		return
	}
	r.retriesTotal.WithLabelValues(kind).Inc()
}

// RunSummary is what a finished run reports.
type RunSummary struct {
	Status     string
	Total      int
	Translated int
	Failed     int
	Blank      int
	Duration   time.Duration
	FinishedAt time.Time
}

// ObserveRun records the outcome of a finished run.
func (r *Recorder) ObserveRun(s RunSummary) {
	if r == nil {
		return
	}
	r.commentsTotal.WithLabelValues("total").Set(float64(s.Total))
	r.commentsTotal.WithLabelValues("translated").Set(float64(s.Translated))
	r.commentsTotal.WithLabelValues("failed").Set(float64(s.Failed))
	r.commentsTotal.WithLabelValues("blank").Set(float64(s.Blank))
	r.runDuration.Set(s.Duration.Seconds())
	r.runStatus.Reset()
	r.runStatus.WithLabelValues(s.Status).Set(1)
	if !s.FinishedAt.IsZero() {
		r.lastRunSeconds.Set(float64(s.FinishedAt.Unix()))
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (r *Recorder) Registry() *prometheus.Registry {
	if r == nil {
		return nil
	}
	return r.registry
}

// WriteTextfile writes all metrics to path atomically.
func (r *Recorder) WriteTextfile(path string) error {
	if r == nil {
		return nil
	}
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("failed to write metrics file: %w", err)
	}
	return nil
}
