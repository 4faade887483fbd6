// Package metrics records price fetch outcomes with the Prometheus client.
package metrics

import (
	"fmt"
	"strconv"
	"time"

	"github.com/diillson/cloud-price-comparator/internal/domain/repository"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cloud_compare"

// Recorder is a MetricsRecorder backed by its own Prometheus registry.
type Recorder struct {
	registry *prometheus.Registry

	fetches     *prometheus.CounterVec
	fetchTime   *prometheus.HistogramVec
	comparisons *prometheus.CounterVec
	records     prometheus.Histogram
}

var _ repository.MetricsRecorder = (*Recorder)(nil)

// NewRecorder creates a recorder and registers its collectors.
func NewRecorder() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		fetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_fetches_total",
			Help:      "Price fetches per provider and outcome.",
		}, []string{"provider", "outcome"}),
		fetchTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "price_fetch_duration_seconds",
			Help:      "Duration of price fetches per provider.",
			Buckets:   []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"provider"}),
		comparisons: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "comparisons_total",
			Help:      "Completed comparisons, split by whether the result was partial.",
		}, []string{"partial"}),
		records: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "comparison_records",
			Help:      "Number of price records per comparison.",
			Buckets:   []float64{0, 1, 2, 3, 5, 10},
		}),
	}
	r.registry.MustRegister(r.fetches, r.fetchTime, r.comparisons, r.records)
	return r
}

// Registry exposes the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

func (r *Recorder) ObserveFetch(provider string, outcome string, elapsed time.Duration) {
	r.fetches.WithLabelValues(provider, outcome).Inc()
	r.fetchTime.WithLabelValues(provider).Observe(elapsed.Seconds())
}

func (r *Recorder) ObserveComparison(records int, partial bool) {
	r.comparisons.WithLabelValues(strconv.FormatBool(partial)).Inc()
	r.records.Observe(float64(records))
}

// WriteTextfile writes the metrics in the text exposition format, for the
// node exporter textfile collector.
func (r *Recorder) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, r.registry); err != nil {
		return fmt.Errorf("error writing metrics textfile: %w", err)
	}
	return nil
}
