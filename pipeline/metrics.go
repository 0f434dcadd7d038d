package pipeline

import (
	"fmt"
	"sort"
	"strings"

	"github.com/achilleasa/polaris-denoise/accumulator"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

const metricsNamespace = "denoise"

// Per-instance pipeline metrics. Each pipeline context owns a separate
// registry so that independent instances never share collectors.
type Metrics struct {
	Registry *prometheus.Registry

	stageDuration   *prometheus.HistogramVec
	frames          prometheus.Counter
	resets          prometheus.Counter
	rejectedSamples prometheus.Counter
	historyLength   prometheus.Gauge
	converged       prometheus.Gauge
}

// Create metrics for the pipeline instance with the given id.
func NewMetrics(instanceID string) *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"instance": instanceID}

	return &Metrics{
		Registry: reg,
		stageDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace:   metricsNamespace,
			Name:        "stage_duration_seconds",
			Help:        "Time spent executing each pipeline stage",
			ConstLabels: labels,
			Buckets:     prometheus.ExponentialBuckets(0.0001, 2, 14), // 0.1ms to ~800ms
		}, []string{"stage"}),
		frames: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "frames_total",
			Help:        "Number of completed frames",
			ConstLabels: labels,
		}),
		resets: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "history_resets_total",
			Help:        "Number of frames that discarded accumulated history",
			ConstLabels: labels,
		}),
		rejectedSamples: factory.NewCounter(prometheus.CounterOpts{
			Namespace:   metricsNamespace,
			Name:        "rejected_samples_total",
			Help:        "Number of non-finite samples rejected by the accumulator",
			ConstLabels: labels,
		}),
		historyLength: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "history_length",
			Help:        "Frames accumulated since the last history reset",
			ConstLabels: labels,
		}),
		converged: factory.NewGauge(prometheus.GaugeOpts{
			Namespace:   metricsNamespace,
			Name:        "converged",
			Help:        "1 if the history length reached its cap",
			ConstLabels: labels,
		}),
	}
}

// Record the stats of a completed frame.
func (m *Metrics) observeFrame(stats FrameStats) {
	for _, stage := range stats.Stages {
		m.stageDuration.WithLabelValues(stage.Name).Observe(stage.Time.Seconds())
	}
	m.frames.Inc()
	if stats.Reset {
		m.resets.Inc()
	}
	m.rejectedSamples.Add(float64(stats.RejectedSamples))
	m.historyLength.Set(float64(stats.HistoryLength))
	if stats.Phase == accumulator.Converged {
		m.converged.Set(1)
	} else {
		m.converged.Set(0)
	}
}

// A single gathered metric value.
type MetricValue struct {
	Name  string
	Value float64
}

// Gather all metrics into a flat, name-sorted list. Histograms are
// reported as their _count and _sum series.
func (m *Metrics) Snapshot() ([]MetricValue, error) {
	families, err := m.Registry.Gather()
	if err != nil {
		return nil, err
	}

	values := make([]MetricValue, 0)
	for _, family := range families {
		for _, metric := range family.GetMetric() {
			name := family.GetName() + formatLabels(metric.GetLabel())
			switch family.GetType() {
			case dto.MetricType_COUNTER:
				values = append(values, MetricValue{name, metric.GetCounter().GetValue()})
			case dto.MetricType_GAUGE:
				values = append(values, MetricValue{name, metric.GetGauge().GetValue()})
			case dto.MetricType_HISTOGRAM:
				h := metric.GetHistogram()
				values = append(values,
					MetricValue{family.GetName() + "_count" + formatLabels(metric.GetLabel()), float64(h.GetSampleCount())},
					MetricValue{family.GetName() + "_sum" + formatLabels(metric.GetLabel()), h.GetSampleSum()},
				)
			}
		}
	}

	sort.Slice(values, func(i, j int) bool { return values[i].Name < values[j].Name })
	return values, nil
}

// Format metric labels, skipping the instance label.
func formatLabels(pairs []*dto.LabelPair) string {
	parts := make([]string, 0, len(pairs))
	for _, pair := range pairs {
		if pair.GetName() == "instance" {
			continue
		}
		parts = append(parts, fmt.Sprintf("%s=%q", pair.GetName(), pair.GetValue()))
	}
	if len(parts) == 0 {
		return ""
	}
	return "{" + strings.Join(parts, ",") + "}"
}
