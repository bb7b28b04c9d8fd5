package metrics

import (
	"fmt"
	"io"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

const (
	OutcomeSuccess = "success"

	generationsName = "timetable_generations_total"
)

// Recorder instruments generation runs on its own registry
type Recorder struct {
	registry    *prometheus.Registry
	generations *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	steps       prometheus.Histogram
	backtracks  prometheus.Histogram
}

func NewRecorder() *Recorder {
	registry := prometheus.NewRegistry()

	generations := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: generationsName,
		Help: "Total number of timetable generations by outcome",
	}, []string{"outcome"})

	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "timetable_generation_duration_seconds",
		Help:    "Duration of timetable generations in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"outcome"})

	steps := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_steps",
		Help:    "Placements tried per generation",
		Buckets: prometheus.ExponentialBuckets(10, 4, 9),
	})

	backtracks := prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "timetable_generation_backtracks",
		Help:    "Backtracks per generation",
		Buckets: prometheus.ExponentialBuckets(1, 4, 9),
	})

	registry.MustRegister(generations, duration, steps, backtracks)

	return &Recorder{
		registry:    registry,
		generations: generations,
		duration:    duration,
		steps:       steps,
		backtracks:  backtracks,
	}
}

// Observe records a finished run. outcome is OutcomeSuccess or the reason code of the failure
func (recorder *Recorder) Observe(outcome string, elapsed time.Duration, steps, backtracks uint64) {
	if recorder == nil {
		return
	}
	recorder.generations.WithLabelValues(outcome).Inc()
	recorder.duration.WithLabelValues(outcome).Observe(elapsed.Seconds())
	recorder.steps.Observe(float64(steps))
	recorder.backtracks.Observe(float64(backtracks))
}

// Outcomes returns the number of generations per outcome
func (recorder *Recorder) Outcomes() (map[string]uint64, error) {
	families, err := recorder.registry.Gather()
	if err != nil {
		return nil, fmt.Errorf("cannot gather metrics: %w", err)
	}

	outcomes := make(map[string]uint64)
	for _, family := range families {
		if family.GetName() != generationsName || family.GetType() != dto.MetricType_COUNTER {
			continue
		}
		for _, metric := range family.GetMetric() {
			outcomes[outcomeLabel(metric)] = uint64(metric.GetCounter().GetValue())
		}
	}
	return outcomes, nil
}

func outcomeLabel(metric *dto.Metric) string {
	for _, label := range metric.GetLabel() {
		if label.GetName() == "outcome" {
			return label.GetValue()
		}
	}
	return ""
}

// WriteText writes every metric in the Prometheus text exposition format
func (recorder *Recorder) WriteText(w io.Writer) error {
	families, err := recorder.registry.Gather()
	if err != nil {
		return fmt.Errorf("cannot gather metrics: %w", err)
	}
	encoder := expfmt.NewEncoder(w, expfmt.FmtText)
	for _, family := range families {
		if err := encoder.Encode(family); err != nil {
			return fmt.Errorf("cannot encode metric %v: %w", family.GetName(), err)
		}
	}
	return nil
}

func (recorder *Recorder) Registry() *prometheus.Registry {
	return recorder.registry
}
