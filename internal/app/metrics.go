package app

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome labels for conversion metrics and events.
const (
	OutcomeOK             = "ok"
	OutcomeInvalidNumeral = "invalid_numeral"
	OutcomeOutOfRange     = "out_of_range"
	OutcomeError          = "error"
)

// ConversionMetrics holds the prometheus collectors for the converter.
type ConversionMetrics struct {
	conversions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
}

// NewConversionMetrics builds the collectors and registers them on reg when
// reg is non-nil.
func NewConversionMetrics(reg prometheus.Registerer) (*ConversionMetrics, error) {
	m := &ConversionMetrics{
		conversions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "roman",
			Name:      "conversions_total",
			Help:      "Conversions attempted, by operation and outcome.",
		}, []string{"operation", "outcome"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "roman",
			Name:      "conversion_duration_seconds",
			Help:      "Time spent converting, by operation.",
			Buckets:   []float64{1e-6, 5e-6, 1e-5, 5e-5, 1e-4, 1e-3},
		}, []string{"operation"}),
	}
	if reg == nil {
		return m, nil
	}
	for _, c := range []prometheus.Collector{m.conversions, m.duration} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func (m *ConversionMetrics) RecordOp(operation, outcome string, started time.Time) {
	if m == nil {
		return
	}
	m.conversions.WithLabelValues(operation, outcome).Inc()
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
}
