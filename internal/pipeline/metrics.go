package pipeline

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Sample outcomes recorded by Metrics.
const (
	OutcomeAugmented = "augmented"
	OutcomeIdentity  = "identity"
	OutcomeOK        = "ok"
	OutcomeFailed    = "failed"
)

// Metrics counts assembled samples and keypoint survival.
type Metrics struct {
	Samples       *prometheus.CounterVec
	PointsKept    prometheus.Counter
	PointsDropped prometheus.Counter
	Duration      *prometheus.HistogramVec
}

// NewMetrics creates the collectors and registers them with reg when it is
// not nil.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Samples: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "pointadapt_samples_total",
			Help: "Samples assembled, by mode and outcome",
		}, []string{"mode", "outcome"}),
		PointsKept: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pointadapt_points_kept_total",
			Help: "Keypoints that survived warping",
		}),
		PointsDropped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "pointadapt_points_dropped_total",
			Help: "Keypoints dropped for leaving the frame or landing on invalid pixels",
		}),
		Duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "pointadapt_sample_seconds",
			Help:    "Time to assemble one sample",
			Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
		}, []string{"mode"}),
	}
	if reg != nil {
		reg.MustRegister(m.Samples, m.PointsKept, m.PointsDropped, m.Duration)
	}
	return m
}

func (m *Metrics) sample(mode, outcome string) {
	if m == nil {
		return
	}
	m.Samples.WithLabelValues(mode, outcome).Inc()
}

func (m *Metrics) points(kept, dropped int) {
	if m == nil {
		return
	}
	m.PointsKept.Add(float64(kept))
	m.PointsDropped.Add(float64(dropped))
}

func (m *Metrics) observe(mode string, seconds float64) {
	if m == nil {
		return
	}
	m.Duration.WithLabelValues(mode).Observe(seconds)
}
