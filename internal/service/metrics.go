package service

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics exposes prediction instrumentation. A nil *Metrics is valid
// and records nothing, which keeps tests and one-shot CLI runs quiet.
type Metrics struct {
	predictions    *prometheus.CounterVec
	duration       prometheus.Histogram
	cacheRequests  *prometheus.CounterVec
	libraryReloads prometheus.Counter
}

// NewMetrics builds and registers the service metrics on the given
// registerer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		predictions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "covtrace_predictions_total",
			Help: "Facility predictions computed, by result.",
		}, []string{"result"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "covtrace_prediction_duration_seconds",
			Help:    "Wall time of one facility prediction.",
			Buckets: prometheus.DefBuckets,
		}),
		cacheRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "covtrace_prediction_cache_requests_total",
			Help: "Prediction cache lookups, by outcome.",
		}, []string{"outcome"}),
		libraryReloads: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "covtrace_pattern_library_reloads_total",
			Help: "Times the pattern library was swapped at runtime.",
		}),
	}

	reg.MustRegister(m.predictions, m.duration, m.cacheRequests, m.libraryReloads)
	return m
}

func (m *Metrics) observePrediction(seconds float64, err error) {
	if m == nil {
		return
	}
	result := "ok"
	if err != nil {
		result = "error"
	}
	m.predictions.WithLabelValues(result).Inc()
	if err == nil {
		m.duration.Observe(seconds)
	}
}

func (m *Metrics) observeCache(hit bool) {
	if m == nil {
		return
	}
	outcome := "miss"
	if hit {
		outcome = "hit"
	}
	m.cacheRequests.WithLabelValues(outcome).Inc()
}

func (m *Metrics) observeReload() {
	if m == nil {
		return
	}
	m.libraryReloads.Inc()
}
