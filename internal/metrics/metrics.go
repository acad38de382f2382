// Package metrics provides the Prometheus metrics of the quiz backend. A nil
// *Metrics is valid and records nothing.
package metrics

import (
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

type Metrics struct {
	Mutations        *prometheus.CounterVec
	VersionConflicts prometheus.Counter
	Answers          *prometheus.CounterVec
	ModelLatency     prometheus.Histogram
	CacheLookups     *prometheus.CounterVec
	Subscribers      prometheus.Gauge
	Broadcasts       prometheus.Counter
}

// New creates the metrics and registers them with registry.
func New(registry prometheus.Registerer) (*Metrics, error) {
	m := &Metrics{
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_session_mutations_total",
			Help: "Session commands by type and result (applied, ignored, error)",
		}, []string{"command", "result"}),
		VersionConflicts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_session_version_conflicts_total",
			Help: "Optimistic concurrency conflicts that caused a retry",
		}),
		Answers: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_askai_answers_total",
			Help: "Ask-AI answers by outcome",
		}, []string{"outcome"}),
		ModelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_askai_model_latency_seconds",
			Help:    "Latency of generative model calls in seconds",
			Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
		}),
		CacheLookups: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_media_cache_lookups_total",
			Help: "Media cache lookups by cache and result (hit, miss)",
		}, []string{"cache", "result"}),
		Subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "quiz_feed_subscribers",
			Help: "Connected websocket subscribers",
		}),
		Broadcasts: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "quiz_feed_broadcasts_total",
			Help: "Session snapshots pushed to subscribers",
		}),
	}

	for _, c := range []prometheus.Collector{
		m.Mutations, m.VersionConflicts, m.Answers, m.ModelLatency,
		m.CacheLookups, m.Subscribers, m.Broadcasts,
	} {
		if err := registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register metrics: %w", err)
		}
	}
	return m, nil
}

func (m *Metrics) ObserveMutation(command, result string) {
	if m == nil {
		return
	}
	m.Mutations.WithLabelValues(command, result).Inc()
}

func (m *Metrics) ObserveVersionConflict() {
	if m == nil {
		return
	}
	m.VersionConflicts.Inc()
}

func (m *Metrics) ObserveAnswer(outcome string) {
	if m == nil {
		return
	}
	m.Answers.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveModelCall(d time.Duration) {
	if m == nil {
		return
	}
	m.ModelLatency.Observe(d.Seconds())
}

func (m *Metrics) ObserveCacheLookup(cache string, hit bool) {
	if m == nil {
		return
	}
	result := "miss"
	if hit {
		result = "hit"
	}
	m.CacheLookups.WithLabelValues(cache, result).Inc()
}

func (m *Metrics) SetSubscribers(n int) {
	if m == nil {
		return
	}
	m.Subscribers.Set(float64(n))
}

func (m *Metrics) ObserveBroadcast() {
	if m == nil {
		return
	}
	m.Broadcasts.Inc()
}
