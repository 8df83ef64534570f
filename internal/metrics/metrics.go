// Package metrics exposes spamguard counters and histograms to Prometheus.
//
// A Collector owns a private registry so tests and multiple servers in one
// process never collide on the global one. A nil *Collector is valid and
// records nothing.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "spamguard"

// Screening outcomes used as the outcome label.
const (
	OutcomeClean       = "clean"
	OutcomeQuarantined = "quarantined"
	OutcomeEscalated   = "escalated"
	OutcomeUnchanged   = "unchanged"
	OutcomeDryRun      = "dry_run"
)

// Collector records analysis and quarantine activity.
type Collector struct {
	registry *prometheus.Registry

	analysesTotal    prometheus.Counter
	score            prometheus.Histogram
	screeningsTotal  *prometheus.CounterVec
	quarantinesTotal *prometheus.CounterVec
	liftsTotal       prometheus.Counter
}

// New creates a Collector with its own registry.
func New() *Collector {
	c := &Collector{
		registry: prometheus.NewRegistry(),

		analysesTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "analyses_total",
			Help:      "Total number of strings analysed",
		}),

		score: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "score",
			Help:      "Distribution of human-likeness scores",
			Buckets:   prometheus.LinearBuckets(0.1, 0.1, 10), // 0.1 .. 1.0
		}),

		screeningsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screenings_total",
			Help:      "Total number of screenings by outcome",
		}, []string{"outcome"}),

		quarantinesTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quarantines_total",
			Help:      "Total number of quarantines created or escalated, by level",
		}, []string{"level"}),

		liftsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lifts_total",
			Help:      "Total number of quarantines lifted",
		}),
	}

	c.registry.MustRegister(
		c.analysesTotal,
		c.score,
		c.screeningsTotal,
		c.quarantinesTotal,
		c.liftsTotal,
	)
	return c
}

// RecordAnalysis counts one analysed string and observes its score.
func (c *Collector) RecordAnalysis(score float64) {
	if c == nil {
		return
	}
	c.analysesTotal.Inc()
	c.score.Observe(score)
}

// RecordScreening counts one screening decision.
func (c *Collector) RecordScreening(outcome string) {
	if c == nil {
		return
	}
	c.screeningsTotal.WithLabelValues(outcome).Inc()
}

// RecordQuarantine counts a quarantine written at the named level.
func (c *Collector) RecordQuarantine(level string) {
	if c == nil {
		return
	}
	c.quarantinesTotal.WithLabelValues(level).Inc()
}

// RecordLift counts one lifted quarantine.
func (c *Collector) RecordLift() {
	if c == nil {
		return
	}
	c.liftsTotal.Inc()
}

// Handler serves the collector's registry in the Prometheus exposition format.
func (c *Collector) Handler() http.Handler {
	if c == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{
		EnableOpenMetrics: true,
		ErrorHandling:     promhttp.ContinueOnError,
	})
}
