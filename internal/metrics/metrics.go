// Package metrics records evaluation activity.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/carelink/benefitlimits/internal/domain"
)

// Recorder defines the interface for tracking evaluation and import work.
type Recorder interface {
	// RecordImpact records one claim impact resolution.
	RecordImpact(applicable bool, limitsHit int)

	// RecordImport records an import attempt for a file format.
	RecordImport(format string, duration time.Duration, err error)

	// RecordFindings records findings produced by a plan review.
	RecordFindings(findingType domain.FindingType, count int)
}

// Noop is a no-op implementation of Recorder.
type Noop struct{}

func (Noop) RecordImpact(applicable bool, limitsHit int) {}
func (Noop) RecordImport(format string, duration time.Duration, err error) {}
func (Noop) RecordFindings(findingType domain.FindingType, count int) {}

// Prometheus implements Recorder with Prometheus collectors.
type Prometheus struct {
	impactTotal    *prometheus.CounterVec
	limitsHit      prometheus.Histogram
	importTotal    *prometheus.CounterVec
	importDuration *prometheus.HistogramVec
	findingsTotal  *prometheus.CounterVec
}

// NewPrometheus registers the collectors with reg.
func NewPrometheus(reg prometheus.Registerer, namespace string) *Prometheus {
	factory := promauto.With(reg)

	return &Prometheus{
		impactTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "claim_impact_resolutions_total",
			Help:      "Total number of claim impact resolutions by outcome.",
		}, []string{"outcome"}),

		limitsHit: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "claim_impact_limits_hit",
			Help:      "Number of limits a resolved claim hits.",
			Buckets:   []float64{0, 1, 2, 3, 4, 6, 8},
		}),

		importTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "imports_total",
			Help:      "Total number of import attempts.",
		}, []string{"format", "status"}),

		importDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "import_duration_seconds",
			Help:      "Latency of imports.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"format"}),

		findingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "review_findings_total",
			Help:      "Total number of findings produced by plan reviews.",
		}, []string{"type"}),
	}
}

func (m *Prometheus) RecordImpact(applicable bool, limitsHit int) {
	outcome := "applicable"
	if !applicable {
		outcome = "not_applicable"
	}
	m.impactTotal.WithLabelValues(outcome).Inc()
	m.limitsHit.Observe(float64(limitsHit))
}

func (m *Prometheus) RecordImport(format string, duration time.Duration, err error) {
	status := "success"
	if err != nil {
		status = "error"
	}
	m.importTotal.WithLabelValues(format, status).Inc()
	m.importDuration.WithLabelValues(format).Observe(duration.Seconds())
}

func (m *Prometheus) RecordFindings(findingType domain.FindingType, count int) {
	m.findingsTotal.WithLabelValues(string(findingType)).Add(float64(count))
}
