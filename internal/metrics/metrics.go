package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"reliefcheck/internal/domain"
)

const namespace = "reliefcheck"

// Metrics holds the service collectors on a private registry.
type Metrics struct {
	registry       *prometheus.Registry
	checks         *prometheus.CounterVec
	checkDuration  *prometheus.HistogramVec
	investigations *prometheus.CounterVec
	riskScore      prometheus.Histogram
	duration       prometheus.Histogram
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		checks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checks_total",
			Help:      "Evidence checks run, by kind and outcome.",
		}, []string{"kind", "outcome"}),
		checkDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "check_duration_seconds",
			Help:      "Time spent in a single evidence check.",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 20},
		}, []string{"kind"}),
		investigations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "investigations_total",
			Help:      "Finished investigations, by status and verdict.",
		}, []string{"status", "verdict"}),
		riskScore: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "risk_score",
			Help:      "Risk scores of completed investigations.",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "investigation_duration_seconds",
			Help:      "Wall-clock time of an investigation.",
			Buckets:   []float64{0.5, 1, 2, 5, 10, 20, 30, 60},
		}),
	}
	m.registry.MustRegister(
		m.checks, m.checkDuration, m.investigations, m.riskScore, m.duration,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// ObserveCheck records one finished evidence check.
func (m *Metrics) ObserveCheck(kind string, failed bool, elapsed time.Duration) {
	outcome := "ok"
	if failed {
		outcome = "error"
	}
	m.checks.WithLabelValues(kind, outcome).Inc()
	m.checkDuration.WithLabelValues(kind).Observe(elapsed.Seconds())
}

// ObserveInvestigation records a terminal report.
func (m *Metrics) ObserveInvestigation(r domain.InvestigationReport) {
	verdict := string(r.Verdict)
	if r.Status != domain.ReportCompleted {
		verdict = "none"
	}
	m.investigations.WithLabelValues(string(r.Status), verdict).Inc()
	m.duration.Observe(r.ProcessingTimeSeconds)
	if r.Status == domain.ReportCompleted {
		m.riskScore.Observe(float64(r.RiskScore))
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
