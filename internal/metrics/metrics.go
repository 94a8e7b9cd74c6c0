package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels analyses that produced a result.
	OutcomeSuccess = "success"
	// OutcomeError labels analyses that failed (validation or dependency issues).
	OutcomeError = "error"
)

var (
	analysesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "analyses_total",
			Help:      "Total number of impact analyses handled, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	analysisDurationSeconds = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "impact_engine",
			Name:      "analysis_seconds",
			Help:      "Impact analysis latency in seconds.",
			Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 3, 5},
		},
	)

	riskLevelsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "risk_levels_total",
			Help:      "Completed analyses partitioned by the risk tier they produced.",
		},
		[]string{"level"},
	)

	historyFallbacksTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "impact_engine",
			Name:      "history_fallbacks_total",
			Help:      "Analyses that ran on the static baseline because the history backend was unavailable.",
		},
	)
)

// Register attaches impact-engine collectors to the supplied Prometheus
// registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		analysesTotal,
		analysisDurationSeconds,
		riskLevelsTotal,
		historyFallbacksTotal,
	}

	for _, collector := range collectors {
		if err := reg.Register(collector); err != nil {
			if _, ok := err.(prometheus.AlreadyRegisteredError); ok {
				continue
			}
			return err
		}
	}
	return nil
}

// ObserveAnalysis records an analysis duration and outcome label.
func ObserveAnalysis(duration time.Duration, outcome string) {
	label := outcome
	if label != OutcomeError {
		label = OutcomeSuccess
	}
	analysesTotal.WithLabelValues(label).Inc()
	if duration < 0 {
		duration = 0
	}
	analysisDurationSeconds.Observe(duration.Seconds())
}

// CountRiskLevel increments the per-tier counter for a completed analysis.
func CountRiskLevel(level string) {
	riskLevelsTotal.WithLabelValues(level).Inc()
}

// CountHistoryFallback increments the baseline-fallback counter.
func CountHistoryFallback() {
	historyFallbacksTotal.Inc()
}
