package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const (
	// OutcomeSuccess labels runs that reached the terminal stage with a
	// successful content acquisition.
	OutcomeSuccess = "success"
	// OutcomePartial labels runs that finished with recorded errors.
	OutcomePartial = "partial"
	// OutcomeError labels cancelled or aborted runs.
	OutcomeError = "error"
)

var (
	investigationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincrime_engine",
			Name:      "investigations_total",
			Help:      "Total number of investigations run, partitioned by outcome.",
		},
		[]string{"outcome"},
	)

	stageFailuresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fincrime_engine",
			Name:      "stage_failures_total",
			Help:      "Pipeline stage executions that recorded an error, by stage.",
		},
		[]string{"stage"},
	)

	stageDurationSeconds = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fincrime_engine",
			Name:      "stage_seconds",
			Help:      "Pipeline stage latency in seconds.",
			Buckets:   []float64{0.05, 0.25, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)

	moneyTrailAlertsTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fincrime_engine",
			Name:      "money_trail_alerts_total",
			Help:      "Investigations that produced a beneficiary-mismatch alert.",
		},
	)
)

// Register attaches the engine collectors to the supplied registerer.
func Register(reg prometheus.Registerer) error {
	collectors := []prometheus.Collector{
		investigationsTotal,
		stageFailuresTotal,
		stageDurationSeconds,
		moneyTrailAlertsTotal,
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

// ObserveInvestigation records a finished run.
func ObserveInvestigation(outcome string) {
	investigationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveStage records one stage execution.
func ObserveStage(stage string, failed bool, duration time.Duration) {
	if failed {
		stageFailuresTotal.WithLabelValues(stage).Inc()
	}
	if duration < 0 {
		duration = 0
	}
	stageDurationSeconds.WithLabelValues(stage).Observe(duration.Seconds())
}

// ObserveMoneyTrailAlert counts a beneficiary-mismatch finding.
func ObserveMoneyTrailAlert() {
	moneyTrailAlertsTotal.Inc()
}
