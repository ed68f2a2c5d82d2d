package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	EventsApplied      prometheus.Counter
	DuplicateReplays   prometheus.Counter
	SectionsCompleted  prometheus.Counter
	StudentsPurged     prometheus.Counter
	ApplyDuration      prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		EventsApplied: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_ledger_events_applied_total",
			Help: "Total interaction events applied to progress states",
		}),
		DuplicateReplays: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_ledger_duplicate_replays_total",
			Help: "Total replayed events skipped by fingerprint",
		}),
		SectionsCompleted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_ledger_sections_completed_total",
			Help: "Total sections marked complete",
		}),
		StudentsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_ledger_students_purged_total",
			Help: "Total students purged on consent withdrawal",
		}),
		ApplyDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pathway_ledger_apply_duration_seconds",
			Help:    "Latency of ledger apply operations",
			Buckets: []float64{0.0001, 0.00025, 0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025},
		}),
	}
}
