package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	ContributionsUpserted prometheus.Counter
	AggregatesServed      prometheus.Counter
	InsufficientSample    prometheus.Counter
	StudentsPurged        prometheus.Counter
}

func New() *Metrics {
	return &Metrics{
		ContributionsUpserted: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_aggregate_contributions_total",
			Help: "Total cohort contributions upserted",
		}),
		AggregatesServed: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_aggregate_served_total",
			Help: "Total cohort aggregates released",
		}),
		InsufficientSample: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_aggregate_insufficient_sample_total",
			Help: "Total aggregate queries refused below the k-anonymity floor",
		}),
		StudentsPurged: promauto.NewCounter(prometheus.CounterOpts{
			Name: "pathway_aggregate_students_purged_total",
			Help: "Total students removed from accumulators on consent withdrawal",
		}),
	}
}
