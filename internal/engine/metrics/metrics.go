package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

type Metrics struct {
	IngestOutcomes    *prometheus.CounterVec
	Recommendations   *prometheus.CounterVec
	IngestDuration    prometheus.Histogram
	RecommendDuration prometheus.Histogram
}

func New() *Metrics {
	return &Metrics{
		IngestOutcomes: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pathway_engine_ingest_total",
			Help: "Ingested events by outcome",
		}, []string{"outcome"}),
		Recommendations: promauto.NewCounterVec(prometheus.CounterOpts{
			Name: "pathway_engine_recommendations_total",
			Help: "Adaptation recommendations by action",
		}, []string{"action"}),
		IngestDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pathway_engine_ingest_duration_seconds",
			Help:    "End-to-end ingest pipeline latency",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
		RecommendDuration: promauto.NewHistogram(prometheus.HistogramOpts{
			Name:    "pathway_engine_recommend_duration_seconds",
			Help:    "End-to-end recommendation latency",
			Buckets: []float64{0.0005, 0.001, 0.0025, 0.005, 0.01, 0.025, 0.05, 0.1},
		}),
	}
}
