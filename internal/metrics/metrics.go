package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	once sync.Once

	ScoresTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credtech",
			Subsystem: "scoring",
			Name:      "scores_total",
			Help:      "Score responses by assessment type",
		},
		[]string{"assessment_type"},
	)

	TrainingDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "credtech",
			Subsystem: "training",
			Name:      "duration_seconds",
			Help:      "Wall time of model training runs",
			Buckets:   []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
		[]string{"outcome"},
	)

	RetrainDropped = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "credtech",
			Subsystem: "retrain",
			Name:      "dropped_total",
			Help:      "Retrain requests dropped because the queue was full",
		},
	)

	UpstreamErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "credtech",
			Subsystem: "provider",
			Name:      "errors_total",
			Help:      "Upstream fetch failures by source",
		},
		[]string{"source"},
	)
)

func Register() {
	once.Do(func() {
		prometheus.MustRegister(ScoresTotal, TrainingDuration, RetrainDropped, UpstreamErrors)
	})
}
