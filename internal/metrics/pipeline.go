package metrics

import "github.com/prometheus/client_golang/prometheus"

// Pipeline Prometheus metrics.
var (
	PipelineStageDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "vecrec",
			Name:      "pipeline_stage_duration_seconds",
			Help:      "Recommendation pipeline stage duration in seconds",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"stage", "status"},
	)

	PipelineRunsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrec",
			Name:      "pipeline_runs_total",
			Help:      "Total recommendation pipeline runs by outcome",
		},
		[]string{"outcome"},
	)

	PipelineFallbacksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "vecrec",
			Name:      "pipeline_fallbacks_total",
			Help:      "Stage failures absorbed by a fallback or skip policy",
		},
		[]string{"stage", "policy"},
	)

	PipelineCandidates = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "vecrec",
			Name:      "pipeline_candidates",
			Help:      "Candidates retrieved per request",
			Buckets:   []float64{0, 1, 5, 10, 25, 50, 100},
		},
	)
)

var pipelineMetricsRegistered bool

// RegisterPipelineMetrics registers pipeline metrics. Must be called once from main.
func RegisterPipelineMetrics() {
	if pipelineMetricsRegistered {
		return
	}
	prometheus.MustRegister(PipelineStageDuration)
	prometheus.MustRegister(PipelineRunsTotal)
	prometheus.MustRegister(PipelineFallbacksTotal)
	prometheus.MustRegister(PipelineCandidates)
	pipelineMetricsRegistered = true
}
