// Package observability provides Prometheus metrics and OpenTelemetry
// tracing instrumentation for the routing core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// =============================================================================
// ROUTING METRICS
// =============================================================================

var (
	routingDecisionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_routing_decisions_total",
			Help: "Total routing decisions by router and target stage",
		},
		[]string{"router", "target"},
	)

	extractorStrategyTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_decision_extractor_strategy_total",
			Help: "Decision extractor outcomes by strategy tier",
		},
		[]string{"strategy"}, // shape, strict_json, quote_normalized, pattern, raw
	)
)

// =============================================================================
// PIPELINE METRICS
// =============================================================================

var (
	stageExecutionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_stage_executions_total",
			Help: "Total stage executions",
		},
		[]string{"stage", "status"}, // status: success, error
	)

	stageDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyst_stage_duration_seconds",
			Help:    "Stage execution duration in seconds",
			Buckets: []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10},
		},
		[]string{"stage"},
	)

	pipelineRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyst_pipeline_runs_total",
			Help: "Total pipeline runs",
		},
		[]string{"pipeline", "status"}, // status: completed, max_steps_exceeded, error
	)

	pipelineDurationSeconds = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analyst_pipeline_duration_seconds",
			Help:    "Pipeline run duration in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60},
		},
		[]string{"pipeline"},
	)
)

// =============================================================================
// PUBLIC API
// =============================================================================

// RecordRoutingDecision records one router decision.
func RecordRoutingDecision(router string, target string) {
	routingDecisionsTotal.WithLabelValues(router, target).Inc()
}

// RecordExtractorStrategy records which extraction tier produced the
// identifier. A rising pattern/raw share signals degrading upstream output.
func RecordExtractorStrategy(strategy string) {
	extractorStrategyTotal.WithLabelValues(strategy).Inc()
}

// RecordStageExecution records stage execution metrics.
func RecordStageExecution(stage string, status string, durationMS int) {
	stageExecutionsTotal.WithLabelValues(stage, status).Inc()
	stageDurationSeconds.WithLabelValues(stage).Observe(float64(durationMS) / 1000.0)
}

// RecordPipelineRun records pipeline run metrics after a run finishes.
func RecordPipelineRun(pipeline string, status string, durationMS int) {
	pipelineRunsTotal.WithLabelValues(pipeline, status).Inc()
	pipelineDurationSeconds.WithLabelValues(pipeline).Observe(float64(durationMS) / 1000.0)
}
