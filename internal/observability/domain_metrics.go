package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/querygate/querygate/internal/gate"
)

var (
	queryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querygate_query_requests_total",
			Help: "Total number of question-to-SQL pipeline runs by terminal status.",
		},
		[]string{"status"},
	)
	validationRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querygate_validation_requests_total",
			Help: "Total number of direct SQL validation runs by terminal status.",
		},
		[]string{"status"},
	)
	policyFindingsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "querygate_policy_findings_total",
			Help: "Total number of policy gate findings by kind.",
		},
		[]string{"kind"},
	)
	pipelineLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querygate_pipeline_latency_ms",
			Help:    "End-to-end pipeline latency in milliseconds, agent calls included.",
			Buckets: []float64{10, 25, 50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
	)
	validationLatencyMs = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "querygate_validation_latency_ms",
			Help:    "Deterministic validation latency in milliseconds.",
			Buckets: []float64{1, 2, 5, 10, 25, 50, 100, 250, 500},
		},
	)
	agentStageLatencyMs = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "querygate_agent_stage_latency_ms",
			Help:    "Model completion latency per agent stage in milliseconds.",
			Buckets: []float64{50, 100, 250, 500, 1000, 2500, 5000, 10000, 30000},
		},
		[]string{"stage"},
	)
)

func init() {
	prometheus.MustRegister(
		queryRequestsTotal,
		validationRequestsTotal,
		policyFindingsTotal,
		pipelineLatencyMs,
		validationLatencyMs,
		agentStageLatencyMs,
	)
}

func ObserveQuery(status string, findings []gate.Finding, elapsed time.Duration) {
	queryRequestsTotal.WithLabelValues(status).Inc()
	pipelineLatencyMs.Observe(float64(elapsed.Milliseconds()))
	for _, finding := range findings {
		policyFindingsTotal.WithLabelValues(string(finding.Kind)).Inc()
	}
}

func ObserveValidation(status string, elapsed time.Duration) {
	validationRequestsTotal.WithLabelValues(status).Inc()
	validationLatencyMs.Observe(float64(elapsed.Milliseconds()))
}

func ObserveAgentStage(stage string, elapsed time.Duration) {
	agentStageLatencyMs.WithLabelValues(stage).Observe(float64(elapsed.Milliseconds()))
}
