// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package metrics records Prometheus metrics for provider traffic, agent
// execution, and session lifecycle. The collector doubles as the HTTP
// observer wired into every provider client.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector holds the metric vectors. A single collector is created at
// startup and shared by the provider clients and the session engine.
type Collector struct {
	providerRequests *prometheus.CounterVec
	providerRetries  *prometheus.CounterVec

	agentExecutions *prometheus.CounterVec
	agentDuration   *prometheus.HistogramVec

	llmTokens *prometheus.CounterVec

	sessionsStarted  prometheus.Counter
	sessionsFinished *prometheus.CounterVec
	papersFound      *prometheus.CounterVec
}

// NewCollector registers the metric vectors under the given namespace on
// reg; a nil reg means the default registry.
func NewCollector(namespace string, reg prometheus.Registerer) *Collector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Collector{
		providerRequests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_requests_total",
				Help:      "Total provider API requests by outcome",
			},
			[]string{"provider", "outcome"},
		),
		providerRetries: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "provider_retries_total",
				Help:      "Total provider request retries",
			},
			[]string{"provider"},
		),
		agentExecutions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "agent_executions_total",
				Help:      "Total agent executions by status",
			},
			[]string{"agent", "status"},
		),
		agentDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "agent_execution_duration_seconds",
				Help:      "Agent execution duration in seconds",
				Buckets:   []float64{0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
			},
			[]string{"agent"},
		),
		llmTokens: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_used_total",
				Help:      "Total LLM tokens consumed",
			},
			[]string{"model", "agent"},
		),
		sessionsStarted: factory.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_started_total",
				Help:      "Total research sessions started",
			},
		),
		sessionsFinished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "sessions_finished_total",
				Help:      "Total research sessions finished by final status",
			},
			[]string{"status"},
		),
		papersFound: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "papers_found_total",
				Help:      "Total papers returned by provider searches",
			},
			[]string{"provider"},
		),
	}
}

// Request implements httputil.Observer.
func (c *Collector) Request(provider, outcome string) {
	c.providerRequests.WithLabelValues(provider, outcome).Inc()
}

// Retry implements httputil.Observer.
func (c *Collector) Retry(provider string) {
	c.providerRetries.WithLabelValues(provider).Inc()
}

// RecordAgentExecution records one agent run with its outcome.
func (c *Collector) RecordAgentExecution(agent, status string, duration time.Duration) {
	c.agentExecutions.WithLabelValues(agent, status).Inc()
	c.agentDuration.WithLabelValues(agent).Observe(duration.Seconds())
}

// RecordLLMTokens adds to the token spend of a model on behalf of an agent.
func (c *Collector) RecordLLMTokens(model, agent string, tokens int) {
	c.llmTokens.WithLabelValues(model, agent).Add(float64(tokens))
}

// RecordSessionStart counts a new session.
func (c *Collector) RecordSessionStart() {
	c.sessionsStarted.Inc()
}

// RecordSessionFinish counts a session reaching a terminal status.
func (c *Collector) RecordSessionFinish(status string) {
	c.sessionsFinished.WithLabelValues(status).Inc()
}

// RecordPapersFound adds to the per-provider paper tally.
func (c *Collector) RecordPapersFound(provider string, count int) {
	c.papersFound.WithLabelValues(provider).Add(float64(count))
}
