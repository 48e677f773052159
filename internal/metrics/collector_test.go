// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/internal/httputil"
)

// Each test registers on its own registry so the fixed namespace never
// collides across tests.
func testCollector() (*Collector, *prometheus.Registry) {
	reg := prometheus.NewRegistry()
	return NewCollector("litreview", reg), reg
}

func TestCollectorIsObserver(t *testing.T) {
	c, _ := testCollector()
	var _ httputil.Observer = c
}

func TestProviderRequestCounts(t *testing.T) {
	c, _ := testCollector()

	c.Request("pubmed", "success")
	c.Request("pubmed", "success")
	c.Request("crossref", "error")
	c.Retry("pubmed")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.providerRequests.WithLabelValues("pubmed", "success")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.providerRequests.WithLabelValues("crossref", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.providerRetries.WithLabelValues("pubmed")))
}

func TestAgentExecutionMetrics(t *testing.T) {
	c, _ := testCollector()

	c.RecordAgentExecution("researcher", "complete", 1200*time.Millisecond)
	c.RecordAgentExecution("researcher", "error", 300*time.Millisecond)

	assert.Equal(t, 1.0, testutil.ToFloat64(c.agentExecutions.WithLabelValues("researcher", "complete")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.agentExecutions.WithLabelValues("researcher", "error")))
	require.Equal(t, 1, testutil.CollectAndCount(c.agentDuration))
}

func TestTokenAndSessionMetrics(t *testing.T) {
	c, _ := testCollector()

	c.RecordLLMTokens("sonnet", "writer", 1500)
	c.RecordLLMTokens("sonnet", "writer", 500)
	c.RecordSessionStart()
	c.RecordSessionFinish("complete")
	c.RecordPapersFound("arxiv", 12)

	assert.Equal(t, 2000.0, testutil.ToFloat64(c.llmTokens.WithLabelValues("sonnet", "writer")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsStarted))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.sessionsFinished.WithLabelValues("complete")))
	assert.Equal(t, 12.0, testutil.ToFloat64(c.papersFound.WithLabelValues("arxiv")))
}

func TestMetricsRegisteredOnGivenRegistry(t *testing.T) {
	c, reg := testCollector()
	c.Request("pubmed", "success")

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make(map[string]bool, len(families))
	for _, f := range families {
		names[f.GetName()] = true
	}
	assert.True(t, names["litreview_provider_requests_total"])
}
