// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by components that make
// network requests.
type HTTPConfig struct {
	// Timeout is the per-request HTTP timeout (default 30s).
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "litreview/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ProviderConfig holds rate-limit and credential settings for one provider.
type ProviderConfig struct {
	HTTPConfig `yaml:",inline"`

	// RequestsPerSecond is the sustained request rate for the token bucket.
	RequestsPerSecond float64 `json:"requests_per_second" yaml:"requests_per_second"`

	// BurstLimit is the token bucket capacity.
	BurstLimit int `json:"burst_limit" yaml:"burst_limit"`

	// RetryAttempts is the number of attempts for retryable failures
	// (default 3).
	RetryAttempts int `json:"retry_attempts" yaml:"retry_attempts"`

	// APIKey is an optional provider API key. PubMed and Semantic Scholar
	// grant higher rate limits when one is configured.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// Email is sent to providers with polite pools (CrossRef mailto).
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
}

// SearchConfig holds settings for the aggregate search service.
type SearchConfig struct {
	// MaxResults is the per-provider result cap (default 20).
	MaxResults int `json:"max_results" yaml:"max_results"`

	// ParallelSearches controls whether providers are queried concurrently
	// or one after another.
	ParallelSearches bool `json:"parallel_searches" yaml:"parallel_searches"`

	// ProviderTimeout bounds each provider call independently of the
	// others; a slow provider never delays the aggregate result.
	ProviderTimeout time.Duration `json:"provider_timeout" yaml:"provider_timeout"`
}

// GraphConfig holds settings for citation graph construction.
type GraphConfig struct {
	// MaxDepth bounds the breadth-first traversal from the seed paper.
	MaxDepth int `json:"max_depth" yaml:"max_depth"`

	// MaxNodes caps the total graph size; traversal halts when reached.
	MaxNodes int `json:"max_nodes" yaml:"max_nodes"`

	// CitingLimit bounds citing-paper fetches per node.
	CitingLimit int `json:"citing_limit" yaml:"citing_limit"`

	// ReferencedLimit bounds referenced-paper fetches per node.
	ReferencedLimit int `json:"referenced_limit" yaml:"referenced_limit"`
}

// EngineConfig groups all component configurations for the research engine.
type EngineConfig struct {
	// Model is the LLM model identifier passed to the external LLM caller.
	Model string `json:"model" yaml:"model"`

	// EventBuffer is the per-subscriber event channel capacity (default 64).
	EventBuffer int `json:"event_buffer" yaml:"event_buffer"`

	Search    SearchConfig                   `json:"search" yaml:"search"`
	Graph     GraphConfig                    `json:"graph" yaml:"graph"`
	Providers map[PaperSource]ProviderConfig `json:"providers" yaml:"providers"`
}

// DefaultProviderConfig returns the rate-limit defaults for a provider.
// PubMed allows 3 rps without an API key and 10 with one; Semantic
// Scholar allows 1 rps anonymously and 10 with a key; the rest are
// fixed public limits.
func DefaultProviderConfig(source PaperSource, apiKey string) ProviderConfig {
	cfg := ProviderConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "litreview/0.1",
		},
		RetryAttempts: 3,
		APIKey:        apiKey,
	}
	switch source {
	case SourcePubMed:
		cfg.RequestsPerSecond, cfg.BurstLimit = 3, 3
		if apiKey != "" {
			cfg.RequestsPerSecond, cfg.BurstLimit = 10, 10
		}
	case SourceSemanticScholar:
		cfg.RequestsPerSecond, cfg.BurstLimit = 1, 1
		if apiKey != "" {
			cfg.RequestsPerSecond, cfg.BurstLimit = 10, 10
		}
	case SourceCrossRef:
		cfg.RequestsPerSecond, cfg.BurstLimit = 2, 4
	case SourceEuropePMC:
		cfg.RequestsPerSecond, cfg.BurstLimit = 2, 4
	default: // arXiv asks for one request every three seconds.
		cfg.RequestsPerSecond, cfg.BurstLimit = 0.34, 1
	}
	return cfg
}

// DefaultEngineConfig returns a complete engine configuration with
// conservative provider limits and no credentials.
func DefaultEngineConfig() EngineConfig {
	providers := make(map[PaperSource]ProviderConfig, len(AllSources))
	for _, s := range AllSources {
		providers[s] = DefaultProviderConfig(s, "")
	}
	return EngineConfig{
		Model:       "claude-sonnet-4-5-20250929",
		EventBuffer: 64,
		Search: SearchConfig{
			MaxResults:       20,
			ParallelSearches: true,
			ProviderTimeout:  30 * time.Second,
		},
		Graph: GraphConfig{
			MaxDepth:        2,
			MaxNodes:        100,
			CitingLimit:     10,
			ReferencedLimit: 10,
		},
		Providers: providers,
	}
}
