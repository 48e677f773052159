// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package sources normalizes academic database APIs into a common provider
// contract. Each provider (PubMed, arXiv, Semantic Scholar, CrossRef,
// Europe PMC) maps its wire format into types.SearchPaper and translates
// shared filters into provider-specific query parameters.
package sources

import (
	"context"
	"time"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// SearchQuery holds provider-agnostic search parameters. Providers
// translate the filter fields into their native query syntax; filters a
// provider cannot express are ignored.
type SearchQuery struct {
	// Query is the search expression; providers accepting boolean syntax
	// receive it verbatim.
	Query string

	// DateFrom and DateTo bound the publication date range.
	DateFrom time.Time
	DateTo   time.Time

	// ArticleTypes restricts result types (e.g. "review",
	// "clinical_trial") where the provider supports it.
	ArticleTypes []string

	// Language restricts results to an ISO language code.
	Language string

	// OpenAccessOnly filters to openly readable papers.
	OpenAccessOnly bool

	// MaxResults caps the returned page (provider default when 0).
	MaxResults int

	// Offset is the pagination start position.
	Offset int
}

// SearchResponse is one result page from a provider.
type SearchResponse struct {
	// TotalResults is the provider-reported total match count.
	TotalResults int

	Papers []types.SearchPaper

	// NextOffset is the offset of the next page, nil on the last page.
	NextOffset *int
}

// Provider is the common contract all database adapters implement.
// Citation operations return empty results, not errors, when the provider
// has no citation data (arXiv, CrossRef citing direction).
type Provider interface {
	Name() types.PaperSource
	IsAvailable(ctx context.Context) bool
	Search(ctx context.Context, query SearchQuery) (*SearchResponse, error)
	PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error)
	CitingPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error)
	ReferencedPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error)
}

// Registry is the explicit provider list constructed once at startup and
// passed by reference into the search and citation-graph services.
type Registry struct {
	providers []Provider
	byName    map[types.PaperSource]Provider
}

// NewRegistry builds a registry over the given providers, preserving order.
func NewRegistry(providers ...Provider) *Registry {
	r := &Registry{byName: make(map[types.PaperSource]Provider, len(providers))}
	for _, p := range providers {
		r.providers = append(r.providers, p)
		r.byName[p.Name()] = p
	}
	return r
}

// DefaultRegistry builds a registry with all five providers configured
// from cfg. Providers missing from cfg get their defaults.
func DefaultRegistry(cfg types.EngineConfig, obs httputil.Observer) *Registry {
	pc := func(s types.PaperSource) types.ProviderConfig {
		if c, ok := cfg.Providers[s]; ok {
			return c
		}
		return types.DefaultProviderConfig(s, "")
	}
	return NewRegistry(
		NewPubMed(pc(types.SourcePubMed), obs),
		NewSemanticScholar(pc(types.SourceSemanticScholar), obs),
		NewArxiv(pc(types.SourceArxiv), obs),
		NewCrossRef(pc(types.SourceCrossRef), obs),
		NewEuropePMC(pc(types.SourceEuropePMC), obs),
	)
}

// Get returns the named provider.
func (r *Registry) Get(name types.PaperSource) (Provider, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Select returns the providers for the given names, skipping unknown ones
// and preserving the requested order.
func (r *Registry) Select(names []types.PaperSource) []Provider {
	var out []Provider
	for _, n := range names {
		if p, ok := r.byName[n]; ok {
			out = append(out, p)
		}
	}
	return out
}

// All returns every registered provider in registration order.
func (r *Registry) All() []Provider {
	return r.providers
}

// intPtr is shared by providers for optional counts and offsets.
func intPtr(v int) *int { return &v }
