// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package search fans queries out to the configured database providers and
// returns unified, deduplicated, ranked results. A failing or slow provider
// degrades the aggregate result instead of failing it.
package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/pdiddy/litreview/internal/sources"
	"github.com/pdiddy/litreview/pkg/types"
)

// Request is one aggregate search across providers.
type Request struct {
	// Queries carries one provider-targeted query per provider to ask.
	Queries []types.SearchQueryPlan

	// DateFrom / DateTo bound the publication date range.
	DateFrom time.Time
	DateTo   time.Time

	ArticleTypes   []string
	Language       string
	OpenAccessOnly bool

	// MaxResults is the per-provider page size; the service default
	// applies when 0.
	MaxResults int

	// RankTerms are the topic terms used for relevance ranking. When
	// empty they are derived from the first query.
	RankTerms []string
}

// Result is the merged outcome of an aggregate search.
type Result struct {
	Papers []types.SearchPaper

	// TotalByProvider reports each provider's total match count.
	TotalByProvider map[types.PaperSource]int

	// Errors records per-provider failures; affected providers simply
	// contribute no papers.
	Errors map[types.PaperSource]string

	// DupsRemoved counts cross-provider duplicates that were merged away.
	DupsRemoved int
}

// Service executes aggregate searches over a provider registry.
type Service struct {
	registry *sources.Registry
	cfg      types.SearchConfig
}

// New builds a search service. The registry is shared, injected state.
func New(registry *sources.Registry, cfg types.SearchConfig) *Service {
	if cfg.MaxResults <= 0 {
		cfg.MaxResults = 20
	}
	if cfg.ProviderTimeout <= 0 {
		cfg.ProviderTimeout = 30 * time.Second
	}
	return &Service{registry: registry, cfg: cfg}
}

// Search runs every provider query, either concurrently or sequentially
// per the service configuration. Each provider call carries its own
// timeout so one slow provider cannot block the merge. Results are
// deduplicated and ranked before returning.
func (s *Service) Search(ctx context.Context, req Request) (*Result, error) {
	if len(req.Queries) == 0 {
		return nil, fmt.Errorf("no provider queries given")
	}

	result := &Result{
		TotalByProvider: make(map[types.PaperSource]int),
		Errors:          make(map[types.PaperSource]string),
	}

	type providerResult struct {
		source types.PaperSource
		resp   *sources.SearchResponse
		err    error
	}

	run := func(ctx context.Context, plan types.SearchQueryPlan) providerResult {
		provider, ok := s.registry.Get(plan.Provider)
		if !ok {
			return providerResult{source: plan.Provider, err: fmt.Errorf("unknown provider %q", plan.Provider)}
		}
		callCtx, cancel := context.WithTimeout(ctx, s.cfg.ProviderTimeout)
		defer cancel()

		maxResults := req.MaxResults
		if maxResults <= 0 {
			maxResults = s.cfg.MaxResults
		}
		resp, err := provider.Search(callCtx, sources.SearchQuery{
			Query:          plan.Query,
			DateFrom:       req.DateFrom,
			DateTo:         req.DateTo,
			ArticleTypes:   req.ArticleTypes,
			Language:       req.Language,
			OpenAccessOnly: req.OpenAccessOnly,
			MaxResults:     maxResults,
		})
		return providerResult{source: plan.Provider, resp: resp, err: err}
	}

	var all []types.SearchPaper
	collect := func(pr providerResult) {
		if pr.err != nil {
			result.Errors[pr.source] = pr.err.Error()
			return
		}
		result.TotalByProvider[pr.source] = pr.resp.TotalResults
		for _, p := range pr.resp.Papers {
			if p.ID == "" {
				p.ID = paperID(p)
			}
			all = append(all, p)
		}
	}

	if s.cfg.ParallelSearches {
		ch := make(chan providerResult, len(req.Queries))
		var wg sync.WaitGroup
		for _, plan := range req.Queries {
			wg.Add(1)
			go func(plan types.SearchQueryPlan) {
				defer wg.Done()
				ch <- run(ctx, plan)
			}(plan)
		}
		go func() {
			wg.Wait()
			close(ch)
		}()
		for pr := range ch {
			collect(pr)
		}
	} else {
		for _, plan := range req.Queries {
			collect(run(ctx, plan))
		}
	}

	deduped, removed := Deduplicate(all)
	result.DupsRemoved = removed

	terms := req.RankTerms
	if len(terms) == 0 && len(req.Queries) > 0 {
		terms = queryTerms(req.Queries[0].Query)
	}
	result.Papers = RankPapers(deduped, terms)

	return result, nil
}

// paperID derives a stable internal ID from the provider identity.
func paperID(p types.SearchPaper) string {
	if p.ExternalID != "" {
		return string(p.Source) + ":" + p.ExternalID
	}
	return string(p.Source) + ":" + types.NormalizeTitle(p.Title)
}

// queryTerms tokenizes a boolean query into ranking terms, dropping
// operators and short tokens.
func queryTerms(query string) []string {
	cleaned := strings.NewReplacer("(", " ", ")", " ", `"`, " ").Replace(strings.ToLower(query))
	var terms []string
	for _, f := range strings.Fields(cleaned) {
		if f == "and" || f == "or" || f == "not" || len(f) < 3 {
			continue
		}
		terms = append(terms, f)
	}
	return terms
}
