// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/internal/sources"
	"github.com/pdiddy/litreview/pkg/types"
)

// stubProvider is a canned sources.Provider for service tests.
type stubProvider struct {
	name   types.PaperSource
	papers []types.SearchPaper
	err    error
	delay  time.Duration

	searched []sources.SearchQuery
}

func (s *stubProvider) Name() types.PaperSource             { return s.name }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return s.err == nil }

func (s *stubProvider) Search(ctx context.Context, query sources.SearchQuery) (*sources.SearchResponse, error) {
	s.searched = append(s.searched, query)
	if s.delay > 0 {
		select {
		case <-time.After(s.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return &sources.SearchResponse{TotalResults: len(s.papers), Papers: s.papers}, nil
}

func (s *stubProvider) PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error) {
	for i := range s.papers {
		if s.papers[i].ExternalID == externalID {
			return &s.papers[i], nil
		}
	}
	return nil, fmt.Errorf("paper %q not found", externalID)
}

func (s *stubProvider) CitingPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return nil, s.err
}

func (s *stubProvider) ReferencedPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return nil, s.err
}

func TestSearchMergesAcrossProviders(t *testing.T) {
	pubmed := &stubProvider{name: types.SourcePubMed, papers: []types.SearchPaper{
		{Source: types.SourcePubMed, ExternalID: "1", Title: "Caffeine and sleep", Year: 2023, DOI: "10.1/cs"},
	}}
	arxiv := &stubProvider{name: types.SourceArxiv, papers: []types.SearchPaper{
		{Source: types.SourceArxiv, ExternalID: "2401.0001", Title: "Caffeine modeling", Year: 2024},
	}}
	svc := New(sources.NewRegistry(pubmed, arxiv), types.SearchConfig{})

	res, err := svc.Search(context.Background(), Request{
		Queries: []types.SearchQueryPlan{
			{Provider: types.SourcePubMed, Query: "caffeine AND sleep"},
			{Provider: types.SourceArxiv, Query: "all:caffeine"},
		},
	})
	require.NoError(t, err)

	assert.Len(t, res.Papers, 2)
	assert.Empty(t, res.Errors)
	assert.Equal(t, 1, res.TotalByProvider[types.SourcePubMed])
	assert.Equal(t, "pubmed:1", findPaper(t, res.Papers, "Caffeine and sleep").ID)
}

func TestSearchIsolatesProviderFailure(t *testing.T) {
	healthy := &stubProvider{name: types.SourcePubMed, papers: []types.SearchPaper{
		{Source: types.SourcePubMed, ExternalID: "7", Title: "Working paper", Year: 2022},
	}}
	broken := &stubProvider{name: types.SourceCrossRef, err: fmt.Errorf("upstream unavailable")}
	svc := New(sources.NewRegistry(healthy, broken), types.SearchConfig{ParallelSearches: true})

	res, err := svc.Search(context.Background(), Request{
		Queries: []types.SearchQueryPlan{
			{Provider: types.SourcePubMed, Query: "paper"},
			{Provider: types.SourceCrossRef, Query: "paper"},
		},
	})
	require.NoError(t, err)

	assert.Len(t, res.Papers, 1)
	assert.Contains(t, res.Errors[types.SourceCrossRef], "upstream unavailable")
}

func TestSearchUnknownProviderRecordedAsError(t *testing.T) {
	svc := New(sources.NewRegistry(), types.SearchConfig{})

	res, err := svc.Search(context.Background(), Request{
		Queries: []types.SearchQueryPlan{{Provider: "scopus", Query: "anything"}},
	})
	require.NoError(t, err)
	assert.Empty(t, res.Papers)
	assert.Contains(t, res.Errors[types.PaperSource("scopus")], "unknown provider")
}

func TestSearchNoQueriesFails(t *testing.T) {
	svc := New(sources.NewRegistry(), types.SearchConfig{})
	_, err := svc.Search(context.Background(), Request{})
	require.Error(t, err)
}

func TestSearchDeduplicatesCrossProvider(t *testing.T) {
	pubmed := &stubProvider{name: types.SourcePubMed, papers: []types.SearchPaper{
		{Source: types.SourcePubMed, ExternalID: "1", Title: "Shared result", Year: 2023, DOI: "10.1/shared"},
	}}
	epmc := &stubProvider{name: types.SourceEuropePMC, papers: []types.SearchPaper{
		{Source: types.SourceEuropePMC, ExternalID: "E1", Title: "Shared result", Year: 2023, DOI: "10.1/shared", Abstract: "full record"},
	}}
	svc := New(sources.NewRegistry(pubmed, epmc), types.SearchConfig{})

	res, err := svc.Search(context.Background(), Request{
		Queries: []types.SearchQueryPlan{
			{Provider: types.SourcePubMed, Query: "shared"},
			{Provider: types.SourceEuropePMC, Query: "shared"},
		},
	})
	require.NoError(t, err)
	require.Len(t, res.Papers, 1)
	assert.Equal(t, 1, res.DupsRemoved)
	assert.Equal(t, "full record", res.Papers[0].Abstract)
}

func TestSearchPassesFiltersThrough(t *testing.T) {
	p := &stubProvider{name: types.SourcePubMed}
	svc := New(sources.NewRegistry(p), types.SearchConfig{MaxResults: 15})

	from := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	_, err := svc.Search(context.Background(), Request{
		Queries:        []types.SearchQueryPlan{{Provider: types.SourcePubMed, Query: "q"}},
		DateFrom:       from,
		ArticleTypes:   []string{"review"},
		Language:       "eng",
		OpenAccessOnly: true,
	})
	require.NoError(t, err)

	require.Len(t, p.searched, 1)
	got := p.searched[0]
	assert.Equal(t, from, got.DateFrom)
	assert.Equal(t, []string{"review"}, got.ArticleTypes)
	assert.Equal(t, "eng", got.Language)
	assert.True(t, got.OpenAccessOnly)
	assert.Equal(t, 15, got.MaxResults)
}

func TestSearchProviderTimeout(t *testing.T) {
	slow := &stubProvider{name: types.SourceArxiv, delay: 200 * time.Millisecond}
	fast := &stubProvider{name: types.SourcePubMed, papers: []types.SearchPaper{
		{Source: types.SourcePubMed, ExternalID: "9", Title: "Quick answer", Year: 2024},
	}}
	svc := New(sources.NewRegistry(slow, fast), types.SearchConfig{
		ParallelSearches: true,
		ProviderTimeout:  20 * time.Millisecond,
	})

	res, err := svc.Search(context.Background(), Request{
		Queries: []types.SearchQueryPlan{
			{Provider: types.SourceArxiv, Query: "slow"},
			{Provider: types.SourcePubMed, Query: "fast"},
		},
	})
	require.NoError(t, err)
	assert.Len(t, res.Papers, 1)
	assert.Contains(t, res.Errors, types.SourceArxiv)
}

func TestQueryTerms(t *testing.T) {
	terms := queryTerms(`("gut microbiome" AND exercise) OR athletes NOT pm`)
	assert.Equal(t, []string{"gut", "microbiome", "exercise", "athletes"}, terms)
}

func findPaper(t *testing.T, papers []types.SearchPaper, title string) types.SearchPaper {
	t.Helper()
	for _, p := range papers {
		if p.Title == title {
			return p
		}
	}
	t.Fatalf("paper %q not in results", title)
	return types.SearchPaper{}
}
