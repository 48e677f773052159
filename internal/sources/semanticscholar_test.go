// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const semanticSearchFixture = `{
  "total": 120,
  "offset": 0,
  "next": 10,
  "data": [
    {
      "paperId": "abc123",
      "title": "Caffeine effects on vigilance",
      "abstract": "We measured vigilance.",
      "year": 2021,
      "venue": "Psychopharmacology",
      "url": "https://semanticscholar.org/paper/abc123",
      "citationCount": 57,
      "isOpenAccess": true,
      "openAccessPdf": {"url": "https://example.org/p.pdf"},
      "authors": [{"authorId": "1", "name": "A. Turing"}],
      "externalIds": {"DOI": "10.1000/psy.2021.9"}
    }
  ]
}`

func TestSemanticScholarSearchMapsPapers(t *testing.T) {
	var gotHeader string
	var gotYear string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/paper/search", r.URL.Path)
		gotHeader = r.Header.Get("x-api-key")
		gotYear = r.URL.Query().Get("year")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(semanticSearchFixture))
	}))
	defer ts.Close()

	orig := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = orig }()

	cfg := testProviderConfig()
	cfg.APIKey = "s2-key"
	s := NewSemanticScholar(cfg, nil)

	resp, err := s.Search(context.Background(), SearchQuery{
		Query:    "caffeine vigilance",
		DateFrom: date(2019, 1, 1),
		DateTo:   date(2023, 12, 31),
	})
	require.NoError(t, err)

	assert.Equal(t, "s2-key", gotHeader)
	assert.Equal(t, "2019-2023", gotYear)
	assert.Equal(t, 120, resp.TotalResults)
	require.NotNil(t, resp.NextOffset)
	assert.Equal(t, 10, *resp.NextOffset)

	require.Len(t, resp.Papers, 1)
	p := resp.Papers[0]
	assert.Equal(t, "abc123", p.ExternalID)
	assert.Equal(t, "10.1000/psy.2021.9", p.DOI)
	assert.Equal(t, 2021, p.Year)
	assert.Equal(t, "Psychopharmacology", p.Journal)
	require.NotNil(t, p.CitationCount)
	assert.Equal(t, 57, *p.CitationCount)
	assert.True(t, p.OpenAccess)
	assert.Equal(t, "https://example.org/p.pdf", p.PDFURL)
}

func TestSemanticScholarCitingPapers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/paper/abc123/citations", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"citingPaper":{"paperId":"x1","title":"Citing work","year":2022}}]}`))
	}))
	defer ts.Close()

	orig := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = orig }()

	s := NewSemanticScholar(testProviderConfig(), nil)
	papers, err := s.CitingPapers(context.Background(), "abc123", 5)
	require.NoError(t, err)

	require.Len(t, papers, 1)
	assert.Equal(t, "x1", papers[0].ExternalID)
	assert.Equal(t, "Citing work", papers[0].Title)
}

func TestSemanticScholarReferencedPapers(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/paper/abc123/references", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"data":[{"citedPaper":{"paperId":"r1","title":"Cited work","year":2018}}]}`))
	}))
	defer ts.Close()

	orig := semanticAPIBase
	semanticAPIBase = ts.URL
	defer func() { semanticAPIBase = orig }()

	s := NewSemanticScholar(testProviderConfig(), nil)
	papers, err := s.ReferencedPapers(context.Background(), "abc123", 5)
	require.NoError(t, err)

	require.Len(t, papers, 1)
	assert.Equal(t, "r1", papers[0].ExternalID)
}
