// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// semanticAPIBase is the Semantic Scholar Graph API v1 root. Declared as a
// var so tests can substitute an httptest server.
var semanticAPIBase = "https://api.semanticscholar.org/graph/v1"

const semanticFields = "title,abstract,authors,externalIds,year,venue,url,citationCount,isOpenAccess,openAccessPdf"

// SemanticScholar queries the Semantic Scholar Graph API v1. An API key
// sent via the x-api-key header raises the rate limit.
type SemanticScholar struct {
	client *httputil.Client
	cfg    types.ProviderConfig
}

// NewSemanticScholar builds the Semantic Scholar provider.
func NewSemanticScholar(cfg types.ProviderConfig, obs httputil.Observer) *SemanticScholar {
	return &SemanticScholar{client: httputil.NewClient(string(types.SourceSemanticScholar), cfg, obs), cfg: cfg}
}

// Name returns the provider identifier.
func (s *SemanticScholar) Name() types.PaperSource { return types.SourceSemanticScholar }

// IsAvailable probes the search endpoint with an empty-budget query.
func (s *SemanticScholar) IsAvailable(ctx context.Context) bool {
	var out semanticSearchResponse
	err := s.getJSON(ctx, "/paper/search", url.Values{"query": {"test"}, "limit": {"1"}}, &out)
	return err == nil
}

// Search queries the paper search endpoint. Date ranges translate into the
// year filter; open access into the openAccessPdf flag.
func (s *SemanticScholar) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	if query.Query == "" {
		return nil, fmt.Errorf("empty Semantic Scholar query")
	}

	limit := query.MaxResults
	if limit <= 0 {
		limit = 20
	}

	params := url.Values{
		"query":  {query.Query},
		"limit":  {strconv.Itoa(limit)},
		"offset": {strconv.Itoa(query.Offset)},
		"fields": {semanticFields},
	}
	if yr := yearRange(query.DateFrom, query.DateTo); yr != "" {
		params.Set("year", yr)
	}
	if query.OpenAccessOnly {
		params.Set("openAccessPdf", "")
	}

	var sr semanticSearchResponse
	if err := s.getJSON(ctx, "/paper/search", params, &sr); err != nil {
		return nil, err
	}

	resp := &SearchResponse{TotalResults: sr.Total}
	for _, paper := range sr.Data {
		resp.Papers = append(resp.Papers, semanticToPaper(paper))
	}
	if sr.Next > 0 {
		resp.NextOffset = intPtr(sr.Next)
	}
	return resp, nil
}

// PaperDetails fetches one paper by Semantic Scholar ID, DOI, or arXiv ID.
func (s *SemanticScholar) PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error) {
	var paper semanticPaper
	params := url.Values{"fields": {semanticFields}}
	if err := s.getJSON(ctx, "/paper/"+url.PathEscape(externalID), params, &paper); err != nil {
		return nil, err
	}
	p := semanticToPaper(paper)
	return &p, nil
}

// CitingPapers fetches papers citing the given one.
func (s *SemanticScholar) CitingPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return s.linked(ctx, externalID, "citations", limit)
}

// ReferencedPapers fetches papers the given one cites.
func (s *SemanticScholar) ReferencedPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return s.linked(ctx, externalID, "references", limit)
}

func (s *SemanticScholar) linked(ctx context.Context, externalID, direction string, limit int) ([]types.SearchPaper, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"fields": {semanticFields},
		"limit":  {strconv.Itoa(limit)},
	}
	var lr semanticLinkResponse
	path := "/paper/" + url.PathEscape(externalID) + "/" + direction
	if err := s.getJSON(ctx, path, params, &lr); err != nil {
		return nil, err
	}

	var papers []types.SearchPaper
	for _, entry := range lr.Data {
		linked := entry.CitingPaper
		if direction == "references" {
			linked = entry.CitedPaper
		}
		if linked.PaperID == "" && linked.Title == "" {
			continue
		}
		papers = append(papers, semanticToPaper(linked))
	}
	return papers, nil
}

func (s *SemanticScholar) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, semanticAPIBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)
	if s.cfg.APIKey != "" {
		req.Header.Set("x-api-key", s.cfg.APIKey)
	}

	resp, err := s.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("Semantic Scholar API request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Semantic Scholar response: %w", err)
	}
	return nil
}

// yearRange returns a Semantic Scholar year filter (e.g. "2020-2023").
func yearRange(from, to time.Time) string {
	switch {
	case !from.IsZero() && !to.IsZero():
		return fmt.Sprintf("%d-%d", from.Year(), to.Year())
	case !from.IsZero():
		return fmt.Sprintf("%d-", from.Year())
	case !to.IsZero():
		return fmt.Sprintf("-%d", to.Year())
	default:
		return ""
	}
}

func semanticToPaper(paper semanticPaper) types.SearchPaper {
	p := types.SearchPaper{
		Source:     types.SourceSemanticScholar,
		ExternalID: paper.PaperID,
		Title:      paper.Title,
		Abstract:   paper.Abstract,
		Year:       paper.Year,
		Journal:    paper.Venue,
		DOI:        types.NormalizeDOI(paper.ExternalIDs.DOI),
		URL:        paper.URL,
		OpenAccess: paper.IsOpenAccess,
	}
	for _, a := range paper.Authors {
		p.Authors = append(p.Authors, a.Name)
	}
	if paper.CitationCount != nil {
		p.CitationCount = intPtr(*paper.CitationCount)
	}
	if paper.OpenAccessPdf != nil {
		p.PDFURL = paper.OpenAccessPdf.URL
	}
	return p
}

// Semantic Scholar Graph API JSON structures.
type semanticSearchResponse struct {
	Total  int             `json:"total"`
	Offset int             `json:"offset"`
	Next   int             `json:"next"`
	Data   []semanticPaper `json:"data"`
}

type semanticLinkResponse struct {
	Data []struct {
		CitingPaper semanticPaper `json:"citingPaper"`
		CitedPaper  semanticPaper `json:"citedPaper"`
	} `json:"data"`
}

type semanticPaper struct {
	PaperID       string              `json:"paperId"`
	Title         string              `json:"title"`
	Abstract      string              `json:"abstract"`
	Year          int                 `json:"year"`
	Venue         string              `json:"venue"`
	URL           string              `json:"url"`
	CitationCount *int                `json:"citationCount"`
	IsOpenAccess  bool                `json:"isOpenAccess"`
	OpenAccessPdf *semanticOAPdf      `json:"openAccessPdf"`
	Authors       []semanticAuthor    `json:"authors"`
	ExternalIDs   semanticExternalIDs `json:"externalIds"`
}

type semanticOAPdf struct {
	URL string `json:"url"`
}

type semanticAuthor struct {
	AuthorID string `json:"authorId"`
	Name     string `json:"name"`
}

type semanticExternalIDs struct {
	DOI   string `json:"DOI"`
	ArXiv string `json:"ArXiv"`
	PMID  string `json:"PubMed"`
}
