// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// europePMCAPIBase is the Europe PMC REST root. Declared as a var so tests
// can substitute an httptest server.
var europePMCAPIBase = "https://www.ebi.ac.uk/europepmc/webservices/rest"

// europePMCArticleTypes maps shared article-type filters onto Europe PMC
// PUB_TYPE query clauses.
var europePMCArticleTypes = map[string]string{
	"review":         `PUB_TYPE:"Review"`,
	"clinical_trial": `PUB_TYPE:"Clinical Trial"`,
	"meta_analysis":  `PUB_TYPE:"Meta-Analysis"`,
}

// EuropePMC queries the Europe PMC REST API, including its citation and
// reference endpoints.
type EuropePMC struct {
	client *httputil.Client
	cfg    types.ProviderConfig
}

// NewEuropePMC builds the Europe PMC provider.
func NewEuropePMC(cfg types.ProviderConfig, obs httputil.Observer) *EuropePMC {
	return &EuropePMC{client: httputil.NewClient(string(types.SourceEuropePMC), cfg, obs), cfg: cfg}
}

// Name returns the provider identifier.
func (e *EuropePMC) Name() types.PaperSource { return types.SourceEuropePMC }

// IsAvailable probes the search endpoint.
func (e *EuropePMC) IsAvailable(ctx context.Context) bool {
	var out europePMCSearchResponse
	err := e.getJSON(ctx, "/search", url.Values{"query": {"test"}, "pageSize": {"1"}, "format": {"json"}}, &out)
	return err == nil
}

// Search queries the REST search endpoint. Filters fold into the query
// string: date ranges as FIRST_PDATE ranges, language as LANG, article
// types as PUB_TYPE, open access as OPEN_ACCESS:Y.
func (e *EuropePMC) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	if strings.TrimSpace(query.Query) == "" {
		return nil, fmt.Errorf("empty Europe PMC query")
	}

	pageSize := query.MaxResults
	if pageSize <= 0 {
		pageSize = 20
	}

	params := url.Values{
		"query":      {buildEuropePMCQuery(query)},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {strconv.Itoa(pageSize)},
	}
	// Europe PMC pages are 1-based.
	params.Set("page", strconv.Itoa(query.Offset/pageSize+1))

	var sr europePMCSearchResponse
	if err := e.getJSON(ctx, "/search", params, &sr); err != nil {
		return nil, err
	}

	resp := &SearchResponse{TotalResults: sr.HitCount}
	for _, result := range sr.ResultList.Result {
		resp.Papers = append(resp.Papers, europePMCToPaper(result))
	}
	if next := query.Offset + len(resp.Papers); next < sr.HitCount && len(resp.Papers) > 0 {
		resp.NextOffset = intPtr(next)
	}
	return resp, nil
}

// PaperDetails fetches one record by its Europe PMC ID via an exact query.
func (e *EuropePMC) PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error) {
	params := url.Values{
		"query":      {"EXT_ID:" + externalID},
		"format":     {"json"},
		"resultType": {"core"},
		"pageSize":   {"1"},
	}
	var sr europePMCSearchResponse
	if err := e.getJSON(ctx, "/search", params, &sr); err != nil {
		return nil, err
	}
	if len(sr.ResultList.Result) == 0 {
		return nil, fmt.Errorf("Europe PMC record %s not found", externalID)
	}
	p := europePMCToPaper(sr.ResultList.Result[0])
	return &p, nil
}

// CitingPapers fetches the citations endpoint for a record.
func (e *EuropePMC) CitingPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return e.linked(ctx, externalID, "citations", limit)
}

// ReferencedPapers fetches the references endpoint for a record.
func (e *EuropePMC) ReferencedPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return e.linked(ctx, externalID, "references", limit)
}

func (e *EuropePMC) linked(ctx context.Context, externalID, direction string, limit int) ([]types.SearchPaper, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"format":   {"json"},
		"page":     {"1"},
		"pageSize": {strconv.Itoa(limit)},
	}

	path := "/MED/" + url.PathEscape(externalID) + "/" + direction
	var lr europePMCLinkResponse
	if err := e.getJSON(ctx, path, params, &lr); err != nil {
		return nil, err
	}

	list := lr.CitationList.Citation
	if direction == "references" {
		list = lr.ReferenceList.Reference
	}

	var papers []types.SearchPaper
	for _, item := range list {
		papers = append(papers, europePMCToPaper(item))
	}
	return papers, nil
}

func (e *EuropePMC) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, europePMCAPIBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", e.cfg.UserAgent)

	resp, err := e.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("Europe PMC API request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing Europe PMC response: %w", err)
	}
	return nil
}

func buildEuropePMCQuery(query SearchQuery) string {
	parts := []string{query.Query}

	if !query.DateFrom.IsZero() || !query.DateTo.IsZero() {
		from := "1900-01-01"
		to := "3000-01-01"
		if !query.DateFrom.IsZero() {
			from = query.DateFrom.Format("2006-01-02")
		}
		if !query.DateTo.IsZero() {
			to = query.DateTo.Format("2006-01-02")
		}
		parts = append(parts, fmt.Sprintf("FIRST_PDATE:[%s TO %s]", from, to))
	}
	if query.Language != "" {
		parts = append(parts, fmt.Sprintf("LANG:%q", query.Language))
	}
	for _, at := range query.ArticleTypes {
		if clause, ok := europePMCArticleTypes[at]; ok {
			parts = append(parts, clause)
		}
	}
	if query.OpenAccessOnly {
		parts = append(parts, "OPEN_ACCESS:Y")
	}
	return strings.Join(parts, " AND ")
}

func europePMCToPaper(r europePMCResult) types.SearchPaper {
	p := types.SearchPaper{
		Source:     types.SourceEuropePMC,
		ExternalID: r.ID,
		Title:      r.Title,
		Abstract:   r.AbstractText,
		Journal:    r.JournalTitle,
		DOI:        types.NormalizeDOI(r.DOI),
		OpenAccess: r.IsOpenAccess == "Y",
	}
	if r.ID == "" {
		p.ExternalID = r.PMID
	}
	if r.AuthorString != "" {
		for _, a := range strings.Split(r.AuthorString, ",") {
			if name := strings.TrimSpace(strings.TrimSuffix(a, ".")); name != "" {
				p.Authors = append(p.Authors, name)
			}
		}
	}
	if y, err := strconv.Atoi(r.PubYear); err == nil {
		p.Year = y
	}
	if r.CitedByCount != nil {
		p.CitationCount = intPtr(*r.CitedByCount)
	}
	for _, u := range r.FullTextURLList.FullTextURL {
		if u.DocumentStyle == "pdf" {
			p.PDFURL = u.URL
			break
		}
	}
	if p.URL == "" && r.DOI != "" {
		p.URL = "https://doi.org/" + types.NormalizeDOI(r.DOI)
	}
	return p
}

// Europe PMC REST JSON structures.
type europePMCSearchResponse struct {
	HitCount   int `json:"hitCount"`
	ResultList struct {
		Result []europePMCResult `json:"result"`
	} `json:"resultList"`
}

type europePMCLinkResponse struct {
	CitationList struct {
		Citation []europePMCResult `json:"citation"`
	} `json:"citationList"`
	ReferenceList struct {
		Reference []europePMCResult `json:"reference"`
	} `json:"referenceList"`
}

type europePMCResult struct {
	ID              string `json:"id"`
	PMID            string `json:"pmid"`
	DOI             string `json:"doi"`
	Title           string `json:"title"`
	AuthorString    string `json:"authorString"`
	JournalTitle    string `json:"journalTitle"`
	PubYear         string `json:"pubYear"`
	AbstractText    string `json:"abstractText"`
	IsOpenAccess    string `json:"isOpenAccess"`
	CitedByCount    *int   `json:"citedByCount"`
	FullTextURLList struct {
		FullTextURL []struct {
			URL           string `json:"url"`
			DocumentStyle string `json:"documentStyle"`
		} `json:"fullTextUrl"`
	} `json:"fullTextUrlList"`
}
