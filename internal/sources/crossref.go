// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// crossrefAPIBase is the CrossRef REST root. Declared as a var so tests
// can substitute an httptest server.
var crossrefAPIBase = "https://api.crossref.org"

// crossrefArticleTypes maps shared article-type filters to CrossRef type
// filter values.
var crossrefArticleTypes = map[string]string{
	"journal_article": "journal-article",
	"review":          "journal-article",
	"book_chapter":    "book-chapter",
	"proceedings":     "proceedings-article",
}

// jatsTagPattern strips JATS markup from CrossRef abstracts.
var jatsTagPattern = regexp.MustCompile(`<[^>]+>`)

// CrossRef queries the CrossRef works API. The mailto parameter routes
// requests through the polite pool. CrossRef exposes outgoing references
// on the work record but no citing direction, which reports empty.
type CrossRef struct {
	client *httputil.Client
	cfg    types.ProviderConfig
}

// NewCrossRef builds the CrossRef provider.
func NewCrossRef(cfg types.ProviderConfig, obs httputil.Observer) *CrossRef {
	return &CrossRef{client: httputil.NewClient(string(types.SourceCrossRef), cfg, obs), cfg: cfg}
}

// Name returns the provider identifier.
func (c *CrossRef) Name() types.PaperSource { return types.SourceCrossRef }

// IsAvailable probes the works endpoint.
func (c *CrossRef) IsAvailable(ctx context.Context) bool {
	var out crossrefWorksResponse
	err := c.getJSON(ctx, "/works", url.Values{"rows": {"0"}, "query": {"test"}}, &out)
	return err == nil
}

// Search queries the works endpoint with query.bibliographic. Date ranges
// become from-pub-date/until-pub-date filters; article types become type
// filters; CrossRef has no language filter or open-access flag filter
// worth relying on, so those are ignored.
func (c *CrossRef) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	if query.Query == "" {
		return nil, fmt.Errorf("empty CrossRef query")
	}

	rows := query.MaxResults
	if rows <= 0 {
		rows = 20
	}

	params := url.Values{
		"query.bibliographic": {query.Query},
		"rows":                {strconv.Itoa(rows)},
		"offset":              {strconv.Itoa(query.Offset)},
	}

	var filters []string
	if !query.DateFrom.IsZero() {
		filters = append(filters, "from-pub-date:"+query.DateFrom.Format("2006-01-02"))
	}
	if !query.DateTo.IsZero() {
		filters = append(filters, "until-pub-date:"+query.DateTo.Format("2006-01-02"))
	}
	for _, at := range query.ArticleTypes {
		if t, ok := crossrefArticleTypes[at]; ok {
			filters = append(filters, "type:"+t)
		}
	}
	if len(filters) > 0 {
		params.Set("filter", strings.Join(filters, ","))
	}

	var wr crossrefWorksResponse
	if err := c.getJSON(ctx, "/works", params, &wr); err != nil {
		return nil, err
	}

	resp := &SearchResponse{TotalResults: wr.Message.TotalResults}
	for _, work := range wr.Message.Items {
		resp.Papers = append(resp.Papers, crossrefToPaper(work))
	}
	if next := query.Offset + len(wr.Message.Items); next < wr.Message.TotalResults && len(wr.Message.Items) > 0 {
		resp.NextOffset = intPtr(next)
	}
	return resp, nil
}

// PaperDetails fetches one work by DOI.
func (c *CrossRef) PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error) {
	var wr crossrefWorkResponse
	if err := c.getJSON(ctx, "/works/"+url.PathEscape(externalID), nil, &wr); err != nil {
		return nil, err
	}
	p := crossrefToPaper(wr.Message)
	return &p, nil
}

// CitingPapers reports no results: CrossRef exposes no citing direction.
func (c *CrossRef) CitingPapers(context.Context, string, int) ([]types.SearchPaper, error) {
	return nil, nil
}

// ReferencedPapers reads the reference list off the work record. Entries
// without a resolvable DOI or title are skipped.
func (c *CrossRef) ReferencedPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	if limit <= 0 {
		limit = 10
	}
	var wr crossrefWorkResponse
	if err := c.getJSON(ctx, "/works/"+url.PathEscape(externalID), nil, &wr); err != nil {
		return nil, err
	}

	var papers []types.SearchPaper
	for _, ref := range wr.Message.References {
		if len(papers) >= limit {
			break
		}
		title := ref.ArticleTitle
		if title == "" {
			title = ref.VolumeTitle
		}
		if ref.DOI == "" && title == "" {
			continue
		}
		p := types.SearchPaper{
			Source:     types.SourceCrossRef,
			ExternalID: types.NormalizeDOI(ref.DOI),
			Title:      title,
			DOI:        types.NormalizeDOI(ref.DOI),
		}
		if ref.Author != "" {
			p.Authors = []string{ref.Author}
		}
		if y, err := strconv.Atoi(ref.Year); err == nil {
			p.Year = y
		}
		papers = append(papers, p)
	}
	return papers, nil
}

func (c *CrossRef) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	if params == nil {
		params = url.Values{}
	}
	if c.cfg.Email != "" {
		params.Set("mailto", c.cfg.Email)
	}

	reqURL := crossrefAPIBase + path
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", c.cfg.UserAgent)

	resp, err := c.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("CrossRef API request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing CrossRef response: %w", err)
	}
	return nil
}

func crossrefToPaper(work crossrefWork) types.SearchPaper {
	p := types.SearchPaper{
		Source:     types.SourceCrossRef,
		ExternalID: types.NormalizeDOI(work.DOI),
		DOI:        types.NormalizeDOI(work.DOI),
		URL:        work.URL,
	}
	if len(work.Title) > 0 {
		p.Title = work.Title[0]
	}
	if len(work.ContainerTitle) > 0 {
		p.Journal = work.ContainerTitle[0]
	}
	for _, a := range work.Author {
		name := strings.TrimSpace(a.Given + " " + a.Family)
		if name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if len(work.Issued.DateParts) > 0 && len(work.Issued.DateParts[0]) > 0 {
		p.Year = work.Issued.DateParts[0][0]
	}
	if work.Abstract != "" {
		p.Abstract = strings.TrimSpace(jatsTagPattern.ReplaceAllString(work.Abstract, ""))
	}
	if work.IsReferencedByCount != nil {
		p.CitationCount = intPtr(*work.IsReferencedByCount)
	}
	for _, link := range work.Link {
		if link.ContentType == "application/pdf" {
			p.PDFURL = link.URL
			break
		}
	}
	// CrossRef marks open licenses rather than open access; the presence
	// of any license link is the closest proxy.
	p.OpenAccess = len(work.License) > 0
	return p
}

// CrossRef REST JSON structures.
type crossrefWorksResponse struct {
	Message struct {
		TotalResults int            `json:"total-results"`
		Items        []crossrefWork `json:"items"`
	} `json:"message"`
}

type crossrefWorkResponse struct {
	Message crossrefWork `json:"message"`
}

type crossrefWork struct {
	DOI            string   `json:"DOI"`
	Title          []string `json:"title"`
	ContainerTitle []string `json:"container-title"`
	URL            string   `json:"URL"`
	Abstract       string   `json:"abstract"`
	Author         []struct {
		Given  string `json:"given"`
		Family string `json:"family"`
	} `json:"author"`
	Issued struct {
		DateParts [][]int `json:"date-parts"`
	} `json:"issued"`
	IsReferencedByCount *int `json:"is-referenced-by-count"`
	Link                []struct {
		URL         string `json:"URL"`
		ContentType string `json:"content-type"`
	} `json:"link"`
	License []struct {
		URL string `json:"URL"`
	} `json:"license"`
	References []struct {
		DOI          string `json:"DOI"`
		ArticleTitle string `json:"article-title"`
		VolumeTitle  string `json:"volume-title"`
		Author       string `json:"author"`
		Year         string `json:"year"`
	} `json:"reference"`
}
