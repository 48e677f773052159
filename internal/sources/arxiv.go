// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// arxivAPIBase is the arXiv query endpoint. Declared as a var so tests can
// substitute an httptest server.
var arxivAPIBase = "https://export.arxiv.org/api/query"

// Arxiv queries the arXiv Atom API. arXiv publishes no citation data, so
// the citation operations report graceful empty results.
type Arxiv struct {
	client *httputil.Client
	cfg    types.ProviderConfig
}

// NewArxiv builds the arXiv provider.
func NewArxiv(cfg types.ProviderConfig, obs httputil.Observer) *Arxiv {
	return &Arxiv{client: httputil.NewClient(string(types.SourceArxiv), cfg, obs), cfg: cfg}
}

// Name returns the provider identifier.
func (a *Arxiv) Name() types.PaperSource { return types.SourceArxiv }

// IsAvailable probes the API with a minimal query.
func (a *Arxiv) IsAvailable(ctx context.Context) bool {
	_, err := a.fetch(ctx, url.Values{
		"search_query": {"all:test"},
		"max_results":  {"0"},
	})
	return err == nil
}

// Search queries the arXiv API. Date ranges translate into a submittedDate
// filter clause; article-type, language, and open-access filters have no
// arXiv equivalent (every arXiv paper is openly readable).
func (a *Arxiv) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	if strings.TrimSpace(query.Query) == "" {
		return nil, fmt.Errorf("empty arXiv query")
	}

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	q := buildArxivQuery(query)
	feed, err := a.fetch(ctx, url.Values{
		"search_query": {q},
		"start":        {strconv.Itoa(query.Offset)},
		"max_results":  {strconv.Itoa(maxResults)},
		"sortBy":       {"relevance"},
		"sortOrder":    {"descending"},
	})
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{TotalResults: feed.TotalResults}
	for _, entry := range feed.Entries {
		if p := entryToPaper(entry); p != nil {
			resp.Papers = append(resp.Papers, *p)
		}
	}
	if next := query.Offset + len(resp.Papers); next < feed.TotalResults && len(resp.Papers) > 0 {
		resp.NextOffset = intPtr(next)
	}
	return resp, nil
}

// PaperDetails fetches one paper by arXiv ID via the id_list parameter.
func (a *Arxiv) PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error) {
	feed, err := a.fetch(ctx, url.Values{
		"id_list":     {externalID},
		"max_results": {"1"},
	})
	if err != nil {
		return nil, err
	}
	if len(feed.Entries) == 0 {
		return nil, fmt.Errorf("arXiv paper %s not found", externalID)
	}
	p := entryToPaper(feed.Entries[0])
	if p == nil {
		return nil, fmt.Errorf("arXiv paper %s not found", externalID)
	}
	return p, nil
}

// CitingPapers reports no results: arXiv has no citation index.
func (a *Arxiv) CitingPapers(context.Context, string, int) ([]types.SearchPaper, error) {
	return nil, nil
}

// ReferencedPapers reports no results: arXiv has no citation index.
func (a *Arxiv) ReferencedPapers(context.Context, string, int) ([]types.SearchPaper, error) {
	return nil, nil
}

func (a *Arxiv) fetch(ctx context.Context, params url.Values) (*arxivFeed, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, arxivAPIBase+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", a.cfg.UserAgent)

	resp, err := a.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("arXiv API request: %w", err)
	}
	defer resp.Body.Close()

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("parsing arXiv response: %w", err)
	}
	return &feed, nil
}

// buildArxivQuery translates the query into arXiv field syntax. The boolean
// expression is passed through in the all: field; quoted phrases survive as
// arXiv phrase searches.
func buildArxivQuery(query SearchQuery) string {
	parts := []string{"all:" + query.Query}

	if !query.DateFrom.IsZero() || !query.DateTo.IsZero() {
		from := "000101010000"
		to := "999912312359"
		if !query.DateFrom.IsZero() {
			from = query.DateFrom.Format("200601021504")
		}
		if !query.DateTo.IsZero() {
			to = query.DateTo.Format("200601021504")
		}
		parts = append(parts, fmt.Sprintf("submittedDate:[%s TO %s]", from, to))
	}

	return strings.Join(parts, " AND ")
}

func entryToPaper(entry arxivEntry) *types.SearchPaper {
	arxivID := extractArxivID(entry.ID)
	if arxivID == "" {
		return nil
	}

	p := &types.SearchPaper{
		Source:     types.SourceArxiv,
		ExternalID: arxivID,
		Title:      strings.Join(strings.Fields(entry.Title), " "),
		Abstract:   strings.TrimSpace(entry.Summary),
		DOI:        types.NormalizeDOI(entry.DOI),
		URL:        "https://arxiv.org/abs/" + arxivID,
		PDFURL:     "https://arxiv.org/pdf/" + arxivID,
		OpenAccess: true,
	}
	for _, a := range entry.Authors {
		p.Authors = append(p.Authors, strings.TrimSpace(a.Name))
	}
	if t, err := time.Parse(time.RFC3339, entry.Published); err == nil {
		p.Year = t.Year()
	}
	if entry.JournalRef != "" {
		p.Journal = strings.TrimSpace(entry.JournalRef)
	}
	return p
}

// arXiv Atom feed XML structures.
type arxivFeed struct {
	TotalResults int          `xml:"totalResults"`
	Entries      []arxivEntry `xml:"entry"`
}

type arxivEntry struct {
	ID         string        `xml:"id"`
	Title      string        `xml:"title"`
	Summary    string        `xml:"summary"`
	Published  string        `xml:"published"`
	DOI        string        `xml:"doi"`
	JournalRef string        `xml:"journal_ref"`
	Authors    []arxivAuthor `xml:"author"`
}

type arxivAuthor struct {
	Name string `xml:"name"`
}

// extractArxivID pulls the arXiv ID from the entry's <id> URL
// (e.g. "http://arxiv.org/abs/2301.07041v1" → "2301.07041").
func extractArxivID(idURL string) string {
	const prefix = "/abs/"
	idx := strings.Index(idURL, prefix)
	if idx < 0 {
		return ""
	}
	id := idURL[idx+len(prefix):]

	// Strip version suffix (e.g. "v1", "v2").
	if vIdx := strings.LastIndex(id, "v"); vIdx > 0 {
		if _, err := strconv.Atoi(id[vIdx+1:]); err == nil {
			id = id[:vIdx]
		}
	}
	return id
}
