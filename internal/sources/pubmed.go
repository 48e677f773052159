// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package sources

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/pdiddy/litreview/internal/httputil"
	"github.com/pdiddy/litreview/pkg/types"
)

// pubmedAPIBase is the NCBI E-utilities root. Declared as a var so tests
// can substitute an httptest server.
var pubmedAPIBase = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// pubmedArticleTypes maps shared article-type filters to PubMed
// publication-type terms.
var pubmedArticleTypes = map[string]string{
	"review":         "Review[pt]",
	"clinical_trial": "Clinical Trial[pt]",
	"meta_analysis":  "Meta-Analysis[pt]",
	"rct":            "Randomized Controlled Trial[pt]",
}

// PubMed queries NCBI E-utilities: esearch.fcgi for PMIDs, efetch.fcgi for
// article XML, and elink.fcgi for the citation graph. An api_key parameter
// raises the rate limit.
type PubMed struct {
	client *httputil.Client
	cfg    types.ProviderConfig
}

// NewPubMed builds the PubMed provider.
func NewPubMed(cfg types.ProviderConfig, obs httputil.Observer) *PubMed {
	return &PubMed{client: httputil.NewClient(string(types.SourcePubMed), cfg, obs), cfg: cfg}
}

// Name returns the provider identifier.
func (p *PubMed) Name() types.PaperSource { return types.SourcePubMed }

// IsAvailable probes esearch with a zero-result query.
func (p *PubMed) IsAvailable(ctx context.Context) bool {
	_, _, err := p.esearch(ctx, "test", 0, 0)
	return err == nil
}

// Search runs esearch to collect PMIDs, then efetch to hydrate them. Date
// ranges become mindate/maxdate on publication date; article types and
// language fold into the term as [pt] and [la] clauses. PubMed has no
// machine-readable open-access flag, so OpenAccessOnly maps onto the
// "free full text[sb]" subset.
func (p *PubMed) Search(ctx context.Context, query SearchQuery) (*SearchResponse, error) {
	if strings.TrimSpace(query.Query) == "" {
		return nil, fmt.Errorf("empty PubMed query")
	}

	maxResults := query.MaxResults
	if maxResults <= 0 {
		maxResults = 20
	}

	term := buildPubMedTerm(query)
	params := url.Values{
		"db":       {"pubmed"},
		"term":     {term},
		"retmax":   {strconv.Itoa(maxResults)},
		"retstart": {strconv.Itoa(query.Offset)},
		"retmode":  {"json"},
		"sort":     {"relevance"},
	}
	if !query.DateFrom.IsZero() {
		params.Set("mindate", query.DateFrom.Format("2006/01/02"))
		params.Set("datetype", "pdat")
	}
	if !query.DateTo.IsZero() {
		params.Set("maxdate", query.DateTo.Format("2006/01/02"))
		params.Set("datetype", "pdat")
	}

	ids, total, err := p.esearchRaw(ctx, params)
	if err != nil {
		return nil, err
	}

	resp := &SearchResponse{TotalResults: total}
	if len(ids) > 0 {
		papers, err := p.efetch(ctx, ids)
		if err != nil {
			return nil, err
		}
		resp.Papers = papers
	}
	if next := query.Offset + len(ids); next < total && len(ids) > 0 {
		resp.NextOffset = intPtr(next)
	}
	return resp, nil
}

// PaperDetails fetches one article by PMID.
func (p *PubMed) PaperDetails(ctx context.Context, externalID string) (*types.SearchPaper, error) {
	papers, err := p.efetch(ctx, []string{externalID})
	if err != nil {
		return nil, err
	}
	if len(papers) == 0 {
		return nil, fmt.Errorf("PubMed article %s not found", externalID)
	}
	return &papers[0], nil
}

// CitingPapers resolves the pubmed_pubmed_citedin link set.
func (p *PubMed) CitingPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return p.linked(ctx, externalID, "pubmed_pubmed_citedin", limit)
}

// ReferencedPapers resolves the pubmed_pubmed_refs link set.
func (p *PubMed) ReferencedPapers(ctx context.Context, externalID string, limit int) ([]types.SearchPaper, error) {
	return p.linked(ctx, externalID, "pubmed_pubmed_refs", limit)
}

func (p *PubMed) linked(ctx context.Context, pmid, linkName string, limit int) ([]types.SearchPaper, error) {
	if limit <= 0 {
		limit = 10
	}
	params := url.Values{
		"dbfrom":   {"pubmed"},
		"db":       {"pubmed"},
		"id":       {pmid},
		"linkname": {linkName},
		"retmode":  {"json"},
	}
	p.addKey(params)

	var lr elinkResponse
	if err := p.getJSON(ctx, "/elink.fcgi", params, &lr); err != nil {
		return nil, err
	}

	var ids []string
	for _, linkset := range lr.LinkSets {
		for _, db := range linkset.LinkSetDBs {
			if db.LinkName != linkName {
				continue
			}
			for _, link := range db.Links {
				ids = append(ids, link)
				if len(ids) >= limit {
					break
				}
			}
		}
	}
	if len(ids) == 0 {
		// No link data for this article; a graceful empty result.
		return nil, nil
	}
	return p.efetch(ctx, ids)
}

func (p *PubMed) esearch(ctx context.Context, term string, retmax, retstart int) ([]string, int, error) {
	return p.esearchRaw(ctx, url.Values{
		"db":       {"pubmed"},
		"term":     {term},
		"retmax":   {strconv.Itoa(retmax)},
		"retstart": {strconv.Itoa(retstart)},
		"retmode":  {"json"},
	})
}

func (p *PubMed) esearchRaw(ctx context.Context, params url.Values) ([]string, int, error) {
	p.addKey(params)

	var sr esearchResponse
	if err := p.getJSON(ctx, "/esearch.fcgi", params, &sr); err != nil {
		return nil, 0, err
	}
	total, _ := strconv.Atoi(sr.Result.Count)
	return sr.Result.IDList, total, nil
}

// efetch hydrates PMIDs into papers via PubmedArticleSet XML.
func (p *PubMed) efetch(ctx context.Context, ids []string) ([]types.SearchPaper, error) {
	params := url.Values{
		"db":      {"pubmed"},
		"id":      {strings.Join(ids, ",")},
		"retmode": {"xml"},
	}
	p.addKey(params)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+"/efetch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("PubMed efetch request: %w", err)
	}
	defer resp.Body.Close()

	var set pubmedArticleSet
	if err := xml.NewDecoder(resp.Body).Decode(&set); err != nil {
		return nil, fmt.Errorf("parsing PubMed response: %w", err)
	}

	var papers []types.SearchPaper
	for _, article := range set.Articles {
		papers = append(papers, pubmedToPaper(article))
	}
	return papers, nil
}

func (p *PubMed) getJSON(ctx context.Context, path string, params url.Values, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pubmedAPIBase+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", p.cfg.UserAgent)

	resp, err := p.client.Do(ctx, req)
	if err != nil {
		return fmt.Errorf("PubMed API request: %w", err)
	}
	defer resp.Body.Close()

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("parsing PubMed response: %w", err)
	}
	return nil
}

func (p *PubMed) addKey(params url.Values) {
	if p.cfg.APIKey != "" {
		params.Set("api_key", p.cfg.APIKey)
	}
}

// buildPubMedTerm folds article-type, language, and open-access filters
// into the esearch term.
func buildPubMedTerm(query SearchQuery) string {
	parts := []string{query.Query}
	for _, at := range query.ArticleTypes {
		if pt, ok := pubmedArticleTypes[at]; ok {
			parts = append(parts, pt)
		}
	}
	if query.Language != "" {
		parts = append(parts, query.Language+"[la]")
	}
	if query.OpenAccessOnly {
		parts = append(parts, "free full text[sb]")
	}
	return strings.Join(parts, " AND ")
}

func pubmedToPaper(article pubmedArticle) types.SearchPaper {
	a := article.MedlineCitation.Article
	p := types.SearchPaper{
		Source:     types.SourcePubMed,
		ExternalID: article.MedlineCitation.PMID,
		Title:      strings.TrimSpace(a.ArticleTitle),
		Abstract:   strings.TrimSpace(strings.Join(a.Abstract.Texts, " ")),
		Journal:    a.Journal.Title,
		URL:        "https://pubmed.ncbi.nlm.nih.gov/" + article.MedlineCitation.PMID + "/",
	}
	for _, author := range a.AuthorList.Authors {
		name := strings.TrimSpace(author.ForeName + " " + author.LastName)
		if name == "" {
			name = author.CollectiveName
		}
		if name != "" {
			p.Authors = append(p.Authors, name)
		}
	}
	if y, err := strconv.Atoi(a.Journal.JournalIssue.PubDate.Year); err == nil {
		p.Year = y
	}
	for _, loc := range a.ELocationIDs {
		if loc.EIdType == "doi" {
			p.DOI = types.NormalizeDOI(loc.Value)
		}
	}
	return p
}

// NCBI E-utilities JSON structures.
type esearchResponse struct {
	Result struct {
		Count  string   `json:"count"`
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type elinkResponse struct {
	LinkSets []struct {
		LinkSetDBs []struct {
			LinkName string   `json:"linkname"`
			Links    []string `json:"links"`
		} `json:"linksetdbs"`
	} `json:"linksets"`
}

// PubmedArticleSet XML structures.
type pubmedArticleSet struct {
	XMLName  xml.Name        `xml:"PubmedArticleSet"`
	Articles []pubmedArticle `xml:"PubmedArticle"`
}

type pubmedArticle struct {
	MedlineCitation struct {
		PMID    string `xml:"PMID"`
		Article struct {
			ArticleTitle string `xml:"ArticleTitle"`
			Abstract     struct {
				Texts []string `xml:"AbstractText"`
			} `xml:"Abstract"`
			Journal struct {
				Title        string `xml:"Title"`
				JournalIssue struct {
					PubDate struct {
						Year string `xml:"Year"`
					} `xml:"PubDate"`
				} `xml:"JournalIssue"`
			} `xml:"Journal"`
			AuthorList struct {
				Authors []struct {
					LastName       string `xml:"LastName"`
					ForeName       string `xml:"ForeName"`
					CollectiveName string `xml:"CollectiveName"`
				} `xml:"Author"`
			} `xml:"AuthorList"`
			ELocationIDs []struct {
				EIdType string `xml:"EIdType,attr"`
				Value   string `xml:",chardata"`
			} `xml:"ELocationID"`
		} `xml:"Article"`
	} `xml:"MedlineCitation"`
}
