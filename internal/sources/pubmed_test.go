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

const pubmedEFetchFixture = `<?xml version="1.0"?>
<PubmedArticleSet>
  <PubmedArticle>
    <MedlineCitation>
      <PMID>36990000</PMID>
      <Article>
        <Journal>
          <JournalIssue><PubDate><Year>2022</Year></PubDate></JournalIssue>
          <Title>Journal of Caffeine Research</Title>
        </Journal>
        <ArticleTitle>Caffeine and working memory: a randomized trial</ArticleTitle>
        <Abstract>
          <AbstractText>Background text.</AbstractText>
          <AbstractText>Results text.</AbstractText>
        </Abstract>
        <AuthorList>
          <Author><LastName>Garcia</LastName><ForeName>Maria</ForeName></Author>
          <Author><CollectiveName>Sleep Study Group</CollectiveName></Author>
        </AuthorList>
        <ELocationID EIdType="doi">10.1000/jcr.2022.001</ELocationID>
      </Article>
    </MedlineCitation>
  </PubmedArticle>
</PubmedArticleSet>`

// pubmedTestServer answers esearch, efetch, and elink with fixtures.
func pubmedTestServer(t *testing.T, record func(r *http.Request)) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if record != nil {
			record(r)
		}
		switch r.URL.Path {
		case "/esearch.fcgi":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"esearchresult":{"count":"2","idlist":["36990000"]}}`))
		case "/efetch.fcgi":
			w.Header().Set("Content-Type", "text/xml")
			w.Write([]byte(pubmedEFetchFixture))
		case "/elink.fcgi":
			w.Header().Set("Content-Type", "application/json")
			w.Write([]byte(`{"linksets":[{"linksetdbs":[{"linkname":"pubmed_pubmed_citedin","links":["36990000"]}]}]}`))
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestPubMedSearchMapsArticles(t *testing.T) {
	var terms []string
	ts := pubmedTestServer(t, func(r *http.Request) {
		if r.URL.Path == "/esearch.fcgi" {
			terms = append(terms, r.URL.Query().Get("term"))
		}
	})
	defer ts.Close()

	orig := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = orig }()

	p := NewPubMed(testProviderConfig(), nil)
	resp, err := p.Search(context.Background(), SearchQuery{
		Query:        "caffeine AND memory",
		ArticleTypes: []string{"rct"},
		Language:     "eng",
	})
	require.NoError(t, err)

	assert.Equal(t, 2, resp.TotalResults)
	require.Len(t, resp.Papers, 1)
	require.Len(t, terms, 1)
	assert.Contains(t, terms[0], "Randomized Controlled Trial[pt]")
	assert.Contains(t, terms[0], "eng[la]")

	paper := resp.Papers[0]
	assert.Equal(t, "36990000", paper.ExternalID)
	assert.Equal(t, "Caffeine and working memory: a randomized trial", paper.Title)
	assert.Equal(t, "Background text. Results text.", paper.Abstract)
	assert.Equal(t, []string{"Maria Garcia", "Sleep Study Group"}, paper.Authors)
	assert.Equal(t, 2022, paper.Year)
	assert.Equal(t, "Journal of Caffeine Research", paper.Journal)
	assert.Equal(t, "10.1000/jcr.2022.001", paper.DOI)
}

func TestPubMedCitingPapersUsesELink(t *testing.T) {
	var linkNames []string
	ts := pubmedTestServer(t, func(r *http.Request) {
		if r.URL.Path == "/elink.fcgi" {
			linkNames = append(linkNames, r.URL.Query().Get("linkname"))
		}
	})
	defer ts.Close()

	orig := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = orig }()

	p := NewPubMed(testProviderConfig(), nil)
	papers, err := p.CitingPapers(context.Background(), "123", 5)
	require.NoError(t, err)

	assert.Equal(t, []string{"pubmed_pubmed_citedin"}, linkNames)
	require.Len(t, papers, 1)
	assert.Equal(t, "36990000", papers[0].ExternalID)
}

func TestPubMedAPIKeyRaisesNoErrorAndIsSent(t *testing.T) {
	var sawKey bool
	ts := pubmedTestServer(t, func(r *http.Request) {
		if r.URL.Query().Get("api_key") == "sekrit" {
			sawKey = true
		}
	})
	defer ts.Close()

	orig := pubmedAPIBase
	pubmedAPIBase = ts.URL
	defer func() { pubmedAPIBase = orig }()

	cfg := testProviderConfig()
	cfg.APIKey = "sekrit"
	p := NewPubMed(cfg, nil)

	_, err := p.Search(context.Background(), SearchQuery{Query: "caffeine"})
	require.NoError(t, err)
	assert.True(t, sawKey)
}
