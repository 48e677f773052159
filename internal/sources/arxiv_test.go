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

const arxivFixture = `<?xml version="1.0" encoding="UTF-8"?>
<feed xmlns="http://www.w3.org/2005/Atom">
  <totalResults xmlns="http://a9.com/-/spec/opensearch/1.1/">42</totalResults>
  <entry>
    <id>http://arxiv.org/abs/2301.07041v2</id>
    <title>Attention Is  Not All You Need</title>
    <summary> A study of transformer limits. </summary>
    <published>2023-01-17T12:00:00Z</published>
    <author><name>Jane Smith</name></author>
    <author><name>Wei Chen</name></author>
  </entry>
</feed>`

func TestArxivSearchMapsAtomEntries(t *testing.T) {
	var gotQuery string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.Query().Get("search_query")
		w.Header().Set("Content-Type", "application/atom+xml")
		w.Write([]byte(arxivFixture))
	}))
	defer ts.Close()

	orig := arxivAPIBase
	arxivAPIBase = ts.URL
	defer func() { arxivAPIBase = orig }()

	a := NewArxiv(testProviderConfig(), nil)
	resp, err := a.Search(context.Background(), SearchQuery{Query: "transformer limits", MaxResults: 5})
	require.NoError(t, err)

	assert.Equal(t, 42, resp.TotalResults)
	assert.Contains(t, gotQuery, "all:transformer limits")
	require.Len(t, resp.Papers, 1)

	p := resp.Papers[0]
	assert.Equal(t, "2301.07041", p.ExternalID)
	assert.Equal(t, "Attention Is Not All You Need", p.Title)
	assert.Equal(t, "A study of transformer limits.", p.Abstract)
	assert.Equal(t, []string{"Jane Smith", "Wei Chen"}, p.Authors)
	assert.Equal(t, 2023, p.Year)
	assert.True(t, p.OpenAccess)
	assert.Equal(t, "https://arxiv.org/pdf/2301.07041", p.PDFURL)
}

func TestArxivCitationsAreGracefullyEmpty(t *testing.T) {
	a := NewArxiv(testProviderConfig(), nil)

	citing, err := a.CitingPapers(context.Background(), "2301.07041", 10)
	require.NoError(t, err)
	assert.Empty(t, citing)

	refs, err := a.ReferencedPapers(context.Background(), "2301.07041", 10)
	require.NoError(t, err)
	assert.Empty(t, refs)
}

func TestExtractArxivID(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"http://arxiv.org/abs/2301.07041v1", "2301.07041"},
		{"http://arxiv.org/abs/2301.07041", "2301.07041"},
		{"https://arxiv.org/abs/cond-mat/0207270v3", "cond-mat/0207270"},
		{"http://example.org/nope", ""},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, extractArxivID(tt.in), tt.in)
	}
}
