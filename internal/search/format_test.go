// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.yaml.in/yaml/v3"

	"github.com/pdiddy/litreview/pkg/types"
)

func sampleResult() *Result {
	return &Result{
		Papers: []types.SearchPaper{
			{
				ID:             "pubmed:100",
				Source:         types.SourcePubMed,
				Title:          "Caffeine and cognitive performance",
				Authors:        []string{"Jane Doe", "John Q Public"},
				Year:           2023,
				Abstract:       "A study of caffeine.",
				DOI:            "10.1/caf",
				URL:            "https://pubmed.ncbi.nlm.nih.gov/100/",
				RelevanceScore: 0.91,
			},
			{
				ID:      "arxiv:2401.0001",
				Source:  types.SourceArxiv,
				Title:   "Modeling stimulant pharmacokinetics",
				Authors: []string{"Plato"},
				Year:    2024,
			},
		},
		DupsRemoved: 1,
		Errors:      map[types.PaperSource]string{types.SourceCrossRef: "timeout"},
	}
}

func TestFormatTable(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(sampleResult(), &buf)
	out := buf.String()

	assert.Contains(t, out, "Caffeine and cognitive performance")
	assert.Contains(t, out, "Jane Doe et al.")
	assert.Contains(t, out, "2 results (1 duplicates removed)")
	assert.Contains(t, out, "provider crossref failed: timeout")
}

func TestFormatTableEmpty(t *testing.T) {
	var buf bytes.Buffer
	FormatTable(&Result{}, &buf)
	assert.Contains(t, buf.String(), "No results found.")
}

func TestFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatJSON(sampleResult(), &buf))

	var papers []types.SearchPaper
	require.NoError(t, json.Unmarshal(buf.Bytes(), &papers))
	require.Len(t, papers, 2)
	assert.Equal(t, "pubmed:100", papers[0].ID)
}

func TestFormatCSL(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, FormatCSL(sampleResult(), &buf))

	var items []CSLItem
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &items))
	require.Len(t, items, 2)

	first := items[0]
	assert.Equal(t, "pubmed:100", first.ID)
	assert.Equal(t, "article", first.Type)
	assert.Equal(t, "10.1/caf", first.DOI)
	require.Len(t, first.Author, 2)
	assert.Equal(t, CSLName{Given: "Jane", Family: "Doe"}, first.Author[0])
	require.NotNil(t, first.Issued)
	assert.Equal(t, [][]int{{2023}}, first.Issued.DateParts)

	// Single-token names land in the literal field.
	assert.Equal(t, CSLName{Literal: "Plato"}, items[1].Author[0])
}

func TestParseAuthorName(t *testing.T) {
	tests := []struct {
		in   string
		want CSLName
	}{
		{"Jane Doe", CSLName{Given: "Jane", Family: "Doe"}},
		{"John Q Public", CSLName{Given: "John Q", Family: "Public"}},
		{"Mononym", CSLName{Literal: "Mononym"}},
		{"", CSLName{}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, parseAuthorName(tt.in), tt.in)
	}
}
