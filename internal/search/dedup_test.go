// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

func intp(v int) *int { return &v }

func TestDeduplicateMergesSharedDOI(t *testing.T) {
	papers := []types.SearchPaper{
		{
			Source: types.SourcePubMed,
			Title:  "Caffeine and cognitive performance",
			Year:   2022,
			DOI:    "10.1000/caffeine.1",
		},
		{
			Source:   types.SourceCrossRef,
			Title:    "Caffeine & cognitive performance: a review",
			Year:     2023, // different year, same DOI
			DOI:      "https://doi.org/10.1000/CAFFEINE.1",
			Abstract: "Caffeine improves alertness.",
		},
	}

	deduped, removed := Deduplicate(papers)
	require.Len(t, deduped, 1)
	assert.Equal(t, 1, removed)
	// The CrossRef record carries an abstract and wins the collision.
	assert.Equal(t, types.SourceCrossRef, deduped[0].Source)
}

func TestDeduplicateMergesTitleYearWithoutDOI(t *testing.T) {
	papers := []types.SearchPaper{
		{
			Source: types.SourceArxiv,
			Title:  "Deep Learning for Protein Folding!",
			Year:   2021,
		},
		{
			Source:  types.SourceSemanticScholar,
			Title:   "deep learning for protein folding",
			Year:    2021,
			Authors: []string{"Jane Doe"},
		},
	}

	deduped, removed := Deduplicate(papers)
	require.Len(t, deduped, 1)
	assert.Equal(t, 1, removed)
	assert.Equal(t, types.SourceSemanticScholar, deduped[0].Source)
}

func TestDeduplicateKeepsDistinctPapers(t *testing.T) {
	papers := []types.SearchPaper{
		{Source: types.SourcePubMed, Title: "Alpha study", Year: 2020, DOI: "10.1/a"},
		{Source: types.SourcePubMed, Title: "Beta study", Year: 2020, DOI: "10.1/b"},
		{Source: types.SourceArxiv, Title: "Gamma study", Year: 2021},
	}

	deduped, removed := Deduplicate(papers)
	assert.Len(t, deduped, 3)
	assert.Equal(t, 0, removed)
}

func TestDeduplicateTieKeepsFirstSeen(t *testing.T) {
	papers := []types.SearchPaper{
		{Source: types.SourcePubMed, Title: "Same paper", Year: 2020, DOI: "10.1/x"},
		{Source: types.SourceEuropePMC, Title: "Same paper", Year: 2020, DOI: "10.1/x"},
	}

	deduped, _ := Deduplicate(papers)
	require.Len(t, deduped, 1)
	assert.Equal(t, types.SourcePubMed, deduped[0].Source)
}

func TestDeduplicateIdempotent(t *testing.T) {
	papers := []types.SearchPaper{
		{Source: types.SourcePubMed, Title: "Alpha", Year: 2020, DOI: "10.1/a"},
		{Source: types.SourceCrossRef, Title: "Alpha", Year: 2020, DOI: "10.1/a", Abstract: "rich"},
		{Source: types.SourceArxiv, Title: "Beta", Year: 2019},
		{Source: types.SourceEuropePMC, Title: "beta", Year: 2019},
	}

	once, removedOnce := Deduplicate(papers)
	twice, removedTwice := Deduplicate(once)

	assert.Equal(t, 2, removedOnce)
	assert.Equal(t, 0, removedTwice)
	assert.Equal(t, once, twice)
}

// A late record can bridge two earlier records that share none of each
// other's keys: one matched by DOI, the other by title+year. All three
// must fold into a single slot, and running the result through again
// must be a no-op.
func TestDeduplicateMergesBridgedRecords(t *testing.T) {
	papers := []types.SearchPaper{
		{
			Source: types.SourcePubMed,
			Title:  "Alpha study",
			Year:   2020,
			DOI:    "10.1/x",
		},
		{
			Source: types.SourceArxiv,
			Title:  "Beta study",
			Year:   2020,
		},
		{
			Source:   types.SourceCrossRef,
			Title:    "Beta study",
			Year:     2020,
			DOI:      "10.1/x",
			Abstract: "bridges the two records above",
		},
	}

	once, removedOnce := Deduplicate(papers)
	require.Len(t, once, 1)
	assert.Equal(t, 2, removedOnce)
	assert.Equal(t, types.SourceCrossRef, once[0].Source)

	twice, removedTwice := Deduplicate(once)
	assert.Equal(t, 0, removedTwice)
	assert.Equal(t, once, twice)
}

// A record matched only through its author+title-prefix alias still
// collapses onto the DOI record seen earlier.
func TestDeduplicateAliasCollapsing(t *testing.T) {
	papers := []types.SearchPaper{
		{
			Source:  types.SourcePubMed,
			Title:   "Gut microbiome diversity in athletes",
			Year:    2022,
			DOI:     "10.1/gut",
			Authors: []string{"Maria Santos"},
		},
		{
			// No DOI, different year: only the author+prefix key matches.
			Source:  types.SourceCrossRef,
			Title:   "Gut microbiome diversity in athletes",
			Year:    2023,
			Authors: []string{"M. Santos"},
		},
	}

	deduped, removed := Deduplicate(papers)
	assert.Len(t, deduped, 1)
	assert.Equal(t, 1, removed)
}

func TestCompletenessOrdering(t *testing.T) {
	bare := types.SearchPaper{Title: "bare"}
	rich := types.SearchPaper{
		Title:         "rich",
		Abstract:      "has abstract",
		DOI:           "10.1/r",
		Authors:       []string{"A", "B"},
		CitationCount: intp(10),
		PDFURL:        "https://example.org/r.pdf",
		OpenAccess:    true,
	}
	assert.Greater(t, completeness(rich), completeness(bare))
	assert.Equal(t, 5+3+2+2+2+1, completeness(rich))
}

func TestRankPapersOrdering(t *testing.T) {
	year := time.Now().Year()
	papers := []types.SearchPaper{
		{
			Title: "Unrelated topic entirely",
			Year:  year - 20,
		},
		{
			Title:         "Caffeine effects on memory consolidation",
			Abstract:      "We study caffeine and memory.",
			Year:          year - 1,
			OpenAccess:    true,
			PDFURL:        "https://example.org/p.pdf",
			CitationCount: intp(500),
		},
	}

	ranked := RankPapers(papers, []string{"caffeine", "memory"})
	require.Len(t, ranked, 2)
	assert.Contains(t, ranked[0].Title, "Caffeine")
	assert.Greater(t, ranked[0].RelevanceScore, ranked[1].RelevanceScore)
	for _, p := range ranked {
		assert.GreaterOrEqual(t, p.RelevanceScore, 0.0)
		assert.LessOrEqual(t, p.RelevanceScore, 1.0)
	}
}

func TestRankPapersCitationBonusCapped(t *testing.T) {
	papers := []types.SearchPaper{
		{Title: "massively cited", CitationCount: intp(100000)},
	}
	ranked := RankPapers(papers, nil)
	// base 0.5 + capped 0.2 citation bonus.
	assert.InDelta(t, 0.7, ranked[0].RelevanceScore, 0.0001)
}

func TestOverlapFraction(t *testing.T) {
	assert.Equal(t, 0.0, overlapFraction("", []string{"a"}))
	assert.Equal(t, 0.0, overlapFraction("text", nil))
	assert.Equal(t, 0.5, overlapFraction("Caffeine study", []string{"caffeine", "memory"}))
	assert.Equal(t, 1.0, overlapFraction("Caffeine and Memory", []string{"caffeine", "memory"}))
}

func TestApplyRecencyBias(t *testing.T) {
	year := time.Now().Year()
	papers := []types.SearchPaper{
		{Title: "old", Year: year - 20, RelevanceScore: 0.6},
		{Title: "new", Year: year, RelevanceScore: 0.55},
		{Title: "undated", RelevanceScore: 0.58},
	}

	ApplyRecencyBias(papers, 5)

	// The current-year paper gets the full 0.2 boost and moves first;
	// old and undated papers are untouched.
	assert.Equal(t, "new", papers[0].Title)
	assert.InDelta(t, 0.75, papers[0].RelevanceScore, 0.0001)
	for _, p := range papers[1:] {
		switch p.Title {
		case "old":
			assert.InDelta(t, 0.6, p.RelevanceScore, 0.0001)
		case "undated":
			assert.InDelta(t, 0.58, p.RelevanceScore, 0.0001)
		}
	}
}

func TestApplyRecencyBiasClamped(t *testing.T) {
	year := time.Now().Year()
	papers := []types.SearchPaper{{Title: "hot", Year: year, RelevanceScore: 0.95}}
	ApplyRecencyBias(papers, 5)
	assert.InDelta(t, 1.0, papers[0].RelevanceScore, 0.0001)
}
