// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"fmt"
	"strings"
	"unicode"
)

// PaperSource identifies which academic database a paper came from.
type PaperSource string

const (
	SourcePubMed          PaperSource = "pubmed"
	SourceArxiv           PaperSource = "arxiv"
	SourceSemanticScholar PaperSource = "semantic_scholar"
	SourceCrossRef        PaperSource = "crossref"
	SourceEuropePMC       PaperSource = "europe_pmc"
)

// AllSources lists every supported provider in default priority order.
var AllSources = []PaperSource{
	SourcePubMed,
	SourceSemanticScholar,
	SourceArxiv,
	SourceCrossRef,
	SourceEuropePMC,
}

// SearchPaper is the provider-agnostic normalized representation of a paper
// discovered through any academic database.
type SearchPaper struct {
	// ID is an internal identifier, unique within a search or graph.
	ID string `json:"id" yaml:"id"`

	// Source identifies which provider returned this paper.
	Source PaperSource `json:"source" yaml:"source"`

	// ExternalID is the provider-native identifier (PMID, arXiv ID,
	// Semantic Scholar paper ID, DOI for CrossRef, Europe PMC ID).
	ExternalID string `json:"external_id" yaml:"external_id"`

	// Title is the paper title as returned by the source.
	Title string `json:"title" yaml:"title"`

	// Authors lists the paper authors in source order.
	Authors []string `json:"authors" yaml:"authors"`

	// Year is the publication year (0 when unknown).
	Year int `json:"year" yaml:"year"`

	// Abstract is the paper abstract or summary, when available.
	Abstract string `json:"abstract,omitempty" yaml:"abstract,omitempty"`

	// Journal is the venue or journal name, when available.
	Journal string `json:"journal,omitempty" yaml:"journal,omitempty"`

	// DOI is the Digital Object Identifier without a resolver prefix.
	DOI string `json:"doi,omitempty" yaml:"doi,omitempty"`

	// URL points at the paper landing page.
	URL string `json:"url,omitempty" yaml:"url,omitempty"`

	// PDFURL points at a full-text PDF, when one is known.
	PDFURL string `json:"pdf_url,omitempty" yaml:"pdf_url,omitempty"`

	// OpenAccess reports whether the paper is openly readable.
	OpenAccess bool `json:"open_access" yaml:"open_access"`

	// CitationCount is the citation count when the provider reports one;
	// nil means unknown, which is distinct from zero.
	CitationCount *int `json:"citation_count,omitempty" yaml:"citation_count,omitempty"`

	// RelevanceScore is a value between 0.0 and 1.0 indicating relevance
	// to the query that produced this paper.
	RelevanceScore float64 `json:"relevance_score" yaml:"relevance_score"`
}

// Citations returns the citation count, or 0 when it is unknown.
func (p SearchPaper) Citations() int {
	if p.CitationCount == nil {
		return 0
	}
	return *p.CitationCount
}

// DedupKeys returns the identity keys for this paper in priority order:
// DOI first, then normalized title plus year, then first-author last name
// plus a title prefix. Papers sharing any key are considered the same work.
func (p SearchPaper) DedupKeys() []string {
	var keys []string
	if doi := NormalizeDOI(p.DOI); doi != "" {
		keys = append(keys, "doi:"+doi)
	}
	if t := NormalizeTitle(p.Title); t != "" {
		if p.Year > 0 {
			keys = append(keys, fmt.Sprintf("ty:%s:%d", t, p.Year))
		}
		if last := firstAuthorLastName(p.Authors); last != "" {
			prefix := t
			if len(prefix) > 40 {
				prefix = prefix[:40]
			}
			keys = append(keys, "at:"+last+":"+prefix)
		}
	}
	return keys
}

// NormalizeDOI lowercases a DOI and strips common resolver prefixes.
func NormalizeDOI(doi string) string {
	doi = strings.TrimSpace(strings.ToLower(doi))
	for _, prefix := range []string{"https://doi.org/", "http://doi.org/", "doi:"} {
		doi = strings.TrimPrefix(doi, prefix)
	}
	return doi
}

// NormalizeTitle returns a lowercased, punctuation-stripped version of the
// title with collapsed whitespace.
func NormalizeTitle(title string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(title) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// firstAuthorLastName extracts the lowercased last name of the first author.
func firstAuthorLastName(authors []string) string {
	if len(authors) == 0 {
		return ""
	}
	fields := strings.Fields(authors[0])
	if len(fields) == 0 {
		return ""
	}
	return strings.ToLower(strings.Trim(fields[len(fields)-1], ",."))
}

// CitationType classifies how a source relates to the research topic.
type CitationType string

const (
	CitationSupporting  CitationType = "supporting"
	CitationDisputing   CitationType = "disputing"
	CitationMethodology CitationType = "methodology"
	CitationDataSource  CitationType = "data_source"
	CitationMentioning  CitationType = "mentioning"
)

// ResearchSource is a SearchPaper selected by the researcher agent and
// enriched as the pipeline progresses.
type ResearchSource struct {
	SearchPaper `yaml:",inline"`

	// Content holds the text used for downstream analysis; typically the
	// abstract, since full-text storage is handled outside this engine.
	Content string `json:"content,omitempty" yaml:"content,omitempty"`

	// Score is the researcher's composite selection score in [0,1].
	Score float64 `json:"score" yaml:"score"`

	// Citation is the stance assigned by the citation analyst.
	Citation CitationType `json:"citation,omitempty" yaml:"citation,omitempty"`

	// Influence is a degree-centrality score in [0,1] from the co-citation
	// graph, assigned by the citation analyst.
	Influence float64 `json:"influence" yaml:"influence"`
}
