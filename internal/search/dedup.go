// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package search

import (
	"math"
	"sort"
	"strings"
	"time"

	"github.com/pdiddy/litreview/pkg/types"
)

// Deduplicate merges papers that share an identity key (DOI, then
// normalized title plus year, then first author plus title prefix; see
// types.SearchPaper.DedupKeys). When two papers collide the richer record
// wins by completeness points; ties keep the first seen. Deduplicating an
// already-deduplicated list is a no-op.
func Deduplicate(papers []types.SearchPaper) ([]types.SearchPaper, int) {
	seen := make(map[string]int) // identity key → slot index
	var slots []types.SearchPaper
	var parent []int // slot → surviving slot it folded into; parent[i] == i while live

	find := func(i int) int {
		for parent[i] != i {
			i = parent[i]
		}
		return i
	}

	for _, p := range papers {
		keys := p.DedupKeys()

		// Collect every live slot any identity key resolves to. An
		// incoming paper can bridge two slots that matched none of each
		// other's keys directly (say one by DOI and one by title+year);
		// those slots describe the same work and must fold together, or
		// a second pass would find merges this one missed.
		var matched []int
		for _, k := range keys {
			if i, ok := seen[k]; ok {
				i = find(i)
				dup := false
				for _, m := range matched {
					if m == i {
						dup = true
					}
				}
				if !dup {
					matched = append(matched, i)
				}
			}
		}
		sort.Ints(matched)

		var idx int
		if len(matched) == 0 {
			idx = len(slots)
			slots = append(slots, p)
			parent = append(parent, idx)
		} else {
			// The richest record wins the surviving slot; ties keep the
			// earliest seen.
			idx = matched[0]
			for _, i := range matched[1:] {
				if completeness(slots[i]) > completeness(slots[idx]) {
					idx = i
				}
			}
			if completeness(p) > completeness(slots[idx]) {
				slots[idx] = p
			}
			for _, i := range matched {
				parent[i] = idx
			}
		}

		// Register every alias of the incoming paper and the survivor so
		// later papers matching any of them collapse onto this slot.
		for _, k := range keys {
			seen[k] = idx
		}
		for _, k := range slots[idx].DedupKeys() {
			seen[k] = idx
		}
	}

	var deduped []types.SearchPaper
	for i, p := range slots {
		if find(i) == i {
			deduped = append(deduped, p)
		}
	}
	return deduped, len(papers) - len(deduped)
}

// completeness scores how much useful detail a record carries: abstracts
// and DOIs weigh most, then authorship, known citation counts, full text,
// and open access.
func completeness(p types.SearchPaper) int {
	score := 0
	if p.Abstract != "" {
		score += 5
	}
	if p.DOI != "" {
		score += 3
	}
	score += len(p.Authors)
	if p.CitationCount != nil {
		score += 2
	}
	if p.PDFURL != "" {
		score += 2
	}
	if p.OpenAccess {
		score++
	}
	return score
}

// RankPapers assigns each paper a composite relevance score in [0,1] and
// returns the list sorted descending. The components: the provider
// relevance (default 0.5), title and abstract term overlap, a capped
// citation bonus, recency, and full-text availability.
func RankPapers(papers []types.SearchPaper, terms []string) []types.SearchPaper {
	now := time.Now().Year()
	ranked := make([]types.SearchPaper, len(papers))
	copy(ranked, papers)

	for i := range ranked {
		p := &ranked[i]

		base := p.RelevanceScore
		if base == 0 {
			base = 0.5
		}

		score := base
		score += 0.3 * overlapFraction(p.Title, terms)
		score += 0.1 * overlapFraction(p.Abstract, terms)
		score += math.Min(0.2, float64(p.Citations())/1000)

		if p.Year > 0 {
			switch age := now - p.Year; {
			case age <= 2:
				score += 0.1
			case age <= 5:
				score += 0.05
			}
		}
		if p.OpenAccess {
			score += 0.05
		}
		if p.PDFURL != "" {
			score += 0.05
		}

		p.RelevanceScore = math.Max(0, math.Min(1, score))
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].RelevanceScore > ranked[j].RelevanceScore
	})
	return ranked
}

// ApplyRecencyBias boosts scores for papers published within the last
// windowYears and re-sorts the list. The boost decays linearly with age,
// up to 0.2 for a paper from the current year. Papers with an unknown
// year are left alone.
func ApplyRecencyBias(papers []types.SearchPaper, windowYears int) {
	if windowYears <= 0 {
		return
	}
	now := time.Now().Year()
	for i := range papers {
		if papers[i].Year <= 0 {
			continue
		}
		age := now - papers[i].Year
		if age < 0 {
			age = 0
		}
		if age <= windowYears {
			boost := 0.2 * (1.0 - float64(age)/float64(windowYears))
			papers[i].RelevanceScore = math.Min(1.0, papers[i].RelevanceScore+boost)
		}
	}
	sort.SliceStable(papers, func(i, j int) bool {
		return papers[i].RelevanceScore > papers[j].RelevanceScore
	})
}

// overlapFraction returns the fraction of terms appearing in the text.
func overlapFraction(text string, terms []string) float64 {
	if len(terms) == 0 || text == "" {
		return 0
	}
	lower := strings.ToLower(text)
	hits := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			hits++
		}
	}
	return float64(hits) / float64(len(terms))
}
