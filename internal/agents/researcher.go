// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

// Source selection weights: relevance dominates, then a quality proxy,
// recency, and citation impact.
const (
	weightRelevance = 0.40
	weightQuality   = 0.25
	weightRecency   = 0.20
	weightImpact    = 0.15
)

// Researcher executes the strategist's queries through the search service
// and selects the best-scoring candidates up to the session's source cap.
type Researcher struct {
	deps  Deps
	state agentState
}

func NewResearcher(deps Deps) *Researcher {
	a := &Researcher{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (r *Researcher) Type() types.AgentType   { return types.AgentResearcher }
func (r *Researcher) State() types.AgentState { return r.state.State() }

func (r *Researcher) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	r.state.start()
	strategy := actx.Outputs.Strategy
	if strategy == nil || len(strategy.Queries) == 0 {
		return failed(r.Type(), &r.state, fmt.Errorf("no search strategy available"))
	}
	if r.deps.Search == nil {
		return failed(r.Type(), &r.state, fmt.Errorf("search service not configured"))
	}

	cfg := actx.Session.Config

	r.state.milestone("searching providers", 20)
	req := search.Request{
		Queries:   strategy.Queries,
		RankTerms: strategy.Concepts,
	}
	if cfg.Breadth > 0 && len(req.Queries) > cfg.Breadth {
		req.Queries = req.Queries[:cfg.Breadth]
	}
	if cfg.YearsBack > 0 {
		req.DateFrom = time.Now().AddDate(-cfg.YearsBack, 0, 0)
	}

	result, err := r.deps.Search.Search(ctx, req)
	if err != nil {
		return failed(r.Type(), &r.state, fmt.Errorf("search failed: %w", err))
	}

	r.state.milestone("scoring candidates", 60)
	maxSources := cfg.MaxSources
	if maxSources <= 0 {
		maxSources = 25
	}
	threshold := 0.6
	if maxSources >= 25 {
		threshold = 0.5
	}

	var selected []types.ResearchSource
	for _, p := range result.Papers {
		score := scoreCandidate(p)
		if score < threshold {
			continue
		}
		selected = append(selected, types.ResearchSource{SearchPaper: p, Score: score})
	}
	sort.SliceStable(selected, func(i, j int) bool { return selected[i].Score > selected[j].Score })
	if len(selected) > maxSources {
		selected = selected[:maxSources]
	}

	out := &types.ResearchOutput{
		Sources:        selected,
		Considered:     len(result.Papers),
		ProviderErrors: result.Errors,
	}
	return succeed(r.Type(), &r.state, out, 0,
		message("assistant", fmt.Sprintf("selected %d of %d candidates", len(selected), len(result.Papers))))
}

// scoreCandidate blends relevance, a quality proxy, recency, and impact
// into a 0-1 selection score.
func scoreCandidate(p types.SearchPaper) float64 {
	return weightRelevance*p.RelevanceScore +
		weightQuality*qualityProxy(p) +
		weightRecency*recencyTier(p.Year) +
		weightImpact*impactTier(p)
}

// qualityProxy estimates record quality from metadata richness: abstract
// substance, DOI, journal, authorship, and a PubMed identifier.
func qualityProxy(p types.SearchPaper) float64 {
	score := 0.0
	switch {
	case len(p.Abstract) >= 500:
		score += 0.35
	case len(p.Abstract) >= 150:
		score += 0.25
	case len(p.Abstract) > 0:
		score += 0.10
	}
	if p.DOI != "" {
		score += 0.20
	}
	if p.Journal != "" {
		score += 0.20
	}
	if len(p.Authors) >= 2 {
		score += 0.15
	} else if len(p.Authors) == 1 {
		score += 0.10
	}
	if p.Source == types.SourcePubMed {
		score += 0.10
	}
	if score > 1 {
		score = 1
	}
	return score
}

// recencyTier maps publication age to a 0-1 tier.
func recencyTier(year int) float64 {
	if year <= 0 {
		return 0.2
	}
	switch age := time.Now().Year() - year; {
	case age <= 2:
		return 1.0
	case age <= 5:
		return 0.7
	case age <= 10:
		return 0.4
	default:
		return 0.1
	}
}

// impactTier maps citation count to a 0-1 tier; unknown counts score a
// neutral 0.3 rather than zero so preprints are not shut out.
func impactTier(p types.SearchPaper) float64 {
	if p.CitationCount == nil {
		return 0.3
	}
	switch c := *p.CitationCount; {
	case c >= 1000:
		return 1.0
	case c >= 100:
		return 0.8
	case c >= 10:
		return 0.5
	case c >= 1:
		return 0.3
	default:
		return 0.1
	}
}
