// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// QualityReviewer runs six independent deterministic checks over the
// synthesis, each yielding a weighted 0-100 score and zero or more
// issues. Approval requires zero critical issues, fewer than three major
// issues, and an overall score of at least 60.
type QualityReviewer struct {
	deps  Deps
	state agentState
}

func NewQualityReviewer(deps Deps) *QualityReviewer {
	a := &QualityReviewer{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (r *QualityReviewer) Type() types.AgentType   { return types.AgentQualityReviewer }
func (r *QualityReviewer) State() types.AgentState { return r.state.State() }

func (r *QualityReviewer) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	r.state.start()
	synthesis := actx.Outputs.Synthesis
	if synthesis == nil {
		return failed(r.Type(), &r.state, fmt.Errorf("no synthesis to review"))
	}
	var sources []types.ResearchSource
	if actx.Outputs.Citations != nil {
		sources = actx.Outputs.Citations.Sources
	}

	checks := []struct {
		dimension types.QualityDimension
		run       func(*types.Synthesis, []types.ResearchSource) (float64, []types.QualityIssue)
	}{
		{types.DimensionAccuracy, checkAccuracy},
		{types.DimensionCompleteness, checkCompleteness},
		{types.DimensionBalance, checkBalance},
		{types.DimensionAttribution, checkAttribution},
		{types.DimensionClarity, checkClarity},
		{types.DimensionMethodology, checkMethodology},
	}

	report := &types.QualityReport{}
	for i, check := range checks {
		r.state.milestone(string(check.dimension), (i+1)*100/len(checks))
		score, issues := check.run(synthesis, sources)
		weight := types.DimensionWeights[check.dimension]
		for j := range issues {
			issues[j].Dimension = check.dimension
		}
		report.Scores = append(report.Scores, types.QualityScore{
			Dimension: check.dimension,
			Score:     clampScore(score),
			Weight:    weight,
			Issues:    issues,
		})
		report.OverallScore += clampScore(score) * weight
	}

	report.Approved = report.CountBySeverity(types.SeverityCritical) == 0 &&
		report.CountBySeverity(types.SeverityMajor) < 3 &&
		report.OverallScore >= 60

	return succeed(r.Type(), &r.state, report, 0,
		message("assistant", fmt.Sprintf("overall quality %.1f, approved=%v", report.OverallScore, report.Approved)))
}

// checkAccuracy verifies theme attributions and evidence point at real
// sources.
func checkAccuracy(s *types.Synthesis, sources []types.ResearchSource) (float64, []types.QualityIssue) {
	valid := validIDs(sources)
	var issues []types.QualityIssue
	score := 100.0

	if len(s.Themes) == 0 {
		issues = append(issues, types.QualityIssue{
			Severity:    types.SeverityCritical,
			Description: "synthesis contains no themes",
			Suggestion:  "re-run synthesis with the collected sources",
		})
		return 0, issues
	}
	for _, t := range s.Themes {
		for _, id := range t.SourceIDs {
			if !valid[id] {
				score -= 20
				issues = append(issues, types.QualityIssue{
					Severity:    types.SeverityMajor,
					Description: fmt.Sprintf("theme %q cites unknown source %q", t.Name, id),
				})
			}
		}
	}
	for _, e := range s.Evidence {
		if !valid[e.SourceID] {
			score -= 10
			issues = append(issues, types.QualityIssue{
				Severity:    types.SeverityMajor,
				Description: fmt.Sprintf("evidence cites unknown source %q", e.SourceID),
			})
		}
	}
	return score, issues
}

// checkCompleteness wants at least three themes, a section per theme, and
// some evidence.
func checkCompleteness(s *types.Synthesis, sources []types.ResearchSource) (float64, []types.QualityIssue) {
	var issues []types.QualityIssue
	score := 100.0

	if len(s.Themes) < 3 {
		score -= 30
		issues = append(issues, types.QualityIssue{
			Severity:    types.SeverityMajor,
			Description: fmt.Sprintf("only %d themes extracted, expected at least 3", len(s.Themes)),
			Suggestion:  "broaden the search or relax the source threshold",
		})
	}
	if len(s.Sections) < len(s.Themes) {
		score -= 25
		issues = append(issues, types.QualityIssue{
			Severity:    types.SeverityMajor,
			Description: "not every theme has a narrative section",
		})
	}
	if len(s.Evidence) == 0 {
		score -= 25
		issues = append(issues, types.QualityIssue{
			Severity:    types.SeverityMinor,
			Description: "no evidence statements collected",
		})
	}
	if len(sources) == 0 {
		score -= 20
		issues = append(issues, types.QualityIssue{
			Severity:    types.SeverityCritical,
			Description: "no sources underpin the synthesis",
		})
	}
	return score, issues
}

// checkBalance wants disputing evidence acknowledged when it exists.
func checkBalance(s *types.Synthesis, sources []types.ResearchSource) (float64, []types.QualityIssue) {
	disputing := 0
	for _, src := range sources {
		if src.Citation == types.CitationDisputing {
			disputing++
		}
	}
	if disputing == 0 {
		return 90, nil
	}
	if len(s.Conflicts) == 0 {
		return 50, []types.QualityIssue{{
			Severity:    types.SeverityMajor,
			Description: fmt.Sprintf("%d disputing sources but no conflict discussed", disputing),
			Suggestion:  "surface the disagreement in the discussion",
		}}
	}
	return 100, nil
}

// checkAttribution wants every theme attributed to at least one source.
func checkAttribution(s *types.Synthesis, _ []types.ResearchSource) (float64, []types.QualityIssue) {
	if len(s.Themes) == 0 {
		return 0, nil
	}
	attributed := 0
	var issues []types.QualityIssue
	for _, t := range s.Themes {
		if len(t.SourceIDs) > 0 {
			attributed++
		} else {
			issues = append(issues, types.QualityIssue{
				Severity:    types.SeverityMinor,
				Description: fmt.Sprintf("theme %q has no source attribution", t.Name),
			})
		}
	}
	return float64(attributed) / float64(len(s.Themes)) * 100, issues
}

// checkClarity wants substantive, non-degenerate section prose.
func checkClarity(s *types.Synthesis, _ []types.ResearchSource) (float64, []types.QualityIssue) {
	if len(s.Sections) == 0 {
		return 40, []types.QualityIssue{{
			Severity:    types.SeverityMajor,
			Description: "synthesis has no narrative sections",
		}}
	}
	var issues []types.QualityIssue
	score := 100.0
	for _, sec := range s.Sections {
		if len(sec.Content) < 40 {
			score -= 15
			issues = append(issues, types.QualityIssue{
				Severity:    types.SeverityMinor,
				Description: fmt.Sprintf("section for theme %q is too short", sec.Theme),
			})
		}
	}
	return score, issues
}

// checkMethodology wants source diversity and some methodological grounding.
func checkMethodology(_ *types.Synthesis, sources []types.ResearchSource) (float64, []types.QualityIssue) {
	if len(sources) == 0 {
		return 30, nil
	}
	providers := make(map[types.PaperSource]bool)
	withAbstract := 0
	for _, src := range sources {
		providers[src.Source] = true
		if src.Abstract != "" {
			withAbstract++
		}
	}

	score := 60.0
	var issues []types.QualityIssue
	if len(providers) >= 2 {
		score += 20
	} else {
		issues = append(issues, types.QualityIssue{
			Severity:    types.SeverityMinor,
			Description: "all sources come from a single database",
			Suggestion:  "query additional providers for coverage",
		})
	}
	if withAbstract*2 >= len(sources) {
		score += 20
	}
	return score, issues
}

func clampScore(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
