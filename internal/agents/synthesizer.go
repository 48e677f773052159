// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/pkg/types"
)

// Synthesizer extracts 3-7 named themes across the sources via the LLM
// (with a deterministic term-frequency fallback), writes a narrative
// section per theme, collects evidence statements, and resolves simple
// two-sided conflicts between supporting and disputing source groups.
type Synthesizer struct {
	deps  Deps
	state agentState
}

func NewSynthesizer(deps Deps) *Synthesizer {
	a := &Synthesizer{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (s *Synthesizer) Type() types.AgentType   { return types.AgentSynthesizer }
func (s *Synthesizer) State() types.AgentState { return s.state.State() }

func (s *Synthesizer) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	s.state.start()
	analysis := actx.Outputs.Citations
	if analysis == nil || len(analysis.Sources) == 0 {
		return failed(s.Type(), &s.state, fmt.Errorf("no analyzed sources to synthesize"))
	}
	topic := actx.Topic()
	model := actx.Session.Config.Model
	sources := analysis.Sources

	s.state.milestone("extracting themes", 20)
	themes, tokens, fromFallback := s.extractThemes(ctx, topic, sources, model)

	s.state.milestone("writing narrative", 50)
	sections, sectionTokens := s.narrate(ctx, topic, themes, sources, model)
	tokens += sectionTokens

	s.state.milestone("collecting evidence", 75)
	evidence := collectEvidence(sources)
	conflicts := detectConflicts(topic, sources)

	out := &types.Synthesis{
		Themes:       themes,
		Sections:     sections,
		Evidence:     evidence,
		Conflicts:    conflicts,
		FromFallback: fromFallback,
	}
	return succeed(s.Type(), &s.state, out, tokens,
		message("assistant", fmt.Sprintf("synthesized %d themes, %d conflicts", len(themes), len(conflicts))))
}

// extractThemes asks the LLM for themes and falls back to term-frequency
// extraction when the response does not parse.
func (s *Synthesizer) extractThemes(ctx context.Context, topic string, sources []types.ResearchSource, model string) ([]types.Theme, int, bool) {
	prompt := themePrompt(topic, sources)
	resp, err := s.deps.complete(ctx, prompt, model)
	if err != nil {
		s.deps.logger().Warn("theme LLM call failed, using fallback", zap.Error(err))
		return fallbackThemes(sources), 0, true
	}

	var parsed []types.Theme
	if perr := parseJSONBlock(resp.Text, &parsed); perr != nil || len(parsed) == 0 {
		s.deps.logger().Warn("theme response unparseable, using fallback", zap.Error(perr))
		return fallbackThemes(sources), resp.TokensUsed, true
	}

	valid := validIDs(sources)
	themes := parsed[:0]
	for _, t := range parsed {
		if t.Name == "" {
			continue
		}
		// Drop attributions to sources the LLM invented.
		kept := t.SourceIDs[:0]
		for _, id := range t.SourceIDs {
			if valid[id] {
				kept = append(kept, id)
			}
		}
		t.SourceIDs = kept
		if t.Strength == "" {
			t.Strength = strengthFor(len(t.SourceIDs))
		}
		themes = append(themes, t)
		if len(themes) == 7 {
			break
		}
	}
	if len(themes) < 3 {
		return fallbackThemes(sources), resp.TokensUsed, true
	}
	return themes, resp.TokensUsed, false
}

func themePrompt(topic string, sources []types.ResearchSource) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Extract 3-7 research themes for a literature review on: %s\n\nSources:\n", topic)
	for _, src := range sources {
		fmt.Fprintf(&b, "- [%s] %s (%d): %s\n", src.ID, src.Title, src.Year, truncateText(src.Abstract, 300))
	}
	b.WriteString(`
Respond with a JSON array of objects with fields "name", "summary",
"source_ids" (IDs from the list above), "strength" (strong, moderate,
or emerging), and "consensus".`)
	return b.String()
}

// fallbackThemes derives themes from the most frequent long title terms,
// attributing each source whose title contains the term.
func fallbackThemes(sources []types.ResearchSource) []types.Theme {
	counts := make(map[string]int)
	bySource := make(map[string][]string)
	for _, src := range sources {
		for _, w := range contentWords(src.Title) {
			if len(w) < 5 {
				continue
			}
			counts[w]++
			bySource[w] = append(bySource[w], src.ID)
		}
	}

	terms := make([]string, 0, len(counts))
	for w := range counts {
		terms = append(terms, w)
	}
	sort.Slice(terms, func(i, j int) bool {
		if counts[terms[i]] != counts[terms[j]] {
			return counts[terms[i]] > counts[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > 7 {
		terms = terms[:7]
	}

	themes := make([]types.Theme, 0, len(terms))
	for _, w := range terms {
		themes = append(themes, types.Theme{
			Name:      capitalize(w),
			Summary:   fmt.Sprintf("Findings related to %s across %d sources.", w, counts[w]),
			SourceIDs: bySource[w],
			Strength:  strengthFor(counts[w]),
		})
	}
	if len(themes) == 0 {
		ids := make([]string, len(sources))
		for i, src := range sources {
			ids[i] = src.ID
		}
		themes = append(themes, types.Theme{
			Name: "General Findings", Summary: "Overall findings across the collected sources.",
			SourceIDs: ids, Strength: strengthFor(len(ids)),
		})
	}
	return themes
}

func strengthFor(n int) types.ThemeStrength {
	switch {
	case n >= 4:
		return types.ThemeStrong
	case n >= 2:
		return types.ThemeModerate
	default:
		return types.ThemeEmerging
	}
}

// narrate produces one prose section per theme, using the LLM with a
// template fallback per section.
func (s *Synthesizer) narrate(ctx context.Context, topic string, themes []types.Theme, sources []types.ResearchSource, model string) ([]types.NarrativeSection, int) {
	byID := make(map[string]types.ResearchSource, len(sources))
	for _, src := range sources {
		byID[src.ID] = src
	}

	tokens := 0
	sections := make([]types.NarrativeSection, 0, len(themes))
	for _, theme := range themes {
		prompt := fmt.Sprintf(
			"Write one paragraph for a literature review on %q covering the theme %q: %s Cite sources by ID where relevant: %s",
			topic, theme.Name, theme.Summary, strings.Join(theme.SourceIDs, ", "))
		content := ""
		if resp, err := s.deps.complete(ctx, prompt, model); err == nil && strings.TrimSpace(resp.Text) != "" {
			content = strings.TrimSpace(resp.Text)
			tokens += resp.TokensUsed
		} else {
			content = templateSection(theme, byID)
		}
		sections = append(sections, types.NarrativeSection{Theme: theme.Name, Content: content})
	}
	return sections, tokens
}

func templateSection(theme types.Theme, byID map[string]types.ResearchSource) string {
	var titles []string
	for _, id := range theme.SourceIDs {
		if src, ok := byID[id]; ok {
			titles = append(titles, fmt.Sprintf("%q (%d)", src.Title, src.Year))
		}
	}
	if len(titles) == 0 {
		return theme.Summary
	}
	return fmt.Sprintf("%s Relevant work includes %s.", theme.Summary, strings.Join(titles, ", "))
}

// collectEvidence takes the first sentence of each abstract as that
// source's evidence statement.
func collectEvidence(sources []types.ResearchSource) []types.Evidence {
	var evidence []types.Evidence
	for _, src := range sources {
		statement := firstSentence(src.Abstract)
		if statement == "" {
			continue
		}
		evidence = append(evidence, types.Evidence{SourceID: src.ID, Statement: statement})
	}
	return evidence
}

// detectConflicts reports a single two-sided conflict when both
// supporting and disputing sources exist. Resolution favors the side with
// clearly newer evidence, then the larger side, else unresolved.
func detectConflicts(topic string, sources []types.ResearchSource) []types.Conflict {
	var sideA, sideB []string
	newestA, newestB := 0, 0
	for _, src := range sources {
		switch src.Citation {
		case types.CitationSupporting:
			sideA = append(sideA, src.ID)
			if src.Year > newestA {
				newestA = src.Year
			}
		case types.CitationDisputing:
			sideB = append(sideB, src.ID)
			if src.Year > newestB {
				newestB = src.Year
			}
		}
	}
	if len(sideA) == 0 || len(sideB) == 0 {
		return nil
	}

	conflict := types.Conflict{Topic: topic, SideA: sideA, SideB: sideB}
	switch {
	case newestA >= newestB+3:
		conflict.Resolution = types.ResolvedByRecency
		conflict.Winner = "supporting"
	case newestB >= newestA+3:
		conflict.Resolution = types.ResolvedByRecency
		conflict.Winner = "disputing"
	case len(sideA) > len(sideB):
		conflict.Resolution = types.ResolvedByMajority
		conflict.Winner = "supporting"
	case len(sideB) > len(sideA):
		conflict.Resolution = types.ResolvedByMajority
		conflict.Winner = "disputing"
	default:
		conflict.Resolution = types.ResolvedUnresolved
	}
	return []types.Conflict{conflict}
}

func validIDs(sources []types.ResearchSource) map[string]bool {
	m := make(map[string]bool, len(sources))
	for _, src := range sources {
		m[src.ID] = true
	}
	return m
}

func firstSentence(text string) string {
	text = strings.TrimSpace(text)
	if text == "" {
		return ""
	}
	if i := strings.IndexAny(text, ".!?"); i > 0 {
		return text[:i+1]
	}
	return truncateText(text, 200)
}

func truncateText(text string, max int) string {
	if len(text) <= max {
		return text
	}
	return text[:max-3] + "..."
}

func capitalize(w string) string {
	if w == "" {
		return w
	}
	return strings.ToUpper(w[:1]) + w[1:]
}
