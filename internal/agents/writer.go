// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// reportSectionNames is the fixed section order of the final report.
var reportSectionNames = []string{
	"Executive Summary",
	"Introduction",
	"Methodology",
	"Findings",
	"Discussion",
	"Limitations",
	"Conclusions",
}

// Writer produces the final report: polished prose per section via the
// LLM with deterministic template fallbacks, plus in-text citations and a
// reference list in the session's citation style.
type Writer struct {
	deps  Deps
	state agentState
}

func NewWriter(deps Deps) *Writer {
	a := &Writer{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (w *Writer) Type() types.AgentType   { return types.AgentWriter }
func (w *Writer) State() types.AgentState { return w.state.State() }

func (w *Writer) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	w.state.start()
	synthesis := actx.Outputs.Synthesis
	if synthesis == nil {
		return failed(w.Type(), &w.state, fmt.Errorf("no synthesis to write from"))
	}

	topic := actx.Topic()
	style := actx.Session.Config.Style
	if style == "" {
		style = types.StyleAPA
	}

	var sources []types.ResearchSource
	if actx.Outputs.Citations != nil {
		sources = actx.Outputs.Citations.Sources
	} else if actx.Outputs.Research != nil {
		sources = actx.Outputs.Research.Sources
	}

	w.state.milestone("formatting references", 20)
	references := formatReferences(sources, style)

	w.state.milestone("drafting sections", 40)
	tokens := 0
	sections := make([]types.ReportSection, 0, len(reportSectionNames))
	for _, name := range reportSectionNames {
		content, used := w.draftSection(ctx, name, topic, actx, references)
		tokens += used
		sections = append(sections, types.ReportSection{Title: name, Content: content})
	}

	report := &types.Report{
		Title:      reportTitle(topic),
		Sections:   sections,
		References: references,
		Style:      style,
	}
	report.WordCount = countWords(report)
	report.ReadingTimeMinutes = (report.WordCount + 199) / 200

	return succeed(w.Type(), &w.state, report, tokens,
		message("assistant", fmt.Sprintf("wrote %d sections, %d words", len(sections), report.WordCount)))
}

// draftSection asks the LLM for one section and falls back to the
// deterministic template when the call fails or returns nothing.
func (w *Writer) draftSection(ctx context.Context, name, topic string, actx *types.AgentContext, refs []types.Reference) (string, int) {
	prompt := sectionPrompt(name, topic, actx)
	if resp, err := w.deps.complete(ctx, prompt, actx.Session.Config.Model); err == nil && strings.TrimSpace(resp.Text) != "" {
		return strings.TrimSpace(resp.Text), resp.TokensUsed
	}
	return templateReportSection(name, topic, actx, refs), 0
}

func sectionPrompt(name, topic string, actx *types.AgentContext) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Write the %q section of a literature review report on: %s\n", name, topic)
	if s := actx.Outputs.Synthesis; s != nil {
		b.WriteString("Themes:\n")
		for _, t := range s.Themes {
			fmt.Fprintf(&b, "- %s (%s): %s\n", t.Name, t.Strength, t.Summary)
		}
	}
	if c := actx.Outputs.Citations; c != nil && c.Consensus != nil && c.Consensus.IsYesNoQuestion {
		fmt.Fprintf(&b, "Consensus: %.0f%% yes, %.0f%% no (%s confidence)\n",
			c.Consensus.YesPercentage, c.Consensus.NoPercentage, c.Consensus.ConfidenceLevel)
	}
	b.WriteString("Respond with polished prose only, no headings.")
	return b.String()
}

// templateReportSection renders the deterministic fallback prose.
func templateReportSection(name, topic string, actx *types.AgentContext, refs []types.Reference) string {
	synthesis := actx.Outputs.Synthesis
	switch name {
	case "Executive Summary":
		themes := themeNames(synthesis)
		return fmt.Sprintf(
			"This review examines %s, drawing on %d sources. The evidence organizes into %d themes: %s.",
			topic, len(refs), len(synthesis.Themes), strings.Join(themes, ", "))
	case "Introduction":
		return fmt.Sprintf(
			"The question of %s has attracted sustained research attention. This review surveys the published literature to map the current state of evidence and its open disagreements.",
			topic)
	case "Methodology":
		providers := providerNames(actx)
		return fmt.Sprintf(
			"Sources were retrieved through systematic queries against %s, deduplicated across databases, scored on relevance, quality, recency, and impact, and the %d strongest candidates retained for analysis.",
			strings.Join(providers, ", "), len(refs))
	case "Findings":
		var b strings.Builder
		for i, sec := range synthesis.Sections {
			if i > 0 {
				b.WriteString("\n\n")
			}
			fmt.Fprintf(&b, "%s. %s", sec.Theme, sec.Content)
		}
		if b.Len() == 0 {
			return "The collected sources did not organize into distinct findings."
		}
		return b.String()
	case "Discussion":
		if c := actx.Outputs.Citations; c != nil && c.Consensus != nil && c.Consensus.IsYesNoQuestion {
			return fmt.Sprintf(
				"Across sources taking a clear position, %.0f%% support an affirmative answer and %.0f%% dispute it (%s confidence; %d sources were unclear).",
				c.Consensus.YesPercentage, c.Consensus.NoPercentage, c.Consensus.ConfidenceLevel, c.Consensus.UnclearCount)
		}
		if len(synthesis.Conflicts) > 0 {
			cf := synthesis.Conflicts[0]
			return fmt.Sprintf(
				"The literature divides on this topic: %d sources support the central claim while %d dispute it. The disagreement resolves by %s.",
				len(cf.SideA), len(cf.SideB), cf.Resolution)
		}
		return "The reviewed sources are broadly consistent, with no substantial conflicts detected."
	case "Limitations":
		return fmt.Sprintf(
			"This review is limited to %d sources retrievable through public database APIs; studies behind access barriers, non-indexed work, and very recent publications may be underrepresented.",
			len(refs))
	case "Conclusions":
		strong := 0
		for _, t := range synthesis.Themes {
			if t.Strength == types.ThemeStrong {
				strong++
			}
		}
		return fmt.Sprintf(
			"Of the %d themes identified, %d rest on strong multi-source evidence. Further primary research is warranted where evidence remains emerging.",
			len(synthesis.Themes), strong)
	default:
		return ""
	}
}

// formatReferences renders the reference list in the selected style, with
// in-text markers.
func formatReferences(sources []types.ResearchSource, style types.CitationStyle) []types.Reference {
	refs := make([]types.Reference, 0, len(sources))
	for i, src := range sources {
		refs = append(refs, types.Reference{
			SourceID:  src.ID,
			InText:    inTextCitation(src.SearchPaper, style, i+1),
			Formatted: formatReference(src.SearchPaper, style, i+1),
		})
	}
	return refs
}

func inTextCitation(p types.SearchPaper, style types.CitationStyle, n int) string {
	switch style {
	case types.StyleVancouver:
		return fmt.Sprintf("[%d]", n)
	case types.StyleHarvard, types.StyleChicago:
		return fmt.Sprintf("(%s %d)", refSurname(p), p.Year)
	default: // APA
		return fmt.Sprintf("(%s, %d)", refSurname(p), p.Year)
	}
}

func formatReference(p types.SearchPaper, style types.CitationStyle, n int) string {
	authors := refAuthors(p)
	journal := p.Journal
	if journal == "" {
		journal = string(p.Source)
	}
	switch style {
	case types.StyleVancouver:
		s := fmt.Sprintf("%d. %s. %s. %s. %d.", n, authors, p.Title, journal, p.Year)
		if p.DOI != "" {
			s += " doi:" + p.DOI
		}
		return s
	case types.StyleHarvard:
		return fmt.Sprintf("%s %d, '%s', %s.", authors, p.Year, p.Title, journal)
	case types.StyleChicago:
		return fmt.Sprintf("%s. %q %s (%d).", authors, p.Title, journal, p.Year)
	default: // APA
		s := fmt.Sprintf("%s (%d). %s. %s.", authors, p.Year, p.Title, journal)
		if p.DOI != "" {
			s += " https://doi.org/" + p.DOI
		}
		return s
	}
}

func refSurname(p types.SearchPaper) string {
	if len(p.Authors) == 0 {
		return "Anon"
	}
	fields := strings.Fields(p.Authors[0])
	if len(fields) == 0 {
		return "Anon"
	}
	return fields[len(fields)-1]
}

func refAuthors(p types.SearchPaper) string {
	switch len(p.Authors) {
	case 0:
		return "Anonymous"
	case 1:
		return p.Authors[0]
	case 2:
		return p.Authors[0] + " & " + p.Authors[1]
	default:
		return p.Authors[0] + " et al."
	}
}

func reportTitle(topic string) string {
	topic = strings.TrimSuffix(strings.TrimSpace(topic), "?")
	return capitalize(topic) + ": A Literature Review"
}

func countWords(r *types.Report) int {
	n := 0
	for _, s := range r.Sections {
		n += len(strings.Fields(s.Content))
	}
	return n
}

func themeNames(s *types.Synthesis) []string {
	names := make([]string, len(s.Themes))
	for i, t := range s.Themes {
		names[i] = t.Name
	}
	return names
}

func providerNames(actx *types.AgentContext) []string {
	providers := actx.Session.Config.Providers
	if len(providers) == 0 {
		providers = types.AllSources
	}
	names := make([]string, len(providers))
	for i, p := range providers {
		names[i] = string(p)
	}
	return names
}
