// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// Stance keyword patterns, checked in order; the first match wins and
// unmatched abstracts fall through to mentioning.
var stancePatterns = []struct {
	stance  types.CitationType
	pattern *regexp.Regexp
}{
	{types.CitationDisputing, regexp.MustCompile(`(?i)\b(no significant|contradict|dispute|fail(ed|s)? to|no evidence|no effect|inconclusive|refute|did not (improve|differ|affect)|however,? (no|not))\b`)},
	{types.CitationSupporting, regexp.MustCompile(`(?i)\b(support|confirm|consistent with|demonstrate|improve[ds]?|effective|benefit|significant (increase|improvement|effect)|enhance[ds]?)\b`)},
	{types.CitationMethodology, regexp.MustCompile(`(?i)\b(we propose|novel (method|approach|framework)|protocol|methodology|a (method|framework|pipeline) (for|to)|validation study)\b`)},
	{types.CitationDataSource, regexp.MustCompile(`(?i)\b(dataset|cohort study|registry|longitudinal survey|national survey|biobank|corpus of)\b`)},
}

var yesNoQuestionPattern = regexp.MustCompile(`(?i)^(does|do|is|are|can|could|will|would|should|has|have)\b`)

// CitationAnalyst classifies each source's stance toward the topic,
// builds a co-citation graph, detects clusters and bridge papers, ranks
// key papers by degree centrality, and computes a yes/no consensus when
// the topic is phrased as a question.
type CitationAnalyst struct {
	deps  Deps
	state agentState
}

func NewCitationAnalyst(deps Deps) *CitationAnalyst {
	a := &CitationAnalyst{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (a *CitationAnalyst) Type() types.AgentType   { return types.AgentCitationAnalyst }
func (a *CitationAnalyst) State() types.AgentState { return a.state.State() }

func (a *CitationAnalyst) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	a.state.start()
	research := actx.Outputs.Research
	if research == nil {
		return failed(a.Type(), &a.state, fmt.Errorf("no research sources available"))
	}

	sources := make([]types.ResearchSource, len(research.Sources))
	copy(sources, research.Sources)

	a.state.milestone("classifying stances", 25)
	for i := range sources {
		sources[i].Citation = classifyStance(sources[i].Abstract)
	}

	a.state.milestone("building co-citation graph", 50)
	edges := coCitationEdges(sources)
	adjacency := buildAdjacency(sources, edges)
	clusters := connectedComponents(sources, adjacency)

	a.state.milestone("ranking papers", 75)
	keyPapers := rankByDegree(adjacency)
	bridges := bridgePapers(sources, adjacency)

	// Influence is normalized degree centrality.
	maxDegree := 0
	for _, nbrs := range adjacency {
		if len(nbrs) > maxDegree {
			maxDegree = len(nbrs)
		}
	}
	for i := range sources {
		if maxDegree > 0 {
			sources[i].Influence = float64(len(adjacency[sources[i].ID])) / float64(maxDegree)
		}
	}

	out := &types.CitationAnalysis{
		Sources:      sources,
		Edges:        edges,
		Clusters:     clusters,
		KeyPapers:    keyPapers,
		BridgePapers: bridges,
		Consensus:    computeConsensus(actx.Topic(), sources),
	}
	return succeed(a.Type(), &a.state, out, 0,
		message("assistant", fmt.Sprintf("classified %d sources into %d clusters", len(sources), len(clusters))))
}

// classifyStance matches the abstract against the stance patterns.
func classifyStance(abstract string) types.CitationType {
	for _, sp := range stancePatterns {
		if sp.pattern.MatchString(abstract) {
			return sp.stance
		}
	}
	return types.CitationMentioning
}

// coCitationEdges links two sources that share an author, or share at
// least two long title words, provided their publication years are within
// three of each other.
func coCitationEdges(sources []types.ResearchSource) []types.CoCitationEdge {
	var edges []types.CoCitationEdge
	for i := 0; i < len(sources); i++ {
		for j := i + 1; j < len(sources); j++ {
			a, b := sources[i], sources[j]
			if a.Year > 0 && b.Year > 0 && abs(a.Year-b.Year) > 3 {
				continue
			}
			if reason := relationReason(a.SearchPaper, b.SearchPaper); reason != "" {
				edges = append(edges, types.CoCitationEdge{A: a.ID, B: b.ID, Reason: reason})
			}
		}
	}
	return edges
}

func relationReason(a, b types.SearchPaper) string {
	for _, aa := range a.Authors {
		for _, ba := range b.Authors {
			if aa != "" && strings.EqualFold(aa, ba) {
				return "shared author"
			}
		}
	}
	shared := 0
	bWords := make(map[string]bool)
	for _, w := range contentWords(b.Title) {
		if len(w) >= 5 {
			bWords[w] = true
		}
	}
	for _, w := range contentWords(a.Title) {
		if len(w) >= 5 && bWords[w] {
			shared++
		}
	}
	if shared >= 2 {
		return "shared topic terms"
	}
	return ""
}

func buildAdjacency(sources []types.ResearchSource, edges []types.CoCitationEdge) map[string][]string {
	adjacency := make(map[string][]string, len(sources))
	for _, s := range sources {
		adjacency[s.ID] = nil
	}
	for _, e := range edges {
		adjacency[e.A] = append(adjacency[e.A], e.B)
		adjacency[e.B] = append(adjacency[e.B], e.A)
	}
	return adjacency
}

// connectedComponents groups sources into clusters; singletons are kept
// so every source belongs to exactly one cluster.
func connectedComponents(sources []types.ResearchSource, adjacency map[string][]string) []types.SourceCluster {
	visited := make(map[string]bool)
	var clusters []types.SourceCluster

	for _, s := range sources {
		if visited[s.ID] {
			continue
		}
		var member []string
		queue := []string{s.ID}
		visited[s.ID] = true
		for len(queue) > 0 {
			id := queue[0]
			queue = queue[1:]
			member = append(member, id)
			for _, n := range adjacency[id] {
				if !visited[n] {
					visited[n] = true
					queue = append(queue, n)
				}
			}
		}
		sort.Strings(member)
		clusters = append(clusters, types.SourceCluster{ID: len(clusters), SourceIDs: member})
	}
	return clusters
}

// rankByDegree returns up to five source IDs by descending degree
// centrality, skipping isolated sources.
func rankByDegree(adjacency map[string][]string) []string {
	type ranked struct {
		id     string
		degree int
	}
	var list []ranked
	for id, nbrs := range adjacency {
		if len(nbrs) > 0 {
			list = append(list, ranked{id, len(nbrs)})
		}
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].degree != list[j].degree {
			return list[i].degree > list[j].degree
		}
		return list[i].id < list[j].id
	})
	if len(list) > 5 {
		list = list[:5]
	}
	out := make([]string, len(list))
	for i, r := range list {
		out[i] = r.id
	}
	return out
}

// bridgePapers flags sources whose removal splits their cluster: papers
// holding otherwise-distinct groups together.
func bridgePapers(sources []types.ResearchSource, adjacency map[string][]string) []string {
	var bridges []string
	for _, s := range sources {
		if len(adjacency[s.ID]) < 2 {
			continue
		}
		if splitsComponent(s.ID, adjacency) {
			bridges = append(bridges, s.ID)
		}
	}
	sort.Strings(bridges)
	return bridges
}

// splitsComponent reports whether removing id disconnects its neighbors.
func splitsComponent(id string, adjacency map[string][]string) bool {
	neighbors := adjacency[id]
	start := neighbors[0]
	visited := map[string]bool{id: true, start: true}
	queue := []string{start}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, n := range adjacency[cur] {
			if !visited[n] {
				visited[n] = true
				queue = append(queue, n)
			}
		}
	}
	for _, n := range neighbors {
		if !visited[n] {
			return true
		}
	}
	return false
}

// computeConsensus derives yes/no percentages when the topic reads as a
// question. Supporting sources count as yes, disputing as no; stances
// outside the two sides count as unclear.
func computeConsensus(topic string, sources []types.ResearchSource) *types.Consensus {
	isQuestion := strings.HasSuffix(strings.TrimSpace(topic), "?") ||
		yesNoQuestionPattern.MatchString(strings.TrimSpace(topic))
	if !isQuestion {
		return &types.Consensus{IsYesNoQuestion: false, ConfidenceLevel: types.ConfidenceLow}
	}

	yes, no, unclear := 0, 0, 0
	for _, s := range sources {
		switch s.Citation {
		case types.CitationSupporting:
			yes++
		case types.CitationDisputing:
			no++
		default:
			unclear++
		}
	}

	c := &types.Consensus{IsYesNoQuestion: true, UnclearCount: unclear, ConfidenceLevel: types.ConfidenceLow}
	if total := yes + no; total > 0 {
		c.YesPercentage = float64(yes) / float64(total) * 100
		c.NoPercentage = float64(no) / float64(total) * 100
		majority := c.YesPercentage
		if c.NoPercentage > majority {
			majority = c.NoPercentage
		}
		switch {
		case majority >= 70:
			c.ConfidenceLevel = types.ConfidenceHigh
		case majority >= 55:
			c.ConfidenceLevel = types.ConfidenceModerate
		}
	}
	return c
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
