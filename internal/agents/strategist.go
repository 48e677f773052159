// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/pdiddy/litreview/pkg/types"
)

// synonymTable expands common research terms into their search synonyms.
// The table is intentionally small and static; unknown terms simply get
// no expansion.
var synonymTable = map[string][]string{
	"caffeine":      {"coffee", "coffee consumption"},
	"cognition":     {"cognitive performance", "cognitive function"},
	"cognitive":     {"cognition"},
	"memory":        {"recall", "working memory"},
	"exercise":      {"physical activity", "training"},
	"cancer":        {"neoplasm", "tumor", "carcinoma"},
	"heart":         {"cardiac", "cardiovascular"},
	"diabetes":      {"diabetes mellitus", "type 2 diabetes"},
	"depression":    {"depressive disorder", "major depression"},
	"anxiety":       {"anxiety disorder"},
	"sleep":         {"sleep quality", "insomnia"},
	"obesity":       {"overweight", "adiposity"},
	"microbiome":    {"microbiota", "gut flora"},
	"ai":            {"artificial intelligence", "machine learning"},
	"ml":            {"machine learning"},
	"deep":          {"deep learning", "neural network"},
	"learning":      {"machine learning"},
	"llm":           {"large language model"},
	"transformer":   {"attention mechanism"},
	"gene":          {"genetic", "genomic"},
	"vaccine":       {"vaccination", "immunization"},
	"inflammation":  {"inflammatory response"},
	"mortality":     {"death rate", "survival"},
	"children":      {"pediatric", "child"},
	"adults":        {"adult"},
	"elderly":       {"older adults", "aged"},
	"treatment":     {"therapy", "intervention"},
	"performance":   {"function", "ability"},
	"climate":       {"climate change", "global warming"},
	"quantum":       {"quantum computing"},
	"blockchain":    {"distributed ledger"},
}

var clinicalDomainKeywords = []string{
	"patient", "clinical", "treatment", "therapy", "disease", "drug",
	"trial", "caffeine", "diet", "cancer", "diabetes", "vaccine",
	"mortality", "symptom", "health", "cognitive", "sleep",
}

var computingDomainKeywords = []string{
	"machine learning", "deep learning", "neural", "artificial intelligence",
	"algorithm", "transformer", "language model", "quantum", "software",
	"computer", "blockchain", "robotics",
}

// SearchStrategist extracts up to five key concepts from the topic,
// expands each through the synonym table, builds one boolean query per
// configured provider, and orders providers by topic-domain fit.
type SearchStrategist struct {
	deps  Deps
	state agentState
}

func NewSearchStrategist(deps Deps) *SearchStrategist {
	a := &SearchStrategist{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (s *SearchStrategist) Type() types.AgentType   { return types.AgentSearchStrategist }
func (s *SearchStrategist) State() types.AgentState { return s.state.State() }

func (s *SearchStrategist) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	s.state.start()
	topic := actx.Topic()
	if topic == "" {
		return failed(s.Type(), &s.state, fmt.Errorf("no topic to strategize"))
	}

	s.state.milestone("extracting concepts", 25)
	concepts := extractConcepts(topic)
	if len(concepts) == 0 {
		return failed(s.Type(), &s.state, fmt.Errorf("no extractable concepts in topic %q", topic))
	}

	s.state.milestone("expanding synonyms", 50)
	synonyms := make(map[string][]string, len(concepts))
	for _, c := range concepts {
		if syns := lookupSynonyms(c); len(syns) > 0 {
			synonyms[c] = syns
		}
	}

	s.state.milestone("building queries", 75)
	providers := orderProviders(topic, actx.Session.Config.Providers)
	query := buildBooleanQuery(concepts, synonyms)

	queries := make([]types.SearchQueryPlan, len(providers))
	for i, p := range providers {
		queries[i] = types.SearchQueryPlan{Provider: p, Query: query, Priority: i + 1}
	}

	out := &types.StrategyOutput{Concepts: concepts, Synonyms: synonyms, Queries: queries}
	return succeed(s.Type(), &s.state, out, 0,
		message("assistant", fmt.Sprintf("built %d provider queries over %d concepts", len(queries), len(concepts))))
}

// extractConcepts returns up to five key concepts: two-word phrases where
// adjacent content words occur, then remaining single words.
func extractConcepts(topic string) []string {
	words := contentWords(topic)
	if len(words) == 0 {
		return nil
	}

	var concepts []string
	used := make(map[string]bool)

	// Adjacent content-word pairs form phrase concepts.
	lower := strings.ToLower(topic)
	for i := 0; i+1 < len(words) && len(concepts) < 2; i++ {
		phrase := words[i] + " " + words[i+1]
		if strings.Contains(lower, phrase) {
			concepts = append(concepts, phrase)
			used[words[i]] = true
			used[words[i+1]] = true
		}
	}

	for _, w := range words {
		if len(concepts) == 5 {
			break
		}
		if !used[w] {
			concepts = append(concepts, w)
			used[w] = true
		}
	}
	return concepts
}

// lookupSynonyms expands a concept; multi-word concepts match on any of
// their words.
func lookupSynonyms(concept string) []string {
	if syns, ok := synonymTable[concept]; ok {
		return syns
	}
	var out []string
	seen := make(map[string]bool)
	for _, w := range strings.Fields(concept) {
		for _, s := range synonymTable[w] {
			if !seen[s] && s != concept {
				seen[s] = true
				out = append(out, s)
			}
		}
	}
	return out
}

// buildBooleanQuery renders (term OR synonym...) AND (...) over the
// concepts. Multi-word terms are quoted.
func buildBooleanQuery(concepts []string, synonyms map[string][]string) string {
	groups := make([]string, 0, len(concepts))
	for _, c := range concepts {
		terms := append([]string{c}, synonyms[c]...)
		for i, t := range terms {
			if strings.Contains(t, " ") {
				terms[i] = `"` + t + `"`
			}
		}
		if len(terms) == 1 {
			groups = append(groups, terms[0])
		} else {
			groups = append(groups, "("+strings.Join(terms, " OR ")+")")
		}
	}
	return strings.Join(groups, " AND ")
}

// orderProviders sorts the configured providers by topic-domain fit:
// clinical topics lead with PubMed and Europe PMC, computing topics with
// arXiv, everything else keeps the configured order.
func orderProviders(topic string, configured []types.PaperSource) []types.PaperSource {
	if len(configured) == 0 {
		configured = types.AllSources
	}
	lower := strings.ToLower(topic)

	weight := func(p types.PaperSource) int { return 0 }
	switch {
	case containsAny(lower, clinicalDomainKeywords):
		weight = func(p types.PaperSource) int {
			switch p {
			case types.SourcePubMed:
				return -2
			case types.SourceEuropePMC:
				return -1
			default:
				return 0
			}
		}
	case containsAny(lower, computingDomainKeywords):
		weight = func(p types.PaperSource) int {
			switch p {
			case types.SourceArxiv:
				return -2
			case types.SourceSemanticScholar:
				return -1
			default:
				return 0
			}
		}
	}

	ordered := make([]types.PaperSource, len(configured))
	copy(ordered, configured)
	sort.SliceStable(ordered, func(i, j int) bool {
		return weight(ordered[i]) < weight(ordered[j])
	})
	return ordered
}
