// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

// ClarifyingQuestion is one question the clarifier raises about the topic.
type ClarifyingQuestion struct {
	// ID is a short stable key (e.g. "timeframe").
	ID string `json:"id" yaml:"id"`

	Question string `json:"question" yaml:"question"`

	// Critical questions gate topic refinement: the clarifier tracks
	// whether every critical question received an answer.
	Critical bool `json:"critical" yaml:"critical"`

	// Rank orders questions by importance, 1 being highest.
	Rank int `json:"rank" yaml:"rank"`

	Answer string `json:"answer,omitempty" yaml:"answer,omitempty"`
}

// ClarificationOutput is the clarifier agent's payload.
type ClarificationOutput struct {
	Questions []ClarifyingQuestion `json:"questions" yaml:"questions"`

	// NeedsInput reports whether the session should suspend for answers.
	NeedsInput bool `json:"needs_input" yaml:"needs_input"`

	// RefinedTopic is the topic with answers folded in; equals the
	// original topic when clarification was skipped.
	RefinedTopic string `json:"refined_topic,omitempty" yaml:"refined_topic,omitempty"`
}

func (*ClarificationOutput) ProducedBy() AgentType { return AgentClarifier }

// PerspectiveRole is one of the expert roles the perspective analyst can take.
type PerspectiveRole string

const (
	RoleDomainExpert    PerspectiveRole = "domain_expert"
	RoleMethodologist   PerspectiveRole = "methodologist"
	RoleClinician       PerspectiveRole = "clinician"
	RoleCritic          PerspectiveRole = "critic"
	RoleHistorian       PerspectiveRole = "historian"
	RoleFuturist        PerspectiveRole = "futurist"
	RolePatientAdvocate PerspectiveRole = "patient_advocate"
)

// Perspective is one expert viewpoint with its probing questions.
type Perspective struct {
	Role      PerspectiveRole `json:"role" yaml:"role"`
	Title     string          `json:"title" yaml:"title"`
	Focus     string          `json:"focus" yaml:"focus"`
	Questions []string        `json:"questions" yaml:"questions"`
}

// PerspectiveOutput is the perspective analyst's payload.
type PerspectiveOutput struct {
	Perspectives []Perspective `json:"perspectives" yaml:"perspectives"`

	// FromFallback is set when the LLM response failed to parse and the
	// deterministic templates were used instead.
	FromFallback bool `json:"from_fallback" yaml:"from_fallback"`
}

func (*PerspectiveOutput) ProducedBy() AgentType { return AgentPerspectiveAnalyst }

// SearchQueryPlan is one provider-targeted boolean query.
type SearchQueryPlan struct {
	Provider PaperSource `json:"provider" yaml:"provider"`

	// Query is the boolean expression, e.g.
	// (caffeine OR coffee) AND (cognition OR "cognitive performance").
	Query string `json:"query" yaml:"query"`

	// Priority orders providers by topic-domain fit, 1 being best.
	Priority int `json:"priority" yaml:"priority"`
}

// StrategyOutput is the search strategist's payload.
type StrategyOutput struct {
	// Concepts are the extracted key concepts, most salient first.
	Concepts []string `json:"concepts" yaml:"concepts"`

	// Synonyms maps each concept to its expansion terms.
	Synonyms map[string][]string `json:"synonyms,omitempty" yaml:"synonyms,omitempty"`

	Queries []SearchQueryPlan `json:"queries" yaml:"queries"`
}

func (*StrategyOutput) ProducedBy() AgentType { return AgentSearchStrategist }

// ResearchOutput is the researcher agent's payload.
type ResearchOutput struct {
	Sources []ResearchSource `json:"sources" yaml:"sources"`

	// Considered is the number of candidates scored before filtering.
	Considered int `json:"considered" yaml:"considered"`

	// ProviderErrors records per-provider failures; the aggregate search
	// degrades rather than failing when a provider is down.
	ProviderErrors map[PaperSource]string `json:"provider_errors,omitempty" yaml:"provider_errors,omitempty"`
}

func (*ResearchOutput) ProducedBy() AgentType { return AgentResearcher }

// CoCitationEdge links two sources the citation analyst considers related.
type CoCitationEdge struct {
	A      string `json:"a" yaml:"a"`
	B      string `json:"b" yaml:"b"`
	Reason string `json:"reason" yaml:"reason"`
}

// SourceCluster is a connected component of the co-citation graph.
type SourceCluster struct {
	ID        int      `json:"id" yaml:"id"`
	SourceIDs []string `json:"source_ids" yaml:"source_ids"`
}

// ConfidenceLevel grades the consensus strength.
type ConfidenceLevel string

const (
	ConfidenceHigh     ConfidenceLevel = "high"
	ConfidenceModerate ConfidenceLevel = "moderate"
	ConfidenceLow      ConfidenceLevel = "low"
)

// Consensus is the aggregated yes/no breakdown for a question-phrased topic.
type Consensus struct {
	IsYesNoQuestion bool            `json:"is_yes_no_question" yaml:"is_yes_no_question"`
	YesPercentage   float64         `json:"yes_percentage" yaml:"yes_percentage"`
	NoPercentage    float64         `json:"no_percentage" yaml:"no_percentage"`
	UnclearCount    int             `json:"unclear_count" yaml:"unclear_count"`
	ConfidenceLevel ConfidenceLevel `json:"confidence_level" yaml:"confidence_level"`
}

// CitationAnalysis is the citation analyst's payload.
type CitationAnalysis struct {
	// Sources carries the classified sources with influence scores.
	Sources []ResearchSource `json:"sources" yaml:"sources"`

	Edges    []CoCitationEdge `json:"edges,omitempty" yaml:"edges,omitempty"`
	Clusters []SourceCluster  `json:"clusters,omitempty" yaml:"clusters,omitempty"`

	// KeyPapers are source IDs ranked by degree centrality.
	KeyPapers []string `json:"key_papers,omitempty" yaml:"key_papers,omitempty"`

	// BridgePapers connect otherwise separate clusters.
	BridgePapers []string `json:"bridge_papers,omitempty" yaml:"bridge_papers,omitempty"`

	Consensus *Consensus `json:"consensus,omitempty" yaml:"consensus,omitempty"`
}

func (*CitationAnalysis) ProducedBy() AgentType { return AgentCitationAnalyst }

// ThemeStrength labels how well supported a synthesis theme is.
type ThemeStrength string

const (
	ThemeStrong   ThemeStrength = "strong"
	ThemeModerate ThemeStrength = "moderate"
	ThemeEmerging ThemeStrength = "emerging"
)

// Theme is one named finding extracted across sources.
type Theme struct {
	Name      string        `json:"name" yaml:"name"`
	Summary   string        `json:"summary" yaml:"summary"`
	SourceIDs []string      `json:"source_ids" yaml:"source_ids"`
	Strength  ThemeStrength `json:"strength" yaml:"strength"`

	// Consensus labels agreement among the attributed sources.
	Consensus string `json:"consensus,omitempty" yaml:"consensus,omitempty"`
}

// Evidence ties a claim to its supporting source.
type Evidence struct {
	SourceID  string `json:"source_id" yaml:"source_id"`
	Statement string `json:"statement" yaml:"statement"`
}

// ConflictResolution names the heuristic used to resolve a conflict.
type ConflictResolution string

const (
	ResolvedByRecency  ConflictResolution = "recency"
	ResolvedByMajority ConflictResolution = "majority"
	ResolvedUnresolved ConflictResolution = "unresolved"
)

// Conflict is a detected two-sided disagreement between source groups.
type Conflict struct {
	Topic      string             `json:"topic" yaml:"topic"`
	SideA      []string           `json:"side_a" yaml:"side_a"`
	SideB      []string           `json:"side_b" yaml:"side_b"`
	Resolution ConflictResolution `json:"resolution" yaml:"resolution"`
	Winner     string             `json:"winner,omitempty" yaml:"winner,omitempty"`
}

// NarrativeSection is one synthesized prose section for a theme.
type NarrativeSection struct {
	Theme   string `json:"theme" yaml:"theme"`
	Content string `json:"content" yaml:"content"`
}

// Synthesis is the synthesizer agent's payload.
type Synthesis struct {
	Themes    []Theme            `json:"themes" yaml:"themes"`
	Sections  []NarrativeSection `json:"sections,omitempty" yaml:"sections,omitempty"`
	Evidence  []Evidence         `json:"evidence,omitempty" yaml:"evidence,omitempty"`
	Conflicts []Conflict         `json:"conflicts,omitempty" yaml:"conflicts,omitempty"`

	// FromFallback is set when theme extraction used the deterministic
	// fallback instead of parsed LLM output.
	FromFallback bool `json:"from_fallback" yaml:"from_fallback"`
}

func (*Synthesis) ProducedBy() AgentType { return AgentSynthesizer }

// ReportSection is one titled section of the final report.
type ReportSection struct {
	Title   string `json:"title" yaml:"title"`
	Content string `json:"content" yaml:"content"`
}

// Reference is one formatted bibliography entry.
type Reference struct {
	SourceID string `json:"source_id" yaml:"source_id"`

	// InText is the marker used inside prose, e.g. "(Smith, 2023)" or "[4]".
	InText string `json:"in_text" yaml:"in_text"`

	// Formatted is the full reference-list entry in the selected style.
	Formatted string `json:"formatted" yaml:"formatted"`
}

// Report is the writer agent's payload.
type Report struct {
	Title      string          `json:"title" yaml:"title"`
	Sections   []ReportSection `json:"sections" yaml:"sections"`
	References []Reference     `json:"references" yaml:"references"`
	Style      CitationStyle   `json:"style" yaml:"style"`

	WordCount int `json:"word_count" yaml:"word_count"`

	// ReadingTimeMinutes assumes 200 words per minute, rounded up.
	ReadingTimeMinutes int `json:"reading_time_minutes" yaml:"reading_time_minutes"`
}

func (*Report) ProducedBy() AgentType { return AgentWriter }
