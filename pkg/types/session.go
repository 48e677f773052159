// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// ResearchMode selects one of five presets controlling how deep and broad a
// research session goes.
type ResearchMode string

const (
	// ModeQuick is a fast overview: few sources, two providers.
	ModeQuick ResearchMode = "quick"

	// ModeStandard is the balanced default.
	ModeStandard ResearchMode = "standard"

	// ModeComprehensive queries every provider with a large source budget.
	ModeComprehensive ResearchMode = "comprehensive"

	// ModeClinical favors biomedical databases and recent trials.
	ModeClinical ResearchMode = "clinical"

	// ModeExploratory favors preprint servers and a wide date range.
	ModeExploratory ResearchMode = "exploratory"
)

// ModePreset holds the knobs a ResearchMode fixes.
type ModePreset struct {
	// Depth is the citation-graph traversal depth used by graph builds
	// started from this session.
	Depth int `json:"depth" yaml:"depth"`

	// Breadth is the number of search queries the strategist issues.
	Breadth int `json:"breadth" yaml:"breadth"`

	// MaxSources caps the researcher's selected sources.
	MaxSources int `json:"max_sources" yaml:"max_sources"`

	// Providers is the provider set queried in this mode.
	Providers []PaperSource `json:"providers" yaml:"providers"`

	// YearsBack bounds the publication date range.
	YearsBack int `json:"years_back" yaml:"years_back"`

	// Perspectives is the number of expert perspectives generated.
	Perspectives int `json:"perspectives" yaml:"perspectives"`
}

// modePresets is the static table of the five supported presets.
var modePresets = map[ResearchMode]ModePreset{
	ModeQuick: {
		Depth: 1, Breadth: 2, MaxSources: 10, YearsBack: 5, Perspectives: 3,
		Providers: []PaperSource{SourcePubMed, SourceSemanticScholar},
	},
	ModeStandard: {
		Depth: 2, Breadth: 3, MaxSources: 25, YearsBack: 10, Perspectives: 4,
		Providers: []PaperSource{SourcePubMed, SourceSemanticScholar, SourceCrossRef},
	},
	ModeComprehensive: {
		Depth: 3, Breadth: 5, MaxSources: 50, YearsBack: 15, Perspectives: 5,
		Providers: AllSources,
	},
	ModeClinical: {
		Depth: 2, Breadth: 3, MaxSources: 30, YearsBack: 10, Perspectives: 4,
		Providers: []PaperSource{SourcePubMed, SourceEuropePMC, SourceCrossRef},
	},
	ModeExploratory: {
		Depth: 2, Breadth: 4, MaxSources: 40, YearsBack: 20, Perspectives: 6,
		Providers: []PaperSource{SourceArxiv, SourceSemanticScholar, SourceCrossRef},
	},
}

// Preset returns the preset for the mode, falling back to standard for
// unknown values.
func (m ResearchMode) Preset() ModePreset {
	if p, ok := modePresets[m]; ok {
		return p
	}
	return modePresets[ModeStandard]
}

// Valid reports whether m is one of the five supported modes.
func (m ResearchMode) Valid() bool {
	_, ok := modePresets[m]
	return ok
}

// CitationStyle selects the reference formatting used by the writer.
type CitationStyle string

const (
	StyleAPA       CitationStyle = "apa"
	StyleVancouver CitationStyle = "vancouver"
	StyleHarvard   CitationStyle = "harvard"
	StyleChicago   CitationStyle = "chicago"
)

// SessionConfig is the per-session configuration derived from the mode
// preset plus any caller overrides.
type SessionConfig struct {
	ModePreset `yaml:",inline"`

	// Model is the LLM model identifier for this session.
	Model string `json:"model" yaml:"model"`

	// Style selects the citation style for the final report.
	Style CitationStyle `json:"style" yaml:"style"`

	// ParallelSearches controls concurrent provider fan-out.
	ParallelSearches bool `json:"parallel_searches" yaml:"parallel_searches"`
}

// SessionStatus is the lifecycle state of a research session. Complete and
// error are terminal.
type SessionStatus string

const (
	StatusPending               SessionStatus = "pending"
	StatusRunning               SessionStatus = "running"
	StatusAwaitingClarification SessionStatus = "awaiting_clarification"
	StatusPaused                SessionStatus = "paused"
	StatusCancelled             SessionStatus = "cancelled"
	StatusComplete              SessionStatus = "complete"
	StatusError                 SessionStatus = "error"
)

// Terminal reports whether the status permits no further transitions.
func (s SessionStatus) Terminal() bool {
	return s == StatusComplete || s == StatusError
}

// ResearchSession is the top-level record for one literature review run.
// The engine owns it and mutates it between stage executions.
type ResearchSession struct {
	ID     string        `json:"id" yaml:"id"`
	UserID string        `json:"user_id" yaml:"user_id"`
	Topic  string        `json:"topic" yaml:"topic"`
	Mode   ResearchMode  `json:"mode" yaml:"mode"`
	Config SessionConfig `json:"config" yaml:"config"`

	Status   SessionStatus `json:"status" yaml:"status"`
	Progress int           `json:"progress" yaml:"progress"`

	// AwaitingClarification is set while the workflow is suspended waiting
	// for the caller to answer or skip the clarifier's questions.
	AwaitingClarification bool `json:"awaiting_clarification" yaml:"awaiting_clarification"`

	Clarifications []ClarifyingQuestion `json:"clarifications,omitempty" yaml:"clarifications,omitempty"`
	Perspectives   []Perspective        `json:"perspectives,omitempty" yaml:"perspectives,omitempty"`
	Sources        []ResearchSource     `json:"sources,omitempty" yaml:"sources,omitempty"`
	Citations      *CitationAnalysis    `json:"citations,omitempty" yaml:"citations,omitempty"`
	Graph          *CitationGraph       `json:"citation_graph,omitempty" yaml:"citation_graph,omitempty"`
	Synthesis      *Synthesis           `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
	Quality        *QualityReport       `json:"quality,omitempty" yaml:"quality,omitempty"`
	Report         *Report              `json:"report,omitempty" yaml:"report,omitempty"`

	// Error holds the failure reason when Status is error.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`

	CreatedAt time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt time.Time `json:"updated_at" yaml:"updated_at"`
}
