// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// AgentType identifies one of the nine research pipeline agents.
type AgentType string

const (
	AgentOrchestrator       AgentType = "orchestrator"
	AgentClarifier          AgentType = "clarifier"
	AgentPerspectiveAnalyst AgentType = "perspective_analyst"
	AgentSearchStrategist   AgentType = "search_strategist"
	AgentResearcher         AgentType = "researcher"
	AgentCitationAnalyst    AgentType = "citation_analyst"
	AgentSynthesizer        AgentType = "synthesizer"
	AgentQualityReviewer    AgentType = "quality_reviewer"
	AgentWriter             AgentType = "writer"
)

// AgentStatus is the execution state of a single agent instance.
type AgentStatus string

const (
	AgentIdle     AgentStatus = "idle"
	AgentWorking  AgentStatus = "working"
	AgentComplete AgentStatus = "complete"
	AgentError    AgentStatus = "error"
)

// AgentState is the shared status record every agent variant maintains:
// a status machine idle → working → {complete | error} with progress
// 0-100 updated at named milestones.
type AgentState struct {
	Status   AgentStatus `json:"status" yaml:"status"`
	Progress int         `json:"progress" yaml:"progress"`

	// Milestone names the last progress checkpoint reached.
	Milestone string `json:"milestone,omitempty" yaml:"milestone,omitempty"`
}

// AgentMessage is one entry in an agent's execution transcript.
type AgentMessage struct {
	Role      string    `json:"role" yaml:"role"`
	Content   string    `json:"content" yaml:"content"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
}

// AgentOutput is the tagged union of agent result payloads. Each concrete
// payload type reports which agent produced it, which lets the engine route
// it into the typed AgentOutputs record with an exhaustive switch.
type AgentOutput interface {
	ProducedBy() AgentType
}

// AgentResult is the outcome of one agent execution.
type AgentResult struct {
	Agent      AgentType      `json:"agent" yaml:"agent"`
	Success    bool           `json:"success" yaml:"success"`
	Output     AgentOutput    `json:"output,omitempty" yaml:"output,omitempty"`
	Error      string         `json:"error,omitempty" yaml:"error,omitempty"`
	Messages   []AgentMessage `json:"messages,omitempty" yaml:"messages,omitempty"`
	TokensUsed int            `json:"tokens_used" yaml:"tokens_used"`
}

// SharedMemory is the typed cross-stage scratch space published by agents
// for later stages. Fields are optional; emptiness means "not yet produced".
type SharedMemory struct {
	// RefinedTopic is the topic after clarification answers are folded in.
	RefinedTopic string `json:"refined_topic,omitempty" yaml:"refined_topic,omitempty"`

	// KeyConcepts are the strategist's extracted concepts.
	KeyConcepts []string `json:"key_concepts,omitempty" yaml:"key_concepts,omitempty"`

	// ClarificationDone is set once clarification is answered or skipped.
	ClarificationDone bool `json:"clarification_done" yaml:"clarification_done"`
}

// AgentOutputs holds each completed agent's payload in a named field, one
// per stage. A nil field means the stage has not produced output yet; the
// orchestrator's input-readiness check reads these fields directly.
type AgentOutputs struct {
	Clarification *ClarificationOutput `json:"clarification,omitempty" yaml:"clarification,omitempty"`
	Perspectives  *PerspectiveOutput   `json:"perspectives,omitempty" yaml:"perspectives,omitempty"`
	Strategy      *StrategyOutput      `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Research      *ResearchOutput      `json:"research,omitempty" yaml:"research,omitempty"`
	Citations     *CitationAnalysis    `json:"citations,omitempty" yaml:"citations,omitempty"`
	Synthesis     *Synthesis           `json:"synthesis,omitempty" yaml:"synthesis,omitempty"`
	Quality       *QualityReport       `json:"quality,omitempty" yaml:"quality,omitempty"`
	Report        *Report              `json:"report,omitempty" yaml:"report,omitempty"`
}

// Has reports whether the given agent's output is present.
func (o *AgentOutputs) Has(agent AgentType) bool {
	switch agent {
	case AgentClarifier:
		return o.Clarification != nil
	case AgentPerspectiveAnalyst:
		return o.Perspectives != nil
	case AgentSearchStrategist:
		return o.Strategy != nil
	case AgentResearcher:
		return o.Research != nil
	case AgentCitationAnalyst:
		return o.Citations != nil
	case AgentSynthesizer:
		return o.Synthesis != nil
	case AgentQualityReviewer:
		return o.Quality != nil
	case AgentWriter:
		return o.Report != nil
	default:
		return false
	}
}

// Store routes a payload into its named field.
func (o *AgentOutputs) Store(out AgentOutput) {
	switch v := out.(type) {
	case *ClarificationOutput:
		o.Clarification = v
	case *PerspectiveOutput:
		o.Perspectives = v
	case *StrategyOutput:
		o.Strategy = v
	case *ResearchOutput:
		o.Research = v
	case *CitationAnalysis:
		o.Citations = v
	case *Synthesis:
		o.Synthesis = v
	case *QualityReport:
		o.Quality = v
	case *Report:
		o.Report = v
	}
}

// InputKey names a data dependency a workflow stage requires before it can
// run. Keys map onto SharedMemory fields or AgentOutputs entries.
type InputKey string

const (
	InputTopic         InputKey = "topic"
	InputClarification InputKey = "clarification"
	InputPerspectives  InputKey = "perspectives"
	InputStrategy      InputKey = "strategy"
	InputSources       InputKey = "sources"
	InputCitations     InputKey = "citations"
	InputSynthesis     InputKey = "synthesis"
	InputQuality       InputKey = "quality"
)

// AgentContext is the per-session bag handed to every agent execution. The
// engine owns it; agents read it and return outputs but never retain a
// reference across invocations.
type AgentContext struct {
	// Session is a snapshot of the owning session at stage start.
	Session ResearchSession `json:"session" yaml:"session"`

	// Shared is the typed cross-stage scratch space.
	Shared SharedMemory `json:"shared" yaml:"shared"`

	// Outputs holds each completed agent's result payload.
	Outputs AgentOutputs `json:"outputs" yaml:"outputs"`
}

// HasInput reports whether the named dependency is satisfied, checking the
// shared memory first and completed agent outputs second.
func (c *AgentContext) HasInput(key InputKey) bool {
	switch key {
	case InputTopic:
		return c.Session.Topic != "" || c.Shared.RefinedTopic != ""
	case InputClarification:
		return c.Shared.ClarificationDone || c.Outputs.Clarification != nil
	case InputPerspectives:
		return c.Outputs.Perspectives != nil
	case InputStrategy:
		return len(c.Shared.KeyConcepts) > 0 || c.Outputs.Strategy != nil
	case InputSources:
		return c.Outputs.Research != nil
	case InputCitations:
		return c.Outputs.Citations != nil
	case InputSynthesis:
		return c.Outputs.Synthesis != nil
	case InputQuality:
		return c.Outputs.Quality != nil
	default:
		return false
	}
}

// Topic returns the refined topic when available, else the original.
func (c *AgentContext) Topic() string {
	if c.Shared.RefinedTopic != "" {
		return c.Shared.RefinedTopic
	}
	return c.Session.Topic
}

// WorkflowStage is one step of the orchestration plan.
type WorkflowStage struct {
	Agent          AgentType  `json:"agent" yaml:"agent"`
	RequiredInputs []InputKey `json:"required_inputs" yaml:"required_inputs"`
	Outputs        []InputKey `json:"outputs" yaml:"outputs"`
	Retryable      bool       `json:"retryable" yaml:"retryable"`
	MaxRetries     int        `json:"max_retries" yaml:"max_retries"`

	// CanRunParallel is declared for the researcher stage but the engine
	// intentionally runs every stage sequentially; see docs in the
	// orchestrator package.
	CanRunParallel bool `json:"can_run_parallel" yaml:"can_run_parallel"`
}

// OrchestrationPlan is the ordered stage list plus execution bookkeeping.
// The cursor only moves forward; a stage that exhausts its retry budget
// permanently fails the plan.
type OrchestrationPlan struct {
	Stages          []WorkflowStage `json:"stages" yaml:"stages"`
	CurrentStage    int             `json:"current_stage" yaml:"current_stage"`
	CompletedStages []AgentType     `json:"completed_stages" yaml:"completed_stages"`
	FailedStages    []AgentType     `json:"failed_stages" yaml:"failed_stages"`
}

// Done reports whether every stage has completed.
func (p *OrchestrationPlan) Done() bool {
	return p.CurrentStage >= len(p.Stages)
}

// Pending returns the stage at the cursor, or nil when the plan is done.
func (p *OrchestrationPlan) Pending() *WorkflowStage {
	if p.Done() {
		return nil
	}
	return &p.Stages[p.CurrentStage]
}

// FailureCount returns how many times the given agent's stage has failed.
func (p *OrchestrationPlan) FailureCount(agent AgentType) int {
	n := 0
	for _, a := range p.FailedStages {
		if a == agent {
			n++
		}
	}
	return n
}

// LLMResponse is the opaque result of one external LLM call.
type LLMResponse struct {
	Text       string `json:"text" yaml:"text"`
	TokensUsed int    `json:"tokens_used" yaml:"tokens_used"`
}
