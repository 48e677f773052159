// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"fmt"

	"github.com/pdiddy/litreview/pkg/types"
)

// WorkflowState is the coarse pipeline phase derived from the pending
// stage's agent.
type WorkflowState string

const (
	StateClarifying   WorkflowState = "clarifying"
	StatePlanning     WorkflowState = "planning"
	StateResearching  WorkflowState = "researching"
	StateSynthesizing WorkflowState = "synthesizing"
	StateReviewing    WorkflowState = "reviewing"
	StateComplete     WorkflowState = "complete"
	StateError        WorkflowState = "error"
)

// DefaultPlan returns the canonical eight-stage workflow. The researcher
// stage declares CanRunParallel, but the engine runs every stage
// sequentially; the flag records a latent capability, not behavior.
func DefaultPlan() []types.WorkflowStage {
	return []types.WorkflowStage{
		{
			Agent:          types.AgentClarifier,
			RequiredInputs: []types.InputKey{types.InputTopic},
			Outputs:        []types.InputKey{types.InputClarification},
			Retryable:      true, MaxRetries: 2,
		},
		{
			Agent:          types.AgentPerspectiveAnalyst,
			RequiredInputs: []types.InputKey{types.InputTopic, types.InputClarification},
			Outputs:        []types.InputKey{types.InputPerspectives},
			Retryable:      true, MaxRetries: 2,
		},
		{
			Agent:          types.AgentSearchStrategist,
			RequiredInputs: []types.InputKey{types.InputTopic, types.InputPerspectives},
			Outputs:        []types.InputKey{types.InputStrategy},
			Retryable:      true, MaxRetries: 2,
		},
		{
			Agent:          types.AgentResearcher,
			RequiredInputs: []types.InputKey{types.InputStrategy},
			Outputs:        []types.InputKey{types.InputSources},
			Retryable:      true, MaxRetries: 2,
			CanRunParallel: true,
		},
		{
			Agent:          types.AgentCitationAnalyst,
			RequiredInputs: []types.InputKey{types.InputSources},
			Outputs:        []types.InputKey{types.InputCitations},
			Retryable:      true, MaxRetries: 2,
		},
		{
			Agent:          types.AgentSynthesizer,
			RequiredInputs: []types.InputKey{types.InputSources, types.InputCitations},
			Outputs:        []types.InputKey{types.InputSynthesis},
			Retryable:      true, MaxRetries: 2,
		},
		{
			Agent:          types.AgentQualityReviewer,
			RequiredInputs: []types.InputKey{types.InputSynthesis},
			Outputs:        []types.InputKey{types.InputQuality},
			Retryable:      true, MaxRetries: 2,
		},
		{
			Agent:          types.AgentWriter,
			RequiredInputs: []types.InputKey{types.InputSynthesis, types.InputQuality},
			Outputs:        []types.InputKey{},
			Retryable:      true, MaxRetries: 2,
		},
	}
}

// Decision is the orchestrator's verdict after examining the context.
type Decision struct {
	// NextAgent is the stage to run next, empty when the plan is done or
	// waiting on inputs.
	NextAgent types.AgentType

	// Waiting is set on a benign stall: the pending stage's inputs are
	// not yet satisfied and no error has occurred.
	Waiting bool

	Done     bool
	Messages []types.AgentMessage
}

// Orchestrator advances the stage plan. Unlike the other agents it lives
// for the whole session; the cursor and failure bookkeeping are its state.
type Orchestrator struct {
	plan  types.OrchestrationPlan
	fatal error
	state agentState
}

func NewOrchestrator() *Orchestrator {
	return &Orchestrator{plan: types.OrchestrationPlan{Stages: DefaultPlan()}}
}

func (o *Orchestrator) Type() types.AgentType   { return types.AgentOrchestrator }
func (o *Orchestrator) State() types.AgentState { return o.state.State() }

// Plan exposes the live plan for snapshots.
func (o *Orchestrator) Plan() *types.OrchestrationPlan { return &o.plan }

// WorkflowState derives the coarse phase from the pending stage.
func (o *Orchestrator) WorkflowState() WorkflowState {
	if o.fatal != nil {
		return StateError
	}
	pending := o.plan.Pending()
	if pending == nil {
		return StateComplete
	}
	switch pending.Agent {
	case types.AgentClarifier:
		return StateClarifying
	case types.AgentPerspectiveAnalyst, types.AgentSearchStrategist:
		return StatePlanning
	case types.AgentResearcher, types.AgentCitationAnalyst:
		return StateResearching
	case types.AgentQualityReviewer:
		return StateReviewing
	default:
		return StateSynthesizing
	}
}

// Advance records completed work and decides the next stage. Any output
// already present for the current stage advances the cursor; the next
// stage is only scheduled when all of its required inputs are satisfied.
// Missing inputs are a benign stall, not an error.
func (o *Orchestrator) Advance(actx *types.AgentContext) Decision {
	o.state.start()
	defer o.state.complete()

	if o.fatal != nil {
		return Decision{Messages: []types.AgentMessage{
			message("orchestrator", "plan failed: "+o.fatal.Error()),
		}}
	}

	var msgs []types.AgentMessage
	for {
		pending := o.plan.Pending()
		if pending == nil {
			break
		}
		if !actx.Outputs.Has(pending.Agent) {
			break
		}
		o.plan.CompletedStages = append(o.plan.CompletedStages, pending.Agent)
		o.plan.CurrentStage++
		msgs = append(msgs, message("orchestrator", fmt.Sprintf("stage %s complete", pending.Agent)))
	}

	pending := o.plan.Pending()
	if pending == nil {
		return Decision{Done: true, Messages: append(msgs, message("orchestrator", "workflow complete"))}
	}

	for _, input := range pending.RequiredInputs {
		if !actx.HasInput(input) {
			return Decision{Waiting: true, Messages: append(msgs,
				message("orchestrator", fmt.Sprintf("waiting for input %q before %s", input, pending.Agent)))}
		}
	}
	return Decision{NextAgent: pending.Agent, Messages: msgs}
}

// HandleStageFailure applies the bounded-retry policy: a retryable stage
// under its retry budget is re-attempted with the cursor unchanged;
// anything else permanently fails the plan.
func (o *Orchestrator) HandleStageFailure(agent types.AgentType, stageErr error) (retry bool, err error) {
	o.plan.FailedStages = append(o.plan.FailedStages, agent)

	var stage *types.WorkflowStage
	for i := range o.plan.Stages {
		if o.plan.Stages[i].Agent == agent {
			stage = &o.plan.Stages[i]
			break
		}
	}
	if stage == nil {
		o.fatal = fmt.Errorf("failure in unknown stage %q: %w", agent, stageErr)
		return false, o.fatal
	}

	// The current failure is already recorded, so prior failures are
	// count-1.
	if stage.Retryable && o.plan.FailureCount(agent)-1 < stage.MaxRetries {
		return true, nil
	}
	o.fatal = fmt.Errorf("stage %s failed permanently: %w", agent, stageErr)
	o.state.fail()
	return false, o.fatal
}

// Err returns the fatal plan error, if any.
func (o *Orchestrator) Err() error { return o.fatal }
