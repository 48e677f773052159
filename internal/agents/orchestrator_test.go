// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/litreview/pkg/types"
)

// completeStage stores a minimal valid output for the given agent so the
// orchestrator sees the stage as done.
func completeStage(actx *types.AgentContext, agent types.AgentType) {
	switch agent {
	case types.AgentClarifier:
		actx.Outputs.Clarification = &types.ClarificationOutput{RefinedTopic: actx.Session.Topic}
		actx.Shared.ClarificationDone = true
	case types.AgentPerspectiveAnalyst:
		actx.Outputs.Perspectives = &types.PerspectiveOutput{}
	case types.AgentSearchStrategist:
		actx.Outputs.Strategy = &types.StrategyOutput{Concepts: []string{"caffeine"}}
		actx.Shared.KeyConcepts = []string{"caffeine"}
	case types.AgentResearcher:
		actx.Outputs.Research = &types.ResearchOutput{}
	case types.AgentCitationAnalyst:
		actx.Outputs.Citations = &types.CitationAnalysis{}
	case types.AgentSynthesizer:
		actx.Outputs.Synthesis = &types.Synthesis{}
	case types.AgentQualityReviewer:
		actx.Outputs.Quality = &types.QualityReport{}
	case types.AgentWriter:
		actx.Outputs.Report = &types.Report{}
	}
}

func TestOrchestratorHappyPath(t *testing.T) {
	o := NewOrchestrator()
	actx := testContext("Does caffeine improve memory?", types.ModeQuick)

	expected := []types.AgentType{
		types.AgentClarifier, types.AgentPerspectiveAnalyst, types.AgentSearchStrategist,
		types.AgentResearcher, types.AgentCitationAnalyst, types.AgentSynthesizer,
		types.AgentQualityReviewer, types.AgentWriter,
	}

	for _, want := range expected {
		d := o.Advance(actx)
		require.False(t, d.Done)
		require.False(t, d.Waiting)
		require.Equal(t, want, d.NextAgent)
		completeStage(actx, want)
	}

	d := o.Advance(actx)
	assert.True(t, d.Done)
	assert.Empty(t, d.NextAgent)
	assert.Equal(t, expected, o.Plan().CompletedStages)
	assert.Empty(t, o.Plan().FailedStages)
	assert.Equal(t, StateComplete, o.WorkflowState())
}

func TestOrchestratorWaitsOnMissingInput(t *testing.T) {
	o := NewOrchestrator()
	actx := testContext("caffeine", types.ModeQuick)

	// Complete the clarifier without setting ClarificationDone or an
	// answer record: the perspective stage's clarification input is only
	// half satisfied when the output is also missing, so simulate a bare
	// topic with no clarifier output while the cursor sits past it.
	completeStage(actx, types.AgentClarifier)
	d := o.Advance(actx)
	require.Equal(t, types.AgentPerspectiveAnalyst, d.NextAgent)

	// Drop the topic: the strategist's topic input cannot be satisfied.
	completeStage(actx, types.AgentPerspectiveAnalyst)
	actx.Session.Topic = ""
	actx.Shared.RefinedTopic = ""

	d = o.Advance(actx)
	assert.True(t, d.Waiting)
	assert.Empty(t, d.NextAgent)
	assert.False(t, d.Done)
	// A stalled plan is not an error.
	assert.NoError(t, o.Err())
}

func TestOrchestratorRetryCeiling(t *testing.T) {
	o := NewOrchestrator()
	stageErr := fmt.Errorf("provider blew up")

	// MaxRetries is 2: two retries are granted, the third failure is
	// permanent and the fourth attempt never happens.
	retry, err := o.HandleStageFailure(types.AgentResearcher, stageErr)
	assert.True(t, retry)
	assert.NoError(t, err)

	retry, err = o.HandleStageFailure(types.AgentResearcher, stageErr)
	assert.True(t, retry)
	assert.NoError(t, err)

	retry, err = o.HandleStageFailure(types.AgentResearcher, stageErr)
	assert.False(t, retry)
	require.Error(t, err)
	assert.ErrorContains(t, err, "failed permanently")

	assert.Equal(t, 3, o.Plan().FailureCount(types.AgentResearcher))
	assert.Equal(t, StateError, o.WorkflowState())

	// Once fatal, the plan schedules nothing further.
	d := o.Advance(testContext("caffeine", types.ModeQuick))
	assert.Empty(t, d.NextAgent)
	assert.False(t, d.Done)
}

func TestOrchestratorFailureCountsArePerAgent(t *testing.T) {
	o := NewOrchestrator()

	retry, err := o.HandleStageFailure(types.AgentResearcher, fmt.Errorf("e1"))
	require.True(t, retry)
	require.NoError(t, err)

	retry, err = o.HandleStageFailure(types.AgentSynthesizer, fmt.Errorf("e2"))
	assert.True(t, retry)
	assert.NoError(t, err)

	assert.Equal(t, 1, o.Plan().FailureCount(types.AgentResearcher))
	assert.Equal(t, 1, o.Plan().FailureCount(types.AgentSynthesizer))
}

func TestOrchestratorUnknownStageIsFatal(t *testing.T) {
	o := NewOrchestrator()
	retry, err := o.HandleStageFailure(types.AgentOrchestrator, fmt.Errorf("weird"))
	assert.False(t, retry)
	assert.Error(t, err)
}

func TestWorkflowStatePhases(t *testing.T) {
	o := NewOrchestrator()
	actx := testContext("caffeine", types.ModeQuick)

	assert.Equal(t, StateClarifying, o.WorkflowState())

	completeStage(actx, types.AgentClarifier)
	o.Advance(actx)
	assert.Equal(t, StatePlanning, o.WorkflowState())

	completeStage(actx, types.AgentPerspectiveAnalyst)
	completeStage(actx, types.AgentSearchStrategist)
	o.Advance(actx)
	assert.Equal(t, StateResearching, o.WorkflowState())

	completeStage(actx, types.AgentResearcher)
	completeStage(actx, types.AgentCitationAnalyst)
	o.Advance(actx)
	assert.Equal(t, StateSynthesizing, o.WorkflowState())

	completeStage(actx, types.AgentSynthesizer)
	o.Advance(actx)
	assert.Equal(t, StateReviewing, o.WorkflowState())
}

func TestDefaultPlanShape(t *testing.T) {
	plan := DefaultPlan()
	require.Len(t, plan, 8)
	for _, stage := range plan {
		assert.True(t, stage.Retryable, stage.Agent)
		assert.Equal(t, 2, stage.MaxRetries, stage.Agent)
	}
	// Only the researcher declares the parallel capability.
	for _, stage := range plan {
		assert.Equal(t, stage.Agent == types.AgentResearcher, stage.CanRunParallel, stage.Agent)
	}
}
