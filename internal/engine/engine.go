// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package engine runs research sessions: it owns the per-session record,
// drives the orchestrator's stage plan one agent at a time, suspends for
// clarification, honors cooperative pause and cancel flags, and
// broadcasts lifecycle events to subscribers.
package engine

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/agents"
	"github.com/pdiddy/litreview/internal/metrics"
	"github.com/pdiddy/litreview/pkg/types"
)

// Engine creates and executes research sessions. Sessions are
// independent; each runs one workflow stage at a time.
type Engine struct {
	cfg     types.EngineConfig
	deps    agents.Deps
	metrics *metrics.Collector
	logger  *zap.Logger

	mu       sync.Mutex
	sessions map[string]*session
}

// session is the engine's private per-session state. The engine is the
// only writer between stage executions.
type session struct {
	mu sync.Mutex

	record types.ResearchSession
	actx   types.AgentContext
	orch   *agents.Orchestrator

	paused    bool
	cancelled bool
	running   bool

	subscribers map[int]chan types.Event
	nextSubID   int
}

// New creates an engine. The metrics collector and logger may be nil.
func New(cfg types.EngineConfig, deps agents.Deps, collector *metrics.Collector, logger *zap.Logger) *Engine {
	if cfg.EventBuffer <= 0 {
		cfg.EventBuffer = 64
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if deps.Logger == nil {
		deps.Logger = logger
	}
	return &Engine{
		cfg:      cfg,
		deps:     deps,
		metrics:  collector,
		logger:   logger,
		sessions: make(map[string]*session),
	}
}

// ConfigOverrides are the per-session knobs a caller may change from the
// mode preset.
type ConfigOverrides struct {
	Model      string
	Style      types.CitationStyle
	MaxSources int
	YearsBack  int
}

// CreateSession registers a new pending session and returns its ID.
func (e *Engine) CreateSession(userID, topic string, mode types.ResearchMode, overrides *ConfigOverrides) (string, error) {
	topic = strings.TrimSpace(topic)
	if topic == "" {
		return "", fmt.Errorf("topic must not be empty")
	}
	if mode == "" {
		mode = types.ModeStandard
	}
	if !mode.Valid() {
		return "", fmt.Errorf("unknown research mode %q", mode)
	}

	cfg := types.SessionConfig{
		ModePreset:       mode.Preset(),
		Model:            e.cfg.Model,
		Style:            types.StyleAPA,
		ParallelSearches: e.cfg.Search.ParallelSearches,
	}
	if overrides != nil {
		if overrides.Model != "" {
			cfg.Model = overrides.Model
		}
		if overrides.Style != "" {
			cfg.Style = overrides.Style
		}
		if overrides.MaxSources > 0 {
			cfg.MaxSources = overrides.MaxSources
		}
		if overrides.YearsBack > 0 {
			cfg.YearsBack = overrides.YearsBack
		}
	}

	now := time.Now()
	record := types.ResearchSession{
		ID:        uuid.NewString(),
		UserID:    userID,
		Topic:     topic,
		Mode:      mode,
		Config:    cfg,
		Status:    types.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}

	s := &session{
		record:      record,
		actx:        types.AgentContext{Session: record},
		orch:        agents.NewOrchestrator(),
		subscribers: make(map[int]chan types.Event),
	}

	e.mu.Lock()
	e.sessions[record.ID] = s
	e.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordSessionStart()
	}
	e.logger.Info("session created",
		zap.String("session", record.ID),
		zap.String("mode", string(mode)),
		zap.String("topic", topic))
	return record.ID, nil
}

// ExecuteSession drives the workflow loop until the plan completes,
// fails, or suspends for clarification, pause, or cancellation. It may be
// called again to resume a suspended session.
func (e *Engine) ExecuteSession(ctx context.Context, id string) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("session %s is already executing", id)
	}
	if s.record.Status.Terminal() {
		s.mu.Unlock()
		return fmt.Errorf("session %s is %s", id, s.record.Status)
	}
	s.running = true
	s.record.Status = types.StatusRunning
	s.record.AwaitingClarification = false
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.running = false
		s.mu.Unlock()
	}()
	e.emitStatus(s)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if stop := e.checkFlags(s); stop {
			return nil
		}

		s.mu.Lock()
		decision := s.orch.Advance(&s.actx)
		s.mu.Unlock()

		switch {
		case decision.Done:
			return e.finish(s)
		case decision.Waiting:
			// Benign stall: nothing runnable until an external input
			// arrives. Clarification is the one expected cause.
			e.logger.Info("session waiting for input", zap.String("session", id))
			return nil
		}

		if err := e.runStage(ctx, s, decision.NextAgent); err != nil {
			return err
		}
		if suspended := e.suspendForClarification(s); suspended {
			return nil
		}
	}
}

// runStage executes one agent and routes its output, applying the
// orchestrator's retry policy on failure.
func (e *Engine) runStage(ctx context.Context, s *session, agentType types.AgentType) error {
	s.mu.Lock()
	sessionID := s.record.ID
	progress := s.record.Progress
	s.mu.Unlock()

	deps := e.deps
	deps.OnProgress = func(agentProgress int, milestone string) {
		e.broadcast(s, types.Event{
			Type: types.EventAgentProgress, SessionID: sessionID, Agent: agentType,
			Progress: agentProgress, Message: milestone,
		})
	}
	agent, err := agents.New(agentType, deps)
	if err != nil {
		return err
	}

	e.broadcast(s, types.Event{
		Type: types.EventAgentStart, SessionID: sessionID, Agent: agentType, Progress: progress,
	})

	started := time.Now()
	result := agent.Execute(ctx, e.snapshotContext(s))
	elapsed := time.Since(started)

	if e.metrics != nil {
		status := "complete"
		if !result.Success {
			status = "error"
		}
		e.metrics.RecordAgentExecution(string(agentType), status, elapsed)
		if result.TokensUsed > 0 {
			e.metrics.RecordLLMTokens(e.modelFor(s), string(agentType), result.TokensUsed)
		}
	}

	if !result.Success {
		stageErr := fmt.Errorf("%s: %s", agentType, result.Error)
		retry, fatal := func() (bool, error) {
			s.mu.Lock()
			defer s.mu.Unlock()
			return s.orch.HandleStageFailure(agentType, stageErr)
		}()

		e.broadcast(s, types.Event{
			Type: types.EventAgentError, SessionID: sessionID, Agent: agentType,
			Message: result.Error, Retrying: retry,
		})
		if retry {
			e.logger.Warn("stage failed, retrying",
				zap.String("session", sessionID), zap.String("agent", string(agentType)),
				zap.Error(stageErr))
			return nil
		}
		return e.fail(s, fatal)
	}

	e.applyOutput(s, result)
	e.broadcast(s, types.Event{
		Type: types.EventAgentComplete, SessionID: sessionID, Agent: agentType,
		Progress: e.progressOf(s),
	})
	return nil
}

// applyOutput stores an agent's payload into the context and mirrors the
// user-visible parts onto the session record.
func (e *Engine) applyOutput(s *session, result *types.AgentResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.actx.Outputs.Store(result.Output)
	s.record.UpdatedAt = time.Now()

	switch out := result.Output.(type) {
	case *types.ClarificationOutput:
		s.record.Clarifications = out.Questions
		if !out.NeedsInput {
			s.actx.Shared.ClarificationDone = true
			if out.RefinedTopic != "" {
				s.actx.Shared.RefinedTopic = out.RefinedTopic
			}
		}
	case *types.PerspectiveOutput:
		s.record.Perspectives = out.Perspectives
		for i := range out.Perspectives {
			e.broadcastLocked(s, types.Event{
				Type: types.EventPerspectiveAdded, SessionID: s.record.ID,
				Perspective: &out.Perspectives[i],
			})
		}
	case *types.StrategyOutput:
		s.actx.Shared.KeyConcepts = out.Concepts
	case *types.ResearchOutput:
		s.record.Sources = out.Sources
		for i := range out.Sources {
			e.broadcastLocked(s, types.Event{
				Type: types.EventSourceFound, SessionID: s.record.ID,
				Paper: &out.Sources[i].SearchPaper,
			})
			if e.metrics != nil {
				e.metrics.RecordPapersFound(string(out.Sources[i].Source), 1)
			}
		}
	case *types.CitationAnalysis:
		s.record.Citations = out
		if len(out.Sources) > 0 {
			s.record.Sources = out.Sources
		}
	case *types.Synthesis:
		s.record.Synthesis = out
		e.broadcastLocked(s, types.Event{
			Type: types.EventSynthesisReady, SessionID: s.record.ID,
		})
	case *types.QualityReport:
		s.record.Quality = out
	case *types.Report:
		s.record.Report = out
	}

	s.record.Progress = len(s.orch.Plan().CompletedStages) * 100 / len(s.orch.Plan().Stages)
	s.actx.Session = s.record
}

// suspendForClarification suspends the session when the clarifier asked
// for input.
func (e *Engine) suspendForClarification(s *session) bool {
	s.mu.Lock()
	out := s.actx.Outputs.Clarification
	if out == nil || !out.NeedsInput || s.actx.Shared.ClarificationDone {
		s.mu.Unlock()
		return false
	}
	s.record.Status = types.StatusAwaitingClarification
	s.record.AwaitingClarification = true
	s.record.UpdatedAt = time.Now()
	s.mu.Unlock()

	e.emitStatus(s)
	e.broadcast(s, types.Event{
		Type: types.EventClarificationNeeded, SessionID: s.id(),
		Message: fmt.Sprintf("%d clarifying questions pending", len(out.Questions)),
	})
	e.logger.Info("session awaiting clarification", zap.String("session", s.id()))
	return true
}

// SubmitClarifications records answers keyed by question ID and clears
// the suspension; execution resumes from the clarifier stage on the next
// ExecuteSession call.
func (e *Engine) SubmitClarifications(id string, answers map[string]string) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.record.AwaitingClarification {
		s.mu.Unlock()
		return fmt.Errorf("session %s is not awaiting clarification", id)
	}
	for i := range s.record.Clarifications {
		if a, ok := answers[s.record.Clarifications[i].ID]; ok {
			s.record.Clarifications[i].Answer = a
		}
	}
	s.resolveClarificationLocked()
	s.mu.Unlock()

	e.broadcast(s, types.Event{Type: types.EventClarificationAnswered, SessionID: id})
	return nil
}

// SkipClarification clears the suspension without answers; the topic is
// used as-is.
func (e *Engine) SkipClarification(id string) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}

	s.mu.Lock()
	if !s.record.AwaitingClarification {
		s.mu.Unlock()
		return fmt.Errorf("session %s is not awaiting clarification", id)
	}
	s.resolveClarificationLocked()
	s.mu.Unlock()

	e.broadcast(s, types.Event{Type: types.EventClarificationAnswered, SessionID: id})
	return nil
}

// resolveClarificationLocked resets the suspension and rewinds the
// clarifier output so the stage re-runs and folds answers in.
func (s *session) resolveClarificationLocked() {
	s.record.AwaitingClarification = false
	s.record.Status = types.StatusPending
	s.record.UpdatedAt = time.Now()
	s.actx.Shared.ClarificationDone = true
	s.actx.Outputs.Clarification = nil
	s.actx.Session = s.record
}

// PauseSession requests a cooperative pause; the in-flight stage still
// completes.
func (e *Engine) PauseSession(id string) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.paused = true
	s.mu.Unlock()
	return nil
}

// ResumeSession clears the pause flag. The caller restarts execution
// with ExecuteSession.
func (e *Engine) ResumeSession(id string) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.paused = false
	if s.record.Status == types.StatusPaused {
		s.record.Status = types.StatusPending
	}
	s.mu.Unlock()
	return nil
}

// CancelSession requests cooperative cancellation at the next stage
// boundary.
func (e *Engine) CancelSession(id string) error {
	s, err := e.session(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.cancelled = true
	s.mu.Unlock()
	return nil
}

// GetSession returns a snapshot of the session record.
func (e *Engine) GetSession(id string) (types.ResearchSession, error) {
	s, err := e.session(id)
	if err != nil {
		return types.ResearchSession{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record, nil
}

// Subscribe attaches a buffered event channel to the session. Events to a
// full channel are dropped rather than blocking the workflow. The
// returned function unsubscribes and closes the channel.
func (e *Engine) Subscribe(id string) (<-chan types.Event, func(), error) {
	s, err := e.session(id)
	if err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	ch := make(chan types.Event, e.cfg.EventBuffer)
	subID := s.nextSubID
	s.nextSubID++
	s.subscribers[subID] = ch
	s.mu.Unlock()

	unsubscribe := func() {
		s.mu.Lock()
		if _, ok := s.subscribers[subID]; ok {
			delete(s.subscribers, subID)
			close(ch)
		}
		s.mu.Unlock()
	}
	return ch, unsubscribe, nil
}

// checkFlags applies pause/cancel between stages.
func (e *Engine) checkFlags(s *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cancelled && !s.record.Status.Terminal() {
		s.record.Status = types.StatusCancelled
		s.record.UpdatedAt = time.Now()
		e.broadcastLocked(s, types.Event{
			Type: types.EventStatus, SessionID: s.record.ID, Status: s.record.Status,
		})
		e.logger.Info("session cancelled", zap.String("session", s.record.ID))
		return true
	}
	if s.paused {
		s.record.Status = types.StatusPaused
		s.record.UpdatedAt = time.Now()
		e.broadcastLocked(s, types.Event{
			Type: types.EventStatus, SessionID: s.record.ID, Status: s.record.Status,
		})
		e.logger.Info("session paused", zap.String("session", s.record.ID))
		return true
	}
	return false
}

// finish marks the session complete.
func (e *Engine) finish(s *session) error {
	s.mu.Lock()
	s.record.Status = types.StatusComplete
	s.record.Progress = 100
	s.record.UpdatedAt = time.Now()
	e.broadcastLocked(s, types.Event{
		Type: types.EventComplete, SessionID: s.record.ID, Status: s.record.Status, Progress: 100,
	})
	s.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordSessionFinish(string(types.StatusComplete))
	}
	e.logger.Info("session complete", zap.String("session", s.id()))
	return nil
}

// fail marks the session failed with a non-recoverable error.
func (e *Engine) fail(s *session, cause error) error {
	s.mu.Lock()
	s.record.Status = types.StatusError
	s.record.Error = cause.Error()
	s.record.UpdatedAt = time.Now()
	e.broadcastLocked(s, types.Event{
		Type: types.EventError, SessionID: s.record.ID, Status: s.record.Status,
		Message: cause.Error(), Recoverable: false,
	})
	s.mu.Unlock()

	if e.metrics != nil {
		e.metrics.RecordSessionFinish(string(types.StatusError))
	}
	e.logger.Error("session failed", zap.String("session", s.id()), zap.Error(cause))
	return cause
}

func (e *Engine) session(id string) (*session, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	s, ok := e.sessions[id]
	if !ok {
		return nil, fmt.Errorf("unknown session %q", id)
	}
	return s, nil
}

func (s *session) id() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.ID
}

func (e *Engine) modelFor(s *session) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Config.Model
}

func (e *Engine) progressOf(s *session) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.record.Progress
}

// snapshotContext copies the context so the executing agent never shares
// memory with concurrent readers.
func (e *Engine) snapshotContext(s *session) *types.AgentContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	snapshot := s.actx
	return &snapshot
}

func (e *Engine) emitStatus(s *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.broadcastLocked(s, types.Event{
		Type: types.EventStatus, SessionID: s.record.ID, Status: s.record.Status,
		Progress: s.record.Progress,
	})
}

func (e *Engine) broadcast(s *session, ev types.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.broadcastLocked(s, ev)
}

// broadcastLocked fans the event out to subscribers; the caller holds the
// session lock. Full subscriber channels drop the event to preserve
// per-subscriber ordering of what they do receive.
func (e *Engine) broadcastLocked(s *session, ev types.Event) {
	ev.Timestamp = time.Now()
	for _, ch := range s.subscribers {
		select {
		case ch <- ev:
		default:
		}
	}
}
