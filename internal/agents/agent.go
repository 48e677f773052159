// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package agents implements the nine-agent research pipeline. Each agent
// performs one stage: clarifying the topic, generating expert
// perspectives, building search strategies, gathering sources, analyzing
// citations, synthesizing findings, reviewing quality, and writing the
// report, coordinated by the orchestrator's stage plan.
package agents

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/internal/search"
	"github.com/pdiddy/litreview/pkg/types"
)

// LLM is the opaque external language-model collaborator. Responses that
// fail to parse as the expected JSON shape fall back to deterministic
// heuristics; an LLM error never fails a stage on its own.
type LLM interface {
	Complete(ctx context.Context, prompt, model string) (types.LLMResponse, error)
}

// Agent is one pipeline stage. Instances are fresh per stage run and
// retain no state across invocations beyond the last-run status.
type Agent interface {
	Type() types.AgentType
	Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult
	State() types.AgentState
}

// Deps carries the collaborators agents draw on. Not every agent uses
// every field.
type Deps struct {
	LLM    LLM
	Search *search.Service
	Logger *zap.Logger

	// OnProgress, when set, is invoked at every named milestone with the
	// agent's progress percentage. Callers use it to surface in-stage
	// progress; it must not block.
	OnProgress func(progress int, milestone string)
}

func (d Deps) logger() *zap.Logger {
	if d.Logger == nil {
		return zap.NewNop()
	}
	return d.Logger
}

// complete invokes the LLM, treating a missing collaborator as an
// ordinary call failure so agents take their fallback paths instead of
// panicking.
func (d Deps) complete(ctx context.Context, prompt, model string) (types.LLMResponse, error) {
	if d.LLM == nil {
		return types.LLMResponse{}, fmt.Errorf("no LLM configured")
	}
	return d.LLM.Complete(ctx, prompt, model)
}

// Factory constructs a fresh agent instance for one stage run.
type Factory func(deps Deps) Agent

// Registry is the static agent factory table. The orchestrator is not
// listed: it is long-lived per session and constructed directly.
var Registry = map[types.AgentType]Factory{
	types.AgentClarifier:          func(d Deps) Agent { return NewClarifier(d) },
	types.AgentPerspectiveAnalyst: func(d Deps) Agent { return NewPerspectiveAnalyst(d) },
	types.AgentSearchStrategist:   func(d Deps) Agent { return NewSearchStrategist(d) },
	types.AgentResearcher:         func(d Deps) Agent { return NewResearcher(d) },
	types.AgentCitationAnalyst:    func(d Deps) Agent { return NewCitationAnalyst(d) },
	types.AgentSynthesizer:        func(d Deps) Agent { return NewSynthesizer(d) },
	types.AgentQualityReviewer:    func(d Deps) Agent { return NewQualityReviewer(d) },
	types.AgentWriter:             func(d Deps) Agent { return NewWriter(d) },
}

// New instantiates the named agent from the registry.
func New(agent types.AgentType, deps Deps) (Agent, error) {
	factory, ok := Registry[agent]
	if !ok {
		return nil, fmt.Errorf("no factory for agent %q", agent)
	}
	return factory(deps), nil
}

// agentState is the status machine embedded in every agent: idle →
// working → {complete | error}, with progress updated at named
// milestones.
type agentState struct {
	mu     sync.Mutex
	state  types.AgentState
	notify func(progress int, milestone string)
}

func (s *agentState) start() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = types.AgentState{Status: types.AgentWorking}
}

func (s *agentState) milestone(name string, progress int) {
	s.mu.Lock()
	s.state.Milestone = name
	s.state.Progress = progress
	notify := s.notify
	s.mu.Unlock()
	if notify != nil {
		notify(progress, name)
	}
}

func (s *agentState) complete() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = types.AgentComplete
	s.state.Progress = 100
}

func (s *agentState) fail() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.Status = types.AgentError
}

func (s *agentState) State() types.AgentState {
	s.mu.Lock()
	defer s.mu.Unlock()
	state := s.state
	if state.Status == "" {
		state.Status = types.AgentIdle
	}
	return state
}

// message builds a transcript entry stamped now.
func message(role, content string) types.AgentMessage {
	return types.AgentMessage{Role: role, Content: content, Timestamp: time.Now()}
}

// succeed finalizes a successful result.
func succeed(agent types.AgentType, state *agentState, out types.AgentOutput, tokens int, msgs ...types.AgentMessage) *types.AgentResult {
	state.complete()
	return &types.AgentResult{
		Agent:      agent,
		Success:    true,
		Output:     out,
		Messages:   msgs,
		TokensUsed: tokens,
	}
}

// failed finalizes a failed result. Agent errors are values, never panics.
func failed(agent types.AgentType, state *agentState, err error) *types.AgentResult {
	state.fail()
	return &types.AgentResult{Agent: agent, Success: false, Error: err.Error()}
}

// parseJSONBlock unmarshals the first JSON object or array found in an
// LLM response, tolerating surrounding prose and ``` fences.
func parseJSONBlock(text string, v any) error {
	start := -1
	var opener, closer byte
	for i := 0; i < len(text); i++ {
		if text[i] == '{' || text[i] == '[' {
			start = i
			opener = text[i]
			closer = '}'
			if opener == '[' {
				closer = ']'
			}
			break
		}
	}
	if start < 0 {
		return fmt.Errorf("no JSON value in response")
	}

	depth := 0
	inString := false
	for i := start; i < len(text); i++ {
		c := text[i]
		switch {
		case inString:
			if c == '\\' {
				i++
			} else if c == '"' {
				inString = false
			}
		case c == '"':
			inString = true
		case c == opener:
			depth++
		case c == closer:
			depth--
			if depth == 0 {
				return json.Unmarshal([]byte(text[start:i+1]), v)
			}
		}
	}
	return fmt.Errorf("unterminated JSON value in response")
}

// stopwords are skipped during concept and theme extraction.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "are": true, "as": true, "at": true,
	"be": true, "between": true, "by": true, "can": true, "do": true,
	"does": true, "effect": true, "effects": true, "for": true, "from": true,
	"how": true, "impact": true, "in": true, "is": true, "it": true,
	"its": true, "of": true, "on": true, "or": true, "role": true,
	"study": true, "that": true, "the": true, "their": true, "this": true,
	"to": true, "what": true, "when": true, "which": true, "will": true,
	"with": true,
}

// contentWords returns lowercase non-stopword tokens of at least three
// characters, in order of first appearance.
func contentWords(text string) []string {
	cleaned := strings.Map(func(r rune) rune {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' {
			return r
		}
		return ' '
	}, strings.ToLower(text))

	seen := make(map[string]bool)
	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) < 3 || stopwords[w] || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
	}
	return words
}
