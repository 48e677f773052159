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

// ambiguityCheck flags one class of missing scope in a topic.
type ambiguityCheck struct {
	id       string
	critical bool
	rank     int
	question string

	// present reports whether the topic already pins this down.
	present func(topic string) bool
}

var timeframePattern = regexp.MustCompile(`\b(19|20)\d{2}\b|\b(recent|last|past|decade|current|historical|since)\b`)
var populationPattern = regexp.MustCompile(`\b(adult|child|children|elderly|patient|athlete|student|women|men|infant|adolescent|human|animal|mice|population)s?\b`)
var outcomePattern = regexp.MustCompile(`\b(outcome|effect|impact|performance|mortality|risk|efficacy|accuracy|survival|improvement|benefit)s?\b`)
var scopePattern = regexp.MustCompile(`\b(in|among|across|within)\b`)

var ambiguityChecks = []ambiguityCheck{
	{
		id: "timeframe", critical: true, rank: 1,
		question: "What time period should the review cover (e.g. last 5 years, since 2010, all time)?",
		present:  func(t string) bool { return timeframePattern.MatchString(t) },
	},
	{
		id: "population", critical: true, rank: 2,
		question: "Which population or subject group is of interest (e.g. adults, children, patients with a specific condition)?",
		present:  func(t string) bool { return populationPattern.MatchString(t) },
	},
	{
		id: "outcome", critical: false, rank: 3,
		question: "Which outcomes or measures matter most for this review?",
		present:  func(t string) bool { return outcomePattern.MatchString(t) },
	},
	{
		id: "scope", critical: false, rank: 4,
		question: "Should the review be limited to a particular setting, region, or context?",
		present:  func(t string) bool { return scopePattern.MatchString(t) },
	},
	{
		id: "breadth", critical: false, rank: 5,
		question: "The topic is very broad; is there a specific aspect to focus on?",
		present:  func(t string) bool { return len(strings.Fields(t)) >= 4 },
	},
}

// Clarifier flags scope ambiguities in the topic and raises up to five
// ranked clarifying questions. Once answers are submitted (or clarification
// is skipped) it folds them into a refined topic instead.
type Clarifier struct {
	deps  Deps
	state agentState
}

func NewClarifier(deps Deps) *Clarifier {
	a := &Clarifier{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (c *Clarifier) Type() types.AgentType   { return types.AgentClarifier }
func (c *Clarifier) State() types.AgentState { return c.state.State() }

func (c *Clarifier) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	c.state.start()

	topic := strings.TrimSpace(actx.Session.Topic)
	if topic == "" {
		return failed(c.Type(), &c.state, fmt.Errorf("session has no topic"))
	}

	// Second pass: answers were submitted or clarification was skipped.
	if actx.Shared.ClarificationDone {
		c.state.milestone("refining topic", 60)
		out := &types.ClarificationOutput{
			Questions:    actx.Session.Clarifications,
			NeedsInput:   false,
			RefinedTopic: refineTopic(topic, actx.Session.Clarifications),
		}
		return succeed(c.Type(), &c.state, out, 0,
			message("assistant", "clarification resolved: "+out.RefinedTopic))
	}

	c.state.milestone("scanning topic", 30)
	lower := strings.ToLower(topic)

	var questions []types.ClarifyingQuestion
	for _, check := range ambiguityChecks {
		if check.present(lower) {
			continue
		}
		questions = append(questions, types.ClarifyingQuestion{
			ID:       check.id,
			Question: check.question,
			Critical: check.critical,
			Rank:     check.rank,
		})
		if len(questions) == 5 {
			break
		}
	}
	sort.Slice(questions, func(i, j int) bool { return questions[i].Rank < questions[j].Rank })

	needsInput := false
	for _, q := range questions {
		if q.Critical {
			needsInput = true
			break
		}
	}

	out := &types.ClarificationOutput{Questions: questions, NeedsInput: needsInput}
	if !needsInput {
		out.RefinedTopic = topic
	}
	return succeed(c.Type(), &c.state, out, 0,
		message("assistant", fmt.Sprintf("raised %d clarifying questions", len(questions))))
}

// refineTopic appends answered clarifications to the topic. Unanswered
// questions contribute nothing; with no answers at all the topic is
// returned unchanged.
func refineTopic(topic string, questions []types.ClarifyingQuestion) string {
	var answers []string
	for _, q := range questions {
		if a := strings.TrimSpace(q.Answer); a != "" {
			answers = append(answers, a)
		}
	}
	if len(answers) == 0 {
		return topic
	}
	return topic + " (" + strings.Join(answers, "; ") + ")"
}

// AnsweredCritical reports whether every critical question has an answer.
func AnsweredCritical(questions []types.ClarifyingQuestion) bool {
	for _, q := range questions {
		if q.Critical && strings.TrimSpace(q.Answer) == "" {
			return false
		}
	}
	return true
}
