// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package agents

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/pdiddy/litreview/pkg/types"
)

// roleTemplate is the deterministic fallback for one expert role.
type roleTemplate struct {
	role      types.PerspectiveRole
	title     string
	focus     string
	questions []string
}

var roleTemplates = map[types.PerspectiveRole]roleTemplate{
	types.RoleDomainExpert: {
		role: types.RoleDomainExpert, title: "Domain Expert",
		focus: "current state of knowledge and key findings",
		questions: []string{
			"What are the most robust findings on %s?",
			"Where does expert opinion diverge on %s?",
		},
	},
	types.RoleMethodologist: {
		role: types.RoleMethodologist, title: "Methodologist",
		focus: "study designs, measurement validity, and reproducibility",
		questions: []string{
			"Which study designs dominate research on %s?",
			"What methodological weaknesses recur in studies of %s?",
		},
	},
	types.RoleClinician: {
		role: types.RoleClinician, title: "Clinician",
		focus: "practical implications for patient care",
		questions: []string{
			"How do findings on %s translate into clinical practice?",
			"What dosing, safety, or contraindication evidence exists for %s?",
		},
	},
	types.RoleCritic: {
		role: types.RoleCritic, title: "Critic",
		focus: "contradictory evidence, publication bias, and overclaims",
		questions: []string{
			"Which claims about %s rest on weak or conflicting evidence?",
			"Is there evidence of publication bias in research on %s?",
		},
	},
	types.RoleHistorian: {
		role: types.RoleHistorian, title: "Historian",
		focus: "how understanding of the topic evolved",
		questions: []string{
			"How has scientific consensus on %s shifted over time?",
			"Which landmark studies shaped the field of %s?",
		},
	},
	types.RoleFuturist: {
		role: types.RoleFuturist, title: "Futurist",
		focus: "emerging directions and open problems",
		questions: []string{
			"What emerging methods could change research on %s?",
			"Which open questions about %s are closest to resolution?",
		},
	},
	types.RolePatientAdvocate: {
		role: types.RolePatientAdvocate, title: "Patient Advocate",
		focus: "lived experience, accessibility, and patient-relevant outcomes",
		questions: []string{
			"Which outcomes of %s matter most to patients themselves?",
			"Are patient populations fairly represented in studies of %s?",
		},
	},
}

var clinicalKeywords = []string{
	"patient", "clinical", "treatment", "therapy", "disease", "drug",
	"dose", "trial", "diagnosis", "symptom", "health", "medicine",
	"caffeine", "supplement", "diet", "exercise",
}

var historicalKeywords = []string{"history", "evolution", "origins", "development of"}
var emergingKeywords = []string{"future", "emerging", "novel", "frontier", "next-generation"}

// PerspectiveAnalyst selects 3-7 expert roles for the topic and asks the
// LLM for role-specific probing questions, with deterministic template
// fallbacks when the response does not parse.
type PerspectiveAnalyst struct {
	deps  Deps
	state agentState
}

func NewPerspectiveAnalyst(deps Deps) *PerspectiveAnalyst {
	a := &PerspectiveAnalyst{deps: deps}
	a.state.notify = deps.OnProgress
	return a
}

func (a *PerspectiveAnalyst) Type() types.AgentType   { return types.AgentPerspectiveAnalyst }
func (a *PerspectiveAnalyst) State() types.AgentState { return a.state.State() }

func (a *PerspectiveAnalyst) Execute(ctx context.Context, actx *types.AgentContext) *types.AgentResult {
	a.state.start()
	topic := actx.Topic()
	if topic == "" {
		return failed(a.Type(), &a.state, fmt.Errorf("no topic to analyze"))
	}

	count := actx.Session.Config.Perspectives
	if count < 3 {
		count = 3
	}
	if count > 7 {
		count = 7
	}

	a.state.milestone("selecting roles", 20)
	roles := selectRoles(topic, count)

	a.state.milestone("generating questions", 50)
	perspectives, tokens, fromFallback := a.generate(ctx, topic, roles, actx.Session.Config.Model)

	out := &types.PerspectiveOutput{Perspectives: perspectives, FromFallback: fromFallback}
	return succeed(a.Type(), &a.state, out, tokens,
		message("assistant", fmt.Sprintf("generated %d perspectives", len(perspectives))))
}

// selectRoles picks count roles: the three core roles always, then
// keyword-driven specialists, then the remaining roles in a fixed order.
func selectRoles(topic string, count int) []types.PerspectiveRole {
	lower := strings.ToLower(topic)
	picked := []types.PerspectiveRole{
		types.RoleDomainExpert,
		types.RoleMethodologist,
		types.RoleCritic,
	}
	have := map[types.PerspectiveRole]bool{
		types.RoleDomainExpert: true, types.RoleMethodologist: true, types.RoleCritic: true,
	}

	add := func(r types.PerspectiveRole) {
		if !have[r] && len(picked) < count {
			picked = append(picked, r)
			have[r] = true
		}
	}

	if containsAny(lower, clinicalKeywords) {
		add(types.RoleClinician)
		add(types.RolePatientAdvocate)
	}
	if containsAny(lower, historicalKeywords) {
		add(types.RoleHistorian)
	}
	if containsAny(lower, emergingKeywords) {
		add(types.RoleFuturist)
	}
	for _, r := range []types.PerspectiveRole{
		types.RoleHistorian, types.RoleFuturist, types.RoleClinician, types.RolePatientAdvocate,
	} {
		add(r)
	}
	return picked[:min(count, len(picked))]
}

// generate asks the LLM for perspectives and falls back to the templates
// on any error or parse failure.
func (a *PerspectiveAnalyst) generate(ctx context.Context, topic string, roles []types.PerspectiveRole, model string) ([]types.Perspective, int, bool) {
	prompt := perspectivePrompt(topic, roles)
	resp, err := a.deps.complete(ctx, prompt, model)
	if err != nil {
		a.deps.logger().Warn("perspective LLM call failed, using templates", zap.Error(err))
		return templatePerspectives(topic, roles), 0, true
	}

	var parsed []types.Perspective
	if perr := parseJSONBlock(resp.Text, &parsed); perr != nil || len(parsed) == 0 {
		a.deps.logger().Warn("perspective response unparseable, using templates", zap.Error(perr))
		return templatePerspectives(topic, roles), resp.TokensUsed, true
	}

	// Discard roles the LLM invented; fill gaps from templates.
	valid := parsed[:0]
	seen := make(map[types.PerspectiveRole]bool)
	for _, p := range parsed {
		if _, ok := roleTemplates[p.Role]; ok && !seen[p.Role] {
			valid = append(valid, p)
			seen[p.Role] = true
		}
	}
	for _, r := range roles {
		if !seen[r] {
			valid = append(valid, templatePerspective(topic, r))
		}
	}
	return valid[:min(len(valid), len(roles))], resp.TokensUsed, false
}

func perspectivePrompt(topic string, roles []types.PerspectiveRole) string {
	names := make([]string, len(roles))
	for i, r := range roles {
		names[i] = string(r)
	}
	return fmt.Sprintf(`You are planning a literature review on: %s

For each of these expert roles, produce a perspective with 2-3 probing
research questions: %s

Respond with a JSON array of objects with fields "role", "title",
"focus", and "questions" (array of strings).`, topic, strings.Join(names, ", "))
}

func templatePerspectives(topic string, roles []types.PerspectiveRole) []types.Perspective {
	out := make([]types.Perspective, len(roles))
	for i, r := range roles {
		out[i] = templatePerspective(topic, r)
	}
	return out
}

func templatePerspective(topic string, role types.PerspectiveRole) types.Perspective {
	t := roleTemplates[role]
	questions := make([]string, len(t.questions))
	for i, q := range t.questions {
		questions[i] = fmt.Sprintf(q, topic)
	}
	return types.Perspective{Role: t.role, Title: t.title, Focus: t.focus, Questions: questions}
}

func containsAny(text string, keywords []string) bool {
	for _, k := range keywords {
		if strings.Contains(text, k) {
			return true
		}
	}
	return false
}
