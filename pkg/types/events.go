// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// EventType tags a session event.
type EventType string

const (
	EventStatus                EventType = "status"
	EventAgentStart            EventType = "agent_start"
	EventAgentProgress         EventType = "agent_progress"
	EventAgentComplete         EventType = "agent_complete"
	EventAgentError            EventType = "agent_error"
	EventSourceFound           EventType = "source_found"
	EventClarificationNeeded   EventType = "clarification_needed"
	EventClarificationAnswered EventType = "clarification_answered"
	EventPerspectiveAdded      EventType = "perspective_added"
	EventSynthesisReady        EventType = "synthesis_ready"
	EventComplete              EventType = "complete"
	EventError                 EventType = "error"
)

// Event is one entry in a session's ordered event stream. Optional fields
// are populated per type: Agent for agent_* events, Retrying for
// agent_error, Recoverable for error, Paper for source_found, Perspective
// for perspective_added.
type Event struct {
	Type      EventType `json:"type" yaml:"type"`
	SessionID string    `json:"session_id" yaml:"session_id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`

	Status   SessionStatus `json:"status,omitempty" yaml:"status,omitempty"`
	Agent    AgentType     `json:"agent,omitempty" yaml:"agent,omitempty"`
	Progress int           `json:"progress,omitempty" yaml:"progress,omitempty"`
	Message  string        `json:"message,omitempty" yaml:"message,omitempty"`

	// Retrying is set on agent_error when the stage will be re-attempted.
	Retrying bool `json:"retrying,omitempty" yaml:"retrying,omitempty"`

	// Recoverable is set on error events; an unrecoverable error ends
	// the session.
	Recoverable bool `json:"recoverable,omitempty" yaml:"recoverable,omitempty"`

	Paper       *SearchPaper `json:"paper,omitempty" yaml:"paper,omitempty"`
	Perspective *Perspective `json:"perspective,omitempty" yaml:"perspective,omitempty"`
}
