// Package commbus provides CommBus Message Definitions.
//
// This module defines all message types for the analyst pipeline bus.
// Messages are organized by domain.
//
// Categories:
//   - EVENT: Fire-and-forget, fan-out to subscribers
//   - QUERY: Request-response, single handler
//   - COMMAND: Fire-and-forget, single handler
package commbus

// =============================================================================
// MESSAGE CATEGORIES
// =============================================================================

// MessageCategory represents message routing categories.
type MessageCategory string

const (
	// MessageCategoryEvent represents fire-and-forget, fan-out to all subscribers.
	MessageCategoryEvent MessageCategory = "event"
	// MessageCategoryQuery represents request-response, single handler.
	MessageCategoryQuery MessageCategory = "query"
	// MessageCategoryCommand represents fire-and-forget, single handler.
	MessageCategoryCommand MessageCategory = "command"
)

// =============================================================================
// STAGE LIFECYCLE EVENTS
// =============================================================================

// StageStarted is emitted when a pipeline stage begins executing.
// Subscribers: telemetry, trace logging, UI progress.
type StageStarted struct {
	RunID     string `json:"run_id"`
	Stage     string `json:"stage"`
	StepCount int    `json:"step_count"`
}

// Category implements the Message interface.
func (m *StageStarted) Category() string { return string(MessageCategoryEvent) }

// StageCompleted is emitted when a pipeline stage finishes executing.
// Subscribers: telemetry, trace logging, UI progress.
type StageCompleted struct {
	RunID      string  `json:"run_id"`
	Stage      string  `json:"stage"`
	Status     string  `json:"status"` // "success", "error"
	DurationMS int     `json:"duration_ms"`
	Error      *string `json:"error,omitempty"`
}

// Category implements the Message interface.
func (m *StageCompleted) Category() string { return string(MessageCategoryEvent) }

// RoutingDecided is emitted when a router picks the next stage.
type RoutingDecided struct {
	RunID  string `json:"run_id"`
	Router string `json:"router"`
	From   string `json:"from"`
	Target string `json:"target"`
}

// Category implements the Message interface.
func (m *RoutingDecided) Category() string { return string(MessageCategoryEvent) }

// RevisionRequested is emitted when quality review sends work back.
type RevisionRequested struct {
	RunID  string `json:"run_id"`
	Sender string `json:"sender"`
	Target string `json:"target"`
}

// Category implements the Message interface.
func (m *RevisionRequested) Category() string { return string(MessageCategoryEvent) }

// =============================================================================
// PIPELINE LIFECYCLE EVENTS
// =============================================================================

// PipelineStarted is emitted when a new pipeline run starts.
type PipelineStarted struct {
	RunID    string `json:"run_id"`
	Pipeline string `json:"pipeline"`
	Input    string `json:"input"`
}

// Category implements the Message interface.
func (m *PipelineStarted) Category() string { return string(MessageCategoryEvent) }

// PipelineTerminated is emitted when a run ends, successfully or not.
type PipelineTerminated struct {
	RunID      string  `json:"run_id"`
	Pipeline   string  `json:"pipeline"`
	Reason     string  `json:"reason"` // "completed", "max_steps_exceeded", "error"
	StepCount  int     `json:"step_count"`
	DurationMS int     `json:"duration_ms"`
	Error      *string `json:"error,omitempty"`
}

// Category implements the Message interface.
func (m *PipelineTerminated) Category() string { return string(MessageCategoryEvent) }

// =============================================================================
// RUN STATE QUERIES
// =============================================================================

// GetRunStatus queries the live status of a pipeline run.
type GetRunStatus struct {
	RunID string `json:"run_id"`
}

// Category implements the Message interface.
func (m *GetRunStatus) Category() string { return string(MessageCategoryQuery) }

// IsQuery implements the Query interface.
func (m *GetRunStatus) IsQuery() {}

// RunStatusResponse is the response for GetRunStatus.
type RunStatusResponse struct {
	RunID        string `json:"run_id"`
	CurrentStage string `json:"current_stage"`
	StepCount    int    `json:"step_count"`
	Terminated   bool   `json:"terminated"`
	Reason       string `json:"reason,omitempty"`
}

// =============================================================================
// RUN COMMANDS
// =============================================================================

// CancelRun is a command to stop a pipeline run.
type CancelRun struct {
	RunID  string `json:"run_id"`
	Reason string `json:"reason,omitempty"`
}

// Category implements the Message interface.
func (m *CancelRun) Category() string { return string(MessageCategoryCommand) }

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// TypedMessage is an optional interface for messages that can provide their own type name.
type TypedMessage interface {
	Message
	MessageType() string
}

// GetMessageType returns the type name of a message for routing.
func GetMessageType(msg Message) string {
	// First check if the message can provide its own type
	if typed, ok := msg.(TypedMessage); ok {
		return typed.MessageType()
	}

	switch msg.(type) {
	case *StageStarted:
		return "StageStarted"
	case *StageCompleted:
		return "StageCompleted"
	case *RoutingDecided:
		return "RoutingDecided"
	case *RevisionRequested:
		return "RevisionRequested"
	case *PipelineStarted:
		return "PipelineStarted"
	case *PipelineTerminated:
		return "PipelineTerminated"
	case *GetRunStatus:
		return "GetRunStatus"
	case *CancelRun:
		return "CancelRun"
	default:
		return "Unknown"
	}
}
