// Package state provides the RunState - the shared record carrying all
// inter-stage data for one pipeline invocation.
//
// RunState is an explicit struct with named fields and documented defaults,
// never an untyped key-value bag. The orchestration engine owns and mutates
// it between stages; the routing core treats it as read-only input.
package state

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/datalab-systems/analyst-core/coreengine/typeutil"
)

// RunState is the full state of one pipeline invocation.
//
// The routing fields (Messages, Hypothesis, ProcessDecision, NeedsRevision,
// LastSender) are the router inputs. The stage scratch fields hold the most
// recent output of each worker stage. The bookkeeping fields belong to the
// orchestration engine.
type RunState struct {
	// Identification
	RunID     string    `json:"run_id"`
	CreatedAt time.Time `json:"created_at"`

	// Routing inputs
	Messages        []Message `json:"messages"`         // append-only, chronological
	Hypothesis      Decision  `json:"hypothesis"`       // empty until the hypothesis stage produces one
	ProcessDecision Decision  `json:"process_decision"` // transient, overwritten each supervisor cycle
	NeedsRevision   bool      `json:"needs_revision"`
	LastSender      string    `json:"last_sender"` // stage that produced the latest content

	// Stage scratch outputs
	Process            string `json:"process"`
	VisualizationState string `json:"visualization_state"`
	SearcherState      string `json:"searcher_state"`
	CodeState          string `json:"code_state"`
	ReportSection      string `json:"report_section"`
	QualityReview      string `json:"quality_review"`

	// Engine bookkeeping
	CurrentStage      string `json:"current_stage"`
	StepCount         int    `json:"step_count"`
	MaxSteps          int    `json:"max_steps"`
	Terminated        bool   `json:"terminated"`
	TerminationReason string `json:"termination_reason,omitempty"`
}

// DefaultMaxSteps bounds a run when no pipeline config overrides it.
// Revision cycles terminate only through this cap.
const DefaultMaxSteps = 30

// NewRunState creates a RunState with all fields defaulted.
func NewRunState() *RunState {
	return &RunState{
		RunID:           "run_" + uuid.New().String()[:16],
		CreatedAt:       time.Now().UTC(),
		Messages:        []Message{},
		Hypothesis:      Decision{Kind: DecisionKindEmpty},
		ProcessDecision: Decision{Kind: DecisionKindEmpty},
		MaxSteps:        DefaultMaxSteps,
	}
}

// NewRunStateWithInput creates a RunState seeded with the user's request.
func NewRunStateWithInput(userInput string) *RunState {
	st := NewRunState()
	st.Messages = append(st.Messages, NewHumanMessage(userInput))
	return st
}

// Validate checks structural invariants. Called once at construction by
// the engine; routers assume a validated state.
func (s *RunState) Validate() error {
	if s.RunID == "" {
		return fmt.Errorf("RunState.RunID is required")
	}
	if s.MaxSteps <= 0 {
		return fmt.Errorf("RunState.MaxSteps must be positive, got %d", s.MaxSteps)
	}
	if s.Messages == nil {
		return fmt.Errorf("RunState.Messages must be non-nil")
	}
	for i, msg := range s.Messages {
		if !msg.Role.IsValid() {
			return fmt.Errorf("message %d has invalid role %q", i, msg.Role)
		}
	}
	return nil
}

// AppendMessage appends to the conversation log.
func (s *RunState) AppendMessage(msg Message) {
	s.Messages = append(s.Messages, msg)
}

// LastMessage returns the most recent message, if any.
func (s *RunState) LastMessage() (Message, bool) {
	if len(s.Messages) == 0 {
		return Message{}, false
	}
	return s.Messages[len(s.Messages)-1], true
}

// Terminate marks the run finished.
func (s *RunState) Terminate(reason string) {
	s.Terminated = true
	s.TerminationReason = reason
}

// Clone returns a deep copy, used for snapshots and tests.
func (s *RunState) Clone() *RunState {
	clone := *s
	clone.Messages = make([]Message, len(s.Messages))
	copy(clone.Messages, s.Messages)
	clone.Hypothesis = s.Hypothesis.Clone()
	clone.ProcessDecision = s.ProcessDecision.Clone()
	return &clone
}

// ToStateDict converts to a map for persistence or IPC.
func (s *RunState) ToStateDict() map[string]any {
	messages := make([]any, len(s.Messages))
	for i, msg := range s.Messages {
		messages[i] = msg.toMap()
	}
	return map[string]any{
		"run_id":              s.RunID,
		"created_at":          s.CreatedAt.Format(time.RFC3339),
		"messages":            messages,
		"hypothesis":          s.Hypothesis.toAny(),
		"process_decision":    s.ProcessDecision.toAny(),
		"needs_revision":      s.NeedsRevision,
		"last_sender":         s.LastSender,
		"process":             s.Process,
		"visualization_state": s.VisualizationState,
		"searcher_state":      s.SearcherState,
		"code_state":          s.CodeState,
		"report_section":      s.ReportSection,
		"quality_review":      s.QualityReview,
		"current_stage":       s.CurrentStage,
		"step_count":          s.StepCount,
		"max_steps":           s.MaxSteps,
		"terminated":          s.Terminated,
		"termination_reason":  s.TerminationReason,
	}
}

// FromStateDict rebuilds a RunState from its map representation.
// Missing or mistyped fields keep their defaults; this mirrors how the
// routers themselves tolerate malformed input.
func FromStateDict(dict map[string]any) *RunState {
	st := NewRunState()

	if v, ok := typeutil.SafeString(dict["run_id"]); ok {
		st.RunID = v
	}
	if v, ok := typeutil.SafeString(dict["created_at"]); ok {
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			st.CreatedAt = t
		}
	}
	if items, ok := typeutil.SafeSlice(dict["messages"]); ok {
		st.Messages = make([]Message, 0, len(items))
		for _, item := range items {
			if m, ok := typeutil.SafeMapStringAny(item); ok {
				if msg, ok := messageFromMap(m); ok {
					st.Messages = append(st.Messages, msg)
				}
			}
		}
	}
	if v, exists := dict["hypothesis"]; exists {
		st.Hypothesis = DecisionFromAny(v)
	}
	if v, exists := dict["process_decision"]; exists {
		st.ProcessDecision = DecisionFromAny(v)
	}
	st.NeedsRevision = typeutil.SafeBoolDefault(dict["needs_revision"], false)
	st.LastSender = typeutil.SafeStringDefault(dict["last_sender"], "")
	st.Process = typeutil.SafeStringDefault(dict["process"], "")
	st.VisualizationState = typeutil.SafeStringDefault(dict["visualization_state"], "")
	st.SearcherState = typeutil.SafeStringDefault(dict["searcher_state"], "")
	st.CodeState = typeutil.SafeStringDefault(dict["code_state"], "")
	st.ReportSection = typeutil.SafeStringDefault(dict["report_section"], "")
	st.QualityReview = typeutil.SafeStringDefault(dict["quality_review"], "")
	st.CurrentStage = typeutil.SafeStringDefault(dict["current_stage"], "")
	st.StepCount = typeutil.SafeIntDefault(dict["step_count"], 0)
	st.MaxSteps = typeutil.SafeIntDefault(dict["max_steps"], DefaultMaxSteps)
	st.Terminated = typeutil.SafeBoolDefault(dict["terminated"], false)
	st.TerminationReason = typeutil.SafeStringDefault(dict["termination_reason"], "")

	return st
}

// deepCopyAnyMap deep-copies a map of JSON-ish values.
func deepCopyAnyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	result := make(map[string]any, len(m))
	for k, v := range m {
		result[k] = deepCopyValue(v)
	}
	return result
}

func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyAnyMap(val)
	case []any:
		result := make([]any, len(val))
		for i, item := range val {
			result[i] = deepCopyValue(item)
		}
		return result
	default:
		return v
	}
}
