package runtime

import (
	"context"
	"fmt"

	"github.com/datalab-systems/analyst-core/coreengine/router"
	"github.com/datalab-systems/analyst-core/coreengine/state"
)

// StateUpdate is the delta a stage contributes to the run state.
//
// Pointer fields distinguish "leave unchanged" (nil) from "set to zero value".
// Messages are always appended, never replaced.
type StateUpdate struct {
	Messages []state.Message

	Hypothesis      *state.Decision
	ProcessDecision *state.Decision
	NeedsRevision   *bool

	Process            *string
	VisualizationState *string
	SearcherState      *string
	CodeState          *string
	ReportSection      *string
	QualityReview      *string
}

// Apply merges the update into the run state and records the sender.
func (u *StateUpdate) Apply(st *state.RunState, sender string) {
	if u == nil {
		return
	}

	for _, msg := range u.Messages {
		st.AppendMessage(msg)
	}
	if u.Hypothesis != nil {
		st.Hypothesis = u.Hypothesis.Clone()
	}
	if u.ProcessDecision != nil {
		st.ProcessDecision = u.ProcessDecision.Clone()
	}
	if u.NeedsRevision != nil {
		st.NeedsRevision = *u.NeedsRevision
	}
	if u.Process != nil {
		st.Process = *u.Process
	}
	if u.VisualizationState != nil {
		st.VisualizationState = *u.VisualizationState
	}
	if u.SearcherState != nil {
		st.SearcherState = *u.SearcherState
	}
	if u.CodeState != nil {
		st.CodeState = *u.CodeState
	}
	if u.ReportSection != nil {
		st.ReportSection = *u.ReportSection
	}
	if u.QualityReview != nil {
		st.QualityReview = *u.QualityReview
	}

	st.LastSender = sender
}

// StageExecutor executes one pipeline stage.
//
// Implementations receive a read-only view of the run state and return
// their contribution as a StateUpdate; the runner owns all mutation.
type StageExecutor interface {
	Execute(ctx context.Context, stage router.Stage, st *state.RunState) (*StateUpdate, error)
}

// ExecutorFunc adapts a function to the StageExecutor interface.
type ExecutorFunc func(ctx context.Context, stage router.Stage, st *state.RunState) (*StateUpdate, error)

// Execute implements StageExecutor.
func (f ExecutorFunc) Execute(ctx context.Context, stage router.Stage, st *state.RunState) (*StateUpdate, error) {
	return f(ctx, stage, st)
}

// ExecutorMap dispatches to a per-stage executor with an optional fallback.
type ExecutorMap struct {
	Executors map[router.Stage]StageExecutor
	Fallback  StageExecutor
}

// NewExecutorMap creates an empty ExecutorMap.
func NewExecutorMap() *ExecutorMap {
	return &ExecutorMap{Executors: make(map[router.Stage]StageExecutor)}
}

// Register binds an executor to a stage.
func (m *ExecutorMap) Register(stage router.Stage, executor StageExecutor) *ExecutorMap {
	m.Executors[stage] = executor
	return m
}

// Execute implements StageExecutor.
func (m *ExecutorMap) Execute(ctx context.Context, stage router.Stage, st *state.RunState) (*StateUpdate, error) {
	if executor, ok := m.Executors[stage]; ok {
		return executor.Execute(ctx, stage, st)
	}
	if m.Fallback != nil {
		return m.Fallback.Execute(ctx, stage, st)
	}
	return nil, fmt.Errorf("no executor registered for stage %s", stage)
}

var (
	_ StageExecutor = ExecutorFunc(nil)
	_ StageExecutor = (*ExecutorMap)(nil)
)
