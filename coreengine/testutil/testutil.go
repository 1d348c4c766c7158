// Package testutil provides shared test utilities and mocks.
//
// All mocks in this package are designed for testing the coreengine
// components in isolation without requiring external dependencies.
package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/datalab-systems/analyst-core/coreengine/router"
	"github.com/datalab-systems/analyst-core/coreengine/runtime"
	"github.com/datalab-systems/analyst-core/coreengine/state"
)

// =============================================================================
// MOCK LOGGER
// =============================================================================

// LogEntry records a single log call for assertion.
type LogEntry struct {
	Level   string
	Message string
	Fields  []any
}

// MockLogger implements router.Logger and records all calls.
type MockLogger struct {
	Entries []LogEntry
	mu      sync.Mutex
}

// NewMockLogger creates an empty MockLogger.
func NewMockLogger() *MockLogger {
	return &MockLogger{}
}

func (l *MockLogger) record(level, msg string, keysAndValues []any) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Entries = append(l.Entries, LogEntry{Level: level, Message: msg, Fields: keysAndValues})
}

// Debug implements router.Logger.
func (l *MockLogger) Debug(msg string, keysAndValues ...any) { l.record("DEBUG", msg, keysAndValues) }

// Info implements router.Logger.
func (l *MockLogger) Info(msg string, keysAndValues ...any) { l.record("INFO", msg, keysAndValues) }

// Warn implements router.Logger.
func (l *MockLogger) Warn(msg string, keysAndValues ...any) { l.record("WARN", msg, keysAndValues) }

// Error implements router.Logger.
func (l *MockLogger) Error(msg string, keysAndValues ...any) { l.record("ERROR", msg, keysAndValues) }

// Messages returns all recorded log messages in order.
func (l *MockLogger) Messages() []string {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]string, len(l.Entries))
	for i, e := range l.Entries {
		out[i] = e.Message
	}
	return out
}

// HasMessage reports whether a message was logged at any level.
func (l *MockLogger) HasMessage(msg string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, e := range l.Entries {
		if e.Message == msg {
			return true
		}
	}
	return false
}

var _ router.Logger = (*MockLogger)(nil)

// =============================================================================
// SCRIPTED EXECUTOR
// =============================================================================

// ScriptedExecutor replays per-stage scripts of StateUpdates.
//
// Each Execute call for a stage consumes the next update in that stage's
// script; the last entry repeats once the script is exhausted. Stages
// without a script return an empty update.
type ScriptedExecutor struct {
	scripts map[router.Stage][]*runtime.StateUpdate
	errs    map[router.Stage]error
	cursor  map[router.Stage]int

	// Calls records the execution order for assertion.
	Calls []router.Stage

	mu sync.Mutex
}

// NewScriptedExecutor creates an empty ScriptedExecutor.
func NewScriptedExecutor() *ScriptedExecutor {
	return &ScriptedExecutor{
		scripts: make(map[router.Stage][]*runtime.StateUpdate),
		errs:    make(map[router.Stage]error),
		cursor:  make(map[router.Stage]int),
	}
}

// Script appends updates to a stage's script.
func (e *ScriptedExecutor) Script(stage router.Stage, updates ...*runtime.StateUpdate) *ScriptedExecutor {
	e.scripts[stage] = append(e.scripts[stage], updates...)
	return e
}

// Fail makes a stage always return an error.
func (e *ScriptedExecutor) Fail(stage router.Stage, err error) *ScriptedExecutor {
	e.errs[stage] = err
	return e
}

// Execute implements runtime.StageExecutor.
func (e *ScriptedExecutor) Execute(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.Calls = append(e.Calls, stage)

	if err, ok := e.errs[stage]; ok {
		return nil, err
	}

	script, ok := e.scripts[stage]
	if !ok || len(script) == 0 {
		return &runtime.StateUpdate{}, nil
	}

	idx := e.cursor[stage]
	if idx >= len(script) {
		idx = len(script) - 1
	} else {
		e.cursor[stage]++
	}
	return script[idx], nil
}

// CallCount returns how many times a stage was executed.
func (e *ScriptedExecutor) CallCount(stage router.Stage) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, s := range e.Calls {
		if s == stage {
			n++
		}
	}
	return n
}

var _ runtime.StageExecutor = (*ScriptedExecutor)(nil)

// =============================================================================
// UPDATE BUILDERS
// =============================================================================

// MessageUpdate builds an update that appends one AI message from the stage.
func MessageUpdate(stage router.Stage, content string) *runtime.StateUpdate {
	return &runtime.StateUpdate{
		Messages: []state.Message{state.NewAIMessage(content, string(stage))},
	}
}

// HypothesisUpdate builds an update that sets the hypothesis.
func HypothesisUpdate(text string) *runtime.StateUpdate {
	d := state.TextDecision(text)
	return &runtime.StateUpdate{Hypothesis: &d}
}

// ProcessDecisionUpdate builds an update that sets the supervisor decision.
func ProcessDecisionUpdate(content string) *runtime.StateUpdate {
	d := state.MessageDecision(state.NewAIMessage(content, string(router.StageProcess)))
	return &runtime.StateUpdate{ProcessDecision: &d}
}

// ReviewUpdate builds a quality review update. When revise is true the
// update carries the revision marker message and sets the flag.
func ReviewUpdate(revise bool, comment string) *runtime.StateUpdate {
	flag := revise
	content := comment
	if revise {
		content = fmt.Sprintf("%s %s", router.RevisionMarker, comment)
	}
	return &runtime.StateUpdate{
		Messages:      []state.Message{state.NewAIMessage(content, string(router.StageQualityReview))},
		NeedsRevision: &flag,
	}
}

// =============================================================================
// STATE BUILDERS
// =============================================================================

// RunStateWithHypothesis builds a run state that already passed the gate.
func RunStateWithHypothesis(input, hypothesis string) *state.RunState {
	st := state.NewRunStateWithInput(input)
	st.Hypothesis = state.TextDecision(hypothesis)
	return st
}

// =============================================================================
// IN-MEMORY PERSISTENCE
// =============================================================================

// MemoryPersistence implements runtime.PersistenceAdapter in memory.
type MemoryPersistence struct {
	States map[string]map[string]any
	Saves  int
	mu     sync.Mutex
}

// NewMemoryPersistence creates an empty MemoryPersistence.
func NewMemoryPersistence() *MemoryPersistence {
	return &MemoryPersistence{States: make(map[string]map[string]any)}
}

// SaveState implements runtime.PersistenceAdapter.
func (p *MemoryPersistence) SaveState(ctx context.Context, runID string, stateDict map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.States[runID] = stateDict
	p.Saves++
	return nil
}

// LoadState implements runtime.PersistenceAdapter.
func (p *MemoryPersistence) LoadState(ctx context.Context, runID string) (map[string]any, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.States[runID], nil
}

var _ runtime.PersistenceAdapter = (*MemoryPersistence)(nil)
