package state

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRunStateDefaults(t *testing.T) {
	st := NewRunState()

	assert.NotEmpty(t, st.RunID)
	assert.NotNil(t, st.Messages)
	assert.Empty(t, st.Messages)
	assert.True(t, st.Hypothesis.IsEmpty())
	assert.True(t, st.ProcessDecision.IsEmpty())
	assert.False(t, st.NeedsRevision)
	assert.Equal(t, "", st.LastSender)
	assert.Equal(t, DefaultMaxSteps, st.MaxSteps)
	assert.False(t, st.Terminated)

	require.NoError(t, st.Validate())
}

func TestNewRunStateWithInput(t *testing.T) {
	st := NewRunStateWithInput("analyze Q4 sales")

	require.Len(t, st.Messages, 1)
	assert.Equal(t, RoleHuman, st.Messages[0].Role)
	assert.Equal(t, "analyze Q4 sales", st.Messages[0].Content)
}

func TestMessageConstructors(t *testing.T) {
	human := NewHumanMessage("analyze churn")
	assert.Equal(t, RoleHuman, human.Role)
	assert.Equal(t, "", human.Name)

	ai := NewAIMessage("done", "Coder")
	assert.Equal(t, RoleAI, ai.Role)
	assert.Equal(t, "Coder", ai.Name)

	sys := NewSystemMessage("pipeline ground rules")
	assert.Equal(t, RoleSystem, sys.Role)
	assert.Equal(t, "pipeline ground rules", sys.Content)

	// System role survives the dict round-trip.
	st := NewRunState()
	st.AppendMessage(sys)
	rebuilt := FromStateDict(st.ToStateDict())
	require.Len(t, rebuilt.Messages, 1)
	assert.Equal(t, RoleSystem, rebuilt.Messages[0].Role)
}

func TestValidate(t *testing.T) {
	st := NewRunState()
	st.MaxSteps = 0
	assert.Error(t, st.Validate())

	st = NewRunState()
	st.RunID = ""
	assert.Error(t, st.Validate())

	st = NewRunState()
	st.Messages = append(st.Messages, Message{Role: "robot", Content: "hi"})
	assert.Error(t, st.Validate())

	st = NewRunState()
	st.Messages = nil
	assert.Error(t, st.Validate())
}

func TestAppendAndLastMessage(t *testing.T) {
	st := NewRunState()

	_, ok := st.LastMessage()
	assert.False(t, ok)

	st.AppendMessage(NewHumanMessage("first"))
	st.AppendMessage(NewAIMessage("second", "Coder"))

	last, ok := st.LastMessage()
	require.True(t, ok)
	assert.Equal(t, "second", last.Content)
	assert.Equal(t, "Coder", last.Name)
}

func TestCloneIsolation(t *testing.T) {
	st := NewRunStateWithInput("original")
	st.ProcessDecision = MappingDecision(map[string]any{"next": "Search"})

	clone := st.Clone()
	clone.AppendMessage(NewAIMessage("added", "Search"))
	clone.ProcessDecision.Mapping["next"] = "Coder"
	clone.NeedsRevision = true

	assert.Len(t, st.Messages, 1)
	assert.Equal(t, "Search", st.ProcessDecision.Mapping["next"])
	assert.False(t, st.NeedsRevision)
}

func TestStateDictRoundTrip(t *testing.T) {
	st := NewRunStateWithInput("investigate churn")
	st.Hypothesis = TextDecision("H1: churn correlates with onboarding time")
	st.ProcessDecision = MappingDecision(map[string]any{"next": "Visualization"})
	st.NeedsRevision = true
	st.LastSender = "Visualization"
	st.CodeState = "df = pd.read_csv(...)"
	st.StepCount = 4
	st.CurrentStage = "QualityReview"

	rebuilt := FromStateDict(st.ToStateDict())

	assert.Equal(t, st.RunID, rebuilt.RunID)
	require.Len(t, rebuilt.Messages, 1)
	assert.Equal(t, "investigate churn", rebuilt.Messages[0].Content)
	assert.Equal(t, DecisionKindText, rebuilt.Hypothesis.Kind)
	assert.Equal(t, st.Hypothesis.Text, rebuilt.Hypothesis.Text)
	assert.Equal(t, DecisionKindMapping, rebuilt.ProcessDecision.Kind)
	assert.Equal(t, "Visualization", rebuilt.ProcessDecision.Mapping["next"])
	assert.True(t, rebuilt.NeedsRevision)
	assert.Equal(t, "Visualization", rebuilt.LastSender)
	assert.Equal(t, st.CodeState, rebuilt.CodeState)
	assert.Equal(t, 4, rebuilt.StepCount)
	assert.Equal(t, "QualityReview", rebuilt.CurrentStage)
}

func TestFromStateDictTolerance(t *testing.T) {
	// Mistyped and missing fields keep defaults instead of failing.
	st := FromStateDict(map[string]any{
		"run_id":         "run_fixed",
		"messages":       "not a list",
		"needs_revision": "yes",
		"max_steps":      float64(12), // JSON number
	})

	assert.Equal(t, "run_fixed", st.RunID)
	assert.Empty(t, st.Messages)
	assert.False(t, st.NeedsRevision)
	assert.Equal(t, 12, st.MaxSteps)
}

func TestTerminate(t *testing.T) {
	st := NewRunState()
	st.Terminate("completed")

	assert.True(t, st.Terminated)
	assert.Equal(t, "completed", st.TerminationReason)
}
