package testutil

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datalab-systems/analyst-core/coreengine/router"
	"github.com/datalab-systems/analyst-core/coreengine/state"
)

func TestMockLoggerRecordsEntries(t *testing.T) {
	logger := NewMockLogger()
	logger.Info("pipeline_started", "run_id", "run_1")
	logger.Warn("pipeline_max_steps_exceeded")

	require.Len(t, logger.Entries, 2)
	assert.Equal(t, "INFO", logger.Entries[0].Level)
	assert.True(t, logger.HasMessage("pipeline_max_steps_exceeded"))
	assert.False(t, logger.HasMessage("missing"))
	assert.Equal(t, []string{"pipeline_started", "pipeline_max_steps_exceeded"}, logger.Messages())
}

func TestScriptedExecutorReplaysAndRepeats(t *testing.T) {
	executor := NewScriptedExecutor().
		Script(router.StageProcess,
			ProcessDecisionUpdate(`{"next": "Coder"}`),
			ProcessDecisionUpdate("FINISH"))

	st := state.NewRunState()
	ctx := context.Background()

	first, err := executor.Execute(ctx, router.StageProcess, st)
	require.NoError(t, err)
	second, err := executor.Execute(ctx, router.StageProcess, st)
	require.NoError(t, err)
	third, err := executor.Execute(ctx, router.StageProcess, st)
	require.NoError(t, err)

	assert.Equal(t, `{"next": "Coder"}`, first.ProcessDecision.Message.Content)
	assert.Equal(t, "FINISH", second.ProcessDecision.Message.Content)
	// Exhausted scripts repeat their last entry.
	assert.Equal(t, "FINISH", third.ProcessDecision.Message.Content)

	assert.Equal(t, 3, executor.CallCount(router.StageProcess))
}

func TestScriptedExecutorUnscriptedStage(t *testing.T) {
	executor := NewScriptedExecutor()
	update, err := executor.Execute(context.Background(), router.StageCoder, state.NewRunState())
	require.NoError(t, err)
	assert.Empty(t, update.Messages)
}

func TestScriptedExecutorFail(t *testing.T) {
	boom := errors.New("boom")
	executor := NewScriptedExecutor().Fail(router.StageSearch, boom)

	_, err := executor.Execute(context.Background(), router.StageSearch, state.NewRunState())
	assert.ErrorIs(t, err, boom)
}

func TestReviewUpdate(t *testing.T) {
	revise := ReviewUpdate(true, "fix the axes")
	require.NotNil(t, revise.NeedsRevision)
	assert.True(t, *revise.NeedsRevision)
	assert.Contains(t, revise.Messages[0].Content, router.RevisionMarker)

	approve := ReviewUpdate(false, "approved")
	assert.False(t, *approve.NeedsRevision)
	assert.NotContains(t, approve.Messages[0].Content, router.RevisionMarker)
}

func TestMemoryPersistenceRoundTrip(t *testing.T) {
	p := NewMemoryPersistence()
	ctx := context.Background()

	st := state.NewRunStateWithInput("analyze churn")
	require.NoError(t, p.SaveState(ctx, st.RunID, st.ToStateDict()))
	assert.Equal(t, 1, p.Saves)

	dict, err := p.LoadState(ctx, st.RunID)
	require.NoError(t, err)
	require.NotNil(t, dict)
	assert.Equal(t, st.RunID, dict["run_id"])

	missing, err := p.LoadState(ctx, "run_missing")
	require.NoError(t, err)
	assert.Nil(t, missing)
}
