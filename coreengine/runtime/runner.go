// Package runtime provides the PipelineRunner - pipeline orchestration engine.
package runtime

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/datalab-systems/analyst-core/commbus"
	"github.com/datalab-systems/analyst-core/coreengine/config"
	"github.com/datalab-systems/analyst-core/coreengine/observability"
	"github.com/datalab-systems/analyst-core/coreengine/router"
	"github.com/datalab-systems/analyst-core/coreengine/state"
)

// Termination reasons recorded on the run state.
const (
	TerminationCompleted        = "completed"
	TerminationMaxStepsExceeded = "max_steps_exceeded"
	TerminationUnknownStage     = "unknown_stage"
	TerminationStageError       = "stage_error"
	TerminationCancelled        = "cancelled"
)

// PersistenceAdapter handles run state persistence between steps.
type PersistenceAdapter interface {
	SaveState(ctx context.Context, runID string, stateDict map[string]any) error
	LoadState(ctx context.Context, runID string) (map[string]any, error)
}

// StageOutput is a streamed snapshot of one executed stage.
type StageOutput struct {
	Stage  string
	Update *StateUpdate
	Error  error
}

// endMarkerStage labels the synthetic final StageOutput on a stream.
const endMarkerStage = "__end__"

// PipelineRunner executes pipelines from configuration.
//
// The runner owns the step loop: it executes the current stage through the
// injected StageExecutor, merges the resulting StateUpdate, and asks the
// router (or the stage's default edge) for the next stage. Every transition
// is published on the bus and recorded in metrics.
type PipelineRunner struct {
	Config      *config.PipelineConfig
	Executor    StageExecutor
	Logger      router.Logger
	Bus         commbus.CommBus
	Persistence PersistenceAdapter

	router *router.Router
	tracer trace.Tracer
}

// NewPipelineRunner creates a new PipelineRunner.
func NewPipelineRunner(cfg *config.PipelineConfig, executor StageExecutor, logger router.Logger) (*PipelineRunner, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if executor == nil {
		return nil, fmt.Errorf("pipeline %q needs a stage executor", cfg.Name)
	}

	return &PipelineRunner{
		Config:   cfg,
		Executor: executor,
		Logger:   logger,
		router:   router.New(logger),
		tracer:   otel.Tracer("analyst-core/runtime"),
	}, nil
}

// Run executes the pipeline to termination and returns the final state.
func (r *PipelineRunner) Run(ctx context.Context, st *state.RunState) (*state.RunState, error) {
	return r.run(ctx, st, nil)
}

// RunWithStream executes the pipeline and streams stage outputs to a channel.
// The channel closes after a final __end__ marker.
func (r *PipelineRunner) RunWithStream(ctx context.Context, st *state.RunState) (<-chan StageOutput, error) {
	if err := st.Validate(); err != nil {
		return nil, err
	}

	outputChan := make(chan StageOutput, len(r.Config.Stages)+1)
	go func() {
		defer close(outputChan)
		_, _ = r.run(ctx, st, outputChan)
		outputChan <- StageOutput{Stage: endMarkerStage}
	}()
	return outputChan, nil
}

func (r *PipelineRunner) run(ctx context.Context, st *state.RunState, outputChan chan<- StageOutput) (*state.RunState, error) {
	if err := st.Validate(); err != nil {
		return st, err
	}
	st.MaxSteps = r.Config.MaxSteps

	startTime := time.Now()

	ctx, runSpan := r.tracer.Start(ctx, "pipeline.run",
		trace.WithAttributes(
			attribute.String("pipeline.name", r.Config.Name),
			attribute.String("run.id", st.RunID),
		))
	defer runSpan.End()

	r.info("pipeline_started",
		"run_id", st.RunID,
		"pipeline", r.Config.Name,
		"max_steps", st.MaxSteps,
	)
	r.publish(ctx, &commbus.PipelineStarted{
		RunID:    st.RunID,
		Pipeline: r.Config.Name,
		Input:    firstHumanInput(st),
	})

	current := r.entryStage(st)
	st.CurrentStage = current

	var runErr error

	for !st.Terminated {
		select {
		case <-ctx.Done():
			r.info("pipeline_cancelled",
				"run_id", st.RunID,
				"stage", current,
				"reason", ctx.Err().Error(),
			)
			st.Terminate(TerminationCancelled)
			runErr = ctx.Err()
		default:
		}
		if st.Terminated {
			break
		}

		if st.StepCount >= st.MaxSteps {
			r.warn("pipeline_max_steps_exceeded",
				"run_id", st.RunID,
				"step_count", st.StepCount,
				"max_steps", st.MaxSteps,
			)
			st.Terminate(TerminationMaxStepsExceeded)
			break
		}

		stageCfg := r.Config.GetStage(current)
		if stageCfg == nil {
			r.error("pipeline_unknown_stage",
				"run_id", st.RunID,
				"stage", current,
			)
			st.Terminate(TerminationUnknownStage)
			runErr = fmt.Errorf("unknown stage: %s", current)
			break
		}

		update, err := r.executeStage(ctx, stageCfg, st)
		st.StepCount++

		if err != nil {
			if ctx.Err() != nil {
				st.Terminate(TerminationCancelled)
				runErr = ctx.Err()
				break
			}
			r.error("pipeline_stage_error",
				"run_id", st.RunID,
				"stage", current,
				"error", err.Error(),
			)
			if outputChan != nil {
				outputChan <- StageOutput{Stage: current, Error: err}
			}
			st.Terminate(TerminationStageError)
			runErr = err
			break
		}

		// Review stages preserve the sender: revision routing needs
		// LastSender to still name the worker whose output was reviewed.
		sender := current
		if stageCfg.Router == config.RouterQualityReview {
			sender = st.LastSender
		}
		update.Apply(st, sender)
		if outputChan != nil {
			outputChan <- StageOutput{Stage: current, Update: update}
		}

		next := r.routeNext(ctx, stageCfg, st)
		if next == config.EndTarget {
			st.Terminate(TerminationCompleted)
			break
		}

		current = next
		st.CurrentStage = next
		r.persistState(ctx, st)
	}

	durationMS := int(time.Since(startTime).Milliseconds())

	status := "success"
	if runErr != nil {
		status = "error"
	}
	observability.RecordPipelineRun(r.Config.Name, status, durationMS)

	r.info("pipeline_terminated",
		"run_id", st.RunID,
		"pipeline", r.Config.Name,
		"reason", st.TerminationReason,
		"step_count", st.StepCount,
		"duration_ms", durationMS,
	)
	terminated := &commbus.PipelineTerminated{
		RunID:      st.RunID,
		Pipeline:   r.Config.Name,
		Reason:     st.TerminationReason,
		StepCount:  st.StepCount,
		DurationMS: durationMS,
	}
	if runErr != nil {
		msg := runErr.Error()
		terminated.Error = &msg
	}
	r.publish(ctx, terminated)
	r.persistState(ctx, st)

	return st, runErr
}

// executeStage runs one stage under its timeout with tracing and metrics.
func (r *PipelineRunner) executeStage(ctx context.Context, stageCfg *config.StageConfig, st *state.RunState) (*StateUpdate, error) {
	stage, _ := router.StageFromString(stageCfg.Name)

	timeout := r.Config.DefaultTimeoutSeconds
	if stageCfg.TimeoutSeconds > 0 {
		timeout = stageCfg.TimeoutSeconds
	}
	stageCtx := ctx
	if timeout > 0 {
		var cancel context.CancelFunc
		stageCtx, cancel = context.WithTimeout(ctx, time.Duration(timeout)*time.Second)
		defer cancel()
	}

	stageCtx, span := r.tracer.Start(stageCtx, "pipeline.stage",
		trace.WithAttributes(
			attribute.String("stage.name", stageCfg.Name),
			attribute.String("run.id", st.RunID),
			attribute.Int("run.step", st.StepCount),
		))
	defer span.End()

	r.publish(stageCtx, &commbus.StageStarted{
		RunID:     st.RunID,
		Stage:     stageCfg.Name,
		StepCount: st.StepCount,
	})
	r.debug("stage_started",
		"run_id", st.RunID,
		"stage", stageCfg.Name,
		"step_count", st.StepCount,
	)

	start := time.Now()
	update, err := r.Executor.Execute(stageCtx, stage, st)
	durationMS := int(time.Since(start).Milliseconds())

	status := "success"
	completed := &commbus.StageCompleted{
		RunID:      st.RunID,
		Stage:      stageCfg.Name,
		Status:     status,
		DurationMS: durationMS,
	}
	if err != nil {
		status = "error"
		completed.Status = status
		msg := err.Error()
		completed.Error = &msg
	}
	observability.RecordStageExecution(stageCfg.Name, status, durationMS)
	r.publish(stageCtx, completed)

	return update, err
}

// routeNext picks the next stage via the stage's router binding.
func (r *PipelineRunner) routeNext(ctx context.Context, stageCfg *config.StageConfig, st *state.RunState) string {
	var next string

	switch stageCfg.Router {
	case config.RouterHypothesis:
		next = string(r.router.RouteHypothesis(st))
	case config.RouterProcess:
		next = string(r.router.RouteProcess(st))
	case config.RouterQualityReview:
		target := r.router.RouteQualityReview(st)
		next = string(target)
		if target != router.StageNoteTaker {
			r.publish(ctx, &commbus.RevisionRequested{
				RunID:  st.RunID,
				Sender: st.LastSender,
				Target: next,
			})
		}
	default:
		next = stageCfg.DefaultNext
	}

	r.publish(ctx, &commbus.RoutingDecided{
		RunID:  st.RunID,
		Router: string(stageCfg.Router),
		From:   stageCfg.Name,
		Target: next,
	})

	return next
}

// entryStage picks where the run begins. When the configured pipeline has a
// hypothesis gate the gate decides; otherwise execution starts at the first
// configured stage.
func (r *PipelineRunner) entryStage(st *state.RunState) string {
	if st.CurrentStage != "" && r.Config.GetStage(st.CurrentStage) != nil {
		return st.CurrentStage
	}
	gated := string(r.router.RouteHypothesis(st))
	if r.Config.GetStage(gated) != nil {
		return gated
	}
	return r.Config.Stages[0].Name
}

// persistState saves state if persistence is configured.
func (r *PipelineRunner) persistState(ctx context.Context, st *state.RunState) {
	if r.Persistence == nil {
		return
	}
	if err := r.Persistence.SaveState(ctx, st.RunID, st.ToStateDict()); err != nil {
		r.warn("state_persist_error",
			"run_id", st.RunID,
			"error", err.Error(),
		)
	}
}

// LoadState loads persisted state for a run.
func (r *PipelineRunner) LoadState(ctx context.Context, runID string) (*state.RunState, error) {
	if r.Persistence == nil {
		return nil, nil
	}
	dict, err := r.Persistence.LoadState(ctx, runID)
	if err != nil {
		return nil, err
	}
	if dict == nil {
		return nil, nil
	}
	return state.FromStateDict(dict), nil
}

func (r *PipelineRunner) publish(ctx context.Context, event commbus.Message) {
	if r.Bus == nil {
		return
	}
	_ = r.Bus.Publish(ctx, event)
}

func firstHumanInput(st *state.RunState) string {
	for _, msg := range st.Messages {
		if msg.Role == state.RoleHuman {
			return msg.Content
		}
	}
	return ""
}

func (r *PipelineRunner) debug(msg string, keysAndValues ...any) {
	if r.Logger != nil {
		r.Logger.Debug(msg, keysAndValues...)
	}
}

func (r *PipelineRunner) info(msg string, keysAndValues ...any) {
	if r.Logger != nil {
		r.Logger.Info(msg, keysAndValues...)
	}
}

func (r *PipelineRunner) warn(msg string, keysAndValues ...any) {
	if r.Logger != nil {
		r.Logger.Warn(msg, keysAndValues...)
	}
}

func (r *PipelineRunner) error(msg string, keysAndValues ...any) {
	if r.Logger != nil {
		r.Logger.Error(msg, keysAndValues...)
	}
}
