// Analyst Pipeline Runner
//
// Standalone binary that drives the analyst pipeline end to end with a
// built-in demonstration executor. Useful for exercising routing, state
// handling, and the event bus without any model backends attached.
//
// Usage:
//
//	go run ./cmd/main.go                                  # Built-in pipeline
//	go run ./cmd/main.go -input "analyze Q3 churn"        # Custom input
//	go run ./cmd/main.go -config pipeline.yaml            # Pipeline from YAML
//	go run ./cmd/main.go -log-level DEBUG                 # Verbose logging
//	go run ./cmd/main.go -otlp localhost:4317             # Export traces
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"github.com/datalab-systems/analyst-core/commbus"
	"github.com/datalab-systems/analyst-core/coreengine/config"
	"github.com/datalab-systems/analyst-core/coreengine/observability"
	"github.com/datalab-systems/analyst-core/coreengine/router"
	"github.com/datalab-systems/analyst-core/coreengine/runtime"
	"github.com/datalab-systems/analyst-core/coreengine/state"
)

// Log levels in ascending severity.
const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

// stdLogger implements router.Logger using standard library log. Entries
// below the configured minimum level are dropped.
type stdLogger struct {
	minLevel int
}

// newStdLogger builds a logger for a CoreConfig-style level name.
// Unknown names fall back to INFO.
func newStdLogger(level string) *stdLogger {
	min := levelInfo
	switch strings.ToUpper(level) {
	case "DEBUG":
		min = levelDebug
	case "INFO":
		min = levelInfo
	case "WARN", "WARNING":
		min = levelWarn
	case "ERROR":
		min = levelError
	}
	return &stdLogger{minLevel: min}
}

func (l *stdLogger) enabled(level int) bool { return level >= l.minLevel }

func (l *stdLogger) logAt(level int, tag, msg string, keysAndValues []any) {
	if !l.enabled(level) {
		return
	}
	log.Printf("[%s] %s %v", tag, msg, keysAndValues)
}

func (l *stdLogger) Debug(msg string, keysAndValues ...any) {
	l.logAt(levelDebug, "DEBUG", msg, keysAndValues)
}

func (l *stdLogger) Info(msg string, keysAndValues ...any) {
	l.logAt(levelInfo, "INFO", msg, keysAndValues)
}

func (l *stdLogger) Warn(msg string, keysAndValues ...any) {
	l.logAt(levelWarn, "WARN", msg, keysAndValues)
}

func (l *stdLogger) Error(msg string, keysAndValues ...any) {
	l.logAt(levelError, "ERROR", msg, keysAndValues)
}

// applyCoreDefaults fills pipeline bounds that the config file left unset
// from the engine-level defaults.
func applyCoreDefaults(cfg *config.PipelineConfig, core *config.CoreConfig) {
	if cfg.MaxSteps <= 0 {
		cfg.MaxSteps = core.MaxSteps
	}
	if cfg.DefaultTimeoutSeconds <= 0 {
		cfg.DefaultTimeoutSeconds = core.StageTimeout
	}
}

// registerRunHandlers exposes the run over the bus: a GetRunStatus query
// backed by the live run state and a CancelRun command that stops the run.
func registerRunHandlers(bus commbus.CommBus, st *state.RunState, cancel context.CancelFunc) error {
	err := bus.RegisterHandler("GetRunStatus", func(ctx context.Context, msg commbus.Message) (any, error) {
		return &commbus.RunStatusResponse{
			RunID:        st.RunID,
			CurrentStage: st.CurrentStage,
			StepCount:    st.StepCount,
			Terminated:   st.Terminated,
			Reason:       st.TerminationReason,
		}, nil
	})
	if err != nil {
		return err
	}
	return bus.RegisterHandler("CancelRun", func(ctx context.Context, msg commbus.Message) (any, error) {
		cmd := msg.(*commbus.CancelRun)
		log.Printf("[INFO] run_cancel_requested run_id=%s reason=%s", cmd.RunID, cmd.Reason)
		cancel()
		return nil, nil
	})
}

func main() {
	core := config.DefaultCoreConfig()

	configPath := flag.String("config", "", "pipeline YAML file (empty uses the built-in analyst pipeline)")
	input := flag.String("input", "analyze quarterly sales and visualize the trend", "analysis request")
	maxSteps := flag.Int("max-steps", 0, "override the pipeline step ceiling")
	logLevel := flag.String("log-level", core.LogLevel, "minimum log level (DEBUG, INFO, WARN, ERROR)")
	otlpEndpoint := flag.String("otlp", "", "OTLP gRPC endpoint for trace export (empty disables)")
	flag.Parse()

	logger := newStdLogger(*logLevel)
	logger.Info("analyst_core_starting", "version", "1.0.0", "log_level", *logLevel)

	if *otlpEndpoint != "" {
		shutdown, err := observability.InitTracer("analyst-core", *otlpEndpoint)
		if err != nil {
			log.Fatalf("Failed to initialize tracer: %v", err)
		}
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), time.Duration(core.ShutdownGraceS)*time.Second)
			defer cancel()
			_ = shutdown(ctx)
		}()
		logger.Info("tracing_enabled", "endpoint", *otlpEndpoint)
	}

	cfg := config.DefaultPipeline()
	if *configPath != "" {
		loaded, err := config.LoadPipelineFile(*configPath)
		if err != nil {
			log.Fatalf("Failed to load pipeline config: %v", err)
		}
		cfg = loaded
	}
	applyCoreDefaults(cfg, core)
	if *maxSteps > 0 {
		cfg.MaxSteps = *maxSteps
	}

	runner, err := runtime.NewPipelineRunner(cfg, newDemoExecutor(), logger)
	if err != nil {
		log.Fatalf("Failed to create pipeline runner: %v", err)
	}

	st := state.NewRunState()
	st.AppendMessage(state.NewSystemMessage("Analyst pipeline demo. Work the request through hypothesis, data gathering, and review."))
	st.AppendMessage(state.NewHumanMessage(*input))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	bus := commbus.NewInMemoryCommBus(30 * time.Second)
	bus.Subscribe("RoutingDecided", func(ctx context.Context, msg commbus.Message) (any, error) {
		decided := msg.(*commbus.RoutingDecided)
		logger.Info("routing_decided", "from", decided.From, "target", decided.Target)
		return nil, nil
	})
	if err := registerRunHandlers(bus, st, cancel); err != nil {
		log.Fatalf("Failed to register run handlers: %v", err)
	}
	runner.Bus = bus

	// Ctrl+C cancels the run through the bus.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		_ = bus.Send(context.Background(), &commbus.CancelRun{RunID: st.RunID, Reason: sig.String()})
	}()

	result, err := runner.Run(ctx, st)
	if err != nil {
		logger.Error("pipeline_run_failed", "run_id", st.RunID, "error", err.Error())
		os.Exit(1)
	}

	status, err := bus.QuerySync(context.Background(), &commbus.GetRunStatus{RunID: st.RunID})
	if err == nil {
		if resp, ok := status.(*commbus.RunStatusResponse); ok {
			logger.Info("run_status", "run_id", resp.RunID, "steps", resp.StepCount, "reason", resp.Reason)
		}
	}

	fmt.Printf("\nRun %s finished: %s after %d steps\n\n",
		result.RunID, result.TerminationReason, result.StepCount)
	for _, msg := range result.Messages {
		name := msg.Name
		if name == "" {
			name = string(msg.Role)
		}
		fmt.Printf("  [%s] %s\n", name, msg.Content)
	}

	encoded, err := json.MarshalIndent(result.ToStateDict(), "", "  ")
	if err == nil {
		fmt.Printf("\nFinal state:\n%s\n", encoded)
	}
}

// newDemoExecutor builds a canned executor that walks the full pipeline:
// hypothesis, a search pass that gets sent back for one revision, a
// visualization pass, then FINISH. The scripted decisions deliberately use
// the messy shapes upstream generation produces (single quotes, prose) to
// exercise the extraction tiers.
func newDemoExecutor() runtime.StageExecutor {
	var mu sync.Mutex
	processCalls := 0
	reviewCalls := 0

	decide := func(content string) *runtime.StateUpdate {
		d := state.MessageDecision(state.NewAIMessage(content, string(router.StageProcess)))
		return &runtime.StateUpdate{ProcessDecision: &d}
	}
	say := func(stage router.Stage, content string) *runtime.StateUpdate {
		return &runtime.StateUpdate{
			Messages: []state.Message{state.NewAIMessage(content, string(stage))},
		}
	}

	m := runtime.NewExecutorMap()
	m.Register(router.StageHypothesis, runtime.ExecutorFunc(func(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
		h := state.TextDecision("H1: the trend is driven by seasonal demand")
		update := say(stage, "Formed hypothesis: "+h.Text)
		update.Hypothesis = &h
		return update, nil
	}))
	m.Register(router.StageProcess, runtime.ExecutorFunc(func(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
		mu.Lock()
		defer mu.Unlock()
		processCalls++
		switch processCalls {
		case 1:
			return decide(`{'next': 'Search'}`), nil
		case 2:
			return decide(`{"next": "Visualization", "reason": "data gathered"}`), nil
		default:
			return decide("FINISH"), nil
		}
	}))
	m.Register(router.StageSearch, runtime.ExecutorFunc(func(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
		update := say(stage, "Collected monthly sales figures")
		s := "sales dataset ready"
		update.SearcherState = &s
		return update, nil
	}))
	m.Register(router.StageVisualization, runtime.ExecutorFunc(func(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
		update := say(stage, "Rendered the seasonal trend chart")
		v := "trend chart rendered"
		update.VisualizationState = &v
		return update, nil
	}))
	m.Register(router.StageQualityReview, runtime.ExecutorFunc(func(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
		mu.Lock()
		defer mu.Unlock()
		reviewCalls++
		revise := reviewCalls == 1
		content := "Output approved"
		if revise {
			content = router.RevisionMarker + ": include the prior year for comparison"
		}
		update := say(stage, content)
		update.NeedsRevision = &revise
		review := content
		update.QualityReview = &review
		return update, nil
	}))
	m.Register(router.StageNoteTaker, runtime.ExecutorFunc(func(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
		return say(stage, "Recorded findings in the run log"), nil
	}))
	m.Register(router.StageRefiner, runtime.ExecutorFunc(func(ctx context.Context, stage router.Stage, st *state.RunState) (*runtime.StateUpdate, error) {
		return say(stage, "Final report: seasonal demand explains the sales trend"), nil
	}))

	return m
}
