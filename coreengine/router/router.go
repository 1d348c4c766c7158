package router

import (
	"strings"

	"github.com/datalab-systems/analyst-core/coreengine/observability"
	"github.com/datalab-systems/analyst-core/coreengine/state"
)

// Router names used in logs and metrics.
const (
	routerHypothesis    = "hypothesis"
	routerProcess       = "process"
	routerQualityReview = "quality_review"
)

// Router computes next-stage decisions from RunState snapshots.
//
// All methods are pure with respect to the state: they read it, never
// mutate it, and are safe to call concurrently. Re-routing an unchanged
// snapshot always yields the same result.
type Router struct {
	logger     Logger
	normalizer *Normalizer
}

// New creates a Router. logger may be nil.
func New(logger Logger) *Router {
	return &Router{
		logger:     logger,
		normalizer: NewNormalizer(logger),
	}
}

// RouteProcess maps the supervisor's decision to the next worker stage.
//
// Recognized worker identifiers pass through unchanged, FINISH hands off
// to the refiner, and everything else (empty, malformed, unrecognized)
// loops back to the supervisor for another decision.
func (r *Router) RouteProcess(st *state.RunState) Stage {
	text, _ := r.normalizer.Normalize(st.ProcessDecision)
	identifier, strategy := ExtractWithStrategy(text)
	observability.RecordExtractorStrategy(strategy)

	if stage, ok := StageFromString(identifier); ok && processTargets[stage] {
		return r.decided(routerProcess, stage, "strategy", strategy)
	}

	if identifier == FinishToken {
		return r.decided(routerProcess, StageRefiner, "strategy", strategy)
	}

	r.debug("process_decision_defaulted", "identifier", identifier, "strategy", strategy)
	return r.decided(routerProcess, StageProcess, "strategy", strategy)
}

// RouteHypothesis gates supervisory dispatch on the presence of a
// hypothesis: the pipeline must produce one exactly once before the
// supervisor starts dispatching work.
func (r *Router) RouteHypothesis(st *state.RunState) Stage {
	var content string
	switch st.Hypothesis.Kind {
	case state.DecisionKindMessage:
		if st.Hypothesis.Message != nil {
			content = st.Hypothesis.Message.Content
		}
	case state.DecisionKindText:
		content = st.Hypothesis.Text
	case state.DecisionKindEmpty, "":
		content = ""
	default:
		// Unexpected representation: treat as absent rather than guessing.
		r.warn("hypothesis_unexpected_kind", "kind", string(st.Hypothesis.Kind))
		content = ""
	}

	if strings.TrimSpace(content) == "" {
		return r.decided(routerHypothesis, StageHypothesis)
	}
	return r.decided(routerHypothesis, StageProcess)
}

// RouteQualityReview decides between looping back to the stage whose
// output was flagged for rework and advancing to the note taker. This is
// the only cycle-forming edge in the graph; the engine's step cap bounds
// it.
func (r *Router) RouteQualityReview(st *state.RunState) Stage {
	revisionNeeded := st.NeedsRevision
	if last, ok := st.LastMessage(); ok && strings.Contains(last.Content, RevisionMarker) {
		revisionNeeded = true
	}

	if !revisionNeeded {
		return r.decided(routerQualityReview, StageNoteTaker)
	}

	if target, ok := revisionRoutes[st.LastSender]; ok {
		r.info("revision_routed", "sender", st.LastSender, "target", string(target))
		return r.decided(routerQualityReview, target)
	}

	r.warn("revision_sender_unknown", "sender", st.LastSender)
	return r.decided(routerQualityReview, StageNoteTaker)
}

// decided records the routing decision and returns the target.
func (r *Router) decided(routerName string, target Stage, keysAndValues ...any) Stage {
	observability.RecordRoutingDecision(routerName, string(target))
	if r.logger != nil {
		fields := append([]any{"router", routerName, "target", string(target)}, keysAndValues...)
		r.logger.Debug("routing_decision", fields...)
	}
	return target
}

func (r *Router) debug(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Debug(msg, keysAndValues...)
	}
}

func (r *Router) info(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Info(msg, keysAndValues...)
	}
}

func (r *Router) warn(msg string, keysAndValues ...any) {
	if r.logger != nil {
		r.logger.Warn(msg, keysAndValues...)
	}
}
