// Package router computes the next pipeline stage from a RunState snapshot.
//
// Three routers cover the pipeline's decision points:
//   - hypothesis gate: has an initial hypothesis been produced yet?
//   - process router: which worker does the supervisor's decision select?
//   - quality review router: advance, or loop back for revision?
//
// Every router is a total function over the Stage enumeration: arbitrarily
// malformed input maps to a conservative default, never to a failure,
// because halting the pipeline costs more than one extra re-decision cycle.
package router

// Stage is one node in the pipeline graph.
type Stage string

const (
	// StageHypothesis produces the initial analysis hypothesis.
	StageHypothesis Stage = "Hypothesis"
	// StageProcess is the supervisor that dispatches work.
	StageProcess Stage = "Process"
	// StageCoder writes and runs analysis code.
	StageCoder Stage = "Coder"
	// StageSearch gathers background information.
	StageSearch Stage = "Search"
	// StageVisualization renders charts.
	StageVisualization Stage = "Visualization"
	// StageReport drafts report sections.
	StageReport Stage = "Report"
	// StageQualityReview checks worker output.
	StageQualityReview Stage = "QualityReview"
	// StageNoteTaker records progress into the run state.
	StageNoteTaker Stage = "NoteTaker"
	// StageRefiner polishes the final report; terminal hand-off stage.
	StageRefiner Stage = "Refiner"
)

// FinishToken is the supervisor's literal signal that dispatch is done.
const FinishToken = "FINISH"

// RevisionMarker flags worker output for rework when it appears in the
// latest message's content.
const RevisionMarker = "REVISION"

// String implements fmt.Stringer.
func (s Stage) String() string { return string(s) }

var allStages = map[string]Stage{
	string(StageHypothesis):    StageHypothesis,
	string(StageProcess):       StageProcess,
	string(StageCoder):         StageCoder,
	string(StageSearch):        StageSearch,
	string(StageVisualization): StageVisualization,
	string(StageReport):        StageReport,
	string(StageQualityReview): StageQualityReview,
	string(StageNoteTaker):     StageNoteTaker,
	string(StageRefiner):       StageRefiner,
}

// StageFromString parses an identifier with exact-match semantics.
func StageFromString(value string) (Stage, bool) {
	stage, ok := allStages[value]
	return stage, ok
}

// Stages returns the full enumeration in pipeline order.
func Stages() []Stage {
	return []Stage{
		StageHypothesis,
		StageProcess,
		StageCoder,
		StageSearch,
		StageVisualization,
		StageReport,
		StageQualityReview,
		StageNoteTaker,
		StageRefiner,
	}
}

// processTargets are the identifiers the supervisor may dispatch to
// directly. Anything else routes back to the supervisor.
var processTargets = map[Stage]bool{
	StageCoder:         true,
	StageSearch:        true,
	StageVisualization: true,
	StageReport:        true,
}

// revisionRoutes maps a sender back to itself when its output is flagged
// for rework. Unknown senders advance to the note taker instead.
var revisionRoutes = map[string]Stage{
	string(StageVisualization): StageVisualization,
	string(StageSearch):        StageSearch,
	string(StageCoder):         StageCoder,
	string(StageReport):        StageReport,
}
