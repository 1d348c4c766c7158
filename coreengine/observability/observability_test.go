package observability

import (
	"testing"
)

// The promauto collectors are process-global; these tests verify the
// recording helpers accept arbitrary label values without panicking.

func TestRecordRoutingDecision(t *testing.T) {
	RecordRoutingDecision("process", "Coder")
	RecordRoutingDecision("process", "Process")
	RecordRoutingDecision("quality_review", "NoteTaker")
}

func TestRecordExtractorStrategy(t *testing.T) {
	for _, strategy := range []string{"shape", "strict_json", "quote_normalized", "pattern", "raw"} {
		RecordExtractorStrategy(strategy)
	}
}

func TestRecordStageExecution(t *testing.T) {
	RecordStageExecution("Coder", "success", 125)
	RecordStageExecution("Search", "error", 0)
}

func TestRecordPipelineRun(t *testing.T) {
	RecordPipelineRun("analyst", "completed", 4200)
	RecordPipelineRun("analyst", "max_steps_exceeded", 60000)
}
