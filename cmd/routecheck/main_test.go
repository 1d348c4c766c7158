package main

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand drives the CLI in-process and returns stdout, stderr, and the
// exit code.
func runCommand(t *testing.T, cmd string, input string) (map[string]any, string, int) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	code := run(cmd, strings.NewReader(input), &stdout, &stderr)

	var result map[string]any
	if stdout.Len() > 0 {
		require.NoError(t, json.Unmarshal(stdout.Bytes(), &result), "output: %s", stdout.String())
	}
	return result, stderr.String(), code
}

func TestVersionCommand(t *testing.T) {
	result, _, code := runCommand(t, "version", "")
	assert.Equal(t, 0, code)
	assert.Equal(t, "1.0.0", result["version"])
	assert.NotEmpty(t, result["build_time"])
}

func TestProcessCommand(t *testing.T) {
	tests := []struct {
		name     string
		decision string
		want     string
	}{
		{"mapping", `{"next": "Coder"}`, "Coder"},
		{"finish", `"FINISH"`, "Refiner"},
		{"garbage", `"no idea"`, "Process"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			input := `{"run_id": "run_cli", "process_decision": ` + tt.decision + `}`
			result, _, code := runCommand(t, "process", input)
			require.Equal(t, 0, code)
			assert.Equal(t, "process", result["router"])
			assert.Equal(t, tt.want, result["target"])
		})
	}
}

func TestHypothesisCommand(t *testing.T) {
	result, _, code := runCommand(t, "hypothesis", `{"run_id": "run_cli"}`)
	require.Equal(t, 0, code)
	assert.Equal(t, "Hypothesis", result["target"])

	result, _, code = runCommand(t, "hypothesis", `{"run_id": "run_cli", "hypothesis": "H1: demand is seasonal"}`)
	require.Equal(t, 0, code)
	assert.Equal(t, "Process", result["target"])
}

func TestQualityReviewCommand(t *testing.T) {
	input := `{
		"run_id": "run_cli",
		"last_sender": "Coder",
		"messages": [{"role": "ai", "content": "Needs REVISION: fix imports", "name": "QualityReview"}]
	}`
	result, _, code := runCommand(t, "quality-review", input)
	require.Equal(t, 0, code)
	assert.Equal(t, "Coder", result["target"])
}

func TestAllCommand(t *testing.T) {
	input := `{
		"run_id": "run_cli",
		"hypothesis": "H1",
		"process_decision": {"next": "Search"},
		"messages": [{"role": "ai", "content": "fine", "name": "QualityReview"}]
	}`
	result, _, code := runCommand(t, "all", input)
	require.Equal(t, 0, code)
	assert.Equal(t, "Process", result["hypothesis"])
	assert.Equal(t, "Search", result["process"])
	assert.Equal(t, "NoteTaker", result["quality_review"])
}

func TestExtractCommand(t *testing.T) {
	tests := []struct {
		name         string
		text         string
		wantValue    string
		wantStrategy string
	}{
		{"strict json", `{"next": "Coder"}`, "Coder", "strict_json"},
		{"single quotes", `{'next': 'Search'}`, "Search", "quote_normalized"},
		{"prose pattern", `next is "Report" unfortunately`, "Report", "pattern"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := json.Marshal(map[string]string{"text": tt.text})
			require.NoError(t, err)

			result, _, code := runCommand(t, "extract", string(payload))
			require.Equal(t, 0, code)
			assert.Equal(t, tt.wantValue, result["value"])
			assert.Equal(t, tt.wantStrategy, result["strategy"])
		})
	}
}

func TestInvalidJSON(t *testing.T) {
	result, _, code := runCommand(t, "process", "{broken")
	assert.Equal(t, 1, code)
	assert.Equal(t, true, result["error"])
	assert.Equal(t, "parse_error", result["code"])
}

func TestUnknownCommand(t *testing.T) {
	_, stderr, code := runCommand(t, "bogus", "")
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr, "Unknown command")
	assert.Contains(t, stderr, "Usage")
}
