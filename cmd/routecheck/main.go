// Package main provides the routecheck CLI for routing inspection.
//
// This CLI reads run-state JSON from stdin, applies the routing functions,
// and writes the decision to stdout. Designed for debugging pipeline
// behavior and for subprocess-based interop.
//
// Usage:
//
//	# Where would the supervisor send this state?
//	cat state.json | routecheck process
//
//	# Has the hypothesis gate been passed?
//	cat state.json | routecheck hypothesis
//
//	# Where does quality review send the run next?
//	cat state.json | routecheck quality-review
//
//	# All three routers at once
//	cat state.json | routecheck all
//
//	# Extract a routing value from raw decision text
//	echo '{"text": "{\"next\": \"Coder\"}"}' | routecheck extract
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/datalab-systems/analyst-core/coreengine/router"
	"github.com/datalab-systems/analyst-core/coreengine/state"
)

const (
	cmdProcess       = "process"
	cmdHypothesis    = "hypothesis"
	cmdQualityReview = "quality-review"
	cmdAll           = "all"
	cmdExtract       = "extract"
	cmdVersion       = "version"
)

// Version information
const (
	Version   = "1.0.0"
	BuildTime = "2026-08-23"
)

func main() {
	if len(os.Args) < 2 {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	os.Exit(run(os.Args[1], os.Stdin, os.Stdout, os.Stderr))
}

// run dispatches a command. Split from main so tests can drive the CLI
// in-process.
func run(cmd string, stdin io.Reader, stdout, stderr io.Writer) int {
	switch cmd {
	case cmdVersion:
		return handleVersion(stdout)
	case cmdProcess:
		return handleRoute(stdin, stdout, "process")
	case cmdHypothesis:
		return handleRoute(stdin, stdout, "hypothesis")
	case cmdQualityReview:
		return handleRoute(stdin, stdout, "quality_review")
	case cmdAll:
		return handleAll(stdin, stdout)
	case cmdExtract:
		return handleExtract(stdin, stdout)
	default:
		fmt.Fprintf(stderr, "Unknown command: %s\n", cmd)
		printUsage(stderr)
		return 1
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: routecheck <command>

Commands:
  process         Route the supervisor decision in the given run state
  hypothesis      Route through the hypothesis gate
  quality-review  Route the quality review verdict
  all             Run all three routers on the same state
  extract         Extract a routing value from raw decision text
  version         Print version information

Input/Output:
  All commands read JSON from stdin and write JSON to stdout.
  Errors are written as JSON objects with "error": true.

Examples:
  cat state.json | routecheck process
  cat state.json | routecheck all
  echo '{"text": "FINISH"}' | routecheck extract`)
}

// handleVersion prints version information.
func handleVersion(stdout io.Writer) int {
	writeJSON(stdout, map[string]string{
		"version":    Version,
		"build_time": BuildTime,
	})
	return 0
}

// handleRoute routes a run state through a single router.
func handleRoute(stdin io.Reader, stdout io.Writer, routerName string) int {
	st, code := readState(stdin, stdout)
	if code != 0 {
		return code
	}

	r := router.New(nil)
	var target router.Stage
	switch routerName {
	case "hypothesis":
		target = r.RouteHypothesis(st)
	case "quality_review":
		target = r.RouteQualityReview(st)
	default:
		target = r.RouteProcess(st)
	}

	writeJSON(stdout, map[string]any{
		"router": routerName,
		"target": string(target),
	})
	return 0
}

// handleAll routes the same state through every router.
func handleAll(stdin io.Reader, stdout io.Writer) int {
	st, code := readState(stdin, stdout)
	if code != 0 {
		return code
	}

	r := router.New(nil)
	writeJSON(stdout, map[string]any{
		"hypothesis":     string(r.RouteHypothesis(st)),
		"process":        string(r.RouteProcess(st)),
		"quality_review": string(r.RouteQualityReview(st)),
	})
	return 0
}

// handleExtract runs tiered extraction on raw decision text.
func handleExtract(stdin io.Reader, stdout io.Writer) int {
	input, err := io.ReadAll(stdin)
	if err != nil {
		writeError(stdout, "read_error", err.Error())
		return 1
	}

	var req struct {
		Text string `json:"text"`
	}
	if err := json.Unmarshal(input, &req); err != nil {
		writeError(stdout, "parse_error", fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return 1
	}

	value, strategy := router.ExtractWithStrategy(req.Text)
	writeJSON(stdout, map[string]any{
		"value":    value,
		"strategy": strategy,
	})
	return 0
}

// readState reads and parses a run state dict from stdin.
func readState(stdin io.Reader, stdout io.Writer) (*state.RunState, int) {
	input, err := io.ReadAll(stdin)
	if err != nil {
		writeError(stdout, "read_error", err.Error())
		return nil, 1
	}

	var stateDict map[string]any
	if err := json.Unmarshal(input, &stateDict); err != nil {
		writeError(stdout, "parse_error", fmt.Sprintf("Invalid JSON: %s", err.Error()))
		return nil, 1
	}

	return state.FromStateDict(stateDict), 0
}

// writeJSON writes a JSON object to stdout.
func writeJSON(w io.Writer, v any) {
	encoder := json.NewEncoder(w)
	if err := encoder.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %s\n", err.Error())
	}
}

// writeError writes an error response to stdout.
func writeError(w io.Writer, code, message string) {
	writeJSON(w, map[string]any{
		"error":   true,
		"code":    code,
		"message": message,
	})
}
