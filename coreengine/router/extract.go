package router

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/datalab-systems/analyst-core/coreengine/typeutil"
)

// Extraction strategy names, reported for observability.
const (
	// StrategyShape means the text was not brace-delimited, no next pair
	// was found in it, and the whole trimmed text became the candidate.
	StrategyShape = "shape"
	// StrategyStrictJSON means a strict JSON parse recovered the next field.
	StrategyStrictJSON = "strict_json"
	// StrategyQuoteNormalized means the parse succeeded after replacing
	// single quotes with double quotes.
	StrategyQuoteNormalized = "quote_normalized"
	// StrategyPattern means a permissive key/value scan found the next field.
	StrategyPattern = "pattern"
	// StrategyRaw means every structured attempt failed on brace-delimited
	// text and the trimmed text was returned unchanged.
	StrategyRaw = "raw"
)

// nextKeyPattern matches a next key followed by a quoted value. Quotes
// around the key, the colon, and surrounding whitespace are all optional
// so that prose-wrapped decisions ("next is \"Report\"") still yield their
// signal. The scan is a best-effort heuristic over the raw text: braces
// are not balanced and nested objects are not interpreted.
var nextKeyPattern = regexp.MustCompile(`["']?next["']?\s*(?:[:=]|is)?\s*["']([^"']+)["']`)

// extractStrategy is one tier of the structured-parse ladder.
type extractStrategy struct {
	name  string
	apply func(text string) (string, bool)
}

// jsonStrategies run in order on brace-delimited text; the first success
// wins. The tiering exists because upstream free-text generation produces
// near-JSON with inconsistent quoting or surrounding prose, and the
// intended signal must be recovered without ever failing.
var jsonStrategies = []extractStrategy{
	{StrategyStrictJSON, extractStrictJSON},
	{StrategyQuoteNormalized, extractQuoteNormalized},
}

// Extract recovers the intended stage identifier from normalized decision
// text. The result may be empty or unrecognized; callers map such values
// to their safe default.
func Extract(text string) string {
	value, _ := ExtractWithStrategy(text)
	return value
}

// ExtractWithStrategy also reports which tier produced the value.
func ExtractWithStrategy(text string) (string, string) {
	trimmed := strings.TrimSpace(text)
	braceDelimited := strings.HasPrefix(trimmed, "{") && strings.HasSuffix(trimmed, "}")

	// Shape check: JSON parsing is only worth attempting on
	// brace-delimited text.
	if braceDelimited {
		for _, strategy := range jsonStrategies {
			if value, ok := strategy.apply(trimmed); ok {
				return value, strategy.name
			}
		}
	}

	if value, ok := extractPattern(trimmed); ok {
		return value, StrategyPattern
	}

	if braceDelimited {
		return trimmed, StrategyRaw
	}
	return trimmed, StrategyShape
}

// extractStrictJSON parses the text as a JSON object and returns the next
// field. A well-formed object without a next field yields an empty
// identifier, which routes to the safe default downstream.
func extractStrictJSON(text string) (string, bool) {
	var parsed map[string]any
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return "", false
	}
	return typeutil.CoerceString(parsed["next"]), true
}

// extractQuoteNormalized retries the strict parse after converting single
// quotes to double quotes, the most common near-JSON malformation.
func extractQuoteNormalized(text string) (string, bool) {
	return extractStrictJSON(strings.ReplaceAll(text, "'", `"`))
}

// extractPattern searches for a quoted next value anywhere in the text.
func extractPattern(text string) (string, bool) {
	match := nextKeyPattern.FindStringSubmatch(text)
	if match == nil {
		return "", false
	}
	return match[1], true
}
