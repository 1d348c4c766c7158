package router

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/datalab-systems/analyst-core/coreengine/state"
)

func TestNormalizeMessage(t *testing.T) {
	n := NewNormalizer(nil)

	text, mapping := n.Normalize(state.MessageDecision(state.NewAIMessage(`{"next": "Coder"}`, "Process")))
	assert.Equal(t, `{"next": "Coder"}`, text)
	assert.Nil(t, mapping)
}

func TestNormalizeMappingWithNext(t *testing.T) {
	n := NewNormalizer(nil)

	m := map[string]any{"next": "Search", "reason": "need background"}
	text, mapping := n.Normalize(state.MappingDecision(m))
	assert.Equal(t, "Search", text)
	assert.Equal(t, m, mapping)
}

func TestNormalizeMappingWithoutNext(t *testing.T) {
	n := NewNormalizer(nil)

	m := map[string]any{"verdict": "done"}
	text, mapping := n.Normalize(state.MappingDecision(m))
	assert.Equal(t, `{"verdict":"done"}`, text)
	assert.Equal(t, m, mapping)
}

func TestNormalizeText(t *testing.T) {
	n := NewNormalizer(nil)

	text, mapping := n.Normalize(state.TextDecision("FINISH"))
	assert.Equal(t, "FINISH", text)
	assert.Nil(t, mapping)
}

func TestNormalizeEmpty(t *testing.T) {
	n := NewNormalizer(nil)

	text, mapping := n.Normalize(state.Decision{})
	assert.Equal(t, "", text)
	assert.Nil(t, mapping)
}

func TestNormalizeNilMessageNeverPanics(t *testing.T) {
	n := NewNormalizer(nil)

	text, mapping := n.Normalize(state.Decision{Kind: state.DecisionKindMessage})
	assert.Equal(t, "", text)
	assert.Nil(t, mapping)
}

func TestNormalizeNonStringNextCoerced(t *testing.T) {
	n := NewNormalizer(nil)

	text, _ := n.Normalize(state.MappingDecision(map[string]any{"next": 7}))
	assert.Equal(t, "7", text)
}
