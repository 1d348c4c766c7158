package router

import (
	"github.com/datalab-systems/analyst-core/coreengine/state"
	"github.com/datalab-systems/analyst-core/coreengine/typeutil"
)

// Logger is the interface for logging.
type Logger interface {
	Debug(msg string, keysAndValues ...any)
	Info(msg string, keysAndValues ...any)
	Warn(msg string, keysAndValues ...any)
	Error(msg string, keysAndValues ...any)
}

// Normalizer converts a heterogeneous decision value into one canonical
// text string plus, when structurally available, a pre-parsed mapping.
// It never fails: a conversion problem yields an empty string and a
// warning log entry.
type Normalizer struct {
	logger Logger
}

// NewNormalizer creates a Normalizer. logger may be nil.
func NewNormalizer(logger Logger) *Normalizer {
	return &Normalizer{logger: logger}
}

// Normalize produces the canonical decision text.
//
//   - message: use its content
//   - mapping: stringify mapping["next"] when present, else the whole mapping
//   - text: use as-is
//   - empty or anything else: empty string
func (n *Normalizer) Normalize(d state.Decision) (string, map[string]any) {
	switch d.Kind {
	case state.DecisionKindMessage:
		if d.Message == nil {
			n.warn("decision_message_nil")
			return "", nil
		}
		return d.Message.Content, nil
	case state.DecisionKindMapping:
		if next, exists := d.Mapping["next"]; exists {
			return typeutil.CoerceString(next), d.Mapping
		}
		return typeutil.CoerceString(d.Mapping), d.Mapping
	case state.DecisionKindText:
		return d.Text, nil
	case state.DecisionKindEmpty, "":
		return "", nil
	default:
		n.warn("decision_unexpected_kind", "kind", string(d.Kind))
		return typeutil.CoerceString(d.Text), nil
	}
}

func (n *Normalizer) warn(msg string, keysAndValues ...any) {
	if n.logger != nil {
		n.logger.Warn(msg, keysAndValues...)
	}
}
