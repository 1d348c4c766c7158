package state

import (
	"encoding/json"

	"github.com/datalab-systems/analyst-core/coreengine/typeutil"
)

// DecisionKind discriminates the representations a supervisory stage may
// emit its decision in. Upstream generation is free-text, so the same
// logical decision arrives as a plain string one cycle and as a mapping or
// a wrapped message object the next.
type DecisionKind string

const (
	// DecisionKindEmpty is the zero decision (nothing emitted yet).
	DecisionKindEmpty DecisionKind = "empty"
	// DecisionKindText is a plain string decision.
	DecisionKindText DecisionKind = "text"
	// DecisionKindMapping is a key-value decision, usually {"next": <stage>}.
	DecisionKindMapping DecisionKind = "mapping"
	// DecisionKindMessage is a decision wrapped in a role-tagged message.
	DecisionKindMessage DecisionKind = "message"
)

// Decision is an explicit tagged variant over the representations a
// decision value can take. Exactly the field matching Kind is set;
// consumers must not probe the others.
type Decision struct {
	Kind    DecisionKind   `json:"kind"`
	Text    string         `json:"text,omitempty"`
	Mapping map[string]any `json:"mapping,omitempty"`
	Message *Message       `json:"message,omitempty"`
}

// TextDecision creates a plain-text decision. An empty string yields the
// empty decision.
func TextDecision(text string) Decision {
	if text == "" {
		return Decision{Kind: DecisionKindEmpty}
	}
	return Decision{Kind: DecisionKindText, Text: text}
}

// MappingDecision creates a mapping decision.
func MappingDecision(mapping map[string]any) Decision {
	if mapping == nil {
		return Decision{Kind: DecisionKindEmpty}
	}
	return Decision{Kind: DecisionKindMapping, Mapping: mapping}
}

// MessageDecision creates a message-wrapped decision.
func MessageDecision(msg Message) Decision {
	return Decision{Kind: DecisionKindMessage, Message: &msg}
}

// DecisionFromAny classifies an untyped value (typically decoded JSON)
// into a Decision. A map carrying role+content keys is treated as a
// wrapped message; any other map is a mapping. Unrecognized types are
// coerced to their textual form so the variant stays total.
func DecisionFromAny(value any) Decision {
	switch v := value.(type) {
	case nil:
		return Decision{Kind: DecisionKindEmpty}
	case string:
		return TextDecision(v)
	case Decision:
		return v
	case *Decision:
		if v == nil {
			return Decision{Kind: DecisionKindEmpty}
		}
		return *v
	case Message:
		return MessageDecision(v)
	case *Message:
		if v == nil {
			return Decision{Kind: DecisionKindEmpty}
		}
		return MessageDecision(*v)
	case map[string]any:
		if msg, ok := messageFromMap(v); ok {
			if _, hasRole := typeutil.SafeString(v["role"]); hasRole {
				return MessageDecision(msg)
			}
		}
		return MappingDecision(v)
	default:
		return TextDecision(typeutil.CoerceString(v))
	}
}

// IsEmpty returns true when no decision has been emitted.
func (d Decision) IsEmpty() bool {
	return d.Kind == DecisionKindEmpty || d.Kind == ""
}

// toAny returns the untyped representation used by ToStateDict.
func (d Decision) toAny() any {
	switch d.Kind {
	case DecisionKindText:
		return d.Text
	case DecisionKindMapping:
		return d.Mapping
	case DecisionKindMessage:
		if d.Message != nil {
			return d.Message.toMap()
		}
		return nil
	default:
		return ""
	}
}

// MarshalJSON serializes the decision as its natural wire shape: a string,
// an object, or null, matching what the generative stages emit.
func (d Decision) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.toAny())
}

// UnmarshalJSON reclassifies whatever shape is on the wire.
func (d *Decision) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*d = DecisionFromAny(raw)
	return nil
}

// Clone returns a deep copy of the decision.
func (d Decision) Clone() Decision {
	clone := Decision{Kind: d.Kind, Text: d.Text}
	if d.Mapping != nil {
		clone.Mapping = deepCopyAnyMap(d.Mapping)
	}
	if d.Message != nil {
		msg := *d.Message
		clone.Message = &msg
	}
	return clone
}
