package state

import (
	"github.com/datalab-systems/analyst-core/coreengine/typeutil"
)

// Role identifies who produced a message.
type Role string

const (
	// RoleHuman marks messages originating from the user.
	RoleHuman Role = "human"
	// RoleAI marks messages produced by a generative stage.
	RoleAI Role = "ai"
	// RoleSystem marks engine-injected messages.
	RoleSystem Role = "system"
)

// IsValid returns true for one of the three known roles.
func (r Role) IsValid() bool {
	return r == RoleHuman || r == RoleAI || r == RoleSystem
}

// Message is a single entry in the run's conversation log.
// Name identifies the producing stage when set.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
	Name    string `json:"name,omitempty" yaml:"name,omitempty"`
}

// NewHumanMessage creates a human message.
func NewHumanMessage(content string) Message {
	return Message{Role: RoleHuman, Content: content}
}

// NewAIMessage creates an AI message attributed to a stage.
func NewAIMessage(content, name string) Message {
	return Message{Role: RoleAI, Content: content, Name: name}
}

// NewSystemMessage creates a system message.
func NewSystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// messageFromMap rebuilds a Message from an untyped map, as produced by
// encoding/json or ToStateDict. Returns false if the map has no content key.
func messageFromMap(m map[string]any) (Message, bool) {
	content, hasContent := typeutil.SafeString(m["content"])
	if !hasContent {
		return Message{}, false
	}
	msg := Message{
		Role:    Role(typeutil.SafeStringDefault(m["role"], string(RoleAI))),
		Content: content,
		Name:    typeutil.SafeStringDefault(m["name"], ""),
	}
	return msg, true
}

// toMap converts the message to its map representation.
func (m Message) toMap() map[string]any {
	out := map[string]any{
		"role":    string(m.Role),
		"content": m.Content,
	}
	if m.Name != "" {
		out["name"] = m.Name
	}
	return out
}
