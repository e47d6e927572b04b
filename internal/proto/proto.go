// Package proto defines the conversation types shared by the gateway, the
// agent runtime and the provider bridge.
package proto

import (
	"fmt"
	"strings"
)

// Roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single turn in a conversation.
type Message struct {
	Role      string     `json:"role"`
	Content   string     `json:"content"`
	ToolCalls []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a tool invocation requested by the model, or the result of one
// when attached to a tool message.
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments []byte `json:"arguments,omitempty"`
	IsError   bool   `json:"is_error,omitempty"`
}

// Conversation is the ordered message list handed to an event source.
//
// It is built once per request and must not be modified afterwards.
type Conversation []Message

// System returns the content of the first system message, if any.
func (c Conversation) System() string {
	for _, m := range c {
		if m.Role == RoleSystem {
			return m.Content
		}
	}
	return ""
}

// Clone returns a copy that can be extended without touching c.
func (c Conversation) Clone() Conversation {
	return append(Conversation(nil), c...)
}

func (c Conversation) String() string {
	var sb strings.Builder
	for _, msg := range c {
		switch msg.Role {
		case RoleSystem:
			fmt.Fprintf(&sb, "**System**: %s\n", msg.Content)
		case RoleUser:
			fmt.Fprintf(&sb, "**Prompt**: %s\n", msg.Content)
		case RoleAssistant:
			for _, call := range msg.ToolCalls {
				fmt.Fprintf(&sb, "> Calling %s\n", call.Name)
			}
			if msg.Content != "" {
				fmt.Fprintf(&sb, "**Assistant**: %s\n", msg.Content)
			}
		case RoleTool:
			for _, call := range msg.ToolCalls {
				status := "Ran"
				if call.IsError {
					status = "Failed"
				}
				fmt.Fprintf(&sb, "> %s %s\n", status, call.Name)
			}
		}
	}
	return sb.String()
}
