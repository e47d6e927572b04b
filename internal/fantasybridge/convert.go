package fantasybridge

import (
	"errors"

	"charm.land/fantasy"

	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/tools"
)

// Prompt converts a conversation, including assistant tool calls and tool
// results, to a fantasy prompt.
func Prompt(input proto.Conversation) fantasy.Prompt {
	messages := make([]fantasy.Message, 0, len(input))

	for _, msg := range input {
		switch msg.Role {
		case proto.RoleSystem:
			messages = append(messages, fantasy.Message{
				Role: fantasy.MessageRoleSystem,
				Content: []fantasy.MessagePart{
					fantasy.TextPart{Text: msg.Content},
				},
			})
		case proto.RoleUser:
			messages = append(messages, fantasy.Message{
				Role: fantasy.MessageRoleUser,
				Content: []fantasy.MessagePart{
					fantasy.TextPart{Text: msg.Content},
				},
			})
		case proto.RoleAssistant:
			parts := make([]fantasy.MessagePart, 0, 1+len(msg.ToolCalls))
			if msg.Content != "" {
				parts = append(parts, fantasy.TextPart{Text: msg.Content})
			}
			for _, call := range msg.ToolCalls {
				parts = append(parts, fantasy.ToolCallPart{
					ToolCallID: call.ID,
					ToolName:   call.Name,
					Input:      string(call.Arguments),
				})
			}
			if len(parts) > 0 {
				messages = append(messages, fantasy.Message{
					Role:    fantasy.MessageRoleAssistant,
					Content: parts,
				})
			}
		case proto.RoleTool:
			parts := make([]fantasy.MessagePart, 0, len(msg.ToolCalls))
			for _, call := range msg.ToolCalls {
				var output fantasy.ToolResultOutputContent
				if call.IsError {
					output = fantasy.ToolResultOutputContentError{Error: errors.New(msg.Content)}
				} else {
					output = fantasy.ToolResultOutputContentText{Text: msg.Content}
				}
				parts = append(parts, fantasy.ToolResultPart{
					ToolCallID: call.ID,
					Output:     output,
				})
			}
			if len(parts) > 0 {
				messages = append(messages, fantasy.Message{
					Role:    fantasy.MessageRoleTool,
					Content: parts,
				})
			}
		}
	}

	return messages
}

// Tools converts the registry to fantasy function tools.
func Tools(reg *tools.Registry) []fantasy.Tool {
	all := reg.All()
	out := make([]fantasy.Tool, 0, len(all))
	for _, tool := range all {
		out = append(out, fantasy.FunctionTool{
			Name:        tool.Name,
			Description: tool.Description,
			InputSchema: tool.Schema,
		})
	}
	return out
}

func toolChoice(reg *tools.Registry) *fantasy.ToolChoice {
	if reg.Len() == 0 {
		return nil
	}
	choice := fantasy.ToolChoiceAuto
	return &choice
}
