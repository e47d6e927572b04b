// Package session builds the initial conversation handed to the agent for a
// single request.
//
// Only one system turn and one user turn are ever produced. Earlier turns and
// other roles in the input are discarded: the gateway keeps no conversation
// memory.
package session

import (
	"context"
	"log/slog"

	"github.com/dotcommander/agentgw/internal/proto"
)

// FromPrompt returns [system, user(message)].
func FromPrompt(ctx context.Context, system, message string) proto.Conversation {
	return build(ctx, system, message)
}

// FromMessages resolves the last system message (falling back to
// defaultSystem) and the last user message, and returns [system, user].
func FromMessages(ctx context.Context, defaultSystem string, msgs []proto.Message) proto.Conversation {
	system, user := defaultSystem, ""
	for _, msg := range msgs {
		switch msg.Role {
		case proto.RoleSystem:
			system = msg.Content
		case proto.RoleUser:
			user = msg.Content
		}
	}
	return build(ctx, system, user)
}

func build(ctx context.Context, system, user string) proto.Conversation {
	slog.DebugContext(ctx, "session: resolved conversation", "system", system, "user", user)
	return proto.Conversation{
		{Role: proto.RoleSystem, Content: system},
		{Role: proto.RoleUser, Content: user},
	}
}
