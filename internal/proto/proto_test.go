package proto

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestConversationString(t *testing.T) {
	convo := Conversation{
		{Role: RoleSystem, Content: "be nice"},
		{Role: RoleUser, Content: "what time is it?"},
		{Role: RoleAssistant, ToolCalls: []ToolCall{{ID: "1", Name: "get_current_time"}}},
		{Role: RoleTool, Content: "noon", ToolCalls: []ToolCall{{ID: "1", Name: "get_current_time"}}},
		{Role: RoleAssistant, Content: "It is noon."},
	}

	require.Equal(t, "**System**: be nice\n"+
		"**Prompt**: what time is it?\n"+
		"> Calling get_current_time\n"+
		"> Ran get_current_time\n"+
		"**Assistant**: It is noon.\n", convo.String())
}

func TestConversationClone(t *testing.T) {
	convo := Conversation{{Role: RoleUser, Content: "hi"}}
	next := append(convo.Clone(), Message{Role: RoleAssistant, Content: "hello"})

	require.Len(t, convo, 1)
	require.Len(t, next, 2)
	require.Equal(t, "", convo.System())
	require.Equal(t, "x", Conversation{{Role: RoleSystem, Content: "x"}}.System())
}
