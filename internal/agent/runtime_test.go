package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"
	"testing"

	"charm.land/fantasy"
	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/fantasybridge"
	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/stream"
	"github.com/dotcommander/agentgw/internal/tools"
)

type fakeModel struct {
	mu    sync.Mutex
	steps [][]fantasy.StreamPart
	err   error
	calls []fantasy.Call
}

func (m *fakeModel) Stream(_ context.Context, call fantasy.Call) (fantasy.StreamResponse, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, call)
	if m.err != nil {
		return nil, m.err
	}
	i := len(m.calls) - 1
	if i >= len(m.steps) {
		i = len(m.steps) - 1
	}
	parts := m.steps[i]
	return func(yield func(fantasy.StreamPart) bool) {
		for _, p := range parts {
			if !yield(p) {
				return
			}
		}
	}, nil
}

func text(s string) fantasy.StreamPart {
	return fantasy.StreamPart{Type: fantasy.StreamPartTypeTextDelta, Delta: s}
}

func toolCall(id, name, input string) fantasy.StreamPart {
	return fantasy.StreamPart{Type: fantasy.StreamPartTypeToolCall, ID: id, ToolCallName: name, ToolCallInput: input}
}

func clockRegistry(t *testing.T) *tools.Registry {
	t.Helper()
	reg, err := tools.NewRegistry(tools.Tool{
		Name: "get_current_time",
		Run: func(context.Context, json.RawMessage) (string, error) {
			return "Monday, January 01, 2024 at 09:00 AM", nil
		},
	})
	require.NoError(t, err)
	return reg
}

var convo = proto.Conversation{
	{Role: proto.RoleSystem, Content: "sys"},
	{Role: proto.RoleUser, Content: "what time is it?"},
}

func collect(t *testing.T, src stream.Source) ([]stream.Event, error) {
	t.Helper()
	var events []stream.Event
	for ev, err := range src.Events(context.Background(), convo) {
		if err != nil {
			return events, err
		}
		events = append(events, ev)
	}
	return events, nil
}

func kinds(events []stream.Event) []stream.Kind {
	out := make([]stream.Kind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func answer(events []stream.Event) string {
	var s string
	for _, ev := range events {
		for frag := range stream.Fragments(ev) {
			s += frag
		}
	}
	return s
}

func TestRuntimeAnswer(t *testing.T) {
	model := &fakeModel{steps: [][]fantasy.StreamPart{{
		{Type: fantasy.StreamPartTypeTextStart},
		text("Hel"),
		text("lo"),
		{Type: fantasy.StreamPartTypeFinish},
	}}}
	rt := NewRuntime(model, Options{Name: "qwen2.5:7b", Provider: fantasybridge.Config{API: "ollama"}, MaxSteps: 3})

	events, err := collect(t, rt)
	require.NoError(t, err)
	require.Equal(t, []stream.Kind{stream.KindModelToken, stream.KindModelToken, stream.KindStepFinish}, kinds(events))
	require.Equal(t, "Hello", answer(events))
	require.Equal(t, "qwen2.5:7b", rt.Name())

	require.Len(t, model.calls, 1)
	require.Len(t, model.calls[0].Prompt, 2)
	require.Empty(t, model.calls[0].Tools)
}

func TestRuntimeToolLoop(t *testing.T) {
	model := &fakeModel{steps: [][]fantasy.StreamPart{
		{
			toolCall("c1", "get_current_time", "{}"),
			toolCall("c1", "get_current_time", "{}"),
			{Type: fantasy.StreamPartTypeToolCall, ID: "srv", ToolCallName: "web_search", ProviderExecuted: true},
		},
		{text("It is 9 AM.")},
	}}
	rt := NewRuntime(model, Options{Provider: fantasybridge.Config{API: "ollama"}, Tools: clockRegistry(t), MaxSteps: 3})

	events, err := collect(t, rt)
	require.NoError(t, err)
	require.Equal(t, []stream.Kind{
		stream.KindToolCall,
		stream.KindStepFinish,
		stream.KindToolResult,
		stream.KindModelToken,
		stream.KindStepFinish,
	}, kinds(events))
	require.Equal(t, "It is 9 AM.", answer(events))

	result := events[2]
	require.Equal(t, "Monday, January 01, 2024 at 09:00 AM", result.Result)
	require.False(t, result.Tool.IsError)
	require.Equal(t, 1, result.Step)
	require.Equal(t, 2, events[3].Step)

	require.Len(t, model.calls, 2)
	require.Len(t, model.calls[0].Tools, 1)
	second := model.calls[1].Prompt
	require.Len(t, second, 4)
	require.Equal(t, fantasy.MessageRoleAssistant, second[2].Role)
	require.Equal(t, fantasy.MessageRoleTool, second[3].Role)
}

func TestRuntimeToolFailureIsFedBack(t *testing.T) {
	model := &fakeModel{steps: [][]fantasy.StreamPart{
		{toolCall("c1", "navigate_webpage", `{"url":"https://example.com"}`)},
		{text("I cannot browse.")},
	}}
	rt := NewRuntime(model, Options{Tools: clockRegistry(t), MaxSteps: 3})

	events, err := collect(t, rt)
	require.NoError(t, err)
	idx := slices.IndexFunc(events, func(ev stream.Event) bool { return ev.Kind == stream.KindToolResult })
	require.GreaterOrEqual(t, idx, 0)
	require.True(t, events[idx].Tool.IsError)
	require.Contains(t, events[idx].Result, `unknown tool "navigate_webpage"`)
	require.Equal(t, "I cannot browse.", answer(events))
}

func TestRuntimeReasoningIsNotText(t *testing.T) {
	model := &fakeModel{steps: [][]fantasy.StreamPart{{
		{Type: fantasy.StreamPartTypeReasoningDelta, Delta: "thinking..."},
		text("42"),
	}}}
	events, err := collect(t, NewRuntime(model, Options{MaxSteps: 1}))
	require.NoError(t, err)
	require.Equal(t, stream.KindModelToken, events[0].Kind)
	require.Equal(t, stream.PartTyped, events[0].Content[0].Kind)
	require.Equal(t, "42", answer(events))
}

func TestRuntimeFailures(t *testing.T) {
	t.Run("error part after tokens", func(t *testing.T) {
		model := &fakeModel{steps: [][]fantasy.StreamPart{{
			text("partial"),
			{Type: fantasy.StreamPartTypeError, Error: errors.New("connection reset")},
			text("never"),
		}}}
		events, err := collect(t, NewRuntime(model, Options{Provider: fantasybridge.Config{API: "ollama"}, MaxSteps: 2}))
		require.EqualError(t, err, "connection reset")
		require.Equal(t, "There was a problem with the ollama API request.", errs.Reason(err))
		require.Equal(t, "partial", answer(events))
	})

	t.Run("stream cannot start", func(t *testing.T) {
		model := &fakeModel{err: errors.New("dial tcp: refused")}
		events, err := collect(t, NewRuntime(model, Options{MaxSteps: 2}))
		require.EqualError(t, err, "dial tcp: refused")
		require.Empty(t, events)
	})

	t.Run("step limit", func(t *testing.T) {
		model := &fakeModel{steps: [][]fantasy.StreamPart{{toolCall("c", "get_current_time", "")}}}
		_, err := collect(t, NewRuntime(model, Options{Tools: clockRegistry(t), MaxSteps: 2}))
		require.EqualError(t, err, "no final answer after 2 steps")
		require.Len(t, model.calls, 2)
	})

	t.Run("canceled context", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		model := &fakeModel{steps: [][]fantasy.StreamPart{{text("x")}}}
		var got error
		for _, err := range NewRuntime(model, Options{MaxSteps: 1}).Events(ctx, convo) {
			got = err
		}
		require.ErrorIs(t, got, context.Canceled)
		require.Empty(t, model.calls)
	})
}

func TestRuntimeConsumerStops(t *testing.T) {
	model := &fakeModel{steps: [][]fantasy.StreamPart{{text("a"), text("b"), text("c")}}}
	n := 0
	for range NewRuntime(model, Options{MaxSteps: 1}).Events(context.Background(), convo) {
		n++
		break
	}
	require.Equal(t, 1, n)
}

func TestRuntimeConcurrentRuns(t *testing.T) {
	model := &fakeModel{steps: [][]fantasy.StreamPart{{text("same")}}}
	rt := NewRuntime(model, Options{MaxSteps: 1})

	var wg sync.WaitGroup
	results := make([]string, 8)
	for i := range results {
		wg.Add(1)
		go func() {
			defer wg.Done()
			events, err := collect(t, rt)
			if err != nil {
				results[i] = fmt.Sprint(err)
				return
			}
			results[i] = answer(events)
		}()
	}
	wg.Wait()
	for _, r := range results {
		require.Equal(t, "same", r)
	}
}
