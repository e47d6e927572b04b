package agent

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"strings"

	"charm.land/fantasy"

	"github.com/dotcommander/agentgw/internal/fantasybridge"
	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/stream"
	"github.com/dotcommander/agentgw/internal/tools"
)

// Model streams a single model call. fantasy.LanguageModel implements it.
type Model interface {
	Stream(ctx context.Context, call fantasy.Call) (fantasy.StreamResponse, error)
}

// Options configures a Runtime.
type Options struct {
	// Name is the resolved model name.
	Name     string
	Provider fantasybridge.Config
	Tools    *tools.Registry
	MaxSteps int
	Call     fantasybridge.CallOptions
}

// Runtime is the process-wide, read-only agent configuration. It is safe for
// concurrent use: every Events call runs its own loop.
type Runtime struct {
	model Model
	opts  Options
}

var _ stream.Source = (*Runtime)(nil)

// NewRuntime creates a runtime around an already built model.
func NewRuntime(model Model, opts Options) *Runtime {
	if opts.MaxSteps < 1 {
		opts.MaxSteps = 1
	}
	return &Runtime{model: model, opts: opts}
}

// Name returns the model name.
func (r *Runtime) Name() string { return r.opts.Name }

// Tools returns the tools offered to the model.
func (r *Runtime) Tools() *tools.Registry { return r.opts.Tools }

// Events implements stream.Source.
func (r *Runtime) Events(ctx context.Context, convo proto.Conversation) iter.Seq2[stream.Event, error] {
	return func(yield func(stream.Event, error) bool) {
		run := &run{
			Runtime:  r,
			messages: convo.Clone(),
			warned:   map[string]struct{}{},
			yield:    yield,
		}
		run.loop(ctx)
	}
}

type run struct {
	*Runtime
	messages proto.Conversation
	warned   map[string]struct{}
	yield    func(stream.Event, error) bool
}

type stepResult struct {
	text  strings.Builder
	calls []proto.ToolCall
}

func (r *run) loop(ctx context.Context) {
	for step := 1; step <= r.opts.MaxSteps; step++ {
		if err := ctx.Err(); err != nil {
			r.yield(stream.Event{}, err)
			return
		}

		res, ok := r.step(ctx, step)
		if !ok {
			return
		}
		r.messages = append(r.messages, proto.Message{
			Role:      proto.RoleAssistant,
			Content:   res.text.String(),
			ToolCalls: res.calls,
		})
		if !r.yield(stream.Event{Kind: stream.KindStepFinish, Step: step}, nil) {
			return
		}
		if len(res.calls) == 0 {
			return
		}

		for _, call := range res.calls {
			result, status := r.callTool(ctx, call)
			r.messages = append(r.messages, proto.Message{
				Role:      proto.RoleTool,
				Content:   result,
				ToolCalls: []proto.ToolCall{status},
			})
			if !r.yield(stream.Event{Kind: stream.KindToolResult, Tool: &status, Result: result, Step: step}, nil) {
				return
			}
		}
	}
	r.yield(stream.Event{}, fmt.Errorf("no final answer after %d steps", r.opts.MaxSteps))
}

func (r *run) step(ctx context.Context, step int) (*stepResult, bool) {
	call := fantasybridge.NewCall(r.opts.Provider, r.messages, r.opts.Tools, r.opts.Call)
	parts, err := r.model.Stream(ctx, call)
	if err != nil {
		r.yield(stream.Event{}, describe(err, r.opts.Provider.API))
		return nil, false
	}

	res := &stepResult{}
	seen := map[string]struct{}{}
	for part := range parts {
		var ev stream.Event
		switch part.Type {
		case fantasy.StreamPartTypeTextDelta:
			res.text.WriteString(part.Delta)
			ev = stream.Token(part.Delta)
		case fantasy.StreamPartTypeReasoningDelta:
			ev = stream.Event{Kind: stream.KindModelToken, Content: stream.Content{stream.Typed("reasoning", part.Delta)}}
		case fantasy.StreamPartTypeToolCall:
			if part.ProviderExecuted {
				continue
			}
			if _, ok := seen[part.ID]; ok {
				continue
			}
			seen[part.ID] = struct{}{}
			tc := proto.ToolCall{ID: part.ID, Name: part.ToolCallName, Arguments: []byte(part.ToolCallInput)}
			res.calls = append(res.calls, tc)
			ev = stream.Event{Kind: stream.KindToolCall, Tool: &tc}
		case fantasy.StreamPartTypeWarnings:
			r.warn(ctx, part.Warnings)
			continue
		case fantasy.StreamPartTypeError:
			err := part.Error
			if err == nil {
				err = errors.New("model stream failed")
			}
			r.yield(stream.Event{}, describe(err, r.opts.Provider.API))
			return nil, false
		default:
			continue
		}
		ev.Step = step
		if !r.yield(ev, nil) {
			return nil, false
		}
	}

	if err := ctx.Err(); err != nil {
		r.yield(stream.Event{}, err)
		return nil, false
	}
	return res, true
}

// callTool runs a tool call. Failures become error results for the model.
func (r *run) callTool(ctx context.Context, call proto.ToolCall) (string, proto.ToolCall) {
	status := proto.ToolCall{ID: call.ID, Name: call.Name}
	out, err := r.opts.Tools.Call(ctx, call.Name, call.Arguments)
	if err != nil {
		slog.WarnContext(ctx, "agent: tool failed", "tool", call.Name, "err", err)
		status.IsError = true
		return err.Error(), status
	}
	slog.DebugContext(ctx, "agent: tool ran", "tool", call.Name, "bytes", len(out))
	return out, status
}

func (r *run) warn(ctx context.Context, warnings []fantasy.CallWarning) {
	for _, w := range warnings {
		text := fantasybridge.WarningText(w)
		key := string(w.Type) + ":" + text
		if _, ok := r.warned[key]; ok {
			continue
		}
		r.warned[key] = struct{}{}
		slog.WarnContext(ctx, "agent: provider warning", "api", r.opts.Provider.API, "warning", text)
	}
}
