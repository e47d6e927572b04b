package client

import (
	"context"
	"errors"
	"iter"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/server"
	"github.com/dotcommander/agentgw/internal/stream"
)

func gateway(t *testing.T, fail error, texts ...string) *Client {
	t.Helper()
	src := stream.SourceFunc(func(_ context.Context, convo proto.Conversation) iter.Seq2[stream.Event, error] {
		return func(yield func(stream.Event, error) bool) {
			for _, text := range texts {
				if !yield(stream.Token(text), nil) {
					return
				}
			}
			if fail != nil {
				yield(stream.Event{}, fail)
			}
		}
	})
	ts := httptest.NewServer(server.New(server.Config{Model: "qwen2.5:7b", System: "sys"}, src).Handler())
	t.Cleanup(ts.Close)
	return New(ts.URL + "/")
}

func collect(t *testing.T, seq iter.Seq2[string, error]) (string, error) {
	t.Helper()
	var sb strings.Builder
	for text, err := range seq {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(text)
	}
	return sb.String(), nil
}

func TestChat(t *testing.T) {
	c := gateway(t, nil, "Hello", ", ", "world")
	out, err := collect(t, c.Chat(context.Background(), "hi"))
	require.NoError(t, err)
	require.Equal(t, "Hello, world", out)
}

func TestChatFailureMarker(t *testing.T) {
	c := gateway(t, errors.New("boom"), "partial")
	out, err := collect(t, c.Chat(context.Background(), "hi"))
	require.NoError(t, err)
	require.Equal(t, "partial\n[Error: boom]\n", out)
}

func TestComplete(t *testing.T) {
	c := gateway(t, nil, "Hel", "", "lo")
	out, err := collect(t, c.Complete(context.Background(), "qwen2.5:7b", []proto.Message{
		{Role: proto.RoleUser, Content: "hi"},
	}))
	require.NoError(t, err)
	require.Equal(t, "Hello", out)
}

func TestCompleteFailureMarker(t *testing.T) {
	c := gateway(t, errors.New("model unavailable"))
	out, err := collect(t, c.Complete(context.Background(), "qwen2.5:7b", []proto.Message{
		{Role: proto.RoleUser, Content: "hi"},
	}))
	require.NoError(t, err)
	require.Equal(t, "\n[Error: model unavailable]\n", out)
}

func TestCompleteRejected(t *testing.T) {
	c := gateway(t, nil)
	_, err := collect(t, c.Complete(context.Background(), "", nil))
	require.Error(t, err)
	require.Equal(t, "The gateway rejected the request.", errs.Reason(err))
	require.Contains(t, err.Error(), "400")
}

func TestModels(t *testing.T) {
	c := gateway(t, nil)
	ids, err := c.Models(context.Background())
	require.NoError(t, err)
	require.Equal(t, []string{"qwen2.5:7b"}, ids)
}

func TestUnreachable(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	url := ts.URL
	ts.Close()

	_, err := New(url).Models(context.Background())
	require.Error(t, err)
	require.Contains(t, errs.Reason(err), "Could not reach the gateway")
}
