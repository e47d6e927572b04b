package stream

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"iter"
	"sync"

	"github.com/dotcommander/agentgw/internal/proto"
)

// Source produces generation events for a conversation.
//
// A failing source yields exactly one non-nil error and stops.
type Source interface {
	Events(ctx context.Context, convo proto.Conversation) iter.Seq2[Event, error]
}

// SourceFunc adapts a function to Source.
type SourceFunc func(ctx context.Context, convo proto.Conversation) iter.Seq2[Event, error]

// Events implements Source.
func (f SourceFunc) Events(ctx context.Context, convo proto.Conversation) iter.Seq2[Event, error] {
	return f(ctx, convo)
}

// Replay returns a Source that plays back newline-delimited JSON events read
// from r, ignoring the conversation. The input is read once and every call to
// Events replays the same recording.
func Replay(r io.Reader) Source {
	load := sync.OnceValues(func() ([][]byte, error) {
		var lines [][]byte
		sc := bufio.NewScanner(r)
		sc.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
		for sc.Scan() {
			line := bytes.TrimSpace(sc.Bytes())
			if len(line) == 0 {
				continue
			}
			lines = append(lines, bytes.Clone(line))
		}
		if err := sc.Err(); err != nil {
			return nil, fmt.Errorf("read replay: %w", err)
		}
		return lines, nil
	})

	return SourceFunc(func(ctx context.Context, _ proto.Conversation) iter.Seq2[Event, error] {
		return func(yield func(Event, error) bool) {
			lines, err := load()
			if err != nil {
				yield(Event{}, err)
				return
			}
			for i, line := range lines {
				if err := ctx.Err(); err != nil {
					yield(Event{}, err)
					return
				}
				var ev Event
				if err := json.Unmarshal(line, &ev); err != nil {
					yield(Event{}, fmt.Errorf("replay line %d: %w", i+1, err))
					return
				}
				if !yield(ev, nil) {
					return
				}
			}
		}
	})
}
