package wire

import (
	"fmt"
	"iter"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/dotcommander/agentgw/internal/stream"
)

// Raw encodes events as raw text frames, one per fragment. A failure ends
// the stream with a single frame holding the error marker.
func Raw(events iter.Seq2[stream.Event, error]) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		for ev, err := range recovered(events) {
			if err != nil {
				yield(Frame{Kind: FrameRawText, Text: ErrorMarker(err)})
				return
			}
			for text := range stream.Fragments(ev) {
				if !yield(Frame{Kind: FrameRawText, Text: text}) {
					return
				}
			}
		}
	}
}

// OpenAI encodes events as chat.completion.chunk frames.
//
// The output always starts with an assistant role delta and always ends with
// a "stop" chunk followed by the [DONE] sentinel, whether the events finish
// normally or fail.
type OpenAI struct {
	ID    string
	Model string
	// Now stamps each chunk. Defaults to time.Now.
	Now func() time.Time
}

// Frames returns the encoded frames for events.
func (o OpenAI) Frames(events iter.Seq2[stream.Event, error]) iter.Seq[Frame] {
	return func(yield func(Frame) bool) {
		if !yield(o.delta(Delta{Role: "assistant", Content: ptr("")}, nil)) {
			return
		}

		for ev, err := range recovered(events) {
			if err != nil {
				if yield(o.delta(Delta{Content: ptr(ErrorMarker(err))}, ptr(FinishStop))) {
					yield(Frame{Kind: FrameDone})
				}
				return
			}
			for text := range stream.Fragments(ev) {
				if text == "" {
					continue
				}
				if !yield(o.delta(Delta{Content: ptr(text)}, nil)) {
					return
				}
			}
		}

		if yield(o.delta(Delta{}, ptr(FinishStop))) {
			yield(Frame{Kind: FrameDone})
		}
	}
}

// recovered turns a panic raised while producing events into a final error,
// so a broken source still ends in an error frame. Panics raised by the
// consumer while handling an event are not caught.
func recovered(events iter.Seq2[stream.Event, error]) iter.Seq2[stream.Event, error] {
	return func(yield func(stream.Event, error) bool) {
		consuming := false
		defer func() {
			if consuming {
				return
			}
			if p := recover(); p != nil {
				slog.Error("wire: event stream panicked", "panic", p, "stack", string(debug.Stack()))
				yield(stream.Event{}, fmt.Errorf("panic: %v", p))
			}
		}()
		for ev, err := range events {
			consuming = true
			if !yield(ev, err) {
				return
			}
			consuming = false
		}
	}
}

func (o OpenAI) delta(d Delta, finish *string) Frame {
	now := time.Now
	if o.Now != nil {
		now = o.Now
	}
	return Frame{
		Kind: FrameDelta,
		Chunk: &Chunk{
			ID:      o.ID,
			Object:  chunkObject,
			Created: now().Unix(),
			Model:   o.Model,
			Choices: []Choice{{Index: 0, Delta: d, FinishReason: finish}},
		},
	}
}

func ptr[T any](v T) *T { return &v }
