package stream

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/dotcommander/agentgw/internal/proto"
)

// Kind identifies a generation event.
type Kind string

// Event kinds.
const (
	KindModelToken Kind = "model-token"
	KindToolCall   Kind = "tool-call"
	KindToolResult Kind = "tool-result"
	KindStepFinish Kind = "step-finish"
)

// Event is one unit of progress from a Source.
type Event struct {
	Kind    Kind            `json:"kind"`
	Content Content         `json:"content,omitempty"`
	Tool    *proto.ToolCall `json:"tool,omitempty"`
	Result  string          `json:"result,omitempty"`
	Step    int             `json:"step,omitempty"`
}

// Token returns a model-token event carrying a single plain text part.
func Token(text string) Event {
	return Event{Kind: KindModelToken, Content: Content{Plain(text)}}
}

// PartKind classifies a content part.
type PartKind int

// Part kinds.
const (
	PartUnrecognized PartKind = iota
	PartPlain
	PartTyped
)

// Part is one element of a model-token payload.
type Part struct {
	Kind PartKind
	Type string
	Text string
}

// Plain returns a plain string part.
func Plain(text string) Part {
	return Part{Kind: PartPlain, Text: text}
}

// Typed returns a structured part with the given type tag.
func Typed(typ, text string) Part {
	return Part{Kind: PartTyped, Type: typ, Text: text}
}

// UnmarshalJSON classifies a raw part: a JSON string is plain, an object with
// a string "type" is typed, anything else is unrecognized.
func (p *Part) UnmarshalJSON(b []byte) error {
	*p = Part{}
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		return nil
	}
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*p = Plain(text)
		return nil
	}
	var obj struct {
		Type *string `json:"type"`
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(b, &obj); err != nil || obj.Type == nil {
		return nil
	}
	p.Kind = PartTyped
	p.Type = *obj.Type
	if obj.Text != nil {
		p.Text = *obj.Text
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (p Part) MarshalJSON() ([]byte, error) {
	switch p.Kind {
	case PartPlain:
		return json.Marshal(p.Text)
	case PartTyped:
		return json.Marshal(map[string]string{"type": p.Type, "text": p.Text})
	default:
		return []byte("null"), nil
	}
}

// Content is the payload of a model-token event. A nil Content carries no
// iterable parts.
type Content []Part

// UnmarshalJSON accepts either a single string or a list of parts.
func (c *Content) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*c = nil
		return nil
	}
	var text string
	if err := json.Unmarshal(b, &text); err == nil {
		*c = Content{Plain(text)}
		return nil
	}
	var parts []Part
	if err := json.Unmarshal(b, &parts); err != nil {
		return fmt.Errorf("content must be a string or a list of parts: %w", err)
	}
	*c = parts
	return nil
}
