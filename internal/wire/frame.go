// Package wire encodes generation events into the two streaming response
// formats served by the gateway: a raw text stream and OpenAI chat
// completion chunks over server-sent events.
package wire

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
)

// FrameKind identifies a Frame variant.
type FrameKind int

// Frame variants.
const (
	FrameRawText FrameKind = iota
	FrameDelta
	FrameDone
)

func (k FrameKind) String() string {
	switch k {
	case FrameRawText:
		return "raw-text"
	case FrameDelta:
		return "sse-delta"
	case FrameDone:
		return "done"
	default:
		return fmt.Sprintf("FrameKind(%d)", int(k))
	}
}

const (
	sseDataPrefix = "data: "
	sseDone       = "[DONE]"
	chunkObject   = "chat.completion.chunk"
)

// FinishStop is the only finish reason this gateway reports.
const FinishStop = "stop"

// Frame is one unit written to the response body.
type Frame struct {
	Kind  FrameKind
	Text  string
	Chunk *Chunk
}

// Chunk is an OpenAI chat.completion.chunk object.
type Chunk struct {
	ID      string   `json:"id"`
	Object  string   `json:"object"`
	Created int64    `json:"created"`
	Model   string   `json:"model"`
	Choices []Choice `json:"choices"`
}

// Choice is a single streamed choice. FinishReason is always serialized.
type Choice struct {
	Index        int     `json:"index"`
	Delta        Delta   `json:"delta"`
	FinishReason *string `json:"finish_reason"`
}

// Delta is the incremental message update of a Choice.
type Delta struct {
	Role    string  `json:"role,omitempty"`
	Content *string `json:"content,omitempty"`
}

// Bytes renders the frame as it appears on the wire.
func (f Frame) Bytes() ([]byte, error) {
	switch f.Kind {
	case FrameRawText:
		return []byte(f.Text), nil
	case FrameDone:
		return []byte(sseDataPrefix + sseDone + "\n\n"), nil
	case FrameDelta:
		if f.Chunk == nil {
			return nil, fmt.Errorf("%s frame without chunk", f.Kind)
		}
		var buf bytes.Buffer
		buf.WriteString(sseDataPrefix)
		enc := json.NewEncoder(&buf)
		enc.SetEscapeHTML(false)
		if err := enc.Encode(f.Chunk); err != nil {
			return nil, fmt.Errorf("encode chunk: %w", err)
		}
		// Encode terminates with a single newline.
		buf.WriteByte('\n')
		return buf.Bytes(), nil
	default:
		return nil, fmt.Errorf("unknown frame kind %d", int(f.Kind))
	}
}

// WriteTo implements io.WriterTo.
func (f Frame) WriteTo(w io.Writer) (int64, error) {
	bts, err := f.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(bts)
	return int64(n), err //nolint:wrapcheck
}

// ErrorMarker is the human readable text emitted in place of the remaining
// output when generation fails.
func ErrorMarker(err error) string {
	return "\n[Error: " + err.Error() + "]\n"
}

// NewResponseID returns a fresh chat completion identifier.
func NewResponseID() string {
	return "chatcmpl-" + strings.ReplaceAll(uuid.NewString(), "-", "")
}
