package wire

import (
	"fmt"
	"io"
	"iter"
	"net/http"

	"github.com/openai/openai-go/v2/packages/ssestream"
)

// ReadChunks parses an OpenAI chat completion SSE body. Iteration stops at
// the [DONE] sentinel or at the end of r. Comments and events without data
// are skipped. The caller closes r.
func ReadChunks(r io.Reader) iter.Seq2[Chunk, error] {
	return func(yield func(Chunk, error) bool) {
		resp := &http.Response{Header: http.Header{}, Body: io.NopCloser(r)}
		chunks := ssestream.NewStream[Chunk](ssestream.NewDecoder(resp), nil)
		for chunks.Next() {
			if !yield(chunks.Current(), nil) {
				return
			}
		}
		if err := chunks.Err(); err != nil {
			yield(Chunk{}, fmt.Errorf("read chunks: %w", err))
		}
	}
}

// Text returns the delta content of the first choice, if any.
func (c Chunk) Text() string {
	if len(c.Choices) == 0 || c.Choices[0].Delta.Content == nil {
		return ""
	}
	return *c.Choices[0].Delta.Content
}

// Finished reports whether the first choice carries a finish reason.
func (c Chunk) Finished() bool {
	return len(c.Choices) > 0 && c.Choices[0].FinishReason != nil
}
