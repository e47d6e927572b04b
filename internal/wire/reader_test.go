package wire

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestReadChunks(t *testing.T) {
	t.Run("round trips encoder output", func(t *testing.T) {
		body := render(t, fixedEncoder().Frames(events(errBoom, tokens("Hel", "lo")...)))

		var text strings.Builder
		var finished int
		for chunk, err := range ReadChunks(strings.NewReader(body)) {
			require.NoError(t, err)
			text.WriteString(chunk.Text())
			if chunk.Finished() {
				finished++
			}
		}
		require.Equal(t, "Hello\n[Error: model went away]\n", text.String())
		require.Equal(t, 1, finished)
	})

	t.Run("nothing after done", func(t *testing.T) {
		body := "data: {\"id\":\"x\",\"choices\":[{\"index\":0,\"delta\":{\"content\":\"a\"},\"finish_reason\":null}]}\n\ndata: [DONE]\n\ndata: {\"id\":\"late\"}\n\n"
		var ids []string
		for chunk, err := range ReadChunks(strings.NewReader(body)) {
			require.NoError(t, err)
			ids = append(ids, chunk.ID)
		}
		require.Equal(t, []string{"x"}, ids)
	})

	t.Run("consumer stops early", func(t *testing.T) {
		body := "data: {\"id\":\"a\"}\n\ndata: {\"id\":\"b\"}\n\n"
		var ids []string
		for chunk := range ReadChunks(strings.NewReader(body)) {
			ids = append(ids, chunk.ID)
			break
		}
		require.Equal(t, []string{"a"}, ids)
	})

	t.Run("bad json", func(t *testing.T) {
		var errs int
		for _, err := range ReadChunks(strings.NewReader("data: {nope\n\n")) {
			require.ErrorContains(t, err, "read chunks")
			errs++
		}
		require.Equal(t, 1, errs)
	})
}
