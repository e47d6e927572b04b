package tui

import (
	"context"
	"errors"
	"io"
	"iter"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/stretchr/testify/require"
)

func answer(err error, texts ...string) iter.Seq2[string, error] {
	return func(yield func(string, error) bool) {
		for _, text := range texts {
			if !yield(text, nil) {
				return
			}
		}
		if err != nil {
			yield("", err)
		}
	}
}

func newTestAsk(t *testing.T, seq iter.Seq2[string, error]) (*Ask, context.Context) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	a := NewAsk(ctx, cancel, lipgloss.NewRenderer(io.Discard), "Asking", seq)
	a.now = func() time.Time { return time.Unix(100, 0) }
	a.Init()
	return a, ctx
}

// drain feeds received messages to the model until it quits.
func drain(t *testing.T, a *Ask) {
	t.Helper()
	for range 100 {
		_, cmd := a.Update(a.receive())
		if a.done {
			return
		}
		require.NotNil(t, cmd)
	}
	t.Fatal("model did not finish")
}

func TestAskCollectsOutput(t *testing.T) {
	a, _ := newTestAsk(t, answer(nil, "Hello", ", ", "world"))
	drain(t, a)
	require.Nil(t, a.Error)
	require.Equal(t, "Hello, world", a.Output)
	require.Empty(t, a.View())
}

func TestAskStreamError(t *testing.T) {
	a, _ := newTestAsk(t, answer(errors.New("gateway went away"), "partial"))
	drain(t, a)
	require.NotNil(t, a.Error)
	require.Equal(t, "gateway went away", a.Error.Reason)
	require.Empty(t, a.Output)
}

func TestAskCancel(t *testing.T) {
	a, ctx := newTestAsk(t, answer(nil, "never read"))
	_, cmd := a.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	_, ok := cmd().(tea.QuitMsg)
	require.True(t, ok)
	require.ErrorIs(t, a.Error, context.Canceled)
	require.ErrorIs(t, ctx.Err(), context.Canceled)
}

func TestAskPreview(t *testing.T) {
	a, _ := newTestAsk(t, answer(nil))
	a.Update(tea.WindowSizeMsg{Width: 40, Height: 10})
	for i := range 20 {
		a.Update(askChunkMsg{content: string(rune('a'+i)) + "\n"})
	}
	a.Update(askRenderMsg{})

	view := a.View()
	require.Contains(t, view, "i\nj")
	require.NotContains(t, view, "h\n")
	require.Contains(t, view, "Asking [00:00]")
}

func TestFormatElapsedClock(t *testing.T) {
	require.Equal(t, "00:05", formatElapsedClock(5*time.Second))
	require.Equal(t, "02:03", formatElapsedClock(2*time.Minute+3*time.Second))
	require.Equal(t, "01:00:00", formatElapsedClock(time.Hour))
}
