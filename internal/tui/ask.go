// Package tui holds the terminal view shown while `agentgw ask` streams an
// answer.
package tui

import (
	"context"
	"fmt"
	"iter"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/present"
)

const maxPreviewLines = 12

// Ask is a Bubble Tea model that consumes one streamed answer, showing a
// spinner while waiting and a live preview of the latest lines.
type Ask struct {
	// Output is the full answer once the stream ends.
	Output string
	// Error is set when the stream failed or the user canceled.
	Error *errs.Error

	cancel  context.CancelFunc
	chunks  <-chan askChunkMsg
	status  string
	styles  present.Styles
	spinner spinner.Model
	now     func() time.Time

	started         time.Time
	buf             strings.Builder
	preview         string
	width           int
	dirty           bool
	renderScheduled bool
	done            bool
}

type askChunkMsg struct {
	content string
	err     error
}

type askDoneMsg struct{}

type askRenderMsg struct{}

// NewAsk starts consuming answer in the background. answer must stop when
// ctx is done; cancel cancels ctx.
func NewAsk(ctx context.Context, cancel context.CancelFunc, r *lipgloss.Renderer, status string, answer iter.Seq2[string, error]) *Ask {
	ch := make(chan askChunkMsg)
	go func() {
		defer close(ch)
		for text, err := range answer {
			select {
			case ch <- askChunkMsg{content: text, err: err}:
			case <-ctx.Done():
				return
			}
			if err != nil {
				return
			}
		}
	}()

	styles := present.MakeStyles(r)
	return &Ask{
		cancel: cancel,
		chunks: ch,
		status: status,
		styles: styles,
		spinner: spinner.New(
			spinner.WithSpinner(spinner.Dot),
			spinner.WithStyle(styles.Pipe),
		),
		now: time.Now,
	}
}

// Init implements tea.Model.
func (a *Ask) Init() tea.Cmd {
	a.started = a.now()
	return tea.Batch(a.spinner.Tick, a.receive)
}

func (a *Ask) receive() tea.Msg {
	msg, ok := <-a.chunks
	if !ok {
		return askDoneMsg{}
	}
	return msg
}

// Update implements tea.Model.
func (a *Ask) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.dirty = true
		return a, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			a.cancel()
			a.Error = &errs.Error{Err: context.Canceled, Reason: "User canceled."}
			a.done = true
			return a, tea.Quit
		}

	case askChunkMsg:
		if msg.err != nil {
			a.Error = &errs.Error{Err: msg.err, Reason: errs.Reason(msg.err)}
			a.done = true
			return a, tea.Quit
		}
		a.buf.WriteString(msg.content)
		a.dirty = true
		cmds := []tea.Cmd{a.receive}
		if !a.renderScheduled {
			a.renderScheduled = true
			cmds = append(cmds, renderTickCmd())
		}
		return a, tea.Batch(cmds...)

	case askDoneMsg:
		a.Output = a.buf.String()
		a.done = true
		return a, tea.Quit

	case askRenderMsg:
		a.renderScheduled = false
		if a.dirty {
			a.renderPreview()
		}
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd
	}
	return a, nil
}

// View implements tea.Model.
func (a *Ask) View() string {
	if a.done {
		return ""
	}
	status := a.spinner.View() + " " + a.waitingStatus(a.now())
	if a.preview == "" {
		return status
	}
	return a.preview + "\n" + status
}

func (a *Ask) waitingStatus(now time.Time) string {
	elapsed := max(now.Sub(a.started), 0)
	return a.styles.Comment.Render(a.status + " [" + formatElapsedClock(elapsed) + "]")
}

func (a *Ask) renderPreview() {
	lines := strings.Split(strings.TrimRight(a.buf.String(), "\n"), "\n")
	if len(lines) > maxPreviewLines {
		lines = lines[len(lines)-maxPreviewLines:]
	}
	style := a.styles.Comment
	if a.width > 0 {
		style = style.MaxWidth(a.width)
	}
	a.preview = style.Render(strings.Join(lines, "\n"))
	a.dirty = false
}

func renderTickCmd() tea.Cmd {
	const renderInterval = 33 * time.Millisecond
	return tea.Tick(renderInterval, func(time.Time) tea.Msg {
		return askRenderMsg{}
	})
}

func formatElapsedClock(d time.Duration) string {
	totalSeconds := int(d / time.Second)
	hours := totalSeconds / 3600
	minutes := (totalSeconds % 3600) / 60
	seconds := totalSeconds % 60

	if hours > 0 {
		return fmt.Sprintf("%02d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
