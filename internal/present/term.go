package present

import (
	"os"
	"sync"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
)

// output is one standard stream with its lazily detected TTY state,
// renderer and styles.
type output struct {
	isTTY    func() bool
	renderer func() *lipgloss.Renderer
	styles   func() Styles
}

func newOutput(f *os.File, renderer func() *lipgloss.Renderer) output {
	r := sync.OnceValue(renderer)
	return output{
		isTTY:    isTTY(f),
		renderer: r,
		styles:   sync.OnceValue(func() Styles { return MakeStyles(r()) }),
	}
}

func isTTY(f *os.File) func() bool {
	return sync.OnceValue(func() bool { return isatty.IsTerminal(f.Fd()) })
}

var (
	isInputTTY = isTTY(os.Stdin)

	// stdout shares lipgloss' default renderer so package-level lipgloss
	// and glamour output agree on the color profile.
	stdout = newOutput(os.Stdout, lipgloss.DefaultRenderer)
	stderr = newOutput(os.Stderr, func() *lipgloss.Renderer {
		return lipgloss.NewRenderer(os.Stderr, termenv.WithColorCache(true))
	})
)

// IsInputTTY reports whether stdin is a terminal. Prompts are read from
// STDIN only when it is not.
func IsInputTTY() bool { return isInputTTY() }

// IsOutputTTY reports whether stdout is a terminal.
func IsOutputTTY() bool { return stdout.isTTY() }

// IsErrorTTY reports whether stderr is a terminal.
func IsErrorTTY() bool { return stderr.isTTY() }

func StdoutRenderer() *lipgloss.Renderer { return stdout.renderer() }
func StdoutStyles() Styles               { return stdout.styles() }
func StderrRenderer() *lipgloss.Renderer { return stderr.renderer() }
func StderrStyles() Styles               { return stderr.styles() }
