package tools

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	xstrings "github.com/charmbracelet/x/exp/strings"
)

// Built-in tool names.
const (
	CurrentTime = "get_current_time"
	Filesystem  = "get_filesystem"
)

// DefaultBuiltins lists the built-in tools enabled when nothing is
// configured.
var DefaultBuiltins = []string{CurrentTime, Filesystem}

const timeLayout = "Monday, January 02, 2006 at 03:04 PM"

type clockInput struct{}

type filesystemInput struct {
	Path string `json:"path" jsonschema:"description=The filesystem path to list"`
}

// Builtins returns the named built-in tools. now is used by the clock tool and
// defaults to time.Now.
func Builtins(names []string, now func() time.Time) ([]Tool, error) {
	if now == nil {
		now = time.Now
	}
	all := map[string]Tool{
		CurrentTime: New(CurrentTime,
			"Get the current date and time in a human-readable string.",
			func(context.Context, clockInput) (string, error) {
				return now().Format(timeLayout), nil
			}),
		Filesystem: New(Filesystem,
			"List the files and directories at the given filesystem path.",
			func(_ context.Context, in filesystemInput) (string, error) {
				return listDir(in.Path), nil
			}),
	}

	out := make([]Tool, 0, len(names))
	for _, name := range names {
		tool, ok := all[name]
		if !ok {
			return nil, fmt.Errorf("unknown built-in tool %q, valid names are %s", name, xstrings.EnglishJoin(DefaultBuiltins, true))
		}
		out = append(out, tool)
	}
	return out, nil
}

// listDir reports failures as the tool result so the model can react to
// them.
func listDir(path string) string {
	entries, err := os.ReadDir(path)
	if err != nil {
		return fmt.Sprintf("Error accessing path '%s': %v", path, err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, quote(e.Name()))
	}
	return "[" + strings.Join(names, ", ") + "]"
}

func quote(s string) string {
	if strings.Contains(s, "'") && !strings.Contains(s, `"`) {
		return `"` + strings.ReplaceAll(s, `\`, `\\`) + `"`
	}
	r := strings.NewReplacer(`\`, `\\`, `'`, `\'`)
	return "'" + r.Replace(s) + "'"
}
