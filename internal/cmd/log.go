package cmd

import (
	"io"
	"log/slog"
	"strings"

	"github.com/dotcommander/agentgw/internal/errs"
)

// newLogger builds the process logger writing to w. format is text or json.
func newLogger(w io.Writer, level, format string) (*slog.Logger, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(level)); err != nil {
		return nil, errs.Wrapf(err, "Invalid log level %q.", level)
	}
	opts := &slog.HandlerOptions{Level: lvl}

	switch strings.ToLower(format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, errs.Wrap(errs.UserErrorf("unknown log format %q", format), "Invalid log format.")
	}
}
