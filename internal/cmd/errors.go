package cmd

import (
	"errors"
	"fmt"
	"io"

	"github.com/charmbracelet/huh"
	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/present"
)

func handleError(w io.Writer, err error) {
	format := "\n%s\n\n"

	var ferr flagParseError
	if errors.As(err, &ferr) {
		args := []any{
			fmt.Sprintf(
				"Check out %s %s",
				present.StderrStyles().InlineCode.Render("agentgw -h"),
				present.StderrStyles().Comment.Render("for help."),
			),
			fmt.Sprintf(
				ferr.ReasonFormat(),
				present.StderrStyles().InlineCode.Render(ferr.Flag()),
			),
		}
		fmt.Fprintf(w, format+"%s\n\n", args...)
		return
	}

	var merr errs.Error
	if errors.As(err, &merr) {
		formatArgs := []any{present.StderrStyles().ErrPadding.Render(present.StderrStyles().ErrorHeader.String(), merr.Reason)}
		if merr.Err != huh.ErrUserAborted {
			format += "%s\n\n"
			formatArgs = append(formatArgs, present.StderrStyles().ErrPadding.Render(present.StderrStyles().ErrorDetails.Render(err.Error())))
		}
		fmt.Fprintf(w, format, formatArgs...)
		return
	}

	fmt.Fprintf(w, format, present.StderrStyles().ErrPadding.Render(present.StderrStyles().ErrorDetails.Render(err.Error())))
}
