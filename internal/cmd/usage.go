package cmd

import (
	"fmt"
	"strings"

	"github.com/dotcommander/agentgw/internal/present"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
	flag "github.com/spf13/pflag"
)

func useLine(cmd *cobra.Command) string {
	appName := cmd.Root().Name()
	if present.StdoutRenderer().ColorProfile() == termenv.TrueColor {
		appName = present.GradientText(present.StdoutStyles().AppName, appName)
	}
	if cmd.HasParent() {
		appName += " " + strings.TrimSpace(strings.TrimPrefix(cmd.CommandPath(), cmd.Root().Name()))
	}

	args := "[OPTIONS]"
	if _, rest, ok := strings.Cut(cmd.Use, " "); ok {
		args += " " + rest
	}
	if cmd.HasAvailableSubCommands() {
		args = "[COMMAND] " + args
	}

	return fmt.Sprintf(
		"%s %s",
		appName,
		present.StdoutStyles().CliArgs.Render(args),
	)
}

func usageFunc(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(
		out,
		"Usage:\n  %s\n\n",
		useLine(cmd),
	)

	if cmd.HasAvailableSubCommands() {
		fmt.Fprintln(out, "Commands:")
		for _, sub := range cmd.Commands() {
			if !sub.IsAvailableCommand() {
				continue
			}
			fmt.Fprintf(
				out,
				"  %-24s %s\n",
				present.StdoutStyles().Flag.Render(sub.Name()),
				present.StdoutStyles().FlagDesc.Render(sub.Short),
			)
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintln(out, "Options:")
	cmd.Flags().VisitAll(func(f *flag.Flag) {
		if f.Hidden {
			return
		}
		if f.Shorthand == "" {
			fmt.Fprintf(
				out,
				"  %-44s %s\n",
				present.StdoutStyles().Flag.Render("--"+f.Name),
				present.StdoutStyles().FlagDesc.Render(f.Usage),
			)
		} else {
			fmt.Fprintf(
				out,
				"  %s%s %-40s %s\n",
				present.StdoutStyles().Flag.Render("-"+f.Shorthand),
				present.StdoutStyles().FlagComma,
				present.StdoutStyles().Flag.Render("--"+f.Name),
				present.StdoutStyles().FlagDesc.Render(f.Usage),
			)
		}
	})
	if cmd.HasExample() {
		if code, ok := examples[cmd.Example]; ok {
			fmt.Fprintf(
				out,
				"\nExample:\n  %s\n  %s\n",
				present.StdoutStyles().Comment.Render("# "+cmd.Example),
				cheapHighlighting(present.StdoutStyles(), code),
			)
		}
	}

	return nil
}
