package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/dotcommander/agentgw/internal/present"
	"github.com/dotcommander/agentgw/internal/tools"
	"github.com/spf13/cobra"
)

func newToolsCmd(rt *runtime) *cobra.Command {
	return &cobra.Command{
		Use:   "tools",
		Short: "List the tools the agent can call",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			reg, err := rt.registry(cmd.Context())
			if err != nil {
				return err
			}
			printTools(cmd, reg)
			return nil
		},
	}
}

func printTools(cmd *cobra.Command, reg *tools.Registry) {
	out := cmd.OutOrStdout()
	s := present.StdoutStyles()
	for _, tool := range reg.All() {
		origin := "builtin"
		if !slices.Contains(tools.DefaultBuiltins, tool.Name) {
			origin, _, _ = strings.Cut(tool.Name, "_")
		}
		fmt.Fprintf(out, "%s %s\n", s.Timeago.Render(origin+" >"), s.Route.Render(tool.Name))
		if desc := firstLine(tool.Description); desc != "" {
			fmt.Fprintf(out, "  %s\n", s.Comment.Render(desc))
		}
	}
}

func firstLine(s string) string {
	line, _, _ := strings.Cut(strings.TrimSpace(s), "\n")
	return line
}
