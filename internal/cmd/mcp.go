package cmd

import (
	"context"
	"fmt"
	"io"
	"maps"
	"slices"
	"strings"

	"github.com/dotcommander/agentgw/internal/config"
	imcp "github.com/dotcommander/agentgw/internal/mcp"
	"github.com/dotcommander/agentgw/internal/present"
	mmcp "github.com/mark3labs/mcp-go/mcp"
	"github.com/spf13/cobra"
)

func newMCPCmd(rt *runtime) *cobra.Command {
	mcpCmd := &cobra.Command{
		Use:   "mcp",
		Short: "MCP server integration",
	}

	mcpCmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List configured MCP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			mcpList(cmd.OutOrStdout(), &rt.cfg)
			return nil
		},
	})

	mcpCmd.AddCommand(&cobra.Command{
		Use:   "tools",
		Short: "List tools from enabled MCP servers",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if rt.cfgErr != nil {
				return rt.cfgErr
			}
			return mcpListTools(cmd.Context(), cmd.OutOrStdout(), &rt.cfg)
		},
	})

	return mcpCmd
}

func mcpList(w io.Writer, cfg *config.Config) {
	svc := imcp.New(cfg)
	for _, name := range slices.Sorted(maps.Keys(cfg.MCPServers)) {
		s := name
		if svc.IsEnabled(name) {
			s += present.StdoutStyles().Timeago.Render(" (enabled)")
		}
		fmt.Fprintln(w, s)
	}
}

func mcpListTools(ctx context.Context, w io.Writer, cfg *config.Config) error {
	servers, err := imcp.New(cfg).Tools(ctx)
	if err != nil {
		return fmt.Errorf("mcp list tools: %w", err)
	}

	for _, sname := range slices.Sorted(maps.Keys(servers)) {
		tools := servers[sname]
		slices.SortFunc(tools, func(a, b mmcp.Tool) int { return strings.Compare(a.Name, b.Name) })
		for _, tool := range tools {
			_, _ = fmt.Fprint(w, present.StdoutStyles().Timeago.Render(sname+" > "))
			_, _ = fmt.Fprintln(w, tool.Name)
		}
	}
	return nil
}
