package cmd

import (
	"fmt"

	mcobra "github.com/muesli/mango-cobra"
	"github.com/muesli/roff"
	"github.com/spf13/cobra"
)

func newManCmd(root *cobra.Command) *cobra.Command {
	return &cobra.Command{
		Use:                   "man",
		Short:                 "Generates manpages",
		SilenceUsage:          true,
		DisableFlagsInUseLine: true,
		Hidden:                true,
		Args:                  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			manPage, err := mcobra.NewManPage(1, root)
			if err != nil {
				return fmt.Errorf("build man page: %w", err)
			}
			manPage = manPage.WithSection("Endpoints", endpointsSection)
			_, err = fmt.Fprint(cmd.OutOrStdout(), manPage.Build(roff.NewDocument()))
			if err != nil {
				return fmt.Errorf("write man page: %w", err)
			}
			return nil
		},
	}
}

const endpointsSection = `GET / reports that the gateway is running.
POST /chat streams the answer to {"message": "..."} as plain text.
POST /v1/chat/completions streams OpenAI chat completion chunks as server-sent events.
GET /v1/models lists the served model.`
