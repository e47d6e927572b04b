package cmd

import (
	"os"
	"os/signal"
	"syscall"

	glamour "github.com/charmbracelet/glamour/styles"
	"github.com/dotcommander/agentgw/internal/config"
	"github.com/spf13/cobra"
)

type runtime struct {
	build  BuildInfo
	cfg    config.Config
	cfgErr error
}

// NewRootCmd constructs the Cobra root command. Running it without a
// subcommand serves the gateway.
func NewRootCmd(build BuildInfo, cfg config.Config, cfgErr error) *cobra.Command {
	// XXX: unset error styles in Glamour dark and light styles.
	glamour.DarkStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)
	glamour.LightStyleConfig.CodeBlock.Chroma.Error.BackgroundColor = new(string)

	rt := &runtime{build: normalizeBuildInfo(build), cfg: cfg, cfgErr: cfgErr}

	rootCmd := &cobra.Command{
		Use:           "agentgw",
		Short:         "Serve a tool-using agent over plain text and OpenAI-compatible streams.",
		SilenceUsage:  true,
		SilenceErrors: true,
		Example:       randomExample(),
		Args:          cobra.NoArgs,
		RunE:          rt.serveCmd,
	}

	rootCmd.SetUsageFunc(usageFunc)
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return newFlagParseError(err)
	})

	rootCmd.CompletionOptions.HiddenDefaultCmd = true
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})

	rootCmd.Version = rt.build.Version
	rootCmd.SetVersionTemplate(versionTemplate(rt.build))

	initServeFlags(rootCmd, &rt.cfg)
	flags := rootCmd.Flags()
	flags.BoolP("help", "h", false, flagDesc("help"))
	flags.BoolP("version", "v", false, flagDesc("version"))

	serveCmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the gateway (default command)",
		Args:  cobra.NoArgs,
		RunE:  rt.serveCmd,
	}
	initServeFlags(serveCmd, &rt.cfg)

	// Commands.
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(newAskCmd(rt))
	rootCmd.AddCommand(newToolsCmd(rt))
	rootCmd.AddCommand(newConfigCmd(rt))
	rootCmd.AddCommand(newMCPCmd(rt))
	rootCmd.AddCommand(newManCmd(rootCmd))

	// Enable completion now that we have subcommands.
	rootCmd.InitDefaultCompletionCmd()

	return rootCmd
}

func (rt *runtime) serveCmd(cmd *cobra.Command, _ []string) error {
	if rt.cfgErr != nil {
		return rt.cfgErr
	}
	if err := rt.cfg.Validate(); err != nil {
		return err
	}
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return rt.serve(ctx)
}
