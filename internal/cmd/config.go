package cmd

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/x/editor"
	"github.com/dotcommander/agentgw/internal/config"
	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/present"
	"github.com/spf13/cobra"
)

func newConfigCmd(rt *runtime) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage settings",
		RunE: func(_ *cobra.Command, _ []string) error {
			// Allow opening settings even when config parsing failed.
			return editSettings(&rt.cfg)
		},
	}

	configCmd.AddCommand(&cobra.Command{
		Use:   "edit",
		Short: "Open settings in $EDITOR",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return editSettings(&rt.cfg)
		},
	})

	var yes bool
	resetCmd := &cobra.Command{
		Use:   "reset",
		Short: "Reset settings to defaults",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes && present.IsInputTTY() {
				if err := confirmReset(); err != nil {
					return err
				}
			}
			// Allow reset even when config parsing failed.
			return resetSettings(cmd.ErrOrStderr(), &rt.cfg)
		},
	}
	resetCmd.Flags().BoolVarP(&yes, "yes", "y", false, present.StdoutStyles().FlagDesc.Render("Do not ask for confirmation"))
	configCmd.AddCommand(resetCmd)

	configCmd.AddCommand(&cobra.Command{
		Use:       "dirs",
		Short:     "Print the configuration directory",
		Args:      cobra.MaximumNArgs(1),
		ValidArgs: []string{"config"},
		RunE: func(cmd *cobra.Command, args []string) error {
			printDirs(cmd.OutOrStdout(), &rt.cfg, args)
			return nil
		},
	})

	return configCmd
}

func editSettings(cfg *config.Config) error {
	if err := config.WriteConfigFile(cfg.SettingsPath); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	appName := filepath.Base(os.Args[0])
	c, err := editor.Cmd(appName, cfg.SettingsPath)
	if err != nil {
		return errs.Error{Err: err, Reason: "Could not edit your settings file."}
	}
	c.Stdin = os.Stdin
	c.Stdout = os.Stdout
	c.Stderr = os.Stderr
	if err := c.Run(); err != nil {
		return errs.Error{Err: err, Reason: fmt.Sprintf(
			"Missing %s.",
			present.StderrStyles().InlineCode.Render("$EDITOR"),
		)}
	}

	fmt.Fprintln(os.Stderr, "Wrote config file to:", cfg.SettingsPath)
	return nil
}

func confirmReset() error {
	ok := false
	err := huh.NewConfirm().
		Title("Reset settings to defaults?").
		Description("Your current settings are kept in a .bak file.").
		Affirmative("Reset").
		Negative("Cancel").
		Value(&ok).
		Run()
	if errors.Is(err, huh.ErrUserAborted) || (err == nil && !ok) {
		return errs.Error{Err: huh.ErrUserAborted, Reason: "User canceled."}
	}
	if err != nil {
		return errs.Error{Err: err, Reason: "Prompt failed."}
	}
	return nil
}

func resetSettings(w io.Writer, cfg *config.Config) error {
	_, err := os.Stat(cfg.SettingsPath)
	if err != nil {
		return errs.Error{Err: err, Reason: "Couldn't read config file."}
	}
	inputFile, err := os.Open(cfg.SettingsPath)
	if err != nil {
		return errs.Error{Err: err, Reason: "Couldn't open config file."}
	}
	defer inputFile.Close() //nolint:errcheck

	outputFile, err := os.Create(cfg.SettingsPath + ".bak")
	if err != nil {
		return errs.Error{Err: err, Reason: "Couldn't backup config file."}
	}
	defer outputFile.Close() //nolint:errcheck

	if _, err := io.Copy(outputFile, inputFile); err != nil {
		return errs.Error{Err: err, Reason: "Couldn't write config file."}
	}
	if err := os.Remove(cfg.SettingsPath); err != nil {
		return errs.Error{Err: err, Reason: "Couldn't remove config file."}
	}
	if err := config.WriteConfigFile(cfg.SettingsPath); err != nil {
		return errs.Error{Err: err, Reason: "Couldn't write new config file."}
	}

	fmt.Fprintln(w, "\nSettings restored to defaults!")
	fmt.Fprintf(
		w,
		"\n  %s %s\n\n",
		present.StderrStyles().Comment.Render("Your old settings have been saved to:"),
		present.StderrStyles().Link.Render(cfg.SettingsPath+".bak"),
	)
	return nil
}

func printDirs(w io.Writer, cfg *config.Config, args []string) {
	if len(args) > 0 && args[0] == "config" {
		fmt.Fprintln(w, filepath.Dir(cfg.SettingsPath))
		return
	}
	fmt.Fprintf(w, "Configuration: %s\n", filepath.Dir(cfg.SettingsPath))
}
