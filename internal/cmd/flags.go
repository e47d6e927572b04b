package cmd

import (
	"regexp"
	"strings"
	"time"

	"github.com/caarlos0/duration"
	"github.com/dotcommander/agentgw/internal/config"
	"github.com/dotcommander/agentgw/internal/present"
	"github.com/spf13/cobra"
)

var helpText = map[string]string{
	"host":             "Address to listen on",
	"port":             "Port to listen on",
	"api":              "API to use, as named in the settings file",
	"model":            "Model to serve",
	"system":           "System message: text, file:// path or http(s) URL",
	"max-steps":        "Maximum number of model calls per request",
	"http-proxy":       "HTTP proxy to use for API requests",
	"replay":           "Serve events from a newline-delimited JSON recording instead of a model",
	"log-level":        "Log level: debug, info, warn or error",
	"log-format":       "Log format: text or json",
	"shutdown-timeout": "Time to wait for in-flight requests on shutdown",
	"mcp-disable":      "Disable specific MCP servers (\"*\" disables all)",
	"mcp-timeout":      "Timeout for listing and calling MCP tools",
	"help":             "Show help and exit",
	"version":          "Show version and exit",
	"url":              "Gateway URL (defaults to the configured address)",
	"openai":           "Use the OpenAI-compatible endpoint instead of /chat",
	"raw":              "Print the answer as it streams, without formatting",
	"copy":             "Copy the answer to the clipboard",
	"editor":           "Write the prompt in $EDITOR",
	"word-wrap":        "Wrap formatted output at this width",
}

func flagDesc(name string) string {
	return present.StdoutStyles().FlagDesc.Render(helpText[name])
}

func initServeFlags(cmd *cobra.Command, cfg *config.Config) {
	flags := cmd.Flags()
	flags.StringVar(&cfg.Host, "host", cfg.Host, flagDesc("host"))
	flags.IntVarP(&cfg.Port, "port", "p", cfg.Port, flagDesc("port"))
	flags.StringVarP(&cfg.API, "api", "a", cfg.API, flagDesc("api"))
	flags.StringVarP(&cfg.Model, "model", "m", cfg.Model, flagDesc("model"))
	flags.StringVar(&cfg.System, "system", cfg.System, flagDesc("system"))
	flags.IntVar(&cfg.MaxSteps, "max-steps", cfg.MaxSteps, flagDesc("max-steps"))
	flags.StringVarP(&cfg.HTTPProxy, "http-proxy", "x", cfg.HTTPProxy, flagDesc("http-proxy"))
	flags.StringVar(&cfg.Replay, "replay", cfg.Replay, flagDesc("replay"))
	flags.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, flagDesc("log-level"))
	flags.StringVar(&cfg.LogFormat, "log-format", cfg.LogFormat, flagDesc("log-format"))
	flags.Var(newDurationFlag(cfg.ShutdownTimeout, &cfg.ShutdownTimeout), "shutdown-timeout", flagDesc("shutdown-timeout"))
	flags.StringArrayVar(&cfg.MCPDisable, "mcp-disable", cfg.MCPDisable, flagDesc("mcp-disable"))
	flags.Var(newDurationFlag(cfg.MCPTimeout, &cfg.MCPTimeout), "mcp-timeout", flagDesc("mcp-timeout"))
	flags.SortFlags = false

	_ = cmd.RegisterFlagCompletionFunc("api", func(_ *cobra.Command, _ []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		var names []string
		for _, api := range cfg.APIs {
			if strings.HasPrefix(api.Name, toComplete) {
				names = append(names, api.Name)
			}
		}
		return names, cobra.ShellCompDirectiveNoFileComp
	})
	_ = cmd.MarkFlagFilename("replay", "jsonl", "ndjson")
}

// durationFlag accepts the units of time.ParseDuration plus days and weeks.
type durationFlag time.Duration

func newDurationFlag(val time.Duration, p *time.Duration) *durationFlag {
	*p = val
	return (*durationFlag)(p)
}

func (d *durationFlag) Set(s string) error {
	v, err := duration.Parse(s)
	*d = durationFlag(v)
	//nolint: wrapcheck
	return err
}

func (d *durationFlag) String() string {
	return time.Duration(*d).String()
}

func (*durationFlag) Type() string {
	return "duration"
}

var invalidArgRE = regexp.MustCompile(`invalid argument ".*" for "(.*)" flag: .*`)

type flagParseError struct {
	err    error
	reason string
	flag   string
}

func newFlagParseError(err error) flagParseError {
	var reason, flag string
	s := err.Error()
	switch {
	case strings.HasPrefix(s, "flag needs an argument:"):
		reason = "Flag %s needs an argument."
		fields := strings.Fields(s)
		flag = fields[len(fields)-1]
	case strings.HasPrefix(s, "unknown flag:"):
		reason = "Flag %s is missing."
		flag = strings.TrimPrefix(s, "unknown flag: ")
	case strings.HasPrefix(s, "unknown shorthand flag:"):
		reason = "Short flag %s is missing."
		fields := strings.Fields(s)
		flag = fields[len(fields)-1]
	case strings.HasPrefix(s, "invalid argument"):
		reason = "Flag %s have an invalid argument."
		if parts := invalidArgRE.FindStringSubmatch(s); len(parts) > 1 {
			flag = parts[1]
		}
	default:
		reason = s
	}
	return flagParseError{
		err:    err,
		reason: reason,
		flag:   flag,
	}
}

func (f flagParseError) Error() string {
	return f.err.Error()
}

func (f flagParseError) ReasonFormat() string {
	return f.reason
}

func (f flagParseError) Flag() string {
	return f.flag
}
