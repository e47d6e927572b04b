package cmd

import (
	"context"
	"fmt"
	"io"
	"iter"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/x/editor"
	"github.com/dotcommander/agentgw/internal/client"
	"github.com/dotcommander/agentgw/internal/config"
	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/present"
	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/tui"
	"github.com/spf13/cobra"
)

const defaultWordWrap = 80

type askOptions struct {
	URL        string
	OpenAI     bool
	Model      string
	System     string
	Raw        bool
	Copy       bool
	OpenEditor bool
	WordWrap   int
}

func newAskCmd(rt *runtime) *cobra.Command {
	var opts askOptions
	cmd := &cobra.Command{
		Use:   "ask [prompt]",
		Short: "Ask a running gateway and print the answer",
		Long:  "Send a prompt to a running gateway and print the streamed answer. Input piped on STDIN is appended to the prompt.",
		Args:  cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.URL == "" {
				if rt.cfgErr != nil {
					return rt.cfgErr
				}
				opts.URL = gatewayURL(rt.cfg)
			}

			prompt, err := readPrompt(args, opts.OpenEditor)
			if err != nil {
				return err
			}
			if strings.TrimSpace(prompt) == "" {
				return errs.Error{
					Reason: "You haven't provided any prompt input.",
					Err: errs.UserErrorf(
						"You can give your prompt as arguments and/or pipe it from STDIN.\nExample: %s",
						present.StdoutStyles().InlineCode.Render("agentgw ask [prompt]"),
					),
				}
			}
			return ask(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), client.New(opts.URL), prompt, opts)
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&opts.URL, "url", "u", "", flagDesc("url"))
	flags.BoolVarP(&opts.OpenAI, "openai", "o", false, flagDesc("openai"))
	flags.StringVarP(&opts.Model, "model", "m", "", flagDesc("model"))
	flags.StringVar(&opts.System, "system", "", flagDesc("system"))
	flags.BoolVarP(&opts.Raw, "raw", "r", false, flagDesc("raw"))
	flags.BoolVarP(&opts.Copy, "copy", "c", false, flagDesc("copy"))
	flags.BoolVarP(&opts.OpenEditor, "editor", "e", false, flagDesc("editor"))
	flags.IntVar(&opts.WordWrap, "word-wrap", defaultWordWrap, flagDesc("word-wrap"))
	flags.SortFlags = false
	return cmd
}

// gatewayURL returns the URL of the gateway described by cfg, replacing
// wildcard listen addresses with loopback.
func gatewayURL(cfg config.Config) string {
	host := cfg.Host
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return "http://" + net.JoinHostPort(host, strconv.Itoa(cfg.Port))
}

func readPrompt(args []string, openEditor bool) (string, error) {
	prompt := removeWhitespace(strings.Join(args, " "))
	if !present.IsInputTTY() {
		stdin, err := io.ReadAll(os.Stdin)
		if err != nil {
			return "", errs.Error{Err: err, Reason: "Unable to read stdin."}
		}
		prompt = joinPrompt(prompt, string(stdin))
	} else if prompt == "" && openEditor {
		return prefixFromEditor()
	}
	return prompt, nil
}

func joinPrompt(prefix, content string) string {
	content = strings.TrimSpace(content)
	switch {
	case prefix == "":
		return content
	case content == "":
		return prefix
	default:
		return prefix + "\n\n" + content
	}
}

func ask(ctx context.Context, stdout, stderr io.Writer, c *client.Client, prompt string, opts askOptions) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	answer, err := askAnswer(ctx, c, prompt, opts)
	if err != nil {
		return err
	}

	var out string
	if !opts.Raw && present.IsOutputTTY() && present.IsErrorTTY() {
		out, err = askInteractive(ctx, cancel, c, answer)
		if err != nil {
			return err
		}
		rendered, err := present.RenderMarkdownForTTY(out, opts.WordWrap)
		if err != nil {
			rendered = out
		}
		fmt.Fprint(stdout, rendered)
	} else {
		out, err = streamAnswer(stdout, answer)
		if err != nil {
			return err
		}
	}

	if opts.Copy {
		if err := clipboard.WriteAll(out); err != nil {
			return errs.Error{Err: err, Reason: "Could not copy the answer to the clipboard."}
		}
		present.PrintConfirmation(stderr, "COPIED", present.StderrStyles().Comment.Render(fmt.Sprintf("%d characters", len([]rune(out)))))
	}
	return nil
}

// askAnswer starts the request for the chosen endpoint. In OpenAI mode the
// first served model is used unless one was given.
func askAnswer(ctx context.Context, c *client.Client, prompt string, opts askOptions) (iter.Seq2[string, error], error) {
	if !opts.OpenAI {
		return c.Chat(ctx, prompt), nil
	}
	model := opts.Model
	if model == "" {
		models, err := c.Models(ctx)
		if err != nil {
			return nil, err
		}
		if len(models) == 0 {
			return nil, errs.Error{Err: errs.UserErrorf("the gateway lists no models"), Reason: "No model to ask."}
		}
		model = models[0]
	}
	var msgs []proto.Message
	if opts.System != "" {
		msgs = append(msgs, proto.Message{Role: proto.RoleSystem, Content: opts.System})
	}
	msgs = append(msgs, proto.Message{Role: proto.RoleUser, Content: prompt})
	return c.Complete(ctx, model, msgs), nil
}

func streamAnswer(w io.Writer, answer iter.Seq2[string, error]) (string, error) {
	var sb strings.Builder
	for text, err := range answer {
		if err != nil {
			return sb.String(), err
		}
		sb.WriteString(text)
		if _, err := io.WriteString(w, text); err != nil {
			return sb.String(), fmt.Errorf("write answer: %w", err)
		}
	}
	return sb.String(), nil
}

func askInteractive(ctx context.Context, cancel context.CancelFunc, c *client.Client, answer iter.Seq2[string, error]) (string, error) {
	opts := []tea.ProgramOption{tea.WithOutput(os.Stderr), tea.WithContext(ctx)}
	if !present.IsInputTTY() {
		opts = append(opts, tea.WithInput(nil))
	}

	model := tui.NewAsk(ctx, cancel, present.StderrRenderer(), "Asking "+c.BaseURL, answer)
	m, err := tea.NewProgram(model, opts...).Run()
	if err != nil {
		return "", errs.Error{Err: err, Reason: "Couldn't start Bubble Tea program."}
	}
	model = m.(*tui.Ask)
	if model.Error != nil {
		return "", *model.Error
	}
	return model.Output, nil
}

func prefixFromEditor() (string, error) {
	f, err := os.CreateTemp("", "prompt")
	if err != nil {
		return "", fmt.Errorf("could not create temporary file: %w", err)
	}
	_ = f.Close()
	defer func() { _ = os.Remove(f.Name()) }()

	c, err := editor.Cmd("agentgw", f.Name())
	if err != nil {
		return "", fmt.Errorf("could not open editor: %w", err)
	}
	c.Stdin = os.Stdin
	c.Stderr = os.Stderr
	c.Stdout = os.Stdout
	if err := c.Run(); err != nil {
		return "", fmt.Errorf("could not open editor: %w", err)
	}
	prompt, err := os.ReadFile(f.Name())
	if err != nil {
		return "", fmt.Errorf("could not read file: %w", err)
	}
	return string(prompt), nil
}

func removeWhitespace(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	return s
}
