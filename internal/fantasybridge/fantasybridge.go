// Package fantasybridge builds charm.land/fantasy providers and converts
// conversations and tools to fantasy types.
package fantasybridge

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"charm.land/fantasy"
	fopenaicompat "charm.land/fantasy/providers/openaicompat"

	"github.com/dotcommander/agentgw/internal/proto"
	"github.com/dotcommander/agentgw/internal/tools"
)

const (
	apiAnthropic  = "anthropic"
	apiGoogle     = "google"
	apiOpenAI     = "openai"
	apiAzure      = "azure"
	apiAzureAD    = "azure-ad"
	apiBedrock    = "bedrock"
	apiOpenRouter = "openrouter"
	apiVercel     = "vercel"
)

// Config represents provider configuration used by the fantasy bridge.
type Config struct {
	API            string
	BaseURL        string
	APIKey         string
	HTTPClient     *http.Client
	ThinkingBudget int
}

// CallOptions are the generation settings applied to every model call.
// Zero values leave the provider defaults.
type CallOptions struct {
	MaxTokens   int64
	Temperature float64
}

// NewProvider creates the fantasy provider for cfg.API. Unknown API names are
// served through the OpenAI-compatible provider.
func NewProvider(cfg Config) (fantasy.Provider, error) {
	if cfg.API == "" {
		return nil, errors.New("missing provider API name")
	}
	return newProvider(cfg)
}

// providerOptions maps the settings shared by every provider package onto
// that package's option type. Nil setters are skipped.
type providerOptions[O any] struct {
	apiKey  func(string) O
	baseURL func(string) O
	client  func(*http.Client) O
}

func (p providerOptions[O]) build(cfg Config, baseURL string) []O {
	var opts []O
	if cfg.APIKey != "" && p.apiKey != nil {
		opts = append(opts, p.apiKey(cfg.APIKey))
	}
	if baseURL != "" && p.baseURL != nil {
		opts = append(opts, p.baseURL(baseURL))
	}
	if cfg.HTTPClient != nil && p.client != nil {
		opts = append(opts, p.client(cfg.HTTPClient))
	}
	return opts
}

// newCompatProvider serves any API through the OpenAI-compatible provider,
// named after the configured API.
func newCompatProvider(cfg Config) (fantasy.Provider, error) {
	opts := append(
		[]fopenaicompat.Option{fopenaicompat.WithName(cfg.API)},
		providerOptions[fopenaicompat.Option]{
			apiKey:  fopenaicompat.WithAPIKey,
			baseURL: fopenaicompat.WithBaseURL,
			client:  func(c *http.Client) fopenaicompat.Option { return fopenaicompat.WithHTTPClient(c) },
		}.build(cfg, cfg.BaseURL)...,
	)
	provider, err := fopenaicompat.New(opts...)
	if err != nil {
		return nil, fmt.Errorf("new %s provider: %w", cfg.API, err)
	}
	return provider, nil
}

// NewCall builds the model call for one agent step.
func NewCall(cfg Config, convo proto.Conversation, reg *tools.Registry, opts CallOptions) fantasy.Call {
	call := fantasy.Call{
		Prompt:          Prompt(convo),
		Tools:           Tools(reg),
		ToolChoice:      toolChoice(reg),
		ProviderOptions: fantasy.ProviderOptions{},
	}
	if opts.MaxTokens > 0 {
		v := opts.MaxTokens
		call.MaxOutputTokens = &v
	}
	if opts.Temperature > 0 {
		v := opts.Temperature
		call.Temperature = &v
	}
	applyProviderOptions(&call, cfg)
	return call
}

// WarningText renders a provider warning as a single line.
func WarningText(warning fantasy.CallWarning) string {
	text := strings.TrimSpace(warning.Message)
	if text == "" {
		text = strings.TrimSpace(warning.Details)
	}
	if text == "" && warning.Setting != "" {
		text = fmt.Sprintf("unsupported setting: %s", warning.Setting)
	}
	if text == "" {
		text = "provider warning"
	}
	return text
}
