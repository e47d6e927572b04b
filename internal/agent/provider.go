package agent

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/caarlos0/go-shellwords"

	"github.com/dotcommander/agentgw/internal/config"
	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/fantasybridge"
	"github.com/dotcommander/agentgw/internal/tools"
)

// New resolves the configured model and builds a runtime for it.
func New(ctx context.Context, cfg *config.Config, reg *tools.Registry) (*Runtime, error) {
	api, mod, err := resolveModel(cfg)
	if err != nil {
		return nil, err
	}

	providerCfg, err := prepareProviderConfig(ctx, mod, api)
	if err != nil {
		return nil, err
	}
	if err := ApplyProxyConfig(cfg.HTTPProxy, &providerCfg); err != nil {
		return nil, err
	}

	provider, err := fantasybridge.NewProvider(providerCfg)
	if err != nil {
		return nil, errs.Wrapf(err, "Could not create the %s provider.", mod.API)
	}
	model, err := provider.LanguageModel(ctx, mod.Name)
	if err != nil {
		return nil, errs.Wrapf(err, "Could not load model %s.", mod.Name)
	}

	slog.InfoContext(ctx, "agent: model ready", "api", mod.API, "model", mod.Name, "tools", reg.Names())
	return NewRuntime(model, Options{
		Name:     mod.Name,
		Provider: providerCfg,
		Tools:    reg,
		MaxSteps: cfg.MaxSteps,
		Call: fantasybridge.CallOptions{
			MaxTokens:   mod.MaxTokens,
			Temperature: cfg.Temperature,
		},
	}), nil
}

func resolveModel(cfg *config.Config) (config.API, config.Model, error) {
	for _, api := range cfg.APIs {
		if api.Name != cfg.API && cfg.API != "" {
			continue
		}
		if len(api.Models) == 0 {
			if cfg.API == "" {
				continue
			}
			return api, config.Model{Name: cfg.Model, API: api.Name}, nil
		}
		name := cfg.Model
		for n, mod := range api.Models {
			if n == cfg.Model || slices.Contains(mod.Aliases, cfg.Model) {
				name = n
				break
			}
		}
		mod, ok := api.Models[name]
		if ok {
			mod.Name = name
			mod.API = api.Name
			return api, mod, nil
		}
		if cfg.API != "" {
			available := make([]string, 0, len(api.Models))
			for name := range api.Models {
				available = append(available, name)
			}
			slices.Sort(available)
			return config.API{}, config.Model{}, errs.Error{
				Err:    errs.UserErrorf("Available models are: %s", strings.Join(available, ", ")),
				Reason: fmt.Sprintf("The API endpoint %s does not contain the model %s", cfg.API, cfg.Model),
			}
		}
	}

	return config.API{}, config.Model{}, errs.Error{
		Reason: fmt.Sprintf("Model %s is not in the settings file.", cfg.Model),
		Err:    errs.UserErrorf("Please specify an API endpoint with --api or configure the model in the settings: agentgw config edit"),
	}
}

func prepareProviderConfig(ctx context.Context, mod config.Model, api config.API) (fantasybridge.Config, error) {
	switch mod.API {
	case "openrouter":
		key, err := ensureKey(ctx, api, "OPENROUTER_API_KEY", "https://openrouter.ai/keys")
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "OpenRouter authentication failed"}
		}
		return fantasybridge.Config{API: mod.API, APIKey: key, BaseURL: api.BaseURL}, nil
	case "vercel":
		key, err := ensureKey(ctx, api, "VERCEL_API_KEY", "https://vercel.com/dashboard/tokens")
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "Vercel AI Gateway authentication failed"}
		}
		return fantasybridge.Config{API: mod.API, APIKey: key, BaseURL: api.BaseURL}, nil
	case "bedrock":
		key, err := optionalKey(ctx, api)
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "Bedrock authentication failed"}
		}
		return fantasybridge.Config{API: mod.API, APIKey: key, BaseURL: api.BaseURL}, nil
	case "ollama":
		key, err := optionalKey(ctx, api)
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "Ollama authentication failed"}
		}
		baseURL := api.BaseURL
		if baseURL == "" {
			baseURL = "http://localhost:11434/v1"
		}
		return fantasybridge.Config{API: mod.API, APIKey: key, BaseURL: baseURL}, nil
	case "azure", "azure-ad":
		key, err := ensureKey(ctx, api, "AZURE_OPENAI_KEY", "https://aka.ms/oai/access")
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "Azure authentication failed"}
		}
		return fantasybridge.Config{API: "azure", APIKey: key, BaseURL: api.BaseURL}, nil
	case "anthropic":
		key, err := ensureKey(ctx, api, "ANTHROPIC_API_KEY", "https://console.anthropic.com/settings/keys")
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "Anthropic authentication failed"}
		}
		return fantasybridge.Config{API: mod.API, APIKey: key, BaseURL: api.BaseURL}, nil
	case "google":
		key, err := ensureKey(ctx, api, "GOOGLE_API_KEY", "https://aistudio.google.com/app/apikey")
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "Google authentication failed"}
		}
		return fantasybridge.Config{API: mod.API, APIKey: key, BaseURL: api.BaseURL, ThinkingBudget: mod.ThinkingBudget}, nil
	default:
		key, err := ensureKey(ctx, api, "OPENAI_API_KEY", "https://platform.openai.com/account/api-keys")
		if err != nil {
			return fantasybridge.Config{}, errs.Error{Err: err, Reason: "OpenAI authentication failed"}
		}
		return fantasybridge.Config{API: mod.API, APIKey: key, BaseURL: api.BaseURL}, nil
	}
}

// ApplyProxyConfig configures the provider HTTP client to use an HTTP proxy.
func ApplyProxyConfig(httpProxy string, providerCfg *fantasybridge.Config) error {
	if httpProxy == "" {
		return nil
	}
	proxyURL, err := url.Parse(httpProxy)
	if err != nil {
		return errs.Error{Err: err, Reason: "There was an error parsing your proxy URL."}
	}
	base, ok := http.DefaultTransport.(*http.Transport)
	if !ok {
		return errs.Error{Err: fmt.Errorf("default transport is not *http.Transport"), Reason: "Could not configure proxy."}
	}
	tr := base.Clone()
	tr.Proxy = http.ProxyURL(proxyURL)
	tr.DialContext = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	tr.TLSHandshakeTimeout = 10 * time.Second
	tr.ResponseHeaderTimeout = 30 * time.Second
	tr.IdleConnTimeout = 90 * time.Second
	tr.ExpectContinueTimeout = 1 * time.Second
	providerCfg.HTTPClient = &http.Client{Transport: tr}
	return nil
}

func ensureKey(ctx context.Context, api config.API, defaultEnv, docsURL string) (string, error) {
	key, err := optionalKey(ctx, api)
	if err != nil {
		return "", err
	}
	if key == "" {
		key = os.Getenv(defaultEnv)
	}
	if key != "" {
		return key, nil
	}
	return "", errs.Error{
		Reason: fmt.Sprintf("%s required; set %s or update agentgw.yml through agentgw config edit.", defaultEnv, defaultEnv),
		Err:    errs.UserErrorf("You can grab one at %s", docsURL),
	}
}

// optionalKey reads api-key, then api-key-env, then runs api-key-cmd.
func optionalKey(ctx context.Context, api config.API) (string, error) {
	key := api.APIKey
	if key == "" && api.APIKeyEnv != "" && api.APIKeyCmd == "" {
		key = os.Getenv(api.APIKeyEnv)
	}
	if key == "" && api.APIKeyCmd != "" {
		args, err := shellwords.Parse(api.APIKeyCmd)
		if err != nil {
			return "", errs.Error{Err: err, Reason: "Failed to parse api-key-cmd"}
		}
		if len(args) == 0 {
			return "", errs.Error{Reason: "api-key-cmd is empty"}
		}
		// #nosec G204 -- api-key-cmd is explicitly configured by the local user.
		out, err := exec.CommandContext(ctx, args[0], args[1:]...).CombinedOutput()
		if err != nil {
			return "", errs.Error{Err: err, Reason: "Cannot exec api-key-cmd"}
		}
		key = strings.TrimSpace(string(out))
	}
	return key, nil
}
