package agent

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dotcommander/agentgw/internal/config"
	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/fantasybridge"
	"github.com/dotcommander/agentgw/internal/tools"
)

func testConfig(api, model string) *config.Config {
	return &config.Config{Settings: config.Settings{
		API:      api,
		Model:    model,
		MaxSteps: 4,
		APIs: config.APIs{
			{Name: "ollama", BaseURL: "http://gpu-box:11434/v1"},
			{Name: "openai", APIKey: "sk-test", Models: map[string]config.Model{
				"gpt-4o-mini": {Aliases: []string{"4o-mini"}},
				"gpt-4o":      {Aliases: []string{"4o"}, MaxTokens: 1024},
			}},
		},
	}}
}

func TestResolveModel(t *testing.T) {
	t.Run("api without models accepts any model", func(t *testing.T) {
		api, mod, err := resolveModel(testConfig("ollama", "llama3.1:8b"))
		require.NoError(t, err)
		require.Equal(t, "ollama", api.Name)
		require.Equal(t, config.Model{Name: "llama3.1:8b", API: "ollama"}, mod)
	})

	t.Run("alias", func(t *testing.T) {
		_, mod, err := resolveModel(testConfig("openai", "4o"))
		require.NoError(t, err)
		require.Equal(t, "gpt-4o", mod.Name)
		require.EqualValues(t, 1024, mod.MaxTokens)
	})

	t.Run("model search across apis", func(t *testing.T) {
		_, mod, err := resolveModel(testConfig("", "4o-mini"))
		require.NoError(t, err)
		require.Equal(t, "openai", mod.API)
		require.Equal(t, "gpt-4o-mini", mod.Name)
	})

	t.Run("unknown model lists the available ones", func(t *testing.T) {
		_, _, err := resolveModel(testConfig("openai", "gpt-5"))
		require.EqualError(t, err, "Available models are: gpt-4o, gpt-4o-mini")
		require.Equal(t, "The API endpoint openai does not contain the model gpt-5", errs.Reason(err))
	})

	t.Run("unknown api", func(t *testing.T) {
		_, _, err := resolveModel(testConfig("mistral", "small"))
		require.Equal(t, "Model small is not in the settings file.", errs.Reason(err))
	})
}

func TestPrepareProviderConfig(t *testing.T) {
	ctx := context.Background()

	t.Run("ollama needs no key", func(t *testing.T) {
		cfg, err := prepareProviderConfig(ctx, config.Model{API: "ollama"}, config.API{})
		require.NoError(t, err)
		require.Equal(t, fantasybridge.Config{API: "ollama", BaseURL: "http://localhost:11434/v1"}, cfg)
	})

	t.Run("azure-ad maps to azure", func(t *testing.T) {
		cfg, err := prepareProviderConfig(ctx, config.Model{API: "azure-ad"}, config.API{APIKey: "k", BaseURL: "https://x.openai.azure.com"})
		require.NoError(t, err)
		require.Equal(t, "azure", cfg.API)
	})

	t.Run("google thinking budget", func(t *testing.T) {
		cfg, err := prepareProviderConfig(ctx, config.Model{API: "google", ThinkingBudget: 128}, config.API{APIKey: "k"})
		require.NoError(t, err)
		require.Equal(t, 128, cfg.ThinkingBudget)
	})

	t.Run("missing key", func(t *testing.T) {
		t.Setenv("ANTHROPIC_API_KEY", "")
		_, err := prepareProviderConfig(ctx, config.Model{API: "anthropic"}, config.API{})
		require.Equal(t, "Anthropic authentication failed", errs.Reason(err))
	})
}

func TestKeys(t *testing.T) {
	ctx := context.Background()

	t.Run("explicit key", func(t *testing.T) {
		key, err := ensureKey(ctx, config.API{APIKey: "direct"}, "OPENAI_API_KEY", "")
		require.NoError(t, err)
		require.Equal(t, "direct", key)
	})

	t.Run("key env", func(t *testing.T) {
		t.Setenv("AGENTGW_TEST_KEY", "from-env")
		key, err := ensureKey(ctx, config.API{APIKeyEnv: "AGENTGW_TEST_KEY"}, "OPENAI_API_KEY", "")
		require.NoError(t, err)
		require.Equal(t, "from-env", key)
	})

	t.Run("key command", func(t *testing.T) {
		key, err := optionalKey(ctx, config.API{APIKeyCmd: `echo "from cmd"`})
		require.NoError(t, err)
		require.Equal(t, "from cmd", key)
	})

	t.Run("default env", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "fallback")
		key, err := ensureKey(ctx, config.API{}, "OPENAI_API_KEY", "")
		require.NoError(t, err)
		require.Equal(t, "fallback", key)
	})

	t.Run("missing", func(t *testing.T) {
		t.Setenv("OPENAI_API_KEY", "")
		_, err := ensureKey(ctx, config.API{}, "OPENAI_API_KEY", "https://example.com/keys")
		require.EqualError(t, err, "You can grab one at https://example.com/keys")
	})
}

func TestApplyProxyConfig(t *testing.T) {
	var cfg fantasybridge.Config
	require.NoError(t, ApplyProxyConfig("", &cfg))
	require.Nil(t, cfg.HTTPClient)

	require.NoError(t, ApplyProxyConfig("http://proxy.local:3128", &cfg))
	require.NotNil(t, cfg.HTTPClient)

	require.Error(t, ApplyProxyConfig("://bad", &cfg))
}

func TestNew(t *testing.T) {
	builtins, err := tools.Builtins(tools.DefaultBuiltins, nil)
	require.NoError(t, err)
	reg, err := tools.NewRegistry(builtins...)
	require.NoError(t, err)

	rt, err := New(context.Background(), testConfig("ollama", "qwen2.5:7b"), reg)
	require.NoError(t, err)
	require.Equal(t, "qwen2.5:7b", rt.Name())
	require.Equal(t, 2, rt.Tools().Len())
}
