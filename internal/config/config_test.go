package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{
		"OLLAMA_BASE_URL", "OLLAMA_MODEL",
		"AGENTGW_HOST", "AGENTGW_PORT", "AGENTGW_API", "AGENTGW_MODEL",
		"AGENTGW_TOOLS", "AGENTGW_LOG_LEVEL", "AGENTGW_MAX_STEPS",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad(t *testing.T) {
	t.Run("creates the settings file from the template", func(t *testing.T) {
		clearEnv(t)
		sp := filepath.Join(t.TempDir(), "agentgw", "agentgw.yml")

		cfg, err := Load(sp)
		require.NoError(t, err)
		require.FileExists(t, sp)
		require.Equal(t, sp, cfg.SettingsPath)
		require.Equal(t, "127.0.0.1:8000", cfg.Addr())
		require.Equal(t, "ollama", cfg.API)
		require.Equal(t, "qwen2.5:7b", cfg.Model)
		require.Equal(t, DefaultSystem, cfg.System)
		require.Equal(t, []string{"get_current_time", "get_filesystem"}, cfg.Tools)
		require.Equal(t, 10*time.Second, cfg.ShutdownTimeout)
		require.Equal(t, 15*time.Second, cfg.MCPTimeout)

		api, ok := cfg.APIs.Find("ollama")
		require.True(t, ok)
		require.Equal(t, "http://localhost:11434/v1", api.BaseURL)
		require.Empty(t, api.Models)

		openai, ok := cfg.APIs.Find("openai")
		require.True(t, ok)
		require.Equal(t, []string{"4o-mini"}, openai.Models["gpt-4o-mini"].Aliases)
	})

	t.Run("ollama environment", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OLLAMA_BASE_URL", "http://192.168.86.45:11434/")
		t.Setenv("OLLAMA_MODEL", "llama3.1:8b")

		cfg, err := Load(filepath.Join(t.TempDir(), "agentgw.yml"))
		require.NoError(t, err)
		require.Equal(t, "llama3.1:8b", cfg.Model)
		api, ok := cfg.APIs.Find("ollama")
		require.True(t, ok)
		require.Equal(t, "http://192.168.86.45:11434/v1", api.BaseURL)
	})

	t.Run("prefixed environment wins", func(t *testing.T) {
		clearEnv(t)
		t.Setenv("OLLAMA_MODEL", "llama3.1:8b")
		t.Setenv("AGENTGW_MODEL", "mistral")
		t.Setenv("AGENTGW_PORT", "9000")
		t.Setenv("AGENTGW_TOOLS", "get_current_time")

		cfg, err := Load(filepath.Join(t.TempDir(), "agentgw.yml"))
		require.NoError(t, err)
		require.Equal(t, "mistral", cfg.Model)
		require.Equal(t, 9000, cfg.Port)
		require.Equal(t, []string{"get_current_time"}, cfg.Tools)
	})

	t.Run("settings file values", func(t *testing.T) {
		clearEnv(t)
		sp := filepath.Join(t.TempDir(), "agentgw.yml")
		require.NoError(t, os.WriteFile(sp, []byte("port: 8080\nmax-steps: 3\ntools: []\nlog-format: json\nshutdown-timeout: 2s\n"), 0o600))

		cfg, err := Load(sp)
		require.NoError(t, err)
		require.Equal(t, 8080, cfg.Port)
		require.Equal(t, 3, cfg.MaxSteps)
		require.Empty(t, cfg.Tools)
		require.NotNil(t, cfg.Tools)
		require.Equal(t, "json", cfg.LogFormat)
		require.Equal(t, 2*time.Second, cfg.ShutdownTimeout)
		_, ok := cfg.APIs.Find("ollama")
		require.True(t, ok, "default api is always available")
	})

	t.Run("invalid values", func(t *testing.T) {
		clearEnv(t)
		sp := filepath.Join(t.TempDir(), "agentgw.yml")
		require.NoError(t, os.WriteFile(sp, []byte("log-format: xml\n"), 0o600))

		_, err := Load(sp)
		require.ErrorContains(t, err, "log-format must be text or json")
	})

	t.Run("broken yaml", func(t *testing.T) {
		clearEnv(t)
		sp := filepath.Join(t.TempDir(), "agentgw.yml")
		require.NoError(t, os.WriteFile(sp, []byte("port: [\n"), 0o600))

		_, err := Load(sp)
		require.Error(t, err)
	})
}

func TestAPIsOrder(t *testing.T) {
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte("apis:\n  b:\n    base-url: b\n  a:\n    base-url: a\n"), &cfg))
	require.Len(t, cfg.APIs, 2)
	require.Equal(t, "b", cfg.APIs[0].Name)
	require.Equal(t, "a", cfg.APIs[1].Name)
}

func TestOllamaBaseURL(t *testing.T) {
	for in, want := range map[string]string{
		"http://localhost:11434":     "http://localhost:11434/v1",
		"http://localhost:11434/":    "http://localhost:11434/v1",
		"http://localhost:11434/v1":  "http://localhost:11434/v1",
		"http://localhost:11434/v1/": "http://localhost:11434/v1",
	} {
		require.Equal(t, want, OllamaBaseURL(in), in)
	}
}
