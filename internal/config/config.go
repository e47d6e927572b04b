package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"text/template"
	"time"

	_ "embed"

	"github.com/caarlos0/env/v9"
	"github.com/charmbracelet/x/exp/ordered"
	"gopkg.in/yaml.v3"

	"github.com/dotcommander/agentgw/internal/errs"
	"github.com/dotcommander/agentgw/internal/tools"
)

//go:embed config_template.yml
var configTemplate string

// DefaultSystem is the system message used when neither the settings nor the
// request provide one.
const DefaultSystem = "You are a helpful assistant with access to several tools. \nUse them when necessary, but only return the final answer to the user."

const (
	defaultHost     = "127.0.0.1"
	defaultPort     = 8000
	defaultAPI      = "ollama"
	defaultModel    = "qwen2.5:7b"
	defaultMaxSteps = 10
	ollamaBaseURL   = "http://localhost:11434/v1"
)

// Model represents a model served by an API.
type Model struct {
	Name           string
	API            string
	Aliases        []string `yaml:"aliases"`
	MaxTokens      int64    `yaml:"max-tokens,omitempty"`
	ThinkingBudget int      `yaml:"thinking-budget,omitempty"`
}

// API represents an API endpoint and its models.
//
// An API without models accepts any model name.
type API struct {
	Name      string
	APIKey    string           `yaml:"api-key"`
	APIKeyEnv string           `yaml:"api-key-env"`
	APIKeyCmd string           `yaml:"api-key-cmd"`
	BaseURL   string           `yaml:"base-url"`
	Models    map[string]Model `yaml:"models"`
}

// APIs is a type alias to allow custom YAML decoding.
type APIs []API

// UnmarshalYAML implements sorted API YAML decoding.
func (apis *APIs) UnmarshalYAML(node *yaml.Node) error {
	for i := 0; i < len(node.Content); i += 2 {
		var api API
		if err := node.Content[i+1].Decode(&api); err != nil {
			return fmt.Errorf("error decoding YAML file: %s", err)
		}
		api.Name = node.Content[i].Value
		*apis = append(*apis, api)
	}
	return nil
}

// Find returns the API with the given name.
func (apis APIs) Find(name string) (API, bool) {
	for _, api := range apis {
		if api.Name == name {
			return api, true
		}
	}
	return API{}, false
}

// Settings holds persisted configuration loaded from the YAML settings file
// and environment variables.
type Settings struct {
	Host            string        `yaml:"host" env:"HOST"`
	Port            int           `yaml:"port" env:"PORT"`
	API             string        `yaml:"default-api" env:"API"`
	Model           string        `yaml:"default-model" env:"MODEL"`
	APIs            APIs          `yaml:"apis"`
	System          string        `yaml:"system" env:"SYSTEM"`
	Tools           []string      `yaml:"tools" env:"TOOLS"`
	MaxSteps        int           `yaml:"max-steps" env:"MAX_STEPS"`
	Temperature     float64       `yaml:"temp" env:"TEMP"`
	HTTPProxy       string        `yaml:"http-proxy" env:"HTTP_PROXY"`
	LogLevel        string        `yaml:"log-level" env:"LOG_LEVEL"`
	LogFormat       string        `yaml:"log-format" env:"LOG_FORMAT"`
	ShutdownTimeout time.Duration `yaml:"shutdown-timeout" env:"SHUTDOWN_TIMEOUT"`

	MCPServers      map[string]MCPServerConfig `yaml:"mcp-servers"`
	MCPDisable      []string                   `yaml:"mcp-disable" env:"MCP_DISABLE"`
	MCPTimeout      time.Duration              `yaml:"mcp-timeout" env:"MCP_TIMEOUT"`
	MCPNoInheritEnv bool                       `yaml:"mcp-no-inherit-env" env:"MCP_NO_INHERIT_ENV"`
}

// Runtime holds CLI/runtime-only options that are not loaded from the
// settings file.
type Runtime struct {
	SettingsPath string
	Replay       string
}

// Config is the application configuration (settings + runtime-only options).
type Config struct {
	Settings `yaml:",inline"`
	Runtime  `yaml:"-" env:"-"`
}

// MCPServerConfig holds configuration for an MCP server.
type MCPServerConfig struct {
	Type    string   `yaml:"type"`
	Command string   `yaml:"command"`
	Env     []string `yaml:"env"`
	Args    []string `yaml:"args"`
	URL     string   `yaml:"url"`
}

// ollamaEnv holds the unprefixed variables an Ollama deployment usually
// already exports.
type ollamaEnv struct {
	BaseURL string `env:"OLLAMA_BASE_URL"`
	Model   string `env:"OLLAMA_MODEL"`
}

// Addr returns the listen address.
func (c Config) Addr() string {
	return net.JoinHostPort(c.Host, strconv.Itoa(c.Port))
}

// DefaultPath returns the settings file location.
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", errs.Error{Err: err, Reason: "Could not determine home directory."}
	}
	return filepath.Join(home, ".config", "agentgw", "agentgw.yml"), nil
}

// Ensure loads settings from the default location, creating the settings
// file if it does not exist.
func Ensure() (Config, error) {
	sp, err := DefaultPath()
	if err != nil {
		return Config{}, err
	}
	return Load(sp)
}

// Load loads settings from path and the environment and applies defaults.
//
// The settings file is created from the template when missing. Precedence,
// highest first: AGENTGW_* variables, OLLAMA_* variables, the settings file,
// defaults.
func Load(sp string) (Config, error) {
	var c Config
	c.SettingsPath = sp

	if err := os.MkdirAll(filepath.Dir(sp), 0o700); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not create config directory."}
	}
	if err := WriteConfigFile(sp); err != nil {
		return c, err
	}
	content, err := os.ReadFile(sp)
	if err != nil {
		return c, errs.Error{Err: err, Reason: "Could not read settings file."}
	}
	if err := yaml.Unmarshal(content, &c); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse settings file."}
	}

	var oe ollamaEnv
	if err := env.Parse(&oe); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse Ollama environment."}
	}
	c.applyOllamaEnv(oe)

	if err := env.ParseWithOptions(&c, env.Options{Prefix: "AGENTGW_"}); err != nil {
		return c, errs.Error{Err: err, Reason: "Could not parse environment into settings."}
	}

	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return c, err
	}
	return c, nil
}

func (c *Config) applyOllamaEnv(oe ollamaEnv) {
	if oe.Model != "" {
		c.Model = oe.Model
	}
	if oe.BaseURL == "" {
		return
	}
	base := OllamaBaseURL(oe.BaseURL)
	for i := range c.APIs {
		if c.APIs[i].Name == defaultAPI {
			c.APIs[i].BaseURL = base
			return
		}
	}
	c.APIs = append(c.APIs, API{Name: defaultAPI, BaseURL: base})
}

// OllamaBaseURL turns an Ollama server URL into its OpenAI-compatible
// endpoint.
func OllamaBaseURL(u string) string {
	u = strings.TrimRight(u, "/")
	if strings.HasSuffix(u, "/v1") {
		return u
	}
	return u + "/v1"
}

func (c *Config) applyDefaults() {
	d := Default()
	c.Host = ordered.First(c.Host, d.Host)
	c.Port = ordered.First(c.Port, d.Port)
	c.API = ordered.First(c.API, d.API)
	c.Model = ordered.First(c.Model, d.Model)
	c.System = ordered.First(c.System, d.System)
	c.MaxSteps = ordered.First(c.MaxSteps, d.MaxSteps)
	c.LogLevel = ordered.First(c.LogLevel, d.LogLevel)
	c.LogFormat = ordered.First(c.LogFormat, d.LogFormat)
	c.ShutdownTimeout = ordered.First(c.ShutdownTimeout, d.ShutdownTimeout)
	c.MCPTimeout = ordered.First(c.MCPTimeout, d.MCPTimeout)
	if c.Tools == nil {
		c.Tools = d.Tools
	}
	if _, ok := c.APIs.Find(defaultAPI); !ok && c.API == defaultAPI {
		c.APIs = append(c.APIs, API{Name: defaultAPI, BaseURL: ollamaBaseURL})
	}
}

// Validate reports settings that cannot work.
func (c Config) Validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return errs.Error{Err: errs.UserErrorf("port %d is out of range", c.Port), Reason: "Invalid port."}
	}
	if c.MaxSteps < 1 {
		return errs.Error{Err: errs.UserErrorf("max-steps must be at least 1, got %d", c.MaxSteps), Reason: "Invalid max-steps."}
	}
	switch c.LogFormat {
	case "text", "json":
	default:
		return errs.Error{Err: errs.UserErrorf("log-format must be text or json, got %q", c.LogFormat), Reason: "Invalid log-format."}
	}
	return nil
}

// WriteConfigFile creates the config file at path if it does not exist.
func WriteConfigFile(path string) error {
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return createConfigFile(path)
	} else if err != nil {
		return errs.Error{Err: err, Reason: "Could not stat path."}
	}
	return nil
}

func createConfigFile(path string) error {
	tmpl := template.Must(template.New("config").Parse(configTemplate))

	f, err := os.Create(path)
	if err != nil {
		return errs.Error{Err: err, Reason: "Could not create configuration file."}
	}
	defer func() { _ = f.Close() }()

	m := struct{ Config Config }{Config: Default()}
	if err := tmpl.Execute(f, m); err != nil {
		return errs.Error{Err: err, Reason: "Could not render template."}
	}
	return nil
}

// Default returns the default configuration values.
func Default() Config {
	return Config{
		Settings: Settings{
			Host:            defaultHost,
			Port:            defaultPort,
			API:             defaultAPI,
			Model:           defaultModel,
			System:          DefaultSystem,
			Tools:           tools.DefaultBuiltins,
			MaxSteps:        defaultMaxSteps,
			LogLevel:        "info",
			LogFormat:       "text",
			ShutdownTimeout: 10 * time.Second,
			MCPTimeout:      15 * time.Second,
		},
	}
}
