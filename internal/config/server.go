package config

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	commoncfg "github.com/gaspardpetit/augur/core/config"
)

// ProviderConfig holds upstream endpoints and credentials.
type ProviderConfig struct {
	OllamaURL      string `yaml:"ollama_url"`
	AWSRegion      string `yaml:"aws_region"`
	Bedrock        bool   `yaml:"bedrock"`
	MaxTokens      int    `yaml:"max_tokens"`
	OpenAIKey      string `yaml:"openai_api_key"`
	OpenAIKeyParam string `yaml:"openai_key_param"`
	OpenAIBaseURL  string `yaml:"openai_base_url"`
}

// ServerConfig holds configuration for the augur server.
type ServerConfig struct {
	Port           int            `yaml:"port"`
	MetricsAddr    string         `yaml:"metrics_addr"`
	APIKey         string         `yaml:"api_key"`
	RequestTimeout time.Duration  `yaml:"request_timeout"`
	DrainTimeout   time.Duration  `yaml:"drain_timeout"`
	AllowedOrigins []string       `yaml:"allowed_origins"`
	ConfigFile     string         `yaml:"-"`
	LogLevel       string         `yaml:"log_level"`
	RedisAddr      string         `yaml:"redis_addr"`
	WSPath         string         `yaml:"ws_path"`
	MCP            bool           `yaml:"mcp"`
	Providers      ProviderConfig `yaml:"providers"`
}

// SetDefaults initializes c with built-in defaults.
func (c *ServerConfig) SetDefaults() {
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Port == 0 {
		c.Port = 8080
	}
	if c.MetricsAddr == "" {
		c.MetricsAddr = fmt.Sprintf(":%d", c.Port)
	}
	if c.RequestTimeout == 0 {
		c.RequestTimeout = 120 * time.Second
	}
	if c.DrainTimeout == 0 {
		c.DrainTimeout = 2 * time.Minute
	}
	if c.WSPath == "" {
		c.WSPath = "/ws"
	}
	if c.ConfigFile == "" {
		c.ConfigFile = commoncfg.DefaultConfigPath("server.yaml")
	}
}

// ApplyEnv overlays environment variables onto the current config values.
func (c *ServerConfig) ApplyEnv() {
	if v := commoncfg.GetEnv("CONFIG_FILE", ""); v != "" {
		c.ConfigFile = v
	}
	if v := commoncfg.GetEnv("LOG_LEVEL", ""); v != "" {
		c.LogLevel = v
	}
	if v := commoncfg.GetEnv("PORT", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			c.Port = n
		}
	}
	if v := commoncfg.GetEnv("METRICS_PORT", ""); v != "" {
		if strings.Contains(v, ":") {
			c.MetricsAddr = v
		} else {
			c.MetricsAddr = ":" + v
		}
	}
	if v := commoncfg.GetEnv("API_KEY", ""); v != "" {
		c.APIKey = v
	}
	if v := commoncfg.GetEnv("REDIS_ADDR", ""); v != "" {
		c.RedisAddr = v
	}
	if v := commoncfg.GetEnv("REQUEST_TIMEOUT", ""); v != "" {
		if d, err := parseSeconds(v); err == nil {
			c.RequestTimeout = d
		}
	}
	if v := commoncfg.GetEnv("DRAIN_TIMEOUT", ""); v != "" {
		if d, err := time.ParseDuration(v); err == nil {
			c.DrainTimeout = d
		}
	}
	if v := commoncfg.GetEnv("ALLOWED_ORIGINS", ""); v != "" {
		c.AllowedOrigins = splitComma(v)
	}
	if v := commoncfg.GetEnv("WS_PATH", ""); v != "" {
		c.WSPath = v
	}
	if v := commoncfg.GetEnv("MCP_ENABLED", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.MCP = b
		}
	}
	c.Providers.ApplyEnv()
}

// ApplyEnv overlays provider settings from the environment.
func (p *ProviderConfig) ApplyEnv() {
	if v := commoncfg.GetEnv("OLLAMA_API_URL", ""); v != "" {
		p.OllamaURL = v
	}
	if v := commoncfg.GetEnv("AWS_REGION", ""); v != "" {
		p.AWSRegion = v
	}
	if v := commoncfg.GetEnv("BEDROCK_ENABLED", ""); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			p.Bedrock = b
		}
	}
	if v := commoncfg.GetEnv("MAX_TOKENS", ""); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			p.MaxTokens = n
		}
	}
	if v := commoncfg.GetEnv("OPENAI_API_KEY", ""); v != "" {
		p.OpenAIKey = v
	}
	if v := commoncfg.GetEnv("OPENAI_KEY_PARAM", ""); v != "" {
		p.OpenAIKeyParam = v
	}
	if v := commoncfg.GetEnv("OPENAI_BASE_URL", ""); v != "" {
		p.OpenAIBaseURL = v
	}
}

// NeedsAWS reports whether any configured provider talks to AWS.
func (p ProviderConfig) NeedsAWS() bool {
	return p.Bedrock || (p.OpenAIKey == "" && p.OpenAIKeyParam != "")
}

// BindFlagsFromCurrent binds command line flags using the current config values as defaults.
func (c *ServerConfig) BindFlagsFromCurrent(fs *flag.FlagSet) {
	fs.StringVar(&c.ConfigFile, "config", c.ConfigFile, "server config file path")
	fs.StringVar(&c.LogLevel, "log-level", c.LogLevel, "log verbosity (all, debug, info, warn, error, fatal, none)")
	fs.IntVar(&c.Port, "port", c.Port, "HTTP listen port for the public API")
	fs.StringVar(&c.MetricsAddr, "metrics-port", c.MetricsAddr, "Prometheus metrics listen address or port; defaults to the value of --port")
	fs.StringVar(&c.APIKey, "api-key", c.APIKey, "client API key required for HTTP and websocket requests; leave empty to disable auth")
	fs.StringVar(&c.RedisAddr, "redis-addr", c.RedisAddr, "redis connection URL for server state")
	fs.StringVar(&c.WSPath, "ws-path", c.WSPath, "path browsers use to open the prediction websocket")
	fs.BoolVar(&c.MCP, "mcp", c.MCP, "expose the predict tool over MCP at /mcp")
	fs.Func("request-timeout", "maximum duration of one prediction in seconds", func(v string) error {
		d, err := parseSeconds(v)
		if err != nil {
			return err
		}
		c.RequestTimeout = d
		return nil
	})
	fs.DurationVar(&c.DrainTimeout, "drain-timeout", c.DrainTimeout, "time to wait for in-flight predictions on shutdown (-1 to wait indefinitely, 0 to exit immediately)")
	fs.Func("allowed-origins", "comma separated list of allowed CORS origins", func(v string) error {
		c.AllowedOrigins = splitComma(v)
		return nil
	})
	fs.StringVar(&c.Providers.OllamaURL, "ollama-url", c.Providers.OllamaURL, "base URL of the local Ollama server; empty disables ollama/ models")
	fs.StringVar(&c.Providers.AWSRegion, "aws-region", c.Providers.AWSRegion, "AWS region for Bedrock and Parameter Store")
	fs.BoolVar(&c.Providers.Bedrock, "bedrock", c.Providers.Bedrock, "enable Claude and Nova models through Bedrock")
	fs.IntVar(&c.Providers.MaxTokens, "max-tokens", c.Providers.MaxTokens, "maximum tokens generated by Bedrock models")
	fs.StringVar(&c.Providers.OpenAIKeyParam, "openai-key-param", c.Providers.OpenAIKeyParam, "Parameter Store name holding the OpenAI API key")
	fs.StringVar(&c.Providers.OpenAIBaseURL, "openai-base-url", c.Providers.OpenAIBaseURL, "override the OpenAI API base URL")
}

// ConfigPathFromArgs finds a --config value in args before flags are parsed.
func ConfigPathFromArgs(args []string) (string, bool) {
	for i, a := range args {
		switch {
		case (a == "--config" || a == "-config") && i+1 < len(args):
			return args[i+1], true
		case strings.HasPrefix(a, "--config="):
			return strings.TrimPrefix(a, "--config="), true
		case strings.HasPrefix(a, "-config="):
			return strings.TrimPrefix(a, "-config="), true
		}
	}
	return "", false
}

func parseSeconds(v string) (time.Duration, error) {
	if d, err := time.ParseDuration(v); err == nil {
		return d, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	return time.Duration(f * float64(time.Second)), nil
}

func splitComma(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadFile populates the config from a YAML file.
func (c *ServerConfig) LoadFile(path string) error {
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(b, c)
}
