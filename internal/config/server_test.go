package config

import (
	"errors"
	"flag"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestDefaultsEnvAndFlags(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("METRICS_PORT", "9100")
	t.Setenv("REQUEST_TIMEOUT", "45")
	t.Setenv("ALLOWED_ORIGINS", "https://a.example, https://b.example,")
	t.Setenv("OLLAMA_API_URL", "http://ollama:11434")
	t.Setenv("BEDROCK_ENABLED", "true")
	t.Setenv("OPENAI_KEY_PARAM", "/augur/openai")

	var c ServerConfig
	c.SetDefaults()
	c.ApplyEnv()
	if c.Port != 9000 || c.MetricsAddr != ":9100" || c.RequestTimeout != 45*time.Second {
		t.Fatalf("env overlay: %+v", c)
	}
	if len(c.AllowedOrigins) != 2 || c.AllowedOrigins[1] != "https://b.example" {
		t.Fatalf("origins: %v", c.AllowedOrigins)
	}
	if c.WSPath != "/ws" || c.DrainTimeout != 2*time.Minute {
		t.Fatalf("defaults: %+v", c)
	}
	if !c.Providers.Bedrock || c.Providers.OllamaURL != "http://ollama:11434" || !c.Providers.NeedsAWS() {
		t.Fatalf("providers: %+v", c.Providers)
	}

	fs := flag.NewFlagSet("test", flag.ContinueOnError)
	c.BindFlagsFromCurrent(fs)
	if err := fs.Parse([]string{"--port", "7000", "--request-timeout", "2.5", "--ws-path", "/predict-ws"}); err != nil {
		t.Fatal(err)
	}
	if c.Port != 7000 || c.RequestTimeout != 2500*time.Millisecond || c.WSPath != "/predict-ws" {
		t.Fatalf("flags: %+v", c)
	}
}

func TestLoadFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "server.yaml")
	data := []byte(`port: 8181
api_key: secret
request_timeout: 30s
allowed_origins: [https://fortune.example]
providers:
  ollama_url: http://localhost:11434
  bedrock: true
  max_tokens: 2048
  openai_key_param: /prod/openai
`)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatal(err)
	}
	var c ServerConfig
	if err := c.LoadFile(path); err != nil {
		t.Fatal(err)
	}
	if c.Port != 8181 || c.APIKey != "secret" || c.RequestTimeout != 30*time.Second || len(c.AllowedOrigins) != 1 {
		t.Fatalf("file: %+v", c)
	}
	if c.Providers.MaxTokens != 2048 || c.Providers.OpenAIKeyParam != "/prod/openai" || !c.Providers.Bedrock {
		t.Fatalf("providers: %+v", c.Providers)
	}
	if err := c.LoadFile(filepath.Join(dir, "missing.yaml")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("missing file: %v", err)
	}
}

func TestConfigPathFromArgs(t *testing.T) {
	cases := []struct {
		args []string
		want string
		ok   bool
	}{
		{[]string{"--config", "/tmp/a.yaml"}, "/tmp/a.yaml", true},
		{[]string{"-port", "1", "--config=/tmp/b.yaml"}, "/tmp/b.yaml", true},
		{[]string{"-config=/tmp/c.yaml"}, "/tmp/c.yaml", true},
		{[]string{"--config"}, "", false},
		{nil, "", false},
	}
	for _, c := range cases {
		got, ok := ConfigPathFromArgs(c.args)
		if got != c.want || ok != c.ok {
			t.Errorf("%v: got %q %v", c.args, got, ok)
		}
	}
}
