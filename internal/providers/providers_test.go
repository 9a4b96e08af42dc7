package providers

import (
	"context"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"

	"github.com/gaspardpetit/augur/internal/config"
	"github.com/gaspardpetit/augur/internal/relay"
)

func kinds(set Set) map[relay.Kind]bool {
	out := map[relay.Kind]bool{}
	for k := range set.Providers {
		out[k] = true
	}
	return out
}

func TestBuildWithoutAWS(t *testing.T) {
	set, err := Build(context.Background(), config.ProviderConfig{
		OllamaURL: "http://localhost:11434",
		OpenAIKey: "sk-test",
	}, nil)
	if err != nil {
		t.Fatal(err)
	}
	got := kinds(set)
	if len(got) != 2 || !got[relay.KindLocal] || !got[relay.KindOpenAI] {
		t.Fatalf("kinds = %v", got)
	}
	if set.Ollama == nil {
		t.Fatal("ollama client missing")
	}
}

func TestBuildBedrockAndParameterKey(t *testing.T) {
	awsCfg := aws.Config{Region: "us-east-1"}
	set, err := Build(context.Background(), config.ProviderConfig{
		Bedrock:        true,
		OpenAIKeyParam: "/augur/openai-key",
	}, &awsCfg)
	if err != nil {
		t.Fatal(err)
	}
	got := kinds(set)
	if len(got) != 3 || !got[relay.KindClaude] || !got[relay.KindNova] || !got[relay.KindOpenAI] {
		t.Fatalf("kinds = %v", got)
	}
	if set.Ollama != nil {
		t.Fatal("ollama should be disabled")
	}
}

func TestBuildNothing(t *testing.T) {
	set, err := Build(context.Background(), config.ProviderConfig{}, nil)
	if err != nil {
		t.Fatal(err)
	}
	if len(set.Providers) != 0 {
		t.Fatalf("providers = %v", set.Providers)
	}
}
