// Package providers builds the relay's provider table from configuration.
package providers

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/ssm"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/core/secret"
	"github.com/gaspardpetit/augur/internal/bedrock"
	"github.com/gaspardpetit/augur/internal/config"
	"github.com/gaspardpetit/augur/internal/ollama"
	"github.com/gaspardpetit/augur/internal/openai"
	"github.com/gaspardpetit/augur/internal/paramstore"
	"github.com/gaspardpetit/augur/internal/relay"
)

// Set is the outcome of Build.
type Set struct {
	Providers map[relay.Kind]relay.Provider
	// Ollama is set when local models are enabled.
	Ollama *ollama.Client
}

// LoadAWS resolves credentials and region from the default chain.
func LoadAWS(ctx context.Context, region string) (aws.Config, error) {
	var opts []func(*awsconfig.LoadOptions) error
	if region != "" {
		opts = append(opts, awsconfig.WithRegion(region))
	}
	cfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("load aws config: %w", err)
	}
	return cfg, nil
}

// Build wires every provider enabled in pc. awsCfg is loaded on demand when
// nil and a provider needs it.
func Build(ctx context.Context, pc config.ProviderConfig, awsCfg *aws.Config) (Set, error) {
	set := Set{Providers: map[relay.Kind]relay.Provider{}}

	if pc.OllamaURL != "" {
		set.Ollama = ollama.New(pc.OllamaURL)
		set.Providers[relay.KindLocal] = ollama.NewProvider(set.Ollama)
		logx.Log.Info().Str("url", pc.OllamaURL).Msg("ollama models enabled")
	}

	if pc.NeedsAWS() && awsCfg == nil {
		cfg, err := LoadAWS(ctx, pc.AWSRegion)
		if err != nil {
			return Set{}, err
		}
		awsCfg = &cfg
	}

	if pc.Bedrock {
		inv := bedrock.NewInvoker(bedrockruntime.NewFromConfig(*awsCfg))
		set.Providers[relay.KindClaude] = bedrock.NewClaude(inv, pc.MaxTokens)
		set.Providers[relay.KindNova] = bedrock.NewNova(inv, pc.MaxTokens)
		logx.Log.Info().Str("region", awsCfg.Region).Msg("bedrock models enabled")
	}

	switch {
	case pc.OpenAIKey != "":
		set.Providers[relay.KindOpenAI] = openai.NewProvider(openai.Options{
			Keys:    openai.StaticKey(pc.OpenAIKey),
			BaseURL: pc.OpenAIBaseURL,
		})
		logx.Log.Info().Str("key", secret.Mask(pc.OpenAIKey)).Msg("openai models enabled")
	case pc.OpenAIKeyParam != "":
		store := paramstore.New(ssm.NewFromConfig(*awsCfg))
		set.Providers[relay.KindOpenAI] = openai.NewProvider(openai.Options{
			Keys:    openai.ParameterKey{Store: store, Name: pc.OpenAIKeyParam},
			BaseURL: pc.OpenAIBaseURL,
		})
		logx.Log.Info().Str("parameter", pc.OpenAIKeyParam).Msg("openai models enabled")
	}

	if len(set.Providers) == 0 {
		logx.Log.Warn().Msg("no providers configured; every prediction will be rejected")
	}
	return set, nil
}
