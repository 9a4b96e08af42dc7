// Command augur-lambda serves the prediction relay as an API Gateway
// websocket route handler.
package main

import (
	"context"

	"github.com/aws/aws-lambda-go/lambda"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/config"
	"github.com/gaspardpetit/augur/internal/lambdaws"
	"github.com/gaspardpetit/augur/internal/providers"
	"github.com/gaspardpetit/augur/internal/relay"
)

var version = "dev"

func main() {
	var cfg config.ServerConfig
	cfg.SetDefaults()
	cfg.ApplyEnv()
	// Lambda deployments always run next to Bedrock.
	cfg.Providers.Bedrock = cfg.Providers.Bedrock || cfg.Providers.AWSRegion != ""
	logx.ConfigureJSON(cfg.LogLevel)

	ctx := context.Background()
	awsCfg, err := providers.LoadAWS(ctx, cfg.Providers.AWSRegion)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("load aws config")
	}
	set, err := providers.Build(ctx, cfg.Providers, &awsCfg)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("configure providers")
	}

	h := &lambdaws.Handler{
		Relay:   relay.New(set.Providers),
		Posters: lambdaws.NewPosterFactory(awsCfg),
		Timeout: cfg.RequestTimeout,
	}
	logx.Log.Info().Str("version", version).Msg("lambda starting")
	lambda.Start(h.Handle)
}
