package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/config"
	"github.com/gaspardpetit/augur/internal/metrics"
	"github.com/gaspardpetit/augur/internal/providers"
	"github.com/gaspardpetit/augur/internal/relay"
	"github.com/gaspardpetit/augur/internal/server"
	"github.com/gaspardpetit/augur/internal/serverstate"
)

var (
	version   = "dev"
	buildSHA  = "unknown"
	buildDate = "unknown"
)

// loadConfig resolves defaults, the YAML file, the environment and flags,
// in increasing order of precedence.
func loadConfig(args []string) (config.ServerConfig, bool, error) {
	var cfg config.ServerConfig
	cfg.SetDefaults()
	cfg.ApplyEnv()
	if p, ok := config.ConfigPathFromArgs(args); ok {
		cfg.ConfigFile = p
	}
	if cfg.ConfigFile != "" {
		if err := cfg.LoadFile(cfg.ConfigFile); err != nil && !errors.Is(err, os.ErrNotExist) {
			return cfg, false, fmt.Errorf("load config %s: %w", cfg.ConfigFile, err)
		}
	}
	cfg.ApplyEnv()

	fs := flag.NewFlagSet("augur", flag.ContinueOnError)
	showVersion := fs.Bool("version", false, "print version and exit")
	cfg.BindFlagsFromCurrent(fs)
	fs.Usage = func() {
		_, _ = fmt.Fprintf(fs.Output(), "augur version=%s sha=%s date=%s\n\n", version, buildSHA, buildDate)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return cfg, false, err
	}
	return cfg, *showVersion, nil
}

func main() {
	cfg, showVersion, err := loadConfig(os.Args[1:])
	if errors.Is(err, flag.ErrHelp) {
		return
	}
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("configure")
	}
	if showVersion {
		fmt.Printf("augur version=%s sha=%s date=%s\n", version, buildSHA, buildDate)
		return
	}

	logx.Configure(cfg.LogLevel)
	metrics.SetServerBuildInfo(version, buildSHA, buildDate)

	if cfg.RedisAddr != "" {
		rs, err := serverstate.NewRedisStore(cfg.RedisAddr)
		if err != nil {
			logx.Log.Fatal().Err(err).Msg("connect redis")
		}
		defer func() { _ = rs.Close() }()
		serverstate.UseStore(rs)
		logx.Log.Info().Str("addr", cfg.RedisAddr).Msg("using redis state store")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	set, err := providers.Build(ctx, cfg.Providers, nil)
	if err != nil {
		logx.Log.Fatal().Err(err).Msg("configure providers")
	}
	preg := server.NewRegistry()
	deps := server.Deps{
		Relay:    relay.New(set.Providers),
		Version:  version,
		Registry: preg,
	}
	if set.Ollama != nil {
		deps.Local = set.Ollama
	}
	handler := server.New(cfg, deps)

	srv := &http.Server{Addr: fmt.Sprintf(":%d", cfg.Port), Handler: handler}
	var metricsSrv *http.Server
	if cfg.MetricsAddr != fmt.Sprintf(":%d", cfg.Port) {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
		metricsSrv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux}
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	go func() {
		for range sigCh {
			if serverstate.IsDraining() || cfg.DrainTimeout == 0 {
				logx.Log.Warn().Msg("termination requested")
				cancel()
				return
			}
			serverstate.StartDrain()
			waitCtx := ctx
			var stop context.CancelFunc = func() {}
			if cfg.DrainTimeout > 0 {
				waitCtx, stop = context.WithTimeout(ctx, cfg.DrainTimeout)
			}
			logx.Log.Info().Int64("inflight", serverstate.Inflight()).Dur("timeout", cfg.DrainTimeout).Msg("draining; send SIGTERM again to terminate immediately")
			go func() {
				defer stop()
				if err := serverstate.WaitIdle(waitCtx); err != nil {
					if errors.Is(err, context.DeadlineExceeded) {
						logx.Log.Warn().Int64("inflight", serverstate.Inflight()).Msg("drain timeout exceeded; terminating")
						cancel()
					}
					return
				}
				logx.Log.Info().Msg("drain complete; terminating")
				cancel()
			}()
		}
	}()
	go func() {
		<-ctx.Done()
		if err := srv.Shutdown(context.Background()); err != nil {
			logx.Log.Error().Err(err).Msg("server shutdown")
		}
		if metricsSrv != nil {
			if err := metricsSrv.Shutdown(context.Background()); err != nil {
				logx.Log.Error().Err(err).Msg("metrics server shutdown")
			}
		}
	}()

	if cfg.APIKey != "" {
		logx.Log.Info().Msg("API key auth enabled")
	}
	if metricsSrv != nil {
		go func() {
			logx.Log.Info().Str("addr", cfg.MetricsAddr).Msg("metrics server starting")
			if err := metricsSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				logx.Log.Error().Err(err).Msg("metrics server error")
			}
		}()
	}
	serverstate.SetState(serverstate.StatusReady)
	logx.Log.Info().Int("port", cfg.Port).Str("ws_path", cfg.WSPath).Msg("server starting")
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logx.Log.Fatal().Err(err).Msg("server error")
	}
}
