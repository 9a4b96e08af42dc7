package server

import (
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gaspardpetit/augur/internal/api"
	"github.com/gaspardpetit/augur/internal/config"
	"github.com/gaspardpetit/augur/internal/mcpserver"
	"github.com/gaspardpetit/augur/internal/metrics"
	"github.com/gaspardpetit/augur/internal/relay"
	"github.com/gaspardpetit/augur/internal/wsrelay"
)

// Deps carries the runtime collaborators of the HTTP surface.
type Deps struct {
	Relay   *relay.Relay
	Local   api.TagLister
	Version string
	// Registry receives the relay collectors. A fresh registry is used when nil.
	Registry *prometheus.Registry
	Now      func() time.Time
}

// New constructs the HTTP handler for the server.
func New(cfg config.ServerConfig, deps Deps) http.Handler {
	r := chi.NewRouter()
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: cfg.AllowedOrigins,
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"*"},
		}))
	}
	for _, m := range api.MiddlewareChain() {
		r.Use(m)
	}

	preg := deps.Registry
	if preg == nil {
		preg = NewRegistry()
	}
	rl := deps.Relay
	if rl == nil {
		rl = relay.New(nil)
	}

	r.Get("/healthz", api.HealthzHandler())
	r.Get("/state", StatusHandler())
	r.Post("/predict", api.PredictHandler())
	r.Options("/predict", api.PredictHandler())

	r.Route("/api", func(ar chi.Router) {
		ar.Get("/openapi.json", api.OpenAPIHandler())
		ar.Get("/docs", api.SwaggerHandler())
		ar.Group(func(g chi.Router) {
			g.Use(api.APIKeyMiddleware(cfg.APIKey))
			g.Get("/state", api.StateHandler(deps.Version))
			g.Get("/models", api.ModelsHandler(rl, deps.Local))
			g.Post("/prompts/{kind}", api.PromptHandler(deps.Now))
		})
	})

	r.Group(func(g chi.Router) {
		g.Use(api.APIKeyMiddleware(cfg.APIKey))
		g.Get(cfg.WSPath, wsrelay.Handler(wsrelay.Options{
			Relay:          rl,
			RequestTimeout: cfg.RequestTimeout,
			OriginPatterns: originPatterns(cfg.AllowedOrigins),
			Now:            deps.Now,
		}))
		if cfg.MCP {
			g.Handle("/mcp", mcpserver.NewHandler(rl, deps.Version, cfg.RequestTimeout))
		}
	})

	if cfg.MetricsAddr == fmt.Sprintf(":%d", cfg.Port) {
		r.Handle("/metrics", promhttp.HandlerFor(preg, promhttp.HandlerOpts{}))
	}
	return r
}

// NewRegistry returns a registry holding the relay and runtime collectors.
func NewRegistry() *prometheus.Registry {
	preg := prometheus.NewRegistry()
	preg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	metrics.Register(preg)
	return preg
}

// originPatterns converts CORS origins to websocket host patterns.
func originPatterns(origins []string) []string {
	var out []string
	for _, o := range origins {
		if o == "*" {
			return nil
		}
		if u, err := url.Parse(o); err == nil && u.Host != "" {
			out = append(out, u.Host)
			continue
		}
		out = append(out, o)
	}
	return out
}
