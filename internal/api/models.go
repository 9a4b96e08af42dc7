package api

import (
	"context"
	"net/http"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/relay"
)

// TagLister lists locally installed models.
type TagLister interface {
	Tags(ctx context.Context) ([]string, error)
}

type providerInfo struct {
	Kind  string `json:"kind"`
	Label string `json:"label"`
}

// ModelsResponse is returned by GET /api/models.
type ModelsResponse struct {
	Providers []providerInfo `json:"providers"`
	Models    []string       `json:"models"`
}

// ModelsHandler lists the configured providers and, when a local inference
// server is configured, its models as selectable identifiers.
func ModelsHandler(rl *relay.Relay, local TagLister) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		resp := ModelsResponse{Providers: []providerInfo{}, Models: []string{}}
		for _, k := range relay.Kinds {
			if rl.Supports(k) {
				resp.Providers = append(resp.Providers, providerInfo{Kind: k.String(), Label: k.Label()})
			}
		}
		if local != nil && rl.Supports(relay.KindLocal) {
			tags, err := local.Tags(r.Context())
			if err != nil {
				logx.Log.Warn().Err(err).Msg("list local models")
			}
			for _, t := range tags {
				resp.Models = append(resp.Models, "ollama/"+t)
			}
		}
		writeJSON(w, http.StatusOK, resp)
	}
}
