package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/gaspardpetit/augur/internal/prompt"
)

// PromptHandler renders the prompt for the form kind named in the path.
func PromptHandler(now func() time.Time) http.HandlerFunc {
	if now == nil {
		now = time.Now
	}
	return func(w http.ResponseWriter, r *http.Request) {
		var f prompt.Form
		if err := decodeValidated(r, "PromptForm", &f); err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		f.Kind = prompt.Kind(chi.URLParam(r, "kind"))
		p, err := prompt.Build(f, now())
		switch {
		case errors.Is(err, prompt.ErrUnknownKind):
			writeError(w, http.StatusNotFound, err.Error())
		case err != nil:
			writeError(w, http.StatusBadRequest, err.Error())
		default:
			writeJSON(w, http.StatusOK, map[string]string{"prompt": p})
		}
	}
}
