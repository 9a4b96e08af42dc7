package api

import (
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

func TestRequestIDMiddleware(t *testing.T) {
	chain := MiddlewareChain()
	var captured string
	var h http.Handler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured = chiMiddleware.GetReqID(r.Context())
	})
	for i := len(chain) - 1; i >= 0; i-- {
		h = chain[i](h)
	}
	rr := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	h.ServeHTTP(rr, req)
	if captured == "" {
		t.Fatalf("missing request id")
	}
}

func TestAPIKeyMiddleware(t *testing.T) {
	h := APIKeyMiddleware("sekret")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	tests := []struct {
		name   string
		header string
		query  string
		want   int
	}{
		{"missing", "", "", http.StatusUnauthorized},
		{"wrong header", "Bearer nope", "", http.StatusUnauthorized},
		{"not bearer", "sekret", "", http.StatusUnauthorized},
		{"header", "Bearer sekret", "", http.StatusOK},
		{"query param", "", "Bearer sekret", http.StatusOK},
		{"wrong query param", "", "Bearer nope", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		target := "/ws"
		if tt.query != "" {
			target += "?Authorization=" + url.QueryEscape(tt.query)
		}
		req := httptest.NewRequest(http.MethodGet, target, nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rr := httptest.NewRecorder()
		h.ServeHTTP(rr, req)
		if rr.Code != tt.want {
			t.Fatalf("%s: expected %d, got %d", tt.name, tt.want, rr.Code)
		}
		if tt.want == http.StatusUnauthorized && rr.Body.String() != "{\"error\":\"unauthorized\"}\n" {
			t.Fatalf("%s: body %q", tt.name, rr.Body.String())
		}
	}

	// no key configured
	h = APIKeyMiddleware("")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
}
