package lambdaws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"testing"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"

	"github.com/gaspardpetit/augur/internal/relay"
)

type fakePoster struct {
	mu       sync.Mutex
	endpoint string
	conns    []string
	events   []relay.Event
	err      error
}

func (f *fakePoster) PostToConnection(ctx context.Context, in *apigatewaymanagementapi.PostToConnectionInput, _ ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var ev relay.Event
	if err := json.Unmarshal(in.Data, &ev); err != nil {
		return nil, err
	}
	f.conns = append(f.conns, aws.ToString(in.ConnectionId))
	f.events = append(f.events, ev)
	return &apigatewaymanagementapi.PostToConnectionOutput{}, nil
}

func newHandler(fp *fakePoster, p relay.Provider) *Handler {
	return &Handler{
		Relay: relay.New(map[relay.Kind]relay.Provider{relay.KindClaude: p}),
		Posters: func(endpoint string) Poster {
			fp.endpoint = endpoint
			return fp
		},
	}
}

func wsEvent(route, body string) events.APIGatewayWebsocketProxyRequest {
	return events.APIGatewayWebsocketProxyRequest{
		Body: body,
		RequestContext: events.APIGatewayWebsocketProxyRequestContext{
			RouteKey:     route,
			ConnectionID: "abc123=",
			DomainName:   "xyz.execute-api.us-east-1.amazonaws.com",
			Stage:        "prod",
		},
	}
}

func streamText(parts ...string) relay.Provider {
	return relay.ProviderFunc(func(ctx context.Context, req relay.Request, emit relay.EmitFunc) error {
		for _, s := range parts {
			if err := emit(relay.Fragment{Text: s}); err != nil {
				return err
			}
		}
		return nil
	})
}

func TestConnectAndDisconnect(t *testing.T) {
	fp := &fakePoster{}
	h := newHandler(fp, streamText())
	for _, route := range []string{"$connect", "$disconnect"} {
		resp, err := h.Handle(context.Background(), wsEvent(route, ""))
		if err != nil || resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: %+v %v", route, resp, err)
		}
	}
	if len(fp.events) != 0 {
		t.Fatalf("unexpected posts %+v", fp.events)
	}
}

func TestPredictPostsEventsToConnection(t *testing.T) {
	fp := &fakePoster{}
	h := newHandler(fp, streamText("紫微", "入命"))
	body := `{"action":"predict","model":"us.anthropic.claude-3-5-sonnet-20240620-v1:0","prompt":"x"}`
	resp, err := h.Handle(context.Background(), wsEvent("predict", body))
	if err != nil || resp.StatusCode != http.StatusOK {
		t.Fatalf("resp %+v %v", resp, err)
	}
	if fp.endpoint != "https://xyz.execute-api.us-east-1.amazonaws.com/prod" {
		t.Fatalf("endpoint = %q", fp.endpoint)
	}
	if len(fp.events) != 3 || fp.events[0].Content != "紫微" || !fp.events[2].Done {
		t.Fatalf("events = %+v", fp.events)
	}
	for _, c := range fp.conns {
		if c != "abc123=" {
			t.Fatalf("posted to %q", c)
		}
	}
}

func TestPredictFailureReturns500(t *testing.T) {
	fp := &fakePoster{}
	h := newHandler(fp, relay.ProviderFunc(func(context.Context, relay.Request, relay.EmitFunc) error {
		return errors.New("AccessDeniedException")
	}))
	resp, _ := h.Handle(context.Background(), wsEvent("predict", `{"action":"predict","model":"anthropic.claude-v2","prompt":"x"}`))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if len(fp.events) != 1 || fp.events[0].Type != relay.EventError {
		t.Fatalf("events = %+v", fp.events)
	}

	resp, _ = h.Handle(context.Background(), wsEvent("predict", `{"action":"predict","model":"foo-bar","prompt":"x"}`))
	if resp.StatusCode != http.StatusInternalServerError || fp.events[1].Message != "Unsupported model: foo-bar" {
		t.Fatalf("unsupported: %d %+v", resp.StatusCode, fp.events)
	}
}

func TestMalformedBody(t *testing.T) {
	fp := &fakePoster{}
	h := newHandler(fp, streamText("x"))
	resp, _ := h.Handle(context.Background(), wsEvent("$default", `{"action":"predict"`))
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status %d", resp.StatusCode)
	}
	if len(fp.events) != 1 || fp.events[0].Message != "Invalid message format" {
		t.Fatalf("events = %+v", fp.events)
	}
}

func TestGoneConnection(t *testing.T) {
	fp := &fakePoster{err: &types.GoneException{Message: aws.String("gone")}}
	sink := connectionSink{poster: fp, connID: "c1"}
	if err := sink.Send(context.Background(), relay.ResponseEvent("x", false)); !errors.Is(err, ErrGone) {
		t.Fatalf("err = %v", err)
	}
	h := newHandler(fp, streamText("x"))
	resp, _ := h.Handle(context.Background(), wsEvent("predict", `{"action":"predict","model":"anthropic.claude-v2","prompt":"x"}`))
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("status %d", resp.StatusCode)
	}
}
