// Package lambdaws hosts the relay behind an API Gateway websocket API.
// Events are pushed back to the caller through the management API.
package lambdaws

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi"
	"github.com/aws/aws-sdk-go-v2/service/apigatewaymanagementapi/types"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/metrics"
	"github.com/gaspardpetit/augur/internal/relay"
	"github.com/gaspardpetit/augur/internal/wsrelay"
)

// ErrGone is returned when the client connection no longer exists.
var ErrGone = errors.New("connection gone")

// Poster is the subset of the management API used to reach clients.
type Poster interface {
	PostToConnection(ctx context.Context, in *apigatewaymanagementapi.PostToConnectionInput, optFns ...func(*apigatewaymanagementapi.Options)) (*apigatewaymanagementapi.PostToConnectionOutput, error)
}

// PosterFactory returns a Poster bound to a management API endpoint.
type PosterFactory func(endpoint string) Poster

// NewPosterFactory builds management API clients from an AWS config.
func NewPosterFactory(cfg aws.Config) PosterFactory {
	return func(endpoint string) Poster {
		return apigatewaymanagementapi.NewFromConfig(cfg, func(o *apigatewaymanagementapi.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
}

// Endpoint returns the management API URL for the API that raised ev.
func Endpoint(rc events.APIGatewayWebsocketProxyRequestContext) string {
	return fmt.Sprintf("https://%s/%s", rc.DomainName, rc.Stage)
}

type connectionSink struct {
	poster Poster
	connID string
}

func (s connectionSink) Send(ctx context.Context, ev relay.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	_, err = s.poster.PostToConnection(ctx, &apigatewaymanagementapi.PostToConnectionInput{
		ConnectionId: aws.String(s.connID),
		Data:         b,
	})
	var gone *types.GoneException
	if errors.As(err, &gone) {
		return fmt.Errorf("%w: %s", ErrGone, s.connID)
	}
	return err
}

// Handler routes API Gateway websocket events.
type Handler struct {
	Relay   *relay.Relay
	Posters PosterFactory
	Timeout time.Duration
	Now     func() time.Time
}

func reply(status int) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{StatusCode: status, Body: http.StatusText(status)}
}

// Handle serves one websocket route invocation.
func (h *Handler) Handle(ctx context.Context, ev events.APIGatewayWebsocketProxyRequest) (events.APIGatewayProxyResponse, error) {
	rc := ev.RequestContext
	log := logx.Log.With().Str("conn_id", rc.ConnectionID).Str("route", rc.RouteKey).Logger()
	switch rc.RouteKey {
	case "$connect":
		metrics.RecordConnection("apigateway")
		log.Info().Msg("connected")
		return reply(http.StatusOK), nil
	case "$disconnect":
		log.Info().Msg("disconnected")
		return reply(http.StatusOK), nil
	}

	sink := connectionSink{poster: h.Posters(Endpoint(rc)), connID: rc.ConnectionID}
	now := h.Now
	if now == nil {
		now = time.Now
	}
	req, err := wsrelay.ParseMessage([]byte(ev.Body), now())
	if err != nil {
		log.Warn().Err(err).Msg("rejected message")
		if serr := sink.Send(ctx, relay.ErrorEvent(wsrelay.RejectMessage(err))); serr != nil {
			log.Warn().Err(serr).Msg("send error event")
		}
		return reply(http.StatusBadRequest), nil
	}

	if h.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.Timeout)
		defer cancel()
	}
	if err := h.Relay.Handle(ctx, req, sink); err != nil {
		return reply(http.StatusInternalServerError), nil
	}
	return reply(http.StatusOK), nil
}
