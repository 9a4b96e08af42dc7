// Package wsrelay serves the browser websocket endpoint: each predict frame
// is relayed to a model and the normalized events are written back on the
// same connection.
package wsrelay

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/google/uuid"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/metrics"
	"github.com/gaspardpetit/augur/internal/relay"
	"github.com/gaspardpetit/augur/internal/serverstate"
)

// Options configures the websocket handler.
type Options struct {
	Relay          *relay.Relay
	RequestTimeout time.Duration
	// OriginPatterns restricts cross-origin upgrades. Empty accepts any origin.
	OriginPatterns []string
	Now            func() time.Time
}

type connSink struct {
	c *websocket.Conn
}

func (s connSink) Send(ctx context.Context, ev relay.Event) error {
	b, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return s.c.Write(ctx, websocket.MessageText, b)
}

// Handler returns the websocket endpoint. Requests on one connection are
// served one at a time in arrival order.
func Handler(opts Options) http.HandlerFunc {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	accept := &websocket.AcceptOptions{OriginPatterns: opts.OriginPatterns}
	if len(opts.OriginPatterns) == 0 {
		accept.InsecureSkipVerify = true
	}
	return func(w http.ResponseWriter, r *http.Request) {
		if serverstate.IsDraining() {
			http.Error(w, "draining", http.StatusServiceUnavailable)
			return
		}
		c, err := websocket.Accept(w, r, accept)
		if err != nil {
			return
		}
		connID := uuid.NewString()
		log := logx.Log.With().Str("conn_id", connID).Logger()
		metrics.RecordConnection("websocket")
		log.Info().Str("remote", r.RemoteAddr).Msg("connected")
		defer func() {
			_ = c.Close(websocket.StatusInternalError, "server error")
		}()

		ctx := r.Context()
		sink := connSink{c: c}
		for {
			_, data, err := c.Read(ctx)
			if err != nil {
				var ce websocket.CloseError
				if errors.As(err, &ce) {
					lvl := log.Info()
					if ce.Code != websocket.StatusNormalClosure && ce.Code != websocket.StatusGoingAway {
						lvl = log.Warn()
					}
					lvl.Int("code", int(ce.Code)).Str("reason", ce.Reason).Msg("disconnected")
				} else {
					log.Debug().Err(err).Msg("disconnected")
				}
				return
			}
			req, err := ParseMessage(data, now())
			if err != nil {
				log.Warn().Err(err).Msg("rejected message")
				if werr := sink.Send(ctx, relay.ErrorEvent(RejectMessage(err))); werr != nil {
					return
				}
				continue
			}
			if serverstate.IsDraining() {
				_ = sink.Send(ctx, relay.ErrorEvent("Server is shutting down"))
				_ = c.Close(websocket.StatusGoingAway, "draining")
				return
			}
			serve(ctx, opts, req, sink)
		}
	}
}

func serve(ctx context.Context, opts Options, req relay.Request, sink relay.Sink) {
	end := serverstate.Begin()
	defer end()
	if opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, opts.RequestTimeout)
		defer cancel()
	}
	// Failures were already reported to the client as an error event.
	_ = opts.Relay.Handle(ctx, req, sink)
}
