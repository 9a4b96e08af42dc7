package relay

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/metrics"
)

var (
	// ErrUnsupportedModel is returned when a model identifier matches no provider.
	ErrUnsupportedModel = errors.New("unsupported model")
	// ErrNoOutput is returned by providers that treat an empty stream as a failure.
	ErrNoOutput = errors.New("no output from provider")
	// ErrProviderPanic wraps a panic raised inside a provider.
	ErrProviderPanic = errors.New("provider panic")
)

// errorSendTimeout bounds the best-effort delivery of an error event after
// the invocation context is gone.
const errorSendTimeout = 5 * time.Second

// Relay bridges one client request to one upstream provider and republishes
// the upstream text as normalized events.
type Relay struct {
	providers map[Kind]Provider
}

// New returns a Relay dispatching to the given providers. Kinds without an
// entry are treated as unsupported.
func New(providers map[Kind]Provider) *Relay {
	m := make(map[Kind]Provider, len(providers))
	for k, p := range providers {
		if p != nil {
			m[k] = p
		}
	}
	return &Relay{providers: m}
}

// Supports reports whether a provider is configured for kind.
func (r *Relay) Supports(k Kind) bool {
	_, ok := r.providers[k]
	return ok
}

// Handle runs one invocation. Exactly one terminal event is sent to sink
// unless the sink itself is unreachable. A non-nil error marks the
// invocation as failed; it has already been reported to the client.
func (r *Relay) Handle(ctx context.Context, req Request, sink Sink) error {
	kind, upstream := Resolve(req.Model)
	log := logx.Log.With().Str("model", req.Model).Str("provider", kind.String()).Logger()

	start := time.Now()
	metrics.RelayStart()
	terminated, err := r.dispatch(ctx, kind, upstream, req, sink)
	metrics.RelayEnd(kind.String(), err == nil, time.Since(start))

	if err == nil {
		log.Debug().Dur("duration", time.Since(start)).Msg("relay complete")
		return nil
	}
	log.Error().Err(err).Bool("terminated", terminated).Msg("relay failed")
	if !terminated {
		sendCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), errorSendTimeout)
		defer cancel()
		if serr := sink.Send(sendCtx, ErrorEvent(ClientMessage(kind, req.Model, err))); serr != nil {
			log.Warn().Err(serr).Msg("send error event")
		}
	}
	return err
}

func (r *Relay) dispatch(ctx context.Context, kind Kind, upstream string, req Request, sink Sink) (terminated bool, err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("%w: %v", ErrProviderPanic, p)
		}
	}()

	p, ok := r.providers[kind]
	if !ok {
		return false, fmt.Errorf("%w: %q", ErrUnsupportedModel, req.Model)
	}

	emit := func(f Fragment) error {
		if terminated {
			return nil
		}
		if err := sink.Send(ctx, ResponseEvent(f.Text, f.Done)); err != nil {
			return fmt.Errorf("send response: %w", err)
		}
		metrics.RecordFragment(kind.String())
		terminated = f.Done
		return nil
	}

	upReq := req
	upReq.Model = upstream
	if err := p.Stream(ctx, upReq, emit); err != nil {
		return terminated, err
	}
	if !terminated {
		if err := emit(Fragment{Done: true}); err != nil {
			return false, err
		}
	}
	return true, nil
}

// ClientMessage renders err as the opaque string shown to the user.
func ClientMessage(kind Kind, model string, err error) string {
	switch {
	case errors.Is(err, ErrUnsupportedModel):
		return fmt.Sprintf("Unsupported model: %s", model)
	case errors.Is(err, ErrNoOutput):
		return fmt.Sprintf("No response generated from %s model", kind.Label())
	case errors.Is(err, context.DeadlineExceeded):
		return "Request timed out"
	case errors.Is(err, context.Canceled):
		return "Request cancelled"
	default:
		return err.Error()
	}
}
