package wsrelay

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/gaspardpetit/augur/internal/prompt"
	"github.com/gaspardpetit/augur/internal/relay"
)

// ActionPredict is the only action clients may send.
const ActionPredict = "predict"

var (
	ErrBadMessage    = errors.New("invalid message")
	ErrUnknownAction = errors.New("unknown action")
	ErrMissingPrompt = errors.New("missing prompt")
)

// clientMessage is the frame a browser sends on the connection. Form is an
// alternative to Prompt: the prompt is then rendered server side.
type clientMessage struct {
	Action  string          `json:"action"`
	Model   string          `json:"model"`
	Prompt  string          `json:"prompt"`
	Context []relay.Message `json:"context,omitempty"`
	Form    *prompt.Form    `json:"form,omitempty"`
}

// ParseMessage decodes one client frame into a relay request.
func ParseMessage(data []byte, now time.Time) (relay.Request, error) {
	var m clientMessage
	if err := json.Unmarshal(data, &m); err != nil {
		return relay.Request{}, fmt.Errorf("%w: %v", ErrBadMessage, err)
	}
	if m.Action != ActionPredict {
		return relay.Request{}, fmt.Errorf("%w: %q", ErrUnknownAction, m.Action)
	}
	req := relay.Request{Model: m.Model, Prompt: m.Prompt, Context: m.Context}
	if m.Form != nil {
		p, err := prompt.Build(*m.Form, now)
		if err != nil {
			return relay.Request{}, err
		}
		req.Prompt = p
	}
	if req.Prompt == "" {
		return relay.Request{}, ErrMissingPrompt
	}
	return req, nil
}

// RejectMessage renders a parse failure as the message shown to the client.
func RejectMessage(err error) string {
	switch {
	case errors.Is(err, ErrUnknownAction):
		return "Unknown action"
	case errors.Is(err, ErrBadMessage):
		return "Invalid message format"
	case errors.Is(err, ErrMissingPrompt):
		return "Prompt is required"
	default:
		return err.Error()
	}
}
