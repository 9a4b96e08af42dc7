package relay

import (
	"context"
	"encoding/json"
	"strings"
)

// MaxContextMessages bounds the conversation history forwarded upstream.
const MaxContextMessages = 10

// Message is one prior conversation turn.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a single prediction request submitted by a client.
type Request struct {
	Model   string    `json:"model"`
	Prompt  string    `json:"prompt"`
	Context []Message `json:"context,omitempty"`
}

// History returns the most recent context messages with empty turns and
// unknown roles removed.
func (r Request) History() []Message {
	out := make([]Message, 0, len(r.Context))
	for _, m := range r.Context {
		role := strings.ToLower(strings.TrimSpace(m.Role))
		if m.Content == "" || (role != "user" && role != "assistant") {
			continue
		}
		out = append(out, Message{Role: role, Content: m.Content})
	}
	if len(out) > MaxContextMessages {
		out = out[len(out)-MaxContextMessages:]
	}
	return out
}

// FlatPrompt renders the history and prompt as a single text block for
// completion-style upstreams that take no message list.
func (r Request) FlatPrompt() string {
	hist := r.History()
	if len(hist) == 0 {
		return r.Prompt
	}
	var b strings.Builder
	for _, m := range hist {
		b.WriteString(m.Role)
		b.WriteString(": ")
		b.WriteString(m.Content)
		b.WriteString("\n\n")
	}
	b.WriteString("user: ")
	b.WriteString(r.Prompt)
	return b.String()
}

const (
	EventResponse = "response"
	EventError    = "error"
)

// Event is the provider-agnostic message delivered to the client.
type Event struct {
	Type    string
	Content string
	Done    bool
	Message string
}

// ResponseEvent builds a response event.
func ResponseEvent(content string, done bool) Event {
	return Event{Type: EventResponse, Content: content, Done: done}
}

// ErrorEvent builds an error event.
func ErrorEvent(msg string) Event {
	return Event{Type: EventError, Message: msg}
}

// Terminal reports whether ev ends the exchange.
func (e Event) Terminal() bool {
	return e.Type == EventError || e.Done
}

// MarshalJSON emits {type,content,done} for responses and {type,message}
// for errors.
func (e Event) MarshalJSON() ([]byte, error) {
	if e.Type == EventError {
		return json.Marshal(struct {
			Type    string `json:"type"`
			Message string `json:"message"`
		}{e.Type, e.Message})
	}
	return json.Marshal(struct {
		Type    string `json:"type"`
		Content string `json:"content"`
		Done    bool   `json:"done"`
	}{e.Type, e.Content, e.Done})
}

// UnmarshalJSON accepts either event shape.
func (e *Event) UnmarshalJSON(b []byte) error {
	var v struct {
		Type    string `json:"type"`
		Content string `json:"content"`
		Done    bool   `json:"done"`
		Message string `json:"message"`
	}
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*e = Event{Type: v.Type, Content: v.Content, Done: v.Done, Message: v.Message}
	return nil
}

// Fragment is one incremental piece of generated text. Done marks a
// fragment that also closes the stream.
type Fragment struct {
	Text string
	Done bool
}

// EmitFunc receives fragments in upstream arrival order.
type EmitFunc func(Fragment) error

// Provider streams a completion from one upstream backend. Implementations
// return nil on normal stream exhaustion; the relay appends the terminal
// event unless a Done fragment was already emitted.
type Provider interface {
	Stream(ctx context.Context, req Request, emit EmitFunc) error
}

// ProviderFunc adapts a function to Provider.
type ProviderFunc func(ctx context.Context, req Request, emit EmitFunc) error

func (f ProviderFunc) Stream(ctx context.Context, req Request, emit EmitFunc) error {
	return f(ctx, req, emit)
}

// Sink delivers events to the originating connection.
type Sink interface {
	Send(ctx context.Context, ev Event) error
}

// SinkFunc adapts a function to Sink.
type SinkFunc func(ctx context.Context, ev Event) error

func (f SinkFunc) Send(ctx context.Context, ev Event) error { return f(ctx, ev) }
