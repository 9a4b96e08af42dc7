package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/relay"
)

// DefaultMaxTokens is used when no limit is configured.
const DefaultMaxTokens = 4096

const anthropicVersion = "bedrock-2023-05-31"

type decodeFunc func([]byte) (relay.Fragment, bool, error)

// pump reads chunks until exhaustion and reports how many fragments were
// emitted.
func pump(ctx context.Context, inv Invoker, modelID string, body []byte, decode decodeFunc, emit relay.EmitFunc) (int, error) {
	cs, err := inv.InvokeStream(ctx, modelID, body)
	if err != nil {
		return 0, fmt.Errorf("invoke %s: %w", modelID, err)
	}
	defer func() {
		_ = cs.Close()
	}()
	n := 0
	for {
		b, err := cs.Next(ctx)
		if errors.Is(err, io.EOF) {
			return n, nil
		}
		if err != nil {
			return n, fmt.Errorf("read %s stream: %w", modelID, err)
		}
		frag, ok, err := decode(b)
		if err != nil {
			logx.Log.Warn().Err(err).Str("model", modelID).Msg("skip malformed chunk")
			continue
		}
		if !ok {
			continue
		}
		if err := emit(frag); err != nil {
			return n, err
		}
		n++
	}
}

func maxTokens(n int) int {
	if n <= 0 {
		return DefaultMaxTokens
	}
	return n
}

// Claude streams Anthropic models hosted on Bedrock.
type Claude struct {
	inv       Invoker
	maxTokens int
}

func NewClaude(inv Invoker, maxTokens int) *Claude {
	return &Claude{inv: inv, maxTokens: maxTokens}
}

type claudeMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type claudeBody struct {
	AnthropicVersion string          `json:"anthropic_version"`
	MaxTokens        int             `json:"max_tokens"`
	Messages         []claudeMessage `json:"messages"`
}

// ClaudeBody builds the InvokeModel body for req.
func ClaudeBody(req relay.Request, limit int) ([]byte, error) {
	body := claudeBody{AnthropicVersion: anthropicVersion, MaxTokens: maxTokens(limit)}
	for _, m := range req.History() {
		body.Messages = append(body.Messages, claudeMessage{Role: m.Role, Content: m.Content})
	}
	body.Messages = append(body.Messages, claudeMessage{Role: "user", Content: req.Prompt})
	return json.Marshal(body)
}

func (c *Claude) Stream(ctx context.Context, req relay.Request, emit relay.EmitFunc) error {
	body, err := ClaudeBody(req, c.maxTokens)
	if err != nil {
		return err
	}
	_, err = pump(ctx, c.inv, req.Model, body, DecodeClaudeChunk, emit)
	return err
}

// Nova streams Amazon Nova models. A stream that produced no text is
// reported as relay.ErrNoOutput.
type Nova struct {
	inv       Invoker
	maxTokens int
}

func NewNova(inv Invoker, maxTokens int) *Nova {
	return &Nova{inv: inv, maxTokens: maxTokens}
}

type novaText struct {
	Text string `json:"text"`
}

type novaMessage struct {
	Role    string     `json:"role"`
	Content []novaText `json:"content"`
}

type novaBody struct {
	SchemaVersion   string        `json:"schemaVersion"`
	Messages        []novaMessage `json:"messages"`
	InferenceConfig struct {
		MaxTokens int `json:"maxTokens"`
	} `json:"inferenceConfig"`
}

// NovaBody builds the InvokeModel body for req.
func NovaBody(req relay.Request, limit int) ([]byte, error) {
	body := novaBody{SchemaVersion: "messages-v1"}
	body.InferenceConfig.MaxTokens = maxTokens(limit)
	for _, m := range req.History() {
		body.Messages = append(body.Messages, novaMessage{Role: m.Role, Content: []novaText{{Text: m.Content}}})
	}
	body.Messages = append(body.Messages, novaMessage{Role: "user", Content: []novaText{{Text: req.Prompt}}})
	return json.Marshal(body)
}

func (n *Nova) Stream(ctx context.Context, req relay.Request, emit relay.EmitFunc) error {
	body, err := NovaBody(req, n.maxTokens)
	if err != nil {
		return err
	}
	produced, err := pump(ctx, n.inv, req.Model, body, DecodeNovaChunk, emit)
	if err != nil {
		return err
	}
	if produced == 0 {
		return relay.ErrNoOutput
	}
	return nil
}
