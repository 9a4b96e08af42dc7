package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/relay"
)

// Options configures the chat-completion provider.
type Options struct {
	Keys       KeySource
	BaseURL    string
	HTTPClient *http.Client
}

// Provider streams chat completions from the OpenAI API.
type Provider struct {
	opts Options
}

func NewProvider(opts Options) *Provider {
	return &Provider{opts: opts}
}

// DecodeChunk extracts choices[0].delta.content. Empty deltas are skipped.
func DecodeChunk(resp goopenai.ChatCompletionStreamResponse) (relay.Fragment, bool) {
	if len(resp.Choices) == 0 || resp.Choices[0].Delta.Content == "" {
		return relay.Fragment{}, false
	}
	return relay.Fragment{Text: resp.Choices[0].Delta.Content}, true
}

// Messages converts req into the chat message list.
func Messages(req relay.Request) []goopenai.ChatCompletionMessage {
	hist := req.History()
	msgs := make([]goopenai.ChatCompletionMessage, 0, len(hist)+1)
	for _, m := range hist {
		msgs = append(msgs, goopenai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	return append(msgs, goopenai.ChatCompletionMessage{Role: goopenai.ChatMessageRoleUser, Content: req.Prompt})
}

func (p *Provider) client(ctx context.Context) (*goopenai.Client, error) {
	if p.opts.Keys == nil {
		return nil, ErrNoKey
	}
	key, err := p.opts.Keys.APIKey(ctx)
	if err != nil {
		return nil, fmt.Errorf("openai api key: %w", err)
	}
	cfg := goopenai.DefaultConfig(key)
	if p.opts.BaseURL != "" {
		cfg.BaseURL = p.opts.BaseURL
	}
	if p.opts.HTTPClient != nil {
		cfg.HTTPClient = p.opts.HTTPClient
	}
	return goopenai.NewClientWithConfig(cfg), nil
}

func (p *Provider) Stream(ctx context.Context, req relay.Request, emit relay.EmitFunc) error {
	c, err := p.client(ctx)
	if err != nil {
		return err
	}
	stream, err := c.CreateChatCompletionStream(ctx, goopenai.ChatCompletionRequest{
		Model:    req.Model,
		Messages: Messages(req),
		Stream:   true,
	})
	if err != nil {
		return fmt.Errorf("openai stream: %w", err)
	}
	defer stream.Close()
	for {
		resp, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return nil
		}
		var syn *json.SyntaxError
		var typ *json.UnmarshalTypeError
		if errors.As(err, &syn) || errors.As(err, &typ) {
			logx.Log.Warn().Err(err).Str("model", req.Model).Msg("skip malformed openai chunk")
			continue
		}
		if err != nil {
			return fmt.Errorf("openai stream: %w", err)
		}
		frag, ok := DecodeChunk(resp)
		if !ok {
			continue
		}
		if err := emit(frag); err != nil {
			return err
		}
	}
}
