package ollama

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/relay"
)

// ErrUpstream marks an error reported by the Ollama server itself.
var ErrUpstream = errors.New("ollama")

const maxLineSize = 1 << 20

type generateChunk struct {
	Response string `json:"response"`
	Done     bool   `json:"done"`
	Error    string `json:"error"`
}

// DecodeLine decodes one NDJSON line of a /api/generate stream. Blank lines
// yield ok=false. An {"error":...} line is returned as ErrUpstream.
func DecodeLine(line []byte) (frag relay.Fragment, ok bool, err error) {
	line = bytes.TrimSpace(line)
	if len(line) == 0 {
		return relay.Fragment{}, false, nil
	}
	var c generateChunk
	if err := json.Unmarshal(line, &c); err != nil {
		return relay.Fragment{}, false, fmt.Errorf("decode line: %w", err)
	}
	if c.Error != "" {
		return relay.Fragment{}, false, fmt.Errorf("%w: %s", ErrUpstream, c.Error)
	}
	return relay.Fragment{Text: c.Response, Done: c.Done}, true, nil
}

// Provider streams completions from a local Ollama server.
type Provider struct {
	client *Client
}

func NewProvider(c *Client) *Provider {
	return &Provider{client: c}
}

func (p *Provider) Stream(ctx context.Context, req relay.Request, emit relay.EmitFunc) error {
	rc, err := p.client.GenerateStream(ctx, GenerateRequest{Model: req.Model, Prompt: req.FlatPrompt()})
	if err != nil {
		return err
	}
	defer func() {
		_ = rc.Close()
	}()

	sc := bufio.NewScanner(rc)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	for sc.Scan() {
		frag, ok, err := DecodeLine(sc.Bytes())
		if err != nil {
			if errors.Is(err, ErrUpstream) {
				return err
			}
			logx.Log.Warn().Err(err).Str("model", req.Model).Msg("skip malformed ollama line")
			continue
		}
		if !ok {
			continue
		}
		if err := emit(frag); err != nil {
			return err
		}
		if frag.Done {
			return nil
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("ollama: read stream: %w", err)
	}
	return nil
}
