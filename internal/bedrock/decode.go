package bedrock

import (
	"encoding/json"
	"fmt"

	"github.com/gaspardpetit/augur/internal/relay"
)

type claudeChunk struct {
	Type  string `json:"type"`
	Delta struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"delta"`
}

// DecodeClaudeChunk extracts text from an Anthropic messages stream chunk.
// Only content_block_delta events with a text_delta carry text.
func DecodeClaudeChunk(b []byte) (relay.Fragment, bool, error) {
	var c claudeChunk
	if err := json.Unmarshal(b, &c); err != nil {
		return relay.Fragment{}, false, fmt.Errorf("decode claude chunk: %w", err)
	}
	if c.Type != "content_block_delta" || c.Delta.Type != "text_delta" {
		return relay.Fragment{}, false, nil
	}
	return relay.Fragment{Text: c.Delta.Text}, true, nil
}

type novaChunk struct {
	ContentBlockDelta *struct {
		Delta struct {
			Text string `json:"text"`
		} `json:"delta"`
	} `json:"contentBlockDelta"`
}

// DecodeNovaChunk extracts contentBlockDelta.delta.text from a Nova stream
// chunk. Chunks without text are skipped.
func DecodeNovaChunk(b []byte) (relay.Fragment, bool, error) {
	var c novaChunk
	if err := json.Unmarshal(b, &c); err != nil {
		return relay.Fragment{}, false, fmt.Errorf("decode nova chunk: %w", err)
	}
	if c.ContentBlockDelta == nil || c.ContentBlockDelta.Delta.Text == "" {
		return relay.Fragment{}, false, nil
	}
	return relay.Fragment{Text: c.ContentBlockDelta.Delta.Text}, true, nil
}
