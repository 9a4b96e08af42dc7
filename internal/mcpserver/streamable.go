// Package mcpserver exposes the prediction relay as an MCP tool over the
// streamable HTTP transport.
package mcpserver

import (
	"context"
	"net/http"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	sdkserver "github.com/mark3labs/mcp-go/server"

	"github.com/gaspardpetit/augur/core/logx"
	"github.com/gaspardpetit/augur/internal/metrics"
	"github.com/gaspardpetit/augur/internal/relay"
	"github.com/gaspardpetit/augur/internal/serverstate"
)

// PredictTool describes the predict tool.
func PredictTool() mcp.Tool {
	return mcp.NewTool("predict",
		mcp.WithDescription("Generate a fortune-telling reading with the selected model and return the full text."),
		mcp.WithString("model", mcp.Required(), mcp.Description("Model identifier, e.g. ollama/qwen2.5, gpt-4o or anthropic.claude-3-haiku-20240307-v1:0")),
		mcp.WithString("prompt", mcp.Required(), mcp.Description("Prompt to send to the model")),
	)
}

// PredictHandler runs one relay invocation and collects its response events
// into a single text result.
func PredictHandler(rl *relay.Relay, timeout time.Duration) sdkserver.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		model, err := req.RequireString("model")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		prompt, err := req.RequireString("prompt")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if serverstate.IsDraining() {
			return mcp.NewToolResultError("Server is shutting down"), nil
		}
		end := serverstate.Begin()
		defer end()
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		metrics.RecordConnection("mcp")

		col := &relay.Collector{}
		if err := rl.Handle(ctx, relay.Request{Model: model, Prompt: prompt}, col); err != nil {
			logx.Log.Debug().Err(err).Str("model", model).Msg("mcp predict failed")
		}
		if msg, failed := col.ErrorMessage(); failed {
			return mcp.NewToolResultError(msg), nil
		}
		return mcp.NewToolResultText(col.Text()), nil
	}
}

// NewHandler constructs the streamable HTTP MCP handler with the predict
// tool registered.
func NewHandler(rl *relay.Relay, version string, timeout time.Duration) http.Handler {
	srv := sdkserver.NewMCPServer(
		"augur",
		version,
		sdkserver.WithToolCapabilities(false),
		sdkserver.WithRecovery(),
	)
	srv.AddTool(PredictTool(), PredictHandler(rl, timeout))
	return sdkserver.NewStreamableHTTPServer(srv)
}
