// Package mcp exposes the assistant to MCP clients as a single tool,
// "assistant", taking the user's request in natural language.
package mcp

import (
	"context"
	"log/slog"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
)

// ToolName is the name the assistant is published under.
const ToolName = "assistant"

type askInput struct {
	Request string `json:"request" jsonschema:"the request, e.g. 'what is on my calendar tomorrow?'"`
}

// NewServer returns an MCP server answering tool calls with h.
func NewServer(h agent.Handler, version string) *mcpsdk.Server {
	log := slog.Default().With("component", "mcp")
	server := mcpsdk.NewServer(&mcpsdk.Implementation{Name: "steward", Version: version}, nil)
	mcpsdk.AddTool(server, &mcpsdk.Tool{
		Name:        ToolName,
		Description: "Personal assistant for email and calendar. Pass the user's request as text.",
	}, func(ctx context.Context, ss *mcpsdk.ServerSession, params *mcpsdk.CallToolParamsFor[askInput]) (*mcpsdk.CallToolResultFor[any], error) {
		req := agent.NewRequest(params.Arguments.Request)
		resp, err := h.Handle(ctx, req)
		if err != nil {
			log.WarnContext(ctx, "request failed", "request_id", req.ID, "error", err)
			return &mcpsdk.CallToolResultFor[any]{
				IsError: true,
				Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: errors.Message(err)}},
			}, nil
		}
		return &mcpsdk.CallToolResultFor[any]{
			Content: []mcpsdk.Content{&mcpsdk.TextContent{Text: resp.Text}},
		}, nil
	})
	return server
}

// Serve runs the server on stdin/stdout until ctx is done or the client
// disconnects.
func Serve(ctx context.Context, h agent.Handler, version string) error {
	if err := NewServer(h, version).Run(ctx, mcpsdk.NewStdioTransport()); err != nil && ctx.Err() == nil {
		return errors.Wrapf(err, "mcp server stopped")
	}
	return nil
}
