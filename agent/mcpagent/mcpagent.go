// Package mcpagent serves an intent with a tool of an external MCP
// server. Each request is passed to the tool as {"request": text}.
package mcpagent

import (
	"context"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/errors"
)

// Agent forwards requests to one tool of a connected MCP server.
type Agent struct {
	name    string
	tool    string
	timeout time.Duration
	session *mcpsdk.ClientSession
	cmd     *exec.Cmd
	log     *slog.Logger
}

// Start launches command as an MCP server subprocess and connects to it.
// The subprocess's stderr is passed through.
func Start(ctx context.Context, name, tool, command string, args []string, timeout time.Duration) (*Agent, error) {
	cmd := exec.Command(command, args...)
	cmd.Stderr = os.Stderr
	a, err := Connect(ctx, name, tool, mcpsdk.NewCommandTransport(cmd), timeout)
	if err != nil {
		if cmd.Process != nil {
			cmd.Process.Kill()
		}
		return nil, err
	}
	a.cmd = cmd
	return a, nil
}

// Connect opens a session over t and checks that the server offers tool.
func Connect(ctx context.Context, name, tool string, t mcpsdk.Transport, timeout time.Duration) (*Agent, error) {
	client := mcpsdk.NewClient(&mcpsdk.Implementation{Name: "steward", Version: "v1.0.0"}, nil)
	session, err := client.Connect(ctx, t)
	if err != nil {
		return nil, errors.Fatal(err, "failed to connect to MCP server for %q", name)
	}

	found := false
	params := &mcpsdk.ListToolsParams{}
	for !found {
		list, err := session.ListTools(ctx, params)
		if err != nil {
			session.Close()
			return nil, errors.Fatal(err, "failed to list tools of MCP server for %q", name)
		}
		for _, t := range list.Tools {
			if t.Name == tool {
				found = true
				break
			}
		}
		if list.NextCursor == "" {
			break
		}
		params.Cursor = list.NextCursor
	}
	if !found {
		session.Close()
		return nil, errors.Fatal(nil, "MCP server for %q has no tool %q", name, tool)
	}

	log := slog.Default().With("component", "agent.mcp", "intent", name)
	log.Info("connected to MCP server", "tool", tool)
	return &Agent{
		name:    name,
		tool:    tool,
		timeout: timeout,
		session: session,
		log:     log,
	}, nil
}

func (a *Agent) Process(ctx context.Context, req agent.Request) (agent.Response, error) {
	if req.Empty() {
		return agent.Response{}, agent.ErrEmptyRequest()
	}

	var res *mcpsdk.CallToolResult
	err := agent.CallWithTimeout(ctx, a.timeout, "calling "+a.tool, func(ctx context.Context) error {
		var err error
		res, err = a.session.CallTool(ctx, &mcpsdk.CallToolParams{
			Name:      a.tool,
			Arguments: map[string]any{"request": req.Text},
		})
		return err
	})
	if err != nil {
		if errors.IsTransient(err) {
			return agent.Response{}, err
		}
		return agent.Response{}, errors.Transient(err, "the %s service is unavailable", a.name)
	}

	text := textOf(res)
	if res.IsError {
		a.log.WarnContext(ctx, "tool reported an error", "request_id", req.ID, "error", text)
		return agent.Response{}, errors.Transient(errors.New("%s", text), "the %s service failed", a.name)
	}
	return agent.Response{Text: text}, nil
}

// Close ends the session and stops the subprocess, if any.
func (a *Agent) Close() error {
	err := a.session.Close()
	if a.cmd != nil && a.cmd.Process != nil {
		a.log.Info("terminating MCP server")
		if kerr := a.cmd.Process.Kill(); kerr != nil && !errors.Is(kerr, os.ErrProcessDone) {
			return errors.Wrapf(kerr, "stopping MCP server for %q", a.name)
		}
	}
	return err
}

func textOf(res *mcpsdk.CallToolResult) string {
	var sb strings.Builder
	for _, c := range res.Content {
		if tc, ok := c.(*mcpsdk.TextContent); ok {
			sb.WriteString(tc.Text)
		}
	}
	return sb.String()
}
