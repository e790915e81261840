package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"google.golang.org/api/option"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/agent/calendar"
	"github.com/m4xw311/steward/agent/email"
	"github.com/m4xw311/steward/agent/mcpagent"
	"github.com/m4xw311/steward/config"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/intent"
	"github.com/m4xw311/steward/llm"
	"github.com/m4xw311/steward/workspace"
)

// app is the assistant assembled from configuration.
type app struct {
	manager  *agent.Manager
	registry *agent.Registry
	base     llm.CompletionProvider
}

// Close shuts down the agents, then the provider if it holds a connection.
func (a *app) Close() error {
	err := a.registry.Close()
	if c, ok := a.base.(io.Closer); ok {
		if cerr := c.Close(); err == nil {
			err = cerr
		}
	}
	return err
}

// newApp builds the provider, the agents and the Manager routing to them.
// OAuth consent prompts, if any, are written to consentOut.
func newApp(ctx context.Context, cfg *config.Config, consentOut io.Writer) (*app, error) {
	base, err := llm.New(ctx, cfg.LLMClient, cfg.Model)
	if err != nil {
		return nil, err
	}
	return assemble(ctx, cfg, base, consentOut)
}

// assemble wires the agents around base. base is closed if assembly fails.
func assemble(ctx context.Context, cfg *config.Config, base llm.CompletionProvider, consentOut io.Writer) (*app, error) {
	a := &app{registry: agent.NewRegistry(), base: base}
	provider := llm.WithRetry(llm.WithTimeout(base, cfg.Timeout), llm.RetryPolicy{
		MaxAttempts:     cfg.Retry.MaxAttempts,
		InitialInterval: cfg.Retry.InitialInterval,
		MaxInterval:     cfg.Retry.MaxInterval,
	})

	b := &builder{cfg: cfg, provider: provider, consentOut: consentOut}
	for _, name := range cfg.AgentNames() {
		ag, err := b.agent(ctx, name, cfg.Agents[name])
		if err != nil {
			a.Close()
			return nil, err
		}
		if err := a.registry.Register(intent.Intent(name), ag); err != nil {
			a.Close()
			return nil, errors.Fatal(err, "config: cannot register agent %q", name)
		}
	}

	detector := intent.NewDetector(provider, llm.Options{Model: cfg.IntentModel}, a.registry.Intents()...)
	slog.Default().With("component", "app").Info("assistant ready",
		"llm", cfg.LLMClient, "model", cfg.Model, "intents", a.registry.Intents())
	a.manager = agent.NewManager(detector, a.registry)
	return a, nil
}

type builder struct {
	cfg        *config.Config
	provider   llm.CompletionProvider
	consentOut io.Writer
	auth       *workspace.Auth
}

func (b *builder) agent(ctx context.Context, name string, ac config.AgentConfig) (agent.Agent, error) {
	switch ac.Backend {
	case config.BackendStub:
		reply := ac.Reply
		if reply == "" {
			reply = fmt.Sprintf("%s agent invoked", titleCase(name))
		}
		return agent.Static(reply), nil
	case config.BackendMCP:
		return mcpagent.Start(ctx, name, ac.Tool, ac.Command, ac.Args, b.cfg.Timeout)
	case config.BackendGoogle:
		return b.googleAgent(ctx, name, ac)
	default:
		return nil, errors.Fatal(nil, "config: agent %q has unknown backend %q", name, ac.Backend)
	}
}

func (b *builder) googleAgent(ctx context.Context, name string, ac config.AgentConfig) (agent.Agent, error) {
	if b.auth == nil {
		auth, err := workspace.NewAuth(b.cfg.Google, b.consentOut)
		if err != nil {
			return nil, err
		}
		b.auth = auth
	}
	opts := llm.Options{Temperature: llm.Float(b.cfg.Temperature)}

	switch intent.Intent(name) {
	case intent.Email:
		client, err := b.auth.Client(ctx, "gmail", workspace.GmailScopes...)
		if err != nil {
			return nil, err
		}
		mailbox, err := workspace.NewGmailMailbox(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, err
		}
		return email.New(b.provider, mailbox,
			email.WithOptions(opts),
			email.WithTimeout(b.cfg.Timeout),
			email.WithAllowedRecipients(ac.AllowedRecipients...))
	case intent.Calendar:
		client, err := b.auth.Client(ctx, "calendar", workspace.CalendarScopes...)
		if err != nil {
			return nil, err
		}
		cal, err := workspace.NewGoogleCalendar(ctx, option.WithHTTPClient(client))
		if err != nil {
			return nil, err
		}
		return calendar.New(b.provider, cal,
			calendar.WithOptions(opts),
			calendar.WithTimeout(b.cfg.Timeout)), nil
	default:
		return nil, errors.Fatal(nil, "config: intent %q has no google backend; use stub or mcp", name)
	}
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
