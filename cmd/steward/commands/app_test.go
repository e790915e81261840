package commands

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m4xw311/steward/agent"
	"github.com/m4xw311/steward/config"
	"github.com/m4xw311/steward/errors"
	"github.com/m4xw311/steward/intent"
	"github.com/m4xw311/steward/llm"
)

func stubConfig() *config.Config {
	cfg := config.Default()
	cfg.LLMClient = "mock"
	cfg.Retry = config.Retry{MaxAttempts: 1, InitialInterval: time.Millisecond, MaxInterval: time.Millisecond}
	cfg.Agents = map[string]config.AgentConfig{
		"calendar": {Backend: config.BackendStub},
		"email":    {Backend: config.BackendStub, Reply: "Email agent here"},
	}
	return cfg
}

func TestNewAppRegistersConfiguredAgents(t *testing.T) {
	a, err := newApp(context.Background(), stubConfig(), io.Discard)
	require.NoError(t, err)
	defer a.Close()

	assert.Equal(t, []intent.Intent{intent.Calendar, intent.Email}, a.manager.Intents())

	// The mock model parrots the prompt, which is never a bare label.
	resp, err := a.manager.Handle(context.Background(), agent.NewRequest("What's on my calendar tomorrow?"))
	require.NoError(t, err)
	assert.True(t, resp.Fallback)
}

func TestStubReplyDefault(t *testing.T) {
	b := &builder{cfg: stubConfig()}
	a, err := b.agent(context.Background(), "calendar", config.AgentConfig{Backend: config.BackendStub})
	require.NoError(t, err)

	resp, err := a.Process(context.Background(), agent.NewRequest("hi"))
	require.NoError(t, err)
	assert.Equal(t, "Calendar agent invoked", resp.Text)
}

func TestNewAppErrorsAreFatal(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
	}{
		{"unknown provider", func(c *config.Config) { c.LLMClient = "parrot" }},
		{"google without credentials", func(c *config.Config) {
			c.Google = config.Google{}
			c.Agents["email"] = config.AgentConfig{Backend: config.BackendGoogle}
		}},
		{"google for custom intent", func(c *config.Config) {
			c.Google = config.Google{ClientID: "id", ClientSecret: "secret", TokenDir: t.TempDir()}
			c.Agents["weather"] = config.AgentConfig{Backend: config.BackendGoogle}
		}},
		{"mcp server missing", func(c *config.Config) {
			c.Agents["weather"] = config.AgentConfig{Backend: config.BackendMCP, Command: "/nonexistent/weather-mcp", Tool: "forecast"}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := stubConfig()
			tt.mutate(cfg)
			_, err := newApp(context.Background(), cfg, io.Discard)
			require.Error(t, err)
			assert.True(t, errors.IsFatal(err), err.Error())
		})
	}
}

// closingProvider counts Close calls on top of the mock provider.
type closingProvider struct {
	*llm.MockProvider
	closed int
}

func (p *closingProvider) Close() error {
	p.closed++
	return nil
}

func TestCloseReleasesProvider(t *testing.T) {
	base := &closingProvider{MockProvider: llm.Replies("calendar")}
	a, err := assemble(context.Background(), stubConfig(), base, io.Discard)
	require.NoError(t, err)
	assert.Zero(t, base.closed)

	require.NoError(t, a.Close())
	assert.Equal(t, 1, base.closed)
}

func TestFailedAssemblyReleasesProvider(t *testing.T) {
	cfg := stubConfig()
	cfg.Agents["weather"] = config.AgentConfig{Backend: config.BackendGoogle}
	cfg.Google = config.Google{}

	base := &closingProvider{MockProvider: llm.Replies()}
	_, err := assemble(context.Background(), cfg, base, io.Discard)
	require.Error(t, err)
	assert.Equal(t, 1, base.closed)
}

func TestStubOnlyConfigNeedsNoGoogle(t *testing.T) {
	dir := t.TempDir()
	t.Setenv("HOME", t.TempDir())
	t.Chdir(dir)
	path := filepath.Join(dir, "stub.yaml")
	require.NoError(t, os.WriteFile(path, []byte("llm: mock\nagents:\n  calendar:\n    backend: stub\n"), 0644))

	cfg, err := config.LoadConfig(path)
	require.NoError(t, err)
	a, err := newApp(context.Background(), cfg, io.Discard)
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, []intent.Intent{intent.Calendar}, a.manager.Intents())
}

func TestVersionCommand(t *testing.T) {
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"version"})
	defer rootCmd.SetArgs(nil)

	require.NoError(t, rootCmd.Execute())
	assert.True(t, strings.HasPrefix(out.String(), "steward "+Version))
}

func TestBadLogLevel(t *testing.T) {
	rootCmd.SetOut(io.Discard)
	rootCmd.SetErr(io.Discard)
	rootCmd.SetArgs([]string{"--log-level", "chatty", "version"})
	defer func() {
		rootCmd.SetArgs(nil)
		logLevel = "warn"
	}()

	err := rootCmd.Execute()
	require.Error(t, err)
	assert.True(t, errors.IsInvalidInput(err))
}
