package llm

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"github.com/m4xw311/steward/errors"
)

// CompletionProvider is the interface for interacting with a Large Language Model.
// Everything that talks to a model depends on this interface only.
type CompletionProvider interface {
	Complete(ctx context.Context, prompt string, opts Options) (string, error)
}

// Options tunes a single completion. Zero values leave the provider default.
type Options struct {
	// System is sent as the system instruction when non-empty.
	System string
	// Model overrides the provider's configured model.
	Model string
	// Temperature is left to the provider when nil.
	Temperature *float64
	MaxTokens   int
}

// Float returns a pointer to v, for Options.Temperature.
func Float(v float64) *float64 { return &v }

func (o Options) maxTokens() int64 {
	if o.MaxTokens > 0 {
		return int64(o.MaxTokens)
	}
	return 1024
}

func (o Options) model(fallback string) string {
	if o.Model != "" {
		return o.Model
	}
	return fallback
}

// ProviderFunc adapts a function to CompletionProvider.
type ProviderFunc func(ctx context.Context, prompt string, opts Options) (string, error)

func (f ProviderFunc) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	return f(ctx, prompt, opts)
}

// New builds the provider named by name ("openai", "anthropic", "gemini",
// "bedrock" or "mock"). Credentials come from the environment.
func New(ctx context.Context, name, model string) (CompletionProvider, error) {
	switch strings.ToLower(name) {
	case "openai":
		return NewOpenAIProvider(ctx, model)
	case "anthropic":
		return NewAnthropicProvider(ctx, model)
	case "gemini":
		return NewGeminiProvider(ctx, model)
	case "bedrock":
		return NewBedrockProvider(ctx, model)
	case "mock":
		return &MockProvider{}, nil
	default:
		return nil, errors.Fatal(nil, "unsupported llm provider %q", name)
	}
}

// Call records one request received by MockProvider.
type Call struct {
	Prompt string
	Opts   Options
}

// MockProvider is a scripted provider for tests and offline runs. With no
// Reply set it parrots the prompt back.
type MockProvider struct {
	Reply func(prompt string, opts Options) (string, error)

	mu    sync.Mutex
	calls []Call
}

func (m *MockProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	m.mu.Lock()
	m.calls = append(m.calls, Call{Prompt: prompt, Opts: opts})
	m.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.Reply != nil {
		return m.Reply(prompt, opts)
	}
	return fmt.Sprintf("I am a mock LLM. You said: '%s'.", prompt), nil
}

// Calls returns a copy of the requests received so far.
func (m *MockProvider) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// Replies returns a MockProvider answering with the given texts in order,
// repeating the last one once exhausted.
func Replies(texts ...string) *MockProvider {
	var (
		mu sync.Mutex
		i  int
	)
	return &MockProvider{Reply: func(string, Options) (string, error) {
		mu.Lock()
		defer mu.Unlock()
		if len(texts) == 0 {
			return "", nil
		}
		out := texts[min(i, len(texts)-1)]
		i++
		return out, nil
	}}
}
