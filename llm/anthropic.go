package llm

import (
	"context"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/m4xw311/steward/errors"
)

// AnthropicProvider completes prompts with the Anthropic Messages API.
type AnthropicProvider struct {
	client *anthropic.Client
	model  string
}

// NewAnthropicProvider creates a new AnthropicProvider.
// It requires the ANTHROPIC_API_KEY environment variable to be set.
func NewAnthropicProvider(ctx context.Context, modelName string) (*AnthropicProvider, error) {
	apiKey := os.Getenv("ANTHROPIC_API_KEY")
	if apiKey == "" {
		return nil, errors.Fatal(nil, "ANTHROPIC_API_KEY environment variable not set")
	}

	client := anthropic.NewClient(
		option.WithAPIKey(apiKey),
		option.WithMaxRetries(0),
	)

	return &AnthropicProvider{
		client: &client,
		model:  modelName,
	}, nil
}

func (a *AnthropicProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(opts.model(a.model)),
		MaxTokens: opts.maxTokens(),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(prompt)),
		},
	}
	if opts.System != "" {
		params.System = []anthropic.TextBlockParam{
			{Text: opts.System},
		}
	}
	if opts.Temperature != nil {
		params.Temperature = anthropic.Float(*opts.Temperature)
	}

	resp, err := a.client.Messages.New(ctx, params)
	if err != nil {
		return "", classify(err, "failed to send message to Anthropic")
	}

	var sb strings.Builder
	for _, content := range resp.Content {
		if c, ok := content.AsAny().(anthropic.TextBlock); ok {
			sb.WriteString(c.Text)
		}
	}
	return sb.String(), nil
}
