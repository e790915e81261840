package llm

import (
	"context"
	"os"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"github.com/m4xw311/steward/errors"
	"google.golang.org/api/option"
)

// GeminiProvider completes prompts with the Google Gemini API.
type GeminiProvider struct {
	client *genai.Client
	model  string
}

// NewGeminiProvider creates a new GeminiProvider.
// It requires the GEMINI_API_KEY environment variable to be set.
func NewGeminiProvider(ctx context.Context, modelName string) (*GeminiProvider, error) {
	apiKey := os.Getenv("GEMINI_API_KEY")
	if apiKey == "" {
		return nil, errors.Fatal(nil, "GEMINI_API_KEY environment variable not set")
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, errors.Fatal(err, "failed to create genai client")
	}

	return &GeminiProvider{
		client: client,
		model:  modelName,
	}, nil
}

func (g *GeminiProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	model := g.client.GenerativeModel(opts.model(g.model))
	model.SetMaxOutputTokens(int32(opts.maxTokens()))
	if opts.Temperature != nil {
		model.SetTemperature(float32(*opts.Temperature))
	}
	if opts.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(opts.System)}}
	}

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return "", classify(err, "failed to send message to Gemini")
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", errors.New("received an empty response from Gemini")
	}

	var sb strings.Builder
	for _, part := range resp.Candidates[0].Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String(), nil
}

// Close releases the underlying gRPC connection.
func (g *GeminiProvider) Close() error {
	return g.client.Close()
}
