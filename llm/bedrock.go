package llm

import (
	"context"
	"encoding/json"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/m4xw311/steward/errors"
)

// BedrockProvider completes prompts with Anthropic models on AWS Bedrock.
type BedrockProvider struct {
	client  *bedrockruntime.Client
	modelID string
}

// NewBedrockProvider creates a new BedrockProvider.
// It requires AWS credentials to be configured in the environment.
func NewBedrockProvider(ctx context.Context, modelID string) (*BedrockProvider, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Fatal(err, "failed to load AWS config")
	}

	if cfg.Region == "" {
		cfg.Region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}

	var clientOpts []func(*bedrockruntime.Options)
	// Custom endpoint, useful for testing
	if endpoint := os.Getenv("BEDROCK_ENDPOINT_URL"); endpoint != "" {
		clientOpts = append(clientOpts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &BedrockProvider{
		client:  bedrockruntime.NewFromConfig(cfg, clientOpts...),
		modelID: modelID,
	}, nil
}

func (b *BedrockProvider) Complete(ctx context.Context, prompt string, opts Options) (string, error) {
	requestBody, err := createAnthropicRequest(prompt, opts)
	if err != nil {
		return "", errors.Wrapf(err, "failed to create Anthropic request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(opts.model(b.modelID)),
		ContentType: aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", classify(err, "failed to invoke Bedrock model")
	}

	return processBedrockResponse(resp.Body)
}

// createAnthropicRequest creates the request body for Anthropic models on Bedrock.
func createAnthropicRequest(prompt string, opts Options) ([]byte, error) {
	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        opts.maxTokens(),
		"messages": []map[string]interface{}{
			{
				"role": "user",
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": prompt,
					},
				},
			},
		},
	}

	if opts.System != "" {
		request["system"] = opts.System
	}
	if opts.Temperature != nil {
		request["temperature"] = *opts.Temperature
	}

	return json.Marshal(request)
}

// processBedrockResponse extracts the text blocks of a Bedrock response body.
func processBedrockResponse(body []byte) (string, error) {
	var response struct {
		Error   interface{} `json:"error"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Wrapf(err, "failed to unmarshal Bedrock response")
	}

	if response.Error != nil {
		return "", errors.New("Bedrock API error: %v", response.Error)
	}

	var text string
	for _, item := range response.Content {
		if item.Type == "text" {
			text += item.Text
		}
	}
	return text, nil
}
