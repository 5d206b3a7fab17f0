package labeling

import (
	"context"
	"fmt"

	"fjacquet/finance-etl/internal/logging"

	"google.golang.org/genai"
)

// GenAIClient implements Client with the unified Google GenAI SDK. It asks
// for a JSON response at temperature 0.
type GenAIClient struct {
	client *genai.Client
	model  string
	config *genai.GenerateContentConfig
	logger logging.Logger
}

// NewGenAIClient creates a client for the Gemini API backend.
func NewGenAIClient(ctx context.Context, apiKey, model string, logger logging.Logger) (*GenAIClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini API key is not configured")
	}
	if model == "" {
		model = DefaultGeminiModel
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &GenAIClient{
		client: client,
		model:  model,
		config: &genai.GenerateContentConfig{
			ResponseMIMEType: "application/json",
			Temperature:      genai.Ptr[float32](0),
		},
		logger: logger,
	}, nil
}

// Complete sends the prompt and returns the response text.
func (c *GenAIClient) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), c.config)
	if err != nil {
		return "", fmt.Errorf("generate content: %w", err)
	}

	if resp.UsageMetadata != nil {
		c.logger.Debug("GenAI usage",
			logging.Field{Key: "model", Value: c.model},
			logging.Field{Key: logging.FieldTokens, Value: resp.UsageMetadata.TotalTokenCount})
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from model %s", c.model)
	}
	return text, nil
}
