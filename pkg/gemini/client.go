package gemini

import (
	"context"
	"fmt"

	"google.golang.org/genai"
)

// DefaultModel is the Gemini model used for every generation call
const DefaultModel = "models/gemini-flash-lite-latest"

// Client generates text with the Gemini API
type Client struct {
	client *genai.Client
	model  string
}

// NewClient creates a Gemini client. An empty model selects DefaultModel.
func NewClient(ctx context.Context, apiKey, model string, opts ...Option) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key is required")
	}
	if model == "" {
		model = DefaultModel
	}

	cfg := &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}

	return &Client{
		client: client,
		model:  model,
	}, nil
}

// Option adjusts the genai client configuration
type Option func(*genai.ClientConfig)

// WithBaseURL points the client at a different API endpoint
func WithBaseURL(url string) Option {
	return func(cfg *genai.ClientConfig) {
		cfg.HTTPOptions.BaseURL = url
	}
}

// Model returns the model identifier
func (c *Client) Model() string {
	return c.model
}

// Generate sends prompt as a single user turn and returns the response text.
// There is no streaming, retry or truncation.
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.Models.GenerateContent(ctx, c.model, genai.Text(prompt), nil)
	if err != nil {
		return "", fmt.Errorf("gemini generate: %w", err)
	}

	text := resp.Text()
	if text == "" {
		return "", fmt.Errorf("empty response from gemini")
	}

	return text, nil
}
