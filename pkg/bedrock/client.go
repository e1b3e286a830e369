package bedrock

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
)

const (
	// Default Bedrock model ID for Claude 3.5 Sonnet
	DefaultModelID = "anthropic.claude-3-5-sonnet-20241022-v2:0"

	anthropicVersion = "bedrock-2023-05-31"
	maxTokens        = 4096
)

// Invoker is the part of the Bedrock Runtime client used here
type Invoker interface {
	InvokeModel(ctx context.Context, params *bedrockruntime.InvokeModelInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error)
}

// Client is a client for AWS Bedrock Runtime (Claude models)
type Client struct {
	client  Invoker
	modelID string
}

// NewClient creates a new Bedrock client
func NewClient(cfg aws.Config, modelID string) *Client {
	return NewClientWithInvoker(bedrockruntime.NewFromConfig(cfg), modelID)
}

// NewClientWithInvoker creates a Bedrock client around an existing invoker
func NewClientWithInvoker(invoker Invoker, modelID string) *Client {
	if modelID == "" {
		modelID = DefaultModelID
	}
	return &Client{
		client:  invoker,
		modelID: modelID,
	}
}

// Message is one turn in the Claude Messages API format
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// BedrockRequest represents a request to Bedrock (Claude Messages API format)
type BedrockRequest struct {
	AnthropicVersion string    `json:"anthropic_version"`
	MaxTokens        int       `json:"max_tokens"`
	Messages         []Message `json:"messages"`
}

// BedrockResponse represents a response from Bedrock
type BedrockResponse struct {
	Content []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	} `json:"content"`
	StopReason string `json:"stop_reason"`
}

// Generate sends prompt as a single user message and returns Claude's text
func (c *Client) Generate(ctx context.Context, prompt string) (string, error) {
	body, err := json.Marshal(BedrockRequest{
		AnthropicVersion: anthropicVersion,
		MaxTokens:        maxTokens,
		Messages:         []Message{{Role: "user", Content: prompt}},
	})
	if err != nil {
		return "", fmt.Errorf("marshal request: %w", err)
	}

	output, err := c.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(c.modelID),
		ContentType: aws.String("application/json"),
		Accept:      aws.String("application/json"),
		Body:        body,
	})
	if err != nil {
		return "", fmt.Errorf("invoke bedrock model: %w", err)
	}

	var response BedrockResponse
	if err := json.Unmarshal(output.Body, &response); err != nil {
		return "", fmt.Errorf("unmarshal response: %w", err)
	}

	var text string
	for _, block := range response.Content {
		if block.Type == "text" {
			text += block.Text
		}
	}
	if text == "" {
		return "", fmt.Errorf("empty response from Bedrock")
	}

	return text, nil
}
