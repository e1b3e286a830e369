package stepfunctions

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sfn"
	"github.com/savaki/slackbrief/pkg/models"
)

// API is the part of the Step Functions client used here
type API interface {
	StartExecution(ctx context.Context, params *sfn.StartExecutionInput, optFns ...func(*sfn.Options)) (*sfn.StartExecutionOutput, error)
}

// Client is a wrapper around AWS Step Functions SDK
type Client struct {
	client API
}

// NewClient creates a new Step Functions client
func NewClient(cfg aws.Config) *Client {
	return NewClientWithAPI(sfn.NewFromConfig(cfg))
}

// NewClientWithAPI wraps an existing Step Functions API implementation
func NewClientWithAPI(api API) *Client {
	return &Client{client: api}
}

// ExecutionInput is the payload handed to the state machine; the worker
// receives InvocationID as its INVOCATION_ID environment variable
type ExecutionInput struct {
	InvocationID string `json:"invocationId"`
	Command      string `json:"command"`
	ChannelID    string `json:"channelId"`
	UserID       string `json:"userId"`
}

// StartInvocation starts a Step Functions execution that runs the worker for inv
func (c *Client) StartInvocation(ctx context.Context, stateMachineArn string, inv *models.Invocation) (string, error) {
	inputJSON, err := json.Marshal(ExecutionInput{
		InvocationID: inv.InvocationID,
		Command:      inv.Command,
		ChannelID:    inv.ChannelID,
		UserID:       inv.UserID,
	})
	if err != nil {
		return "", fmt.Errorf("marshal input: %w", err)
	}

	// Execution names must be unique per state machine; the invocation ID already is
	result, err := c.client.StartExecution(ctx, &sfn.StartExecutionInput{
		StateMachineArn: &stateMachineArn,
		Input:           aws.String(string(inputJSON)),
		Name:            aws.String(inv.InvocationID),
	})
	if err != nil {
		return "", fmt.Errorf("start execution: %w", err)
	}

	return aws.ToString(result.ExecutionArn), nil
}
