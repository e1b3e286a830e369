package dynamodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/feature/dynamodb/attributevalue"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb/types"
	"github.com/savaki/slackbrief/pkg/models"
	"go.uber.org/zap"
)

// ErrNotFound is returned when an invocation does not exist
var ErrNotFound = errors.New("invocation not found")

// API is the subset of the DynamoDB client used by the repository
type API interface {
	PutItem(ctx context.Context, params *dynamodb.PutItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.PutItemOutput, error)
	GetItem(ctx context.Context, params *dynamodb.GetItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.GetItemOutput, error)
	UpdateItem(ctx context.Context, params *dynamodb.UpdateItemInput, optFns ...func(*dynamodb.Options)) (*dynamodb.UpdateItemOutput, error)
}

// NewClientWithConfig creates a DynamoDB client from existing AWS config
func NewClientWithConfig(cfg aws.Config) *dynamodb.Client {
	return dynamodb.NewFromConfig(cfg)
}

// InvocationRepository handles DynamoDB operations for invocations
type InvocationRepository struct {
	client    API
	tableName string
	logger    *zap.Logger
}

// NewInvocationRepository creates a new invocation repository
func NewInvocationRepository(client API, tableName string, logger *zap.Logger) *InvocationRepository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &InvocationRepository{
		client:    client,
		tableName: tableName,
		logger:    logger,
	}
}

// Save stores an invocation record in DynamoDB
func (r *InvocationRepository) Save(ctx context.Context, inv *models.Invocation) error {
	item, err := attributevalue.MarshalMap(inv)
	if err != nil {
		return fmt.Errorf("marshal invocation: %w", err)
	}

	_, err = r.client.PutItem(ctx, &dynamodb.PutItemInput{
		TableName: &r.tableName,
		Item:      item,
	})
	if err != nil {
		return fmt.Errorf("put item: %w", err)
	}

	r.logger.Debug("saved invocation", zap.String("invocation_id", inv.InvocationID))
	return nil
}

// GetByID retrieves an invocation by ID
func (r *InvocationRepository) GetByID(ctx context.Context, invocationID string) (*models.Invocation, error) {
	result, err := r.client.GetItem(ctx, &dynamodb.GetItemInput{
		TableName: &r.tableName,
		Key: map[string]types.AttributeValue{
			"invocation_id": &types.AttributeValueMemberS{Value: invocationID},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("get item: %w", err)
	}

	if result.Item == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, invocationID)
	}

	var inv models.Invocation
	if err := attributevalue.UnmarshalMap(result.Item, &inv); err != nil {
		return nil, fmt.Errorf("unmarshal invocation: %w", err)
	}

	return &inv, nil
}

// UpdateStatus updates the invocation status, recording errMsg when non-empty
func (r *InvocationRepository) UpdateStatus(ctx context.Context, invocationID, status, errMsg string) error {
	updateExpr := "SET #status = :status"
	exprAttrNames := map[string]string{
		"#status": "status",
	}
	exprAttrVals := map[string]types.AttributeValue{
		":status": &types.AttributeValueMemberS{Value: status},
	}

	// Add completed_at if status is terminal
	if models.IsTerminal(status) {
		updateExpr += ", completed_at = :now"
		exprAttrVals[":now"] = &types.AttributeValueMemberS{
			Value: time.Now().Format(time.RFC3339),
		}
	}
	if errMsg != "" {
		updateExpr += ", #error = :error"
		exprAttrNames["#error"] = "error"
		exprAttrVals[":error"] = &types.AttributeValueMemberS{Value: errMsg}
	}

	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &r.tableName,
		Key: map[string]types.AttributeValue{
			"invocation_id": &types.AttributeValueMemberS{Value: invocationID},
		},
		UpdateExpression:          &updateExpr,
		ExpressionAttributeNames:  exprAttrNames,
		ExpressionAttributeValues: exprAttrVals,
	})
	if err != nil {
		return fmt.Errorf("update item: %w", err)
	}

	r.logger.Debug("updated invocation status",
		zap.String("invocation_id", invocationID),
		zap.String("status", status))
	return nil
}

// SetExecutionArn records the Step Functions execution running the invocation
func (r *InvocationRepository) SetExecutionArn(ctx context.Context, invocationID, executionArn string) error {
	updateExpr := "SET execution_arn = :arn"
	_, err := r.client.UpdateItem(ctx, &dynamodb.UpdateItemInput{
		TableName: &r.tableName,
		Key: map[string]types.AttributeValue{
			"invocation_id": &types.AttributeValueMemberS{Value: invocationID},
		},
		UpdateExpression: &updateExpr,
		ExpressionAttributeValues: map[string]types.AttributeValue{
			":arn": &types.AttributeValueMemberS{Value: executionArn},
		},
	})
	if err != nil {
		return fmt.Errorf("set execution arn: %w", err)
	}

	return nil
}
