package main

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/savaki/slackbrief/pkg/config"
	"github.com/savaki/slackbrief/pkg/dynamodb"
	"github.com/savaki/slackbrief/pkg/handler"
	"github.com/savaki/slackbrief/pkg/logging"
	"github.com/savaki/slackbrief/pkg/models"
	slackclient "github.com/savaki/slackbrief/pkg/slack"
	"github.com/savaki/slackbrief/pkg/stepfunctions"
	"github.com/slack-go/slack"
	"go.uber.org/zap"
)

// invocationStore persists invocations for the worker
type invocationStore interface {
	Save(ctx context.Context, inv *models.Invocation) error
	SetExecutionArn(ctx context.Context, invocationID, executionArn string) error
}

// executionStarter hands an invocation to the state machine
type executionStarter interface {
	StartInvocation(ctx context.Context, stateMachineArn string, inv *models.Invocation) (string, error)
}

// notifier posts to a slash command's response_url
type notifier func(ctx context.Context, responseURL, text string) error

// server receives slash commands from API Gateway. It verifies the request,
// records an invocation and starts the worker, answering within Slack's
// three second window with the acknowledgment text.
type server struct {
	cfg     *config.Config
	store   invocationStore
	starter executionStarter
	notify  notifier
	logger  *zap.Logger
}

// Handle is the Lambda handler for slash commands
func (s *server) Handle(ctx context.Context, request events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
	body := request.Body
	if request.IsBase64Encoded {
		decoded, err := base64.StdEncoding.DecodeString(body)
		if err != nil {
			return badRequest("Invalid body encoding"), nil
		}
		body = string(decoded)
	}

	if err := handler.ValidateSlackRequest([]byte(body), request.Headers, s.cfg.SlackSigningKey); err != nil {
		s.logger.Warn("invalid slack signature", zap.Error(err))
		return unauthorized("Invalid signature"), nil
	}

	cmd, sslCheck, err := slackclient.ParseSlashCommand(body)
	if err != nil {
		s.logger.Warn("failed to parse slash command", zap.Error(err))
		return badRequest("Invalid command format"), nil
	}
	if sslCheck {
		return okResponse(nil), nil
	}

	logger := s.logger.With(
		zap.String("command", cmd.Command),
		zap.String("channel", cmd.ChannelID),
		zap.String("user", cmd.UserID))

	switch cmd.Command {
	case models.CommandSummarize, models.CommandAsk, models.CommandListChannels:
	default:
		logger.Info("ignoring unknown command")
		return okResponse(ackBody(fmt.Sprintf("Unknown command: %s", cmd.Command))), nil
	}

	inv := models.NewInvocation(cmd, s.cfg.GetInvocationTTL())
	logger = logger.With(zap.String("invocation_id", inv.InvocationID))

	if err := s.store.Save(ctx, inv); err != nil {
		return internalError(logger, "Failed to record command", err)
	}

	executionArn, err := s.starter.StartInvocation(ctx, s.cfg.StepFunctionArn, inv)
	if err != nil {
		if nerr := s.notify(ctx, cmd.ResponseURL, "Failed to start processing. Please try again."); nerr != nil {
			logger.Warn("failed to notify user", zap.Error(nerr))
		}
		return internalError(logger, "Failed to start processing", err)
	}
	logger.Info("started execution", zap.String("execution_arn", executionArn))

	if err := s.store.SetExecutionArn(ctx, inv.InvocationID, executionArn); err != nil {
		logger.Warn("failed to record execution arn", zap.Error(err))
	}

	ack := handler.AckText(cmd)
	if ack == "" {
		return okResponse(nil), nil
	}
	return okResponse(ackBody(ack)), nil
}

func ackBody(text string) map[string]string {
	return map[string]string{
		"response_type": slack.ResponseTypeEphemeral,
		"text":          text,
	}
}

// internalError returns a 500 error response
func internalError(logger *zap.Logger, message string, err error) (events.APIGatewayProxyResponse, error) {
	logger.Error(message, zap.Error(err))
	return events.APIGatewayProxyResponse{
		StatusCode: 500,
		Body:       fmt.Sprintf(`{"error":"%s"}`, message),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}, nil
}

// badRequest returns a 400 error response
func badRequest(message string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: 400,
		Body:       fmt.Sprintf(`{"error":"%s"}`, message),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// unauthorized returns a 401 error response
func unauthorized(message string) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: 401,
		Body:       fmt.Sprintf(`{"error":"%s"}`, message),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

// okResponse returns a successful response; a nil body acknowledges silently
func okResponse(body interface{}) events.APIGatewayProxyResponse {
	if body == nil {
		return events.APIGatewayProxyResponse{StatusCode: 200}
	}
	data, _ := json.Marshal(body)
	return events.APIGatewayProxyResponse{
		StatusCode: 200,
		Body:       string(data),
		Headers:    map[string]string{"Content-Type": "application/json"},
	}
}

func main() {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateLambda(); err != nil {
		log.Fatalf("Invalid Lambda config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("failed to load aws config", zap.Error(err))
	}

	slackClient := slackclient.NewClient(cfg.SlackBotToken)
	s := &server{
		cfg:     cfg,
		store:   dynamodb.NewInvocationRepository(dynamodb.NewClientWithConfig(awsCfg), cfg.InvocationsTable, logger.Named("dynamodb")),
		starter: stepfunctions.NewClient(awsCfg),
		notify: func(ctx context.Context, responseURL, text string) error {
			return slackClient.Respond(ctx, responseURL, slack.ResponseTypeEphemeral, text)
		},
		logger: logger,
	}

	lambda.Start(s.Handle)
}
