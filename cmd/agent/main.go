package main

import (
	"context"
	"fmt"
	"log"
	"os"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/savaki/slackbrief/pkg/app"
	"github.com/savaki/slackbrief/pkg/config"
	"github.com/savaki/slackbrief/pkg/dynamodb"
	"github.com/savaki/slackbrief/pkg/handler"
	"github.com/savaki/slackbrief/pkg/logging"
	"github.com/savaki/slackbrief/pkg/models"
	"go.uber.org/zap"
)

type invocationRepo interface {
	GetByID(ctx context.Context, invocationID string) (*models.Invocation, error)
	UpdateStatus(ctx context.Context, invocationID, status, errMsg string) error
}

type commandHandler interface {
	Handle(ctx context.Context, cmd models.SlashCommand, r handler.Responder) (string, error)
}

// run processes a single stored invocation and records how it ended
func run(ctx context.Context, invocationID string, repo invocationRepo, h commandHandler, responder func(responseURL string) handler.Responder, logger *zap.Logger) error {
	inv, err := repo.GetByID(ctx, invocationID)
	if err != nil {
		return fmt.Errorf("get invocation: %w", err)
	}
	if models.IsTerminal(inv.Status) {
		logger.Info("invocation already finished", zap.String("status", inv.Status))
		return nil
	}

	logger.Info("processing invocation",
		zap.String("command", inv.Command),
		zap.String("channel", inv.ChannelID),
		zap.String("user", inv.UserID))

	if err := repo.UpdateStatus(ctx, invocationID, models.StatusRunning, ""); err != nil {
		logger.Warn("failed to mark invocation running", zap.Error(err))
	}

	status, handleErr := h.Handle(ctx, inv.SlashCommand(), responder(inv.ResponseURL))

	var errMsg string
	if handleErr != nil {
		errMsg = handleErr.Error()
	}
	if err := repo.UpdateStatus(ctx, invocationID, status, errMsg); err != nil {
		return fmt.Errorf("update status: %w", err)
	}

	logger.Info("invocation finished", zap.String("status", status))
	return handleErr
}

func main() {
	ctx := context.Background()

	// Invocation ID is passed by Step Functions
	invocationID := os.Getenv("INVOCATION_ID")
	if invocationID == "" {
		log.Fatal("INVOCATION_ID environment variable not set")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	if err := cfg.ValidateAgent(); err != nil {
		log.Fatalf("Invalid agent config: %v", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		log.Fatalf("Failed to create logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("invocation_id", invocationID))

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
	if err != nil {
		logger.Fatal("failed to load aws config", zap.Error(err))
	}

	components, err := app.New(ctx, cfg, logger)
	if err != nil {
		logger.Fatal("failed to build components", zap.Error(err))
	}

	repo := dynamodb.NewInvocationRepository(dynamodb.NewClientWithConfig(awsCfg), cfg.InvocationsTable, logger.Named("dynamodb"))
	if err := run(ctx, invocationID, repo, components.Dispatcher, components.Responder, logger); err != nil {
		logger.Fatal("invocation failed", zap.Error(err))
	}
}
