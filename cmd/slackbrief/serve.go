package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/savaki/slackbrief/pkg/app"
	"github.com/savaki/slackbrief/pkg/bot"
	"github.com/savaki/slackbrief/pkg/config"
	slackclient "github.com/savaki/slackbrief/pkg/slack"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Serve slash commands over Socket Mode",
		Args:  cobra.NoArgs,
		RunE:  runServe,
	}
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, logger, err := setup((*config.Config).ValidateSocketMode)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	components, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	socketClient := slackclient.NewClientWithAppToken(cfg.SlackBotToken, cfg.SlackAppToken)
	if auth, err := socketClient.AuthTest(ctx); err != nil {
		logger.Warn("auth test failed", zap.Error(err))
	} else {
		logger.Info("authenticated", zap.String("team", auth.Team), zap.String("bot_user", auth.User))
	}

	b := bot.New(socketClient, components.Dispatcher, components.Responder, logger.Named("bot"))
	logger.Info("starting socket mode bot")
	if err := b.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}

	logger.Info("bot stopped")
	return nil
}
