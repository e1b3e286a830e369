package main

import (
	"fmt"
	"os"

	"github.com/savaki/slackbrief/pkg/config"
	"github.com/savaki/slackbrief/pkg/logging"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "slackbrief",
		Short: "Slack channel summaries and answers from a generative model",
		Long: `slackbrief serves the /summarize, /ask and /list-channels slash commands
over Socket Mode, or runs them once from the terminal.

Configuration is read from the environment (SLACK_BOT_TOKEN, SLACK_USER_TOKEN,
GEMINI_API_KEY, ...).`,
		SilenceUsage: true,
	}

	root.AddCommand(serveCmd())
	root.AddCommand(summarizeCmd())
	root.AddCommand(askCmd())
	root.AddCommand(channelsCmd())
	return root
}

// setup loads and validates configuration and builds the logger
func setup(validate func(*config.Config) error) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	if err := validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}

	logger, err := logging.New(cfg.LogLevel, cfg.IsDevelopment())
	if err != nil {
		return nil, nil, fmt.Errorf("create logger: %w", err)
	}
	return cfg, logger, nil
}
