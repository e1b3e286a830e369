// Package app wires configuration into the clients and dispatcher shared by
// every binary.
package app

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/savaki/slackbrief/pkg/bedrock"
	"github.com/savaki/slackbrief/pkg/config"
	"github.com/savaki/slackbrief/pkg/fetcher"
	"github.com/savaki/slackbrief/pkg/gemini"
	"github.com/savaki/slackbrief/pkg/handler"
	slackclient "github.com/savaki/slackbrief/pkg/slack"
	"go.uber.org/zap"
)

// Components are the long-lived collaborators built once at startup
type Components struct {
	Dispatcher *handler.Dispatcher
	// BotClient acknowledges and responds (xoxb- token)
	BotClient *slackclient.Client
	// UserClient searches, reads history and lists channels (xoxp- token)
	UserClient *slackclient.Client

	responseType string
}

// New builds the generator, Slack clients, fetcher and dispatcher from cfg
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Components, error) {
	gen, err := NewGenerator(ctx, cfg)
	if err != nil {
		return nil, err
	}

	botClient := slackclient.NewClient(cfg.SlackBotToken)
	userClient := slackclient.NewClient(cfg.SlackUserToken)

	f := fetcher.New(userClient, gen, fetcher.Options{
		WorkspaceURL:     cfg.WorkspaceURL,
		LookupPermalinks: cfg.PermalinkLookup,
		HistoryLimit:     cfg.HistoryLimit,
		SearchCount:      cfg.SearchCount,
	}, logger.Named("fetcher"))

	policy := SummarizePolicy(cfg)
	dispatcher := handler.NewDispatcher(f, gen, userClient, handler.Options{
		SummarizePolicy: &policy,
	}, logger.Named("dispatcher"))

	return &Components{
		Dispatcher:   dispatcher,
		BotClient:    botClient,
		UserClient:   userClient,
		responseType: cfg.ResponseType,
	}, nil
}

// NewGenerator returns the generation client selected by GENERATION_PROVIDER
func NewGenerator(ctx context.Context, cfg *config.Config) (handler.Generator, error) {
	switch cfg.GenerationProvider {
	case config.ProviderGemini:
		client, err := gemini.NewClient(ctx, cfg.GeminiAPIKey, cfg.GeminiModel)
		if err != nil {
			return nil, err
		}
		return client, nil
	case config.ProviderBedrock:
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))
		if err != nil {
			return nil, fmt.Errorf("load aws config: %w", err)
		}
		return bedrock.NewClient(awsCfg, cfg.BedrockModelID), nil
	default:
		return nil, fmt.Errorf("unknown generation provider %q", cfg.GenerationProvider)
	}
}

// SummarizePolicy maps SUMMARIZE_MODE to a retrieval policy
func SummarizePolicy(cfg *config.Config) fetcher.Policy {
	if cfg.SummarizeMode == config.SummarizeHistory {
		return fetcher.HistoryPolicy()
	}
	return fetcher.SummarizePolicy()
}

// Responder answers through a slash command's response_url with the bot token
func (c *Components) Responder(responseURL string) handler.Responder {
	return handler.ResponderFunc(func(ctx context.Context, text string) error {
		return c.BotClient.Respond(ctx, responseURL, c.responseType, text)
	})
}
