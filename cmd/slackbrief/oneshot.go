package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/savaki/slackbrief/pkg/app"
	"github.com/savaki/slackbrief/pkg/config"
	"github.com/savaki/slackbrief/pkg/handler"
	"github.com/savaki/slackbrief/pkg/models"
	"github.com/spf13/cobra"
)

func summarizeCmd() *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "summarize [topic]",
		Short: "Summarize a channel's messages about a topic",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd, models.SlashCommand{
				Command:   models.CommandSummarize,
				Text:      strings.Join(args, " "),
				ChannelID: channel,
			})
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel ID to read (required)")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func askCmd() *cobra.Command {
	var channel string
	cmd := &cobra.Command{
		Use:   "ask <question>",
		Short: "Answer a question from a channel's messages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd, models.SlashCommand{
				Command:   models.CommandAsk,
				Text:      strings.Join(args, " "),
				ChannelID: channel,
			})
		},
	}
	cmd.Flags().StringVar(&channel, "channel", "", "channel ID to read (required)")
	_ = cmd.MarkFlagRequired("channel")
	return cmd
}

func channelsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "channels",
		Short: "List channels the user token belongs to",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOneShot(cmd, models.SlashCommand{Command: models.CommandListChannels})
		},
	}
}

func runOneShot(cmd *cobra.Command, sc models.SlashCommand) error {
	cfg, logger, err := setup((*config.Config).Validate)
	if err != nil {
		return err
	}
	defer logger.Sync()

	ctx := cmd.Context()
	components, err := app.New(ctx, cfg, logger)
	if err != nil {
		return err
	}

	return dispatchTo(ctx, components.Dispatcher, sc, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

type dispatcher interface {
	Ack(cmd models.SlashCommand) string
	Handle(ctx context.Context, cmd models.SlashCommand, r handler.Responder) (string, error)
}

// dispatchTo prints the acknowledgment to errOut and the answer to out
func dispatchTo(ctx context.Context, d dispatcher, sc models.SlashCommand, out, errOut io.Writer) error {
	if ack := d.Ack(sc); ack != "" {
		fmt.Fprintln(errOut, ack)
	}

	_, err := d.Handle(ctx, sc, handler.ResponderFunc(func(ctx context.Context, text string) error {
		_, err := fmt.Fprintln(out, text)
		return err
	}))
	return err
}
