package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/savaki/slackbrief/pkg/fetcher"
	"github.com/savaki/slackbrief/pkg/models"
	"github.com/savaki/slackbrief/pkg/prompt"
	"go.uber.org/zap"
)

// ContextFetcher collects channel messages for a command
type ContextFetcher interface {
	Fetch(ctx context.Context, req fetcher.Request) (models.ContextBlock, error)
}

// Generator produces text from a prompt
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ChannelLister lists channels the invoking user belongs to
type ChannelLister interface {
	ListMemberChannels(ctx context.Context) ([]string, error)
}

// Responder delivers the final answer for a command
type Responder interface {
	Respond(ctx context.Context, text string) error
}

// ResponderFunc adapts a function to Responder
type ResponderFunc func(ctx context.Context, text string) error

// Respond calls f
func (f ResponderFunc) Respond(ctx context.Context, text string) error {
	return f(ctx, text)
}

// ErrUnknownCommand is returned for commands the dispatcher does not serve
var ErrUnknownCommand = errors.New("unknown command")

// Options tune the dispatcher
type Options struct {
	// SummarizePolicy selects search (default) or history retrieval for /summarize
	SummarizePolicy *fetcher.Policy
	Location        *time.Location
}

// Dispatcher runs the /summarize, /ask and /list-channels commands.
// It holds no per-invocation state and is safe for concurrent use.
type Dispatcher struct {
	fetcher         ContextFetcher
	generator       Generator
	channels        ChannelLister
	summarizePolicy fetcher.Policy
	location        *time.Location
	logger          *zap.Logger
}

// NewDispatcher creates a dispatcher from its collaborators
func NewDispatcher(f ContextFetcher, g Generator, channels ChannelLister, opts Options, logger *zap.Logger) *Dispatcher {
	policy := fetcher.SummarizePolicy()
	if opts.SummarizePolicy != nil {
		policy = *opts.SummarizePolicy
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Dispatcher{
		fetcher:         f,
		generator:       g,
		channels:        channels,
		summarizePolicy: policy,
		location:        loc,
		logger:          logger,
	}
}

// Ack returns the text sent back within Slack's acknowledgment window.
// An empty string acknowledges without a message.
func (d *Dispatcher) Ack(cmd models.SlashCommand) string {
	return AckText(cmd)
}

// AckText is Ack for transports that acknowledge without holding a Dispatcher
func AckText(cmd models.SlashCommand) string {
	text := strings.TrimSpace(cmd.Text)
	switch cmd.Command {
	case models.CommandSummarize:
		if text == "" {
			return "Collecting the latest messages in this channel..."
		}
		return fmt.Sprintf("Searching this channel for logs about \"%s\"...", text)
	case models.CommandAsk:
		if text == "" {
			return ""
		}
		return fmt.Sprintf("Analysing \"%s\". Searching the logs from several angles...", text)
	default:
		return ""
	}
}

// Handle runs the slow part of a command and always tells the user how it
// ended. It returns the invocation status; the error is non-nil when the
// command failed or the response could not be delivered.
func (d *Dispatcher) Handle(ctx context.Context, cmd models.SlashCommand, r Responder) (string, error) {
	logger := d.logger.With(
		zap.String("command", cmd.Command),
		zap.String("channel", cmd.ChannelID),
		zap.String("user", cmd.UserID))
	logger.Info("handling command")

	var reply string
	var status string
	var cmdErr error

	switch cmd.Command {
	case models.CommandSummarize:
		reply, status, cmdErr = d.summarize(ctx, cmd)
	case models.CommandAsk:
		reply, status, cmdErr = d.ask(ctx, cmd)
	case models.CommandListChannels:
		reply, status, cmdErr = d.listChannels(ctx)
	default:
		cmdErr = fmt.Errorf("%w: %s", ErrUnknownCommand, cmd.Command)
		reply, status = fmt.Sprintf("Unknown command: %s", cmd.Command), models.StatusFailed
	}

	if cmdErr != nil {
		logger.Error("command failed", zap.Error(cmdErr))
	}

	if err := r.Respond(ctx, reply); err != nil {
		logger.Error("failed to deliver response", zap.Error(err))
		return models.StatusFailed, errors.Join(cmdErr, fmt.Errorf("respond: %w", err))
	}

	logger.Info("command finished", zap.String("status", status))
	return status, cmdErr
}

func (d *Dispatcher) summarize(ctx context.Context, cmd models.SlashCommand) (string, string, error) {
	text := strings.TrimSpace(cmd.Text)
	policy := d.summarizePolicy
	if text == "" && policy.Mode == fetcher.ModeSearch {
		return "Usage: /summarize <topic>", models.StatusEmpty, nil
	}
	topic := text
	if topic == "" {
		topic = "recent messages"
	}

	block, err := d.fetcher.Fetch(ctx, fetcher.Request{
		ChannelID:   cmd.ChannelID,
		Instruction: text,
		Policy:      policy,
	})
	if err != nil {
		return fmt.Sprintf("An error occurred: %v", err), models.StatusFailed, err
	}
	if block.IsEmpty() {
		return fmt.Sprintf("No conversations about \"%s\" were found in this channel.", topic), models.StatusEmpty, nil
	}

	rendered := block.Render(models.RenderOptions{
		DateLayout: models.ShortDateLayout,
		Location:   d.location,
		LinkLabel:  "[link]",
	})
	answer, err := d.generator.Generate(ctx, prompt.Summarize(topic, rendered))
	if err != nil {
		return fmt.Sprintf("An error occurred: %v", err), models.StatusFailed, err
	}

	return fmt.Sprintf("*Timeline summary for \"%s\":*\n\n%s", topic, answer), models.StatusCompleted, nil
}

func (d *Dispatcher) ask(ctx context.Context, cmd models.SlashCommand) (string, string, error) {
	text := strings.TrimSpace(cmd.Text)
	if text == "" {
		return "Usage: /ask <question>", models.StatusEmpty, nil
	}

	block, err := d.fetcher.Fetch(ctx, fetcher.Request{
		ChannelID:   cmd.ChannelID,
		Instruction: text,
		Policy:      fetcher.AskPolicy(),
	})
	if err != nil {
		return fmt.Sprintf("Error: %v", err), models.StatusFailed, err
	}
	if block.IsEmpty() {
		return "No logs were found. Try including a specific project or person name.", models.StatusEmpty, nil
	}

	rendered := block.Render(models.RenderOptions{
		DateLayout: models.LongDateLayout,
		Location:   d.location,
		LinkLabel:  "[view message]",
	})
	answer, err := d.generator.Generate(ctx, prompt.Ask(text, rendered))
	if err != nil {
		return fmt.Sprintf("Error: %v", err), models.StatusFailed, err
	}

	return fmt.Sprintf("Analysis:\n\n%s", answer), models.StatusCompleted, nil
}

func (d *Dispatcher) listChannels(ctx context.Context) (string, string, error) {
	names, err := d.channels.ListMemberChannels(ctx)
	if err != nil {
		return fmt.Sprintf("Failed to fetch channels: %v", err), models.StatusFailed, err
	}
	if len(names) == 0 {
		return "No accessible channels were found.", models.StatusEmpty, nil
	}

	lines := make([]string, 0, len(names))
	for _, name := range names {
		lines = append(lines, "• #"+name)
	}
	return "*Channels you can access:*\n" + strings.Join(lines, "\n"), models.StatusCompleted, nil
}
