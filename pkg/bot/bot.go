// Package bot runs the dispatcher behind a Slack Socket Mode connection.
package bot

import (
	"context"
	"sync"
	"time"

	"github.com/savaki/slackbrief/pkg/handler"
	"github.com/savaki/slackbrief/pkg/models"
	slackclient "github.com/savaki/slackbrief/pkg/slack"
	"github.com/slack-go/slack"
	"github.com/slack-go/slack/socketmode"
	"go.uber.org/zap"
)

// DefaultHandleTimeout bounds the slow part of a single command
const DefaultHandleTimeout = 2 * time.Minute

// Dispatcher acknowledges and handles slash commands
type Dispatcher interface {
	Ack(cmd models.SlashCommand) string
	Handle(ctx context.Context, cmd models.SlashCommand, r handler.Responder) (string, error)
}

// ResponderFactory returns the responder for a command's response_url
type ResponderFactory func(responseURL string) handler.Responder

type acker interface {
	Ack(req socketmode.Request, payload ...interface{})
}

// Bot receives slash commands over Socket Mode. Each command is acknowledged
// inline and handled in its own goroutine.
type Bot struct {
	events     <-chan socketmode.Event
	connect    func(ctx context.Context) error
	acker      acker
	dispatcher Dispatcher
	responder  ResponderFactory
	timeout    time.Duration
	logger     *zap.Logger
	wg         sync.WaitGroup
}

// New creates a bot on a Slack client configured with an app-level token
func New(client *slackclient.Client, dispatcher Dispatcher, responder ResponderFactory, logger *zap.Logger) *Bot {
	socket := socketmode.New(client.GetRawClient())
	b := newBot(socket, dispatcher, responder, logger)
	b.events = socket.Events
	b.connect = socket.RunContext
	return b
}

func newBot(a acker, dispatcher Dispatcher, responder ResponderFactory, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		acker:      a,
		dispatcher: dispatcher,
		responder:  responder,
		timeout:    DefaultHandleTimeout,
		logger:     logger,
	}
}

// Run connects and processes events until ctx is cancelled or the
// connection fails, then waits for in-flight commands to finish.
func (b *Bot) Run(ctx context.Context) error {
	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-loopCtx.Done():
				return
			case evt, ok := <-b.events:
				if !ok {
					return
				}
				b.handleEvent(loopCtx, evt)
			}
		}
	}()

	err := b.connect(ctx)

	// no command may start once the loop is gone
	cancel()
	<-done
	b.wg.Wait()
	return err
}

func (b *Bot) handleEvent(ctx context.Context, evt socketmode.Event) {
	switch evt.Type {
	case socketmode.EventTypeConnecting:
		b.logger.Info("connecting to socket mode")

	case socketmode.EventTypeConnected:
		b.logger.Info("connected to socket mode")

	case socketmode.EventTypeConnectionError:
		b.logger.Warn("socket mode connection error", zap.Any("data", evt.Data))

	case socketmode.EventTypeSlashCommand:
		s, ok := evt.Data.(slack.SlashCommand)
		if !ok || evt.Request == nil {
			return
		}
		b.handleSlashCommand(ctx, *evt.Request, slackclient.CommandFromSlack(s))

	default:
		if evt.Request != nil {
			b.acker.Ack(*evt.Request)
		}
	}
}

func (b *Bot) handleSlashCommand(ctx context.Context, req socketmode.Request, cmd models.SlashCommand) {
	if text := b.dispatcher.Ack(cmd); text != "" {
		b.acker.Ack(req, map[string]interface{}{"text": text})
	} else {
		b.acker.Ack(req)
	}

	b.wg.Add(1)
	go func() {
		defer b.wg.Done()

		// the command outlives the event loop on shutdown
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), b.timeout)
		defer cancel()

		if _, err := b.dispatcher.Handle(ctx, cmd, b.responder(cmd.ResponseURL)); err != nil {
			b.logger.Warn("command finished with error",
				zap.String("command", cmd.Command),
				zap.Error(err))
		}
	}()
}

// Wait blocks until every in-flight command has been handled
func (b *Bot) Wait() {
	b.wg.Wait()
}
