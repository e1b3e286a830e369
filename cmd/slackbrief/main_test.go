package main

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/savaki/slackbrief/pkg/handler"
	"github.com/savaki/slackbrief/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDispatcher struct {
	ack   string
	reply string
	err   error
	got   models.SlashCommand
}

func (s *stubDispatcher) Ack(cmd models.SlashCommand) string {
	return s.ack
}

func (s *stubDispatcher) Handle(ctx context.Context, cmd models.SlashCommand, r handler.Responder) (string, error) {
	s.got = cmd
	if err := r.Respond(ctx, s.reply); err != nil {
		return models.StatusFailed, err
	}
	return models.StatusCompleted, s.err
}

func TestDispatchTo(t *testing.T) {
	d := &stubDispatcher{ack: "Analysing...", reply: "Analysis:\n\nall good"}
	var out, errOut bytes.Buffer

	sc := models.SlashCommand{Command: models.CommandAsk, Text: "status?", ChannelID: "C1"}
	require.NoError(t, dispatchTo(context.Background(), d, sc, &out, &errOut))

	assert.Equal(t, "Analysis:\n\nall good\n", out.String())
	assert.Equal(t, "Analysing...\n", errOut.String())
	assert.Equal(t, sc, d.got)
}

func TestDispatchToReturnsHandleError(t *testing.T) {
	d := &stubDispatcher{reply: "Error: boom", err: errors.New("boom")}
	var out, errOut bytes.Buffer

	err := dispatchTo(context.Background(), d, models.SlashCommand{Command: models.CommandListChannels}, &out, &errOut)
	assert.EqualError(t, err, "boom")
	assert.Equal(t, "Error: boom\n", out.String())
	assert.Empty(t, errOut.String())
}

func TestRootCommands(t *testing.T) {
	root := newRootCmd()

	var names []string
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}
	assert.ElementsMatch(t, []string{"serve", "summarize", "ask", "channels"}, names)
}

func TestAskRequiresQuestion(t *testing.T) {
	root := newRootCmd()
	root.SetArgs([]string{"ask", "--channel", "C1"})
	root.SetOut(&bytes.Buffer{})
	root.SetErr(&bytes.Buffer{})

	assert.Error(t, root.Execute())
}
