package main

import (
	"context"
	"errors"
	"testing"

	"github.com/savaki/slackbrief/pkg/dynamodb"
	"github.com/savaki/slackbrief/pkg/handler"
	"github.com/savaki/slackbrief/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type statusUpdate struct {
	status string
	errMsg string
}

type mockRepo struct {
	invocations map[string]*models.Invocation
	updates     []statusUpdate
}

func (m *mockRepo) GetByID(ctx context.Context, invocationID string) (*models.Invocation, error) {
	inv, ok := m.invocations[invocationID]
	if !ok {
		return nil, dynamodb.ErrNotFound
	}
	return inv, nil
}

func (m *mockRepo) UpdateStatus(ctx context.Context, invocationID, status, errMsg string) error {
	m.updates = append(m.updates, statusUpdate{status: status, errMsg: errMsg})
	return nil
}

type mockHandler struct {
	status string
	err    error
	got    []models.SlashCommand
}

func (m *mockHandler) Handle(ctx context.Context, cmd models.SlashCommand, r handler.Responder) (string, error) {
	m.got = append(m.got, cmd)
	if err := r.Respond(ctx, "reply"); err != nil {
		return models.StatusFailed, err
	}
	return m.status, m.err
}

func newRepo() (*mockRepo, *models.Invocation) {
	inv := models.NewInvocation(models.SlashCommand{
		Command:     models.CommandAsk,
		Text:        "who owns billing?",
		ChannelID:   "C1",
		ResponseURL: "https://hooks.example/1",
	}, 0)
	return &mockRepo{invocations: map[string]*models.Invocation{inv.InvocationID: inv}}, inv
}

func TestRun(t *testing.T) {
	repo, inv := newRepo()
	h := &mockHandler{status: models.StatusCompleted}
	var respondedTo []string
	responder := func(url string) handler.Responder {
		return handler.ResponderFunc(func(ctx context.Context, text string) error {
			respondedTo = append(respondedTo, url)
			return nil
		})
	}

	err := run(context.Background(), inv.InvocationID, repo, h, responder, zap.NewNop())
	require.NoError(t, err)

	require.Len(t, h.got, 1)
	assert.Equal(t, "who owns billing?", h.got[0].Text)
	assert.Equal(t, []string{"https://hooks.example/1"}, respondedTo)
	assert.Equal(t, []statusUpdate{
		{status: models.StatusRunning},
		{status: models.StatusCompleted},
	}, repo.updates)
}

func TestRunRecordsFailure(t *testing.T) {
	repo, inv := newRepo()
	h := &mockHandler{status: models.StatusFailed, err: errors.New("search: rate limited")}
	responder := func(string) handler.Responder {
		return handler.ResponderFunc(func(context.Context, string) error { return nil })
	}

	err := run(context.Background(), inv.InvocationID, repo, h, responder, zap.NewNop())
	require.Error(t, err)

	require.Len(t, repo.updates, 2)
	assert.Equal(t, statusUpdate{status: models.StatusFailed, errMsg: "search: rate limited"}, repo.updates[1])
}

func TestRunSkipsFinishedInvocation(t *testing.T) {
	repo, inv := newRepo()
	inv.Status = models.StatusCompleted
	h := &mockHandler{status: models.StatusCompleted}

	err := run(context.Background(), inv.InvocationID, repo, h, nil, zap.NewNop())
	require.NoError(t, err)
	assert.Empty(t, h.got)
	assert.Empty(t, repo.updates)
}

func TestRunMissingInvocation(t *testing.T) {
	repo, _ := newRepo()

	err := run(context.Background(), "inv-missing", repo, &mockHandler{}, nil, zap.NewNop())
	assert.ErrorIs(t, err, dynamodb.ErrNotFound)
}
