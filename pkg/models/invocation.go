package models

import (
	"crypto/rand"
	"time"

	"github.com/oklog/ulid/v2"
)

// Slash commands served by the bot
const (
	CommandSummarize    = "/summarize"
	CommandAsk          = "/ask"
	CommandListChannels = "/list-channels"
)

// Invocation records one slash command received over HTTP so the worker
// can pick it up after the 3 second acknowledgment window has closed
type Invocation struct {
	InvocationID string     `dynamodbav:"invocation_id"`
	Command      string     `dynamodbav:"command"`
	Text         string     `dynamodbav:"text"`
	ChannelID    string     `dynamodbav:"channel_id"`
	UserID       string     `dynamodbav:"user_id"`
	TeamID       string     `dynamodbav:"team_id,omitempty"`
	ResponseURL  string     `dynamodbav:"response_url"`
	Status       string     `dynamodbav:"status"` // pending, running, completed, empty, failed
	CreatedAt    time.Time  `dynamodbav:"created_at"`
	CompletedAt  *time.Time `dynamodbav:"completed_at,omitempty"`
	ExecutionArn string     `dynamodbav:"execution_arn,omitempty"`
	Error        string     `dynamodbav:"error,omitempty"`
	TTL          int64      `dynamodbav:"ttl"` // Unix timestamp
}

// Invocation status constants
const (
	StatusPending   = "pending"
	StatusRunning   = "running"
	StatusCompleted = "completed"
	StatusEmpty     = "empty"
	StatusFailed    = "failed"
)

// DefaultInvocationTTL is how long invocation records are kept
const DefaultInvocationTTL = 7 * 24 * time.Hour

// NewInvocation creates a pending invocation with a generated ID
func NewInvocation(cmd SlashCommand, ttl time.Duration) *Invocation {
	if ttl <= 0 {
		ttl = DefaultInvocationTTL
	}
	now := time.Now()

	return &Invocation{
		InvocationID: generateInvocationID(),
		Command:      cmd.Command,
		Text:         cmd.Text,
		ChannelID:    cmd.ChannelID,
		UserID:       cmd.UserID,
		TeamID:       cmd.TeamID,
		ResponseURL:  cmd.ResponseURL,
		Status:       StatusPending,
		CreatedAt:    now,
		TTL:          now.Add(ttl).Unix(),
	}
}

// SlashCommand returns the command this invocation was created from
func (i *Invocation) SlashCommand() SlashCommand {
	return SlashCommand{
		Command:     i.Command,
		Text:        i.Text,
		ChannelID:   i.ChannelID,
		UserID:      i.UserID,
		TeamID:      i.TeamID,
		ResponseURL: i.ResponseURL,
	}
}

// IsTerminal reports whether status ends an invocation
func IsTerminal(status string) bool {
	return status == StatusCompleted || status == StatusEmpty || status == StatusFailed
}

func generateInvocationID() string {
	return "inv-" + generateULID()
}

func generateULID() string {
	id, _ := ulid.New(ulid.Timestamp(time.Now()), rand.Reader)
	return id.String()
}
