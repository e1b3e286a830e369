package models

import (
	"strings"
	"testing"
	"time"
)

func TestNewInvocation(t *testing.T) {
	cmd := SlashCommand{
		Command:     CommandSummarize,
		Text:        "release plan",
		ChannelID:   "C123456",
		UserID:      "U789ABC",
		ResponseURL: "https://hooks.slack.com/commands/T1/1/abc",
	}

	inv := NewInvocation(cmd, 0)

	if inv.Command != CommandSummarize {
		t.Errorf("Command = %s, want %s", inv.Command, CommandSummarize)
	}

	if inv.ChannelID != "C123456" {
		t.Errorf("ChannelID = %s, want C123456", inv.ChannelID)
	}

	if inv.Status != StatusPending {
		t.Errorf("Status = %s, want %s", inv.Status, StatusPending)
	}

	if !strings.HasPrefix(inv.InvocationID, "inv-") {
		t.Errorf("InvocationID should start with 'inv-', got %s", inv.InvocationID)
	}

	if inv.CreatedAt.IsZero() {
		t.Error("CreatedAt should be set")
	}

	if inv.SlashCommand() != cmd {
		t.Errorf("SlashCommand() = %+v, want %+v", inv.SlashCommand(), cmd)
	}
}

func TestIsTerminal(t *testing.T) {
	tests := []struct {
		status string
		want   bool
	}{
		{StatusPending, false},
		{StatusRunning, false},
		{StatusCompleted, true},
		{StatusEmpty, true},
		{StatusFailed, true},
	}

	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			if got := IsTerminal(tt.status); got != tt.want {
				t.Errorf("IsTerminal(%s) = %v, want %v", tt.status, got, tt.want)
			}
		})
	}
}

func TestInvocationUniqueIDs(t *testing.T) {
	a := NewInvocation(SlashCommand{}, 0)
	b := NewInvocation(SlashCommand{}, 0)

	if a.InvocationID == b.InvocationID {
		t.Error("InvocationIDs should be unique")
	}
}

func TestInvocationTTL(t *testing.T) {
	inv := NewInvocation(SlashCommand{}, 24*time.Hour)

	expected := time.Now().Add(24 * time.Hour).Unix()
	if diff := inv.TTL - expected; diff < -10 || diff > 10 {
		t.Errorf("TTL = %d, expected approximately %d", inv.TTL, expected)
	}

	def := NewInvocation(SlashCommand{}, 0)
	expected = time.Now().Add(DefaultInvocationTTL).Unix()
	if diff := def.TTL - expected; diff < -10 || diff > 10 {
		t.Errorf("default TTL = %d, expected approximately %d", def.TTL, expected)
	}
}
