package slack

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/savaki/slackbrief/pkg/models"
	"github.com/slack-go/slack"
)

// CommandFromSlack keeps the fields the dispatcher needs from a slash command
func CommandFromSlack(s slack.SlashCommand) models.SlashCommand {
	return models.SlashCommand{
		Command:     s.Command,
		Text:        s.Text,
		ChannelID:   s.ChannelID,
		UserID:      s.UserID,
		TeamID:      s.TeamID,
		ResponseURL: s.ResponseURL,
	}
}

// ParseSlashCommand decodes a form-encoded slash command body as delivered
// over HTTP. The second return value carries the raw ssl_check flag.
func ParseSlashCommand(body string) (models.SlashCommand, bool, error) {
	req, err := http.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	if err != nil {
		return models.SlashCommand{}, false, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	s, err := slack.SlashCommandParse(req)
	if err != nil {
		return models.SlashCommand{}, false, fmt.Errorf("parse slash command: %w", err)
	}

	return CommandFromSlack(s), req.PostForm.Get("ssl_check") == "1", nil
}
