package slack

import (
	"context"
	"fmt"

	"github.com/savaki/slackbrief/pkg/models"
	"github.com/slack-go/slack"
)

// Channel types included when listing conversations
var listChannelTypes = []string{"public_channel", "private_channel"}

// Client wraps the Slack SDK client for use throughout the application.
// Search, history and channel listing need a user token (xoxp-), so callers
// typically hold one Client per token.
type Client struct {
	client *slack.Client
}

// NewClient creates a new Slack client for the given bot or user token
func NewClient(token string, options ...slack.Option) *Client {
	return &Client{
		client: slack.New(token, options...),
	}
}

// NewClientWithAppToken creates a new Slack client with bot token and app token for Socket Mode
func NewClientWithAppToken(botToken, appToken string) *Client {
	return &Client{
		client: slack.New(botToken, slack.OptionAppLevelToken(appToken)),
	}
}

// GetRawClient returns the underlying slack.Client for advanced operations like Socket Mode
func (c *Client) GetRawClient() *slack.Client {
	return c.client
}

// Respond delivers text through a slash command's response_url.
// responseType is slack.ResponseTypeEphemeral or slack.ResponseTypeInChannel.
func (c *Client) Respond(ctx context.Context, responseURL, responseType, text string) error {
	if responseURL == "" {
		return fmt.Errorf("respond: empty response url")
	}
	_, _, err := c.client.PostMessageContext(ctx, "",
		slack.MsgOptionText(text, false),
		slack.MsgOptionResponseURL(responseURL, responseType),
	)
	if err != nil {
		return fmt.Errorf("respond: %w", err)
	}

	return nil
}

// SearchMessages runs a search.messages query sorted by timestamp.
// ascending selects the sort direction.
func (c *Client) SearchMessages(ctx context.Context, query string, count int, ascending bool) ([]models.Message, error) {
	params := slack.NewSearchParameters()
	params.Sort = "timestamp"
	params.SortDirection = "desc"
	if ascending {
		params.SortDirection = "asc"
	}
	params.Count = count

	resp, err := c.client.SearchMessagesContext(ctx, query, params)
	if err != nil {
		return nil, fmt.Errorf("search messages: %w", err)
	}

	messages := make([]models.Message, 0, len(resp.Matches))
	for _, m := range resp.Matches {
		messages = append(messages, models.Message{
			Timestamp: m.Timestamp,
			Author:    firstNonEmpty(m.Username, m.User),
			Text:      m.Text,
			Permalink: m.Permalink,
		})
	}

	return messages, nil
}

// ConversationHistory returns up to limit of the most recent channel messages,
// newest first, as Slack delivers them
func (c *Client) ConversationHistory(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	resp, err := c.client.GetConversationHistoryContext(ctx, &slack.GetConversationHistoryParameters{
		ChannelID: channelID,
		Limit:     limit,
	})
	if err != nil {
		return nil, fmt.Errorf("conversation history: %w", err)
	}

	messages := make([]models.Message, 0, len(resp.Messages))
	for _, m := range resp.Messages {
		messages = append(messages, models.Message{
			Timestamp: m.Timestamp,
			Author:    firstNonEmpty(m.User, m.Username),
			Text:      m.Text,
			SubType:   m.SubType,
		})
	}

	return messages, nil
}

// GetPermalink looks up the permalink of a single message
func (c *Client) GetPermalink(ctx context.Context, channelID, timestamp string) (string, error) {
	link, err := c.client.GetPermalinkContext(ctx, &slack.PermalinkParameters{
		Channel: channelID,
		Ts:      timestamp,
	})
	if err != nil {
		return "", fmt.Errorf("get permalink: %w", err)
	}

	return link, nil
}

// ListMemberChannels returns the names of non-archived public and private
// channels the token's user is a member of
func (c *Client) ListMemberChannels(ctx context.Context) ([]string, error) {
	var names []string
	cursor := ""
	for {
		channels, next, err := c.client.GetConversationsContext(ctx, &slack.GetConversationsParameters{
			Cursor:          cursor,
			ExcludeArchived: true,
			Limit:           200,
			Types:           listChannelTypes,
		})
		if err != nil {
			return nil, fmt.Errorf("list conversations: %w", err)
		}

		for _, ch := range channels {
			if ch.IsMember {
				names = append(names, ch.Name)
			}
		}

		if next == "" {
			return names, nil
		}
		cursor = next
	}
}

// AuthTest verifies the token is valid
func (c *Client) AuthTest(ctx context.Context) (*slack.AuthTestResponse, error) {
	resp, err := c.client.AuthTestContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("auth test: %w", err)
	}

	return resp, nil
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
