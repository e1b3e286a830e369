package models

// SlashCommand is the transport-independent part of a slash command payload
type SlashCommand struct {
	Command     string
	Text        string
	ChannelID   string
	UserID      string
	TeamID      string
	ResponseURL string
}
