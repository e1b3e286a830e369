// Package fetcher collects the channel messages a command is grounded on.
package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/savaki/slackbrief/pkg/models"
	"go.uber.org/zap"
)

// Default limits
const (
	DefaultHistoryLimit = 100
	DefaultSearchCount  = 50
)

const unknownAuthor = "unknown"

// SlackAPI is the subset of the Slack client the fetcher needs.
// Calls are made with a user token.
type SlackAPI interface {
	SearchMessages(ctx context.Context, query string, count int, ascending bool) ([]models.Message, error)
	ConversationHistory(ctx context.Context, channelID string, limit int) ([]models.Message, error)
	GetPermalink(ctx context.Context, channelID, timestamp string) (string, error)
}

// Generator produces text from a prompt; used for search keyword extraction
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// FetchError reports a Slack API failure while collecting context
type FetchError struct {
	Stage string
	Err   error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s: %v", e.Stage, e.Err)
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// Options configure a Fetcher
type Options struct {
	// WorkspaceURL, e.g. https://acme.slack.com, is used to derive history
	// permalinks without an API call.
	WorkspaceURL string
	// LookupPermalinks forces a chat.getPermalink call per history message.
	LookupPermalinks bool
	HistoryLimit     int
	SearchCount      int
}

// Request is one context fetch
type Request struct {
	ChannelID   string
	Instruction string
	Policy      Policy
	// Limit overrides the configured history limit or search count
	Limit int
}

// Fetcher retrieves and normalizes channel messages
type Fetcher struct {
	slack  SlackAPI
	gen    Generator
	opts   Options
	logger *zap.Logger
}

// New creates a Fetcher
func New(slack SlackAPI, gen Generator, opts Options, logger *zap.Logger) *Fetcher {
	if opts.HistoryLimit <= 0 {
		opts.HistoryLimit = DefaultHistoryLimit
	}
	if opts.SearchCount <= 0 {
		opts.SearchCount = DefaultSearchCount
	}
	opts.WorkspaceURL = strings.TrimRight(opts.WorkspaceURL, "/")
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Fetcher{
		slack:  slack,
		gen:    gen,
		opts:   opts,
		logger: logger,
	}
}

// Fetch returns the context block for req. An empty block with a nil error
// means nothing matched; a *FetchError means Slack could not be read and
// nothing fetched so far is returned.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (models.ContextBlock, error) {
	switch req.Policy.Mode {
	case ModeHistory:
		return f.fetchHistory(ctx, req)
	case ModeSearch:
		return f.fetchSearch(ctx, req)
	default:
		return models.ContextBlock{}, fmt.Errorf("unknown fetch mode %d", req.Policy.Mode)
	}
}

func (f *Fetcher) fetchHistory(ctx context.Context, req Request) (models.ContextBlock, error) {
	limit := req.Limit
	if limit <= 0 {
		limit = f.opts.HistoryLimit
	}

	msgs, err := f.slack.ConversationHistory(ctx, req.ChannelID, limit)
	if err != nil {
		return models.ContextBlock{}, &FetchError{Stage: "history", Err: err}
	}

	// Slack delivers newest first
	var block models.ContextBlock
	for i := len(msgs) - 1; i >= 0; i-- {
		m := msgs[i]
		if m.Text == "" || m.SubType != "" {
			continue
		}
		if m.Author == "" {
			m.Author = unknownAuthor
		}

		link, err := f.permalink(ctx, req.ChannelID, m.Timestamp)
		if err != nil {
			return models.ContextBlock{}, &FetchError{Stage: "permalink", Err: err}
		}
		m.Permalink = link

		block.Add(m)
	}

	f.logger.Debug("fetched channel history",
		zap.String("channel", req.ChannelID),
		zap.Int("delivered", len(msgs)),
		zap.Int("kept", block.Len()))

	return block, nil
}

func (f *Fetcher) permalink(ctx context.Context, channelID, ts string) (string, error) {
	if f.opts.LookupPermalinks || f.opts.WorkspaceURL == "" {
		return f.slack.GetPermalink(ctx, channelID, ts)
	}
	return DerivePermalink(f.opts.WorkspaceURL, channelID, ts), nil
}

// DerivePermalink builds a message permalink without calling Slack:
// <workspace>/archives/<channel>/p<ts with the dot removed>
func DerivePermalink(workspaceURL, channelID, ts string) string {
	return fmt.Sprintf("%s/archives/%s/p%s",
		strings.TrimRight(workspaceURL, "/"), channelID, strings.Replace(ts, ".", "", 1))
}

func (f *Fetcher) fetchSearch(ctx context.Context, req Request) (models.ContextBlock, error) {
	count := req.Limit
	if count <= 0 {
		count = f.opts.SearchCount
	}
	policy := req.Policy
	raw := strings.TrimSpace(req.Instruction)

	query := raw
	if policy.InitialQuery == QueryModel {
		keywords, err := f.keywords(ctx, policy, raw)
		if err != nil {
			return models.ContextBlock{}, &FetchError{Stage: "keywords", Err: err}
		}
		query = keywords
	}

	matches, err := f.search(ctx, req.ChannelID, query, count, policy.Ascending)
	if err != nil {
		return models.ContextBlock{}, &FetchError{Stage: "search", Err: err}
	}
	f.logger.Debug("search stage one",
		zap.String("channel", req.ChannelID),
		zap.String("query", query),
		zap.Int("matches", len(matches)))

	if len(matches) < policy.FallbackBelow && query != raw {
		fallback, err := f.search(ctx, req.ChannelID, raw, count, policy.Ascending)
		if err != nil {
			return models.ContextBlock{}, &FetchError{Stage: "fallback search", Err: err}
		}
		f.logger.Debug("search fallback",
			zap.String("channel", req.ChannelID),
			zap.String("query", raw),
			zap.Int("matches", len(fallback)))

		switch policy.Merge {
		case MergeReplace:
			matches = fallback
		default:
			matches = append(matches, fallback...)
		}
	}

	for i := range matches {
		if matches[i].Author == "" {
			matches[i].Author = unknownAuthor
		}
	}
	return models.NewContextBlock(matches...), nil
}

func (f *Fetcher) search(ctx context.Context, channelID, query string, count int, ascending bool) ([]models.Message, error) {
	q := strings.TrimSpace(fmt.Sprintf("in:%s %s", channelID, query))
	return f.slack.SearchMessages(ctx, q, count, ascending)
}

// keywords asks the generator for search keywords. Blank output searches the
// raw instruction; a generation error is returned.
func (f *Fetcher) keywords(ctx context.Context, policy Policy, raw string) (string, error) {
	if f.gen == nil || policy.KeywordPrompt == nil {
		return raw, nil
	}

	text, err := f.gen.Generate(ctx, policy.KeywordPrompt(raw))
	if err != nil {
		return "", err
	}

	keywords := strings.Join(strings.Fields(text), " ")
	if keywords == "" {
		f.logger.Debug("no keywords extracted, searching raw text")
		return raw, nil
	}
	return keywords, nil
}
