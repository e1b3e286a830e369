package models

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// Date layouts used when rendering context entries
const (
	ShortDateLayout = "01/02 15:04"
	LongDateLayout  = "2006-01-02 15:04"
)

// DefaultLinkLabel is the label placed inside <permalink|label> tokens
const DefaultLinkLabel = "[view message]"

// Message is one Slack message fetched as context for a single command invocation.
// Timestamp keeps Slack's exact "ts" string, which doubles as the message ID.
type Message struct {
	Timestamp string
	Author    string
	Text      string
	Permalink string
	SubType   string
}

// Time converts the Slack timestamp (unix seconds with a fractional part) to a time.Time
func (m Message) Time() (time.Time, error) {
	f, err := strconv.ParseFloat(m.Timestamp, 64)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", m.Timestamp, err)
	}
	sec, frac := math.Modf(f)
	return time.Unix(int64(sec), int64(frac*1e9)), nil
}

// RenderOptions controls how a ContextBlock is turned into prompt text
type RenderOptions struct {
	DateLayout string
	Location   *time.Location
	LinkLabel  string
}

// ContextBlock is an ordered list of messages with at most one entry per timestamp.
// Order is insertion order; the block never re-sorts.
type ContextBlock struct {
	messages []Message
	seen     map[string]struct{}
}

// NewContextBlock builds a block from msgs, dropping repeated timestamps
func NewContextBlock(msgs ...Message) ContextBlock {
	var b ContextBlock
	for _, m := range msgs {
		b.Add(m)
	}
	return b
}

// Add appends m unless a message with the same timestamp was already added
func (b *ContextBlock) Add(m Message) bool {
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	if _, ok := b.seen[m.Timestamp]; ok {
		return false
	}
	b.seen[m.Timestamp] = struct{}{}
	b.messages = append(b.messages, m)
	return true
}

// Len returns the number of distinct messages
func (b ContextBlock) Len() int {
	return len(b.messages)
}

// IsEmpty reports whether the block holds no messages
func (b ContextBlock) IsEmpty() bool {
	return len(b.messages) == 0
}

// Messages returns a copy of the messages in block order
func (b ContextBlock) Messages() []Message {
	out := make([]Message, len(b.messages))
	copy(out, b.messages)
	return out
}

// Render formats each message as
//
//	• [<date>] <author>: <text>
//	  <permalink|label>
//
// and joins entries with a blank line. The link line is omitted when the
// message has no permalink. Message text is copied byte for byte.
func (b ContextBlock) Render(opts RenderOptions) string {
	layout := opts.DateLayout
	if layout == "" {
		layout = ShortDateLayout
	}
	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}
	label := opts.LinkLabel
	if label == "" {
		label = DefaultLinkLabel
	}

	entries := make([]string, 0, len(b.messages))
	for _, m := range b.messages {
		date := m.Timestamp
		if t, err := m.Time(); err == nil {
			date = t.In(loc).Format(layout)
		}

		var sb strings.Builder
		fmt.Fprintf(&sb, "• [%s] %s: %s", date, m.Author, m.Text)
		if m.Permalink != "" {
			fmt.Fprintf(&sb, "\n  <%s|%s>", m.Permalink, label)
		}
		entries = append(entries, sb.String())
	}

	return strings.Join(entries, "\n\n")
}
