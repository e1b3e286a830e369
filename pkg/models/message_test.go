package models

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestContextBlockDeduplicatesByTimestamp(t *testing.T) {
	input := []Message{
		{Timestamp: "1700000000.000100", Author: "alice", Text: "first"},
		{Timestamp: "1700000001.000100", Author: "bob", Text: "second"},
		{Timestamp: "1700000000.000100", Author: "alice", Text: "first, again"},
		{Timestamp: "1700000002.000100", Author: "carol", Text: "third"},
		{Timestamp: "1700000001.000100", Author: "bob", Text: "second"},
	}

	block := NewContextBlock(input...)

	require.Equal(t, 3, block.Len())
	assert.LessOrEqual(t, block.Len(), len(input))

	seen := map[string]int{}
	for _, m := range block.Messages() {
		seen[m.Timestamp]++
	}
	for ts, n := range seen {
		assert.Equal(t, 1, n, "timestamp %s", ts)
	}

	// the first occurrence wins
	assert.Equal(t, "first", block.Messages()[0].Text)
}

func TestContextBlockEqualityIsByExactString(t *testing.T) {
	block := NewContextBlock(
		Message{Timestamp: "1700000000.1", Text: "a"},
		Message{Timestamp: "1700000000.100000", Text: "b"},
	)

	assert.Equal(t, 2, block.Len())
}

func TestContextBlockAdd(t *testing.T) {
	var block ContextBlock
	assert.True(t, block.IsEmpty())

	assert.True(t, block.Add(Message{Timestamp: "1.0"}))
	assert.False(t, block.Add(Message{Timestamp: "1.0"}))
	assert.False(t, block.IsEmpty())
	assert.Equal(t, 1, block.Len())
}

func TestContextBlockPreservesInsertionOrder(t *testing.T) {
	block := NewContextBlock(
		Message{Timestamp: "3.0", Text: "c"},
		Message{Timestamp: "1.0", Text: "a"},
		Message{Timestamp: "2.0", Text: "b"},
	)

	var texts []string
	for _, m := range block.Messages() {
		texts = append(texts, m.Text)
	}
	assert.Equal(t, []string{"c", "a", "b"}, texts)
}

func TestRender(t *testing.T) {
	block := NewContextBlock(
		Message{
			Timestamp: "1700000000.000100",
			Author:    "alice",
			Text:      "deploy is done, see <https://ci.example.com/42|build 42> cc <@U123>",
			Permalink: "https://acme.slack.com/archives/C1/p1700000000000100",
		},
		Message{
			Timestamp: "1700000060.000200",
			Author:    "bob",
			Text:      "thanks",
		},
	)

	got := block.Render(RenderOptions{
		DateLayout: LongDateLayout,
		Location:   time.UTC,
		LinkLabel:  "[link]",
	})

	want := "• [2023-11-14 22:13] alice: deploy is done, see <https://ci.example.com/42|build 42> cc <@U123>\n" +
		"  <https://acme.slack.com/archives/C1/p1700000000000100|[link]>\n" +
		"\n" +
		"• [2023-11-14 22:14] bob: thanks"

	assert.Equal(t, want, got)
}

func TestRenderOmitsLinkWithoutPermalink(t *testing.T) {
	block := NewContextBlock(Message{Timestamp: "1700000000.000100", Author: "bob", Text: "hello"})

	got := block.Render(RenderOptions{Location: time.UTC})

	assert.NotContains(t, got, "<")
	assert.NotContains(t, got, "|")
	assert.Equal(t, 1, strings.Count(got, "•"))
}

func TestRenderDefaults(t *testing.T) {
	block := NewContextBlock(Message{
		Timestamp: "1700000000.000100",
		Author:    "alice",
		Text:      "hi",
		Permalink: "https://x",
	})

	got := block.Render(RenderOptions{Location: time.UTC})

	assert.Equal(t, "• [11/14 22:13] alice: hi\n  <https://x|"+DefaultLinkLabel+">", got)
}

func TestRenderEmpty(t *testing.T) {
	var block ContextBlock
	assert.Equal(t, "", block.Render(RenderOptions{}))
}

func TestMessageTime(t *testing.T) {
	tm, err := Message{Timestamp: "1700000000.500000"}.Time()
	require.NoError(t, err)
	assert.Equal(t, int64(1700000000), tm.Unix())
	assert.InDelta(t, float64(500*time.Millisecond), float64(tm.Nanosecond()), float64(time.Millisecond))

	_, err = Message{Timestamp: "not-a-ts"}.Time()
	assert.Error(t, err)
}

func TestRenderKeepsUnparseableTimestamp(t *testing.T) {
	block := NewContextBlock(Message{Timestamp: "bogus", Author: "a", Text: "b"})
	assert.Equal(t, "• [bogus] a: b", block.Render(RenderOptions{}))
}
