package fetcher

import "github.com/savaki/slackbrief/pkg/prompt"

// Mode selects where context messages come from
type Mode int

const (
	// ModeHistory reads the most recent channel messages
	ModeHistory Mode = iota
	// ModeSearch runs a channel-scoped keyword search
	ModeSearch
)

// QuerySource decides what the first search query is built from
type QuerySource int

const (
	// QueryRaw searches for the user's text as typed
	QueryRaw QuerySource = iota
	// QueryModel asks the generator to extract search keywords first
	QueryModel
)

// Merge decides how fallback matches combine with the first search
type Merge int

const (
	// MergeUnion keeps first-stage matches and appends fallback matches
	MergeUnion Merge = iota
	// MergeReplace discards first-stage matches in favour of the fallback
	MergeReplace
)

// Policy describes one retrieval strategy
type Policy struct {
	Mode          Mode
	InitialQuery  QuerySource
	KeywordPrompt func(instruction string) string
	// FallbackBelow re-runs the search with the raw text when the first stage
	// returns fewer matches than this. Zero disables the fallback.
	FallbackBelow int
	Merge         Merge
	Ascending     bool
}

// HistoryPolicy reads recent channel history
func HistoryPolicy() Policy {
	return Policy{Mode: ModeHistory}
}

// SummarizePolicy searches with model keywords, ascending, and replaces the
// result with a raw-text search when nothing matched
func SummarizePolicy() Policy {
	return Policy{
		Mode:          ModeSearch,
		InitialQuery:  QueryModel,
		KeywordPrompt: prompt.SummarizeKeywords,
		FallbackBelow: 1,
		Merge:         MergeReplace,
		Ascending:     true,
	}
}

// AskPolicy searches with model keywords and adds raw-text matches when
// fewer than five came back
func AskPolicy() Policy {
	return Policy{
		Mode:          ModeSearch,
		InitialQuery:  QueryModel,
		KeywordPrompt: prompt.AskKeywords,
		FallbackBelow: 5,
		Merge:         MergeUnion,
	}
}
