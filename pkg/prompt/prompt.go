// Package prompt assembles the text sent to the generation model.
//
// Every task prompt embeds FormattingRules verbatim so the model answers in
// Slack mrkdwn, and appends the rendered context block unchanged at the end.
package prompt

import (
	"strings"
)

// FormattingRules constrain model output to what Slack renders correctly.
const FormattingRules = `[Slack formatting rules: mandatory]
1. Never use ** (double asterisks). Bold text must be wrapped in single asterisks: *text*.
2. Never use # headings. Write headings as bold text, for example *[Heading]*.
3. Never use table syntax (| --- |). Use bullet lists ( • ) only.
4. Never include HTML tags such as <br>.
5. [Link and mention rules]
- Copy every <https://...|label> token exactly as given, without changing a single character.
- Copy every <@USERID> mention token exactly as given.
- Do not add spaces or line breaks inside or around those tokens.`

const groundingRules = `[Important]
Every message in the log below comes from the current channel.
Ignore any other knowledge and answer only with facts found in this log.`

const summarizeTask = `You are a meticulous note taker. Summarize the conversation log below in chronological order.

Instruction: %s

[Summary rules]
- Lead with conclusions and decisions.
- Use bullet points, and end each item with the <URL|label> link provided for its source message.
- Never alter the <https://...|label> link format.`

const askTask = `You are an expert on this team's internal knowledge. Base your answer only on the conversation log below.

Instruction: %s

[Answer rules]
1. Facts: make clear when, who and what.
2. Context: if a discussion reached no conclusion, say so.
3. Clarity: use bullet points so a manager understands the answer in ten seconds.
4. Evidence: attach the source link to every claim that has one.
5. If the log does not cover the topic, reply that the topic was not found in this channel.`

const summarizeKeywordTask = `Extract the best Slack search keywords from the user's instruction "%s".
Drop instruction words such as "summarize" and output only nouns separated by spaces.`

const askKeywordTask = `Extract keywords for a Slack search.
Instruction: %s
Rules:
- Pick the two most important nouns (project names, people, system names).
- Drop time and instruction words such as "this week" or "summarize".
- Output only the keywords.`

// Summarize builds the chronological-summary prompt
func Summarize(instruction, context string) string {
	return build(summarizeTask, instruction, "[Conversation log]", context)
}

// Ask builds the free-form analysis prompt
func Ask(instruction, context string) string {
	return build(askTask, instruction, "[Conversation log]:", context)
}

// SummarizeKeywords builds the keyword-extraction prompt used before a summarize search
func SummarizeKeywords(instruction string) string {
	return sprintf(summarizeKeywordTask, instruction)
}

// AskKeywords builds the keyword-extraction prompt used before an ask search
func AskKeywords(instruction string) string {
	return sprintf(askKeywordTask, instruction)
}

func build(task, instruction, contextHeading, context string) string {
	var sb strings.Builder
	sb.WriteString(sprintf(task, instruction))
	sb.WriteString("\n\n")
	sb.WriteString(groundingRules)
	sb.WriteString("\n\n")
	sb.WriteString(FormattingRules)
	sb.WriteString("\n\n")
	sb.WriteString(contextHeading)
	sb.WriteString("\n")
	sb.WriteString(context)
	return sb.String()
}

// sprintf substitutes the single %s verb without interpreting other verbs
// the user may have typed.
func sprintf(format, arg string) string {
	return strings.Replace(format, "%s", arg, 1)
}
