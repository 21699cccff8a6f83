package summarizer

import (
	"strings"

	"github.com/guilhermegouw/chatmem/internal/message"
)

// SystemPrompt frames the model as a summarizer rather than a chat partner.
const SystemPrompt = `You maintain the running summary of a conversation between a user and an assistant.
Answer with the updated summary only, no preamble.`

// BuildPrompt renders the progressive summary request for priorSummary and
// the new lines of conversation.
func BuildPrompt(priorSummary string, newLines []*message.Message) string {
	var b strings.Builder

	b.WriteString("Current summary of the conversation:\n\n")
	if priorSummary == "" {
		b.WriteString("(none yet)")
	} else {
		b.WriteString(priorSummary)
	}

	b.WriteString("\n\nNew lines of conversation:\n\n")
	for i, m := range newLines {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(m.Line())
	}

	b.WriteString("\n\nUpdate the summary so it covers the new lines while keeping what still matters from the current summary.")
	return b.String()
}
