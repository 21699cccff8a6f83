package agent

import "strings"

// summaryHeader introduces the running summary in the system message.
const summaryHeader = "Summary of the earlier conversation:"

// systemBlocks returns the system message parts: the configured prompt and,
// when the session has one, its running summary.
func systemBlocks(systemPrompt, summary string) []string {
	blocks := []string{systemPrompt}
	if s := strings.TrimSpace(summary); s != "" {
		blocks = append(blocks, summaryHeader+"\n"+s)
	}
	return blocks
}
