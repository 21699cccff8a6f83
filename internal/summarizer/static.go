package summarizer

import (
	"context"
	"fmt"

	"github.com/guilhermegouw/chatmem/internal/message"
)

// Static is a model-free summarizer. It records which turns were folded
// without describing them, which keeps offline runs and tests deterministic.
type Static struct{}

// Merge implements Summarizer.
func (Static) Merge(_ context.Context, priorSummary string, newLines []*message.Message) (string, error) {
	if len(newLines) == 0 {
		return priorSummary, nil
	}

	line := fmt.Sprintf("[Summary of %d messages, seq %d-%d]",
		len(newLines), newLines[0].Seq, message.HighestSeq(newLines))
	if priorSummary == "" {
		return line, nil
	}
	return priorSummary + "\n" + line, nil
}

var _ Summarizer = Static{}
