package agent

import (
	"context"
	"fmt"
	"strings"
)

// Echo is an offline assistant that repeats the prompt back. It lets the
// chat loop and memory be exercised without a model.
type Echo struct{}

// Send implements Agent.
func (Echo) Send(_ context.Context, prompt string, opts SendOptions, callbacks StreamCallbacks) (string, error) {
	if strings.TrimSpace(prompt) == "" {
		return "", ErrEmptyPrompt
	}

	reply := fmt.Sprintf("You said: %s (%d earlier turns in view)", prompt, len(buildHistory(opts.History.Messages, prompt)))
	if callbacks.OnTextDelta != nil {
		if err := callbacks.OnTextDelta(reply); err != nil {
			return "", err
		}
	}
	return reply, nil
}

// Cancel implements Agent.
func (Echo) Cancel(string) {}

// IsBusy implements Agent.
func (Echo) IsBusy(string) bool { return false }

var _ Agent = Echo{}
