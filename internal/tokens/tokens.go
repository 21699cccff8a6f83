// Package tokens estimates the prompt cost of conversation messages.
//
// Estimates only decide when history gets compacted, so they trade accuracy
// for speed and determinism. No estimator here talks to a tokenizer.
package tokens

import (
	"fmt"

	"github.com/rivo/uniseg"

	"github.com/guilhermegouw/chatmem/internal/message"
)

// MessageOverhead is the flat cost charged per message for role markers
// and separators.
const MessageOverhead = 4

// Estimator estimates the token cost of a single message.
type Estimator interface {
	Estimate(msg *message.Message) int
}

// Func adapts a plain function to the Estimator interface.
type Func func(msg *message.Message) int

// Estimate calls f(msg).
func (f Func) Estimate(msg *message.Message) int {
	return f(msg)
}

// Total sums the estimates of msgs.
func Total(e Estimator, msgs []*message.Message) int {
	total := 0
	for _, m := range msgs {
		total += e.Estimate(m)
	}
	return total
}

// GraphemeEstimator counts user-perceived characters. Narrow clusters are
// charged NarrowPerToken to a token; wide clusters (CJK, emoji) are charged
// one token each.
type GraphemeEstimator struct {
	NarrowPerToken int // defaults to 4 if zero
}

// Estimate implements Estimator.
func (e GraphemeEstimator) Estimate(msg *message.Message) int {
	ratio := e.NarrowPerToken
	if ratio <= 0 {
		ratio = 4
	}

	narrow, wide := 0, 0
	rest := msg.Content
	state := -1
	var width int
	for len(rest) > 0 {
		_, rest, width, state = uniseg.FirstGraphemeClusterInString(rest, state)
		if width >= 2 {
			wide++
		} else {
			narrow++
		}
	}

	return MessageOverhead + wide + (narrow+ratio-1)/ratio
}

// WordEstimator charges per word as found by Unicode word segmentation,
// skipping whitespace. Every three words cost four tokens.
type WordEstimator struct{}

// Estimate implements Estimator.
func (WordEstimator) Estimate(msg *message.Message) int {
	words := 0
	rest := msg.Content
	state := -1
	var word string
	for len(rest) > 0 {
		word, rest, state = uniseg.FirstWordInString(rest, state)
		if isSpace(word) {
			continue
		}
		words++
	}

	return MessageOverhead + (words*4+2)/3
}

func isSpace(s string) bool {
	for _, r := range s {
		switch r {
		case ' ', '\t', '\n', '\r', '\v', '\f', '\u00a0', '\u3000':
		default:
			return false
		}
	}
	return true
}

// ByName returns the estimator registered under name.
func ByName(name string) (Estimator, error) {
	switch name {
	case "", "grapheme":
		return GraphemeEstimator{}, nil
	case "word":
		return WordEstimator{}, nil
	default:
		return nil, fmt.Errorf("unknown token estimator %q", name)
	}
}
