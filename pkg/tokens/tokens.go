// Package tokens estimates the token footprint of an outgoing exchange so
// it can be attached to inference parameters and logged for budget
// visibility.
package tokens

import (
	"sync"

	"github.com/tiktoken-go/tokenizer"
)

var (
	codec     tokenizer.Codec
	codecOnce sync.Once
	codecErr  error
)

// getCodec returns the cl100k_base tokenizer, a reasonable approximation
// across backends.
func getCodec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		codec, codecErr = tokenizer.Get(tokenizer.Cl100kBase)
	})
	return codec, codecErr
}

// Estimate returns an approximate token count for text.
func Estimate(text string) (int, error) {
	c, err := getCodec()
	if err != nil {
		return 0, err
	}
	ids, _, err := c.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(ids), nil
}

// EstimateSimple returns a token count, falling back to a bytes/4 heuristic
// when the tokenizer is unavailable.
func EstimateSimple(text string) int {
	count, err := Estimate(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
