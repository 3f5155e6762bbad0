// Package utils provides tiktoken-based token counting utilities.
package utils

import (
	"fmt"
	"sync"

	"github.com/tiktoken-go/tokenizer"

	"github.com/gupta362/pm-agent-v2/pkg/config"
)

// TokenCounter estimates prompt sizes for a model.
type TokenCounter struct {
	codec        tokenizer.Codec
	model        string
	contextLimit int
}

//nolint:gochecknoglobals // codec construction parses a large BPE table; share it
var (
	codecOnce   sync.Once
	sharedCodec tokenizer.Codec
	codecErr    error
)

func gpt4Codec() (tokenizer.Codec, error) {
	codecOnce.Do(func() {
		sharedCodec, codecErr = tokenizer.ForModel(tokenizer.GPT4)
	})
	return sharedCodec, codecErr
}

// NewTokenCounter creates a token counter for model. Every provider is
// approximated with the GPT-4 encoding; the context limit comes from the model registry.
func NewTokenCounter(model string) (*TokenCounter, error) {
	codec, err := gpt4Codec()
	if err != nil {
		return nil, fmt.Errorf("failed to create tokenizer codec for model %s: %w", model, err)
	}
	info, _ := config.GetModelInfo(model)
	return &TokenCounter{codec: codec, model: model, contextLimit: info.MaxContextTokens}, nil
}

// CountTokens returns the number of tokens in text.
func (tc *TokenCounter) CountTokens(text string) int {
	if tc == nil || tc.codec == nil {
		// 4 chars ≈ 1 token
		return len(text) / 4
	}
	count, err := tc.codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}

// ContextLimit returns the model's context window in tokens.
func (tc *TokenCounter) ContextLimit() int {
	if tc == nil {
		return 0
	}
	return tc.contextLimit
}

// Budget reports used tokens and the share of the context window they occupy.
func (tc *TokenCounter) Budget(texts ...string) (used int, fraction float64) {
	for _, t := range texts {
		used += tc.CountTokens(t)
	}
	if limit := tc.ContextLimit(); limit > 0 {
		fraction = float64(used) / float64(limit)
	}
	return used, fraction
}

// CountTokensSimple counts with the GPT-4 encoding without a TokenCounter instance.
func CountTokensSimple(text string) int {
	codec, err := gpt4Codec()
	if err != nil {
		return len(text) / 4
	}
	count, err := codec.Count(text)
	if err != nil {
		return len(text) / 4
	}
	return count
}
