// Package llm talks to the text generation providers used for tool content.
package llm

import (
	"context"
	"errors"
)

// ErrEmptyResponse is returned when a provider answers without text.
var ErrEmptyResponse = errors.New("empty response from model")

// TextGenerator generates text from a system prompt and user prompt.
// Every provider implements it.
type TextGenerator interface {
	GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error)
}
