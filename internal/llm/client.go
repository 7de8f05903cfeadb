package llm

import (
	"context"
	"errors"
)

// ErrGenerative marks generative-model failures: the provider was
// unreachable, timed out, or returned an unusable completion.
var ErrGenerative = errors.New("generative model failure")

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

type Message struct {
	Role    string
	Content string
}

// Options bound a single generation call. Zero values mean provider defaults.
type Options struct {
	MaxTokens   int
	Temperature float32
}

type Response struct {
	Content          string
	Model            string
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
}

type Client interface {
	Generate(ctx context.Context, messages []Message, opts Options) (Response, error)
}
