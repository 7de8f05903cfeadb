// Package embedding converts text into fixed-length vectors for retrieval.
package embedding

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/sashabaranov/go-openai"
)

// ErrProvider marks embedding failures: the provider was unreachable, the
// input was empty, or the returned vector was malformed. Callers treat a
// wrapped ErrProvider as "no match" in the lookup path.
var ErrProvider = errors.New("embedding provider failure")

type Provider interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

type OpenAIProvider struct {
	client *openai.Client
	model  openai.EmbeddingModel
}

// NewOpenAI builds a provider whose calls are bounded by timeout. A hung
// provider surfaces as an ErrProvider-wrapped error, not a stuck handler.
func NewOpenAI(apiKey, baseURL, model string, timeout time.Duration) *OpenAIProvider {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	if timeout > 0 {
		config.HTTPClient = &http.Client{Timeout: timeout}
	}
	return &OpenAIProvider{
		client: openai.NewClientWithConfig(config),
		model:  openai.EmbeddingModel(model),
	}
}

func (p *OpenAIProvider) Embed(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("%w: empty input", ErrProvider)
	}
	resp, err := p.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: p.model,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProvider, err)
	}
	if len(resp.Data) == 0 || len(resp.Data[0].Embedding) == 0 {
		return nil, fmt.Errorf("%w: empty vector in response", ErrProvider)
	}
	return resp.Data[0].Embedding, nil
}
