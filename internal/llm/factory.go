package llm

import (
	"fmt"
	"strings"
	"time"
)

const (
	ProviderOpenAI = "openai"
	ProviderYandex = "yandex"
)

// Factory creates LLM clients with consistent logic
type Factory struct {
	OpenaiAPIKey     string
	OpenaiBaseURL    string
	YandexOAuthToken string
	YandexFolderID   string
	Timeout          time.Duration
}

func (f *Factory) CreateClient(provider, model string) (Client, error) {
	switch strings.ToLower(provider) {
	case ProviderOpenAI:
		return NewOpenAI(f.OpenaiAPIKey, f.OpenaiBaseURL, model, f.Timeout), nil
	case ProviderYandex:
		return NewYandex(f.YandexOAuthToken, f.YandexFolderID, f.Timeout)
	default:
		return nil, fmt.Errorf("unknown llm provider: %s", provider)
	}
}
