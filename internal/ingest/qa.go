package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"nik-bot/internal/llm"
)

type QAPair struct {
	Question string
	Answer   string
}

type qaTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const qaSystemPrompt = "You are an expert at generating Q&A from transcripts."

func qaPrompt(chunk string) string {
	return fmt.Sprintf(`Convert the following transcript into a conversation between a user and an assistant:

%s

The user should ask meaningful questions, and the assistant should provide well-structured responses.

Return the response in JSON format like:
[
    {"role": "user", "content": "User's question"},
    {"role": "assistant", "content": "Assistant's response"},
    ...
]`, chunk)
}

func (l *Learner) extractQA(ctx context.Context, chunk string) ([]QAPair, error) {
	resp, err := l.client.Generate(ctx, []llm.Message{
		{Role: llm.RoleSystem, Content: qaSystemPrompt},
		{Role: llm.RoleUser, Content: qaPrompt(chunk)},
	}, llm.Options{MaxTokens: 750})
	if err != nil {
		return nil, fmt.Errorf("generate Q&A: %w", err)
	}
	return ParseQAPairs(resp.Content)
}

// ParseQAPairs decodes the model's JSON turn list and pairs consecutive
// user/assistant turns. Dangling turns are dropped.
func ParseQAPairs(raw string) ([]QAPair, error) {
	var turns []qaTurn
	if err := json.Unmarshal([]byte(StripCodeFence(raw)), &turns); err != nil {
		return nil, fmt.Errorf("decode Q&A json: %w", err)
	}

	var pairs []QAPair
	for i := 0; i+1 < len(turns); i++ {
		if turns[i].Role != "user" || turns[i+1].Role != "assistant" {
			continue
		}
		q := strings.TrimSpace(turns[i].Content)
		a := strings.TrimSpace(turns[i+1].Content)
		if q == "" || a == "" {
			continue
		}
		pairs = append(pairs, QAPair{Question: q, Answer: a})
		i++
	}
	if len(pairs) == 0 {
		return nil, fmt.Errorf("no usable Q&A pairs in response")
	}
	return pairs, nil
}

// StripCodeFence removes a surrounding markdown code block, if present.
func StripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
